package notify

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	bk "github.com/hanksha/garage-booking-backend/booking"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers a single e-mail.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

const defaultFromName = "Garage Bookings"

type SendGridSender struct {
	from   *mail.Email
	client *sendgrid.Client
}

// NewSendGridSender returns nil when apiKey is empty.
func NewSendGridSender(apiKey, fromEmail string) *SendGridSender {
	if len(strings.TrimSpace(apiKey)) == 0 {
		return nil
	}

	return &SendGridSender{
		from:   mail.NewEmail(defaultFromName, fromEmail),
		client: sendgrid.NewSendClient(apiKey),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	htmlBody := strings.ReplaceAll(html.EscapeString(msg.Body), "\n", "<br>")
	message := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Body, htmlBody)

	res, err := s.client.SendWithContext(ctx, message)

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("request failed with status '%v' and body:\n%v", res.StatusCode, res.Body)
	}

	return nil
}

// EmailNotifier mails the shop owner.
type EmailNotifier struct {
	sender EmailSender
	to     string
	toName string
	loc    *time.Location
}

func NewEmailNotifier(sender EmailSender, to, toName string, loc *time.Location) *EmailNotifier {
	return &EmailNotifier{sender: sender, to: to, toName: toName, loc: loc}
}

func (e *EmailNotifier) Notify(ctx context.Context, n bk.Notification) error {
	content := Compose(n, e.loc)

	return e.sender.Send(ctx, EmailMessage{
		To:      e.to,
		ToName:  e.toName,
		Subject: content.Subject,
		Body:    content.Body(),
	})
}
