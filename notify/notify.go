// Package notify tells the shop owner about booking activity.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	bk "github.com/hanksha/garage-booking-backend/booking"
)

// Content is the human-readable form of a notification.
type Content struct {
	Subject string
	Lines   []string
}

func (c Content) Body() string {
	return strings.Join(c.Lines, "\n")
}

// Compose renders n with times shown in loc.
func Compose(n bk.Notification, loc *time.Location) Content {
	if loc == nil {
		loc = time.UTC
	}

	contact := n.Booking.Contact

	lines := []string{
		"Name: " + contact.Name,
		"Phone: " + contact.Phone,
		"Email: " + contact.Email,
		"Requested Date/Time: " + FormatTime(n.Booking.Start, loc),
		"Notes: " + contact.Notes,
	}

	if len(n.Reason) != 0 {
		lines = append(lines, "Reason: "+n.Reason)
	}

	return Content{Subject: subjectPrefix(n.Kind) + contact.Name, Lines: lines}
}

func subjectPrefix(kind bk.NotificationKind) string {
	switch kind {
	case bk.NotificationModified:
		return "Appointment Request Updated: "
	case bk.NotificationConfirmed:
		return "Appointment Confirmed: "
	case bk.NotificationCancelled:
		return "Appointment Cancelled: "
	default:
		return "New Appointment Request: "
	}
}

func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04 MST")
}

type LogNotifier struct {
	logger *slog.Logger
	loc    *time.Location
}

func NewLogNotifier(logger *slog.Logger, loc *time.Location) *LogNotifier {
	if logger == nil {
		logger = slog.Default().With("component", "notify")
	}

	return &LogNotifier{logger: logger, loc: loc}
}

func (l *LogNotifier) Notify(ctx context.Context, n bk.Notification) error {
	content := Compose(n, l.loc)
	l.logger.InfoContext(ctx, content.Subject, "id", n.Booking.ID, "kind", n.Kind, "body", content.Body())
	return nil
}

// Multi sends every notification to all of its notifiers.
type Multi []bk.Notifier

func (m Multi) Notify(ctx context.Context, n bk.Notification) error {
	var errs []error

	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
