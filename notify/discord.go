package notify

import (
	"context"
	"time"

	bk "github.com/hanksha/garage-booking-backend/booking"
	"github.com/hanksha/garage-booking-backend/discord"
)

var kindColors = map[bk.NotificationKind]int{
	bk.NotificationRequested: 0x0b6cf3,
	bk.NotificationModified:  0xf3a10b,
	bk.NotificationConfirmed: 0x2eb82e,
	bk.NotificationCancelled: 0xc42b39,
}

// DiscordNotifier posts an embed to the shop's channel.
type DiscordNotifier struct {
	client    discord.DiscordClient
	channelID string
	loc       *time.Location
}

func NewDiscordNotifier(client discord.DiscordClient, channelID string, loc *time.Location) *DiscordNotifier {
	if loc == nil {
		loc = time.UTC
	}

	return &DiscordNotifier{client: client, channelID: channelID, loc: loc}
}

func (d *DiscordNotifier) Notify(ctx context.Context, n bk.Notification) error {
	content := Compose(n, d.loc)
	booking := n.Booking

	email := "None"

	if len(booking.Contact.Email) != 0 {
		email = booking.Contact.Email
	}

	notes := "None"

	if len(booking.Contact.Notes) != 0 {
		notes = booking.Contact.Notes
	}

	embed := discord.Embed{
		Type:  "rich",
		Title: content.Subject,
		Color: kindColors[n.Kind],
		Fields: []discord.EmbedField{
			{
				Name:   "Customer",
				Value:  booking.Contact.Name,
				Inline: true,
			},
			{
				Name:   "Phone",
				Value:  booking.Contact.Phone,
				Inline: true,
			},
			{
				Name:   "Email",
				Value:  email,
				Inline: true,
			},
			{
				Name:   "Date and Time",
				Value:  FormatTime(booking.Start, d.loc),
				Inline: true,
			},
			{
				Name:   "Status",
				Value:  string(booking.Status),
				Inline: true,
			},
			{
				Name:   "Notes",
				Value:  notes,
				Inline: false,
			},
		},
	}

	if len(n.Reason) != 0 {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:   "Reason",
			Value:  n.Reason,
			Inline: false,
		})
	}

	return d.client.SendMessage(ctx, d.channelID, discord.Message{
		Embeds: []discord.Embed{embed},
	})
}
