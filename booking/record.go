package booking

import (
	"fmt"
	"strings"
	"time"
)

// CurrentVersion is the record format written by Booking.Record.
//
//	v0: calendar event {title, start, allDay, *Color, extendedProps{name, phone, email, notes}}
//	v1: spreadsheet row {id, title, start, end, name, phone, email, notes, status}
//	v2: {v, id, title, start, end, allDay, status, contact{...}, colors{...}}
const CurrentVersion = 2

// Record is the persisted shape of a booking. It is a superset of every
// version so that any stored element decodes into it.
type Record struct {
	Version int      `json:"v,omitempty"`
	ID      string   `json:"id,omitempty"`
	Title   string   `json:"title,omitempty"`
	Start   string   `json:"start,omitempty"`
	End     string   `json:"end,omitempty"`
	AllDay  *bool    `json:"allDay,omitempty"`
	Status  string   `json:"status,omitempty"`
	Contact *Contact `json:"contact,omitempty"`
	Colors  *Colors  `json:"colors,omitempty"`

	BackgroundColor string   `json:"backgroundColor,omitempty"`
	BorderColor     string   `json:"borderColor,omitempty"`
	TextColor       string   `json:"textColor,omitempty"`
	ExtendedProps   *Contact `json:"extendedProps,omitempty"`

	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// DetectVersion returns the explicit version of r, or infers it from the
// fields present when the record predates versioning.
func DetectVersion(r Record) int {
	if r.Version > 0 {
		return r.Version
	}

	if r.ExtendedProps != nil || r.BackgroundColor != "" || r.BorderColor != "" || r.TextColor != "" {
		return 0
	}

	if r.Contact != nil || r.Colors != nil {
		return CurrentVersion
	}

	if len(r.ID) == 0 {
		return 0
	}

	return 1
}

var migrations = map[int]func(Record) Record{
	0: migrateV0,
	1: migrateV1,
}

// Migrate lifts r to CurrentVersion one version at a time.
func Migrate(r Record) (Record, error) {
	version := DetectVersion(r)

	if version > CurrentVersion {
		return Record{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	for version < CurrentVersion {
		r = migrations[version](r)
		version = r.Version
	}

	return r, nil
}

// migrateV0 flattens calendar extendedProps into row fields. Flat values
// already present take precedence.
func migrateV0(r Record) Record {
	if r.ExtendedProps != nil {
		props := *r.ExtendedProps
		r.Name = firstNonEmpty(r.Name, props.Name)
		r.Phone = firstNonEmpty(r.Phone, props.Phone)
		r.Email = firstNonEmpty(r.Email, props.Email)
		r.Notes = firstNonEmpty(r.Notes, props.Notes)
	}

	r.ExtendedProps = nil
	r.Version = 1

	return r
}

// migrateV1 groups row fields into contact and colors.
func migrateV1(r Record) Record {
	if r.Contact == nil {
		r.Contact = &Contact{Name: r.Name, Phone: r.Phone, Email: r.Email, Notes: r.Notes}
	}

	if r.Colors == nil && (r.BackgroundColor != "" || r.BorderColor != "" || r.TextColor != "") {
		r.Colors = &Colors{Background: r.BackgroundColor, Border: r.BorderColor, Text: r.TextColor}
	}

	r.Name, r.Phone, r.Email, r.Notes = "", "", "", ""
	r.BackgroundColor, r.BorderColor, r.TextColor = "", "", ""
	r.Version = 2

	return r
}

// Record returns b in the current persisted format.
func (b Booking) Record() Record {
	allDay := b.AllDay
	contact := b.Contact
	colors := b.Colors

	r := Record{
		Version: CurrentVersion,
		ID:      b.ID,
		Title:   b.Title,
		Start:   formatInstant(b.Start),
		AllDay:  &allDay,
		Status:  string(b.Status),
		Contact: &contact,
		Colors:  &colors,
	}

	if !b.End.IsZero() {
		r.End = formatInstant(b.End)
	}

	return r
}

// Normalizer fills the gaps of partial or legacy records.
type Normalizer struct {
	Theme    Colors
	Location *time.Location
}

var DefaultNormalizer = Normalizer{Theme: DefaultColors, Location: time.UTC}

func Normalize(r Record) (Booking, error) {
	return DefaultNormalizer.Normalize(r)
}

// Normalize migrates r and backfills id, title, end, allDay, status and
// colors. A record without a parseable start is rejected.
func (n Normalizer) Normalize(r Record) (Booking, error) {
	r, err := Migrate(r)

	if err != nil {
		return Booking{}, err
	}

	start, err := ParseInstantIn(r.Start, n.Location)

	if err != nil {
		return Booking{}, err
	}

	b := Booking{
		ID:     strings.TrimSpace(r.ID),
		Title:  strings.TrimSpace(r.Title),
		Start:  start.UTC(),
		Status: ParseStatus(r.Status),
		Colors: n.theme(),
	}

	if r.Contact != nil {
		b.Contact = Contact{
			Name:  strings.TrimSpace(r.Contact.Name),
			Phone: strings.TrimSpace(r.Contact.Phone),
			Email: strings.TrimSpace(r.Contact.Email),
			Notes: strings.TrimSpace(r.Contact.Notes),
		}
	}

	if len(b.Title) == 0 {
		b.Title = TitleFor(b.Contact.Name)
	}

	if len(b.ID) == 0 {
		b.ID = DerivedID(formatInstant(b.Start), b.Title, b.Contact.Name, b.Contact.Phone, b.Contact.Email, b.Contact.Notes)
	}

	if r.AllDay != nil {
		b.AllDay = *r.AllDay
	}

	b.End = b.Start.Add(DefaultDuration)

	if end, err := ParseInstantIn(r.End, n.Location); err == nil && end.After(start) {
		b.End = end.UTC()
	}

	if r.Colors != nil {
		b.Colors.Background = firstNonEmpty(r.Colors.Background, b.Colors.Background)
		b.Colors.Border = firstNonEmpty(r.Colors.Border, b.Colors.Border)
		b.Colors.Text = firstNonEmpty(r.Colors.Text, b.Colors.Text)
	}

	return b, nil
}

func (n Normalizer) theme() Colors {
	return Colors{
		Background: firstNonEmpty(n.Theme.Background, DefaultColors.Background),
		Border:     firstNonEmpty(n.Theme.Border, DefaultColors.Border),
		Text:       firstNonEmpty(n.Theme.Text, DefaultColors.Text),
	}
}

// ParseStatus maps stored status text to a Status, defaulting to requested.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirmed", "accepted":
		return StatusConfirmed
	case "cancelled", "canceled":
		return StatusCancelled
	default:
		return StatusRequested
	}
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if len(v) != 0 {
			return v
		}
	}

	return ""
}
