package booking

import "time"

// Event is a booking as the calendar widget renders it.
type Event struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	AllDay          bool       `json:"allDay"`
	BackgroundColor string     `json:"backgroundColor"`
	BorderColor     string     `json:"borderColor"`
	TextColor       string     `json:"textColor"`
	Editable        bool       `json:"editable"`
	ExtendedProps   EventProps `json:"extendedProps"`
}

type EventProps struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Notes  string `json:"notes"`
	Status Status `json:"status"`
}

func ToEvent(b Booking) Event {
	return Event{
		ID:              b.ID,
		Title:           b.Title,
		Start:           b.Start,
		End:             b.End,
		AllDay:          b.AllDay,
		BackgroundColor: b.Colors.Background,
		BorderColor:     b.Colors.Border,
		TextColor:       b.Colors.Text,
		Editable:        b.Status == StatusRequested,
		ExtendedProps: EventProps{
			Name:   b.Contact.Name,
			Phone:  b.Contact.Phone,
			Email:  b.Contact.Email,
			Notes:  b.Contact.Notes,
			Status: b.Status,
		},
	}
}
