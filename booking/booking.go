package booking

import "time"

type Status string

const (
	StatusRequested Status = "requested"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// DefaultDuration is the length given to a booking that has no usable end.
const DefaultDuration = time.Hour

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// Colors are presentation attributes only; they never take part in scheduling.
type Colors struct {
	Background string `json:"background"`
	Border     string `json:"border"`
	Text       string `json:"text"`
}

var DefaultColors = Colors{
	Background: "#0b6cf3",
	Border:     "#075acc",
	Text:       "#ffffff",
}

type Booking struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"allDay"`
	Status  Status    `json:"status"` // requested, confirmed, cancelled
	Contact Contact   `json:"contact"`
	Colors  Colors    `json:"colors"`
}

// Request holds the fields an operator submits when creating or editing a booking.
type Request struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

func TitleFor(name string) string {
	if name == "" {
		return "Appointment"
	}

	return "Appointment: " + name
}
