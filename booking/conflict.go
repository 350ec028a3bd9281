package booking

import "time"

// Conflicts reports whether another booking already holds start. Unparseable
// input never conflicts; callers validate start before asking.
func Conflicts(bookings []Booking, start string, excludeID string) bool {
	t, err := ParseInstant(start)

	if err != nil {
		return false
	}

	return ConflictsAt(bookings, t, excludeID)
}

func ConflictsAt(bookings []Booking, start time.Time, excludeID string) bool {
	_, found := FindConflict(bookings, start, excludeID)
	return found
}

// FindConflict returns the first booking, other than excludeID, starting at the
// same instant as start. Cancelled bookings do not hold their slot.
func FindConflict(bookings []Booking, start time.Time, excludeID string) (Booking, bool) {
	for _, b := range bookings {
		if len(excludeID) != 0 && b.ID == excludeID {
			continue
		}

		if b.Status == StatusCancelled {
			continue
		}

		if b.Start.Equal(start) {
			return b, true
		}
	}

	return Booking{}, false
}
