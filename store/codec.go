package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	bk "github.com/hanksha/garage-booking-backend/booking"
)

// Encode serializes bookings as a JSON array of current-version records.
func Encode(bookings []bk.Booking) ([]byte, error) {
	records := make([]bk.Record, 0, len(bookings))

	for _, b := range bookings {
		records = append(records, b.Record())
	}

	data, err := json.Marshal(records)

	if err != nil {
		return nil, fmt.Errorf("failed to encode bookings: %w", err)
	}

	return data, nil
}

// Decoded is the outcome of reading a slot.
type Decoded struct {
	Bookings []bk.Booking
	// Migrated is set when at least one record was not stored in the current format.
	Migrated bool
	Skipped  int
}

// Decode never fails. Data that is not a JSON array counts as an empty
// collection; elements that cannot be normalized or repeat an id are skipped.
func Decode(data []byte, normalizer bk.Normalizer) Decoded {
	decoded := Decoded{Bookings: []bk.Booking{}}

	if len(bytes.TrimSpace(data)) == 0 {
		return decoded
	}

	var items []json.RawMessage

	if err := json.Unmarshal(data, &items); err != nil {
		return decoded
	}

	seen := map[string]struct{}{}

	for _, item := range items {
		var record bk.Record

		if err := json.Unmarshal(item, &record); err != nil {
			decoded.Skipped++
			continue
		}

		if bk.DetectVersion(record) != bk.CurrentVersion || len(record.ID) == 0 {
			decoded.Migrated = true
		}

		booking, err := normalizer.Normalize(record)

		if err != nil {
			decoded.Skipped++
			continue
		}

		if _, dup := seen[booking.ID]; dup {
			decoded.Skipped++
			continue
		}

		seen[booking.ID] = struct{}{}
		decoded.Bookings = append(decoded.Bookings, booking)
	}

	return decoded
}
