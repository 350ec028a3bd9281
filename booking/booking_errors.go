package booking

import "errors"

var ErrBookingNotFound = errors.New("booking not found")

var ErrInvalidBookingState = errors.New("invalid booking state")

var ErrInvalidStart = errors.New("invalid start date/time")

var ErrInvalidEnd = errors.New("invalid end date/time")

var ErrMissingContact = errors.New("name and phone are required")

var ErrSlotConflict = errors.New("slot already requested")

var ErrUnsupportedVersion = errors.New("unsupported record version")

var ErrRemoteNotConfigured = errors.New("remote booking backend not configured")

var ErrRemoteUnavailable = errors.New("remote booking backend unavailable")

// ErrStaleResponse is returned for a fetch that was superseded by a newer request.
var ErrStaleResponse = errors.New("stale response")

var ErrStoreUnavailable = errors.New("booking store unavailable")

// ErrManagedRemotely is returned for changes that only the remote backend can make.
var ErrManagedRemotely = errors.New("booking is managed by the remote backend")
