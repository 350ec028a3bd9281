package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Store persists the whole booking collection. Load never fails; mutations
// use LoadForUpdate so that a failed read is never saved back as an empty
// collection.
type Store interface {
	Load(ctx context.Context) []Booking
	LoadForUpdate(ctx context.Context) ([]Booking, error)
	Save(ctx context.Context, bookings []Booking) error
	Flush(ctx context.Context) error
}

// RemoteBackend is the shared booking endpoint used by the remote-sync
// variant. It is the authority for conflicts between sessions.
type RemoteBackend interface {
	Fetch(ctx context.Context) ([]Record, error)
	Create(ctx context.Context, booking Booking) (Booking, error)
	Delete(ctx context.Context, id string) error
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

type NotificationKind string

const (
	NotificationRequested NotificationKind = "requested"
	NotificationModified  NotificationKind = "modified"
	NotificationConfirmed NotificationKind = "confirmed"
	NotificationCancelled NotificationKind = "cancelled"
)

type Notification struct {
	Kind    NotificationKind
	Booking Booking
	Reason  string
}

type Service struct {
	store      Store
	remote     RemoteBackend
	notifier   Notifier
	normalizer Normalizer
	logger     *slog.Logger

	// mu makes every load-modify-save sequence run without interleaving.
	mu sync.Mutex
}

type Option func(*Service)

func WithRemote(remote RemoteBackend) Option {
	return func(s *Service) {
		s.remote = remote
	}
}

func WithNormalizer(normalizer Normalizer) Option {
	return func(s *Service) {
		s.normalizer = normalizer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:      store,
		notifier:   notifier,
		normalizer: DefaultNormalizer,
		logger:     slog.Default().With("component", "booking"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) ListBookings(ctx context.Context) []Booking {
	return s.store.Load(ctx)
}

func (s *Service) ListEvents(ctx context.Context) []Event {
	bookings := s.store.Load(ctx)
	events := make([]Event, 0, len(bookings))

	for _, b := range bookings {
		events = append(events, ToEvent(b))
	}

	return events
}

func (s *Service) FindBookingByID(ctx context.Context, id string) (Booking, error) {
	bookings := s.store.Load(ctx)
	idx := indexOf(bookings, id)

	if idx < 0 {
		return Booking{}, ErrBookingNotFound
	}

	return bookings[idx], nil
}

// CheckConflict reports whether start is already held by a booking other than excludeID.
func (s *Service) CheckConflict(ctx context.Context, start, excludeID string) (bool, error) {
	t, err := ParseInstantIn(start, s.normalizer.Location)

	if err != nil {
		return false, err
	}

	return ConflictsAt(s.store.Load(ctx), t, excludeID), nil
}

// CreateBooking stores a new requested booking. A booking at an instant that is
// already taken fails with ErrSlotConflict unless override is set.
func (s *Service) CreateBooking(ctx context.Context, req Request, override bool) (Booking, error) {
	booking, err := s.fromRequest(req)

	if err != nil {
		return Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.store.LoadForUpdate(ctx)

	if err != nil {
		return Booking{}, fmt.Errorf("failed to load bookings: %w", err)
	}

	if existing, found := FindConflict(bookings, booking.Start, ""); found && !override {
		return Booking{}, fmt.Errorf("%w: booking '%v' starts at %v", ErrSlotConflict, existing.ID, formatInstant(existing.Start))
	}

	if s.remote != nil {
		created, err := s.remote.Create(ctx, booking)

		if err != nil {
			return Booking{}, remoteError(err)
		}

		booking.ID = created.ID
	} else {
		booking.ID = GenerateID()
	}

	bookings = append(bookings, booking)

	if err := s.store.Save(ctx, bookings); err != nil {
		return Booking{}, fmt.Errorf("failed to save booking: %w", err)
	}

	s.sendNotification(ctx, Notification{Kind: NotificationRequested, Booking: booking})

	return booking, nil
}

// ModifyBooking overwrites the fields of a requested booking in place, keeping its id.
// With a remote backend the next Sync would revert the edit, so it fails with
// ErrManagedRemotely.
func (s *Service) ModifyBooking(ctx context.Context, id string, req Request, override bool) (Booking, error) {
	if s.remote != nil {
		return Booking{}, ErrManagedRemotely
	}

	updated, err := s.fromRequest(req)

	if err != nil {
		return Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.store.LoadForUpdate(ctx)

	if err != nil {
		return Booking{}, fmt.Errorf("failed to load bookings: %w", err)
	}

	idx := indexOf(bookings, id)

	if idx < 0 {
		return Booking{}, ErrBookingNotFound
	}

	booking := bookings[idx]

	if booking.Status != StatusRequested {
		return Booking{}, ErrInvalidBookingState
	}

	if existing, found := FindConflict(bookings, updated.Start, id); found && !override {
		return Booking{}, fmt.Errorf("%w: booking '%v' starts at %v", ErrSlotConflict, existing.ID, formatInstant(existing.Start))
	}

	booking.Title = updated.Title
	booking.Start = updated.Start
	booking.End = updated.End
	booking.Contact = updated.Contact

	bookings[idx] = booking

	if err := s.store.Save(ctx, bookings); err != nil {
		return Booking{}, fmt.Errorf("failed to save booking: %w", err)
	}

	s.sendNotification(ctx, Notification{Kind: NotificationModified, Booking: booking})

	return booking, nil
}

func (s *Service) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.store.LoadForUpdate(ctx)

	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}

	idx := indexOf(bookings, id)

	if idx < 0 {
		return ErrBookingNotFound
	}

	if s.remote != nil {
		if err := s.remote.Delete(ctx, id); err != nil {
			return remoteError(err)
		}
	}

	if err := s.store.Save(ctx, slices.Delete(bookings, idx, idx+1)); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	return nil
}

// ConfirmBooking marks a requested booking as confirmed. With a remote backend
// the status is owned by the remote rows and it fails with ErrManagedRemotely.
func (s *Service) ConfirmBooking(ctx context.Context, id string) error {
	if s.remote != nil {
		return ErrManagedRemotely
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.store.LoadForUpdate(ctx)

	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}

	idx := indexOf(bookings, id)

	if idx < 0 {
		return ErrBookingNotFound
	}

	if bookings[idx].Status != StatusRequested {
		return ErrInvalidBookingState
	}

	bookings[idx].Status = StatusConfirmed

	if err := s.store.Save(ctx, bookings); err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}

	s.sendNotification(ctx, Notification{Kind: NotificationConfirmed, Booking: bookings[idx]})

	return nil
}

// CancelBooking removes the booking; a cancelled booking no longer holds its slot.
func (s *Service) CancelBooking(ctx context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.store.LoadForUpdate(ctx)

	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}

	idx := indexOf(bookings, id)

	if idx < 0 {
		return ErrBookingNotFound
	}

	booking := bookings[idx]

	if booking.Status == StatusCancelled {
		return ErrInvalidBookingState
	}

	if s.remote != nil {
		if err := s.remote.Delete(ctx, id); err != nil {
			return remoteError(err)
		}
	}

	if err := s.store.Save(ctx, slices.Delete(bookings, idx, idx+1)); err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	booking.Status = StatusCancelled
	s.sendNotification(ctx, Notification{Kind: NotificationCancelled, Booking: booking, Reason: reason})

	return nil
}

// Sync replaces the local collection with the remote one, dropping cancelled
// bookings. It returns the number of bookings kept. Mutations wait for the
// whole fetch and save, so a booking created meanwhile is never overwritten
// by an older remote snapshot.
func (s *Service) Sync(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, ErrRemoteNotConfigured
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.remote.Fetch(ctx)

	if errors.Is(err, ErrStaleResponse) {
		s.logger.Debug("discarding superseded remote fetch")
		return 0, nil
	}

	if err != nil {
		return 0, remoteError(err)
	}

	bookings := make([]Booking, 0, len(records))
	seen := map[string]struct{}{}

	for _, record := range records {
		booking, err := s.normalizer.Normalize(record)

		if err != nil {
			s.logger.Warn("skipping remote booking", "id", record.ID, "err", err)
			continue
		}

		if _, dup := seen[booking.ID]; dup || booking.Status == StatusCancelled {
			continue
		}

		seen[booking.ID] = struct{}{}
		bookings = append(bookings, booking)
	}

	if err := s.store.Save(ctx, bookings); err != nil {
		return 0, fmt.Errorf("failed to save synced bookings: %w", err)
	}

	return len(bookings), nil
}

// Flush waits until every save made so far is durably written.
func (s *Service) Flush(ctx context.Context) error {
	return s.store.Flush(ctx)
}

func (s *Service) fromRequest(req Request) (Booking, error) {
	contact := Contact{
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
		Email: strings.TrimSpace(req.Email),
		Notes: strings.TrimSpace(req.Notes),
	}

	if len(contact.Name) == 0 || len(contact.Phone) == 0 {
		return Booking{}, ErrMissingContact
	}

	start, err := ParseInstantIn(req.Start, s.normalizer.Location)

	if err != nil {
		return Booking{}, err
	}

	end := start.Add(DefaultDuration)

	if len(strings.TrimSpace(req.End)) != 0 {
		parsed, err := ParseInstantIn(req.End, s.normalizer.Location)

		if err != nil || !parsed.After(start) {
			return Booking{}, fmt.Errorf("%w: %q", ErrInvalidEnd, req.End)
		}

		end = parsed
	}

	return Booking{
		Title:   TitleFor(contact.Name),
		Start:   start.UTC(),
		End:     end.UTC(),
		Status:  StatusRequested,
		Contact: contact,
		Colors:  s.normalizer.theme(),
	}, nil
}

func (s *Service) sendNotification(ctx context.Context, notification Notification) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.Notify(ctx, notification); err != nil {
		s.logger.Warn("failed to send notification", "kind", notification.Kind, "id", notification.Booking.ID, "err", err)
	}
}

func remoteError(err error) error {
	if errors.Is(err, ErrSlotConflict) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
}

func indexOf(bookings []Booking, id string) int {
	return slices.IndexFunc(bookings, func(b Booking) bool {
		return b.ID == id
	})
}
