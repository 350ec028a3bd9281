package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	bk "github.com/hanksha/garage-booking-backend/booking"
)

const (
	DefaultDebounce     = 300 * time.Millisecond
	DefaultWriteTimeout = 10 * time.Second
)

var ErrClosed = errors.New("booking store closed")

// Store keeps the booking collection in a Slot. Saves replace the whole
// collection and are coalesced: a burst of saves within the debounce window
// becomes one slot write. Flush waits for that write and reports its error.
type Store struct {
	slot         Slot
	debounce     time.Duration
	writeTimeout time.Duration
	normalizer   bk.Normalizer
	logger       *slog.Logger
	metrics      *Metrics

	mu       sync.Mutex
	pending  []byte // latest snapshot not yet handed to the writer
	inflight []byte // snapshot being written
	seq      uint64 // saves accepted
	written  uint64 // saves covered by the last completed write
	lastErr  error
	waiters  []flushWaiter
	closed   bool

	kick    chan struct{}
	flush   chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

type flushWaiter struct {
	seq uint64
	ch  chan error
}

type Option func(*Store)

func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.debounce = d
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.writeTimeout = d
	}
}

func WithNormalizer(normalizer bk.Normalizer) Option {
	return func(s *Store) {
		s.normalizer = normalizer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// New starts the background writer. Close must be called to stop it.
func New(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot:         slot,
		debounce:     DefaultDebounce,
		writeTimeout: DefaultWriteTimeout,
		normalizer:   bk.DefaultNormalizer,
		logger:       slog.Default().With("component", "store"),
		kick:         make(chan struct{}, 1),
		flush:        make(chan struct{}, 1),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.run()

	return s
}

// Load returns the current collection. Unsaved changes are returned as if
// written. Missing or unreadable data yields an empty collection; records in
// an older format are re-saved in the current one.
func (s *Store) Load(ctx context.Context) []bk.Booking {
	bookings, err := s.load(ctx)

	if err != nil {
		s.logger.Warn("failed to read booking slot", "err", err)
		return []bk.Booking{}
	}

	return bookings
}

// LoadForUpdate is Load for callers that save the result back. A failed slot
// read is returned as an error wrapping bk.ErrStoreUnavailable, so that an
// I/O error never turns into an empty collection that replaces the stored one.
func (s *Store) LoadForUpdate(ctx context.Context) ([]bk.Booking, error) {
	bookings, err := s.load(ctx)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", bk.ErrStoreUnavailable, err)
	}

	return bookings, nil
}

func (s *Store) load(ctx context.Context) ([]bk.Booking, error) {
	s.mu.Lock()
	snapshot := s.pending

	if snapshot == nil {
		snapshot = s.inflight
	}

	s.mu.Unlock()

	if snapshot != nil {
		return Decode(snapshot, s.normalizer).Bookings, nil
	}

	data, err := s.slot.Read(ctx)

	if err != nil {
		return nil, err
	}

	decoded := Decode(data, s.normalizer)

	if decoded.Skipped > 0 {
		s.logger.Warn("skipped unreadable bookings", "count", decoded.Skipped)
	}

	if decoded.Migrated {
		s.logger.Info("migrating stored bookings", "count", len(decoded.Bookings))

		if err := s.Save(ctx, decoded.Bookings); err != nil {
			s.logger.Warn("failed to save migrated bookings", "err", err)
		}
	}

	return decoded.Bookings, nil
}

// Save queues bookings as the new collection. It only fails once the store is closed.
func (s *Store) Save(ctx context.Context, bookings []bk.Booking) error {
	data, err := Encode(bookings)

	if err != nil {
		return err
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	s.pending = data
	s.seq++
	s.mu.Unlock()

	s.metrics.observeSave()

	select {
	case s.kick <- struct{}{}:
	default:
	}

	return nil
}

// Flush writes any pending collection now and waits until every save made
// before the call is written. It returns the error of that write.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()

	if s.closed || (s.pending == nil && s.written == s.seq) {
		closed := s.closed
		s.mu.Unlock()

		if closed {
			select {
			case <-s.stopped:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		return s.lastErr
	}

	ch := make(chan error, 1)
	s.waiters = append(s.waiters, flushWaiter{seq: s.seq, ch: ch})
	s.mu.Unlock()

	select {
	case s.flush <- struct{}{}:
	default:
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes any pending collection and stops the writer.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	s.mu.Unlock()

	close(s.done)

	select {
	case <-s.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

func (s *Store) run() {
	defer close(s.stopped)

	for {
		select {
		case <-s.kick:
		case <-s.flush:
			s.write()
			continue
		case <-s.done:
			s.write()
			return
		}

		timer := time.NewTimer(s.debounce)

		select {
		case <-timer.C:
		case <-s.flush:
			timer.Stop()
		case <-s.done:
			timer.Stop()
			s.write()
			return
		}

		s.write()
	}
}

func (s *Store) write() {
	s.mu.Lock()
	data, seq := s.pending, s.seq
	s.pending = nil
	s.inflight = data
	s.mu.Unlock()

	var err error

	if data != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		start := time.Now()
		err = s.slot.Write(ctx, data)
		cancel()

		s.metrics.observeWrite(time.Since(start), err)

		if err != nil {
			s.logger.Error("failed to write booking slot", "err", err, "bytes", len(data))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight = nil

	if data != nil {
		s.written = seq
		s.lastErr = err

		// A failed snapshot stays pending until a newer save replaces it.
		if err != nil && s.pending == nil {
			s.pending = data
		}
	}

	remaining := s.waiters[:0]

	for _, w := range s.waiters {
		if w.seq <= s.written {
			w.ch <- s.lastErr
		} else {
			remaining = append(remaining, w)
		}
	}

	s.waiters = remaining
}
