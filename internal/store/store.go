// Package store owns the canonical record collection and the active identity.
//
// Every mutation is written through to the backend before it becomes visible:
// the new collection is built on the side, persisted, and only then swapped in.
// A failed save leaves the in-memory state untouched.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sumator/internal/core"
	"sumator/internal/log"
	"sumator/internal/storage"
)

// Notifier receives an event after each successful mutation.
type Notifier interface {
	Notify(ctx context.Context, ev core.Event) error
}

// Observer receives mutation outcomes for instrumentation.
type Observer interface {
	MutationDone(op string, d time.Duration, err error)
	RecordsStored(n int)
}

type Store struct {
	// mu serializes mutations across the persist step; readers wait for an
	// in-flight save to finish.
	mu       sync.RWMutex
	backend  storage.Backend
	items    []core.Record
	active   *core.Identity
	revision uint64

	roster   []core.Identity
	ids      *core.IDSource
	now      func() time.Time
	notifier Notifier
	observer Observer
	logger   *log.Logger
}

type Option func(*Store)

func WithNotifier(n Notifier) Option { return func(s *Store) { s.notifier = n } }

func WithObserver(o Observer) Option { return func(s *Store) { s.observer = o } }

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

// WithRoster replaces DefaultRoster. An empty roster is ignored.
func WithRoster(r []core.Identity) Option {
	return func(s *Store) {
		if len(r) > 0 {
			s.roster = append([]core.Identity(nil), r...)
		}
	}
}

// WithClock sets the clock used for defaults, ids and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store over backend. Call Load to restore saved state.
func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		items:   []core.Record{},
		roster:  append([]core.Identity(nil), DefaultRoster...),
		now:     time.Now,
		logger:  log.Discard().WithComponent(log.ComponentStore),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = core.NewIDSource(s.now)
	return s
}

// Load restores records and the active identity. Missing state yields an
// empty store. A blob that cannot be decoded yields a *core.CorruptStateError
// and an empty value for that key; the stored blob is left as it was.
// Failures for both keys are joined.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []core.Record{}
	s.active = nil

	var errs []error
	items, err := s.loadRecords(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		s.items = items
	}
	active, err := s.loadIdentity(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		s.active = active
	}

	for _, r := range s.items {
		s.ids.Observe(r.ID)
	}
	s.revision++
	s.observeCount()

	err = errors.Join(errs...)
	if err != nil {
		s.logger.WarnContext(ctx, "State restored with errors",
			log.NewFields().WithOperation(log.OpLoad).WithError(err).ToSlice()...)
	} else {
		s.logger.DebugContext(ctx, "State restored", log.FieldCount, len(s.items))
	}
	return err
}

func (s *Store) loadRecords(ctx context.Context) ([]core.Record, error) {
	blob, found, err := s.backend.Load(ctx, storage.RecordsKey)
	if err != nil {
		return nil, &core.IOError{Op: log.OpLoad, Key: storage.RecordsKey, Err: err}
	}
	if !found {
		return []core.Record{}, nil
	}
	items, err := decodeRecords(blob)
	if err != nil {
		return nil, &core.CorruptStateError{Key: storage.RecordsKey, Err: err}
	}
	return items, nil
}

func (s *Store) loadIdentity(ctx context.Context) (*core.Identity, error) {
	blob, found, err := s.backend.Load(ctx, storage.IdentityKey)
	if err != nil {
		return nil, &core.IOError{Op: log.OpLoad, Key: storage.IdentityKey, Err: err}
	}
	if !found {
		return nil, nil
	}
	id, err := decodeIdentity(blob)
	if err != nil {
		return nil, &core.CorruptStateError{Key: storage.IdentityKey, Err: err}
	}
	if id == nil {
		return nil, nil
	}
	entry, _, ok := findIdentity(s.roster, id.Name)
	if !ok {
		return nil, &core.CorruptStateError{
			Key: storage.IdentityKey,
			Err: fmt.Errorf("%q: %w", id.Name, core.ErrUnknownIdentity),
		}
	}
	return &entry, nil
}

// Add builds a record from user input with a fresh id and the active identity
// as default owner, then inserts it.
func (s *Store) Add(ctx context.Context, in core.RecordInput) (core.Record, error) {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()

	r := core.NewRecord(s.ids.Next(), in, active, s.now())
	if err := s.Insert(ctx, r); err != nil {
		return core.Record{}, err
	}
	return r, nil
}

// Insert prepends r. It fails with *core.DuplicateIDError if the id is taken.
func (s *Store) Insert(ctx context.Context, r core.Record) (err error) {
	start := time.Now()
	defer func() { s.observe(log.OpInsert, start, err) }()

	if err := r.Validate(); err != nil {
		return err
	}
	r = r.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == r.ID {
			return &core.DuplicateIDError{ID: r.ID}
		}
	}

	next := make([]core.Record, 0, len(s.items)+1)
	next = append(next, r)
	next = append(next, s.items...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.ids.Observe(r.ID)

	log.NewStructuredLogger(s.logger).LogRecordInserted(ctx, r.ID, r.UserName, r.Amount, s.revision)
	s.notify(ctx, core.Event{Type: core.EventInserted, RecordID: r.ID, UserName: r.UserName})
	return nil
}

// RemoveByID removes the first record with id. An unknown id changes nothing,
// reports false and is not an error.
func (s *Store) RemoveByID(ctx context.Context, id int64) (removed bool, err error) {
	start := time.Now()
	defer func() { s.observe(log.OpRemove, start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.items {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	gone := s.items[idx]
	next := make([]core.Record, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}

	s.logger.InfoContext(ctx, "Record removed",
		log.NewFields().WithOperation(log.OpRemove).WithRecord(gone.ID, gone.UserName, gone.Amount).ToSlice()...)
	s.notify(ctx, core.Event{Type: core.EventRemoved, RecordID: gone.ID, UserName: gone.UserName})
	return true, nil
}

// Clear removes every record and persists the empty collection.
func (s *Store) Clear(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.observe(log.OpClear, start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.items)
	if err := s.commit(ctx, []core.Record{}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Records cleared", log.FieldOperation, log.OpClear, log.FieldCount, n)
	s.notify(ctx, core.Event{Type: core.EventCleared})
	return nil
}

// commit persists next and swaps it in. Caller holds mu.
func (s *Store) commit(ctx context.Context, next []core.Record) error {
	blob, err := encodeRecords(next)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.backend.Save(ctx, storage.RecordsKey, blob); err != nil {
		return &core.IOError{Op: log.OpSave, Key: storage.RecordsKey, Err: err}
	}
	s.items = next
	s.revision++
	s.observeCount()
	return nil
}

// Snapshot returns a deep copy of the collection, newest insert first.
func (s *Store) Snapshot() []core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.CloneRecords(s.items)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision increments on every successful mutation and load.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Roster returns the identities that may be selected.
func (s *Store) Roster() []core.Identity {
	return append([]core.Identity(nil), s.roster...)
}

// ActiveIdentity returns the selected identity; ok is false when none is.
func (s *Store) ActiveIdentity() (core.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return core.Identity{}, false
	}
	return *s.active, true
}

// SetActiveIdentity selects a roster entry by name and persists the choice.
func (s *Store) SetActiveIdentity(ctx context.Context, name string) (core.Identity, error) {
	id, _, ok := findIdentity(s.roster, name)
	if !ok {
		return core.Identity{}, fmt.Errorf("%q: %w", name, core.ErrUnknownIdentity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return id, s.setActive(ctx, id)
}

// CycleIdentity advances to the next roster entry, wrapping around. With no
// identity selected it picks the first entry.
func (s *Store) CycleIdentity(ctx context.Context) (core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := 0
	if s.active != nil {
		if _, i, ok := findIdentity(s.roster, s.active.Name); ok {
			next = (i + 1) % len(s.roster)
		}
	}
	id := s.roster[next]
	return id, s.setActive(ctx, id)
}

// setActive persists and applies id. Caller holds mu.
func (s *Store) setActive(ctx context.Context, id core.Identity) (err error) {
	start := time.Now()
	defer func() { s.observe(log.OpIdentity, start, err) }()

	blob, err := encodeIdentity(&id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.backend.Save(ctx, storage.IdentityKey, blob); err != nil {
		return &core.IOError{Op: log.OpSave, Key: storage.IdentityKey, Err: err}
	}
	s.active = &id
	s.revision++
	s.logger.InfoContext(ctx, "Active identity changed", log.FieldUserName, id.Name)
	s.notify(ctx, core.Event{Type: core.EventIdentityChanged, UserName: id.Name})
	return nil
}

// notify hands ev to the notifier. Failures are logged; the mutation has
// already been persisted. Caller holds mu.
func (s *Store) notify(ctx context.Context, ev core.Event) {
	if s.notifier == nil {
		return
	}
	ev.Revision = s.revision
	ev.Timestamp = s.now()
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Change notification failed",
			log.FieldEventType, string(ev.Type),
			log.FieldRevision, ev.Revision,
			log.FieldError, err.Error())
	}
}

func (s *Store) observe(op string, start time.Time, err error) {
	if s.observer != nil {
		s.observer.MutationDone(op, time.Since(start), err)
	}
}

// observeCount reports the collection size. Caller holds mu.
func (s *Store) observeCount() {
	if s.observer != nil {
		s.observer.RecordsStored(len(s.items))
	}
}
