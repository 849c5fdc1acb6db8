// Package expense holds the authoritative expense collection and the pure
// views derived from it.
package expense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"tally/internal/blob"
	"tally/internal/core"
	"tally/internal/log"
)

// DefaultKey is the storage key holding the serialized collection.
const DefaultKey = "expenses"

// Change describes a persisted mutation.
type Change struct {
	Op        string    `json:"op"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier is told about every mutation after it has been persisted.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// Store is the in-memory ordered collection mirrored to a single storage
// key. Every mutation rewrites the whole collection.
type Store struct {
	mu      sync.Mutex
	storage blob.Storage
	key     string
	items   []core.Expense
	lastID  int64

	now      func() time.Time
	notifier Notifier
	logger   *log.Logger
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock overrides the clock used for ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentStore)
		}
	}
}

// NewStore returns an empty store; call Load to read the persisted state.
func NewStore(storage blob.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     DefaultKey,
		items:   []core.Expense{},
		now:     time.Now,
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with the persisted one. A missing,
// unreadable or unparseable blob leaves the store empty and is not an
// error. Records repeating an earlier id are dropped, keeping the first.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []core.Expense{}
	s.lastID = 0

	raw, err := s.storage.Get(ctx, s.key)
	switch {
	case errors.Is(err, blob.ErrNotExist):
		s.logger.InfoContext(ctx, "No persisted expenses, starting empty", log.FieldStorageKey, s.key)
		return
	case err != nil:
		s.logger.ErrorContext(ctx, "Failed to read persisted expenses, starting empty",
			log.FieldStorageKey, s.key, log.FieldError, err)
		return
	}

	var items []core.Expense
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.WarnContext(ctx, "Persisted expenses unparseable, starting empty",
			log.FieldStorageKey, s.key, log.FieldError, err)
		return
	}
	seen := make(map[int64]struct{}, len(items))
	kept := items[:0]
	for _, e := range items {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		kept = append(kept, e)
		s.lastID = max(s.lastID, e.ID)
	}
	if dropped := len(items) - len(kept); dropped > 0 {
		s.logger.WarnContext(ctx, "Dropped persisted expenses with duplicate ids",
			log.FieldStorageKey, s.key, log.FieldCount, dropped)
	}
	if kept != nil {
		s.items = kept
	}
	s.logger.InfoContext(ctx, "Loaded expenses", log.FieldStorageKey, s.key, log.FieldCount, len(s.items))
}

// Add appends a new expense with a fresh id and persists the collection.
func (s *Store) Add(ctx context.Context, d core.Draft) (core.Expense, error) {
	if err := d.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	e := core.Expense{ID: s.nextID()}.Apply(d)
	s.items = append(s.items, e)
	err := s.persist(ctx)
	s.mu.Unlock()

	if err != nil {
		return e, err
	}
	s.notify(ctx, log.OpCreate, e.ID)
	s.logger.InfoContext(ctx, "Expense created",
		log.NewFields().WithExpense(e.ID, e.Name, e.Amount.Cents, e.Category).WithOperation(log.OpCreate).ToSlice()...)
	return e, nil
}

// Update replaces the fields of the expense with the given id. An unknown
// id is a silent no-op reported as false. The collection is persisted in
// both cases.
func (s *Store) Update(ctx context.Context, id int64, d core.Draft) (bool, error) {
	if err := d.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i >= 0 {
		s.items[i] = s.items[i].Apply(d)
	}
	err := s.persist(ctx)
	s.mu.Unlock()

	if err != nil {
		return i >= 0, err
	}
	if i < 0 {
		s.logger.DebugContext(ctx, "Update for unknown expense ignored", log.FieldExpenseID, id)
		return false, nil
	}
	s.notify(ctx, log.OpUpdate, id)
	return true, nil
}

// Remove deletes the expense with the given id and persists the
// collection. It reports whether a record was removed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	err := s.persist(ctx)
	s.mu.Unlock()

	if err != nil {
		return i >= 0, err
	}
	if i >= 0 {
		s.notify(ctx, log.OpDelete, id)
	}
	return i >= 0, nil
}

// Get returns the expense with the given id or core.ErrNotFound.
func (s *Store) Get(id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return core.Expense{}, fmt.Errorf("%w: id %d", core.ErrNotFound, id)
}

// All returns a copy of the collection in insertion order.
func (s *Store) All() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// nextID derives ids from the clock in milliseconds and bumps past the
// last issued one when the clock has not advanced. Caller holds mu.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(e core.Expense) bool { return e.ID == id })
}

// persist overwrites the stored blob. On failure memory and storage have
// diverged; that is reported, not repaired. Caller holds mu.
func (s *Store) persist(ctx context.Context) error {
	raw, err := json.Marshal(s.items)
	if err != nil {
		return &core.StorageError{Op: "encode", Key: s.key, Err: err}
	}
	if err := s.storage.Put(ctx, s.key, raw); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist expenses",
			log.FieldStorageKey, s.key, log.FieldOperation, log.OpPersist, log.FieldError, err)
		return &core.StorageError{Op: "write", Key: s.key, Err: err}
	}
	return nil
}

func (s *Store) notify(ctx context.Context, op string, id int64) {
	if s.notifier == nil {
		return
	}
	c := Change{Op: op, ID: id, Timestamp: s.now().UTC()}
	if err := s.notifier.Notify(ctx, c); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish expense change",
			log.FieldExpenseID, id, log.FieldOperation, op, log.FieldError, err)
	}
}
