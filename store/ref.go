package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gameport/arena/metrics"
)

// Store composes a KeyedStore with a ChangeBus. It is constructed once at
// startup and injected into every consumer; there is no package-level
// instance.
//
// A per-path mutex serializes in-process read-modify-write cycles. Across
// processes the storage layer stays last-write-wins, so the deployment rule
// is a single designated writer per path.
type Store struct {
	keyed  KeyedStore
	bus    *ChangeBus
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(keyed KeyedStore, logger *slog.Logger) *Store {
	return &Store{
		keyed:  keyed,
		bus:    NewChangeBus(logger),
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Store) Bus() *ChangeBus { return s.bus }

// Ref returns a handle bound to one path.
func (s *Store) Ref(path string) *Ref {
	return &Ref{store: s, path: path}
}

func (s *Store) pathLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[path] = lock
	}
	return lock
}

// Ref is the live-data handle every consumer works with: synchronous
// snapshot reads, write-then-notify, and subscription with initial replay.
type Ref struct {
	store *Store
	path  string
}

func (r *Ref) Path() string { return r.path }

// Read returns the current snapshot at the path.
func (r *Ref) Read(ctx context.Context) (Snapshot, error) {
	value, ok, err := r.store.keyed.Get(ctx, r.path)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Value: value, Exists: ok}, nil
}

// Write persists value, replacing whatever was stored, then publishes the
// new snapshot to local subscribers. Publishing is unconditional: writing a
// value equal to the current one still delivers a change event.
func (r *Ref) Write(ctx context.Context, value any) error {
	raw, err := marshalValue(value)
	if err != nil {
		return err
	}

	if err := r.store.keyed.Put(ctx, r.path, raw); err != nil {
		return err
	}
	metrics.StoreWrites.Inc()

	r.store.bus.Publish(r.path, Snapshot{Value: raw, Exists: true})
	return nil
}

// Update runs fn inside the per-path lock with the current snapshot and
// writes its result back as one whole-value replacement. Returning
// ErrUnchanged from fn skips both the write and the publish.
func (r *Ref) Update(ctx context.Context, fn func(Snapshot) (any, error)) error {
	lock := r.store.pathLock(r.path)
	lock.Lock()
	defer lock.Unlock()

	snap, err := r.Read(ctx)
	if err != nil {
		return err
	}

	next, err := fn(snap)
	if err != nil {
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		return err
	}
	return r.Write(ctx, next)
}

// OnChange invokes handler synchronously with the current snapshot (initial
// replay, absent marker included) and then with every subsequent publish on
// the path, until the returned unsubscribe func is called.
func (r *Ref) OnChange(ctx context.Context, handler Handler) (func(), error) {
	snap, err := r.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to replay %q on subscribe: %w", r.path, err)
	}
	handler(snap)
	return r.store.bus.Subscribe(r.path, handler), nil
}

func marshalValue(value any) (raw []byte, err error) {
	// json.Marshal panics on some unsupported inputs instead of returning
	// an error; both surface as ErrSerialization.
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = fmt.Errorf("%w: %v", ErrSerialization, r)
		}
	}()

	raw, err = json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return raw, nil
}
