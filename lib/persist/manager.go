package persist

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/settings/lib/config"
	"github.com/go-i2p/settings/lib/schema"
	"github.com/go-i2p/settings/lib/store"
)

var log = logger.GetGoI2PLogger()

var (
	// ErrAlreadyRunning reports a duplicate Init.
	ErrAlreadyRunning = errors.New("settings persistence already running")

	// ErrNotRunning reports an operation attempted outside the
	// Initialized state.
	ErrNotRunning = errors.New("settings persistence not running")

	// ErrNilSettings reports a nil record argument.
	ErrNilSettings = errors.New("nil settings record")
)

// Manager owns the settings cache and its write-back task. Create one
// with New, bring it up with Init and tear it down with Deinit; the
// zero value is not usable.
//
// mu serializes the lifecycle transitions; the running flag itself is
// atomic so the write-back task can poll it every tick while Deinit
// holds mu across the join. cacheMu guards the cache together with the
// scheduler's snapshot, dirty flag and quiet counter. The write-back
// task reads the cache and flushes under cacheMu in one critical
// section, so no mutation can slip in between the copy it decides to
// flush and the flush itself.
type Manager struct {
	mu      sync.Mutex
	running atomic.Bool
	done    chan struct{}

	cacheMu  sync.Mutex
	cache    schema.Settings
	snapshot schema.Settings
	dirty    bool
	quiet    int

	cfg   *config.Config
	store *store.Store
}

// New builds a Manager for the given configuration. The Manager works
// on its own normalized copy, so the caller's value is never modified
// and later changes to it have no effect. The engine stays down until
// Init.
func New(cfg *config.Config) *Manager {
	if cfg == nil {
		cfg = config.Default()
	}
	own := *cfg
	own.Normalize()
	return &Manager{
		cfg:   &own,
		store: store.New(own.Paths),
	}
}

// Store exposes the manager's durable store for tooling (integrity
// checks, direct resets). The engine itself must stay the only writer
// while it is running.
func (m *Manager) Store() *store.Store {
	return m.store
}

// Running reports whether the engine is in the Initialized state.
func (m *Manager) Running() bool {
	return m.running.Load()
}

// Get copies the cached settings record into dst. Fails with
// ErrNilSettings on a nil destination and ErrNotRunning outside the
// Initialized state; the destination is untouched on failure.
func (m *Manager) Get(dst *schema.Settings) error {
	if dst == nil {
		return ErrNilSettings
	}

	if !m.running.Load() {
		log.Warn("settings read rejected, engine not running")
		return ErrNotRunning
	}

	m.cacheMu.Lock()
	*dst = m.cache
	m.cacheMu.Unlock()
	return nil
}

// Set replaces the cached settings record with src in full. Whole-record
// semantics only; per-field updates are read-modify-write through Get
// and Set with the schema accessors. The durable write happens later,
// from the background task, after the debounce interval.
func (m *Manager) Set(src *schema.Settings) error {
	if src == nil {
		return ErrNilSettings
	}

	if !m.running.Load() {
		log.Warn("settings update rejected, engine not running")
		return ErrNotRunning
	}

	m.cacheMu.Lock()
	m.cache = *src
	m.cacheMu.Unlock()
	return nil
}

// Update applies fn to a copy of the cached record and stores the result
// as one whole-record Set. It is the read-modify-write convenience the
// schema accessors layer on; fn returning an error aborts the update.
func (m *Manager) Update(fn func(*schema.Settings) error) error {
	if fn == nil {
		return ErrNilSettings
	}

	var s schema.Settings
	if err := m.Get(&s); err != nil {
		return err
	}
	if err := fn(&s); err != nil {
		return err
	}
	return m.Set(&s)
}
