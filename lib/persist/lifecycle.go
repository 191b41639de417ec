package persist

import (
	"errors"

	"github.com/go-i2p/settings/lib/schema"
	"github.com/go-i2p/settings/lib/store"
	"github.com/samber/oops"
)

// Init brings the engine into the Initialized state: it recovers the
// cache from disk and starts the write-back task.
//
// Recovery order is primary file, then backup file, then schema
// defaults; in the defaults case one immediate save establishes a valid
// primary and backup pair on disk. The scheduler's snapshot is seeded
// equal to the freshly recovered cache so the first tick sees no
// spurious change.
//
// A second Init without an intervening Deinit fails with
// ErrAlreadyRunning and changes nothing.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running.Load() {
		log.Warn("settings persistence init rejected, already running")
		return ErrAlreadyRunning
	}

	m.cacheMu.Lock()
	if err := m.recoverLocked(); err != nil {
		m.cacheMu.Unlock()
		return err
	}
	m.snapshot = m.cache
	m.dirty = false
	m.quiet = 0
	m.cacheMu.Unlock()

	m.running.Store(true)
	m.done = make(chan struct{})
	go m.loop(m.done)

	log.Info("settings persistence initialized")
	return nil
}

// recoverLocked populates m.cache from the best available source.
// Caller holds cacheMu.
func (m *Manager) recoverLocked() error {
	m.cache = schema.Settings{}

	paths := m.cfg.Paths
	for _, path := range []string{paths.Primary, paths.Backup} {
		s, err := m.store.Load(path)
		if err == nil {
			m.cache = *s
			log.WithField("source", path).Info("settings recovered")
			return nil
		}
		if errors.Is(err, store.ErrInvalid) {
			log.WithError(err).WithField("source", path).Error("settings source rejected, trying next")
		} else {
			log.WithError(err).WithField("source", path).Debug("settings source unavailable, trying next")
		}
	}

	log.Info("no usable settings on disk, establishing defaults")
	schema.RestoreDefaults(&m.cache)
	if err := m.store.Save(&m.cache); err != nil {
		return oops.Wrapf(err, "establishing default settings on disk")
	}
	return nil
}

// Deinit takes the engine down: it flips the running flag and blocks
// until the write-back task has observed the flip and exited, so no task
// work races with process teardown. Pending unflushed changes are NOT
// written out; the engine persists on mutation quiescence, not on
// shutdown. Deinit while not running fails with ErrNotRunning.
func (m *Manager) Deinit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running.Load() {
		log.Warn("settings persistence deinit rejected, not running")
		return ErrNotRunning
	}

	m.running.Store(false)
	<-m.done
	m.done = nil

	log.Info("settings persistence deinitialized")
	return nil
}
