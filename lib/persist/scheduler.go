package persist

import (
	"time"

	"github.com/go-i2p/logger"
)

// loop is the write-back task. It runs until the running flag goes
// false, performing one detection/flush tick per period, and closes done
// on the way out so Deinit can join it.
func (m *Manager) loop(done chan struct{}) {
	defer close(done)
	log.WithField("period", m.cfg.Period).Debug("write-back task started")

	for m.running.Load() {
		m.tick()
		time.Sleep(m.cfg.Period)
	}

	log.Debug("write-back task stopped")
}

// tick performs one scheduler iteration. Detection, snapshot update and
// the conditional flush all happen under cacheMu as a single critical
// section: between deciding to flush and flushing, no caller can mutate
// the record. The flush therefore holds the cache lock across a bounded
// disk write, at most once per quiet interval; callers racing a flush
// wait behind it.
func (m *Manager) tick() {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	if m.cache != m.snapshot {
		// Mutation observed: re-arm the debounce window.
		m.snapshot = m.cache
		m.dirty = true
		m.quiet = 0
		log.Debug("settings change detected")
	} else if m.dirty {
		m.quiet++
	}

	if m.dirty && m.quiet >= m.cfg.QuietCycles {
		log.WithFields(logger.Fields{"quiet_cycles": m.quiet}).Debug("debounce satisfied, flushing settings")
		if err := m.store.Save(&m.snapshot); err != nil {
			log.WithError(err).Error("settings flush failed, holding off until the next mutation")
		}
		// Clear the debounce state regardless of the save outcome. A
		// persistent storage fault must not be hammered every tick;
		// the next real mutation re-arms the cycle. Save stamped the
		// snapshot's checksum; mirror it into the cache (equal to the
		// snapshot up to that stamp, since flushing requires a quiet
		// tick) so the stamp never reads as a fresh mutation.
		m.cache = m.snapshot
		m.dirty = false
		m.quiet = 0
	}
}
