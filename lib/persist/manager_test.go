package persist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-i2p/settings/lib/config"
	"github.com/go-i2p/settings/lib/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestManager builds a Manager over a temp directory with a fast
// scheduler so debounce behavior is observable in test time.
func newTestManager(t *testing.T, period time.Duration, quietCycles int) *Manager {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Paths: config.Paths{
			Primary:     filepath.Join(dir, "settings.ini"),
			Backup:      filepath.Join(dir, "settings.bak"),
			PrimaryTemp: filepath.Join(dir, "settings.tmp"),
			BackupTemp:  filepath.Join(dir, "settings_bak.tmp"),
		},
		Period:      period,
		QuietCycles: quietCycles,
	}
	m := New(cfg)
	t.Cleanup(func() {
		if m.Running() {
			_ = m.Deinit()
		}
	})
	return m
}

func mustInit(t *testing.T, m *Manager) {
	t.Helper()
	require.NoError(t, m.Init())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewLeavesCallerConfigUntouched(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Paths: config.Paths{
			Primary:     filepath.Join(dir, "settings.ini"),
			Backup:      filepath.Join(dir, "settings.bak"),
			PrimaryTemp: filepath.Join(dir, "settings.tmp"),
			BackupTemp:  filepath.Join(dir, "settings_bak.tmp"),
		},
		Period:      time.Millisecond, // below the floor
		QuietCycles: 0,                // below the floor
	}

	m := New(cfg)

	// the caller's value keeps its out-of-range tunables
	assert.Equal(t, time.Millisecond, cfg.Period)
	assert.Equal(t, 0, cfg.QuietCycles)

	// while the engine runs on its own clamped copy
	assert.Equal(t, config.MinPeriod, m.cfg.Period)
	assert.Equal(t, 1, m.cfg.QuietCycles)
}

func TestOperationsBeforeInit(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)

	var s schema.Settings
	assert.True(t, errors.Is(m.Get(&s), ErrNotRunning))
	assert.True(t, errors.Is(m.Set(&s), ErrNotRunning))
	assert.True(t, errors.Is(m.Deinit(), ErrNotRunning))
	assert.False(t, m.Running())
}

func TestNilArguments(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)
	mustInit(t, m)

	assert.True(t, errors.Is(m.Get(nil), ErrNilSettings))
	assert.True(t, errors.Is(m.Set(nil), ErrNilSettings))
	assert.True(t, errors.Is(m.Update(nil), ErrNilSettings))
}

func TestInitWithNoFilesEstablishesDefaults(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)
	mustInit(t, m)

	// cache equals schema defaults (with the checksum stamped by the
	// establishing save)
	var got schema.Settings
	require.NoError(t, m.Get(&got))
	want := schema.Settings{}
	schema.RestoreDefaults(&want)
	schema.Stamp(&want)
	assert.Equal(t, want, got)

	// both files exist, verify, and match each other
	paths := m.Store().Paths()
	primary, err := m.Store().Load(paths.Primary)
	require.NoError(t, err)
	backup, err := m.Store().Load(paths.Backup)
	require.NoError(t, err)
	assert.Equal(t, *primary, *backup)
	assert.Equal(t, want, *primary)
}

func TestDoubleInitRejected(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)
	mustInit(t, m)
	assert.True(t, errors.Is(m.Init(), ErrAlreadyRunning))
	assert.True(t, m.Running())
}

func TestInitRecoversFromPrimary(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)

	// seed disk state through a throwaway record
	seeded := schema.Settings{}
	schema.RestoreDefaults(&seeded)
	require.NoError(t, seeded.SetVolume(77))
	require.NoError(t, m.Store().Save(&seeded))

	mustInit(t, m)
	var got schema.Settings
	require.NoError(t, m.Get(&got))
	assert.Equal(t, int32(77), got.Audio.Volume)
}

func TestInitFallsBackToBackup(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)
	paths := m.Store().Paths()

	seeded := schema.Settings{}
	schema.RestoreDefaults(&seeded)
	require.NoError(t, seeded.SetHostname("from-backup"))
	require.NoError(t, m.Store().Save(&seeded))

	// corrupt the primary, leave the backup intact
	require.NoError(t, os.WriteFile(paths.Primary, []byte("[audio]\nvolume = garbage\n"), 0o644))

	mustInit(t, m)
	var got schema.Settings
	require.NoError(t, m.Get(&got))
	assert.Equal(t, "from-backup", got.Hostname())
}

func TestBackupRecoveryRepairsPrimaryOnNextFlush(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)
	paths := m.Store().Paths()

	seeded := schema.Settings{}
	schema.RestoreDefaults(&seeded)
	require.NoError(t, m.Store().Save(&seeded))
	require.NoError(t, os.Remove(paths.Primary))

	mustInit(t, m)

	// init alone does not rewrite the primary
	_, err := os.Stat(paths.Primary)
	assert.True(t, os.IsNotExist(err))

	// the next mutation's flush re-establishes it
	require.NoError(t, m.Update(func(s *schema.Settings) error { return s.SetVolume(50) }))
	assert.Eventually(t, func() bool {
		s, err := m.Store().Load(paths.Primary)
		return err == nil && s.Audio.Volume == 50
	}, 2*time.Second, 5*time.Millisecond, "primary must be repaired by the next flush")
}

func TestSingleFieldChangeFlushedOnce(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)
	mustInit(t, m)
	paths := m.Store().Paths()

	require.NoError(t, m.Update(func(s *schema.Settings) error { return s.SetBrightness(12) }))

	assert.Eventually(t, func() bool {
		s, err := m.Store().Load(paths.Primary)
		return err == nil && s.Display.Brightness == 12
	}, 2*time.Second, 5*time.Millisecond)

	// cache and published file agree after the flush, checksum included,
	// so the stamp cannot re-trigger the debounce cycle
	var cached schema.Settings
	require.NoError(t, m.Get(&cached))
	onDisk, err := m.Store().Load(paths.Primary)
	require.NoError(t, err)
	assert.Equal(t, *onDisk, cached)

	// no further writes once quiescent: the published file stays
	// byte-identical across several more scheduler periods
	settled := readFile(t, paths.Primary)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, readFile(t, paths.Primary))
}

func TestDebounceCoalescesBursts(t *testing.T) {
	const (
		period = 50 * time.Millisecond
		quiet  = 3
	)
	m := newTestManager(t, period, quiet)
	mustInit(t, m)
	paths := m.Store().Paths()
	before := readFile(t, paths.Primary)

	// a burst of rapid updates, e.g. a volume slider sweep
	for v := int32(10); v <= 60; v += 10 {
		vol := v
		require.NoError(t, m.Update(func(s *schema.Settings) error { return s.SetVolume(vol) }))
		time.Sleep(2 * time.Millisecond)
	}

	// well inside the quiet window nothing may have been flushed yet
	time.Sleep(quiet * period / 2)
	assert.Equal(t, before, readFile(t, paths.Primary), "flush before the quiet interval elapsed")

	// after the window, exactly the final value lands
	assert.Eventually(t, func() bool {
		s, err := m.Store().Load(paths.Primary)
		return err == nil && s.Audio.Volume == 60
	}, 5*time.Second, 10*time.Millisecond)

	// and the file does not change again afterwards
	settled := readFile(t, paths.Primary)
	time.Sleep(4 * period)
	assert.Equal(t, settled, readFile(t, paths.Primary))
}

func TestDeinitJoinsWorker(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)
	mustInit(t, m)

	require.NoError(t, m.Deinit())
	assert.False(t, m.Running())

	var s schema.Settings
	assert.True(t, errors.Is(m.Get(&s), ErrNotRunning))
}

func TestDeinitInitCycleMatchesFreshStart(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)
	mustInit(t, m)
	paths := m.Store().Paths()

	require.NoError(t, m.Update(func(s *schema.Settings) error { return s.SetAutoOff(90) }))
	assert.Eventually(t, func() bool {
		s, err := m.Store().Load(paths.Primary)
		return err == nil && s.Power.AutoOffMinutes == 90
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, m.Deinit())
	require.NoError(t, m.Init())

	// same on-disk state yields the same cache as a fresh process would see
	var got schema.Settings
	require.NoError(t, m.Get(&got))
	assert.Equal(t, int32(90), got.Power.AutoOffMinutes)

	require.NoError(t, m.Deinit())
	assert.True(t, errors.Is(m.Deinit(), ErrNotRunning))
}

func TestUpdatePropagatesCallbackError(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)
	mustInit(t, m)

	sentinel := errors.New("nope")
	err := m.Update(func(s *schema.Settings) error { return sentinel })
	assert.True(t, errors.Is(err, sentinel))

	// failed update must not dirty the cache
	var got schema.Settings
	require.NoError(t, m.Get(&got))
	want := schema.Settings{}
	schema.RestoreDefaults(&want)
	schema.Stamp(&want)
	assert.Equal(t, want, got)
}

func TestConcurrentGetSet(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond, 2)
	mustInit(t, m)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int32) {
			for j := int32(0); j < 200; j++ {
				_ = m.Update(func(s *schema.Settings) error {
					return s.SetVolume((n*200 + j) % 100)
				})
				var s schema.Settings
				_ = m.Get(&s)
			}
			done <- struct{}{}
		}(int32(i))
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	var s schema.Settings
	require.NoError(t, m.Get(&s))
	assert.GreaterOrEqual(t, s.Audio.Volume, int32(0))
	assert.Less(t, s.Audio.Volume, int32(100))
}
