// Package config holds the settings persistence configuration: the four
// on-disk path identifiers (primary, backup, and one staging temp file for
// each) and the write-back scheduler tunables. Deployment and simulation
// profiles provide the two fixed path sets the device firmware uses;
// everything can be overridden through viper for tests and tooling.
package config

import (
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/settings/lib/util"
	"github.com/spf13/viper"
)

var log = logger.GetGoI2PLogger()

// Paths is the fixed set of file path identifiers used by the durable
// store. The temp paths must live on the same filesystem as their final
// counterparts so the publishing rename stays atomic.
type Paths struct {
	Primary     string
	Backup      string
	PrimaryTemp string
	BackupTemp  string
}

// Config carries the full persistence engine configuration.
type Config struct {
	Paths Paths

	// Period is the write-back scheduler tick interval.
	Period time.Duration

	// QuietCycles is the number of consecutive unchanged ticks required
	// after a mutation before the record is flushed to disk.
	QuietCycles int
}

// Scheduler tunable defaults and bounds. The period floor keeps the
// background task from busy-waking; the ceiling keeps shutdown latency
// (one loop period) bounded.
const (
	DefaultPeriod      = 200 * time.Millisecond
	MinPeriod          = 10 * time.Millisecond
	MaxPeriod          = time.Second
	DefaultQuietCycles = 5
)

// DefaultPaths returns the deployment path set used on the device.
func DefaultPaths() Paths {
	return Paths{
		Primary:     "/userdata/settings.ini",
		Backup:      "/userdata/settings.bak",
		PrimaryTemp: "/userdata/settings.tmp",
		BackupTemp:  "/userdata/settings_bak.tmp",
	}
}

// SimulationPaths returns the path set used when running against the UI
// simulator, relative to the working directory.
func SimulationPaths() Paths {
	return Paths{
		Primary:     "./settings(for_ui_simulator).ini",
		Backup:      "./settings(for_ui_simulator).bak",
		PrimaryTemp: "./settings(for_ui_simulator).tmp",
		BackupTemp:  "./settings_bak(for_ui_simulator).tmp",
	}
}

// Default returns the deployment configuration.
func Default() *Config {
	return &Config{
		Paths:       DefaultPaths(),
		Period:      DefaultPeriod,
		QuietCycles: DefaultQuietCycles,
	}
}

// Normalize clamps the tunables into their valid ranges, logging any
// adjustment. It always returns c.
func (c *Config) Normalize() *Config {
	if c.Period < MinPeriod {
		log.WithField("period", c.Period).Warn("scheduler period below floor, clamping")
		c.Period = MinPeriod
	}
	if c.Period > MaxPeriod {
		log.WithField("period", c.Period).Warn("scheduler period above ceiling, clamping")
		c.Period = MaxPeriod
	}
	if c.QuietCycles < 1 {
		log.WithField("quiet_cycles", c.QuietCycles).Warn("quiet cycle count below 1, clamping")
		c.QuietCycles = 1
	}
	if !util.SameDir(c.Paths.Primary, c.Paths.PrimaryTemp) {
		log.WithFields(logger.Fields{
			"primary": c.Paths.Primary,
			"temp":    c.Paths.PrimaryTemp,
		}).Warn("primary temp file is not beside the primary file, rename may not be atomic")
	}
	if !util.SameDir(c.Paths.Backup, c.Paths.BackupTemp) {
		log.WithFields(logger.Fields{
			"backup": c.Paths.Backup,
			"temp":   c.Paths.BackupTemp,
		}).Warn("backup temp file is not beside the backup file, rename may not be atomic")
	}
	return c
}

// SetDefaults registers the deployment defaults on v so a partial config
// file only overrides what it names.
func SetDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("paths.primary", def.Paths.Primary)
	v.SetDefault("paths.backup", def.Paths.Backup)
	v.SetDefault("paths.primary_temp", def.Paths.PrimaryTemp)
	v.SetDefault("paths.backup_temp", def.Paths.BackupTemp)
	v.SetDefault("scheduler.period", def.Period)
	v.SetDefault("scheduler.quiet_cycles", def.QuietCycles)
}

// FromViper builds a normalized Config from current viper settings.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Paths: Paths{
			Primary:     v.GetString("paths.primary"),
			Backup:      v.GetString("paths.backup"),
			PrimaryTemp: v.GetString("paths.primary_temp"),
			BackupTemp:  v.GetString("paths.backup_temp"),
		},
		Period:      v.GetDuration("scheduler.period"),
		QuietCycles: v.GetInt("scheduler.quiet_cycles"),
	}
	return cfg.Normalize()
}
