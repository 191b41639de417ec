// Package store performs the crash-safe persistence of the settings
// record: checksum-gated loads and dual-file (primary plus backup)
// atomic-rename saves. A half-written file is never visible under a
// canonical name; the only integrity gate in the module lives here.
package store

import (
	"errors"
	"os"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/settings/lib/codec"
	"github.com/go-i2p/settings/lib/config"
	"github.com/go-i2p/settings/lib/schema"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

var (
	// ErrNotFound reports that the settings file could not be opened.
	ErrNotFound = errors.New("settings file not found")

	// ErrInvalid reports that the settings file was opened but failed
	// decoding or checksum verification. Callers fall through to the
	// next recovery source.
	ErrInvalid = errors.New("settings file invalid")
)

// Store persists settings records under a fixed path set.
type Store struct {
	paths config.Paths
}

// New returns a Store operating on the given path set.
func New(paths config.Paths) *Store {
	return &Store{paths: paths}
}

// Paths returns the path set the store operates on.
func (st *Store) Paths() config.Paths {
	return st.paths
}

// Load reads the settings file at path into a defaults-populated record.
// Keys missing from the file keep their defaults. The decoded record's
// checksum is recomputed and compared against the stored integrity
// field; any decode or verification failure yields ErrInvalid, an open
// failure yields ErrNotFound.
func (st *Store) Load(path string) (*schema.Settings, error) {
	s := &schema.Settings{}
	schema.RestoreDefaults(s)

	f, err := os.Open(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Debug("settings file not readable")
		return nil, oops.Wrapf(ErrNotFound, "opening %s: %v", path, err)
	}
	defer f.Close()

	if err := codec.Decode(f, s); err != nil {
		log.WithError(err).WithField("path", path).Error("settings file failed to decode")
		return nil, oops.Wrapf(ErrInvalid, "decoding %s: %v", path, err)
	}

	computed := schema.Checksum(s)
	if computed != s.Verify.CRC16IBM {
		log.WithFields(logger.Fields{
			"path":     path,
			"computed": computed,
			"stored":   s.Verify.CRC16IBM,
		}).Error("settings file failed checksum verification")
		return nil, oops.Wrapf(ErrInvalid, "checksum mismatch in %s: computed 0x%04X, stored 0x%04X",
			path, computed, s.Verify.CRC16IBM)
	}

	log.WithFields(logger.Fields{"path": path, "crc": computed}).Debug("settings file loaded")
	return s, nil
}

// Save stamps the record's integrity field in place, then publishes it
// crash-safely: the record is first staged to a temp file and only then
// renamed onto the canonical path, so readers observe either the old or
// the new complete file. The backup slot is written the same way but
// best-effort: a backup failure is logged and swallowed, never blocking
// the primary. A primary rename failure after a successful temp write is
// surfaced as an error; the data exists on disk but the primary slot
// state is indeterminate.
func (st *Store) Save(s *schema.Settings) error {
	if s == nil {
		return oops.Errorf("cannot save nil settings")
	}

	schema.Stamp(s)

	if err := codec.EncodeFile(st.paths.PrimaryTemp, s); err != nil {
		log.WithError(err).WithField("path", st.paths.PrimaryTemp).Error("staging settings failed")
		return oops.Wrapf(err, "staging settings to %s", st.paths.PrimaryTemp)
	}

	st.saveBackup(s)

	if err := os.Rename(st.paths.PrimaryTemp, st.paths.Primary); err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"temp":    st.paths.PrimaryTemp,
			"primary": st.paths.Primary,
		}).Error("publishing settings rename failed, primary slot state is indeterminate")
		return oops.Wrapf(err, "renaming %s onto %s", st.paths.PrimaryTemp, st.paths.Primary)
	}

	log.WithFields(logger.Fields{"path": st.paths.Primary, "crc": s.Verify.CRC16IBM}).Debug("settings saved")
	return nil
}

// saveBackup stages and publishes the backup copy. Best-effort only.
func (st *Store) saveBackup(s *schema.Settings) {
	if err := codec.EncodeFile(st.paths.BackupTemp, s); err != nil {
		log.WithError(err).WithField("path", st.paths.BackupTemp).Warn("staging backup settings failed, continuing")
		return
	}
	if err := os.Rename(st.paths.BackupTemp, st.paths.Backup); err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"temp":   st.paths.BackupTemp,
			"backup": st.paths.Backup,
		}).Warn("publishing backup settings failed, continuing")
	}
}
