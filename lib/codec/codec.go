// Package codec reads and writes the settings record in its on-disk INI
// form. It is schema-agnostic: all field knowledge comes from the schema
// field table, so a regenerated schema needs no codec changes.
//
// Every key in the emitted file is preceded by one metadata comment line
// ("; key: type=..., default=..., ...") describing its type, default and
// bounds. The comment is consumed by the external code generator only;
// Decode ignores comments entirely.
package codec

import (
	"fmt"
	"io"
	"os"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/settings/lib/schema"
	"github.com/samber/oops"
	"gopkg.in/ini.v1"
)

var log = logger.GetGoI2PLogger()

// Decode parses INI text from r and applies every recognized
// section/key pair onto base. Keys absent from the file leave the
// corresponding base field untouched, so callers pass a defaults-populated
// record to get default fill-in for free. A malformed file or an
// unparseable value is an error; base may be partially updated in that
// case and must be discarded by the caller.
func Decode(r io.Reader, base *schema.Settings) error {
	if base == nil {
		return oops.Errorf("decode target is nil")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return oops.Wrapf(err, "reading settings text")
	}

	cfg, err := ini.Load(data)
	if err != nil {
		return oops.Wrapf(err, "parsing settings text")
	}

	for _, f := range schema.Fields() {
		sec, err := cfg.GetSection(f.Section)
		if err != nil {
			// whole section missing, keep defaults
			continue
		}
		if !sec.HasKey(f.Key) {
			continue
		}
		if err := f.Set(base, sec.Key(f.Key).String()); err != nil {
			return oops.Wrapf(err, "applying %s.%s", f.Section, f.Key)
		}
	}

	return nil
}

// metadataComment renders the generator-facing comment line for f.
func metadataComment(f schema.Field) string {
	switch f.Kind {
	case schema.KindInt:
		return fmt.Sprintf("%s: type=%s, default=%s, min=%d, max=%d",
			f.Key, f.Kind, f.Default, f.Min, f.Max)
	case schema.KindString:
		return fmt.Sprintf("%s: type=%s, default=%s, max=%d",
			f.Key, f.Kind, f.Default, f.Max)
	default:
		return fmt.Sprintf("%s: type=%s, default=%s", f.Key, f.Kind, f.Default)
	}
}

// Encode writes the full record to w as INI text, one section per schema
// section, fields in schema order, each key preceded by its metadata
// comment.
func Encode(w io.Writer, s *schema.Settings) error {
	if s == nil {
		return oops.Errorf("encode source is nil")
	}

	cfg := ini.Empty()
	for _, f := range schema.Fields() {
		sec := cfg.Section(f.Section)
		key, err := sec.NewKey(f.Key, f.Get(s))
		if err != nil {
			return oops.Wrapf(err, "emitting %s.%s", f.Section, f.Key)
		}
		key.Comment = metadataComment(f)
	}

	if _, err := cfg.WriteTo(w); err != nil {
		return oops.Wrapf(err, "writing settings text")
	}
	return nil
}

// EncodeFile writes the record to path, creating or truncating it, and
// syncs the file before close so a following rename publishes complete
// contents.
func EncodeFile(path string, s *schema.Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return oops.Wrapf(err, "creating %s", path)
	}

	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return oops.Wrapf(err, "syncing %s", path)
	}
	if err := f.Close(); err != nil {
		return oops.Wrapf(err, "closing %s", path)
	}

	log.WithField("path", path).Debug("settings file written")
	return nil
}
