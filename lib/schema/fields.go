package schema

import (
	"strconv"

	"github.com/samber/oops"
)

// Kind is the wire type of a settings field.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	}
	return "unknown"
}

// Field describes one settings key: its INI location, wire type, default
// and bounds, plus string-form accessors bound to a record. The codec and
// the CLI operate exclusively through this table so neither needs to know
// the record layout.
type Field struct {
	Section string
	Key     string
	Kind    Kind
	Default string
	Min     int64 // valid for KindInt; for KindString, Max is the byte capacity
	Max     int64
	Get     func(*Settings) string
	Set     func(*Settings, string) error
}

func parseInt32(key, v string, min, max int64) (int32, error) {
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, oops.Wrapf(err, "%s: not an integer: %q", key, v)
	}
	if n < min || n > max {
		return 0, oops.Errorf("%s: out of range: %d, want %d..%d", key, n, min, max)
	}
	return int32(n), nil
}

func parseBool(key, v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, oops.Wrapf(err, "%s: not a bool: %q", key, v)
	}
	return b, nil
}

// Fields returns the full settings field table in declaration order. The
// reserved integrity field appears last so the on-disk file always ends
// with the verify section.
func Fields() []Field {
	return []Field{
		{
			Section: "display", Key: "brightness", Kind: KindInt,
			Default: strconv.Itoa(DefaultBrightness), Min: 0, Max: 100,
			Get: func(s *Settings) string { return strconv.Itoa(int(s.Display.Brightness)) },
			Set: func(s *Settings, v string) error {
				n, err := parseInt32("display.brightness", v, 0, 100)
				if err != nil {
					return err
				}
				s.Display.Brightness = n
				return nil
			},
		},
		{
			Section: "display", Key: "sleep_timeout_s", Kind: KindInt,
			Default: strconv.Itoa(DefaultSleepTimeoutS), Min: 0, Max: 3600,
			Get: func(s *Settings) string { return strconv.Itoa(int(s.Display.SleepTimeoutS)) },
			Set: func(s *Settings, v string) error {
				n, err := parseInt32("display.sleep_timeout_s", v, 0, 3600)
				if err != nil {
					return err
				}
				s.Display.SleepTimeoutS = n
				return nil
			},
		},
		{
			Section: "display", Key: "night_mode", Kind: KindBool, Default: "false",
			Get: func(s *Settings) string { return strconv.FormatBool(s.Display.NightMode) },
			Set: func(s *Settings, v string) error {
				b, err := parseBool("display.night_mode", v)
				if err != nil {
					return err
				}
				s.Display.NightMode = b
				return nil
			},
		},
		{
			Section: "audio", Key: "volume", Kind: KindInt,
			Default: strconv.Itoa(DefaultVolume), Min: 0, Max: 100,
			Get: func(s *Settings) string { return strconv.Itoa(int(s.Audio.Volume)) },
			Set: func(s *Settings, v string) error {
				n, err := parseInt32("audio.volume", v, 0, 100)
				if err != nil {
					return err
				}
				s.Audio.Volume = n
				return nil
			},
		},
		{
			Section: "audio", Key: "muted", Kind: KindBool, Default: "false",
			Get: func(s *Settings) string { return strconv.FormatBool(s.Audio.Muted) },
			Set: func(s *Settings, v string) error {
				b, err := parseBool("audio.muted", v)
				if err != nil {
					return err
				}
				s.Audio.Muted = b
				return nil
			},
		},
		{
			Section: "audio", Key: "key_click", Kind: KindBool, Default: "true",
			Get: func(s *Settings) string { return strconv.FormatBool(s.Audio.KeyClick) },
			Set: func(s *Settings, v string) error {
				b, err := parseBool("audio.key_click", v)
				if err != nil {
					return err
				}
				s.Audio.KeyClick = b
				return nil
			},
		},
		{
			Section: "network", Key: "hostname", Kind: KindString,
			Default: DefaultHostname, Max: HostnameCap,
			Get: func(s *Settings) string { return s.Hostname() },
			Set: func(s *Settings, v string) error { return s.SetHostname(v) },
		},
		{
			Section: "network", Key: "dhcp", Kind: KindBool, Default: "true",
			Get: func(s *Settings) string { return strconv.FormatBool(s.Network.DHCP) },
			Set: func(s *Settings, v string) error {
				b, err := parseBool("network.dhcp", v)
				if err != nil {
					return err
				}
				s.Network.DHCP = b
				return nil
			},
		},
		{
			Section: "network", Key: "static_ip", Kind: KindString,
			Default: DefaultStaticIP, Max: AddressCap,
			Get: func(s *Settings) string { return s.StaticIP() },
			Set: func(s *Settings, v string) error { return s.SetStaticIP(v) },
		},
		{
			Section: "power", Key: "auto_off_minutes", Kind: KindInt,
			Default: strconv.Itoa(DefaultAutoOffMinutes), Min: 0, Max: 1440,
			Get: func(s *Settings) string { return strconv.Itoa(int(s.Power.AutoOffMinutes)) },
			Set: func(s *Settings, v string) error {
				n, err := parseInt32("power.auto_off_minutes", v, 0, 1440)
				if err != nil {
					return err
				}
				s.Power.AutoOffMinutes = n
				return nil
			},
		},
		{
			Section: "power", Key: "low_power", Kind: KindBool, Default: "false",
			Get: func(s *Settings) string { return strconv.FormatBool(s.Power.LowPower) },
			Set: func(s *Settings, v string) error {
				b, err := parseBool("power.low_power", v)
				if err != nil {
					return err
				}
				s.Power.LowPower = b
				return nil
			},
		},
		{
			Section: "verify", Key: "crc_16_ibm", Kind: KindInt,
			Default: "0", Min: 0, Max: 65535,
			Get: func(s *Settings) string { return strconv.Itoa(int(s.Verify.CRC16IBM)) },
			Set: func(s *Settings, v string) error {
				n, err := strconv.ParseUint(v, 10, 16)
				if err != nil {
					return oops.Wrapf(err, "verify.crc_16_ibm: not a 16-bit integer: %q", v)
				}
				s.Verify.CRC16IBM = uint16(n)
				return nil
			},
		},
	}
}

// Lookup finds a field by "section.key" name. Returns nil when no such
// field exists.
func Lookup(name string) *Field {
	for _, f := range Fields() {
		if f.Section+"."+f.Key == name {
			out := f
			return &out
		}
	}
	return nil
}
