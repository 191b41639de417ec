package schema

import (
	"bytes"
	"encoding/binary"

	"github.com/go-i2p/settings/lib/crc"
	"github.com/samber/oops"
)

// Capacities of the inline string buffers. Sizes include no terminator;
// shorter values are NUL padded.
const (
	HostnameCap = 32
	AddressCap  = 16
)

// DisplaySettings groups the screen-related fields.
type DisplaySettings struct {
	Brightness    int32 // percent, 0..100
	SleepTimeoutS int32 // seconds until screen sleep, 0 disables, max 3600
	NightMode     bool
}

// AudioSettings groups the audio-related fields.
type AudioSettings struct {
	Volume   int32 // percent, 0..100
	Muted    bool
	KeyClick bool
}

// NetworkSettings groups the network-related fields.
type NetworkSettings struct {
	Hostname [HostnameCap]byte
	DHCP     bool
	StaticIP [AddressCap]byte
}

// PowerSettings groups the power-management fields.
type PowerSettings struct {
	AutoOffMinutes int32 // 0 disables, max 1440
	LowPower       bool
}

// VerifySettings holds the reserved integrity field. It is stamped by the
// durable store on save and checked on load; callers never set it directly.
type VerifySettings struct {
	CRC16IBM uint16
}

// Settings is the full device settings record. The zero value is NOT a
// valid record; populate it with RestoreDefaults first.
type Settings struct {
	Display DisplaySettings
	Audio   AudioSettings
	Network NetworkSettings
	Power   PowerSettings
	Verify  VerifySettings
}

// Default values.
const (
	DefaultBrightness     = 80
	DefaultSleepTimeoutS  = 300
	DefaultVolume         = 35
	DefaultHostname       = "tlv3-device"
	DefaultStaticIP       = "192.168.1.100"
	DefaultAutoOffMinutes = 0
)

// RestoreDefaults resets every field of s to its schema default,
// including the integrity field (zeroed).
func RestoreDefaults(s *Settings) {
	if s == nil {
		return
	}
	*s = Settings{}
	s.Display.Brightness = DefaultBrightness
	s.Display.SleepTimeoutS = DefaultSleepTimeoutS
	s.Display.NightMode = false
	s.Audio.Volume = DefaultVolume
	s.Audio.Muted = false
	s.Audio.KeyClick = true
	setBuf(s.Network.Hostname[:], DefaultHostname)
	s.Network.DHCP = true
	setBuf(s.Network.StaticIP[:], DefaultStaticIP)
	s.Power.AutoOffMinutes = DefaultAutoOffMinutes
	s.Power.LowPower = false
}

// EncodedSize is the length in bytes of the record's binary encoding.
var EncodedSize = func() int {
	return binary.Size(Settings{})
}()

// EncodeBinary returns the deterministic little-endian fixed-layout
// encoding of the record. The layout mirrors field declaration order, so
// it is stable for a given schema revision.
func (s *Settings) EncodeBinary() []byte {
	var buf bytes.Buffer
	buf.Grow(EncodedSize)
	// binary.Write cannot fail here: the record is all fixed-size fields
	// and the writer is in memory.
	_ = binary.Write(&buf, binary.LittleEndian, *s)
	return buf.Bytes()
}

// Checksum computes the CRC-16/IBM code over the record with the
// integrity field zeroed. Pure; s is not modified.
func Checksum(s *Settings) uint16 {
	if s == nil {
		return 0
	}
	tmp := *s
	tmp.Verify.CRC16IBM = 0
	return crc.Sum16(tmp.EncodeBinary())
}

// Stamp writes the record's checksum into the integrity field.
func Stamp(s *Settings) {
	s.Verify.CRC16IBM = Checksum(s)
}

// VerifyChecksum recomputes the checksum and compares it against the
// stored integrity field.
func VerifyChecksum(s *Settings) bool {
	return Checksum(s) == s.Verify.CRC16IBM
}

// setBuf copies v into buf and NUL pads the remainder. v must already be
// validated against the buffer capacity.
func setBuf(buf []byte, v string) {
	n := copy(buf, v)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

// bufString converts a NUL-padded inline buffer back to a Go string.
func bufString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}

// Hostname returns the hostname field as a string.
func (s *Settings) Hostname() string { return bufString(s.Network.Hostname[:]) }

// StaticIP returns the static IP field as a string.
func (s *Settings) StaticIP() string { return bufString(s.Network.StaticIP[:]) }

// SetHostname validates length and stores v into the inline buffer.
func (s *Settings) SetHostname(v string) error {
	if len(v) > HostnameCap {
		return oops.Errorf("hostname too long: %d bytes, max %d", len(v), HostnameCap)
	}
	setBuf(s.Network.Hostname[:], v)
	return nil
}

// SetStaticIP validates length and stores v into the inline buffer.
func (s *Settings) SetStaticIP(v string) error {
	if len(v) > AddressCap {
		return oops.Errorf("static ip too long: %d bytes, max %d", len(v), AddressCap)
	}
	setBuf(s.Network.StaticIP[:], v)
	return nil
}

// SetBrightness validates range and stores v.
func (s *Settings) SetBrightness(v int32) error {
	if v < 0 || v > 100 {
		return oops.Errorf("brightness out of range: %d, want 0..100", v)
	}
	s.Display.Brightness = v
	return nil
}

// SetSleepTimeout validates range and stores v (seconds).
func (s *Settings) SetSleepTimeout(v int32) error {
	if v < 0 || v > 3600 {
		return oops.Errorf("sleep timeout out of range: %d, want 0..3600", v)
	}
	s.Display.SleepTimeoutS = v
	return nil
}

// SetVolume validates range and stores v.
func (s *Settings) SetVolume(v int32) error {
	if v < 0 || v > 100 {
		return oops.Errorf("volume out of range: %d, want 0..100", v)
	}
	s.Audio.Volume = v
	return nil
}

// SetAutoOff validates range and stores v (minutes, 0 disables).
func (s *Settings) SetAutoOff(v int32) error {
	if v < 0 || v > 1440 {
		return oops.Errorf("auto off out of range: %d, want 0..1440", v)
	}
	s.Power.AutoOffMinutes = v
	return nil
}
