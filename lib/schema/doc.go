// Package schema defines the device settings record.
//
// The Settings struct is a fixed-layout aggregate: every field is a sized
// integer, a bool, or a fixed-capacity inline byte buffer. That keeps the
// whole record comparable with ==, which the persistence engine relies on
// for change detection, and gives it a stable binary encoding for the
// checksum. Do not add pointers, slices, maps or Go strings to it.
//
// Each field carries a default value and, for integers and strings, bounds.
// Typed accessors enforce the bounds; the Fields table exposes the same
// metadata in string form for the INI codec and the CLI.
package schema
