package util

import (
	"os"
	"path/filepath"
)

// CheckFileExists reports whether a file exists and is statable.
func CheckFileExists(fpath string) bool {
	_, e := os.Stat(fpath)
	return e == nil
}

// SameDir reports whether two paths resolve to the same parent
// directory. The durable store's staging temp files must share a
// directory (and therefore a filesystem) with their canonical
// counterparts or the publishing rename loses atomicity.
func SameDir(a, b string) bool {
	da, err := filepath.Abs(filepath.Dir(a))
	if err != nil {
		return false
	}
	db, err := filepath.Abs(filepath.Dir(b))
	if err != nil {
		return false
	}
	return da == db
}
