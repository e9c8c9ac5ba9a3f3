// Package pool provides variable pools for rexxexpr contexts.
package pool

import (
	"strings"

	"github.com/zephyrtronium/rexxexpr"
)

// Pool is a variable pool that can also enumerate and drop variables.
type Pool interface {
	rexxexpr.Vars
	// Delete drops a variable. Dropping a stem drops all of its compound
	// variables as well.
	Delete(name string) error
	// Names returns the names of all assigned variables in sorted order.
	Names() ([]string, error)
	// Close releases resources.
	Close() error
}

// stem returns the stem of a compound name, or "" if name is a simple
// symbol or is itself a stem.
func stem(name string) string {
	i := strings.IndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[:i+1]
}

// isStem reports whether name is a stem.
func isStem(name string) bool {
	return strings.IndexByte(name, '.') == len(name)-1
}
