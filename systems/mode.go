package systems

import (
	"fmt"
	"strings"
)

// UpdateMode selects which force sources a group update applies.
type UpdateMode uint8

const (
	ModeFunction UpdateMode = 1 << iota
	ModeFlocking
	ModeField
)

// ModeAll enables every force source.
const ModeAll = ModeFunction | ModeFlocking | ModeField

var modeNames = []struct {
	name string
	mode UpdateMode
}{
	{"function", ModeFunction},
	{"flocking", ModeFlocking},
	{"field", ModeField},
}

// Has reports whether all bits of m2 are set in m.
func (m UpdateMode) Has(m2 UpdateMode) bool {
	return m&m2 == m2
}

func (m UpdateMode) String() string {
	var parts []string
	for _, n := range modeNames {
		if m.Has(n.mode) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseUpdateModes combines mode names ("function", "flocking", "field")
// into a bitmask.
func ParseUpdateModes(names []string) (UpdateMode, error) {
	var m UpdateMode
	for _, name := range names {
		found := false
		for _, n := range modeNames {
			if strings.EqualFold(strings.TrimSpace(name), n.name) {
				m |= n.mode
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown update mode %q", name)
		}
	}
	return m, nil
}
