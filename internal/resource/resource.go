// Package resource defines the six accumulating resources of a planetary colony
// and the amount maps used for costs and production deltas.
package resource

import (
	"fmt"
	"strings"
)

// ID identifies one of the six resources.
type ID uint8

const (
	Energy ID = iota
	Minerals
	Population
	Technology
	Food
	Credits
)

// Count is the number of resources in the enumeration.
const Count = 6

// All returns every resource in display order.
func All() []ID {
	return []ID{Energy, Minerals, Population, Technology, Food, Credits}
}

var names = [Count]string{"energy", "minerals", "population", "technology", "food", "credits"}

var displayNames = [Count]string{"Energy", "Minerals", "Population", "Technology", "Food", "Credits"}

// Unit suffixes shown next to formatted values.
var units = [Count]string{"MW", "kT", "hab", "RP", "t", "CR"}

// Valid reports whether id is part of the enumeration.
func (id ID) Valid() bool { return id < Count }

// String returns the lowercase identifier used in catalogs and the API.
func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("resource(%d)", uint8(id))
	}
	return names[id]
}

// DisplayName returns the capitalized name.
func (id ID) DisplayName() string {
	if !id.Valid() {
		return id.String()
	}
	return displayNames[id]
}

// Unit returns the display unit (MW, kT, hab, RP, t, CR). Unknown ids return "".
func (id ID) Unit() string {
	if !id.Valid() {
		return ""
	}
	return units[id]
}

// Parse looks up a resource by its identifier, case-insensitively.
func Parse(s string) (ID, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return ID(i), true
		}
	}
	return 0, false
}

// MarshalText lets IDs serve as JSON object keys.
func (id ID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("unknown resource %d", uint8(id))
	}
	return []byte(names[id]), nil
}

// UnmarshalText parses a resource identifier.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, ok := Parse(string(b))
	if !ok {
		return fmt.Errorf("unknown resource %q", string(b))
	}
	*id = parsed
	return nil
}
