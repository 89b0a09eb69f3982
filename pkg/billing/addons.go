package billing

import (
	"encoding/json"
	"sort"

	"github.com/platinummonkey/launchpad/pkg/catalog"
)

// AddOnSet is a set of add-on identifiers. Methods never modify the receiver.
// It serializes as a sorted list; insertion order carries no meaning.
type AddOnSet map[catalog.AddOnID]struct{}

// NewAddOnSet builds a set, dropping duplicates
func NewAddOnSet(ids ...catalog.AddOnID) AddOnSet {
	s := make(AddOnSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership
func (s AddOnSet) Has(id catalog.AddOnID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of add-ons
func (s AddOnSet) Len() int {
	return len(s)
}

// With returns a copy of the set including id
func (s AddOnSet) With(id catalog.AddOnID) AddOnSet {
	out := s.clone()
	out[id] = struct{}{}
	return out
}

// Without returns a copy of the set excluding ids
func (s AddOnSet) Without(ids ...catalog.AddOnID) AddOnSet {
	out := s.clone()
	for _, id := range ids {
		delete(out, id)
	}
	return out
}

// Slice returns the members in sorted order
func (s AddOnSet) Slice() []catalog.AddOnID {
	out := make([]catalog.AddOnID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the members as sorted strings for storage
func (s AddOnSet) Strings() []string {
	ids := s.Slice()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// AddOnSetFromStrings rebuilds a set from its stored form
func AddOnSetFromStrings(values []string) AddOnSet {
	s := make(AddOnSet, len(values))
	for _, v := range values {
		s[catalog.AddOnID(v)] = struct{}{}
	}
	return s
}

func (s AddOnSet) clone() AddOnSet {
	out := make(AddOnSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array
func (s AddOnSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes an array, dropping duplicates
func (s *AddOnSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = AddOnSetFromStrings(values)
	return nil
}
