package ui

import (
	"fmt"
	"sort"

	"schedule/internal/taskwarrior"
)

// FieldSet tracks which date attributes are targets for the next batch edit.
// The empty set is valid; the dispatcher refuses to run against it.
type FieldSet struct {
	active map[taskwarrior.DateField]bool
}

func NewFieldSet(initial ...taskwarrior.DateField) *FieldSet {
	s := &FieldSet{active: make(map[taskwarrior.DateField]bool)}
	for _, f := range initial {
		mustKnownField(f)
		s.active[f] = true
	}
	return s
}

// Toggle flips one field. The key set is fixed at bind time, so an unknown
// field here is a programming error, not user input.
func (s *FieldSet) Toggle(f taskwarrior.DateField) {
	mustKnownField(f)
	if s.active[f] {
		delete(s.active, f)
		return
	}
	s.active[f] = true
}

func (s *FieldSet) IsActive(f taskwarrior.DateField) bool {
	return s.active[f]
}

// Active returns the active fields in lexicographic order so display and
// batch iteration are deterministic.
func (s *FieldSet) Active() []taskwarrior.DateField {
	out := make([]taskwarrior.DateField, 0, len(s.active))
	for f := range s.active {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *FieldSet) Len() int {
	return len(s.active)
}

func mustKnownField(f taskwarrior.DateField) {
	for _, known := range taskwarrior.DateFields() {
		if f == known {
			return
		}
	}
	panic(fmt.Sprintf("unknown date field %q", f))
}
