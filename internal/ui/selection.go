package ui

import "sort"

// Selection is the set of task uuids marked for the next batch edit,
// independent of cursor position. It never outlives a snapshot: every reload
// clears it so stale uuids cannot silently no-op against fresh records.
type Selection struct {
	ids map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

func (s *Selection) SelectAll(ids []string) {
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the members in sorted order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the batch targets: the selection members when any exist,
// otherwise just the record under the cursor. Callers never branch on
// emptiness themselves.
func (s *Selection) Resolve(currentID string) []string {
	if len(s.ids) > 0 {
		return s.IDs()
	}
	return []string{currentID}
}
