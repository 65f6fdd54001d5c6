package reconcile

// Selection is the set of schedule entry ids a viewer marked as attending.
// Insertion order is kept so the persisted form stays stable between saves.
type Selection []int64

// Contains reports whether id is part of the selection.
func (s Selection) Contains(id int64) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Equal compares two selections as sets.
func (s Selection) Equal(other Selection) bool {
	a, b := s.set(), other.set()
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

// Normalize drops duplicate ids, keeping the first occurrence.
func (s Selection) Normalize() Selection {
	if len(s) == 0 {
		return Selection{}
	}
	seen := make(map[int64]struct{}, len(s))
	out := make(Selection, 0, len(s))
	for _, id := range s {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s Selection) set() map[int64]struct{} {
	m := make(map[int64]struct{}, len(s))
	for _, id := range s {
		m[id] = struct{}{}
	}
	return m
}

// IsAttending is the membership test used by schedule views.
func IsAttending(selection Selection, entryID int64) bool {
	return selection.Contains(entryID)
}

// ToggleAttendance returns a new selection with entryID added when absent and
// removed when present. The input is never modified.
func ToggleAttendance(selection Selection, entryID int64) Selection {
	out := make(Selection, 0, len(selection)+1)
	removed := false
	for _, id := range selection {
		if id == entryID {
			removed = true
			continue
		}
		out = append(out, id)
	}
	if !removed {
		out = append(out, entryID)
	}
	return out
}
