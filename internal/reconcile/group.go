// Package reconcile groups master schedule rows by day and tracks which rows a
// viewer has marked as attending.
package reconcile

// OtherEventsLabel is the bucket for entries that carry no day label.
const OtherEventsLabel = "Other Events"

// DayGroup is one bucket of a day-grouped schedule.
type DayGroup[T any] struct {
	Day     string
	Entries []T
}

// GroupByDay buckets entries by the label returned from dayOf. Buckets are
// ordered by the first appearance of their label in entries, and each bucket
// keeps the relative order of its input. An empty label maps to
// OtherEventsLabel, and a nil dayOf treats every entry as unlabelled. Empty
// input yields nil.
func GroupByDay[T any](entries []T, dayOf func(T) string) []DayGroup[T] {
	if len(entries) == 0 {
		return nil
	}
	if dayOf == nil {
		dayOf = func(T) string { return "" }
	}

	index := make(map[string]int)
	groups := make([]DayGroup[T], 0, 4)
	for _, entry := range entries {
		day := dayOf(entry)
		if day == "" {
			day = OtherEventsLabel
		}
		pos, ok := index[day]
		if !ok {
			pos = len(groups)
			index[day] = pos
			groups = append(groups, DayGroup[T]{Day: day})
		}
		groups[pos].Entries = append(groups[pos].Entries, entry)
	}
	return groups
}

// Days lists the group labels in display order.
func Days[T any](groups []DayGroup[T]) []string {
	if len(groups) == 0 {
		return nil
	}
	days := make([]string, len(groups))
	for i, group := range groups {
		days[i] = group.Day
	}
	return days
}

// Lookup returns the entries grouped under day.
func Lookup[T any](groups []DayGroup[T], day string) ([]T, bool) {
	for _, group := range groups {
		if group.Day == day {
			return group.Entries, true
		}
	}
	return nil, false
}
