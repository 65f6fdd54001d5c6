// Package scheduler detects booking clashes in the master schedule.
package scheduler

import "strings"

// Slot is the part of a schedule entry that decides whether two entries clash.
type Slot struct {
	ID    int64
	Day   string
	Time  string
	Venue string
}

// Clash names an existing entry that shares a slot with the candidate.
type Clash struct {
	WithID int64
	Day    string
	Time   string
	Venue  string
}

// DetectVenueClashes returns the existing entries booked into the same day,
// time and venue as candidate. Comparison ignores case and surrounding
// whitespace. Entries without a venue or time never clash, and the candidate
// is not compared with itself.
func DetectVenueClashes(existing []Slot, candidate Slot) []Clash {
	key, ok := slotKey(candidate)
	if !ok {
		return nil
	}

	var clashes []Clash
	for _, slot := range existing {
		if candidate.ID != 0 && slot.ID == candidate.ID {
			continue
		}
		other, ok := slotKey(slot)
		if !ok || other != key {
			continue
		}
		clashes = append(clashes, Clash{
			WithID: slot.ID,
			Day:    slot.Day,
			Time:   slot.Time,
			Venue:  slot.Venue,
		})
	}
	return clashes
}

type normalizedSlot struct {
	day, time, venue string
}

func slotKey(s Slot) (normalizedSlot, bool) {
	k := normalizedSlot{
		day:   normalize(s.Day),
		time:  normalize(s.Time),
		venue: normalize(s.Venue),
	}
	return k, k.time != "" && k.venue != ""
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
