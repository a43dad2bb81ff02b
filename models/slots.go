package models

import "time"

// AvailableSlot is a bookable slot start returned to clients.
type AvailableSlot struct {
	Slot time.Time `json:"slot"` // UTC
}

// IsAligned reports whether t falls exactly on a slot boundary counted from the Unix epoch.
func IsAligned(t time.Time, slot time.Duration) bool {
	if t.IsZero() || slot <= 0 {
		return false
	}
	ms := slot.Milliseconds()
	if ms <= 0 || slot%time.Millisecond != 0 {
		return false
	}
	if t.Nanosecond()%int(time.Millisecond) != 0 {
		return false
	}
	return t.UnixMilli()%ms == 0
}

// SlotEnd returns the exclusive end of the slot starting at start.
func SlotEnd(start time.Time, slot time.Duration) time.Time {
	return start.Add(slot)
}
