package booking

import (
	"iter"
	"slices"
	"time"
)

// GenerateSlots yields every aligned slot start inside business hours that fits entirely
// within [rangeStart, rangeEnd], in ascending order. Each day is a UTC calendar day and
// business hours are offsets from its midnight. The sequence is lazy and can be ranged
// over any number of times.
func GenerateSlots(rangeStart, rangeEnd time.Time, slot, businessStart, businessEnd time.Duration) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if slot < time.Millisecond || slot%time.Millisecond != 0 || businessEnd <= businessStart {
			return
		}
		start, end := rangeStart.UTC(), rangeEnd.UTC()
		if start.After(end) {
			return
		}

		for day := startOfDay(start); !day.After(end); day = day.AddDate(0, 0, 1) {
			windowStart := day.Add(businessStart)
			windowEnd := day.Add(businessEnd)
			if windowStart.Before(start) {
				windowStart = start
			}
			if windowEnd.After(end) {
				windowEnd = end
			}
			if !windowStart.Before(windowEnd) {
				continue
			}

			for t := ceilToSlot(windowStart, slot); !t.Add(slot).After(windowEnd); t = t.Add(slot) {
				if !yield(t) {
					return
				}
			}
		}
	}
}

// CollectSlots materializes GenerateSlots.
func CollectSlots(rangeStart, rangeEnd time.Time, slot, businessStart, businessEnd time.Duration) []time.Time {
	return slices.Collect(GenerateSlots(rangeStart, rangeEnd, slot, businessStart, businessEnd))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ceilToSlot rounds t up to the next epoch-anchored multiple of slot.
func ceilToSlot(t time.Time, slot time.Duration) time.Time {
	ms := slot.Milliseconds()
	u := t.UnixMilli()
	if t.Nanosecond()%int(time.Millisecond) != 0 {
		u++
	}
	rem := u % ms
	if rem < 0 {
		rem += ms
	}
	if rem != 0 {
		u += ms - rem
	}
	return time.UnixMilli(u).UTC()
}
