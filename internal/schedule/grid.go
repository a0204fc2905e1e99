// Package schedule implements the free/busy window computation for group
// availability matching at 30-minute granularity.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// SlotMinutes is the matching granularity.
	SlotMinutes = 30
	// SlotsPerDay covers 00:00-24:00 at 30-minute steps.
	SlotsPerDay = 24 * 60 / SlotMinutes

	dayMinutes = 24 * 60
)

var weekdays = [7]string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

// Window is a contiguous free span on one weekday.
type Window struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Grid is a per-weekday busy bitmap, Monday first. A true slot means at least
// one contributing member is busy during that half hour.
type Grid [len(weekdays)][SlotsPerDay]bool

// ClockToMinutes parses a 24-hour "HH:MM" string into minutes since midnight.
// "24:00" is accepted as the end-of-day bound.
func ClockToMinutes(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("malformed time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q, want HH:MM", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q, want HH:MM", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// MinutesToClock formats minutes since midnight as "HH:MM". 1440 renders as
// "24:00" so end-of-day bounds survive a round trip.
func MinutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func dayIndex(day string) int {
	for i, d := range weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

// MarkBusy marks every slot the interval [start, end) touches as busy. Any
// overlap marks the whole 30-minute slot; there is no sub-slot credit.
func (g *Grid) MarkBusy(day, start, end string) error {
	di := dayIndex(day)
	if di < 0 {
		return fmt.Errorf("unknown weekday %q", day)
	}
	startMin, err := ClockToMinutes(start)
	if err != nil {
		return err
	}
	endMin, err := ClockToMinutes(end)
	if err != nil {
		return err
	}
	if startMin >= endMin {
		return fmt.Errorf("slot start %q must be before end %q", start, end)
	}

	for slot := 0; slot < SlotsPerDay; slot++ {
		slotStart := slot * SlotMinutes
		slotEnd := slotStart + SlotMinutes
		if slotStart < endMin && slotEnd > startMin {
			g[di][slot] = true
		}
	}
	return nil
}

// Or merges other into g: a slot is busy if busy for either.
func (g *Grid) Or(other *Grid) {
	for d := range g {
		for s := range g[d] {
			g[d][s] = g[d][s] || other[d][s]
		}
	}
}

// EffectiveMinimum rounds minMinutes up to the nearest slot multiple, with a
// floor of one slot.
func EffectiveMinimum(minMinutes int) int {
	if minMinutes <= SlotMinutes {
		return SlotMinutes
	}
	if rem := minMinutes % SlotMinutes; rem != 0 {
		minMinutes += SlotMinutes - rem
	}
	return minMinutes
}

// FreeWindows scans each day's bitmap left to right and returns the maximal
// free runs whose duration meets minMinutes, in day order then chronological
// order within a day. minMinutes is normalized via EffectiveMinimum.
func (g *Grid) FreeWindows(minMinutes int) []Window {
	minSlots := EffectiveMinimum(minMinutes) / SlotMinutes

	var windows []Window
	for di, day := range weekdays {
		runStart := -1
		for slot := 0; slot <= SlotsPerDay; slot++ {
			free := slot < SlotsPerDay && !g[di][slot]
			switch {
			case free && runStart < 0:
				runStart = slot
			case !free && runStart >= 0:
				if slot-runStart >= minSlots {
					windows = append(windows, Window{
						Day:   day,
						Start: MinutesToClock(runStart * SlotMinutes),
						End:   MinutesToClock(slot * SlotMinutes),
					})
				}
				runStart = -1
			}
		}
	}
	return windows
}
