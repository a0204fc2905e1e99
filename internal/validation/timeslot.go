package validation

import (
	"fmt"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/schedule"
)

// ValidateBusySlot checks one declared busy interval: known weekday, well
// formed HH:MM clock strings, and start strictly before end as time of day.
// Overlap with other slots is deliberately not checked; overlapping slots are
// treated as a union downstream.
func ValidateBusySlot(slot models.BusySlot) error {
	if !models.ValidWeekday(slot.Day) {
		return fmt.Errorf("unknown weekday %q", slot.Day)
	}
	start, err := schedule.ClockToMinutes(slot.Start)
	if err != nil {
		return err
	}
	end, err := schedule.ClockToMinutes(slot.End)
	if err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("slot start %q must be before end %q", slot.Start, slot.End)
	}
	return nil
}

// ValidateBusySlots validates every slot of a schedule save.
func ValidateBusySlots(slots []models.BusySlot) error {
	for i, slot := range slots {
		if err := ValidateBusySlot(slot); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return nil
}
