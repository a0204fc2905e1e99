package models

import (
	"time"
)

// Weekdays in output order.
var Weekdays = []string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

// ValidWeekday reports whether day is one of MON..SUN.
func ValidWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// BusySlot is one declared busy interval on a weekday. Start and End are
// 24-hour "HH:MM" strings with Start < End. Overlapping slots for the same
// user are permitted and treated as a union.
type BusySlot struct {
	ID             uint   `gorm:"primaryKey" json:"-"`
	AvailabilityID uint   `gorm:"not null;index" json:"-"`
	Day            string `gorm:"not null" json:"day"`
	Start          string `gorm:"not null" json:"start"`
	End            string `gorm:"not null" json:"end"`
}

// Availability is one saved schedule document per (school, user email, term).
// Saves replace the slot list wholesale.
type Availability struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	School string `gorm:"not null;uniqueIndex:idx_school_email_term" json:"school"`
	Email  string `gorm:"not null;uniqueIndex:idx_school_email_term" json:"email"`
	Term   string `gorm:"not null;uniqueIndex:idx_school_email_term" json:"term"`

	Slots []BusySlot `gorm:"foreignKey:AvailabilityID;constraint:OnDelete:CASCADE" json:"slots"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FreeWindow is one qualifying common free span in a match result.
type FreeWindow struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// MatchResult is the outcome of a group availability match.
type MatchResult struct {
	Windows []FreeWindow `json:"windows"`
	Members []string     `json:"members"`
	Missing []string     `json:"missing"`
}
