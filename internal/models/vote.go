package models

import (
	"time"
)

// Votable target types.
const (
	TargetPost    = "post"
	TargetComment = "comment"
)

// ValidTargetType reports whether t names a votable target type.
func ValidTargetType(t string) bool {
	return t == TargetPost || t == TargetComment
}

// ValidVoteValue reports whether v is a legal vote value.
func ValidVoteValue(v int) bool {
	return v == -1 || v == 0 || v == 1
}

// Vote is one live ledger row per (voter, target type, target id).
// A retracted vote (value 0) is represented by absence of the row, never by a
// stored zero. The combination of VoterID, TargetType and TargetID is unique.
type Vote struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	VoterID    uint   `gorm:"not null;uniqueIndex:idx_voter_target" json:"voter_id"`
	TargetType string `gorm:"not null;uniqueIndex:idx_voter_target" json:"target_type"`
	TargetID   uint   `gorm:"not null;uniqueIndex:idx_voter_target;index" json:"target_id"`
	Value      int    `gorm:"not null" json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VoteCounts is a live aggregate over ledger rows for one target.
type VoteCounts struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// TargetVotes is the batch-read result for one target id.
type TargetVotes struct {
	TargetID uint       `json:"target_id"`
	Counts   VoteCounts `json:"counts"`
	MyVote   int        `json:"my_vote"`
}
