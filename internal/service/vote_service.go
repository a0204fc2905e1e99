// Package service contains the business logic of the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/cache"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/observability"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/ranking"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/repository"

	"gorm.io/gorm"
)

// maxCastAttempts bounds the internal retry loop on optimistic-concurrency
// collisions before the conflict is surfaced to the caller.
const maxCastAttempts = 4

// VoteService maintains the vote ledger and the cached aggregates derived
// from it. The ledger row, the target's counts/hot score and the author's
// reputation move together under one transaction: they are never observable
// in a partially-applied state.
type VoteService struct {
	db       *gorm.DB
	voteRepo repository.VoteRepository
}

// NewVoteService creates a new vote service.
func NewVoteService(db *gorm.DB, voteRepo repository.VoteRepository) *VoteService {
	return &VoteService{db: db, voteRepo: voteRepo}
}

// CastVoteInput describes one vote transition.
type CastVoteInput struct {
	VoterID    uint
	TargetType string
	TargetID   uint
	Value      int // -1, 0, +1; 0 retracts
}

// AuthorReputation is the author's reputation after a vote transition.
type AuthorReputation struct {
	UserID     uint   `json:"user_id"`
	NetUpvotes int    `json:"net_upvotes"`
	Tier       string `json:"tier"`
}

// CastVoteResult is the state after a committed vote transition.
type CastVoteResult struct {
	TargetType string            `json:"target_type"`
	TargetID   uint              `json:"target_id"`
	MyVote     int               `json:"my_vote"`
	Counts     models.VoteCounts `json:"counts"`
	HotScore   float64           `json:"hot_score"`
	Author     AuthorReputation  `json:"author"`
}

// targetState is the vote-relevant slice of a votable target row.
type targetState struct {
	authorID  uint
	up        int
	down      int
	version   uint
	createdAt time.Time
}

// CastVote records one signed vote per (voter, target) pair and updates the
// target aggregate and author reputation atomically. Re-voting the same value
// is a legal no-op; value 0 retracts. Collisions with concurrent voters on
// the same target are retried internally a bounded number of times.
func (s *VoteService) CastVote(ctx context.Context, in CastVoteInput) (*CastVoteResult, error) {
	if !models.ValidTargetType(in.TargetType) {
		return nil, models.NewValidationError(fmt.Sprintf("unknown target type %q", in.TargetType))
	}
	if !models.ValidVoteValue(in.Value) {
		return nil, models.NewValidationError("vote value must be -1, 0 or 1")
	}

	var lastErr error
	for attempt := 0; attempt < maxCastAttempts; attempt++ {
		result, err := s.castOnce(ctx, in)
		if err == nil {
			// Aggregates changed under the transaction; drop stale cache entries.
			if in.TargetType == models.TargetPost {
				cache.InvalidatePost(ctx, in.TargetID)
			}
			cache.InvalidateUser(ctx, result.Author.UserID)
			observability.VoteCasts.WithLabelValues(in.TargetType, strconv.Itoa(in.Value)).Inc()
			return result, nil
		}
		if !models.IsConflict(err) {
			return nil, err
		}
		observability.VoteConflicts.WithLabelValues("retried").Inc()
		lastErr = err
	}

	observability.VoteConflicts.WithLabelValues("exhausted").Inc()
	return nil, lastErr
}

// castOnce runs the full vote pipeline inside one transaction. A conflict
// error from the CAS step rolls back everything, including the ledger
// mutation, and signals the caller to retry.
func (s *VoteService) castOnce(ctx context.Context, in CastVoteInput) (*CastVoteResult, error) {
	var result *CastVoteResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Step 1: the voter's existing ledger row, if any.
		var existing models.Vote
		old := 0
		found := true
		err := tx.Where("voter_id = ? AND target_type = ? AND target_id = ?",
			in.VoterID, in.TargetType, in.TargetID).
			First(&existing).Error
		switch {
		case err == nil:
			old = existing.Value
		case errors.Is(err, gorm.ErrRecordNotFound):
			found = false
		default:
			return err
		}

		// Step 2: per-direction deltas; each term is 0 or 1.
		deltaUp := boolToInt(in.Value == 1) - boolToInt(old == 1)
		deltaDown := boolToInt(in.Value == -1) - boolToInt(old == -1)

		// Step 3: persist the new ledger state. Value 0 is represented by
		// absence of a row, never by a stored zero.
		switch {
		case in.Value == 0 && found:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case in.Value != 0 && found:
			if existing.Value != in.Value {
				existing.Value = in.Value
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
			}
		case in.Value != 0 && !found:
			row := models.Vote{
				VoterID:    in.VoterID,
				TargetType: in.TargetType,
				TargetID:   in.TargetID,
				Value:      in.Value,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		// Steps 4-5: target aggregate and hot score, guarded by a
		// compare-and-swap on the version column.
		state, err := loadTarget(tx, in.TargetType, in.TargetID)
		if err != nil {
			return err
		}
		state.up += deltaUp
		state.down += deltaDown
		hotScore := ranking.HotScore(state.up, state.down, state.createdAt)

		if err := casTarget(tx, in.TargetType, in.TargetID, state, hotScore); err != nil {
			return err
		}

		// Step 6: author reputation.
		var author models.User
		if err := tx.First(&author, state.authorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("user", state.authorID)
			}
			return err
		}
		author.NetUpvotes += deltaUp - deltaDown
		author.Tier = ranking.TierFor(author.NetUpvotes)
		if err := tx.Model(&models.User{}).
			Where("id = ?", author.ID).
			Updates(map[string]interface{}{
				"net_upvotes": author.NetUpvotes,
				"tier":        author.Tier,
			}).Error; err != nil {
			return err
		}

		result = &CastVoteResult{
			TargetType: in.TargetType,
			TargetID:   in.TargetID,
			MyVote:     in.Value,
			Counts:     models.VoteCounts{Up: state.up, Down: state.down},
			HotScore:   hotScore,
			Author: AuthorReputation{
				UserID:     author.ID,
				NetUpvotes: author.NetUpvotes,
				Tier:       author.Tier,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func loadTarget(tx *gorm.DB, targetType string, targetID uint) (targetState, error) {
	switch targetType {
	case models.TargetPost:
		var post models.Post
		if err := tx.First(&post, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return targetState{}, models.NewNotFoundError("post", targetID)
			}
			return targetState{}, err
		}
		return targetState{
			authorID:  post.UserID,
			up:        post.UpCount,
			down:      post.DownCount,
			version:   post.Version,
			createdAt: post.CreatedAt,
		}, nil
	case models.TargetComment:
		var comment models.Comment
		if err := tx.First(&comment, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return targetState{}, models.NewNotFoundError("comment", targetID)
			}
			return targetState{}, err
		}
		return targetState{
			authorID:  comment.UserID,
			up:        comment.UpCount,
			down:      comment.DownCount,
			version:   comment.Version,
			createdAt: comment.CreatedAt,
		}, nil
	default:
		return targetState{}, models.NewValidationError(fmt.Sprintf("unknown target type %q", targetType))
	}
}

// casTarget writes the updated aggregate only if the version still matches
// the one read inside this transaction. Zero rows affected means a concurrent
// voter won the race; the caller retries the whole pipeline.
func casTarget(tx *gorm.DB, targetType string, targetID uint, state targetState, hotScore float64) error {
	var model interface{}
	switch targetType {
	case models.TargetPost:
		model = &models.Post{}
	case models.TargetComment:
		model = &models.Comment{}
	}

	res := tx.Model(model).
		Where("id = ? AND version = ?", targetID, state.version).
		Updates(map[string]interface{}{
			"up_count":   state.up,
			"down_count": state.down,
			"hot_score":  hotScore,
			"version":    state.version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("concurrent vote on the same target")
	}
	return nil
}

// GetVotesForTargets returns, for each requested target, the aggregate counts
// computed from live ledger rows plus the calling voter's own value. The
// cached counts on the target are deliberately not consulted: this read path
// doubles as an independent consistency check of the ledger.
func (s *VoteService) GetVotesForTargets(ctx context.Context, voterID uint, targetType string, targetIDs []uint) ([]models.TargetVotes, error) {
	if !models.ValidTargetType(targetType) {
		return nil, models.NewValidationError(fmt.Sprintf("unknown target type %q", targetType))
	}

	ids := dedupeIDs(targetIDs)

	counts, err := s.voteRepo.CountsByTargets(ctx, targetType, ids)
	if err != nil {
		return nil, err
	}
	mine, err := s.voteRepo.ValuesByVoter(ctx, voterID, targetType, ids)
	if err != nil {
		return nil, err
	}

	results := make([]models.TargetVotes, 0, len(ids))
	for _, id := range ids {
		results = append(results, models.TargetVotes{
			TargetID: id,
			Counts:   counts[id],
			MyVote:   mine[id],
		})
	}
	return results, nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
