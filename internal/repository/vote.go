package repository

import (
	"context"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/observability"

	"gorm.io/gorm"
)

// VoteRepository provides read access to the vote ledger. Writes to the
// ledger happen only inside the vote pipeline's transaction, not through
// this interface.
type VoteRepository interface {
	// CountsByTargets aggregates live ledger rows per target id. Targets
	// with no votes are absent from the map.
	CountsByTargets(ctx context.Context, targetType string, targetIDs []uint) (map[uint]models.VoteCounts, error)
	// ValuesByVoter returns the voter's own vote value per target id.
	// Targets the voter has not voted on are absent from the map.
	ValuesByVoter(ctx context.Context, voterID uint, targetType string, targetIDs []uint) (map[uint]int, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) CountsByTargets(ctx context.Context, targetType string, targetIDs []uint) (map[uint]models.VoteCounts, error) {
	defer observability.TrackQuery("aggregate", "votes")()

	if len(targetIDs) == 0 {
		return map[uint]models.VoteCounts{}, nil
	}

	var rows []struct {
		TargetID uint
		Up       int
		Down     int
	}
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("target_id, "+
			"SUM(CASE WHEN value = 1 THEN 1 ELSE 0 END) AS up, "+
			"SUM(CASE WHEN value = -1 THEN 1 ELSE 0 END) AS down").
		Where("target_type = ? AND target_id IN ?", targetType, targetIDs).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]models.VoteCounts, len(rows))
	for _, row := range rows {
		counts[row.TargetID] = models.VoteCounts{Up: row.Up, Down: row.Down}
	}
	return counts, nil
}

func (r *voteRepository) ValuesByVoter(ctx context.Context, voterID uint, targetType string, targetIDs []uint) (map[uint]int, error) {
	if len(targetIDs) == 0 {
		return map[uint]int{}, nil
	}

	var votes []models.Vote
	err := r.db.WithContext(ctx).
		Where("voter_id = ? AND target_type = ? AND target_id IN ?", voterID, targetType, targetIDs).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}

	values := make(map[uint]int, len(votes))
	for _, v := range votes {
		values[v.TargetID] = v.Value
	}
	return values, nil
}
