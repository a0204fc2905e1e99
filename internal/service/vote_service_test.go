package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/ranking"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupVoteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
	))
	return db
}

func seedAuthorAndPost(t *testing.T, db *gorm.DB, createdAt time.Time) (*models.User, *models.Post) {
	t.Helper()

	author := &models.User{
		Nickname: "author",
		Email:    "author@nyu.edu",
		Password: "hashed",
		School:   "nyu",
	}
	require.NoError(t, db.Create(author).Error)

	post := &models.Post{
		Title:   "test post",
		Content: "content",
		Board:   models.BoardFree,
		School:  "nyu",
		UserID:  author.ID,
	}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Model(post).Update("created_at", createdAt).Error)
	post.CreatedAt = createdAt
	return author, post
}

func newTestVoteService(db *gorm.DB) *VoteService {
	return NewVoteService(db, repository.NewVoteRepository(db))
}

func TestCastVoteValidation(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()

	_, err := svc.CastVote(ctx, CastVoteInput{VoterID: 1, TargetType: "article", TargetID: 1, Value: 1})
	assert.True(t, models.IsValidation(err))

	_, err = svc.CastVote(ctx, CastVoteInput{VoterID: 1, TargetType: models.TargetPost, TargetID: 1, Value: 2})
	assert.True(t, models.IsValidation(err))
}

func TestCastVoteMissingTarget(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()

	_, err := svc.CastVote(ctx, CastVoteInput{VoterID: 1, TargetType: models.TargetPost, TargetID: 999, Value: 1})
	assert.True(t, models.IsNotFound(err))

	// The failed pipeline must not leave a ledger row behind.
	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCastVoteTransitions(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()
	author, post := seedAuthorAndPost(t, db, time.Now())

	// First upvote.
	res, err := svc.CastVote(ctx, CastVoteInput{VoterID: 100, TargetType: models.TargetPost, TargetID: post.ID, Value: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counts.Up)
	assert.Equal(t, 0, res.Counts.Down)
	assert.Equal(t, 1, res.MyVote)
	assert.Equal(t, 1, res.Author.NetUpvotes)

	// Re-voting the same value is a no-op.
	res, err = svc.CastVote(ctx, CastVoteInput{VoterID: 100, TargetType: models.TargetPost, TargetID: post.ID, Value: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counts.Up)
	assert.Equal(t, 1, res.Author.NetUpvotes)

	// Flip to downvote: both counters move in one step.
	res, err = svc.CastVote(ctx, CastVoteInput{VoterID: 100, TargetType: models.TargetPost, TargetID: post.ID, Value: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Counts.Up)
	assert.Equal(t, 1, res.Counts.Down)
	assert.Equal(t, -1, res.Author.NetUpvotes)

	// Retract.
	res, err = svc.CastVote(ctx, CastVoteInput{VoterID: 100, TargetType: models.TargetPost, TargetID: post.ID, Value: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Counts.Up)
	assert.Equal(t, 0, res.Counts.Down)
	assert.Equal(t, 0, res.MyVote)
	assert.Equal(t, 0, res.Author.NetUpvotes)

	// Retraction removes the row entirely.
	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Where("voter_id = ?", 100).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Retracting again without a row is still fine.
	_, err = svc.CastVote(ctx, CastVoteInput{VoterID: 100, TargetType: models.TargetPost, TargetID: post.ID, Value: 0})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.First(&stored, author.ID).Error)
	assert.Equal(t, 0, stored.NetUpvotes)
	assert.Equal(t, ranking.TierBronze, stored.Tier)
}

func TestCastVoteOneRowPerVoterTarget(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()
	_, post := seedAuthorAndPost(t, db, time.Now())

	for _, v := range []int{1, -1, 1, -1, 1} {
		_, err := svc.CastVote(ctx, CastVoteInput{VoterID: 7, TargetType: models.TargetPost, TargetID: post.ID, Value: v})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("voter_id = ? AND target_type = ? AND target_id = ?", 7, models.TargetPost, post.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCastVoteHotScoreReference(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()

	createdAt := time.Unix(ranking.HotEpochSeconds+45000, 0).UTC()
	_, post := seedAuthorAndPost(t, db, createdAt)

	var last *CastVoteResult
	for i := 0; i < 10; i++ {
		res, err := svc.CastVote(ctx, CastVoteInput{VoterID: uint(1000 + i), TargetType: models.TargetPost, TargetID: post.ID, Value: 1})
		require.NoError(t, err)
		last = res
	}
	for i := 0; i < 2; i++ {
		res, err := svc.CastVote(ctx, CastVoteInput{VoterID: uint(2000 + i), TargetType: models.TargetPost, TargetID: post.ID, Value: -1})
		require.NoError(t, err)
		last = res
	}

	assert.Equal(t, 10, last.Counts.Up)
	assert.Equal(t, 2, last.Counts.Down)
	assert.InDelta(t, 1.9030900, last.HotScore, 1e-9)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.InDelta(t, 1.9030900, stored.HotScore, 1e-9)
}

func TestCastVoteCommentTarget(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()
	author, post := seedAuthorAndPost(t, db, time.Now())

	comment := &models.Comment{
		Content: "a comment",
		PostID:  post.ID,
		UserID:  author.ID,
	}
	require.NoError(t, db.Create(comment).Error)

	res, err := svc.CastVote(ctx, CastVoteInput{VoterID: 50, TargetType: models.TargetComment, TargetID: comment.ID, Value: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counts.Up)
	assert.Equal(t, models.TargetComment, res.TargetType)

	// Post and comment ledgers are independent even with the same numeric id.
	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, 0, stored.UpCount)
}

func TestCastVoteTierTransitions(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()
	author, post := seedAuthorAndPost(t, db, time.Now())

	// 19 upvotes keeps the author in Bronze; the 20th promotes to Silver.
	for i := 0; i < 19; i++ {
		_, err := svc.CastVote(ctx, CastVoteInput{VoterID: uint(300 + i), TargetType: models.TargetPost, TargetID: post.ID, Value: 1})
		require.NoError(t, err)
	}
	var stored models.User
	require.NoError(t, db.First(&stored, author.ID).Error)
	assert.Equal(t, ranking.TierBronze, stored.Tier)

	res, err := svc.CastVote(ctx, CastVoteInput{VoterID: 399, TargetType: models.TargetPost, TargetID: post.ID, Value: 1})
	require.NoError(t, err)
	assert.Equal(t, 20, res.Author.NetUpvotes)
	assert.Equal(t, ranking.TierSilver, res.Author.Tier)

	// A retraction demotes back.
	res, err = svc.CastVote(ctx, CastVoteInput{VoterID: 399, TargetType: models.TargetPost, TargetID: post.ID, Value: 0})
	require.NoError(t, err)
	assert.Equal(t, 19, res.Author.NetUpvotes)
	assert.Equal(t, ranking.TierBronze, res.Author.Tier)
}

func TestCastVoteVersionAdvances(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()
	_, post := seedAuthorAndPost(t, db, time.Now())

	before := post.Version
	_, err := svc.CastVote(ctx, CastVoteInput{VoterID: 1, TargetType: models.TargetPost, TargetID: post.ID, Value: 1})
	require.NoError(t, err)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, before+1, stored.Version)
}

// skewPostVersion makes the next n post loads look stale, as if a concurrent
// voter advanced the row between our read and the guarded write. The skewed
// version misses the compare-and-swap and rolls the whole attempt back.
func skewPostVersion(t *testing.T, db *gorm.DB, postID uint, n int) *int {
	t.Helper()

	remaining := n
	err := db.Callback().Query().After("gorm:query").Register("skew_post_version", func(tx *gorm.DB) {
		if remaining == 0 {
			return
		}
		if p, ok := tx.Statement.Dest.(*models.Post); ok && p.ID == postID {
			remaining--
			p.Version++
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Callback().Query().Remove("skew_post_version") })
	return &remaining
}

func TestCastVoteRetriesOnConflict(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()
	_, post := seedAuthorAndPost(t, db, time.Now())

	// Two stale reads, then a clean one: the retry loop absorbs both.
	remaining := skewPostVersion(t, db, post.ID, 2)

	res, err := svc.CastVote(ctx, CastVoteInput{VoterID: 1, TargetType: models.TargetPost, TargetID: post.ID, Value: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, *remaining)
	assert.Equal(t, 1, res.Counts.Up)

	// Rolled-back attempts leave no trace: one ledger row, one version bump.
	var rows int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ?", models.TargetPost, post.ID).
		Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, uint(1), stored.Version)
	assert.Equal(t, 1, stored.UpCount)
}

func TestCastVoteConflictExhaustsRetries(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()
	author, post := seedAuthorAndPost(t, db, time.Now())

	// More stale reads than the retry budget allows.
	remaining := skewPostVersion(t, db, post.ID, maxCastAttempts+1)

	_, err := svc.CastVote(ctx, CastVoteInput{VoterID: 1, TargetType: models.TargetPost, TargetID: post.ID, Value: 1})
	require.Error(t, err)
	assert.True(t, models.IsConflict(err))
	// Each of the bounded attempts consumed exactly one stale read.
	assert.Equal(t, 1, *remaining)
	*remaining = 0

	// Every attempt rolled back wholesale: no ledger row, untouched counts,
	// untouched reputation.
	var rows int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ?", models.TargetPost, post.ID).
		Count(&rows).Error)
	assert.Equal(t, int64(0), rows)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, uint(0), stored.Version)
	assert.Equal(t, 0, stored.UpCount)

	var storedAuthor models.User
	require.NoError(t, db.First(&storedAuthor, author.ID).Error)
	assert.Equal(t, 0, storedAuthor.NetUpvotes)
}

func TestGetVotesForTargets(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()
	_, postA := seedAuthorAndPost(t, db, time.Now())

	postB := &models.Post{
		Title:   "second",
		Content: "content",
		Board:   models.BoardFree,
		School:  "nyu",
		UserID:  postA.UserID,
	}
	require.NoError(t, db.Create(postB).Error)

	// Voter 1 upvotes both, voter 2 downvotes A only.
	for _, in := range []CastVoteInput{
		{VoterID: 1, TargetType: models.TargetPost, TargetID: postA.ID, Value: 1},
		{VoterID: 1, TargetType: models.TargetPost, TargetID: postB.ID, Value: 1},
		{VoterID: 2, TargetType: models.TargetPost, TargetID: postA.ID, Value: -1},
	} {
		_, err := svc.CastVote(ctx, in)
		require.NoError(t, err)
	}

	// Duplicated and unknown ids: duplicates collapse, unknowns come back zeroed.
	got, err := svc.GetVotesForTargets(ctx, 1, models.TargetPost, []uint{postA.ID, postB.ID, postA.ID, 999})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, postA.ID, got[0].TargetID)
	assert.Equal(t, models.VoteCounts{Up: 1, Down: 1}, got[0].Counts)
	assert.Equal(t, 1, got[0].MyVote)

	assert.Equal(t, postB.ID, got[1].TargetID)
	assert.Equal(t, models.VoteCounts{Up: 1, Down: 0}, got[1].Counts)
	assert.Equal(t, 1, got[1].MyVote)

	assert.Equal(t, uint(999), got[2].TargetID)
	assert.Equal(t, models.VoteCounts{}, got[2].Counts)
	assert.Equal(t, 0, got[2].MyVote)

	// Voter 2 sees their own value, not voter 1's.
	got, err = svc.GetVotesForTargets(ctx, 2, models.TargetPost, []uint{postA.ID})
	require.NoError(t, err)
	assert.Equal(t, -1, got[0].MyVote)

	_, err = svc.GetVotesForTargets(ctx, 1, "article", []uint{1})
	assert.True(t, models.IsValidation(err))
}

func TestGetVotesForTargetsMatchesCachedCounts(t *testing.T) {
	t.Parallel()
	db := setupVoteDB(t)
	svc := newTestVoteService(db)
	ctx := context.Background()
	_, post := seedAuthorAndPost(t, db, time.Now())

	// An arbitrary transition sequence from several voters.
	seq := []CastVoteInput{
		{VoterID: 1, TargetType: models.TargetPost, TargetID: post.ID, Value: 1},
		{VoterID: 2, TargetType: models.TargetPost, TargetID: post.ID, Value: 1},
		{VoterID: 3, TargetType: models.TargetPost, TargetID: post.ID, Value: -1},
		{VoterID: 2, TargetType: models.TargetPost, TargetID: post.ID, Value: -1},
		{VoterID: 1, TargetType: models.TargetPost, TargetID: post.ID, Value: 0},
		{VoterID: 3, TargetType: models.TargetPost, TargetID: post.ID, Value: 1},
	}
	for _, in := range seq {
		_, err := svc.CastVote(ctx, in)
		require.NoError(t, err, fmt.Sprintf("transition %+v", in))
	}

	got, err := svc.GetVotesForTargets(ctx, 1, models.TargetPost, []uint{post.ID})
	require.NoError(t, err)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, stored.UpCount, got[0].Counts.Up)
	assert.Equal(t, stored.DownCount, got[0].Counts.Down)
}
