package server

import (
	"strconv"
	"strings"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxVoteBatchSize = 100

// CastVote handles PUT /api/:school/votes
//
// The verb is PUT because the request expresses the desired ledger state for
// one (voter, target) pair, not an increment: repeating it is a no-op.
func (s *Server) CastVote(c *fiber.Ctx) error {
	var req struct {
		TargetType string `json:"target_type"`
		TargetID   uint   `json:"target_id"`
		Value      int    `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.TargetID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("target_id is required"))
	}

	result, err := s.voteService.CastVote(c.Context(), service.CastVoteInput{
		VoterID:    currentUserID(c),
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Value:      req.Value,
	})
	if err != nil {
		return models.RespondError(c, err)
	}

	return c.JSON(result)
}

// GetVotes handles GET /api/:school/votes?target_type=post&ids=1,2,3
//
// Counts are aggregated from live ledger rows rather than the cached columns
// on the target, so this endpoint doubles as a consistency probe.
func (s *Server) GetVotes(c *fiber.Ctx) error {
	targetType := c.Query("target_type", models.TargetPost)

	rawIDs := strings.Split(c.Query("ids"), ",")
	ids := make([]uint, 0, len(rawIDs))
	for _, raw := range rawIDs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("ids must be positive integers"))
		}
		ids = append(ids, uint(id))
	}
	if len(ids) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("ids query parameter is required"))
	}
	if len(ids) > maxVoteBatchSize {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("too many ids in one request"))
	}

	votes, err := s.voteService.GetVotesForTargets(c.Context(), currentUserID(c), targetType, ids)
	if err != nil {
		return models.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"votes": votes})
}

// GetUserReputation handles GET /api/:school/users/:id/reputation
func (s *Server) GetUserReputation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondRepoError(c, err, "user", id)
	}
	if user.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("user", id))
	}

	return c.JSON(fiber.Map{
		"user_id":     user.ID,
		"nickname":    user.Nickname,
		"net_upvotes": user.NetUpvotes,
		"tier":        user.Tier,
	})
}
