package server

import (
	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxMatchMembers = 50

// SaveSchedule handles PUT /api/:school/schedules/:term
//
// The body replaces the caller's entire busy-slot list for the term.
func (s *Server) SaveSchedule(c *fiber.Ctx) error {
	term := c.Params("term")

	var req struct {
		Slots []models.BusySlot `json:"slots"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return respondRepoError(c, err, "user", currentUserID(c))
	}

	doc, err := s.scheduleService.SaveSchedule(c.Context(), currentSchool(c), user.Email, term, req.Slots)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(doc)
}

// GetSchedule handles GET /api/:school/schedules/:term
func (s *Server) GetSchedule(c *fiber.Ctx) error {
	term := c.Params("term")

	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return respondRepoError(c, err, "user", currentUserID(c))
	}

	doc, err := s.scheduleService.GetSchedule(c.Context(), currentSchool(c), user.Email, term)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(doc)
}

// MatchSchedules handles POST /api/:school/schedules/:term/match
//
// The caller is always part of the group: their email is merged into the
// member list so the computed windows can never ignore the requester's own
// busy time.
func (s *Server) MatchSchedules(c *fiber.Ctx) error {
	term := c.Params("term")

	var req struct {
		Members    []string `json:"members"`
		MinMinutes int      `json:"min_minutes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if len(req.Members) > maxMatchMembers {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("too many members in one request"))
	}

	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return respondRepoError(c, err, "user", currentUserID(c))
	}

	result, err := s.scheduleService.ComputeCommonFreeWindows(c.Context(), service.MatchInput{
		School:     currentSchool(c),
		Term:       term,
		Members:    append([]string{user.Email}, req.Members...),
		MinMinutes: req.MinMinutes,
	})
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(result)
}
