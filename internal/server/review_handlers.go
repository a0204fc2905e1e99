package server

import (
	"strings"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxReviewLength = 10000

// CreateReview handles POST /api/:school/reviews
func (s *Server) CreateReview(c *fiber.Ctx) error {
	var req struct {
		CourseCode string `json:"course_code"`
		Professor  string `json:"professor"`
		Rating     int    `json:"rating"`
		Content    string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.CourseCode = strings.ToUpper(strings.TrimSpace(req.CourseCode))
	req.Professor = strings.TrimSpace(req.Professor)
	if req.CourseCode == "" || req.Professor == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Course code and professor are required"))
	}
	if req.Rating < 1 || req.Rating > 5 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Rating must be between 1 and 5"))
	}
	if len(req.Content) > maxReviewLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content too long"))
	}

	review := &models.CourseReview{
		School:     currentSchool(c),
		CourseCode: req.CourseCode,
		Professor:  req.Professor,
		Rating:     req.Rating,
		Content:    req.Content,
		UserID:     currentUserID(c),
	}
	if err := s.reviewRepo.Create(c.Context(), review); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// GetCourseReviews handles GET /api/:school/reviews/course/:code
func (s *Server) GetCourseReviews(c *fiber.Ctx) error {
	code := strings.ToUpper(strings.TrimSpace(c.Params("code")))
	if code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Course code is required"))
	}
	p := parsePagination(c, 20)

	reviews, err := s.reviewRepo.ListByCourse(c.Context(), currentSchool(c), code, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	average, err := s.reviewRepo.AverageRating(c.Context(), currentSchool(c), code)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"course_code":    code,
		"average_rating": average,
		"reviews":        reviews,
	})
}

// DeleteReview handles DELETE /api/:school/reviews/:id
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	review, err := s.reviewRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondRepoError(c, err, "review", id)
	}
	if review.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("review", id))
	}
	if review.UserID != currentUserID(c) {
		return models.RespondError(c, models.NewForbiddenError("Only the author can delete this review"))
	}

	if err := s.reviewRepo.Delete(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
