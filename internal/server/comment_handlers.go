package server

import (
	"strings"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxCommentLength = 5000

// CreateComment handles POST /api/:school/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), postID)
	if err != nil {
		return respondRepoError(c, err, "post", postID)
	}
	if post.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("post", postID))
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content is required"))
	}
	if len(req.Content) > maxCommentLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content too long"))
	}

	comment := &models.Comment{
		Content: req.Content,
		PostID:  postID,
		UserID:  currentUserID(c),
	}
	if err := s.commentRepo.Create(c.Context(), comment); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/:school/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), postID)
	if err != nil {
		return respondRepoError(c, err, "post", postID)
	}
	if post.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("post", postID))
	}

	comments, err := s.commentRepo.ListByPost(c.Context(), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	// Attach the caller's ledger values in one batch.
	if len(comments) > 0 {
		ids := make([]uint, 0, len(comments))
		for _, cm := range comments {
			ids = append(ids, cm.ID)
		}
		votes, err := s.voteService.GetVotesForTargets(c.Context(), currentUserID(c), models.TargetComment, ids)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		byID := make(map[uint]models.TargetVotes, len(votes))
		for _, v := range votes {
			byID[v.TargetID] = v
		}
		for _, cm := range comments {
			cm.MyVote = byID[cm.ID].MyVote
		}
	}

	return c.JSON(fiber.Map{"comments": comments})
}

// DeleteComment handles DELETE /api/:school/posts/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	comment, err := s.commentRepo.GetByID(c.Context(), commentID)
	if err != nil {
		return respondRepoError(c, err, "comment", commentID)
	}
	if comment.PostID != postID {
		return models.RespondError(c, models.NewNotFoundError("comment", commentID))
	}
	if comment.UserID != currentUserID(c) {
		return models.RespondError(c, models.NewForbiddenError("Only the author can delete this comment"))
	}

	if err := s.commentRepo.Delete(c.Context(), commentID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
