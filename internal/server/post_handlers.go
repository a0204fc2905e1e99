package server

import (
	"strings"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	maxPostTitleLength   = 200
	maxPostContentLength = 20000
)

// CreatePost handles POST /api/:school/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Board   string `json:"board"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title and content are required"))
	}
	if len(req.Title) > maxPostTitleLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title too long"))
	}
	if len(req.Content) > maxPostContentLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content too long"))
	}
	if req.Board == "" {
		req.Board = models.BoardFree
	}
	if !models.ValidBoard(req.Board) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown board"))
	}

	post := &models.Post{
		Title:   req.Title,
		Content: req.Content,
		Board:   req.Board,
		School:  currentSchool(c),
		UserID:  currentUserID(c),
	}
	if err := s.postRepo.Create(c.Context(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/:school/posts?board=free&sort=hot
func (s *Server) GetPosts(c *fiber.Ctx) error {
	board := c.Query("board", models.BoardFree)
	if !models.ValidBoard(board) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown board"))
	}
	sort := c.Query("sort", "new")
	p := parsePagination(c, 20)

	posts, err := s.postRepo.List(c.Context(), currentSchool(c), board, sort, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	if err := s.attachMyVotes(c, posts); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"posts":  posts,
		"limit":  p.Limit,
		"offset": p.Offset,
	})
}

// GetPost handles GET /api/:school/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondRepoError(c, err, "post", id)
	}
	if post.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("post", id))
	}

	if err := s.attachMyVotes(c, []*models.Post{post}); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(post)
}

// UpdatePost handles PUT /api/:school/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondRepoError(c, err, "post", id)
	}
	if post.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("post", id))
	}
	if post.UserID != currentUserID(c) {
		return models.RespondError(c, models.NewForbiddenError("Only the author can edit this post"))
	}

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len(title) > maxPostTitleLength {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid title"))
		}
		post.Title = title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" || len(content) > maxPostContentLength {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid content"))
		}
		post.Content = content
	}

	if err := s.postRepo.Update(c.Context(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/:school/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondRepoError(c, err, "post", id)
	}
	if post.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("post", id))
	}
	if post.UserID != currentUserID(c) {
		return models.RespondError(c, models.NewForbiddenError("Only the author can delete this post"))
	}

	if err := s.postRepo.Delete(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// attachMyVotes populates each post's MyVote field with the caller's ledger
// value, in one batch read.
func (s *Server) attachMyVotes(c *fiber.Ctx, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	votes, err := s.voteService.GetVotesForTargets(c.Context(), currentUserID(c), models.TargetPost, ids)
	if err != nil {
		return err
	}
	byID := make(map[uint]models.TargetVotes, len(votes))
	for _, v := range votes {
		byID[v.TargetID] = v
	}
	for _, p := range posts {
		p.MyVote = byID[p.ID].MyVote
	}
	return nil
}
