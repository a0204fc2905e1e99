package server

import (
	"strings"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	maxListingTitleLength = 200
	maxListingPrice       = 1_000_000
	maxMessageLength      = 2000
)

// CreateListing handles POST /api/:school/market
func (s *Server) CreateListing(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Price       int    `json:"price"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || len(req.Title) > maxListingTitleLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid title"))
	}
	if req.Price < 0 || req.Price > maxListingPrice {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid price"))
	}

	listing := &models.Listing{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Status:      models.ListingActive,
		School:      currentSchool(c),
		SellerID:    currentUserID(c),
	}
	if err := s.listingRepo.Create(c.Context(), listing); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// GetListings handles GET /api/:school/market?status=active
func (s *Server) GetListings(c *fiber.Ctx) error {
	status := c.Query("status", models.ListingActive)
	if status != models.ListingActive && status != models.ListingSold && status != "all" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown status"))
	}
	if status == "all" {
		status = ""
	}
	p := parsePagination(c, 20)

	listings, err := s.listingRepo.List(c.Context(), currentSchool(c), status, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{
		"listings": listings,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})
}

// GetListing handles GET /api/:school/market/:id
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondRepoError(c, err, "listing", id)
	}
	if listing.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("listing", id))
	}
	return c.JSON(listing)
}

// UpdateListing handles PUT /api/:school/market/:id
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondRepoError(c, err, "listing", id)
	}
	if listing.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("listing", id))
	}
	if listing.SellerID != currentUserID(c) {
		return models.RespondError(c, models.NewForbiddenError("Only the seller can edit this listing"))
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Price       *int    `json:"price"`
		Status      *string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len(title) > maxListingTitleLength {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid title"))
		}
		listing.Title = title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 || *req.Price > maxListingPrice {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid price"))
		}
		listing.Price = *req.Price
	}
	if req.Status != nil {
		if *req.Status != models.ListingActive && *req.Status != models.ListingSold {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unknown status"))
		}
		listing.Status = *req.Status
	}

	if err := s.listingRepo.Update(c.Context(), listing); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(listing)
}

// DeleteListing handles DELETE /api/:school/market/:id
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondRepoError(c, err, "listing", id)
	}
	if listing.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("listing", id))
	}
	if listing.SellerID != currentUserID(c) {
		return models.RespondError(c, models.NewForbiddenError("Only the seller can delete this listing"))
	}

	if err := s.listingRepo.Delete(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// StartConversation handles POST /api/:school/conversations
//
// Idempotent: a buyer gets at most one thread per listing.
func (s *Server) StartConversation(c *fiber.Ctx) error {
	var req struct {
		ListingID uint `json:"listing_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.ListingID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("listing_id is required"))
	}

	listing, err := s.listingRepo.GetByID(c.Context(), req.ListingID)
	if err != nil {
		return respondRepoError(c, err, "listing", req.ListingID)
	}
	if listing.School != currentSchool(c) {
		return models.RespondError(c, models.NewNotFoundError("listing", req.ListingID))
	}

	buyerID := currentUserID(c)
	if buyerID == listing.SellerID {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Sellers cannot open a conversation with themselves"))
	}

	conv, err := s.conversationRepo.GetOrCreate(c.Context(), listing.ID, buyerID, listing.SellerID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

// GetConversations handles GET /api/:school/conversations
func (s *Server) GetConversations(c *fiber.Ctx) error {
	convs, err := s.conversationRepo.ListForUser(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

// GetMessages handles GET /api/:school/conversations/:id/messages
func (s *Server) GetMessages(c *fiber.Ctx) error {
	conv, ok := s.loadParticipantConversation(c)
	if !ok {
		return nil
	}

	p := parsePagination(c, 50)
	messages, err := s.conversationRepo.ListMessages(c.Context(), conv.ID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// SendMessage handles POST /api/:school/conversations/:id/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	conv, ok := s.loadParticipantConversation(c)
	if !ok {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" || len(req.Content) > maxMessageLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid message content"))
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       currentUserID(c),
		Content:        req.Content,
	}
	if err := s.conversationRepo.CreateMessage(c.Context(), msg); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// MarkConversationRead handles POST /api/:school/conversations/:id/read
func (s *Server) MarkConversationRead(c *fiber.Ctx) error {
	conv, ok := s.loadParticipantConversation(c)
	if !ok {
		return nil
	}

	if err := s.conversationRepo.MarkRead(c.Context(), conv.ID, currentUserID(c)); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// loadParticipantConversation resolves the :id conversation and enforces that
// the caller is its buyer or seller. On failure the response is already
// written and ok is false.
func (s *Server) loadParticipantConversation(c *fiber.Ctx) (*models.Conversation, bool) {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil, false
	}

	conv, err := s.conversationRepo.GetByID(c.Context(), id)
	if err != nil {
		_ = respondRepoError(c, err, "conversation", id)
		return nil, false
	}

	userID := currentUserID(c)
	if conv.BuyerID != userID && conv.SellerID != userID {
		_ = models.RespondError(c, models.NewForbiddenError("Not a participant of this conversation"))
		return nil, false
	}
	return conv, true
}
