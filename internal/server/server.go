// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/cache"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/config"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/database"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/middleware"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/observability"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/repository"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo         repository.UserRepository
	postRepo         repository.PostRepository
	commentRepo      repository.CommentRepository
	listingRepo      repository.ListingRepository
	conversationRepo repository.ConversationRepository
	reviewRepo       repository.ReviewRepository

	voteService     *service.VoteService
	scheduleService *service.ScheduleService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(db)
	availRepo := repository.NewAvailabilityRepository(db)

	server := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   nil,
		userRepo:         userRepo,
		postRepo:         repository.NewPostRepository(db),
		commentRepo:      repository.NewCommentRepository(db),
		listingRepo:      repository.NewListingRepository(db),
		conversationRepo: repository.NewConversationRepository(db),
		reviewRepo:       repository.NewReviewRepository(db),
		voteService:      service.NewVoteService(db, repository.NewVoteRepository(db)),
		scheduleService:  service.NewScheduleService(userRepo, availRepo),
	}
	return server, nil
}

// EnableMetrics registers the Prometheus middleware. Kept out of
// NewServerWithDeps so parallel tests do not fight over collector
// registration.
func (s *Server) EnableMetrics(serviceName string) {
	s.promMiddleware = observability.InitMetrics(serviceName)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	// Distributed tracing span per request
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate request ID, user ID and school
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS before middlewares that can short-circuit (e.g. limiter) so
	// browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "CNAPSS Backend Metrics Dashboard",
	}))

	// Auth routes. Registered before the school-scoped wildcard so the
	// literal segment wins.
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Everything below is partitioned by school. The JWT school claim must
	// match the :school route segment.
	school := api.Group("/:school", middleware.AuthRequired, middleware.SchoolScoped)

	// Board posts
	posts := school.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)

	// Vote ledger
	votes := school.Group("/votes")
	votes.Put("/", middleware.RateLimit(
		s.redis, 60, time.Minute, "cast_vote"), s.CastVote)
	votes.Get("/", s.GetVotes)

	// Schedules and group matching
	schedules := school.Group("/schedules")
	schedules.Put("/:term", s.SaveSchedule)
	schedules.Get("/:term", s.GetSchedule)
	schedules.Post("/:term/match", s.MatchSchedules)

	// Marketplace
	market := school.Group("/market")
	market.Get("/", s.GetListings)
	market.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_listing"), s.CreateListing)
	market.Get("/:id", s.GetListing)
	market.Put("/:id", s.UpdateListing)
	market.Delete("/:id", s.DeleteListing)

	// Buyer/seller conversations
	conversations := school.Group("/conversations")
	conversations.Post("/", s.StartConversation)
	conversations.Get("/", s.GetConversations)
	conversations.Get("/:id/messages", s.GetMessages)
	conversations.Post("/:id/messages", middleware.RateLimit(
		s.redis, 30, time.Minute, "send_message"), s.SendMessage)
	conversations.Post("/:id/read", s.MarkConversationRead)

	// Course reviews
	reviews := school.Group("/reviews")
	reviews.Post("/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "create_review"), s.CreateReview)
	reviews.Get("/course/:code", s.GetCourseReviews)
	reviews.Delete("/:id", s.DeleteReview)

	// Reputation surface
	school.Get("/users/:id/reputation", s.GetUserReputation)
}

// Shutdown releases server-held resources: the database pool and the Redis
// connection.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The app degrades to cache bypass without Redis; readiness only
		// reports it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
