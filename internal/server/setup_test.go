package server

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/config"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer builds a full server over an in-memory database with the
// real route table, so tests exercise JWT auth and school scoping end to end.
func newTestServer(t *testing.T) (*fiber.App, *Server, *gorm.DB) {
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
		&models.Availability{},
		&models.BusySlot{},
		&models.Listing{},
		&models.Conversation{},
		&models.Message{},
		&models.CourseReview{},
	))

	cfg := &config.Config{
		JWTSecret: "test-secret-not-for-production",
		Env:       "test",
	}
	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return app, s, db
}

func createTestUser(t *testing.T, db *gorm.DB, nickname, email, school string) *models.User {
	t.Helper()
	user := &models.User{
		Nickname: nickname,
		Email:    email,
		Password: "hashed",
		School:   school,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func authHeader(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID, user.School)
	require.NoError(t, err)
	return "Bearer " + token
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, dest))
}
