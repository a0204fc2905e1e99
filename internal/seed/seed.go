// Package seed provides database seeding utilities for development and
// testing. These helpers are not meant to run in production.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/repository"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	Schools      []string
	UsersPerTier int
	PostsPerUser int
	Term         string
	ShouldClean  bool
}

// DefaultOptions returns a small but representative data set.
func DefaultOptions() Options {
	return Options{
		Schools:      []string{"nyu", "columbia", "boston"},
		UsersPerTier: 8,
		PostsPerUser: 3,
		Term:         currentTerm(),
	}
}

var courseCodes = []string{
	"CS-UY1114", "CS-UY2124", "MA-UY1024", "MA-UY2034",
	"PH-UX1013", "EC-UB1001", "CAMS-UA101", "EXPOS-UA1",
}

// Run populates the database with fake users, posts, comments, votes,
// schedules, listings and reviews. Votes are cast through the vote service
// so ledger rows, cached counts and reputation stay consistent.
func Run(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	if opts.ShouldClean {
		if err := clean(db); err != nil {
			return fmt.Errorf("cleaning existing data: %w", err)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("Str0ng&Secure11"), bcrypt.MinCost)
	if err != nil {
		return err
	}

	votes := service.NewVoteService(db, repository.NewVoteRepository(db))
	availRepo := repository.NewAvailabilityRepository(db)

	for _, school := range opts.Schools {
		var users []*models.User
		for i := 0; i < opts.UsersPerTier; i++ {
			nickname := strings.ToLower(gofakeit.Username())
			user := &models.User{
				Nickname: fmt.Sprintf("%s%d", nickname, rng.Intn(1000)),
				Email:    fmt.Sprintf("%s.%d@%s.edu", nickname, rng.Intn(100000), school),
				Password: string(hashed),
				School:   school,
			}
			if err := db.Create(user).Error; err != nil {
				return fmt.Errorf("creating user: %w", err)
			}
			users = append(users, user)
		}

		var posts []*models.Post
		for _, user := range users {
			for i := 0; i < opts.PostsPerUser; i++ {
				board := models.BoardFree
				if rng.Intn(2) == 0 {
					board = models.BoardAcademic
				}
				post := &models.Post{
					Title:     gofakeit.Sentence(5),
					Content:   gofakeit.Paragraph(1, 3, 6, "\n"),
					Board:     board,
					School:    school,
					UserID:    user.ID,
					CreatedAt: pastTime(rng, 30),
				}
				if err := db.Create(post).Error; err != nil {
					return fmt.Errorf("creating post: %w", err)
				}
				posts = append(posts, post)

				for c := 0; c < rng.Intn(4); c++ {
					comment := &models.Comment{
						Content: gofakeit.Sentence(12),
						PostID:  post.ID,
						UserID:  users[rng.Intn(len(users))].ID,
					}
					if err := db.Create(comment).Error; err != nil {
						return fmt.Errorf("creating comment: %w", err)
					}
				}
			}
		}

		// Votes go through the real pipeline so hot scores and tiers are live.
		for _, post := range posts {
			for _, user := range users {
				if user.ID == post.UserID || rng.Intn(3) == 0 {
					continue
				}
				value := 1
				if rng.Intn(5) == 0 {
					value = -1
				}
				_, err := votes.CastVote(ctx, service.CastVoteInput{
					VoterID:    user.ID,
					TargetType: models.TargetPost,
					TargetID:   post.ID,
					Value:      value,
				})
				if err != nil {
					return fmt.Errorf("casting seed vote: %w", err)
				}
			}
		}

		for _, user := range users {
			doc := &models.Availability{
				School: school,
				Email:  user.Email,
				Term:   opts.Term,
				Slots:  randomBusyWeek(rng),
			}
			if err := availRepo.Upsert(ctx, doc); err != nil {
				return fmt.Errorf("seeding schedule: %w", err)
			}

			listing := &models.Listing{
				Title:       gofakeit.ProductName(),
				Description: gofakeit.Sentence(10),
				Price:       5 + rng.Intn(200),
				Status:      models.ListingActive,
				School:      school,
				SellerID:    user.ID,
			}
			if err := db.Create(listing).Error; err != nil {
				return fmt.Errorf("seeding listing: %w", err)
			}

			review := &models.CourseReview{
				School:     school,
				CourseCode: courseCodes[rng.Intn(len(courseCodes))],
				Professor:  gofakeit.Name(),
				Rating:     1 + rng.Intn(5),
				Content:    gofakeit.Paragraph(1, 2, 8, " "),
				UserID:     user.ID,
			}
			if err := db.Create(review).Error; err != nil {
				return fmt.Errorf("seeding review: %w", err)
			}
		}

		log.Printf("Seeded school %q: %d users, %d posts", school, len(users), len(posts))
	}

	return nil
}

func clean(db *gorm.DB) error {
	// Delete in dependency order. Unscoped so soft-deleted rows go too.
	for _, model := range []interface{}{
		&models.Message{}, &models.Conversation{}, &models.Vote{},
		&models.Comment{}, &models.Post{}, &models.CourseReview{},
		&models.BusySlot{}, &models.Availability{}, &models.Listing{},
		&models.User{},
	} {
		if err := db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// randomBusyWeek builds a plausible class schedule: a few busy blocks on
// weekdays aligned to the half-hour.
func randomBusyWeek(rng *rand.Rand) []models.BusySlot {
	var slots []models.BusySlot
	for _, day := range models.Weekdays[:5] {
		for b := 0; b < 1+rng.Intn(3); b++ {
			startHalfHour := 16 + rng.Intn(20) // between 08:00 and 18:00
			length := 2 + rng.Intn(3)          // 1h to 2h
			startMin := startHalfHour * 30
			endMin := (startHalfHour + length) * 30
			slots = append(slots, models.BusySlot{
				Day:   day,
				Start: fmt.Sprintf("%02d:%02d", startMin/60, startMin%60),
				End:   fmt.Sprintf("%02d:%02d", endMin/60, endMin%60),
			})
		}
	}
	return slots
}

func pastTime(rng *rand.Rand, maxDays int) time.Time {
	back := time.Duration(rng.Intn(maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

func currentTerm() string {
	now := time.Now()
	season := "spring"
	if now.Month() >= time.July {
		season = "fall"
	}
	return fmt.Sprintf("%d-%s", now.Year(), season)
}
