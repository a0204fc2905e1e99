package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/observability"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/repository"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/schedule"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/validation"

	"gorm.io/gorm"
)

// ScheduleService stores per-term busy schedules and computes the free
// windows a group of members shares.
type ScheduleService struct {
	userRepo  repository.UserRepository
	availRepo repository.AvailabilityRepository
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(userRepo repository.UserRepository, availRepo repository.AvailabilityRepository) *ScheduleService {
	return &ScheduleService{userRepo: userRepo, availRepo: availRepo}
}

// SaveSchedule replaces the member's busy slots for one term. The previous
// slot list is discarded wholesale; there is no per-slot merge.
func (s *ScheduleService) SaveSchedule(ctx context.Context, school, email, term string, slots []models.BusySlot) (*models.Availability, error) {
	if school == "" || email == "" || term == "" {
		return nil, models.NewValidationError("school, email and term are required")
	}
	if err := validation.ValidateBusySlots(slots); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	doc := &models.Availability{
		School: school,
		Email:  strings.ToLower(email),
		Term:   term,
		Slots:  slots,
	}
	if err := s.availRepo.Upsert(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetSchedule returns the member's saved schedule for one term.
func (s *ScheduleService) GetSchedule(ctx context.Context, school, email, term string) (*models.Availability, error) {
	doc, err := s.availRepo.Get(ctx, school, strings.ToLower(email), term)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("schedule", email)
		}
		return nil, err
	}
	return doc, nil
}

// MatchInput describes one group availability query.
type MatchInput struct {
	School     string
	Term       string
	Members    []string // member emails
	MinMinutes int
}

// ComputeCommonFreeWindows merges every member's busy grid and returns the
// remaining free spans of at least MinMinutes. Every member must resolve to
// an account in the query's school; unknown emails and members registered
// under another school fail the whole request. Known members with no saved
// schedule for the term contribute no busy time and come back in Missing so
// the caller can see how trustworthy the result is.
func (s *ScheduleService) ComputeCommonFreeWindows(ctx context.Context, in MatchInput) (*models.MatchResult, error) {
	if in.School == "" || in.Term == "" {
		return nil, models.NewValidationError("school and term are required")
	}
	members := normalizeMembers(in.Members)
	if len(members) == 0 {
		return nil, models.NewValidationError("at least one member is required")
	}

	if err := s.rejectUnresolvedMembers(ctx, in.School, members); err != nil {
		return nil, err
	}

	docs, err := s.availRepo.GetForMembers(ctx, in.School, members, in.Term)
	if err != nil {
		return nil, err
	}

	var merged schedule.Grid
	have := make(map[string]bool, len(docs))
	for _, doc := range docs {
		have[doc.Email] = true
		var g schedule.Grid
		for _, slot := range doc.Slots {
			if err := g.MarkBusy(slot.Day, slot.Start, slot.End); err != nil {
				// Stored slots are validated on save; a parse failure here
				// means the row was corrupted outside the application.
				return nil, models.NewInternalError(fmt.Errorf("stored slot for %s: %w", doc.Email, err))
			}
		}
		merged.Or(&g)
	}

	missing := make([]string, 0)
	for _, m := range members {
		if !have[m] {
			missing = append(missing, m)
		}
	}

	windows := merged.FreeWindows(in.MinMinutes)
	result := &models.MatchResult{
		Windows: make([]models.FreeWindow, 0, len(windows)),
		Members: members,
		Missing: missing,
	}
	for _, w := range windows {
		result.Windows = append(result.Windows, models.FreeWindow{Day: w.Day, Start: w.Start, End: w.End})
	}

	observability.MatchRequests.Inc()
	return result, nil
}

// rejectUnresolvedMembers fails the match when any member email has no
// account in the query's school, whether it belongs to another school or to
// nobody at all. All offenders are named at once. The missing-schedule report
// is reserved for resolved members with no saved document.
func (s *ScheduleService) rejectUnresolvedMembers(ctx context.Context, school string, members []string) error {
	users, err := s.userRepo.GetByEmails(ctx, members)
	if err != nil {
		return err
	}
	resolved := make(map[string]string, len(users))
	for _, u := range users {
		resolved[strings.ToLower(u.Email)] = u.School
	}

	var offenders []string
	for _, m := range members {
		if resolved[m] != school {
			offenders = append(offenders, m)
		}
	}
	if len(offenders) > 0 {
		sort.Strings(offenders)
		return models.NewValidationError(fmt.Sprintf(
			"members not registered under school %q: %s", school, strings.Join(offenders, ", ")))
	}
	return nil
}

// normalizeMembers lowercases, trims and dedupes member emails, preserving
// first-seen order.
func normalizeMembers(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
