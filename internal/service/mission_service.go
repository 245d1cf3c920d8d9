package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"no-time-buddy/internal/model"
	"no-time-buddy/internal/repository"
)

// MissionInput is what the user filled in on the form.
type MissionInput struct {
	Title    string
	Deadline *time.Time
}

// MissionService validates input and runs mission operations on behalf of an actor.
type MissionService struct {
	repo *repository.MissionRepository
	now  func() time.Time
}

type Option func(*MissionService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MissionService) {
		s.now = now
	}
}

func NewMissionService(repo *repository.MissionRepository, opts ...Option) *MissionService {
	s := &MissionService{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MissionService) Now() time.Time {
	return s.now()
}

// Validate checks input against the current date without touching storage.
func (s *MissionService) Validate(input MissionInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrEmptyTitle
	}
	if input.Deadline == nil || input.Deadline.IsZero() {
		return ErrMissingDeadline
	}
	now := s.now()
	if DateOnly(*input.Deadline, now.Location()).Before(DateOnly(now, now.Location())) {
		return ErrPastDeadline
	}
	return nil
}

func (s *MissionService) CreateMission(ctx context.Context, actorID int64, input MissionInput) (*model.Mission, error) {
	if err := s.Validate(input); err != nil {
		return nil, err
	}

	now := s.now()
	mission := model.Mission{
		UserID:     actorID,
		Title:      strings.TrimSpace(input.Title),
		Deadline:   DateOnly(*input.Deadline, now.Location()),
		IsDeleted:  false,
		CreateID:   actorID,
		CreateTime: now,
		UpdateID:   actorID,
		UpdateTime: now,
	}

	if err := s.repo.Create(ctx, &mission); err != nil {
		return nil, storageError(err)
	}

	return &mission, nil
}

func (s *MissionService) ListActive(ctx context.Context) ([]model.Mission, error) {
	missions, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return missions, nil
}

func (s *MissionService) GetMission(ctx context.Context, id uint) (*model.Mission, error) {
	mission, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		return mission, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrMissionNotFound
	default:
		return nil, storageError(err)
	}
}

// CancelMission soft-deletes a mission and stamps the actor as its last updater.
// Unknown or already canceled ids succeed without changing anything.
func (s *MissionService) CancelMission(ctx context.Context, actorID int64, id uint) error {
	if _, err := s.repo.Cancel(ctx, id, actorID, s.now()); err != nil {
		return storageError(err)
	}
	return nil
}
