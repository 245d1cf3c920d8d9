package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"no-time-buddy/internal/model"
)

// MissionRepository runs the mission statements. Every call is scoped to its
// context and holds no connection between calls.
type MissionRepository struct {
	db *gorm.DB
}

func NewMissionRepository(db *gorm.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

func (r *MissionRepository) Create(ctx context.Context, mission *model.Mission) error {
	if err := r.db.WithContext(ctx).Create(mission).Error; err != nil {
		return fmt.Errorf("create mission: %w", err)
	}
	return nil
}

// ListActive returns every mission that was not canceled, earliest deadline first.
func (r *MissionRepository) ListActive(ctx context.Context) ([]model.Mission, error) {
	var missions []model.Mission
	if err := r.db.WithContext(ctx).Where("IsDeleted = ?", false).
		Order("MissionDeadline ASC, MissionId ASC").
		Find(&missions).Error; err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	return missions, nil
}

// FindByID loads a mission whether or not it was canceled.
func (r *MissionRepository) FindByID(ctx context.Context, id uint) (*model.Mission, error) {
	var mission model.Mission
	if err := r.db.WithContext(ctx).Where("MissionId = ?", id).First(&mission).Error; err != nil {
		return nil, err
	}
	return &mission, nil
}

// Cancel marks an active mission deleted. Unknown and already canceled ids
// are left alone and reported as zero affected rows.
func (r *MissionRepository) Cancel(ctx context.Context, id uint, actorID int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Mission{}).
		Where("MissionId = ? AND IsDeleted = ?", id, false).
		Updates(map[string]interface{}{
			"IsDeleted":  true,
			"UpdateId":   actorID,
			"UpdateTime": at,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("cancel mission: %w", res.Error)
	}
	return res.RowsAffected, nil
}
