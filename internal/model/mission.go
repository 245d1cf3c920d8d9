package model

import "time"

// Mission is a single to-do item with a deadline. Missions are never removed,
// canceling one only flips IsDeleted.
type Mission struct {
	ID         uint      `gorm:"column:MissionId;primaryKey;autoIncrement"`
	UserID     int64     `gorm:"column:UserId"`
	Title      string    `gorm:"column:MissionTitle"`
	Deadline   time.Time `gorm:"column:MissionDeadline"`
	IsDeleted  bool      `gorm:"column:IsDeleted"`
	CreateID   int64     `gorm:"column:CreateId"`
	CreateTime time.Time `gorm:"column:CreateTime"`
	UpdateID   int64     `gorm:"column:UpdateId"`
	UpdateTime time.Time `gorm:"column:UpdateTime"`
}

func (Mission) TableName() string {
	return "Mission"
}
