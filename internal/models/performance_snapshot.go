package models

import "time"

// PerformanceSnapshot captures aggregate feedback health at the end of each
// completed improvement cycle, so rating trends survive record deletion.
type PerformanceSnapshot struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CycleID           string    `gorm:"index;size:36" json:"cycle_id"`
	TotalInteractions int64     `json:"total_interactions"`
	TotalFeedback     int64     `json:"total_feedback"`
	AverageRating     float64   `json:"average_rating"`
	FlaggedCategories int       `json:"flagged_categories"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

func (PerformanceSnapshot) TableName() string { return "performance_snapshots" }
