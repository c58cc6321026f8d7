package models

import "time"

// Improvement run lifecycle states.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ImprovementRun records one improvement cycle: the analyzed window, which
// categories were flagged, what was exported and where it ended up.
type ImprovementRun struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	CycleID           string     `gorm:"uniqueIndex;size:36;not null" json:"cycle_id"`
	WindowDays        int        `json:"window_days"`
	Status            string     `gorm:"size:20;default:running" json:"status"` // running, completed, failed
	FailedStep        string     `gorm:"size:50" json:"failed_step"`
	CategoriesFlagged string     `gorm:"type:text" json:"categories_flagged"` // JSON array
	ExamplesExported  int        `json:"examples_exported"`
	FilePaths         string     `gorm:"type:text" json:"file_paths"` // JSON array
	ErrorMessage      string     `gorm:"type:text" json:"error_message"`
	StartedAt         time.Time  `gorm:"index" json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at"`
}

func (ImprovementRun) TableName() string { return "improvement_runs" }
