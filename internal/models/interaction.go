package models

import "time"

// InteractionRecord is one logged chat turn plus optional user feedback.
// Prompt, response, category and timestamp are immutable after creation.
// Feedback fields are attached exactly once; later attempts are rejected
// so the audit trail stays intact.
type InteractionRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
	Category  string    `gorm:"size:100;index;not null" json:"category"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	Response  string    `gorm:"type:text;not null" json:"response"`

	// Feedback, nil/empty until a user rates the turn. Rating is the
	// overall 1-5 score; the sub-ratings are optional refinements.
	Rating            *int       `json:"rating"`
	AccuracyRating    *int       `json:"accuracy_rating"`
	HelpfulnessRating *int       `json:"helpfulness_rating"`
	ClarityRating     *int       `json:"clarity_rating"`
	FeedbackText      string     `gorm:"type:text" json:"feedback_text"`
	Suggestion        string     `gorm:"type:text" json:"suggestion"`
	RatedAt           *time.Time `json:"rated_at"`

	// Approved is set by an external moderation action and gates
	// approved-only exports.
	Approved bool `gorm:"default:false" json:"approved"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InteractionRecord) TableName() string { return "interactions" }

// Rated reports whether feedback has been attached.
func (r *InteractionRecord) Rated() bool { return r.Rating != nil }
