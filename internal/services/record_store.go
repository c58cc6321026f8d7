package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/feedbackforge/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordStore is the durable, append-only store of interaction records.
// It is the single source of truth for the pipeline; records are never
// mutated except to attach feedback exactly once.
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

// AppendInput is one completed chat turn supplied by the chat layer.
type AppendInput struct {
	Category string `json:"category" binding:"required"`
	Prompt   string `json:"prompt" binding:"required"`
	Response string `json:"response" binding:"required"`
	// Timestamp defaults to now (UTC) when zero.
	Timestamp time.Time `json:"timestamp"`
}

// FeedbackInput is one user rating action for a stored record.
type FeedbackInput struct {
	Rating            int    `json:"rating" binding:"required"`
	AccuracyRating    *int   `json:"accuracy_rating"`
	HelpfulnessRating *int   `json:"helpfulness_rating"`
	ClarityRating     *int   `json:"clarity_rating"`
	FeedbackText      string `json:"feedback_text"`
	Suggestion        string `json:"suggestion"`
}

// QueryFilter selects records. Zero values mean "no constraint".
type QueryFilter struct {
	Category   string
	MinRating  int
	MaxRating  int
	RatedOnly  bool
	Approved   *bool
	Since      time.Time
	Until      time.Time
	Descending bool
	Limit      int
}

// Append validates and stores a new interaction record, returning it with
// the generated id.
func (s *RecordStore) Append(in AppendInput) (*models.InteractionRecord, error) {
	if strings.TrimSpace(in.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if strings.TrimSpace(in.Prompt) == "" || strings.TrimSpace(in.Response) == "" {
		return nil, fmt.Errorf("%w: prompt and response are required", ErrValidation)
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	rec := &models.InteractionRecord{
		ID:        uuid.NewString(),
		Timestamp: ts.UTC(),
		Category:  in.Category,
		Prompt:    in.Prompt,
		Response:  in.Response,
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("append record: %w", err)
	}
	return rec, nil
}

// AttachFeedback attaches a rating to a record. Ratings are write-once:
// a second submission fails with ErrAlreadyRated and leaves the first
// feedback untouched. The update is a single atomic statement, safe under
// concurrent submissions for the same id.
func (s *RecordStore) AttachFeedback(id string, in FeedbackInput) error {
	if in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	for _, sub := range []*int{in.AccuracyRating, in.HelpfulnessRating, in.ClarityRating} {
		if sub != nil && (*sub < 1 || *sub > 5) {
			return fmt.Errorf("%w: sub-ratings must be between 1 and 5", ErrValidation)
		}
	}

	now := time.Now().UTC()
	res := s.db.Model(&models.InteractionRecord{}).
		Where("id = ? AND rating IS NULL", id).
		Updates(map[string]interface{}{
			"rating":             in.Rating,
			"accuracy_rating":    in.AccuracyRating,
			"helpfulness_rating": in.HelpfulnessRating,
			"clarity_rating":     in.ClarityRating,
			"feedback_text":      in.FeedbackText,
			"suggestion":         in.Suggestion,
			"rated_at":           now,
		})
	if res.Error != nil {
		return fmt.Errorf("attach feedback to %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&models.InteractionRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("attach feedback to %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("record %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("record %s: %w", id, ErrAlreadyRated)
	}
	return nil
}

// Get returns a single record by id.
func (s *RecordStore) Get(id string) (*models.InteractionRecord, error) {
	var rec models.InteractionRecord
	if err := s.db.First(&rec, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return &rec, nil
}

// Query returns a snapshot of matching records. Ordering is timestamp
// ascending unless Descending is set; re-running the query restarts
// iteration without side effects.
func (s *RecordStore) Query(f QueryFilter) ([]models.InteractionRecord, error) {
	q := s.db.Model(&models.InteractionRecord{})

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinRating > 0 {
		q = q.Where("rating >= ?", f.MinRating)
	}
	if f.MaxRating > 0 {
		q = q.Where("rating <= ?", f.MaxRating)
	}
	if f.RatedOnly {
		q = q.Where("rating IS NOT NULL")
	}
	if f.Approved != nil {
		q = q.Where("approved = ?", *f.Approved)
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		q = q.Where("timestamp <= ?", f.Until)
	}

	order := "timestamp ASC"
	if f.Descending {
		order = "timestamp DESC"
	}
	q = q.Order(order)

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var records []models.InteractionRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return records, nil
}

// Approve marks a record as approved for approved-only exports.
func (s *RecordStore) Approve(id string) error {
	res := s.db.Model(&models.InteractionRecord{}).
		Where("id = ?", id).
		Update("approved", true)
	if res.Error != nil {
		return fmt.Errorf("approve record %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a record permanently. Retention and GDPR deletion are
// driven externally; aggregates are always recomputed so nothing else
// needs invalidation.
func (s *RecordStore) Delete(id string) error {
	res := s.db.Delete(&models.InteractionRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete record %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return nil
}
