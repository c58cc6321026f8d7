package services

import (
	"github.com/feedbackforge/backend/internal/models"
)

// QualityTier is the coarse quality bucket derived from a record's rating
// and available feedback text.
type QualityTier string

const (
	TierHigh     QualityTier = "HIGH"
	TierMedium   QualityTier = "MEDIUM"
	TierLow      QualityTier = "LOW"
	TierExcluded QualityTier = "EXCLUDED"
)

// Score returns the normalized quality score used by the threshold gate.
func (t QualityTier) Score() float64 {
	switch t {
	case TierHigh:
		return 1.0
	case TierMedium:
		return 0.6
	case TierLow:
		return 0.3
	default:
		return 0
	}
}

// Classification is the result of classifying one record.
type Classification struct {
	Tier    QualityTier `json:"tier"`
	Include bool        `json:"include"`
}

// TrainingExample is the minimal unit written to an export file, traceable
// back to its source record.
type TrainingExample struct {
	Prompt         string `json:"prompt"`
	Response       string `json:"response"`
	QualityTier    string `json:"quality_tier"`
	Rating         int    `json:"rating"`
	Category       string `json:"category"`
	SourceRecordID string `json:"source_record_id"`
}

// Classifier maps records to quality tiers. The zero value applies the
// default rules with no threshold gate.
type Classifier struct {
	// QualityThreshold, when > 0, only includes tiers whose normalized
	// score meets it (HIGH=1.0, MEDIUM=0.6, LOW=0.3).
	QualityThreshold float64
}

// Classify applies the deterministic tier rules:
//   - unrated records are EXCLUDED
//   - rating >= 4 is HIGH, included as-is
//   - rating == 3 is MEDIUM, included only when grounding text
//     (feedback or suggestion) is present
//   - rating <= 2 is LOW, included only when a suggestion carries the
//     correction signal
func (c Classifier) Classify(rec *models.InteractionRecord) Classification {
	if rec.Rating == nil {
		return Classification{Tier: TierExcluded}
	}

	var cls Classification
	switch r := *rec.Rating; {
	case r >= 4:
		cls = Classification{Tier: TierHigh, Include: true}
	case r == 3:
		cls = Classification{
			Tier:    TierMedium,
			Include: rec.FeedbackText != "" || rec.Suggestion != "",
		}
	default:
		cls = Classification{Tier: TierLow, Include: rec.Suggestion != ""}
	}

	if cls.Include && c.QualityThreshold > 0 && cls.Tier.Score() < c.QualityThreshold {
		cls.Include = false
	}
	return cls
}

// BuildExample converts a record into a training example. The second return
// value is false when the record does not qualify for export.
//
// For LOW records the exported response is the user's suggestion: a poor
// response would teach the wrong pattern, the suggestion is the correction
// target. MEDIUM records use the suggestion when present for the same
// reason, otherwise the original response.
func (c Classifier) BuildExample(rec *models.InteractionRecord) (TrainingExample, bool) {
	cls := c.Classify(rec)
	if !cls.Include {
		return TrainingExample{}, false
	}

	response := rec.Response
	if cls.Tier != TierHigh && rec.Suggestion != "" {
		response = rec.Suggestion
	}

	return TrainingExample{
		Prompt:         rec.Prompt,
		Response:       response,
		QualityTier:    string(cls.Tier),
		Rating:         *rec.Rating,
		Category:       rec.Category,
		SourceRecordID: rec.ID,
	}, true
}
