package services

import (
	"sort"

	"github.com/feedbackforge/backend/internal/models"
)

// CategoryStats holds derived per-category performance. Never persisted;
// recomputed on demand so it cannot go stale.
type CategoryStats struct {
	Category         string  `json:"category"`
	Count            int     `json:"count"`
	RatedCount       int     `json:"rated_count"`
	MeanRating       float64 `json:"mean_rating"`
	RatedFraction    float64 `json:"rated_fraction"`
	Trend            float64 `json:"trend"`
	NeedsImprovement bool    `json:"needs_improvement"`
}

// AggregatorOptions tune the needs-improvement flag.
type AggregatorOptions struct {
	// MinSampleSize is the rated-record count a category needs before it
	// can be flagged. Guards against noisy small samples.
	MinSampleSize int
	// RatingThreshold flags a category when its mean rating falls below.
	RatingThreshold float64
}

// DefaultAggregatorOptions returns the standard flagging thresholds.
func DefaultAggregatorOptions() AggregatorOptions {
	return AggregatorOptions{MinSampleSize: 5, RatingThreshold: 3.0}
}

// ComputeStats groups records by category and derives per-category stats.
// Unrated records contribute to Count but never to MeanRating, so the mean
// is not biased toward zero. The trend is the mean rating of the later half
// of a category's rated records minus the earlier half (input order, which
// callers supply timestamp-ascending); 0 when either half is empty.
//
// A category containing an out-of-range rating is dropped from the result
// and reported in the second return value, so one bad category does not
// fail the whole aggregation.
func ComputeStats(records []models.InteractionRecord, opts AggregatorOptions) (map[string]CategoryStats, []string) {
	type bucket struct {
		count   int
		ratings []int
		invalid bool
	}
	buckets := make(map[string]*bucket)

	for i := range records {
		rec := &records[i]
		b := buckets[rec.Category]
		if b == nil {
			b = &bucket{}
			buckets[rec.Category] = b
		}
		b.count++
		if rec.Rating == nil {
			continue
		}
		if *rec.Rating < 1 || *rec.Rating > 5 {
			b.invalid = true
			continue
		}
		b.ratings = append(b.ratings, *rec.Rating)
	}

	stats := make(map[string]CategoryStats, len(buckets))
	var skipped []string
	for category, b := range buckets {
		if b.invalid {
			skipped = append(skipped, category)
			continue
		}

		s := CategoryStats{
			Category:   category,
			Count:      b.count,
			RatedCount: len(b.ratings),
		}
		if s.Count > 0 {
			s.RatedFraction = float64(s.RatedCount) / float64(s.Count)
		}
		if s.RatedCount > 0 {
			s.MeanRating = mean(b.ratings)
			s.Trend = trend(b.ratings)
		}
		s.NeedsImprovement = s.RatedCount >= opts.MinSampleSize && s.MeanRating < opts.RatingThreshold

		stats[category] = s
	}

	sort.Strings(skipped)
	return stats, skipped
}

// FlaggedCategories returns the sorted names of categories needing
// improvement.
func FlaggedCategories(stats map[string]CategoryStats) []string {
	var flagged []string
	for name, s := range stats {
		if s.NeedsImprovement {
			flagged = append(flagged, name)
		}
	}
	sort.Strings(flagged)
	return flagged
}

func mean(ratings []int) float64 {
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

func trend(ratings []int) float64 {
	half := len(ratings) / 2
	if half == 0 {
		return 0
	}
	return mean(ratings[half:]) - mean(ratings[:half])
}
