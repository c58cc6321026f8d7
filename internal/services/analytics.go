package services

import (
	"fmt"
	"time"

	"github.com/feedbackforge/backend/internal/models"
	"gorm.io/gorm"
)

// AnalyticsService exposes read-only feedback analytics for the dashboard
// collaborator. Everything is computed from the record store on demand.
type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

type AnalyticsOverview struct {
	TotalInteractions int64   `json:"total_interactions"`
	TotalFeedback     int64   `json:"total_feedback"`
	AverageRating     float64 `json:"average_rating"`
	FeedbackRate      float64 `json:"feedback_rate"`
}

type CategoryPerformance struct {
	Category      string  `json:"category"`
	FeedbackCount int64   `json:"feedback_count"`
	AvgRating     float64 `json:"avg_rating"`
}

type DailyTrend struct {
	Date         string  `json:"date"`
	Interactions int64   `json:"interactions"`
	AvgRating    float64 `json:"avg_rating"`
}

type AnalyticsResponse struct {
	Overview            AnalyticsOverview     `json:"overview"`
	RatingDistribution  map[int]int64         `json:"rating_distribution"`
	CategoryPerformance []CategoryPerformance `json:"category_performance"`
	DailyTrends         []DailyTrend          `json:"daily_trends"`
}

// GetAnalytics computes overview stats, the rating distribution, per-category
// performance and daily trends over the last trendDays days.
func (s *AnalyticsService) GetAnalytics(trendDays int) (*AnalyticsResponse, error) {
	if trendDays <= 0 {
		trendDays = 7
	}

	var overview AnalyticsOverview
	if err := s.db.Model(&models.InteractionRecord{}).Count(&overview.TotalInteractions).Error; err != nil {
		return nil, fmt.Errorf("analytics overview: %w", err)
	}
	if err := s.db.Model(&models.InteractionRecord{}).
		Where("rating IS NOT NULL").
		Count(&overview.TotalFeedback).Error; err != nil {
		return nil, fmt.Errorf("analytics overview: %w", err)
	}
	if err := s.db.Model(&models.InteractionRecord{}).
		Where("rating IS NOT NULL").
		Select("COALESCE(AVG(rating), 0)").
		Scan(&overview.AverageRating).Error; err != nil {
		return nil, fmt.Errorf("analytics overview: %w", err)
	}
	if overview.TotalInteractions > 0 {
		overview.FeedbackRate = float64(overview.TotalFeedback) / float64(overview.TotalInteractions)
	}

	type ratingCount struct {
		Rating int
		Count  int64
	}
	var ratingCounts []ratingCount
	if err := s.db.Model(&models.InteractionRecord{}).
		Select("rating, COUNT(*) as count").
		Where("rating IS NOT NULL").
		Group("rating").
		Order("rating").
		Scan(&ratingCounts).Error; err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}
	distribution := make(map[int]int64, 5)
	for _, rc := range ratingCounts {
		distribution[rc.Rating] = rc.Count
	}

	var categories []CategoryPerformance
	if err := s.db.Model(&models.InteractionRecord{}).
		Select("category, COUNT(rating) as feedback_count, COALESCE(AVG(rating), 0) as avg_rating").
		Where("rating IS NOT NULL").
		Group("category").
		Order("avg_rating ASC").
		Scan(&categories).Error; err != nil {
		return nil, fmt.Errorf("category performance: %w", err)
	}

	since := time.Now().UTC().AddDate(0, 0, -trendDays)
	var trends []DailyTrend
	if err := s.db.Model(&models.InteractionRecord{}).
		Select("DATE(timestamp) as date, COUNT(*) as interactions, COALESCE(AVG(rating), 0) as avg_rating").
		Where("timestamp >= ?", since).
		Group("DATE(timestamp)").
		Order("date").
		Scan(&trends).Error; err != nil {
		return nil, fmt.Errorf("daily trends: %w", err)
	}

	return &AnalyticsResponse{
		Overview:            overview,
		RatingDistribution:  distribution,
		CategoryPerformance: categories,
		DailyTrends:         trends,
	}, nil
}

// ListSnapshots returns performance snapshots recorded by past cycles,
// newest first.
func (s *AnalyticsService) ListSnapshots(limit int) ([]models.PerformanceSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	var snaps []models.PerformanceSnapshot
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&snaps).Error; err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}
