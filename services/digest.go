package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trygo/models"
)

// DigestSummary is the daily activity roll-up.
type DigestSummary struct {
	IdeasCreated   int64 `json:"ideasCreated"`
	ItemsGenerated int64 `json:"itemsGenerated"`
	PostsPublished int64 `json:"postsPublished"`
	PendingRecords int64 `json:"pendingRecords"`
}

// DigestService produces the daily pipeline digest.
type DigestService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewDigestService creates a new DigestService.
func NewDigestService(db *gorm.DB, logger *zap.Logger) *DigestService {
	return &DigestService{DB: db, Logger: logger}
}

// Run counts pipeline activity of the last 24 hours and logs the summary.
func (s *DigestService) Run(ctx context.Context) (*DigestSummary, error) {
	since := time.Now().Add(-24 * time.Hour)
	summary := &DigestSummary{}

	if err := s.DB.WithContext(ctx).Model(&models.BacklogIdea{}).
		Where("created_at > ?", since).Count(&summary.IdeasCreated).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.ContentItem{}).
		Where("created_at > ?", since).Count(&summary.ItemsGenerated).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.PublishRecord{}).
		Where("published_at > ?", since).Count(&summary.PostsPublished).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.PublishRecord{}).
		Where("synced = ?", false).Count(&summary.PendingRecords).Error; err != nil {
		return nil, err
	}

	s.Logger.Info("Daily pipeline digest",
		zap.Int64("ideas_created", summary.IdeasCreated),
		zap.Int64("items_generated", summary.ItemsGenerated),
		zap.Int64("posts_published", summary.PostsPublished),
		zap.Int64("pending_publish_records", summary.PendingRecords))
	return summary, nil
}
