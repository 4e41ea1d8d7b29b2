package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"trygo/models"
)

// PublishDateGuard enforces the one-item-per-publish-date rule within a
// (projectId, hypothesisId) scope. The store itself permits duplicates, so
// this pre-condition check is the sole enforcement point and must run before
// a publish date is committed.
type PublishDateGuard struct {
	DB *gorm.DB
}

// NewPublishDateGuard creates a new guard.
func NewPublishDateGuard(db *gorm.DB) *PublishDateGuard {
	return &PublishDateGuard{DB: db}
}

// AssertAvailable succeeds trivially when publishDate is nil or the caller
// overrides; otherwise it fails with a PublishDateConflictError naming the
// item that already holds the date. excludeID covers the self-update case.
func (g *PublishDateGuard) AssertAvailable(ctx context.Context, projectID, hypothesisID string, publishDate *time.Time, excludeID string, allowOverride bool) error {
	if publishDate == nil || allowOverride {
		return nil
	}

	query := g.DB.WithContext(ctx).
		Where("project_id = ? AND hypothesis_id = ?", projectID, hypothesisID).
		Where("publish_date = ?", *publishDate)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var holder models.ContentItem
	err := query.First(&holder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return &models.PublishDateConflictError{ConflictingItemID: holder.ID, PublishDate: *publishDate}
}
