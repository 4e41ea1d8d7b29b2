package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trygo/models"
	"trygo/providers"
)

// StatusSyncer keeps idea and content-item statuses in their known
// correspondence. It implements a fixed mapping table, not a generic state
// machine:
//
//	content generated        -> idea scheduled, item draft
//	moved to review          -> idea scheduled, item review
//	marked ready             -> idea scheduled, item ready
//	publish adapter success  -> idea published, item published (one tx)
//	publish adapter failure  -> nothing changes, error surfaced
//	unpublished (admin)      -> idea pending|backlog, item ready
type StatusSyncer struct {
	DB        *gorm.DB
	Logger    *zap.Logger
	Publisher providers.PostPublisher
	Guard     *PublishDateGuard
}

// NewStatusSyncer creates a new synchronizer.
func NewStatusSyncer(db *gorm.DB, logger *zap.Logger, publisher providers.PostPublisher) *StatusSyncer {
	return &StatusSyncer{DB: db, Logger: logger, Publisher: publisher, Guard: NewPublishDateGuard(db)}
}

func (s *StatusSyncer) getItem(ctx context.Context, id string) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "content item", ID: id}
		}
		return nil, err
	}
	return &item, nil
}

// ContentGenerated persists a freshly generated item together with the
// owning idea's move to scheduled. Both writes land in one transaction so
// the stores cannot drift.
func (s *StatusSyncer) ContentGenerated(ctx context.Context, idea *models.BacklogIdea, item *models.ContentItem) error {
	item.Status = models.ContentStatusDraft
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(item).Error; err != nil {
			return err
		}
		return tx.Model(idea).Update("status", models.IdeaStatusScheduled).Error
	})
}

// MoveToReview marks the item as in review; the owning idea stays scheduled.
func (s *StatusSyncer) MoveToReview(ctx context.Context, itemID string) (*models.ContentItem, error) {
	return s.setWritingStatus(ctx, itemID, models.ContentStatusReview)
}

// MarkReady marks the item as ready to publish; the owning idea stays
// scheduled.
func (s *StatusSyncer) MarkReady(ctx context.Context, itemID string) (*models.ContentItem, error) {
	return s.setWritingStatus(ctx, itemID, models.ContentStatusReady)
}

func (s *StatusSyncer) setWritingStatus(ctx context.Context, itemID string, status models.ContentStatus) (*models.ContentItem, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(item).Update("status", status).Error; err != nil {
			return err
		}
		if item.BacklogIdeaID == "" {
			return nil
		}
		// Re-assert the idea-side state; a dangling reference affects no rows
		// and is fine.
		return tx.Model(&models.BacklogIdea{}).
			Where("id = ?", item.BacklogIdeaID).
			Update("status", models.IdeaStatusScheduled).Error
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Publish runs the full publish event: guard check, synchronous adapter
// call, then both status writes plus the publish record in one transaction.
// Publishing is atomic from the caller's view; a failed adapter call leaves
// both entities untouched.
func (s *StatusSyncer) Publish(ctx context.Context, itemID string, publishDate *time.Time, allowOverride bool) (*models.ContentItem, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Content == "" {
		return nil, models.NewValidationError("content item %s has no content to publish", item.ID)
	}

	effectiveDate := publishDate
	if effectiveDate == nil {
		effectiveDate = item.PublishDate
	}
	if err := s.Guard.AssertAvailable(ctx, item.ProjectID, item.HypothesisID, effectiveDate, item.ID, allowOverride); err != nil {
		return nil, err
	}

	result, err := s.Publisher.Publish(ctx, providers.PostInput{
		Title:    item.Title,
		Content:  item.Content,
		Category: string(item.Category),
		ImageURL: item.ImageURL,
	})
	if err != nil {
		return nil, &models.UpstreamError{Adapter: "wordpress", Err: err}
	}
	if !result.Success {
		return nil, &models.UpstreamError{Adapter: "wordpress", Err: errors.New(result.ErrorMessage)}
	}

	now := time.Now().UTC()
	record := &models.PublishRecord{
		ID:               uuid.New().String(),
		ContentItemID:    item.ID,
		ProjectID:        item.ProjectID,
		HypothesisID:     item.HypothesisID,
		WordPressPostID:  result.PostID,
		WordPressPostURL: result.PostURL,
		Synced:           true,
		PublishedAt:      &now,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": models.ContentStatusPublished}
		if effectiveDate != nil {
			updates["publish_date"] = effectiveDate
		}
		if err := tx.Model(item).Updates(updates).Error; err != nil {
			return err
		}
		if item.BacklogIdeaID != "" {
			if err := tx.Model(&models.BacklogIdea{}).
				Where("id = ?", item.BacklogIdeaID).
				Update("status", models.IdeaStatusPublished).Error; err != nil {
				return err
			}
		}
		return tx.Create(record).Error
	})
	if err != nil {
		// The live post exists but the local writes did not land. Fatal for
		// this operation, recoverable by the reconciliation sweep.
		s.Logger.Error("Status sync failed after WordPress post was created",
			zap.String("content_item_id", item.ID),
			zap.Int64("wordpress_post_id", result.PostID),
			zap.Error(err))
		record.Synced = false
		if recErr := s.DB.WithContext(ctx).Create(record).Error; recErr != nil {
			s.Logger.Error("Failed to record unsynced publish", zap.String("content_item_id", item.ID), zap.Error(recErr))
		}
		return nil, err
	}

	s.Logger.Info("Content item published",
		zap.String("content_item_id", item.ID),
		zap.Int64("wordpress_post_id", result.PostID),
		zap.String("wordpress_post_url", result.PostURL))
	return item, nil
}

// Unpublish is the administrative rollback: the item returns to ready and
// the idea to pending or backlog. It does not touch the live WordPress post.
func (s *StatusSyncer) Unpublish(ctx context.Context, itemID string, ideaStatus models.IdeaStatus) (*models.ContentItem, error) {
	if ideaStatus == "" {
		ideaStatus = models.IdeaStatusPending
	}
	if ideaStatus != models.IdeaStatusPending && ideaStatus != models.IdeaStatusBacklog {
		return nil, models.NewValidationError("unpublish may only return the idea to pending or backlog, got %q", ideaStatus)
	}
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(item).Update("status", models.ContentStatusReady).Error; err != nil {
			return err
		}
		if item.BacklogIdeaID == "" {
			return nil
		}
		return tx.Model(&models.BacklogIdea{}).
			Where("id = ?", item.BacklogIdeaID).
			Update("status", ideaStatus).Error
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Content item unpublished", zap.String("content_item_id", item.ID), zap.String("idea_status", string(ideaStatus)))
	return item, nil
}

// ReconcilePending re-drives publish records whose status writes never
// landed: the WordPress post is live, so both entities are moved to
// published and the record is marked synced. Returns the number of records
// repaired.
func (s *StatusSyncer) ReconcilePending(ctx context.Context) (int, error) {
	var records []models.PublishRecord
	if err := s.DB.WithContext(ctx).Where("synced = ?", false).Find(&records).Error; err != nil {
		return 0, err
	}

	repaired := 0
	for _, record := range records {
		item, err := s.getItem(ctx, record.ContentItemID)
		if err != nil {
			var notFound *models.NotFoundError
			if errors.As(err, &notFound) {
				// Item deleted since; nothing left to repair.
				s.Logger.Warn("Dropping publish record for deleted content item", zap.String("content_item_id", record.ContentItemID))
				if err := s.DB.WithContext(ctx).Model(&record).Update("synced", true).Error; err != nil {
					s.Logger.Error("Failed to close orphaned publish record", zap.String("record_id", record.ID), zap.Error(err))
				}
				continue
			}
			return repaired, err
		}

		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(item).Update("status", models.ContentStatusPublished).Error; err != nil {
				return err
			}
			if item.BacklogIdeaID != "" {
				if err := tx.Model(&models.BacklogIdea{}).
					Where("id = ?", item.BacklogIdeaID).
					Update("status", models.IdeaStatusPublished).Error; err != nil {
					return err
				}
			}
			return tx.Model(&record).Update("synced", true).Error
		})
		if err != nil {
			s.Logger.Error("Reconciliation failed for publish record", zap.String("record_id", record.ID), zap.Error(err))
			continue
		}
		repaired++
	}
	return repaired, nil
}
