package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trygo/config"
	"trygo/models"
	"trygo/providers"
	"trygo/storage"
)

// ContentService owns the content-item store and the generation
// orchestration: idea in, parsed draft out, statuses synced.
type ContentService struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Generator providers.ContentGenerator
	Images    providers.ImageGenerator
	S3Client  *s3.Client
	Parser    *ResponseParser
	Syncer    *StatusSyncer
}

// NewContentService creates a new ContentService. Images and s3Client may be
// nil; the image step is then skipped entirely.
func NewContentService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, generator providers.ContentGenerator, images providers.ImageGenerator, s3Client *s3.Client, syncer *StatusSyncer) *ContentService {
	return &ContentService{
		Config:    cfg,
		DB:        db,
		Logger:    logger,
		Generator: generator,
		Images:    images,
		S3Client:  s3Client,
		Parser:    NewResponseParser(logger),
		Syncer:    syncer,
	}
}

// UpsertContentItemInput carries the mutable fields of a content item. With
// ID set the matching item's mutable fields are fully replaced; without ID a
// new item is created.
type UpsertContentItemInput struct {
	ID            string               `json:"id"`
	ProjectID     string               `json:"projectId"`
	HypothesisID  string               `json:"hypothesisId"`
	UserID        string               `json:"userId"`
	BacklogIdeaID string               `json:"backlogIdeaId"`
	Title         string               `json:"title"`
	Category      models.IdeaCategory  `json:"category"`
	Format        models.ContentFormat `json:"format"`
	Outline       string               `json:"outline"`
	Content       string               `json:"content"`
	ImageURL      string               `json:"imageUrl"`
	Status        models.ContentStatus `json:"status"`
	DueDate       *time.Time           `json:"dueDate"`
	PublishDate   *time.Time           `json:"publishDate"`
	AllowOverride bool                 `json:"allowOverride"`
}

// Upsert creates or fully replaces a content item.
func (s *ContentService) Upsert(ctx context.Context, in UpsertContentItemInput) (*models.ContentItem, error) {
	if in.ProjectID == "" || in.HypothesisID == "" || in.UserID == "" {
		return nil, models.NewValidationError("projectId, hypothesisId and userId are required")
	}
	if in.Title == "" {
		return nil, models.NewValidationError("title must not be empty")
	}
	if !in.Category.Valid() {
		return nil, models.NewValidationError("unknown category %q", in.Category)
	}
	if !in.Format.Valid() {
		return nil, models.NewValidationError("unknown format %q", in.Format)
	}
	status := in.Status
	if status == "" {
		status = models.ContentStatusDraft
	}
	if !status.Valid() {
		return nil, models.NewValidationError("unknown content status %q", status)
	}
	if status == models.ContentStatusPublished && in.Content == "" {
		return nil, models.NewValidationError("a published content item must have non-empty content")
	}
	// The guard holds for every write path that commits a publish date, not
	// just the publish event itself.
	if err := s.Syncer.Guard.AssertAvailable(ctx, in.ProjectID, in.HypothesisID, in.PublishDate, in.ID, in.AllowOverride); err != nil {
		return nil, err
	}

	if in.ID != "" {
		item, err := s.Get(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		if item.ProjectID != in.ProjectID || item.HypothesisID != in.HypothesisID {
			// Items are only addressable within their own scope.
			return nil, &models.NotFoundError{Entity: "content item", ID: in.ID}
		}
		updates := map[string]any{
			"user_id":         in.UserID,
			"backlog_idea_id": in.BacklogIdeaID,
			"title":           in.Title,
			"category":        in.Category,
			"format":          in.Format,
			"outline":         in.Outline,
			"content":         in.Content,
			"image_url":       in.ImageURL,
			"status":          status,
			"due_date":        in.DueDate,
			"publish_date":    in.PublishDate,
		}
		if err := s.DB.WithContext(ctx).Model(item).Updates(updates).Error; err != nil {
			s.Logger.Error("Failed to update content item", zap.String("id", in.ID), zap.Error(err))
			return nil, err
		}
		return item, nil
	}

	item := &models.ContentItem{
		ID:            uuid.New().String(),
		ProjectID:     in.ProjectID,
		HypothesisID:  in.HypothesisID,
		UserID:        in.UserID,
		BacklogIdeaID: in.BacklogIdeaID,
		Title:         in.Title,
		Category:      in.Category,
		Format:        in.Format,
		Outline:       in.Outline,
		Content:       in.Content,
		ImageURL:      in.ImageURL,
		Status:        status,
		DueDate:       in.DueDate,
		PublishDate:   in.PublishDate,
	}
	if err := s.DB.WithContext(ctx).Create(item).Error; err != nil {
		s.Logger.Error("Failed to create content item", zap.Error(err))
		return nil, err
	}
	return item, nil
}

// Get loads a content item by id.
func (s *ContentService) Get(ctx context.Context, id string) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "content item", ID: id}
		}
		return nil, err
	}
	return &item, nil
}

// GetByIdea returns the item linked to a backlog idea, or nil if none exists.
func (s *ContentService) GetByIdea(ctx context.Context, backlogIdeaID string) (*models.ContentItem, error) {
	var item models.ContentItem
	err := s.DB.WithContext(ctx).Where("backlog_idea_id = ?", backlogIdeaID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GenerateForIdea is the orchestration entry point: fetch the idea, build a
// prompt from it plus the project context, call the generator, parse, then
// upsert the item and sync both statuses. Generating twice for the same idea
// updates the existing item, it never creates a second one.
func (s *ContentService) GenerateForIdea(ctx context.Context, backlogIdeaID, projectID, hypothesisID string) (*models.ContentItem, error) {
	var idea models.BacklogIdea
	err := s.DB.WithContext(ctx).
		Where("id = ? AND project_id = ? AND hypothesis_id = ?", backlogIdeaID, projectID, hypothesisID).
		First(&idea).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &models.NotFoundError{Entity: "backlog idea", ID: backlogIdeaID}
	}
	if err != nil {
		return nil, err
	}

	prompt := s.buildPrompt(ctx, &idea, "")
	raw, err := s.Generator.Complete(ctx, prompt)
	if err != nil {
		return nil, &models.UpstreamError{Adapter: s.Generator.Name(), Err: err}
	}
	gen, err := s.Parser.Parse(raw)
	if err != nil {
		return nil, err
	}

	item, err := s.GetByIdea(ctx, idea.ID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		item = &models.ContentItem{
			ID:            uuid.New().String(),
			ProjectID:     idea.ProjectID,
			HypothesisID:  idea.HypothesisID,
			UserID:        idea.UserID,
			BacklogIdeaID: idea.ID,
			Format:        formatForCategory(idea.Category),
		}
	}
	item.Title = gen.Title
	if item.Title == "" {
		item.Title = idea.Title
	}
	item.Category = idea.Category
	item.Outline = gen.Outline
	item.Content = gen.Body

	if err := s.Syncer.ContentGenerated(ctx, &idea, item); err != nil {
		s.Logger.Error("Failed to persist generated content", zap.String("idea_id", idea.ID), zap.Error(err))
		return nil, err
	}

	// Image generation is optional and never blocks the draft.
	s.attachImage(ctx, item, gen.SuggestedImagePrompt)

	s.Logger.Info("Content generated for backlog idea",
		zap.String("idea_id", idea.ID),
		zap.String("content_item_id", item.ID),
		zap.String("category", string(item.Category)))
	return item, nil
}

// Regenerate re-runs generation for an existing item and replaces its body
// only; title and category stay untouched.
func (s *ContentService) Regenerate(ctx context.Context, id, promptPart string) (*models.ContentItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var idea models.BacklogIdea
	if item.BacklogIdeaID != "" {
		// Dangling references are tolerated; the item carries enough context
		// on its own.
		if err := s.DB.WithContext(ctx).Where("id = ?", item.BacklogIdeaID).First(&idea).Error; err != nil {
			idea = models.BacklogIdea{}
		}
	}
	if idea.ID == "" {
		idea = models.BacklogIdea{
			ProjectID:    item.ProjectID,
			HypothesisID: item.HypothesisID,
			Title:        item.Title,
			Category:     item.Category,
		}
	}

	raw, err := s.Generator.Complete(ctx, s.buildPrompt(ctx, &idea, promptPart))
	if err != nil {
		return nil, &models.UpstreamError{Adapter: s.Generator.Name(), Err: err}
	}
	gen, err := s.Parser.Parse(raw)
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(item).Update("content", gen.Body).Error; err != nil {
		s.Logger.Error("Failed to store regenerated content", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	item.Content = gen.Body
	return item, nil
}

// UpsertProjectContext stores the prompt context for a scope.
func (s *ContentService) UpsertProjectContext(ctx context.Context, pc *models.ProjectContext) (*models.ProjectContext, error) {
	if pc.ProjectID == "" || pc.HypothesisID == "" {
		return nil, models.NewValidationError("projectId and hypothesisId are required")
	}
	if pc.ID == "" {
		pc.ID = uuid.New().String()
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "hypothesis_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"lean_canvas", "ideal_customer_profile", "keywords", "updated_at"}),
	}).Create(pc).Error
	if err != nil {
		s.Logger.Error("Failed to upsert project context", zap.String("project_id", pc.ProjectID), zap.Error(err))
		return nil, err
	}
	return pc, nil
}

// buildPrompt folds the idea and whatever project context exists into one
// generation request.
func (s *ContentService) buildPrompt(ctx context.Context, idea *models.BacklogIdea, promptPart string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an SEO article for the content idea below.\n\n")
	fmt.Fprintf(&b, "Idea title: %s\n", idea.Title)
	if idea.Description != "" {
		fmt.Fprintf(&b, "Idea description: %s\n", idea.Description)
	}
	fmt.Fprintf(&b, "Content angle: %s\n", idea.Category)

	var pc models.ProjectContext
	err := s.DB.WithContext(ctx).
		Where("project_id = ? AND hypothesis_id = ?", idea.ProjectID, idea.HypothesisID).
		First(&pc).Error
	if err == nil {
		if pc.LeanCanvas != "" {
			fmt.Fprintf(&b, "\nLean canvas:\n%s\n", pc.LeanCanvas)
		}
		if pc.IdealCustomerProfile != "" {
			fmt.Fprintf(&b, "\nIdeal customer profile:\n%s\n", pc.IdealCustomerProfile)
		}
		if len(pc.Keywords) > 0 {
			fmt.Fprintf(&b, "\nTarget keywords (JSON):\n%s\n", string(pc.Keywords))
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.Logger.Warn("Failed to load project context for prompt", zap.String("project_id", idea.ProjectID), zap.Error(err))
	}

	if promptPart != "" {
		fmt.Fprintf(&b, "\nAdditional instructions: %s\n", promptPart)
	}
	return b.String()
}

// attachImage generates an optional hero image, stores it in the media
// bucket and records the link. Every failure is logged and swallowed; the
// item proceeds without an image.
func (s *ContentService) attachImage(ctx context.Context, item *models.ContentItem, imagePrompt string) {
	if s.Images == nil || s.S3Client == nil {
		return
	}
	if imagePrompt == "" {
		imagePrompt = fmt.Sprintf("Editorial hero image for a blog article titled %q", item.Title)
	}

	data, err := s.Images.GenerateImage(ctx, imagePrompt)
	if err != nil {
		s.Logger.Warn("Image generation failed, continuing without image", zap.String("content_item_id", item.ID), zap.Error(err))
		return
	}

	key := fmt.Sprintf("content-images/%s/%s.png", item.ProjectID, item.ID)
	link, err := storage.UploadImage(ctx, s.S3Client, key, data, s.Config)
	if err != nil {
		s.Logger.Warn("Image upload failed, continuing without image", zap.String("content_item_id", item.ID), zap.Error(err))
		return
	}

	if err := s.DB.WithContext(ctx).Model(item).Update("image_url", link).Error; err != nil {
		s.Logger.Warn("Failed to store image url", zap.String("content_item_id", item.ID), zap.Error(err))
		return
	}
	item.ImageURL = link
}

func formatForCategory(category models.IdeaCategory) models.ContentFormat {
	switch category {
	case models.CategoryFAQ:
		return models.FormatFAQ
	case models.CategoryFeature, models.CategoryBenefit:
		return models.FormatCommercial
	default:
		return models.FormatBlog
	}
}
