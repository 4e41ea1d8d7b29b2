package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trygo/models"
)

// IdeaService owns the backlog-idea store ("what to write" stage).
type IdeaService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewIdeaService creates a new IdeaService.
func NewIdeaService(db *gorm.DB, logger *zap.Logger) *IdeaService {
	return &IdeaService{DB: db, Logger: logger}
}

// CreateIdeaInput carries the fields for a new backlog idea.
type CreateIdeaInput struct {
	ProjectID    string              `json:"projectId"`
	HypothesisID string              `json:"hypothesisId"`
	UserID       string              `json:"userId"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Category     models.IdeaCategory `json:"category"`
	ClusterID    string              `json:"clusterId"`
}

// Create persists a new idea with status pending.
func (s *IdeaService) Create(ctx context.Context, in CreateIdeaInput) (*models.BacklogIdea, error) {
	if in.ProjectID == "" || in.HypothesisID == "" {
		return nil, models.NewValidationError("projectId and hypothesisId are required")
	}
	if in.Title == "" {
		return nil, models.NewValidationError("title must not be empty")
	}
	if !in.Category.Valid() {
		return nil, models.NewValidationError("unknown category %q", in.Category)
	}

	idea := &models.BacklogIdea{
		ID:           uuid.New().String(),
		ProjectID:    in.ProjectID,
		HypothesisID: in.HypothesisID,
		UserID:       in.UserID,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		ClusterID:    in.ClusterID,
		Status:       models.IdeaStatusPending,
	}
	if err := s.DB.WithContext(ctx).Create(idea).Error; err != nil {
		s.Logger.Error("Failed to create backlog idea", zap.Error(err))
		return nil, err
	}
	return idea, nil
}

// List returns all ideas in the project scope, optionally narrowed to one
// hypothesis. No pagination; callers handle unbounded result sets.
func (s *IdeaService) List(ctx context.Context, projectID, hypothesisID string) ([]models.BacklogIdea, error) {
	if projectID == "" {
		return nil, models.NewValidationError("projectId is required")
	}
	query := s.DB.WithContext(ctx).Where("project_id = ?", projectID)
	if hypothesisID != "" {
		query = query.Where("hypothesis_id = ?", hypothesisID)
	}
	var ideas []models.BacklogIdea
	if err := query.Order("created_at desc").Find(&ideas).Error; err != nil {
		s.Logger.Error("Failed to list backlog ideas", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return ideas, nil
}

// Get loads a single idea by id.
func (s *IdeaService) Get(ctx context.Context, id string) (*models.BacklogIdea, error) {
	var idea models.BacklogIdea
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&idea).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "backlog idea", ID: id}
		}
		return nil, err
	}
	return &idea, nil
}

// UpdateStatus is a low-level primitive: it does not validate that the
// transition is legal. Lifecycle rules live in the status synchronizer; this
// stays available for corrective and administrative overrides.
func (s *IdeaService) UpdateStatus(ctx context.Context, id string, status models.IdeaStatus) (*models.BacklogIdea, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("unknown idea status %q", status)
	}
	idea, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(idea).Update("status", status).Error; err != nil {
		s.Logger.Error("Failed to update idea status", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return idea, nil
}

// Dismiss archives an idea the founder does not want to pursue.
func (s *IdeaService) Dismiss(ctx context.Context, id string) (*models.BacklogIdea, error) {
	return s.UpdateStatus(ctx, id, models.IdeaStatusArchived)
}

// Delete hard-deletes an idea. It does not cascade to content items; a
// dangling backlogIdeaId on a content item is tolerated by readers.
func (s *IdeaService) Delete(ctx context.Context, id string) (bool, error) {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.BacklogIdea{})
	if res.Error != nil {
		s.Logger.Error("Failed to delete backlog idea", zap.String("id", id), zap.Error(res.Error))
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
