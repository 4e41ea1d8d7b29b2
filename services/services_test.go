package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trygo/config"
	"trygo/models"
	"trygo/providers"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.BacklogIdea{},
		&models.ContentItem{},
		&models.ProjectContext{},
		&models.PublishRecord{},
	))
	return db
}

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) Name() string { return "fake" }

type fakePublisher struct {
	result *providers.PublishResult
	err    error
	calls  int
	last   providers.PostInput
}

func (f *fakePublisher) Publish(ctx context.Context, in providers.PostInput) (*providers.PublishResult, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestPipeline(t *testing.T, gen *fakeGenerator, pub *fakePublisher) (*gorm.DB, *IdeaService, *ContentService, *StatusSyncer) {
	t.Helper()
	db := setupTestDB(t)
	log := zap.NewNop()
	if pub == nil {
		pub = &fakePublisher{result: &providers.PublishResult{Success: true, PostID: 1, PostURL: "https://blog.example.com/p/1"}}
	}
	syncer := NewStatusSyncer(db, log, pub)
	ideas := NewIdeaService(db, log)
	content := NewContentService(&config.Config{}, db, log, gen, nil, nil, syncer)
	return db, ideas, content, syncer
}

func seedIdea(t *testing.T, ideas *IdeaService, projectID, hypothesisID string) *models.BacklogIdea {
	t.Helper()
	idea, err := ideas.Create(context.Background(), CreateIdeaInput{
		ProjectID:    projectID,
		HypothesisID: hypothesisID,
		UserID:       "u1",
		Title:        "Solo founder onboarding",
		Description:  "Why onboarding alone is hard",
		Category:     models.CategoryPain,
	})
	require.NoError(t, err)
	return idea
}
