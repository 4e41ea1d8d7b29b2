package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trygo/models"
)

func TestCreateIdea(t *testing.T) {
	ideas := NewIdeaService(setupTestDB(t), zap.NewNop())
	ctx := context.Background()

	idea, err := ideas.Create(ctx, CreateIdeaInput{
		ProjectID:    "p1",
		HypothesisID: "h1",
		UserID:       "u1",
		Title:        "Churn after trial",
		Category:     models.CategoryPain,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, idea.ID)
	assert.Equal(t, models.IdeaStatusPending, idea.Status)
	assert.Equal(t, models.CategoryPain, idea.Category)
}

func TestCreateIdea_Validation(t *testing.T) {
	ideas := NewIdeaService(setupTestDB(t), zap.NewNop())
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateIdeaInput
	}{
		{"empty title", CreateIdeaInput{ProjectID: "p1", HypothesisID: "h1", Category: models.CategoryPain}},
		{"unknown category", CreateIdeaInput{ProjectID: "p1", HypothesisID: "h1", Title: "t", Category: "vibes"}},
		{"missing scope", CreateIdeaInput{Title: "t", Category: models.CategoryPain}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ideas.Create(ctx, tc.in)
			var verr *models.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestListIdeas_ScopeIsolation(t *testing.T) {
	ideas := NewIdeaService(setupTestDB(t), zap.NewNop())
	ctx := context.Background()

	mk := func(project, hypothesis, title string) {
		_, err := ideas.Create(ctx, CreateIdeaInput{
			ProjectID: project, HypothesisID: hypothesis, UserID: "u1",
			Title: title, Category: models.CategoryInfo,
		})
		require.NoError(t, err)
	}
	mk("p1", "h1", "a")
	mk("p1", "h2", "b")
	mk("p2", "h1", "c")

	scoped, err := ideas.List(ctx, "p1", "h1")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "a", scoped[0].Title)

	projectWide, err := ideas.List(ctx, "p1", "")
	require.NoError(t, err)
	assert.Len(t, projectWide, 2)

	_, err = ideas.List(ctx, "", "")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateIdeaStatus(t *testing.T) {
	ideas := NewIdeaService(setupTestDB(t), zap.NewNop())
	ctx := context.Background()
	idea := seedIdea(t, ideas, "p1", "h1")

	updated, err := ideas.UpdateStatus(ctx, idea.ID, models.IdeaStatusBacklog)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaStatusBacklog, updated.Status)

	_, err = ideas.UpdateStatus(ctx, "nope", models.IdeaStatusBacklog)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = ideas.UpdateStatus(ctx, idea.ID, "half-done")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDismissIdea(t *testing.T) {
	ideas := NewIdeaService(setupTestDB(t), zap.NewNop())
	idea := seedIdea(t, ideas, "p1", "h1")

	dismissed, err := ideas.Dismiss(context.Background(), idea.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaStatusArchived, dismissed.Status)
}

func TestDeleteIdea_DoesNotCascade(t *testing.T) {
	db := setupTestDB(t)
	log := zap.NewNop()
	ideas := NewIdeaService(db, log)
	ctx := context.Background()
	idea := seedIdea(t, ideas, "p1", "h1")

	item := &models.ContentItem{
		ID: "ci-1", ProjectID: "p1", HypothesisID: "h1", UserID: "u1",
		BacklogIdeaID: idea.ID, Title: "orphan-to-be",
		Category: models.CategoryPain, Format: models.FormatBlog,
		Status: models.ContentStatusDraft,
	}
	require.NoError(t, db.Create(item).Error)

	deleted, err := ideas.Delete(ctx, idea.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Second delete affects nothing.
	deleted, err = ideas.Delete(ctx, idea.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	// The content item survives with a dangling reference.
	var orphan models.ContentItem
	require.NoError(t, db.Where("id = ?", "ci-1").First(&orphan).Error)
	assert.Equal(t, idea.ID, orphan.BacklogIdeaID)
}
