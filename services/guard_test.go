package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trygo/models"
)

func seedDatedItem(t *testing.T, g *PublishDateGuard, id, project, hypothesis string, date time.Time) {
	t.Helper()
	require.NoError(t, g.DB.Create(&models.ContentItem{
		ID: id, ProjectID: project, HypothesisID: hypothesis, UserID: "u1",
		Title: "dated", Category: models.CategoryInfo, Format: models.FormatBlog,
		Status: models.ContentStatusReady, PublishDate: &date,
	}).Error)
}

func TestAssertAvailable(t *testing.T) {
	guard := NewPublishDateGuard(setupTestDB(t))
	ctx := context.Background()
	date := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	seedDatedItem(t, guard, "holder", "p1", "h1", date)

	t.Run("nil date passes", func(t *testing.T) {
		assert.NoError(t, guard.AssertAvailable(ctx, "p1", "h1", nil, "", false))
	})

	t.Run("override passes", func(t *testing.T) {
		assert.NoError(t, guard.AssertAvailable(ctx, "p1", "h1", &date, "", true))
	})

	t.Run("taken date conflicts", func(t *testing.T) {
		err := guard.AssertAvailable(ctx, "p1", "h1", &date, "", false)
		var conflict *models.PublishDateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "holder", conflict.ConflictingItemID)
	})

	t.Run("self update passes", func(t *testing.T) {
		assert.NoError(t, guard.AssertAvailable(ctx, "p1", "h1", &date, "holder", false))
	})

	t.Run("other scope passes", func(t *testing.T) {
		assert.NoError(t, guard.AssertAvailable(ctx, "p1", "h2", &date, "", false))
		assert.NoError(t, guard.AssertAvailable(ctx, "p2", "h1", &date, "", false))
	})

	t.Run("free date passes", func(t *testing.T) {
		other := date.AddDate(0, 0, 1)
		assert.NoError(t, guard.AssertAvailable(ctx, "p1", "h1", &other, "", false))
	})
}
