package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trygo/models"
	"trygo/providers"
)

// seedReadyItem creates an idea plus a linked, ready-to-publish item.
func seedReadyItem(t *testing.T, ideas *IdeaService, content *ContentService, syncer *StatusSyncer) (*models.BacklogIdea, *models.ContentItem) {
	t.Helper()
	ctx := context.Background()
	idea := seedIdea(t, ideas, "p1", "h1")
	item := &models.ContentItem{
		ID: "ci-" + idea.ID, ProjectID: "p1", HypothesisID: "h1", UserID: "u1",
		BacklogIdeaID: idea.ID, Title: idea.Title,
		Category: idea.Category, Format: models.FormatBlog,
		Content: "Finished article body.",
	}
	require.NoError(t, syncer.ContentGenerated(ctx, idea, item))
	_, err := syncer.MarkReady(ctx, item.ID)
	require.NoError(t, err)
	item.Status = models.ContentStatusReady
	return idea, item
}

func TestPublish_Success(t *testing.T) {
	pub := &fakePublisher{result: &providers.PublishResult{Success: true, PostID: 77, PostURL: "https://blog.example.com/p/77"}}
	db, ideas, content, syncer := newTestPipeline(t, &fakeGenerator{}, pub)
	ctx := context.Background()
	idea, item := seedReadyItem(t, ideas, content, syncer)

	date := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	published, err := syncer.Publish(ctx, item.ID, &date, false)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusPublished, published.Status)
	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, "Finished article body.", pub.last.Content)

	// No split state: both stores moved together.
	var storedIdea models.BacklogIdea
	require.NoError(t, db.Where("id = ?", idea.ID).First(&storedIdea).Error)
	assert.Equal(t, models.IdeaStatusPublished, storedIdea.Status)

	var storedItem models.ContentItem
	require.NoError(t, db.Where("id = ?", item.ID).First(&storedItem).Error)
	assert.Equal(t, models.ContentStatusPublished, storedItem.Status)
	require.NotNil(t, storedItem.PublishDate)

	var record models.PublishRecord
	require.NoError(t, db.Where("content_item_id = ?", item.ID).First(&record).Error)
	assert.True(t, record.Synced)
	assert.EqualValues(t, 77, record.WordPressPostID)
}

func TestPublish_AdapterRejection(t *testing.T) {
	pub := &fakePublisher{result: &providers.PublishResult{Success: false, ErrorMessage: "invalid credentials"}}
	db, ideas, content, syncer := newTestPipeline(t, &fakeGenerator{}, pub)
	ctx := context.Background()
	idea, item := seedReadyItem(t, ideas, content, syncer)

	_, err := syncer.Publish(ctx, item.ID, nil, false)
	var up *models.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Contains(t, up.Error(), "invalid credentials")

	// Neither entity moved.
	var storedIdea models.BacklogIdea
	require.NoError(t, db.Where("id = ?", idea.ID).First(&storedIdea).Error)
	assert.Equal(t, models.IdeaStatusScheduled, storedIdea.Status)

	var storedItem models.ContentItem
	require.NoError(t, db.Where("id = ?", item.ID).First(&storedItem).Error)
	assert.Equal(t, models.ContentStatusReady, storedItem.Status)

	var count int64
	require.NoError(t, db.Model(&models.PublishRecord{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestPublish_TransportFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	db, ideas, content, syncer := newTestPipeline(t, &fakeGenerator{}, pub)
	_, item := seedReadyItem(t, ideas, content, syncer)

	_, err := syncer.Publish(context.Background(), item.ID, nil, false)
	var up *models.UpstreamError
	require.ErrorAs(t, err, &up)

	var storedItem models.ContentItem
	require.NoError(t, db.Where("id = ?", item.ID).First(&storedItem).Error)
	assert.Equal(t, models.ContentStatusReady, storedItem.Status)
}

func TestPublish_EmptyContent(t *testing.T) {
	pub := &fakePublisher{result: &providers.PublishResult{Success: true}}
	db, _, _, syncer := newTestPipeline(t, &fakeGenerator{}, pub)
	require.NoError(t, db.Create(&models.ContentItem{
		ID: "empty", ProjectID: "p1", HypothesisID: "h1", UserID: "u1",
		Title: "no body yet", Category: models.CategoryInfo, Format: models.FormatBlog,
		Status: models.ContentStatusReady,
	}).Error)

	_, err := syncer.Publish(context.Background(), "empty", nil, false)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, pub.calls)
}

func TestPublish_DateConflict(t *testing.T) {
	pub := &fakePublisher{result: &providers.PublishResult{Success: true, PostID: 1}}
	_, ideas, content, syncer := newTestPipeline(t, &fakeGenerator{}, pub)
	ctx := context.Background()
	_, item := seedReadyItem(t, ideas, content, syncer)

	date := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	_, err := syncer.Publish(ctx, item.ID, &date, false)
	require.NoError(t, err)

	second := seedIdea(t, ideas, "p1", "h1")
	secondItem := &models.ContentItem{
		ID: "ci-second", ProjectID: "p1", HypothesisID: "h1", UserID: "u1",
		BacklogIdeaID: second.ID, Title: second.Title,
		Category: second.Category, Format: models.FormatBlog,
		Content: "Another finished body.",
	}
	require.NoError(t, syncer.ContentGenerated(ctx, second, secondItem))

	_, err = syncer.Publish(ctx, secondItem.ID, &date, false)
	var conflict *models.PublishDateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, item.ID, conflict.ConflictingItemID)
	// The guard runs before the adapter: only the first publish reached it.
	assert.Equal(t, 1, pub.calls)

	// With override the same date goes through.
	_, err = syncer.Publish(ctx, secondItem.ID, &date, true)
	require.NoError(t, err)
	assert.Equal(t, 2, pub.calls)
}

func TestPublish_RecordsUnsyncedOnLocalWriteFailure(t *testing.T) {
	pub := &fakePublisher{result: &providers.PublishResult{Success: true, PostID: 33, PostURL: "https://blog.example.com/p/33"}}
	db, ideas, content, syncer := newTestPipeline(t, &fakeGenerator{}, pub)
	ctx := context.Background()
	_, item := seedReadyItem(t, ideas, content, syncer)

	// Make the post-adapter status transaction fail: the idea-side update
	// hits a missing table and rolls everything back.
	require.NoError(t, db.Migrator().DropTable(&models.BacklogIdea{}))

	_, err := syncer.Publish(ctx, item.ID, nil, false)
	require.Error(t, err)
	assert.Equal(t, 1, pub.calls)

	// The item did not move, but the live post was captured for the sweep.
	var storedItem models.ContentItem
	require.NoError(t, db.Where("id = ?", item.ID).First(&storedItem).Error)
	assert.Equal(t, models.ContentStatusReady, storedItem.Status)

	var record models.PublishRecord
	require.NoError(t, db.Where("content_item_id = ?", item.ID).First(&record).Error)
	assert.False(t, record.Synced)
	assert.EqualValues(t, 33, record.WordPressPostID)

	// Once the store is healthy again the sweep finishes the publish.
	require.NoError(t, db.AutoMigrate(&models.BacklogIdea{}))
	repaired, err := syncer.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	require.NoError(t, db.Where("id = ?", item.ID).First(&storedItem).Error)
	assert.Equal(t, models.ContentStatusPublished, storedItem.Status)
	require.NoError(t, db.Where("content_item_id = ?", item.ID).First(&record).Error)
	assert.True(t, record.Synced)
}

func TestReviewAndReady_KeepIdeaScheduled(t *testing.T) {
	db, ideas, content, syncer := newTestPipeline(t, &fakeGenerator{}, nil)
	ctx := context.Background()
	idea, item := seedReadyItem(t, ideas, content, syncer)

	reviewed, err := syncer.MoveToReview(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusReview, reviewed.Status)

	ready, err := syncer.MarkReady(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusReady, ready.Status)

	var storedIdea models.BacklogIdea
	require.NoError(t, db.Where("id = ?", idea.ID).First(&storedIdea).Error)
	assert.Equal(t, models.IdeaStatusScheduled, storedIdea.Status)

	_, err = syncer.MoveToReview(ctx, "ghost")
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUnpublish(t *testing.T) {
	pub := &fakePublisher{result: &providers.PublishResult{Success: true, PostID: 5}}
	db, ideas, content, syncer := newTestPipeline(t, &fakeGenerator{}, pub)
	ctx := context.Background()
	idea, item := seedReadyItem(t, ideas, content, syncer)
	_, err := syncer.Publish(ctx, item.ID, nil, false)
	require.NoError(t, err)

	rolled, err := syncer.Unpublish(ctx, item.ID, models.IdeaStatusBacklog)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusReady, rolled.Status)

	var storedIdea models.BacklogIdea
	require.NoError(t, db.Where("id = ?", idea.ID).First(&storedIdea).Error)
	assert.Equal(t, models.IdeaStatusBacklog, storedIdea.Status)

	_, err = syncer.Unpublish(ctx, item.ID, models.IdeaStatusCompleted)
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReconcilePending(t *testing.T) {
	db, ideas, content, syncer := newTestPipeline(t, &fakeGenerator{}, nil)
	ctx := context.Background()
	idea, item := seedReadyItem(t, ideas, content, syncer)

	// Simulate "live post exists, local writes lost".
	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.PublishRecord{
		ID: "rec-1", ContentItemID: item.ID, ProjectID: "p1", HypothesisID: "h1",
		WordPressPostID: 9, WordPressPostURL: "https://blog.example.com/p/9",
		Synced: false, PublishedAt: &now,
	}).Error)

	repaired, err := syncer.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	var storedItem models.ContentItem
	require.NoError(t, db.Where("id = ?", item.ID).First(&storedItem).Error)
	assert.Equal(t, models.ContentStatusPublished, storedItem.Status)

	var storedIdea models.BacklogIdea
	require.NoError(t, db.Where("id = ?", idea.ID).First(&storedIdea).Error)
	assert.Equal(t, models.IdeaStatusPublished, storedIdea.Status)

	var record models.PublishRecord
	require.NoError(t, db.Where("id = ?", "rec-1").First(&record).Error)
	assert.True(t, record.Synced)

	// Idempotent: nothing left to repair.
	repaired, err = syncer.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestReconcilePending_DeletedItem(t *testing.T) {
	db, _, _, syncer := newTestPipeline(t, &fakeGenerator{}, nil)

	require.NoError(t, db.Create(&models.PublishRecord{
		ID: "rec-orphan", ContentItemID: "gone", Synced: false,
	}).Error)

	repaired, err := syncer.ReconcilePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repaired)

	var record models.PublishRecord
	require.NoError(t, db.Where("id = ?", "rec-orphan").First(&record).Error)
	assert.True(t, record.Synced)
}
