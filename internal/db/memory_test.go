package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"hotlist_spider/internal/config"
	"hotlist_spider/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = clock.now
	return s, clock
}

func TestMemoryStoreUpsertByIdentity(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore()
	created := clock.t

	n, err := s.SaveItems(ctx, []models.HotListItem{
		{QuestionID: "1", Title: "旧标题", HotIndex: 10, AnswerCount: 1},
		{QuestionID: "2", Title: "第二个", HotIndex: 20},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	clock.advance(time.Hour)
	n, err = s.SaveItems(ctx, []models.HotListItem{
		{QuestionID: "1", Title: "新标题", Excerpt: "摘要", HotIndex: 99, AnswerCount: 5, FollowerCount: 7},
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	items, err := s.RecentItems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var updated models.HotListItem
	for _, item := range items {
		if item.QuestionID == "1" {
			updated = item
		}
	}
	require.Equal(t, "新标题", updated.Title)
	require.Equal(t, "摘要", updated.Excerpt)
	require.Equal(t, 99.0, updated.HotIndex)
	require.Equal(t, 5, updated.AnswerCount)
	require.Equal(t, 7, updated.FollowerCount)
	require.Equal(t, created, updated.CreatedTime)
	require.Equal(t, clock.t, updated.UpdatedTime)
}

func TestMemoryStoreRecentItemsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore()

	for _, id := range []string{"1", "2", "3"} {
		_, err := s.SaveItems(ctx, []models.HotListItem{{QuestionID: id, Title: id}})
		require.NoError(t, err)
		clock.advance(time.Minute)
	}

	items, err := s.RecentItems(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "3", items[0].QuestionID)
	require.Equal(t, "2", items[1].QuestionID)
}

func TestMemoryStoreDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore()

	_, err := s.SaveItems(ctx, []models.HotListItem{{QuestionID: "old", Title: "old"}})
	require.NoError(t, err)
	clock.advance(5 * 24 * time.Hour)
	_, err = s.SaveItems(ctx, []models.HotListItem{{QuestionID: "new", Title: "new"}})
	require.NoError(t, err)
	clock.advance(3 * 24 * time.Hour)

	deleted, err := s.DeleteOlderThan(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	items, err := s.RecentItems(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "new", items[0].QuestionID)
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	empty, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, empty.Count)

	_, err = s.SaveItems(ctx, []models.HotListItem{
		{QuestionID: "1", HotIndex: 10},
		{QuestionID: "2", HotIndex: 30},
		{QuestionID: "3", HotIndex: 20},
	})
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Count)
	require.InDelta(t, 20.0, stats.AvgScore, 1e-9)
	require.Equal(t, 30.0, stats.MaxScore)
	require.Equal(t, 10.0, stats.MinScore)
}

func TestMemoryStoreStopsOnCancelledContext(t *testing.T) {
	s, _ := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := s.SaveItems(ctx, []models.HotListItem{{QuestionID: "1", Title: "x"}})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, n)
}

func TestUpsertUpdateLeavesIdentityAlone(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	update := upsertUpdate(models.HotListItem{
		QuestionID: "1",
		Title:      "标题",
		HotIndex:   3.5,
	}, now)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	require.NotContains(t, set, models.FieldQuestionID)
	require.NotContains(t, set, models.FieldCreatedTime)
	require.NotContains(t, set, "_id")
	require.Equal(t, "标题", set[models.FieldTitle])
	require.Equal(t, 3.5, set[models.FieldHotIndex])
	require.Equal(t, now, set[models.FieldUpdatedTime])

	onInsert, ok := update["$setOnInsert"].(bson.M)
	require.True(t, ok)
	require.Equal(t, bson.M{models.FieldCreatedTime: now}, onInsert)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DBConfig{Driver: "sqlite"})
	require.Error(t, err)

	s, err := Open(context.Background(), config.DBConfig{Driver: "memory"})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
