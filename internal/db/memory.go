package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"hotlist_spider/internal/models"
	"hotlist_spider/internal/processor"
)

// MemoryStore keeps items in process memory. Contents are lost on exit.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]models.HotListItem
	order []string
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]models.HotListItem),
		now:   time.Now,
	}
}

func (m *MemoryStore) SaveItems(ctx context.Context, items []models.HotListItem) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		now := m.now()
		if existing, ok := m.items[item.QuestionID]; ok {
			merged := models.MergeHotListItem(existing, item)
			merged.UpdatedTime = now
			m.items[item.QuestionID] = merged
		} else {
			item.CreatedTime = now
			item.UpdatedTime = now
			m.items[item.QuestionID] = item
			m.order = append(m.order, item.QuestionID)
		}
		saved++
	}
	return saved, nil
}

func (m *MemoryStore) RecentItems(_ context.Context, limit int) ([]models.HotListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.snapshot()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedTime.After(items[j].CreatedTime)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryStore) DeleteOlderThan(_ context.Context, days int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-time.Duration(days) * 24 * time.Hour)
	var deleted int64
	kept := m.order[:0]
	for _, id := range m.order {
		if m.items[id].CreatedTime.Before(cutoff) {
			delete(m.items, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return deleted, nil
}

func (m *MemoryStore) Stats(_ context.Context) (models.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return processor.Summarize(m.snapshot()), nil
}

func (m *MemoryStore) Close() error { return nil }

// snapshot returns the items in insertion order. Callers hold mu.
func (m *MemoryStore) snapshot() []models.HotListItem {
	items := make([]models.HotListItem, 0, len(m.order))
	for _, id := range m.order {
		items = append(items, m.items[id])
	}
	return items
}
