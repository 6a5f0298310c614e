package processor

import (
	"sort"
	"time"

	"hotlist_spider/internal/models"
)

// Summarize never fails; an empty batch gives zero scores.
func Summarize(items []models.HotListItem) models.Summary {
	s := models.Summary{Count: len(items), Timestamp: time.Now()}
	if len(items) == 0 {
		return s
	}

	var total float64
	s.MaxScore = items[0].HotIndex
	s.MinScore = items[0].HotIndex
	for _, item := range items {
		total += item.HotIndex
		if item.HotIndex > s.MaxScore {
			s.MaxScore = item.HotIndex
		}
		if item.HotIndex < s.MinScore {
			s.MinScore = item.HotIndex
		}
	}
	s.AvgScore = total / float64(len(items))
	return s
}

// SortByHotIndex returns a copy ordered by hot index, highest first. Ties
// keep their input order.
func SortByHotIndex(items []models.HotListItem) []models.HotListItem {
	sorted := make([]models.HotListItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].HotIndex > sorted[j].HotIndex
	})
	return sorted
}
