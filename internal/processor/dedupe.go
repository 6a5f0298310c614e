package processor

import (
	"github.com/rs/zerolog/log"

	"hotlist_spider/internal/models"
)

// Dedupe keeps the first item seen for each question id, in input order.
func Dedupe(items []models.HotListItem) []models.HotListItem {
	if len(items) == 0 {
		return []models.HotListItem{}
	}

	seen := make(map[string]struct{}, len(items))
	unique := make([]models.HotListItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.QuestionID]; dup {
			continue
		}
		seen[item.QuestionID] = struct{}{}
		unique = append(unique, item)
	}

	if len(unique) != len(items) {
		log.Info().Int("before", len(items)).Int("after", len(unique)).Msg("removed duplicate items")
	}
	return unique
}
