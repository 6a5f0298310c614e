// Package processor turns raw extracted records into a clean batch:
// normalize, validate, dedupe, and optionally rank and summarize.
package processor

import (
	"github.com/rs/zerolog/log"

	"hotlist_spider/internal/models"
)

type Processor struct {
	normalizer *Normalizer
}

func New(baseURL, topicPath string) *Processor {
	return &Processor{normalizer: NewNormalizer(baseURL, topicPath)}
}

// Process normalizes and validates every record, dropping the invalid ones.
// The result is not deduplicated.
func (p *Processor) Process(raw []models.RawRecord) []models.HotListItem {
	items := make([]models.HotListItem, 0, len(raw))
	for _, rec := range raw {
		item := p.normalizer.Normalize(rec)
		if !IsValid(item) {
			continue
		}
		items = append(items, item)
	}
	if len(raw) > 0 {
		log.Info().Int("valid", len(items)).Int("total", len(raw)).Msg("processed records")
	}
	return items
}

// Batch is Process followed by Dedupe.
func (p *Processor) Batch(raw []models.RawRecord) []models.HotListItem {
	return Dedupe(p.Process(raw))
}
