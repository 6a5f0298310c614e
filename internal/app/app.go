package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hotlist_spider/internal/config"
	"hotlist_spider/internal/db"
	"hotlist_spider/internal/extract"
	"hotlist_spider/internal/fetcher"
	"hotlist_spider/internal/models"
	"hotlist_spider/internal/processor"
	"hotlist_spider/internal/snapshot"
)

type SpiderApp struct {
	config    *config.SpiderConfig
	store     db.Store
	snapshots *snapshot.Writer
	spiders   map[string]*SourceSpider
	out       io.Writer
}

// SourceSpider runs the fetch, extract and process pipeline for one source.
// Nothing in it is shared with other sources.
type SourceSpider struct {
	source    config.SourceConfig
	fetcher   *fetcher.Fetcher
	cascade   *extract.Cascade
	processor *processor.Processor
}

// SourceResult is what one source produced in a single run.
type SourceResult struct {
	Source   string
	Fetched  bool
	Strategy string
	Records  int
	Items    []models.HotListItem
}

func NewSpiderApp(cfg *config.SpiderConfig, store db.Store) (*SpiderApp, error) {
	spiderApp := &SpiderApp{
		config:    cfg,
		store:     store,
		snapshots: snapshot.NewWriter(cfg.Snapshot),
		spiders:   make(map[string]*SourceSpider, len(cfg.Sources)),
		out:       os.Stdout,
	}

	for name, src := range cfg.Sources {
		spider, err := NewSourceSpider(cfg, src)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", name, err)
		}
		spiderApp.spiders[name] = spider
	}
	return spiderApp, nil
}

func NewSourceSpider(cfg *config.SpiderConfig, src config.SourceConfig) (*SourceSpider, error) {
	cascade, err := extract.NewCascade(extract.Options{
		BaseURL:         src.BaseURL,
		TopicPath:       cfg.Extract.TopicPath,
		LinkScanLimit:   cfg.Extract.LinkScanLimit,
		MinTitleLength:  cfg.Extract.MinTitleLength,
		DenyKeywords:    cfg.Extract.DenyKeywords,
		DenySectionExpr: cfg.Extract.DenySectionExpr,
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("source", src.Name).Strs("strategies", cascade.Strategies()).Msg("extraction cascade ready")

	return &SourceSpider{
		source: src,
		fetcher: fetcher.New(fetcher.Options{
			Headers:    cfg.RequestHeaders(),
			Timeout:    cfg.Timeout(),
			MaxRetries: cfg.Fetch.MaxRetries,
			RetryDelay: cfg.RetryDelay(),
		}),
		cascade:   cascade,
		processor: processor.New(src.BaseURL, cfg.Extract.TopicPath),
	}, nil
}

// SetOutput redirects reports, which go to stdout by default.
func (s *SpiderApp) SetOutput(w io.Writer) {
	s.out = w
}

// Collect fetches the page and returns a validated, deduplicated batch.
// A fetch that ran out of retries is treated as an empty page.
func (ss *SourceSpider) Collect(ctx context.Context) SourceResult {
	result := SourceResult{Source: ss.source.Name}
	logger := log.With().Str("source", ss.source.Name).Logger()

	doc := extract.EmptyDocument(ss.source.URL)
	resp, err := ss.fetcher.Fetch(ctx, ss.source.URL)
	switch {
	case fetcher.IsExhausted(err):
		logger.Error().Err(err).Msg("retries exhausted, no document for this run")
	case err != nil:
		logger.Error().Err(err).Msg("no document for this run")
	default:
		result.Fetched = true
		doc = extract.NewDocument(resp.URL, resp.Body)
	}

	extracted := ss.cascade.Run(doc)
	result.Strategy = extracted.Strategy
	result.Records = len(extracted.Records)
	result.Items = processor.Dedupe(ss.processor.Process(extracted.Records))

	logger.Info().
		Str("strategy", result.Strategy).
		Int("records", result.Records).
		Int("items", len(result.Items)).
		Msg("source collected")
	return result
}

// Collect runs every source in its own goroutine, then merges the batches
// in source name order and dedupes across sources.
func (s *SpiderApp) Collect(ctx context.Context) ([]SourceResult, []models.HotListItem) {
	names := s.config.SourceNames()
	results := make([]SourceResult, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		spider, ok := s.spiders[name]
		if !ok {
			results[i] = SourceResult{Source: name}
			continue
		}
		wg.Add(1)
		go func(i int, spider *SourceSpider) {
			defer wg.Done()
			results[i] = spider.Collect(ctx)
		}(i, spider)
	}
	wg.Wait()

	var merged []models.HotListItem
	for _, r := range results {
		merged = append(merged, r.Items...)
	}
	return results, processor.Dedupe(merged)
}

// RunOnce collects, persists and reports one batch. It reports false when
// no source could be fetched or nothing valid came out.
func (s *SpiderApp) RunOnce(ctx context.Context, saveJSON bool) bool {
	log.Info().Int("sources", len(s.spiders)).Msg("starting run")

	results, items := s.Collect(ctx)

	fetched := false
	for _, r := range results {
		fetched = fetched || r.Fetched
	}
	if !fetched {
		log.Error().Msg("no source could be fetched")
		return false
	}
	if len(items) == 0 {
		log.Warn().Msg("no valid items after processing")
		return false
	}

	saved, err := s.store.SaveItems(ctx, items)
	if err != nil {
		log.Error().Err(err).Int("saved", saved).Msg("saving items stopped early")
	}

	if saveJSON {
		if _, err := s.snapshots.Save(items); err != nil {
			log.Error().Err(err).Msg("failed to save snapshot")
		}
	}

	summary := processor.Summarize(items)
	top := items
	if len(top) > 5 {
		top = top[:5]
	}
	renderSummary(s.out, results, summary, top)

	log.Info().Int("items", len(items)).Int("saved", saved).Msg("run finished")
	return err == nil
}

// RunScheduled runs immediately and then every interval until ctx is done.
func (s *SpiderApp) RunScheduled(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("schedule interval must be positive, got %s", interval)
	}
	log.Info().Dur("interval", interval).Msg("starting scheduled runs")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if s.RunOnce(ctx, false) {
			log.Info().Time("next_run", time.Now().Add(interval)).Msg("run succeeded")
		} else {
			log.Warn().Time("next_run", time.Now().Add(interval)).Msg("run failed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("received stop signal, exiting")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ShowRecent prints the stored totals followed by the latest items.
func (s *SpiderApp) ShowRecent(ctx context.Context, limit int) error {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.Count == 0 {
		fmt.Fprintln(s.out, "No items stored yet.")
		return nil
	}
	items, err := s.store.RecentItems(ctx, limit)
	if err != nil {
		return err
	}
	renderStored(s.out, stats)
	renderRecent(s.out, items)
	return nil
}

func (s *SpiderApp) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = s.config.Retention.Days
	}
	return s.store.DeleteOlderThan(ctx, days)
}

func (s *SpiderApp) Close() error {
	return s.store.Close()
}
