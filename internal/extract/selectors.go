package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"hotlist_spider/internal/models"
)

var (
	containerSelectors = []string{
		`div[class*="HotList"]`,
		`div[class*="Topstory"]`,
		`section[class*="Hot"]`,
	}

	itemSelectors = []string{
		`div[class*="HotItem"]`,
		`div[class*="Card"]`,
		`article`,
		`div[data-za-module="HotItem"]`,
	}

	headingSelectors = []string{
		`h2`, `h3`, `h4`,
		`[class*="title"]`,
		`[class*="Title"]`,
	}

	excerptSelectors = []string{
		`p`,
		`div[class*="excerpt"]`,
		`div[class*="Excerpt"]`,
		`div[class*="description"]`,
	}
)

type selectorStrategy struct {
	links          linkResolver
	counts         CountHeuristic
	titleSelectors []string
}

func newSelectorStrategy(links linkResolver, counts CountHeuristic) *selectorStrategy {
	titles := append([]string{}, headingSelectors...)
	titles = append(titles, fmt.Sprintf(`a[href*=%q]`, links.topicPath))
	return &selectorStrategy{links: links, counts: counts, titleSelectors: titles}
}

func (s *selectorStrategy) Name() string { return "dom-selectors" }

func (s *selectorStrategy) Extract(doc *Document) ([]models.RawRecord, error) {
	container := firstMatch(doc.DOM().Selection, containerSelectors)
	if container == nil {
		return nil, errSkipped
	}

	for _, sel := range itemSelectors {
		items := container.Find(sel)
		if items.Length() == 0 {
			continue
		}
		log.Debug().Str("selector", sel).Int("items", items.Length()).Msg("found item elements")

		var records []models.RawRecord
		items.Each(func(i int, item *goquery.Selection) {
			if rec, ok := s.fromItem(item, i); ok {
				records = append(records, rec)
			}
		})
		if len(records) > 0 {
			return records, nil
		}
	}
	return nil, nil
}

func firstMatch(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := root.Find(sel).First(); found.Length() > 0 {
			log.Debug().Str("selector", sel).Msg("found container")
			return found
		}
	}
	return nil
}

func firstText(item *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := strippedText(item.Find(sel).First()); text != "" {
			return text
		}
	}
	return ""
}

func (s *selectorStrategy) fromItem(item *goquery.Selection, index int) (models.RawRecord, bool) {
	title := firstText(item, s.titleSelectors)
	if title == "" {
		return nil, false
	}

	var id, link string
	item.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if id = s.links.topicID(href); id != "" {
			link = s.links.absolute(href)
			return false
		}
		return true
	})
	if id == "" {
		return nil, false
	}

	answers, followers := s.counts.Counts(item.Text())

	return models.RawRecord{
		models.FieldQuestionID:    id,
		models.FieldTitle:         title,
		models.FieldExcerpt:       firstText(item, excerptSelectors),
		models.FieldURL:           link,
		models.FieldHotIndex:      float64(index+1) * 100,
		models.FieldAnswerCount:   answers,
		models.FieldFollowerCount: followers,
	}, true
}
