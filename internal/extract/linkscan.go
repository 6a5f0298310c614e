package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"hotlist_spider/internal/models"
)

type linkScanStrategy struct {
	links        linkResolver
	limit        int
	minTitle     int
	denyKeywords []string
	denySection  *regexp.Regexp
}

func (s *linkScanStrategy) Name() string { return "link-scan" }

func (s *linkScanStrategy) Extract(doc *Document) ([]models.RawRecord, error) {
	seen := make(map[string]struct{})
	var records []models.RawRecord

	doc.DOM().Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		id := s.links.topicID(href)
		if id == "" || s.inDeniedSection(a) {
			return true
		}
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}

		title := strippedText(a)
		if !s.acceptTitle(title) {
			return true
		}

		records = append(records, models.RawRecord{
			models.FieldQuestionID:    id,
			models.FieldTitle:         title,
			models.FieldExcerpt:       "",
			models.FieldURL:           s.links.absolute(href),
			models.FieldHotIndex:      float64(len(records)+1) * 10,
			models.FieldAnswerCount:   0,
			models.FieldFollowerCount: 0,
		})
		return len(records) < s.limit
	})

	return records, nil
}

func (s *linkScanStrategy) acceptTitle(title string) bool {
	if utf8.RuneCountInString(title) < s.minTitle {
		return false
	}
	for _, kw := range s.denyKeywords {
		if strings.Contains(title, kw) {
			return false
		}
	}
	return true
}

// inDeniedSection reports whether a sits inside a navigation, footer or
// disclaimer block.
func (s *linkScanStrategy) inDeniedSection(a *goquery.Selection) bool {
	if s.denySection == nil {
		return false
	}
	denied := false
	a.ParentsFiltered("div, section").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if class, ok := p.Attr("class"); ok && s.denySection.MatchString(class) {
			denied = true
			return false
		}
		return true
	})
	return denied
}
