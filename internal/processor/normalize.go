package processor

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"hotlist_spider/internal/coerce"
	"hotlist_spider/internal/models"
)

var (
	reTag        = regexp.MustCompile(`<[^>]+>`)
	reWhitespace = regexp.MustCompile(`\s+`)
	// Letters, digits, underscore, CJK ideographs, whitespace and basic
	// ASCII/CJK punctuation survive. Everything else is dropped.
	reDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s\x{4e00}-\x{9fff}.,!?;:()（）【】“”‘’"'—\-]`)
)

// CleanText strips markup, folds full-width forms to their narrow
// equivalents, removes characters outside the allow-list and collapses
// whitespace.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = reTag.ReplaceAllString(text, "")
	text = width.Fold.String(text)
	text = reDisallowed.ReplaceAllString(text, "")
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}

type Normalizer struct {
	BaseURL   string
	TopicPath string
}

func NewNormalizer(baseURL, topicPath string) *Normalizer {
	if topicPath == "" {
		topicPath = "/question/"
	}
	return &Normalizer{BaseURL: strings.TrimRight(baseURL, "/"), TopicPath: topicPath}
}

// Normalize never fails: uncoercible values become zero values.
func (n *Normalizer) Normalize(raw models.RawRecord) models.HotListItem {
	item := models.HotListItem{
		QuestionID:    coerce.String(raw[models.FieldQuestionID]),
		Title:         CleanText(coerce.String(raw[models.FieldTitle])),
		Excerpt:       CleanText(coerce.String(raw[models.FieldExcerpt])),
		URL:           coerce.String(raw[models.FieldURL]),
		HotIndex:      coerce.Float(raw[models.FieldHotIndex]),
		AnswerCount:   coerce.Int(raw[models.FieldAnswerCount]),
		FollowerCount: coerce.Int(raw[models.FieldFollowerCount]),
	}
	if item.URL == "" && item.QuestionID != "" {
		item.URL = n.BaseURL + n.TopicPath + item.QuestionID
	}
	return item
}
