package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"hotlist_spider/internal/coerce"
	"hotlist_spider/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/titanous/json5"
)

// Matches `window.__INITIAL_STATE__ = {...};` style bootstrapping scripts.
var reAssignment = regexp.MustCompile(`(?s)^\s*(?:(?:var|let|const)\s+)?[\w$.]+\s*=\s*(\{.*\})\s*;?\s*$`)

var reDecimal = regexp.MustCompile(`\d+(?:\.\d+)?`)

type path []string

func paths(specs ...string) []path {
	out := make([]path, len(specs))
	for i, s := range specs {
		out[i] = strings.Split(s, ".")
	}
	return out
}

var (
	payloadRoots = paths("", "initialState")

	containerPaths = paths(
		"topstory.hotList",
		"topstory.data",
		"topstory.list",
		"hotList",
		"hot",
	)
)

type fieldAlias struct {
	field   string
	aliases []path
}

// First present alias wins.
var targetAliases = []fieldAlias{
	{models.FieldQuestionID, paths("id", "questionId", "question_id")},
	{models.FieldTitle, paths("title", "titleArea.text")},
	{models.FieldExcerpt, paths("excerpt", "excerptArea.text")},
	{models.FieldAnswerCount, paths("answerCount", "answer_count")},
	{models.FieldFollowerCount, paths("followerCount", "follower_count")},
	{models.FieldHotIndex, paths("hotIndex", "hot_index")},
}

var (
	urlAliases     = paths("url", "link.url")
	metricsAliases = paths("metricsArea.text", "detailText")
)

type embeddedStrategy struct {
	links linkResolver
}

func (s *embeddedStrategy) Name() string { return "embedded-data" }

func (s *embeddedStrategy) Extract(doc *Document) ([]models.RawRecord, error) {
	payloads := findPayloads(doc.DOM())
	if len(payloads) == 0 {
		return nil, errSkipped
	}
	for _, payload := range payloads {
		if records := s.fromPayload(payload); len(records) > 0 {
			return records, nil
		}
	}
	return nil, nil
}

func findPayloads(dom *goquery.Document) []map[string]any {
	var payloads []map[string]any
	dom.Find("script").Each(func(i int, script *goquery.Selection) {
		text := strings.TrimSpace(script.Text())
		if text == "" {
			return
		}

		typ := strings.ToLower(script.AttrOr("type", ""))
		id := script.AttrOr("id", "")

		var value any
		switch {
		case strings.Contains(typ, "json") || id == "js-initialData":
			dec := json.NewDecoder(bytes.NewReader([]byte(text)))
			dec.UseNumber()
			if err := dec.Decode(&value); err != nil {
				log.Debug().Err(err).Int("script", i).Msg("malformed json payload")
				return
			}
		default:
			m := reAssignment.FindStringSubmatch(text)
			if m == nil {
				return
			}
			dec := json5.NewDecoder(strings.NewReader(m[1]))
			dec.UseNumber()
			if err := dec.Decode(&value); err != nil {
				log.Debug().Err(err).Int("script", i).Msg("malformed script payload")
				return
			}
			value = jsonNumbers(value)
		}

		if obj, ok := value.(map[string]any); ok {
			payloads = append(payloads, obj)
		}
	})
	return payloads
}

// jsonNumbers rewrites json5 numbers as json.Number so large ids keep
// every digit through coercion.
func jsonNumbers(v any) any {
	switch t := v.(type) {
	case json5.Number:
		return json.Number(t)
	case map[string]any:
		for k, e := range t {
			t[k] = jsonNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = jsonNumbers(e)
		}
	}
	return v
}

func (s *embeddedStrategy) fromPayload(payload map[string]any) []models.RawRecord {
	for _, rootPath := range payloadRoots {
		root, ok := lookup(payload, rootPath).(map[string]any)
		if !ok {
			continue
		}
		for _, container := range containerPaths {
			list, ok := lookup(root, container).([]any)
			if !ok {
				continue
			}
			var records []models.RawRecord
			for _, element := range list {
				if rec, ok := s.fromElement(element); ok {
					records = append(records, rec)
				}
			}
			if len(records) > 0 {
				log.Debug().Strs("container", container).Int("count", len(records)).Msg("found embedded hot list")
				return records
			}
		}
	}
	return nil
}

func (s *embeddedStrategy) fromElement(element any) (models.RawRecord, bool) {
	item, ok := element.(map[string]any)
	if !ok {
		return nil, false
	}
	target, ok := item["target"].(map[string]any)
	if !ok {
		target = item
	}

	rec := models.RawRecord{}
	for _, fa := range targetAliases {
		if v, ok := firstPresent(target, fa.aliases); ok {
			rec[fa.field] = v
		}
	}

	if coerce.Float(rec[models.FieldHotIndex]) == 0 {
		if score := metricsScore(target, item); score > 0 {
			rec[models.FieldHotIndex] = score
		}
	}

	if v, ok := firstPresent(target, urlAliases); ok {
		if link := coerce.String(v); s.links.topicID(link) != "" {
			rec[models.FieldURL] = s.links.absolute(link)
		}
	}

	if coerce.String(rec[models.FieldQuestionID]) == "" || coerce.String(rec[models.FieldTitle]) == "" {
		return nil, false
	}
	return rec, true
}

// metricsScore takes the largest number in a metrics caption such as
// "1234 万热度".
func metricsScore(target, item map[string]any) float64 {
	text, ok := firstPresent(target, metricsAliases)
	if !ok {
		text, ok = firstPresent(item, metricsAliases)
	}
	if !ok {
		return 0
	}
	var best float64
	for _, n := range reDecimal.FindAllString(coerce.String(text), -1) {
		if f := coerce.Float(n); f > best {
			best = f
		}
	}
	return best
}

func firstPresent(obj map[string]any, aliases []path) (any, bool) {
	for _, p := range aliases {
		if v := lookup(obj, p); v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookup(obj map[string]any, p path) any {
	var cur any = obj
	for _, key := range p {
		if key == "" {
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}
