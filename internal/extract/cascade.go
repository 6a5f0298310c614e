package extract

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"hotlist_spider/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// errSkipped means a strategy found nothing it could even attempt.
var errSkipped = errors.New("strategy skipped")

type Options struct {
	BaseURL         string
	TopicPath       string
	LinkScanLimit   int
	MinTitleLength  int
	DenyKeywords    []string
	DenySectionExpr string
	Counts          CountHeuristic
}

func (o *Options) setDefaults() {
	if o.TopicPath == "" {
		o.TopicPath = "/question/"
	}
	if o.LinkScanLimit <= 0 {
		o.LinkScanLimit = 50
	}
	if o.MinTitleLength <= 0 {
		o.MinTitleLength = 5
	}
	if o.DenyKeywords == nil {
		o.DenyKeywords = []string{"辟谣", "谣言", "假消息"}
	}
	if o.DenySectionExpr == "" {
		o.DenySectionExpr = `(?i)rumor|辟谣|footer|header|nav|sidebar`
	}
	if o.Counts == nil {
		o.Counts = FirstTwoIntegers{}
	}
}

type Strategy interface {
	Name() string
	Extract(doc *Document) ([]models.RawRecord, error)
}

type Result struct {
	Strategy string
	Records  []models.RawRecord
}

// Cascade runs its strategies in order and keeps the first non-empty output.
type Cascade struct {
	strategies []Strategy
}

func NewCascade(opts Options) (*Cascade, error) {
	opts.setDefaults()

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("extract: bad base url %q: %w", opts.BaseURL, err)
	}

	topic := strings.TrimSuffix(opts.TopicPath, "/")
	idExpr, err := regexp.Compile(regexp.QuoteMeta(topic) + `/(\d+)`)
	if err != nil {
		return nil, fmt.Errorf("extract: topic path %q: %w", opts.TopicPath, err)
	}

	denySection, err := regexp.Compile(opts.DenySectionExpr)
	if err != nil {
		return nil, fmt.Errorf("extract: deny section expression: %w", err)
	}

	links := linkResolver{base: base, topicPath: opts.TopicPath, idExpr: idExpr}

	return &Cascade{
		strategies: []Strategy{
			&embeddedStrategy{links: links},
			newSelectorStrategy(links, opts.Counts),
			&linkScanStrategy{
				links:        links,
				limit:        opts.LinkScanLimit,
				minTitle:     opts.MinTitleLength,
				denyKeywords: opts.DenyKeywords,
				denySection:  denySection,
			},
		},
	}, nil
}

func (c *Cascade) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

func (c *Cascade) Extract(doc *Document) []models.RawRecord {
	return c.Run(doc).Records
}

// Run is Extract plus the name of the strategy that produced the records.
func (c *Cascade) Run(doc *Document) Result {
	if doc.IsEmpty() {
		log.Warn().Msg("empty document, nothing to extract")
		return Result{}
	}
	for _, s := range c.strategies {
		records, err := runStrategy(s, doc)
		switch {
		case errors.Is(err, errSkipped):
			log.Debug().Str("strategy", s.Name()).Msg("strategy skipped")
			continue
		case err != nil:
			log.Warn().Err(err).Str("strategy", s.Name()).Msg("strategy failed")
			continue
		case len(records) == 0:
			log.Info().Str("strategy", s.Name()).Msg("strategy found no records, falling back")
			continue
		}
		log.Info().Str("strategy", s.Name()).Int("count", len(records)).Msg("extracted records")
		return Result{Strategy: s.Name(), Records: records}
	}
	log.Warn().Str("url", doc.URL).Msg("all extraction strategies came up empty")
	return Result{}
}

func runStrategy(s Strategy, doc *Document) (records []models.RawRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Extract(doc)
}

type linkResolver struct {
	base      *url.URL
	topicPath string
	idExpr    *regexp.Regexp
}

// topicID returns the numeric identity in href, or "" when href does not
// point at a topic.
func (l linkResolver) topicID(href string) string {
	if !strings.Contains(href, l.topicPath) {
		return ""
	}
	m := l.idExpr.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

func (l linkResolver) absolute(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if l.base == nil || l.base.Host == "" {
		return ref.String()
	}
	return l.base.ResolveReference(ref).String()
}

var reWhitespace = regexp.MustCompile(`\s+`)

func normalizeText(text string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}

// strippedText trims every text node under sel and joins them with nothing,
// so markup split across child elements reads as one run of text.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return normalizeText(b.String())
}
