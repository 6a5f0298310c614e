package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly"
	"github.com/gocolly/colly/extensions"
	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"

	"hotlist_spider/internal/config"
	"hotlist_spider/internal/extract"
)

var (
	classKeywords = []string{"hot", "list", "item", "question"}
	dataMarkers   = []string{"hotList", "hot_list", "topstory", "initialState", "INITIAL_STATE", "window.__", "data"}
)

const (
	minLinkTitle  = 6
	maxTitleShown = 50
	scriptPreview = 200
	minListItems  = 6
)

type Link struct {
	Href  string
	Title string
}

type ScriptHit struct {
	Index   int
	Marker  string
	Preview string
}

// Report describes what the probe saw on the page.
type Report struct {
	URL            string
	StatusCode     int
	Size           int
	SavedTo        string
	RobotsChecked  bool
	RobotsAllowed  bool
	ReadableTitle  string
	ClassNames     []string
	TopicLinks     []Link
	DataScripts    []ScriptHit
	ListStructures []string
	Strategy       string
	Records        int
	// Cascade lists the extraction strategies in the order they are tried.
	Cascade []string
}

type Options struct {
	// RandomUserAgent replaces the configured user agent with a random one.
	RandomUserAgent bool
	// SavePath receives the raw HTML when set.
	SavePath string
	// SkipRobots disables the robots.txt check.
	SkipRobots bool
}

type Probe struct {
	cfg       *config.SpiderConfig
	source    config.SourceConfig
	opts      Options
	collector *colly.Collector
	client    *http.Client
}

func New(cfg *config.SpiderConfig, source config.SourceConfig, opts Options) *Probe {
	c := colly.NewCollector(colly.UserAgent(cfg.Fetch.UserAgent))
	c.SetRequestTimeout(cfg.Timeout())

	headers := cfg.RequestHeaders()
	if opts.RandomUserAgent {
		extensions.RandomUserAgent(c)
		delete(headers, "User-Agent")
	}
	c.OnRequest(func(r *colly.Request) {
		for k, v := range headers {
			r.Headers.Set(k, v)
		}
	})

	return &Probe{
		cfg:       cfg,
		source:    source,
		opts:      opts,
		collector: c,
		client:    &http.Client{Timeout: cfg.Timeout()},
	}
}

// Run fetches the source page once and analyzes its structure.
func (p *Probe) Run(ctx context.Context) (*Report, error) {
	var (
		body   []byte
		status int
		final  string
	)
	p.collector.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
		final = r.Request.URL.String()
	})

	log.Info().Str("url", p.source.URL).Msg("fetching page")
	if err := p.collector.Visit(p.source.URL); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p.source.URL, err)
	}
	if body == nil {
		return nil, errors.New("no response body")
	}

	cascade, err := extract.NewCascade(extract.Options{
		BaseURL:         p.source.BaseURL,
		TopicPath:       p.cfg.Extract.TopicPath,
		LinkScanLimit:   p.cfg.Extract.LinkScanLimit,
		MinTitleLength:  p.cfg.Extract.MinTitleLength,
		DenyKeywords:    p.cfg.Extract.DenyKeywords,
		DenySectionExpr: p.cfg.Extract.DenySectionExpr,
	})
	if err != nil {
		return nil, err
	}

	report := Analyze(final, body, p.cfg.Extract.TopicPath, cascade)
	report.StatusCode = status

	if p.opts.SavePath != "" {
		if err := os.WriteFile(p.opts.SavePath, body, 0o644); err != nil {
			log.Warn().Err(err).Str("path", p.opts.SavePath).Msg("failed to save page")
		} else {
			report.SavedTo = p.opts.SavePath
		}
	}

	if !p.opts.SkipRobots {
		allowed, err := CheckRobots(ctx, p.client, p.source.URL, p.cfg.Fetch.UserAgent)
		if err != nil {
			log.Warn().Err(err).Msg("robots.txt check failed, ignoring")
		} else {
			report.RobotsChecked = true
			report.RobotsAllowed = allowed
		}
	}

	return report, nil
}

// CheckRobots reports whether agent may fetch pageURL according to the
// host's robots.txt.
func CheckRobots(ctx context.Context, client *http.Client, pageURL, agent string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, err
	}
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return false, fmt.Errorf("parse robots.txt: %w", err)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, agent), nil
}

// Analyze inspects body without any network access.
func Analyze(pageURL string, body []byte, topicPath string, cascade *extract.Cascade) *Report {
	report := &Report{URL: pageURL, Size: utf8.RuneCount(body)}
	if topicPath == "" {
		topicPath = "/question/"
	}

	doc := extract.NewDocument(pageURL, body)
	if dom := doc.DOM(); dom != nil {
		report.ClassNames = classNames(dom)
		report.TopicLinks = topicLinks(dom, topicPath)
		report.DataScripts = dataScripts(dom)
		report.ListStructures = listStructures(dom)
	}

	if parsed, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(bytes.NewReader(body), parsed); err == nil {
			report.ReadableTitle = strings.TrimSpace(article.Title)
		}
	}

	if cascade != nil {
		report.Cascade = cascade.Strategies()
		res := cascade.Run(doc)
		report.Strategy = res.Strategy
		report.Records = len(res.Records)
	}
	return report
}

func classNames(dom *goquery.Document) []string {
	set := map[string]struct{}{}
	dom.Find("div[class]").Each(func(_ int, s *goquery.Selection) {
		for _, cls := range strings.Fields(s.AttrOr("class", "")) {
			lower := strings.ToLower(cls)
			for _, kw := range classKeywords {
				if strings.Contains(lower, kw) {
					set[cls] = struct{}{}
					break
				}
			}
		}
	})
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func topicLinks(dom *goquery.Document, topicPath string) []Link {
	var links []Link
	dom.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, topicPath) {
			return
		}
		title := strings.TrimSpace(a.Text())
		if utf8.RuneCountInString(title) < minLinkTitle {
			return
		}
		links = append(links, Link{Href: href, Title: truncate(title, maxTitleShown)})
	})
	return links
}

func dataScripts(dom *goquery.Document) []ScriptHit {
	var hits []ScriptHit
	dom.Find("script").Each(func(i int, s *goquery.Selection) {
		text := s.Text()
		if text == "" {
			return
		}
		for _, marker := range dataMarkers {
			if strings.Contains(text, marker) {
				hits = append(hits, ScriptHit{Index: i + 1, Marker: marker, Preview: truncate(text, scriptPreview)})
				return
			}
		}
	})
	return hits
}

func listStructures(dom *goquery.Document) []string {
	var found []string
	dom.Find("ul, ol").Each(func(_ int, s *goquery.Selection) {
		if n := s.Find("li").Length(); n >= minListItems {
			found = append(found, fmt.Sprintf("%s with %d li items", goquery.NodeName(s), n))
		}
	})
	dom.Find("section").Each(func(_ int, s *goquery.Selection) {
		if n := s.Find("article").Length(); n >= minListItems {
			found = append(found, fmt.Sprintf("section with %d article items", n))
		}
	})
	return found
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
