package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"

type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	BaseURL string `yaml:"base_url"`
}

type DBConfig struct {
	Driver      string `yaml:"driver"`
	Connection  string `yaml:"connection"`
	Database    string `yaml:"database"`
	TimeoutSec  int    `yaml:"timeout_sec"`
	Collections struct {
		Items string `yaml:"items"`
	} `yaml:"collections"`
}

type FetchConfig struct {
	TimeoutSec    int               `yaml:"timeout_sec"`
	MaxRetries    int               `yaml:"max_retries"`
	RetryDelaySec int               `yaml:"retry_delay_sec"`
	UserAgent     string            `yaml:"user_agent"`
	Cookie        string            `yaml:"cookie"`
	Headers       map[string]string `yaml:"headers"`
}

type ExtractConfig struct {
	TopicPath       string   `yaml:"topic_path"`
	LinkScanLimit   int      `yaml:"link_scan_limit"`
	MinTitleLength  int      `yaml:"min_title_length"`
	DenyKeywords    []string `yaml:"deny_keywords"`
	DenySectionExpr string   `yaml:"deny_section_expr"`
}

type ScheduleConfig struct {
	IntervalSec int `yaml:"interval_sec"`
}

type RetentionConfig struct {
	Days int `yaml:"days"`
}

type SnapshotConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type SpiderConfig struct {
	DB        DBConfig                `yaml:"db"`
	Fetch     FetchConfig             `yaml:"fetch"`
	Extract   ExtractConfig           `yaml:"extract"`
	Sources   map[string]SourceConfig `yaml:"sources"`
	Schedule  ScheduleConfig          `yaml:"schedule"`
	Retention RetentionConfig         `yaml:"retention"`
	Snapshot  SnapshotConfig          `yaml:"snapshot"`
	Log       LogConfig               `yaml:"log"`
}

func Default() *SpiderConfig {
	cfg := &SpiderConfig{
		DB: DBConfig{
			Driver:     "mongo",
			Connection: "mongodb://localhost:27017",
			Database:   "zhihu_hot",
			TimeoutSec: 10,
		},
		Fetch: FetchConfig{
			TimeoutSec:    30,
			MaxRetries:    3,
			RetryDelaySec: 5,
			UserAgent:     DefaultUserAgent,
			Headers:       map[string]string{},
		},
		Extract: ExtractConfig{
			TopicPath:       "/question/",
			LinkScanLimit:   50,
			MinTitleLength:  5,
			DenyKeywords:    []string{"辟谣", "谣言", "假消息"},
			DenySectionExpr: `(?i)rumor|辟谣|footer|header|nav|sidebar`,
		},
		Sources: map[string]SourceConfig{
			"zhihu": {
				Name:    "zhihu",
				URL:     "https://www.zhihu.com/hot",
				BaseURL: "https://www.zhihu.com",
			},
		},
		Schedule:  ScheduleConfig{IntervalSec: 3600},
		Retention: RetentionConfig{Days: 7},
		Snapshot:  SnapshotConfig{Dir: ".", Prefix: "zhihu_hot"},
		Log:       LogConfig{Level: "info"},
	}
	cfg.DB.Collections.Items = "zhihu_hot_items"
	return cfg
}

// LoadConfig reads path on top of the defaults, then <name>.local.<ext> if it
// exists, then .env and environment overrides. A missing path is not an error.
func LoadConfig(path string) (*SpiderConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env")
	}

	cfg := Default()
	cfg.Sources = nil
	if path != "" {
		if err := readInto(path, cfg); err != nil {
			return nil, err
		}
		if err := applyLocal(localPath(path), cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	cfg.fillSources()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readInto(path string, out *SpiderConfig) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// applyLocal decodes the local file over cfg, so only keys present in it
// change, explicit zeros included. A source entry it names is decoded fresh,
// so the fields it leaves out are filled back from the entry it replaced.
func applyLocal(path string, cfg *SpiderConfig) error {
	previous := make(map[string]SourceConfig, len(cfg.Sources))
	for name, src := range cfg.Sources {
		previous[name] = src
	}
	if err := readInto(path, cfg); err != nil {
		return err
	}
	for name, src := range cfg.Sources {
		prev, ok := previous[name]
		if !ok {
			continue
		}
		if err := mergo.Merge(&src, prev); err != nil {
			return fmt.Errorf("merge source %s from %s: %w", name, path, err)
		}
		cfg.Sources[name] = src
	}
	return nil
}

func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func applyEnv(cfg *SpiderConfig) {
	if v, ok := os.LookupEnv("ZH_COOKIE"); ok && v != "" {
		cfg.Fetch.Cookie = v
	}
	if v, ok := os.LookupEnv("MONGO_URI"); ok && v != "" {
		cfg.DB.Connection = v
	}
	if v, ok := os.LookupEnv("HOTLIST_LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
}

func (c *SpiderConfig) fillSources() {
	if len(c.Sources) == 0 {
		c.Sources = Default().Sources
	}
	for name, src := range c.Sources {
		if src.Name == "" {
			src.Name = name
		}
		if src.BaseURL == "" {
			if u, err := url.Parse(src.URL); err == nil && u.Host != "" {
				src.BaseURL = u.Scheme + "://" + u.Host
			}
		}
		c.Sources[name] = src
	}
}

func (c *SpiderConfig) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("config: at least one source is required")
	}
	for name, src := range c.Sources {
		if src.URL == "" {
			return fmt.Errorf("config: source %q has no url", name)
		}
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("config: fetch.max_retries must be >= 0, got %d", c.Fetch.MaxRetries)
	}
	if c.Fetch.RetryDelaySec < 0 {
		return fmt.Errorf("config: fetch.retry_delay_sec must be >= 0, got %d", c.Fetch.RetryDelaySec)
	}
	switch c.DB.Driver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("config: unknown db.driver %q", c.DB.Driver)
	}
	return nil
}

// SourceNames returns source keys in a stable order.
func (c *SpiderConfig) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequestHeaders is the header set sent with every fetch.
func (c *SpiderConfig) RequestHeaders() map[string]string {
	headers := make(map[string]string, len(c.Fetch.Headers)+2)
	for k, v := range c.Fetch.Headers {
		headers[k] = v
	}
	if c.Fetch.UserAgent != "" {
		headers["User-Agent"] = c.Fetch.UserAgent
	}
	if c.Fetch.Cookie != "" {
		headers["Cookie"] = c.Fetch.Cookie
	}
	return headers
}

func (c *SpiderConfig) Timeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSec) * time.Second
}

func (c *SpiderConfig) RetryDelay() time.Duration {
	return time.Duration(c.Fetch.RetryDelaySec) * time.Second
}

func (c *SpiderConfig) Interval() time.Duration {
	return time.Duration(c.Schedule.IntervalSec) * time.Second
}
