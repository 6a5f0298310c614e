package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"hotlist_spider/internal/config"
	"hotlist_spider/internal/models"
)

const timeLayout = "20060102_150405"

// Writer dumps finished batches to timestamped JSON files.
type Writer struct {
	dir    string
	prefix string
	now    func() time.Time
}

func NewWriter(cfg config.SnapshotConfig) *Writer {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "hotlist"
	}
	return &Writer{dir: dir, prefix: prefix, now: time.Now}
}

// Save writes items to <dir>/<prefix>_YYYYMMDD_HHMMSS.json and returns the
// file path.
func (w *Writer) Save(items []models.HotListItem) (string, error) {
	if items == nil {
		items = []models.HotListItem{}
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", w.prefix, w.now().Format(timeLayout))
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(items)).Msg("saved snapshot")
	return path, nil
}
