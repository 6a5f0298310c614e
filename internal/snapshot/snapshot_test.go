package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hotlist_spider/internal/config"
	"hotlist_spider/internal/models"
)

func TestWriterSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(config.SnapshotConfig{Dir: dir, Prefix: "zhihu_hot"})
	w.now = func() time.Time { return time.Date(2024, 3, 9, 8, 7, 6, 0, time.Local) }

	path, err := w.Save([]models.HotListItem{
		{QuestionID: "1", Title: "A&B <热榜>", URL: "https://www.zhihu.com/question/1", HotIndex: 12.5},
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "zhihu_hot_20240309_080706.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "A&B <热榜>"), "html must not be escaped")
	require.Contains(t, string(data), "\n  {")

	var got []models.HotListItem
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	require.Equal(t, "1", got[0].QuestionID)
	require.Equal(t, 12.5, got[0].HotIndex)
}

func TestWriterSaveEmptyBatch(t *testing.T) {
	w := NewWriter(config.SnapshotConfig{Dir: t.TempDir()})

	path, err := w.Save(nil)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(filepath.Base(path), "hotlist_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(data))
}
