package app

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"hotlist_spider/internal/models"
)

const (
	timeFormat     = "2006-01-02 15:04:05"
	titleWidthTop  = 30
	titleWidthList = 40
)

func renderSummary(out io.Writer, results []SourceResult, summary models.Summary, top []models.HotListItem) {
	sources := table.NewWriter()
	sources.SetOutputMirror(out)
	sources.SetTitle("Sources")
	sources.AppendHeader(table.Row{"Source", "Fetched", "Strategy", "Records", "Items"})
	for _, r := range results {
		strategy := r.Strategy
		if strategy == "" {
			strategy = "-"
		}
		sources.AppendRow(table.Row{r.Source, r.Fetched, strategy, r.Records, len(r.Items)})
	}
	sources.SetStyle(table.StyleRounded)
	sources.Render()

	stats := table.NewWriter()
	stats.SetOutputMirror(out)
	stats.SetTitle("Summary")
	stats.AppendRows([]table.Row{
		{"Total", summary.Count},
		{"Average hot index", fmt.Sprintf("%.2f", summary.AvgScore)},
		{"Max hot index", fmt.Sprintf("%.2f", summary.MaxScore)},
		{"Min hot index", fmt.Sprintf("%.2f", summary.MinScore)},
		{"Collected at", summary.Timestamp.Format(timeFormat)},
	})
	stats.SetStyle(table.StyleRounded)
	stats.Render()

	if len(top) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("Top %d", len(top)))
	t.AppendHeader(table.Row{"#", "Title", "Hot index", "Answers"})
	for i, item := range top {
		t.AppendRow(table.Row{i + 1, item.Title, item.HotIndex, item.AnswerCount})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: titleWidthTop, WidthMaxEnforcer: text.Trim},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderStored(out io.Writer, stats models.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("Stored items")
	t.AppendRows([]table.Row{
		{"Total", stats.Count},
		{"Average hot index", fmt.Sprintf("%.2f", stats.AvgScore)},
		{"Max hot index", fmt.Sprintf("%.2f", stats.MaxScore)},
		{"Min hot index", fmt.Sprintf("%.2f", stats.MinScore)},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderRecent(out io.Writer, items []models.HotListItem) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("Latest %d items", len(items)))
	t.AppendHeader(table.Row{"#", "Title", "Hot index", "Answers", "Followers", "Created", "URL"})
	for i, item := range items {
		t.AppendRow(table.Row{
			i + 1,
			item.Title,
			item.HotIndex,
			item.AnswerCount,
			item.FollowerCount,
			item.CreatedTime.Local().Format(timeFormat),
			item.URL,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: titleWidthList, WidthMaxEnforcer: text.Trim},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
