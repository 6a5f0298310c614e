package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotlist_spider/internal/app"
	"hotlist_spider/internal/config"
	"hotlist_spider/robot/internal/probe"
)

const shownLinks = 10

var (
	configPath string
	sourceName string
	opts       probe.Options
)

var rootCmd = &cobra.Command{
	Use:          "robot",
	Short:        "robot fetches the hot list page once and reports its structure.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		closer, err := app.SetupLogging(cfg.Log, true)
		if err != nil {
			return err
		}
		defer closer.Close()

		src, ok := cfg.Sources[sourceName]
		if !ok {
			return fmt.Errorf("unknown source %q", sourceName)
		}

		report, err := probe.New(cfg, src, opts).Run(cmd.Context())
		if err != nil {
			return err
		}
		printReport(os.Stdout, report)
		if len(report.TopicLinks) == 0 {
			return fmt.Errorf("no topic links found on %s", report.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.Flags().StringVarP(&sourceName, "source", "s", "zhihu", "source to probe")
	rootCmd.Flags().StringVar(&opts.SavePath, "save", "zhihu_hot_debug.html", "where to save the raw page, empty to skip")
	rootCmd.Flags().BoolVar(&opts.RandomUserAgent, "random-ua", false, "use a random user agent")
	rootCmd.Flags().BoolVar(&opts.SkipRobots, "skip-robots", false, "do not check robots.txt")
}

func printReport(out io.Writer, r *probe.Report) {
	fmt.Fprintf(out, "Page: %s (status %d, %d chars)\n", r.URL, r.StatusCode, r.Size)
	if r.SavedTo != "" {
		fmt.Fprintf(out, "Saved to: %s\n", r.SavedTo)
	}
	if r.RobotsChecked {
		fmt.Fprintf(out, "Allowed by robots.txt: %t\n", r.RobotsAllowed)
	}
	if r.ReadableTitle != "" {
		fmt.Fprintf(out, "Readable title: %s\n", r.ReadableTitle)
	}
	strategy := r.Strategy
	if strategy == "" {
		strategy = "none"
	}
	fmt.Fprintf(out, "Extraction order: %s\n", strings.Join(r.Cascade, " > "))
	fmt.Fprintf(out, "Extraction strategy: %s (%d records)\n\n", strategy, r.Records)

	if len(r.ClassNames) > 0 {
		fmt.Fprintln(out, "Candidate class names:")
		for _, cls := range r.ClassNames {
			fmt.Fprintf(out, "  - %s\n", cls)
		}
		fmt.Fprintln(out)
	}

	links := table.NewWriter()
	links.SetOutputMirror(out)
	links.SetTitle(fmt.Sprintf("Topic links (%d)", len(r.TopicLinks)))
	links.AppendHeader(table.Row{"#", "Title", "Href"})
	for i, l := range r.TopicLinks {
		if i == shownLinks {
			links.AppendFooter(table.Row{"", fmt.Sprintf("... %d more", len(r.TopicLinks)-shownLinks), ""})
			break
		}
		links.AppendRow(table.Row{i + 1, l.Title, l.Href})
	}
	links.SetStyle(table.StyleRounded)
	links.Render()

	scripts := table.NewWriter()
	scripts.SetOutputMirror(out)
	scripts.SetTitle("Scripts with data markers")
	scripts.AppendHeader(table.Row{"Script", "Marker", "Preview"})
	for _, s := range r.DataScripts {
		scripts.AppendRow(table.Row{s.Index, s.Marker, s.Preview})
	}
	scripts.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})
	scripts.SetStyle(table.StyleRounded)
	scripts.Render()

	if len(r.ListStructures) == 0 {
		fmt.Fprintln(out, "No obvious list structures found")
		return
	}
	fmt.Fprintln(out, "List structures:")
	for _, l := range r.ListStructures {
		fmt.Fprintf(out, "  - %s\n", l)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("probe failed")
		os.Exit(1)
	}
}
