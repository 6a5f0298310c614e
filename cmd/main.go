package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotlist_spider/internal/app"
	"hotlist_spider/internal/config"
	"hotlist_spider/internal/db"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "hotlist",
	Short:         "hotlist collects the trending topic list and stores it.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	onceCmd.Flags().Bool("json", false, "also write the batch to a JSON snapshot")
	scheduleCmd.Flags().Duration("interval", 0, "time between runs (default from config)")
	showCmd.Flags().Int("limit", 20, "number of items to show")
	cleanupCmd.Flags().Int("days", 0, "delete items older than this many days (default from config)")

	rootCmd.AddCommand(onceCmd, scheduleCmd, showCmd, cleanupCmd)
}

// withApp loads config, sets up logging and opens the store around fn.
func withApp(ctx context.Context, fn func(*app.SpiderApp, *config.SpiderConfig) error) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	closer, err := app.SetupLogging(cfg.Log, verbose)
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}

	spiderApp, err := app.NewSpiderApp(cfg, store)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() {
		if err := spiderApp.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()

	return fn(spiderApp, cfg)
}

var errRunFailed = errors.New("run produced no items")

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run the spider once.",
	RunE: func(cmd *cobra.Command, args []string) error {
		saveJSON, _ := cmd.Flags().GetBool("json")
		return withApp(cmd.Context(), func(a *app.SpiderApp, _ *config.SpiderConfig) error {
			if !a.RunOnce(cmd.Context(), saveJSON) {
				return errRunFailed
			}
			return nil
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the spider on a fixed interval until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		return withApp(cmd.Context(), func(a *app.SpiderApp, cfg *config.SpiderConfig) error {
			if interval <= 0 {
				interval = cfg.Interval()
			}
			return a.RunScheduled(cmd.Context(), interval)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the most recently stored items.",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd.Context(), func(a *app.SpiderApp, _ *config.SpiderConfig) error {
			return a.ShowRecent(cmd.Context(), limit)
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete stored items past the retention window.",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		return withApp(cmd.Context(), func(a *app.SpiderApp, cfg *config.SpiderConfig) error {
			if days <= 0 {
				days = cfg.Retention.Days
			}
			deleted, err := a.Cleanup(cmd.Context(), days)
			if err != nil {
				return err
			}
			log.Info().Int64("deleted", deleted).Int("days", days).Msg("cleanup finished")
			return nil
		})
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("hotlist failed")
		stop()
		os.Exit(1)
	}
}
