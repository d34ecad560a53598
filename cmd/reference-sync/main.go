// Package main provides the reference-sync CLI: it pulls the game-odds feed
// once and writes the market and team directory files the refresh pipeline
// loads at startup.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/underdog-edge/internal/config"
	"github.com/yourusername/underdog-edge/internal/datasource"
	"github.com/yourusername/underdog-edge/internal/logger"
	"github.com/yourusername/underdog-edge/internal/models"
	"github.com/yourusername/underdog-edge/internal/refdata"
)

var (
	configFile   string
	sessionToken string
	marketOut    string
	teamOut      string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&sessionToken, "token", "", "Feed session token (overrides config)")
	rootCmd.Flags().StringVar(&marketOut, "market-out", "market_config.json", "Output path for the market directory")
	rootCmd.Flags().StringVar(&teamOut, "team-out", "team_config.json", "Output path for the team directory")
}

var rootCmd = &cobra.Command{
	Use:   "reference-sync",
	Short: "Rebuild the market and team directory files from the feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if sessionToken != "" {
		cfg.Feed.SessionToken = sessionToken
	}

	appLogger := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.Feed.FeedTimeout()
	httpCfg.MaxRetries = cfg.Feed.MaxRetries
	httpCfg.RateLimit = cfg.Feed.RateLimit
	httpCfg.CircuitBreakerMax = cfg.Feed.CircuitBreakerMax
	httpClient := datasource.NewHTTPClient(httpCfg, appLogger)
	defer httpClient.Close()

	feedClient := datasource.NewGameOddsClient(httpClient, cfg.Feed.URL, appLogger)
	feed, err := feedClient.FetchFeed(ctx, cfg.Feed.SessionToken)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	sources := make([]models.MarketSource, 0, len(feed.MarketSources))
	for _, src := range feed.MarketSources {
		sources = append(sources, models.MarketSource{ID: src.ID, Name: src.Name})
	}
	markets := refdata.BuildMarketDirectory(sources)
	if err := refdata.SaveMarketDirectory(marketOut, markets); err != nil {
		return err
	}

	teams := make([]models.Team, 0, len(feed.Teams))
	for _, rt := range feed.Teams {
		teams = append(teams, models.Team{
			ID:           rt.ID,
			Name:         rt.Name,
			Abbreviation: rt.Abbreviation,
			EventID:      rt.EventID,
			LeagueID:     rt.LeagueID,
		})
	}
	directory := refdata.BuildTeamDirectory(teams)
	if err := refdata.SaveTeamDirectory(teamOut, directory); err != nil {
		return err
	}

	appLogger.WithFields(map[string]interface{}{
		"markets": len(markets),
		"teams":   len(directory),
	}).Info("Reference directories written")

	return nil
}
