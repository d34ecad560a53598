// Package main provides the refresh CLI: it runs one EV cycle for a league
// (or keeps running on a schedule), prints the ranked report, and writes the
// odds snapshot artifact.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/underdog-edge/internal/config"
	"github.com/yourusername/underdog-edge/internal/database"
	"github.com/yourusername/underdog-edge/internal/datasource"
	"github.com/yourusername/underdog-edge/internal/health"
	"github.com/yourusername/underdog-edge/internal/logger"
	"github.com/yourusername/underdog-edge/internal/metrics"
	"github.com/yourusername/underdog-edge/internal/oddsmath"
	"github.com/yourusername/underdog-edge/internal/refdata"
	"github.com/yourusername/underdog-edge/internal/repository"
	"github.com/yourusername/underdog-edge/internal/scheduler"
	"github.com/yourusername/underdog-edge/internal/service"
	"github.com/yourusername/underdog-edge/internal/snapshot"
)

var (
	configFile   string
	league       string
	scheduleSpec string
	sessionToken string
	marketFile   string
	teamFile     string
	manualOdds   []string
	showBooks    bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&league, "league", "l", "nhl", "League to refresh")
	rootCmd.Flags().StringVar(&scheduleSpec, "schedule", "", "Cron or @every spec; empty runs a single cycle")
	rootCmd.Flags().StringVar(&sessionToken, "token", "", "Feed session token (overrides config)")
	rootCmd.Flags().StringVar(&marketFile, "market-file", "", "Market directory JSON (default: rebuild from feed)")
	rootCmd.Flags().StringVar(&teamFile, "team-file", "", "Team directory JSON (default: rebuild from feed)")
	rootCmd.Flags().StringArrayVar(&manualOdds, "manual", nil, "Manual override teamID=teamOdds/oppOdds, repeatable")
	rootCmd.Flags().BoolVar(&showBooks, "show-books", false, "Print per-book no-vig detail for each team")
}

var rootCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rank a daily underdog poll by expected value",
	Long: `Fetches the game-odds feed and the daily underdog poll, computes no-vig
fair probabilities across books, and ranks poll entries by expected value.`,
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
	cfg, err := loadConfigWithSecrets(configFile)
	if err != nil {
		return err
	}
	if sessionToken != "" {
		cfg.Feed.SessionToken = sessionToken
	}

	appLogger := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				appLogger.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	state, err := buildState(cfg, appLogger)
	if err != nil {
		return err
	}

	refresher, err := buildRefreshService(cfg, appLogger)
	if err != nil {
		return err
	}

	repo, closeDB, err := buildRepository(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeDB()

	cycle := func(ctx context.Context, league string) error {
		return runCycle(ctx, cfg, refresher, repo, state, league, appLogger)
	}

	if scheduleSpec == "" {
		return cycle(ctx, league)
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Port:        os.Getenv("HEALTH_PORT"),
		MaxCycleAge: 24 * time.Hour,
		Logger:      appLogger,
	})
	healthServer.Start(ctx)

	tracked := func(ctx context.Context, league string) error {
		err := cycle(ctx, league)
		healthServer.RecordCycle(err)
		return err
	}

	sched := scheduler.NewScheduler(tracked, appLogger)
	if err := sched.ScheduleLeague(scheduleSpec, league, cfg.Feed.FeedTimeout()+30*time.Second); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	<-ctx.Done()
	return nil
}

func runCycle(
	ctx context.Context,
	cfg *config.Config,
	refresher *service.RefreshService,
	repo *repository.ReportRepository,
	state service.RefreshState,
	league string,
	appLogger *logrus.Logger,
) error {
	result, err := refresher.Refresh(ctx, league, state)
	if err != nil {
		return fmt.Errorf("refresh cycle failed: %w", err)
	}

	if err := service.FormatReport(os.Stdout, result.Report); err != nil {
		return err
	}
	if showBooks {
		teams := result.Teams
		for teamID, fp := range result.FairProbs {
			name := strconv.Itoa(teamID)
			if team, ok := teams[teamID]; ok {
				name = team.Name
			}
			fmt.Fprintln(os.Stdout)
			if err := service.FormatBookDetail(os.Stdout, name, fp); err != nil {
				return err
			}
		}
	}

	if cfg.Snapshot.Enabled {
		snap, err := snapshot.Build(league, result.Events, result.Markets, time.Now())
		if err != nil {
			return fmt.Errorf("failed to build snapshot: %w", err)
		}
		if err := snapshot.Write(cfg.Snapshot.Path, snap); err != nil {
			return err
		}
		appLogger.WithField("path", cfg.Snapshot.Path).Info("Snapshot written")
	}

	if repo != nil {
		if err := repo.SaveReport(ctx, result.Report); err != nil {
			appLogger.WithError(err).Error("Failed to persist cycle report")
		}
	}

	return nil
}

func loadConfigWithSecrets(path string) (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, fmt.Errorf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildState(cfg *config.Config, appLogger *logrus.Logger) (service.RefreshState, error) {
	state := service.RefreshState{}

	if marketFile != "" {
		markets, err := refdata.LoadMarketDirectory(marketFile)
		if err != nil {
			return state, err
		}
		state.Markets = markets
	}
	if teamFile != "" {
		teams, err := refdata.LoadTeamDirectory(teamFile)
		if err != nil {
			return state, err
		}
		state.Teams = teams
	}

	manual, err := parseManualOverrides(manualOdds)
	if err != nil {
		return state, err
	}
	state.ManualProbs = manual
	if len(manual) > 0 {
		appLogger.WithField("count", len(manual)).Info("Manual probability overrides active")
	}

	return state, nil
}

// parseManualOverrides turns teamID=teamOdds/oppOdds flags into a fair
// probability overlay via the same devig routine used for book quotes.
func parseManualOverrides(entries []string) (map[int]float64, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	manual := make(map[int]float64, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid manual override %q: want teamID=teamOdds/oppOdds", entry)
		}
		teamID, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid team id in %q: %w", entry, err)
		}
		odds := strings.SplitN(parts[1], "/", 2)
		if len(odds) != 2 {
			return nil, fmt.Errorf("invalid manual override %q: want teamID=teamOdds/oppOdds", entry)
		}
		teamOdds, err := strconv.Atoi(strings.TrimPrefix(odds[0], "+"))
		if err != nil {
			return nil, fmt.Errorf("invalid odds in %q: %w", entry, err)
		}
		oppOdds, err := strconv.Atoi(strings.TrimPrefix(odds[1], "+"))
		if err != nil {
			return nil, fmt.Errorf("invalid odds in %q: %w", entry, err)
		}
		prob, err := oddsmath.PairFairProb(teamOdds, oppOdds)
		if err != nil {
			return nil, fmt.Errorf("invalid manual override %q: %w", entry, err)
		}
		manual[teamID] = prob
	}
	return manual, nil
}

func buildRefreshService(cfg *config.Config, appLogger *logrus.Logger) (*service.RefreshService, error) {
	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.Feed.FeedTimeout()
	httpCfg.MaxRetries = cfg.Feed.MaxRetries
	httpCfg.RateLimit = cfg.Feed.RateLimit
	httpCfg.CircuitBreakerMax = cfg.Feed.CircuitBreakerMax
	httpClient := datasource.NewHTTPClient(httpCfg, appLogger)

	feed := datasource.NewGameOddsClient(httpClient, cfg.Feed.URL, appLogger)
	poll := datasource.NewPollClient(httpClient, cfg.Poll.IDsURL, cfg.Poll.ProxyURL, cfg.Poll.APIURL, cfg.Poll.CacheTTL(), appLogger)

	normalizer, err := service.NewEventNormalizer(cfg.BetTypeTable(), cfg.App.Timezone, appLogger)
	if err != nil {
		return nil, err
	}

	tokens := datasource.StaticToken(cfg.Feed.SessionToken)
	return service.NewRefreshService(tokens, feed, poll, normalizer, cfg.Leagues, appLogger), nil
}

func buildRepository(ctx context.Context, cfg *config.Config, appLogger *logrus.Logger) (*repository.ReportRepository, func(), error) {
	if !cfg.Database.Enabled {
		return nil, func() {}, nil
	}
	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	appLogger.Info("Cycle history store connected")
	return repository.NewReportRepository(db), db.Close, nil
}
