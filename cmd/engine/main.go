// Package main is the entry point for the lounge session engine CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kitaa-lounge-engine/internal/config"
	"kitaa-lounge-engine/internal/model"
	"kitaa-lounge-engine/internal/pkg/db"
	"kitaa-lounge-engine/internal/repository"
	"kitaa-lounge-engine/internal/service"
	"kitaa-lounge-engine/internal/settlement"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	dirRepo := repository.NewDirectoryRepository(dbPool.Pool)
	gmRepo := repository.NewGameMasterRepository(dbPool.Pool)
	statRepo := repository.NewStatRepository(dbPool.Pool)
	sessRepo := repository.NewSessionRepository(dbPool.Pool)

	// Initialize services
	calc, err := settlement.NewCalculator(cfg.Engine.CommissionRateBps)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid commission rate")
	}

	validator := service.NewValidator(dirRepo, gmRepo, statRepo, &cfg.Engine)
	recorder := service.NewRecorder(
		validator,
		statRepo,
		calc,
		cfg.Engine.StartingRating,
		cfg.Engine.MaxCommitAttempts,
		log.Logger,
	)
	reporting := service.NewReportingService(dirRepo, statRepo, sessRepo, time.Local)

	if err := dispatch(ctx, os.Args[1], os.Args[2:], recorder, reporting); err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: engine <command> [flags]

Commands:
  record       Record a completed session and apply rating updates
  leaderboard  Show the rating leaderboard for a game
  player       Show a player's per-game statistics
  history      Show recent sessions for a player or lounge
  dashboard    Show a lounge's aggregates and today's totals
  games        List the active game catalog`)
}

func dispatch(
	ctx context.Context,
	command string,
	args []string,
	recorder *service.Recorder,
	reporting *service.ReportingService,
) error {
	switch command {
	case "record":
		return runRecord(ctx, args, recorder)
	case "leaderboard":
		return runLeaderboard(ctx, args, reporting)
	case "player":
		return runPlayer(ctx, args, reporting)
	case "history":
		return runHistory(ctx, args, reporting)
	case "dashboard":
		return runDashboard(ctx, args, reporting)
	case "games":
		return runGames(ctx, reporting)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runRecord(ctx context.Context, args []string, recorder *service.Recorder) error {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	loungeID := fs.String("lounge", "", "lounge ID")
	gameID := fs.String("game", "", "game ID")
	player1 := fs.String("player1", "", "player 1 ID")
	player2 := fs.String("player2", "", "player 2 ID")
	score1 := fs.Int("score1", 0, "player 1 score")
	score2 := fs.Int("score2", 0, "player 2 score")
	fee := fs.Int64("fee", 0, "session fee in cents")
	recordedBy := fs.String("gm", "", "recording game master ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := recorder.Record(ctx, &model.SessionRequest{
		LoungeID:     *loungeID,
		GameID:       *gameID,
		Player1ID:    *player1,
		Player2ID:    *player2,
		Player1Score: *score1,
		Player2Score: *score2,
		Fee:          *fee,
		GameMasterID: *recordedBy,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Session %s recorded: %s\n", result.SessionID, result.Result)
	fmt.Printf("  %s: %d -> %d (%+d)\n", *player1, result.P1RatingBefore, result.P1RatingAfter, result.P1RatingChange)
	fmt.Printf("  %s: %d -> %d (%+d)\n", *player2, result.P2RatingBefore, result.P2RatingAfter, result.P2RatingChange)
	fmt.Printf("  fee %s, commission %s\n", cents(result.FeeCharged), cents(result.CommissionAmount))
	return nil
}

func runLeaderboard(ctx context.Context, args []string, reporting *service.ReportingService) error {
	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	gameID := fs.String("game", "", "game ID")
	limit := fs.Int("limit", 10, "number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := reporting.Leaderboard(ctx, *gameID, *limit)
	if err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Printf("%3d. %-20s %-20s %5d  %dW/%dL (%d played)\n",
			e.Rank, e.PlayerName, e.LoungeName, e.CurrentRating, e.Wins, e.Losses, e.GamesPlayed)
	}
	return nil
}

func runPlayer(ctx context.Context, args []string, reporting *service.ReportingService) error {
	fs := flag.NewFlagSet("player", flag.ExitOnError)
	playerID := fs.String("id", "", "player ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats, err := reporting.PlayerStats(ctx, *playerID)
	if err != nil {
		return err
	}

	for _, s := range stats {
		fmt.Printf("%-12s rating %d (peak %d)  %dW/%dL/%dD of %d  win rate %d%%  paid %s\n",
			s.GameID, s.CurrentRating, s.PeakRating,
			s.Wins, s.Losses, s.Draws, s.GamesPlayed,
			s.WinRate(), cents(s.TotalPaidAsLoser))
	}
	return nil
}

func runHistory(ctx context.Context, args []string, reporting *service.ReportingService) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	playerID := fs.String("player", "", "player ID")
	loungeID := fs.String("lounge", "", "lounge ID")
	limit := fs.Int("limit", 20, "number of sessions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var sessions []*model.Session
	var err error
	switch {
	case *playerID != "":
		sessions, err = reporting.PlayerSessions(ctx, *playerID, *limit)
	case *loungeID != "":
		sessions, err = reporting.LoungeSessions(ctx, *loungeID, *limit)
	default:
		return fmt.Errorf("history requires -player or -lounge")
	}
	if err != nil {
		return err
	}

	for _, s := range sessions {
		fmt.Printf("%s  %s  %s %d-%d %s  %s (%+d/%+d)  fee %s\n",
			s.CreatedAt.Format("2006-01-02 15:04"), s.GameID,
			s.Player1ID, s.Player1Score, s.Player2Score, s.Player2ID,
			s.Result, s.P1RatingChange, s.P2RatingChange, cents(s.FeeCharged))
	}
	return nil
}

func runDashboard(ctx context.Context, args []string, reporting *service.ReportingService) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	loungeID := fs.String("lounge", "", "lounge ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dash, err := reporting.Dashboard(ctx, *loungeID)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", dash.Lounge.Name)
	fmt.Printf("  lifetime: %d sessions, %s revenue\n",
		dash.Lounge.TotalSessionsCount, cents(dash.Lounge.TotalSessionRevenue))
	fmt.Printf("  today:    %d sessions, %s revenue\n",
		dash.TodaySessions, cents(dash.TodayRevenue))
	return nil
}

func runGames(ctx context.Context, reporting *service.ReportingService) error {
	games, err := reporting.ActiveGames(ctx)
	if err != nil {
		return err
	}

	for _, g := range games {
		fmt.Printf("%-12s %-10s %s\n", g.ID, g.GameType, g.Name)
	}
	return nil
}

// cents formats a minor-unit amount as a decimal string.
func cents(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create lounges table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS lounges (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			total_sessions_count BIGINT NOT NULL DEFAULT 0,
			total_session_revenue BIGINT NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: lounges table created")

	// Migration 2: Create games catalog table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games_catalog (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			game_type VARCHAR(50) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: games_catalog table created")

	// Migration 3: Create players table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			id VARCHAR(64) PRIMARY KEY,
			lounge_id VARCHAR(64) NOT NULL REFERENCES lounges(id),
			display_name VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_players_lounge ON players(lounge_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: players table created")

	// Migration 4: Create game masters table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_masters (
			id VARCHAR(64) PRIMARY KEY,
			lounge_id VARCHAR(64) NOT NULL REFERENCES lounges(id),
			name VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: game_masters table created")

	// Migration 5: Create player game stats table with the version token
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS player_game_stats (
			player_id VARCHAR(64) NOT NULL REFERENCES players(id),
			game_id VARCHAR(64) NOT NULL REFERENCES games_catalog(id),
			current_rating INTEGER NOT NULL,
			peak_rating INTEGER NOT NULL,
			games_played INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			draws INTEGER NOT NULL DEFAULT 0,
			total_paid_as_loser BIGINT NOT NULL DEFAULT 0,
			version BIGINT NOT NULL DEFAULT 1,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (player_id, game_id)
		);
		CREATE INDEX IF NOT EXISTS idx_stats_game_rating
			ON player_game_stats(game_id, current_rating DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: player_game_stats table created")

	// Migration 6: Create sessions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR(64) PRIMARY KEY,
			lounge_id VARCHAR(64) NOT NULL REFERENCES lounges(id),
			game_id VARCHAR(64) NOT NULL REFERENCES games_catalog(id),
			player1_id VARCHAR(64) NOT NULL REFERENCES players(id),
			player2_id VARCHAR(64) NOT NULL REFERENCES players(id),
			player1_score INTEGER NOT NULL,
			player2_score INTEGER NOT NULL,
			result VARCHAR(20) NOT NULL,
			winner_id VARCHAR(64) REFERENCES players(id),
			loser_id VARCHAR(64) REFERENCES players(id),
			p1_rating_before INTEGER NOT NULL,
			p1_rating_after INTEGER NOT NULL,
			p1_rating_change INTEGER NOT NULL,
			p2_rating_before INTEGER NOT NULL,
			p2_rating_after INTEGER NOT NULL,
			p2_rating_change INTEGER NOT NULL,
			fee_charged BIGINT NOT NULL,
			commission_amount BIGINT NOT NULL,
			commission_rate_bps INTEGER NOT NULL,
			recorded_by VARCHAR(64) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_lounge_created
			ON sessions(lounge_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_sessions_player1 ON sessions(player1_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_player2 ON sessions(player2_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 6: sessions table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
