package service

import (
	"context"
	"time"

	"kitaa-lounge-engine/internal/model"
	"kitaa-lounge-engine/internal/repository"
)

// ReportingService handles the read side of the engine: leaderboards,
// player stat summaries, session history, and lounge dashboard numbers.
type ReportingService struct {
	dir      *repository.DirectoryRepository
	stats    *repository.StatRepository
	sessions *repository.SessionRepository
	timezone *time.Location
}

// NewReportingService creates a new ReportingService instance.
func NewReportingService(
	dir *repository.DirectoryRepository,
	stats *repository.StatRepository,
	sessions *repository.SessionRepository,
	timezone *time.Location,
) *ReportingService {
	if timezone == nil {
		timezone = time.UTC
	}
	return &ReportingService{
		dir:      dir,
		stats:    stats,
		sessions: sessions,
		timezone: timezone,
	}
}

// Leaderboard retrieves the top players by current rating for a game.
func (s *ReportingService) Leaderboard(ctx context.Context, gameID string, limit int) ([]*model.LeaderboardEntry, error) {
	return s.stats.GetLeaderboard(ctx, gameID, limit)
}

// PlayerStats retrieves a player's per-game stat rows.
func (s *ReportingService) PlayerStats(ctx context.Context, playerID string) ([]*model.PlayerGameStat, error) {
	return s.stats.GetStatsByPlayer(ctx, playerID)
}

// PlayerSessions retrieves a player's recent sessions, newest first.
func (s *ReportingService) PlayerSessions(ctx context.Context, playerID string, limit int) ([]*model.Session, error) {
	return s.sessions.ListByPlayer(ctx, playerID, limit)
}

// LoungeSessions retrieves a lounge's recent sessions, newest first.
func (s *ReportingService) LoungeSessions(ctx context.Context, loungeID string, limit int) ([]*model.Session, error) {
	return s.sessions.ListByLounge(ctx, loungeID, limit)
}

// LoungeDashboard is the lounge overview: lifetime aggregates plus today's
// session count and revenue.
type LoungeDashboard struct {
	Lounge        *model.Lounge
	TodaySessions int64
	TodayRevenue  int64
}

// Dashboard retrieves the dashboard numbers for a lounge.
func (s *ReportingService) Dashboard(ctx context.Context, loungeID string) (*LoungeDashboard, error) {
	lounge, err := s.dir.GetLounge(ctx, loungeID)
	if err != nil {
		return nil, err
	}

	today := time.Now().In(s.timezone)
	count, revenue, err := s.sessions.DayTotals(ctx, loungeID, today)
	if err != nil {
		return nil, err
	}

	return &LoungeDashboard{
		Lounge:        lounge,
		TodaySessions: count,
		TodayRevenue:  revenue,
	}, nil
}

// ActiveGames retrieves the playable game catalog.
func (s *ReportingService) ActiveGames(ctx context.Context) ([]*model.Game, error) {
	return s.dir.ListActiveGames(ctx)
}
