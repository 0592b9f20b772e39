package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"kitaa-lounge-engine/internal/model"
)

// SessionRepository handles read access to recorded sessions. Session rows
// are immutable and only ever written through StatRepository.CommitSession.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `
	id, lounge_id, game_id, player1_id, player2_id,
	player1_score, player2_score, result, winner_id, loser_id,
	p1_rating_before, p1_rating_after, p1_rating_change,
	p2_rating_before, p2_rating_after, p2_rating_change,
	fee_charged, commission_amount, commission_rate_bps,
	recorded_by, created_at
`

func scanSession(row interface{ Scan(dest ...any) error }) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID, &s.LoungeID, &s.GameID, &s.Player1ID, &s.Player2ID,
		&s.Player1Score, &s.Player2Score, &s.Result, &s.WinnerID, &s.LoserID,
		&s.P1RatingBefore, &s.P1RatingAfter, &s.P1RatingChange,
		&s.P2RatingBefore, &s.P2RatingAfter, &s.P2RatingChange,
		&s.FeeCharged, &s.CommissionAmount, &s.CommissionRateBps,
		&s.RecordedBy, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByLounge retrieves a lounge's recorded sessions, newest first.
func (r *SessionRepository) ListByLounge(ctx context.Context, loungeID string, limit int) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE lounge_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, loungeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list lounge sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// ListByPlayer retrieves the sessions a player took part in, newest first.
func (r *SessionRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE player1_id = $1 OR player2_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list player sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// DayTotals returns the session count and fee revenue a lounge recorded on
// the calendar day containing the given time.
func (r *SessionRepository) DayTotals(ctx context.Context, loungeID string, day time.Time) (int64, int64, error) {
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	const query = `
		SELECT COUNT(*), COALESCE(SUM(fee_charged), 0)
		FROM sessions
		WHERE lounge_id = $1
		  AND created_at >= $2
		  AND created_at < $3
	`

	var count, revenue int64
	err := r.pool.QueryRow(ctx, query, loungeID, startOfDay, endOfDay).Scan(&count, &revenue)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get day totals: %w", err)
	}

	return count, revenue, nil
}
