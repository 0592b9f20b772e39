package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kitaa-lounge-engine/internal/model"
)

// StatRepository handles per-(player, game) statistics and the atomic
// session commit. It is the engine's StatsStore: the session recorder is the
// only writer of player_game_stats, sessions, and lounge aggregates, and all
// of its writes go through CommitSession.
type StatRepository struct {
	pool *pgxpool.Pool
}

// NewStatRepository creates a new StatRepository instance.
func NewStatRepository(pool *pgxpool.Pool) *StatRepository {
	return &StatRepository{pool: pool}
}

// GetStat retrieves the statistics row for one (player, game) pair,
// including its version token. Returns ErrStatNotFound if the player has not
// appeared in the game yet; the caller decides how to default.
func (r *StatRepository) GetStat(ctx context.Context, playerID, gameID string) (*model.PlayerGameStat, error) {
	const query = `
		SELECT player_id, game_id, current_rating, peak_rating,
		       games_played, wins, losses, draws, total_paid_as_loser,
		       version, updated_at
		FROM player_game_stats
		WHERE player_id = $1 AND game_id = $2
	`

	var s model.PlayerGameStat
	err := r.pool.QueryRow(ctx, query, playerID, gameID).Scan(
		&s.PlayerID,
		&s.GameID,
		&s.CurrentRating,
		&s.PeakRating,
		&s.GamesPlayed,
		&s.Wins,
		&s.Losses,
		&s.Draws,
		&s.TotalPaidAsLoser,
		&s.Version,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatNotFound
		}
		return nil, fmt.Errorf("failed to get player game stat: %w", err)
	}

	return &s, nil
}

// GetStatsByPlayer retrieves all stat rows for a player with at least one
// game played, for the player's stats summary.
func (r *StatRepository) GetStatsByPlayer(ctx context.Context, playerID string) ([]*model.PlayerGameStat, error) {
	const query = `
		SELECT player_id, game_id, current_rating, peak_rating,
		       games_played, wins, losses, draws, total_paid_as_loser,
		       version, updated_at
		FROM player_game_stats
		WHERE player_id = $1 AND games_played >= 1
		ORDER BY games_played DESC
	`

	rows, err := r.pool.Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}
	defer rows.Close()

	var stats []*model.PlayerGameStat
	for rows.Next() {
		var s model.PlayerGameStat
		err := rows.Scan(
			&s.PlayerID,
			&s.GameID,
			&s.CurrentRating,
			&s.PeakRating,
			&s.GamesPlayed,
			&s.Wins,
			&s.Losses,
			&s.Draws,
			&s.TotalPaidAsLoser,
			&s.Version,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player stat: %w", err)
		}
		stats = append(stats, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player stats: %w", err)
	}

	return stats, nil
}

// GetLeaderboard retrieves the top players by current rating for a game.
// Only players with at least one recorded session are ranked.
func (r *StatRepository) GetLeaderboard(ctx context.Context, gameID string, limit int) ([]*model.LeaderboardEntry, error) {
	const query = `
		SELECT s.player_id, p.display_name, l.name,
		       s.current_rating, s.games_played, s.wins, s.losses
		FROM player_game_stats s
		JOIN players p ON s.player_id = p.id
		JOIN lounges l ON p.lounge_id = l.id
		WHERE s.game_id = $1 AND s.games_played >= 1
		ORDER BY s.current_rating DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		err := rows.Scan(
			&e.PlayerID,
			&e.PlayerName,
			&e.LoungeName,
			&e.CurrentRating,
			&e.GamesPlayed,
			&e.Wins,
			&e.Losses,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return entries, nil
}

// CommitSession applies one recorded session as a single atomic unit: the
// immutable session row, both conditional stat writes, and the lounge
// aggregate increment. Every stat write is conditioned on the version token
// captured when the stats were read; if any condition fails the whole
// transaction rolls back and ErrVersionConflict is returned, leaving no
// partial state behind.
func (r *StatRepository) CommitSession(
	ctx context.Context,
	sess *model.Session,
	updates []model.StatUpdate,
	delta model.LoungeDelta,
) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertSession = `
		INSERT INTO sessions (
			id, lounge_id, game_id, player1_id, player2_id,
			player1_score, player2_score, result, winner_id, loser_id,
			p1_rating_before, p1_rating_after, p1_rating_change,
			p2_rating_before, p2_rating_after, p2_rating_change,
			fee_charged, commission_amount, commission_rate_bps,
			recorded_by, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW()
		)
		RETURNING created_at
	`

	err = tx.QueryRow(ctx, insertSession,
		sess.ID, sess.LoungeID, sess.GameID, sess.Player1ID, sess.Player2ID,
		sess.Player1Score, sess.Player2Score, sess.Result, sess.WinnerID, sess.LoserID,
		sess.P1RatingBefore, sess.P1RatingAfter, sess.P1RatingChange,
		sess.P2RatingBefore, sess.P2RatingAfter, sess.P2RatingChange,
		sess.FeeCharged, sess.CommissionAmount, sess.CommissionRateBps,
		sess.RecordedBy,
	).Scan(&sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, u := range updates {
		if err := applyStatUpdate(ctx, tx, u); err != nil {
			return err
		}
	}

	const bumpLounge = `
		UPDATE lounges
		SET total_sessions_count = total_sessions_count + $2,
		    total_session_revenue = total_session_revenue + $3
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, bumpLounge, delta.LoungeID, delta.Sessions, delta.Revenue)
	if err != nil {
		return fmt.Errorf("failed to update lounge aggregates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lounge %s: %w", delta.LoungeID, ErrLoungeNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}

	return nil
}

// applyStatUpdate writes one stat row inside the commit transaction.
// ExpectedVersion 0 means the row is being created for the player's first
// session in the game; a concurrent creation surfaces as a conflict the same
// way a concurrent update does.
func applyStatUpdate(ctx context.Context, tx pgx.Tx, u model.StatUpdate) error {
	if u.ExpectedVersion == 0 {
		const insert = `
			INSERT INTO player_game_stats (
				player_id, game_id, current_rating, peak_rating,
				games_played, wins, losses, draws, total_paid_as_loser,
				version, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, NOW())
			ON CONFLICT (player_id, game_id) DO NOTHING
		`

		tag, err := tx.Exec(ctx, insert,
			u.PlayerID, u.GameID, u.CurrentRating, u.PeakRating,
			u.GamesPlayed, u.Wins, u.Losses, u.Draws, u.TotalPaidAsLoser,
		)
		if err != nil {
			return fmt.Errorf("failed to create player game stat: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("stat (%s, %s) created concurrently: %w", u.PlayerID, u.GameID, ErrVersionConflict)
		}
		return nil
	}

	const update = `
		UPDATE player_game_stats
		SET current_rating = $4, peak_rating = $5,
		    games_played = $6, wins = $7, losses = $8, draws = $9,
		    total_paid_as_loser = $10,
		    version = version + 1, updated_at = NOW()
		WHERE player_id = $1 AND game_id = $2 AND version = $3
	`

	tag, err := tx.Exec(ctx, update,
		u.PlayerID, u.GameID, u.ExpectedVersion,
		u.CurrentRating, u.PeakRating,
		u.GamesPlayed, u.Wins, u.Losses, u.Draws,
		u.TotalPaidAsLoser,
	)
	if err != nil {
		return fmt.Errorf("failed to update player game stat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stat (%s, %s) changed since read: %w", u.PlayerID, u.GameID, ErrVersionConflict)
	}

	return nil
}
