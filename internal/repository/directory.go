// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kitaa-lounge-engine/internal/model"
)

// Common errors for repository operations.
var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrGameNotFound       = errors.New("game not found")
	ErrLoungeNotFound     = errors.New("lounge not found")
	ErrGameMasterNotFound = errors.New("game master not found")
	ErrStatNotFound       = errors.New("player game stat not found")

	// ErrVersionConflict is returned when a conditional commit loses the
	// race against a concurrent session recording.
	ErrVersionConflict = errors.New("stat version conflict")
)

// DirectoryRepository handles reference data reads: players, games, lounges.
// All of it is read-only to the engine.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository creates a new DirectoryRepository instance.
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// GetPlayer retrieves a player by ID.
// Returns ErrPlayerNotFound if the player does not exist.
func (r *DirectoryRepository) GetPlayer(ctx context.Context, playerID string) (*model.Player, error) {
	const query = `
		SELECT id, lounge_id, display_name, active, created_at
		FROM players
		WHERE id = $1
	`

	var p model.Player
	err := r.pool.QueryRow(ctx, query, playerID).Scan(
		&p.ID,
		&p.LoungeID,
		&p.DisplayName,
		&p.Active,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &p, nil
}

// ListActivePlayers retrieves the active players of a lounge, ordered by name.
func (r *DirectoryRepository) ListActivePlayers(ctx context.Context, loungeID string) ([]*model.Player, error) {
	const query = `
		SELECT id, lounge_id, display_name, active, created_at
		FROM players
		WHERE lounge_id = $1 AND active
		ORDER BY display_name
	`

	rows, err := r.pool.Query(ctx, query, loungeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*model.Player
	for rows.Next() {
		var p model.Player
		err := rows.Scan(&p.ID, &p.LoungeID, &p.DisplayName, &p.Active, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}

// GetGame retrieves a catalog game by ID.
// Returns ErrGameNotFound if the game does not exist.
func (r *DirectoryRepository) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	const query = `
		SELECT id, name, game_type, active
		FROM games_catalog
		WHERE id = $1
	`

	var g model.Game
	err := r.pool.QueryRow(ctx, query, gameID).Scan(&g.ID, &g.Name, &g.GameType, &g.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return &g, nil
}

// ListActiveGames retrieves the active game catalog, ordered by name.
func (r *DirectoryRepository) ListActiveGames(ctx context.Context) ([]*model.Game, error) {
	const query = `
		SELECT id, name, game_type, active
		FROM games_catalog
		WHERE active
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.GameType, &g.Active); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}

// GetLounge retrieves a lounge with its running aggregates.
// Returns ErrLoungeNotFound if the lounge does not exist.
func (r *DirectoryRepository) GetLounge(ctx context.Context, loungeID string) (*model.Lounge, error) {
	const query = `
		SELECT id, name, active, total_sessions_count, total_session_revenue
		FROM lounges
		WHERE id = $1
	`

	var l model.Lounge
	err := r.pool.QueryRow(ctx, query, loungeID).Scan(
		&l.ID,
		&l.Name,
		&l.Active,
		&l.TotalSessionsCount,
		&l.TotalSessionRevenue,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoungeNotFound
		}
		return nil, fmt.Errorf("failed to get lounge: %w", err)
	}

	return &l, nil
}
