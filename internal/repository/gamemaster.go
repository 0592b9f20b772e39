package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kitaa-lounge-engine/internal/model"
)

// GameMasterRepository handles game master lookups and authorization checks.
// It is the default implementation of the engine's authorization collaborator.
type GameMasterRepository struct {
	pool *pgxpool.Pool
}

// NewGameMasterRepository creates a new GameMasterRepository instance.
func NewGameMasterRepository(pool *pgxpool.Pool) *GameMasterRepository {
	return &GameMasterRepository{pool: pool}
}

// GetByID retrieves a game master by ID.
// Returns ErrGameMasterNotFound if the game master does not exist.
func (r *GameMasterRepository) GetByID(ctx context.Context, gameMasterID string) (*model.GameMaster, error) {
	const query = `
		SELECT id, lounge_id, name, active
		FROM game_masters
		WHERE id = $1
	`

	var gm model.GameMaster
	err := r.pool.QueryRow(ctx, query, gameMasterID).Scan(&gm.ID, &gm.LoungeID, &gm.Name, &gm.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameMasterNotFound
		}
		return nil, fmt.Errorf("failed to get game master: %w", err)
	}

	return &gm, nil
}

// IsAuthorized reports whether the game master is active and assigned to the
// given lounge. Unknown game masters are simply not authorized.
func (r *GameMasterRepository) IsAuthorized(ctx context.Context, gameMasterID, loungeID string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM game_masters
			WHERE id = $1 AND lounge_id = $2 AND active
		)
	`

	var authorized bool
	err := r.pool.QueryRow(ctx, query, gameMasterID, loungeID).Scan(&authorized)
	if err != nil {
		return false, fmt.Errorf("failed to check game master authorization: %w", err)
	}

	return authorized, nil
}
