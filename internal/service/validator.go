package service

import (
	"context"
	"errors"
	"fmt"

	"kitaa-lounge-engine/internal/config"
	"kitaa-lounge-engine/internal/model"
	"kitaa-lounge-engine/internal/repository"
)

// Directory provides the reference data reads the validator needs.
// Implemented by repository.DirectoryRepository.
type Directory interface {
	GetPlayer(ctx context.Context, playerID string) (*model.Player, error)
	GetGame(ctx context.Context, gameID string) (*model.Game, error)
	GetLounge(ctx context.Context, loungeID string) (*model.Lounge, error)
}

// Authorizer is the external authorization collaborator: it answers whether
// a game master may record sessions for a lounge. Implemented by
// repository.GameMasterRepository.
type Authorizer interface {
	IsAuthorized(ctx context.Context, gameMasterID, loungeID string) (bool, error)
}

// StatsStore is the persistence collaborator of the recorder: versioned
// stat reads and the atomic session commit. Implemented by
// repository.StatRepository.
type StatsStore interface {
	GetStat(ctx context.Context, playerID, gameID string) (*model.PlayerGameStat, error)
	CommitSession(ctx context.Context, sess *model.Session, updates []model.StatUpdate, delta model.LoungeDelta) error
}

// Validator checks a proposed session against structural and business rules
// before any persistence is attempted. A failed validation returns a
// specific rejection wrapping ErrSessionRejected and touches no state.
type Validator struct {
	dir   Directory
	auth  Authorizer
	stats StatsStore

	drawFeePolicy       string
	requireRegistration bool
}

// NewValidator creates a Validator. The stats store is only consulted when
// registration is required; with lazy registration (the default) a first
// session simply creates the stat rows.
func NewValidator(dir Directory, auth Authorizer, stats StatsStore, cfg *config.EngineConfig) *Validator {
	return &Validator{
		dir:                 dir,
		auth:                auth,
		stats:               stats,
		drawFeePolicy:       cfg.DrawFeePolicy,
		requireRegistration: cfg.RequireRegistration,
	}
}

// Validate checks the request and, on success, returns it with the derived
// outcome, winner/loser identities (nil on draw), and the fee liability
// resolved per the configured draw policy.
func (v *Validator) Validate(ctx context.Context, req *model.SessionRequest) (*model.ValidatedSession, error) {
	if req.Player1ID == req.Player2ID {
		return nil, ErrSamePlayer
	}

	lounge, err := v.dir.GetLounge(ctx, req.LoungeID)
	if err != nil {
		if errors.Is(err, repository.ErrLoungeNotFound) {
			return nil, ErrLoungeUnknown
		}
		return nil, fmt.Errorf("failed to load lounge: %w", err)
	}
	if !lounge.Active {
		return nil, ErrLoungeInactive
	}

	for _, playerID := range []string{req.Player1ID, req.Player2ID} {
		player, err := v.dir.GetPlayer(ctx, playerID)
		if err != nil {
			if errors.Is(err, repository.ErrPlayerNotFound) {
				return nil, fmt.Errorf("%w (%s)", ErrPlayerUnknown, playerID)
			}
			return nil, fmt.Errorf("failed to load player: %w", err)
		}
		if !player.Active {
			return nil, fmt.Errorf("%w (%s)", ErrPlayerInactive, playerID)
		}
		if player.LoungeID != req.LoungeID {
			return nil, fmt.Errorf("%w (%s)", ErrPlayerNotInLounge, playerID)
		}
	}

	game, err := v.dir.GetGame(ctx, req.GameID)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, ErrGameUnknown
		}
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if !game.Active {
		return nil, ErrGameInactive
	}

	if v.requireRegistration {
		for _, playerID := range []string{req.Player1ID, req.Player2ID} {
			if _, err := v.stats.GetStat(ctx, playerID, req.GameID); err != nil {
				if errors.Is(err, repository.ErrStatNotFound) {
					return nil, fmt.Errorf("%w (%s)", ErrNotRegistered, playerID)
				}
				return nil, fmt.Errorf("failed to check registration: %w", err)
			}
		}
	}

	if req.Player1Score < 0 || req.Player2Score < 0 {
		return nil, ErrNegativeScore
	}

	authorized, err := v.auth.IsAuthorized(ctx, req.GameMasterID, req.LoungeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check authorization: %w", err)
	}
	if !authorized {
		return nil, ErrNotAuthorized
	}

	if req.Fee < 0 {
		return nil, ErrNegativeFee
	}

	vs := &model.ValidatedSession{
		SessionRequest: *req,
		Outcome:        model.DeriveOutcome(req.Player1Score, req.Player2Score),
	}

	switch vs.Outcome {
	case model.OutcomePlayer1Win:
		vs.WinnerID = &vs.Player1ID
		vs.LoserID = &vs.Player2ID
		vs.Liability = model.LiabilityLoser
	case model.OutcomePlayer2Win:
		vs.WinnerID = &vs.Player2ID
		vs.LoserID = &vs.Player1ID
		vs.Liability = model.LiabilityLoser
	default:
		if v.drawFeePolicy == config.DrawPolicyWaive {
			vs.Liability = model.LiabilityNone
		} else {
			vs.Liability = model.LiabilitySplit
		}
	}

	return vs, nil
}
