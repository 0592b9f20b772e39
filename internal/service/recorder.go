package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"kitaa-lounge-engine/internal/model"
	"kitaa-lounge-engine/internal/rating"
	"kitaa-lounge-engine/internal/repository"
	"kitaa-lounge-engine/internal/settlement"
)

// Recorder orchestrates the atomic commit of a session: it validates the
// request, reads both players' current stats, computes the rating change and
// settlement from those "before" values, and commits the session row plus
// all derived updates as one unit.
//
// No lock is held across the read-compute-write gap. The commit is
// conditioned on the version tokens captured at read time; losing that race
// triggers a full recompute from fresh reads, so a stale delta is never
// written. Retries are bounded; exhausting them returns ErrConflict with
// nothing persisted.
type Recorder struct {
	validator *Validator
	store     StatsStore
	calc      *settlement.Calculator

	startingRating int
	maxAttempts    int
	log            zerolog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(
	validator *Validator,
	store StatsStore,
	calc *settlement.Calculator,
	startingRating int,
	maxAttempts int,
	logger zerolog.Logger,
) *Recorder {
	if startingRating <= 0 {
		startingRating = rating.StartingRating
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Recorder{
		validator:      validator,
		store:          store,
		calc:           calc,
		startingRating: startingRating,
		maxAttempts:    maxAttempts,
		log:            logger,
	}
}

// Record validates and commits one session, returning the persisted session
// identity together with both rating movements and the settlement amounts.
func (r *Recorder) Record(ctx context.Context, req *model.SessionRequest) (*model.SessionResult, error) {
	vs, err := r.validator.Validate(ctx, req)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := r.attempt(ctx, vs)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, repository.ErrVersionConflict) {
			r.log.Warn().
				Int("attempt", attempt).
				Str("game_id", vs.GameID).
				Str("player1_id", vs.Player1ID).
				Str("player2_id", vs.Player2ID).
				Msg("Session commit lost version race, retrying")
			continue
		}
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	return nil, ErrConflict
}

// attempt runs one read-compute-commit cycle.
func (r *Recorder) attempt(ctx context.Context, vs *model.ValidatedSession) (*model.SessionResult, error) {
	stat1, err := r.fetchStat(ctx, vs.Player1ID, vs.GameID)
	if err != nil {
		return nil, err
	}
	stat2, err := r.fetchStat(ctx, vs.Player2ID, vs.GameID)
	if err != nil {
		return nil, err
	}

	change := rating.Compute(stat1.CurrentRating, stat2.CurrentRating, vs.Outcome)
	settle := r.calc.Compute(vs.Fee)

	feeCharged := settle.FeeCharged
	commission := settle.Commission
	if vs.Liability == model.LiabilityNone {
		feeCharged = 0
		commission = 0
	}

	sess := &model.Session{
		ID:                uuid.NewString(),
		LoungeID:          vs.LoungeID,
		GameID:            vs.GameID,
		Player1ID:         vs.Player1ID,
		Player2ID:         vs.Player2ID,
		Player1Score:      vs.Player1Score,
		Player2Score:      vs.Player2Score,
		Result:            vs.Outcome.Token(),
		WinnerID:          vs.WinnerID,
		LoserID:           vs.LoserID,
		P1RatingBefore:    stat1.CurrentRating,
		P1RatingAfter:     change.AfterA,
		P1RatingChange:    change.DeltaA,
		P2RatingBefore:    stat2.CurrentRating,
		P2RatingAfter:     change.AfterB,
		P2RatingChange:    change.DeltaB,
		FeeCharged:        feeCharged,
		CommissionAmount:  commission,
		CommissionRateBps: settle.RateBps,
		RecordedBy:        vs.GameMasterID,
	}

	paid1, paid2 := r.feeShares(vs, feeCharged)
	updates := []model.StatUpdate{
		buildStatUpdate(stat1, vs.Outcome == model.OutcomePlayer1Win, vs.Outcome == model.OutcomePlayer2Win, change.AfterA, paid1),
		buildStatUpdate(stat2, vs.Outcome == model.OutcomePlayer2Win, vs.Outcome == model.OutcomePlayer1Win, change.AfterB, paid2),
	}

	delta := model.LoungeDelta{
		LoungeID: vs.LoungeID,
		Sessions: 1,
		Revenue:  feeCharged,
	}

	if err := r.store.CommitSession(ctx, sess, updates, delta); err != nil {
		return nil, err
	}

	return &model.SessionResult{
		SessionID:        sess.ID,
		Result:           sess.Result,
		WinnerID:         sess.WinnerID,
		LoserID:          sess.LoserID,
		P1RatingBefore:   sess.P1RatingBefore,
		P1RatingAfter:    sess.P1RatingAfter,
		P1RatingChange:   sess.P1RatingChange,
		P2RatingBefore:   sess.P2RatingBefore,
		P2RatingAfter:    sess.P2RatingAfter,
		P2RatingChange:   sess.P2RatingChange,
		FeeCharged:       sess.FeeCharged,
		CommissionAmount: sess.CommissionAmount,
	}, nil
}

// fetchStat reads the current stat row, defaulting a never-seen player to
// the starting rating with version 0 so the commit creates the row lazily.
func (r *Recorder) fetchStat(ctx context.Context, playerID, gameID string) (*model.PlayerGameStat, error) {
	stat, err := r.store.GetStat(ctx, playerID, gameID)
	if err == nil {
		return stat, nil
	}
	if errors.Is(err, repository.ErrStatNotFound) {
		return &model.PlayerGameStat{
			PlayerID:      playerID,
			GameID:        gameID,
			CurrentRating: r.startingRating,
			PeakRating:    r.startingRating,
			Version:       0,
		}, nil
	}
	return nil, err
}

// feeShares splits the charged fee across the two players' paid-as-loser
// accumulators according to the liability.
func (r *Recorder) feeShares(vs *model.ValidatedSession, feeCharged int64) (int64, int64) {
	switch vs.Liability {
	case model.LiabilitySplit:
		return settlement.SplitHalves(feeCharged)
	case model.LiabilityLoser:
		if vs.Outcome == model.OutcomePlayer1Win {
			return 0, feeCharged
		}
		return feeCharged, 0
	default:
		return 0, 0
	}
}

// buildStatUpdate derives the absolute post-session stat values for one
// player from the snapshot read in this attempt.
func buildStatUpdate(before *model.PlayerGameStat, won, lost bool, after int, paid int64) model.StatUpdate {
	u := model.StatUpdate{
		PlayerID:         before.PlayerID,
		GameID:           before.GameID,
		ExpectedVersion:  before.Version,
		CurrentRating:    after,
		PeakRating:       before.PeakRating,
		GamesPlayed:      before.GamesPlayed + 1,
		Wins:             before.Wins,
		Losses:           before.Losses,
		Draws:            before.Draws,
		TotalPaidAsLoser: before.TotalPaidAsLoser + paid,
	}
	switch {
	case won:
		u.Wins++
	case lost:
		u.Losses++
	default:
		u.Draws++
	}
	if after > u.PeakRating {
		u.PeakRating = after
	}
	return u
}
