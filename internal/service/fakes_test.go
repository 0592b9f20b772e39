package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"kitaa-lounge-engine/internal/config"
	"kitaa-lounge-engine/internal/model"
	"kitaa-lounge-engine/internal/repository"
	"kitaa-lounge-engine/internal/settlement"
)

// fakeDirectory serves reference data from maps.
type fakeDirectory struct {
	players map[string]*model.Player
	games   map[string]*model.Game
	lounges map[string]*model.Lounge
}

func (d *fakeDirectory) GetPlayer(_ context.Context, playerID string) (*model.Player, error) {
	if p, ok := d.players[playerID]; ok {
		return p, nil
	}
	return nil, repository.ErrPlayerNotFound
}

func (d *fakeDirectory) GetGame(_ context.Context, gameID string) (*model.Game, error) {
	if g, ok := d.games[gameID]; ok {
		return g, nil
	}
	return nil, repository.ErrGameNotFound
}

func (d *fakeDirectory) GetLounge(_ context.Context, loungeID string) (*model.Lounge, error) {
	if l, ok := d.lounges[loungeID]; ok {
		return l, nil
	}
	return nil, repository.ErrLoungeNotFound
}

// fakeAuthorizer authorizes everything unless deny is set.
type fakeAuthorizer struct {
	deny bool
}

func (a *fakeAuthorizer) IsAuthorized(_ context.Context, _, _ string) (bool, error) {
	return !a.deny, nil
}

// fakeStore is an in-memory StatsStore with the same version-token commit
// semantics as the PostgreSQL implementation. Safe for concurrent use.
type fakeStore struct {
	mu       sync.Mutex
	stats    map[string]*model.PlayerGameStat
	sessions []*model.Session
	lounges  map[string]*model.LoungeDelta

	getCalls    int
	commitCalls int

	// forceConflicts makes the next N commits fail with a version
	// conflict regardless of the actual versions.
	forceConflicts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stats:   make(map[string]*model.PlayerGameStat),
		lounges: make(map[string]*model.LoungeDelta),
	}
}

func statKey(playerID, gameID string) string {
	return playerID + "|" + gameID
}

func (s *fakeStore) GetStat(_ context.Context, playerID, gameID string) (*model.PlayerGameStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++

	if stat, ok := s.stats[statKey(playerID, gameID)]; ok {
		copied := *stat
		return &copied, nil
	}
	return nil, repository.ErrStatNotFound
}

func (s *fakeStore) CommitSession(
	_ context.Context,
	sess *model.Session,
	updates []model.StatUpdate,
	delta model.LoungeDelta,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitCalls++

	if s.forceConflicts > 0 {
		s.forceConflicts--
		return fmt.Errorf("injected: %w", repository.ErrVersionConflict)
	}

	// Check every condition before applying anything, mirroring the
	// all-or-nothing transaction.
	for _, u := range updates {
		existing, ok := s.stats[statKey(u.PlayerID, u.GameID)]
		if u.ExpectedVersion == 0 {
			if ok {
				return fmt.Errorf("stat created concurrently: %w", repository.ErrVersionConflict)
			}
		} else if !ok || existing.Version != u.ExpectedVersion {
			return fmt.Errorf("stat changed since read: %w", repository.ErrVersionConflict)
		}
	}

	for _, u := range updates {
		s.stats[statKey(u.PlayerID, u.GameID)] = &model.PlayerGameStat{
			PlayerID:         u.PlayerID,
			GameID:           u.GameID,
			CurrentRating:    u.CurrentRating,
			PeakRating:       u.PeakRating,
			GamesPlayed:      u.GamesPlayed,
			Wins:             u.Wins,
			Losses:           u.Losses,
			Draws:            u.Draws,
			TotalPaidAsLoser: u.TotalPaidAsLoser,
			Version:          u.ExpectedVersion + 1,
		}
	}

	s.sessions = append(s.sessions, sess)

	agg, ok := s.lounges[delta.LoungeID]
	if !ok {
		agg = &model.LoungeDelta{LoungeID: delta.LoungeID}
		s.lounges[delta.LoungeID] = agg
	}
	agg.Sessions += delta.Sessions
	agg.Revenue += delta.Revenue

	return nil
}

func (s *fakeStore) stat(playerID, gameID string) *model.PlayerGameStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stat, ok := s.stats[statKey(playerID, gameID)]; ok {
		copied := *stat
		return &copied
	}
	return nil
}

// testEnv wires a recorder over the fakes with two players, one game, and
// one lounge ready to go.
type testEnv struct {
	recorder *Recorder
	store    *fakeStore
	dir      *fakeDirectory
	auth     *fakeAuthorizer
	cfg      *config.EngineConfig
}

func newTestEnv(overrides func(*config.EngineConfig)) *testEnv {
	cfg := &config.EngineConfig{
		CommissionRateBps: settlement.DefaultRateBps,
		StartingRating:    1000,
		MaxCommitAttempts: 4,
		DrawFeePolicy:     config.DrawPolicySplit,
	}
	if overrides != nil {
		overrides(cfg)
	}

	dir := &fakeDirectory{
		players: map[string]*model.Player{
			"p1": {ID: "p1", LoungeID: "l1", DisplayName: "Asha", Active: true},
			"p2": {ID: "p2", LoungeID: "l1", DisplayName: "Baraka", Active: true},
			"p3": {ID: "p3", LoungeID: "l1", DisplayName: "Chausiku", Active: true},
			"px": {ID: "px", LoungeID: "l1", DisplayName: "Dormant", Active: false},
			"p9": {ID: "p9", LoungeID: "l9", DisplayName: "Visitor", Active: true},
		},
		games: map[string]*model.Game{
			"g1": {ID: "g1", Name: "FIFA", GameType: "console", Active: true},
			"gx": {ID: "gx", Name: "Retired", GameType: "console", Active: false},
		},
		lounges: map[string]*model.Lounge{
			"l1": {ID: "l1", Name: "Dar Lounge", Active: true},
			"lx": {ID: "lx", Name: "Closed Lounge", Active: false},
			"l9": {ID: "l9", Name: "Arusha Lounge", Active: true},
		},
	}

	auth := &fakeAuthorizer{}
	store := newFakeStore()

	calc, err := settlement.NewCalculator(cfg.CommissionRateBps)
	if err != nil {
		panic(err)
	}

	validator := NewValidator(dir, auth, store, cfg)
	recorder := NewRecorder(validator, store, calc, cfg.StartingRating, cfg.MaxCommitAttempts, zerolog.Nop())

	return &testEnv{
		recorder: recorder,
		store:    store,
		dir:      dir,
		auth:     auth,
		cfg:      cfg,
	}
}

// request returns a valid baseline request; tests mutate what they need.
func (e *testEnv) request() *model.SessionRequest {
	return &model.SessionRequest{
		LoungeID:     "l1",
		GameID:       "g1",
		Player1ID:    "p1",
		Player2ID:    "p2",
		Player1Score: 10,
		Player2Score: 7,
		Fee:          50000,
		GameMasterID: "gm1",
	}
}
