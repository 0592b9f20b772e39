// Package model defines the data models for the lounge session engine.
package model

import "time"

// Outcome identifies which side of a two-player session won.
type Outcome int

const (
	OutcomePlayer1Win Outcome = iota
	OutcomePlayer2Win
	OutcomeDraw
)

// Result tokens stored on session rows.
const (
	ResultPlayer1Win = "player1_win"
	ResultPlayer2Win = "player2_win"
	ResultDraw       = "draw"
)

// Token returns the result string persisted for this outcome.
func (o Outcome) Token() string {
	switch o {
	case OutcomePlayer1Win:
		return ResultPlayer1Win
	case OutcomePlayer2Win:
		return ResultPlayer2Win
	default:
		return ResultDraw
	}
}

// DeriveOutcome determines the session outcome from the two reported scores.
// The player with the strictly higher score wins; equal scores are a draw.
func DeriveOutcome(score1, score2 int) Outcome {
	switch {
	case score1 > score2:
		return OutcomePlayer1Win
	case score2 > score1:
		return OutcomePlayer2Win
	default:
		return OutcomeDraw
	}
}

// Player is a registered lounge player. Identity is immutable; the active
// flag is toggled outside the engine.
type Player struct {
	ID          string    `db:"id"`
	LoungeID    string    `db:"lounge_id"`
	DisplayName string    `db:"display_name"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
}

// Game is catalog reference data, read-only to the engine.
type Game struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	GameType string `db:"game_type"`
	Active   bool   `db:"active"`
}

// Lounge carries the per-lounge running aggregates maintained by the
// session recorder.
type Lounge struct {
	ID                  string `db:"id"`
	Name                string `db:"name"`
	Active              bool   `db:"active"`
	TotalSessionsCount  int64  `db:"total_sessions_count"`
	TotalSessionRevenue int64  `db:"total_session_revenue"`
}

// GameMaster is the staff identity allowed to record sessions for a lounge.
type GameMaster struct {
	ID       string `db:"id"`
	LoungeID string `db:"lounge_id"`
	Name     string `db:"name"`
	Active   bool   `db:"active"`
}

// PlayerGameStat is the per-(player, game) statistics row. Version is the
// optimistic-concurrency token; 0 means the row has not been persisted yet.
type PlayerGameStat struct {
	PlayerID         string    `db:"player_id"`
	GameID           string    `db:"game_id"`
	CurrentRating    int       `db:"current_rating"`
	PeakRating       int       `db:"peak_rating"`
	GamesPlayed      int       `db:"games_played"`
	Wins             int       `db:"wins"`
	Losses           int       `db:"losses"`
	Draws            int       `db:"draws"`
	TotalPaidAsLoser int64     `db:"total_paid_as_loser"`
	Version          int64     `db:"version"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// WinRate returns the player's win percentage for this game, rounded to the
// nearest whole percent.
func (s *PlayerGameStat) WinRate() int {
	if s.GamesPlayed == 0 {
		return 0
	}
	return (s.Wins*100 + s.GamesPlayed/2) / s.GamesPlayed
}

// Session is one recorded match. Immutable once created; the engine offers
// no update or delete path.
type Session struct {
	ID                string    `db:"id"`
	LoungeID          string    `db:"lounge_id"`
	GameID            string    `db:"game_id"`
	Player1ID         string    `db:"player1_id"`
	Player2ID         string    `db:"player2_id"`
	Player1Score      int       `db:"player1_score"`
	Player2Score      int       `db:"player2_score"`
	Result            string    `db:"result"`
	WinnerID          *string   `db:"winner_id"`
	LoserID           *string   `db:"loser_id"`
	P1RatingBefore    int       `db:"p1_rating_before"`
	P1RatingAfter     int       `db:"p1_rating_after"`
	P1RatingChange    int       `db:"p1_rating_change"`
	P2RatingBefore    int       `db:"p2_rating_before"`
	P2RatingAfter     int       `db:"p2_rating_after"`
	P2RatingChange    int       `db:"p2_rating_change"`
	FeeCharged        int64     `db:"fee_charged"`
	CommissionAmount  int64     `db:"commission_amount"`
	CommissionRateBps int       `db:"commission_rate_bps"`
	RecordedBy        string    `db:"recorded_by"`
	CreatedAt         time.Time `db:"created_at"`
}

// SessionRequest is the caller's proposed session, before validation.
// All monetary amounts are int64 minor units (cents).
type SessionRequest struct {
	LoungeID     string
	GameID       string
	Player1ID    string
	Player2ID    string
	Player1Score int
	Player2Score int
	Fee          int64
	GameMasterID string
}

// FeeLiability says who owes the session fee for a validated session.
type FeeLiability int

const (
	// LiabilityLoser charges the full fee to the losing player.
	LiabilityLoser FeeLiability = iota
	// LiabilitySplit halves the fee between both players (draws).
	LiabilitySplit
	// LiabilityNone waives the fee entirely (draws under the waive policy).
	LiabilityNone
)

// ValidatedSession is a SessionRequest that passed validation, with the
// derived outcome and the resolved fee liability attached.
type ValidatedSession struct {
	SessionRequest
	Outcome   Outcome
	WinnerID  *string
	LoserID   *string
	Liability FeeLiability
}

// StatUpdate is one conditional write against a player_game_stats row.
// Values are absolute (recomputed from the read snapshot), not increments,
// so a retried commit never reuses stale deltas.
type StatUpdate struct {
	PlayerID         string
	GameID           string
	ExpectedVersion  int64
	CurrentRating    int
	PeakRating       int
	GamesPlayed      int
	Wins             int
	Losses           int
	Draws            int
	TotalPaidAsLoser int64
}

// LoungeDelta is the aggregate increment applied with a committed session.
type LoungeDelta struct {
	LoungeID string
	Sessions int64
	Revenue  int64
}

// SessionResult is returned to the caller after a successful commit.
type SessionResult struct {
	SessionID        string
	Result           string
	WinnerID         *string
	LoserID          *string
	P1RatingBefore   int
	P1RatingAfter    int
	P1RatingChange   int
	P2RatingBefore   int
	P2RatingAfter    int
	P2RatingChange   int
	FeeCharged       int64
	CommissionAmount int64
}

// LeaderboardEntry is one row of the per-game rating leaderboard.
type LeaderboardEntry struct {
	Rank          int
	PlayerID      string
	PlayerName    string
	LoungeName    string
	CurrentRating int
	GamesPlayed   int
	Wins          int
	Losses        int
}
