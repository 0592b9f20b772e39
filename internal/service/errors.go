// Package service provides business logic implementations.
package service

import (
	"errors"
	"fmt"
)

// ErrSessionRejected is the common ancestor of every validation failure.
// Rejections come from caller input or business rules: they are reported
// verbatim, never retried, and never touch the stats store.
var ErrSessionRejected = errors.New("session rejected")

// Specific rejection reasons. All satisfy errors.Is(err, ErrSessionRejected).
var (
	ErrSamePlayer        = fmt.Errorf("%w: players must differ", ErrSessionRejected)
	ErrPlayerUnknown     = fmt.Errorf("%w: unknown player", ErrSessionRejected)
	ErrPlayerInactive    = fmt.Errorf("%w: inactive player", ErrSessionRejected)
	ErrPlayerNotInLounge = fmt.Errorf("%w: player belongs to a different lounge", ErrSessionRejected)
	ErrLoungeUnknown     = fmt.Errorf("%w: unknown lounge", ErrSessionRejected)
	ErrLoungeInactive    = fmt.Errorf("%w: inactive lounge", ErrSessionRejected)
	ErrGameUnknown       = fmt.Errorf("%w: unknown game", ErrSessionRejected)
	ErrGameInactive      = fmt.Errorf("%w: inactive game", ErrSessionRejected)
	ErrNotRegistered     = fmt.Errorf("%w: player not registered for game", ErrSessionRejected)
	ErrNegativeScore     = fmt.Errorf("%w: scores must be non-negative", ErrSessionRejected)
	ErrNotAuthorized     = fmt.Errorf("%w: game master not authorized for lounge", ErrSessionRejected)
	ErrNegativeFee       = fmt.Errorf("%w: fee must be non-negative", ErrSessionRejected)
)

// ErrConflict is returned when the optimistic-concurrency retry budget is
// exhausted. No partial write occurred, so the caller may safely retry the
// whole call.
var ErrConflict = errors.New("concurrent session recording conflict: retries exhausted")
