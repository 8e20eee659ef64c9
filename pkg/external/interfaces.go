// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package external declares the contracts the matching/settlement core consumes
// from its collaborators. Profile storage, season bookkeeping, presentation and
// the persistence engine all live behind these interfaces; their internals are
// not this module's concern.
package external

import (
	"errors"

	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/models"
)

// ErrNotFound is returned by GetRatingSnapshot when the participant has no
// rating record.
var ErrNotFound = errors.New("participant not found")

// Eligibility answers the gate questions the pool and the matcher re-check
// before admitting or keeping an entry.
type Eligibility interface {
	// IsSeasonOpen reports whether matchmaking is currently accepting entries.
	IsSeasonOpen() bool

	// GetRatingSnapshot returns the participant's current rating, or ErrNotFound.
	GetRatingSnapshot(userID string) (float64, error)

	// HasDeclaredClasses reports whether the participant declared the classes
	// required before queueing.
	HasDeclaredClasses(userID string) bool

	// IsCurrentlyInMatch reports the participant's in-match flag. The matcher
	// re-checks this before forming or keeping a pairing.
	IsCurrentlyInMatch(userID string) bool

	// SetInMatch flips the participant's in-match flag.
	SetInMatch(userID string, inMatch bool)
}

// Persistence records settlements and applies rating and penalty mutations.
// Failures are transient: the session owning the settlement does not advance
// past Reconciling until these calls succeed.
type Persistence interface {
	// RecordSettlement stores a settled session and returns the settlement id.
	RecordSettlement(scope *envelope.Scope, record models.SettlementRecord) (string, error)

	// ApplyRatingDelta adjusts the participant's stored rating.
	ApplyRatingDelta(scope *envelope.Scope, userID string, delta float64) error

	// ApplyPenalty deducts trust/penalty points from the participant.
	ApplyPenalty(scope *envelope.Scope, userID string, points int) error
}

// Notifier pushes protocol events toward the presentation collaborator.
// OnMatchFormed is invoked once per formed pair, outside the pool lock.
type Notifier interface {
	OnMatchFormed(scope *envelope.Scope, sessionID string, pairing models.MatchPairing)

	// OnQueueTimeout tells a participant their wait expired with no opponent found.
	OnQueueTimeout(scope *envelope.Scope, userID string)

	// OnResubmitRequired tells both participants their reported outcomes
	// conflicted and the result slots were cleared.
	OnResubmitRequired(scope *envelope.Scope, sessionID string, pairing models.MatchPairing)

	// OnDisputeFlagged hands a rejected dispute over for human review.
	OnDisputeFlagged(scope *envelope.Scope, sessionID string, requesterID, counterpartID string)
}
