// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package models holds the data objects shared by the waiting pool, the matcher
// and the session state machines.
package models

import (
	"time"

	validator "github.com/AccelByte/justice-input-validation-go"
	"github.com/mitchellh/copystructure"
	"github.com/sirupsen/logrus"
)

// Outcome is a participant's reported result for a session.
type Outcome string

const (
	OutcomeUnset Outcome = ""
	OutcomeWin   Outcome = "win"
	OutcomeLoss  Outcome = "loss"
)

// Opposite returns the outcome the counterpart must have reported for the pair
// to reconcile.
func (o Outcome) Opposite() Outcome {
	switch o {
	case OutcomeWin:
		return OutcomeLoss
	case OutcomeLoss:
		return OutcomeWin
	default:
		return OutcomeUnset
	}
}

// SessionState is the settlement protocol state of one match session.
type SessionState string

const (
	StateAwaitingResults      SessionState = "AWAITING_RESULTS"
	StateAwaitingSecondResult SessionState = "AWAITING_SECOND_RESULT"
	StateReconciling          SessionState = "RECONCILING"
	StateTimedOut             SessionState = "TIMED_OUT"
	StateSettled              SessionState = "SETTLED"
	StateVoided               SessionState = "VOIDED"
)

// Terminal reports whether no further submissions can mutate the session.
func (s SessionState) Terminal() bool {
	return s == StateSettled || s == StateVoided
}

// WaitingEntry is one participant waiting in the pool.
// At most one live entry may exist per participant identity.
type WaitingEntry struct {
	UserID     string    `json:"user_id"`
	Rating     float64   `json:"rating"` // rating snapshot taken at enqueue time
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func (e WaitingEntry) Copy() WaitingEntry {
	copied, err := copystructure.Copy(e)
	if err != nil {
		logrus.Warn("failed copy waitingEntry:", err)
		return e
	}
	entry, _ := copied.(WaitingEntry)
	return entry
}

// PairSide is one half of a formed pairing with the rating the pairing rule
// was evaluated against.
type PairSide struct {
	UserID string  `json:"user_id"`
	Rating float64 `json:"rating"`
}

// MatchPairing is the immutable product of one successful pairing scan.
// It is consumed exactly once by match session creation.
type MatchPairing struct {
	PlayerA  PairSide  `json:"player_a"`
	PlayerB  PairSide  `json:"player_b"`
	FormedAt time.Time `json:"formed_at"`
}

// Other returns the side opposite to userID, and false when userID is not part
// of the pairing.
func (p MatchPairing) Other(userID string) (PairSide, bool) {
	switch userID {
	case p.PlayerA.UserID:
		return p.PlayerB, true
	case p.PlayerB.UserID:
		return p.PlayerA, true
	}
	return PairSide{}, false
}

// Side returns the pairing side for userID, and false when userID is not part
// of the pairing.
func (p MatchPairing) Side(userID string) (PairSide, bool) {
	switch userID {
	case p.PlayerA.UserID:
		return p.PlayerA, true
	case p.PlayerB.UserID:
		return p.PlayerB, true
	}
	return PairSide{}, false
}

// UserIDs returns both participant identities, A first.
func (p MatchPairing) UserIDs() []string {
	return []string{p.PlayerA.UserID, p.PlayerB.UserID}
}

// EnqueueRequest is the payload for the Enqueue operation.
type EnqueueRequest struct {
	UserID string `json:"user_id" valid:"required,stringlength(1|128)"`
}

func (r *EnqueueRequest) Validate() error {
	if _, err := validator.ValidateStruct(r); err != nil {
		return ErrInvalidRequest
	}
	return nil
}

// SubmitRequest is the payload for the SubmitResult operation.
type SubmitRequest struct {
	UserID  string `json:"user_id" valid:"required,stringlength(1|128)"`
	Outcome string `json:"outcome" valid:"required,in(win|loss)"`
	Class   string `json:"class"   valid:"stringlength(0|64)"`
}

func (r *SubmitRequest) Validate() error {
	if _, err := validator.ValidateStruct(r); err != nil {
		return ErrInvalidRequest
	}
	return nil
}

// SettlementRecord is the durable result of one settled session, handed to the
// persistence collaborator.
type SettlementRecord struct {
	SettlementID     string    `json:"settlement_id"`
	WinnerID         string    `json:"winner_id"`
	LoserID          string    `json:"loser_id"`
	WinnerPreRating  float64   `json:"winner_pre_rating"`
	LoserPreRating   float64   `json:"loser_pre_rating"`
	WinnerPostRating float64   `json:"winner_post_rating"`
	LoserPostRating  float64   `json:"loser_post_rating"`
	WinnerClass      string    `json:"winner_class"`
	LoserClass       string    `json:"loser_class"`
	Walkover         bool      `json:"walkover"`
	SettledAt        time.Time `json:"settled_at"`
}

func (r SettlementRecord) Copy() SettlementRecord {
	copied, err := copystructure.Copy(r)
	if err != nil {
		logrus.Warn("failed copy settlementRecord:", err)
		return r
	}
	record, _ := copied.(SettlementRecord)
	return record
}

// DisputeOutcome is the resolution state of a dispute session.
type DisputeOutcome string

const (
	DisputePending  DisputeOutcome = "PENDING"
	DisputeAccepted DisputeOutcome = "ACCEPTED"
	DisputeRejected DisputeOutcome = "REJECTED"
)
