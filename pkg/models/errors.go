// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
)

// Validation errors: malformed or out-of-range requests, rejected synchronously
// and never retried automatically.
var (
	ErrInvalidRequest    = errors.New("request payload failed validation")
	ErrDuplicateEntry    = errors.New("participant already has a live waiting entry")
	ErrSeasonClosed      = errors.New("matchmaking is closed, no season is open")
	ErrNoDeclaredClasses = errors.New("participant has not declared any classes")
	ErrAlreadyInMatch    = errors.New("participant is flagged as currently in a match")
	ErrRatingNotFound    = errors.New("no rating snapshot found for participant")
)

// State conflicts: the caller raced another mutation and must re-query state.
var (
	ErrNotParticipant   = errors.New("caller is not a participant of this session")
	ErrAlreadySubmitted = errors.New("participant already submitted a result for this session")
	ErrSessionLocked    = errors.New("session already settled or voided")
	ErrDisputePending   = errors.New("session has an unresolved dispute")
	ErrSessionNotFound  = errors.New("no live session for participant")
	ErrNotCounterpart   = errors.New("only the dispute counterpart may respond")
	ErrDisputeResolved  = errors.New("dispute already resolved")
	ErrNoDispute        = errors.New("session has no open dispute")
)

// ErrSettlementFailed marks a transient persistence failure. The session stays
// in Reconciling and the settlement step may be retried.
var ErrSettlementFailed = errors.New("settlement persistence failed")

var errorCodeMap = map[error]int{
	ErrInvalidRequest:    510201,
	ErrDuplicateEntry:    510202,
	ErrSeasonClosed:      510203,
	ErrNoDeclaredClasses: 510204,
	ErrAlreadyInMatch:    510205,
	ErrRatingNotFound:    510206,

	ErrNotParticipant:   510211,
	ErrAlreadySubmitted: 510212,
	ErrSessionLocked:    510213,
	ErrDisputePending:   510214,
	ErrSessionNotFound:  510215,
	ErrNotCounterpart:   510216,
	ErrDisputeResolved:  510217,
	ErrNoDispute:        510218,

	ErrSettlementFailed: 510221,
}

// ErrorCode returns a stable code for the error.
// It returns 20002 if the error is not registered in the map.
func ErrorCode(err error) int {
	for registered, code := range errorCodeMap {
		if errors.Is(err, registered) {
			return code
		}
	}
	return 20002
}

// IsTransient reports whether the caller may retry the failed step.
func IsTransient(err error) bool {
	return errors.Is(err, ErrSettlementFailed)
}
