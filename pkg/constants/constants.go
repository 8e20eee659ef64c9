// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package constants

const (
	// DefaultClass is recorded for a participant who never declared a class
	// before a walkover settled the session on their behalf.
	DefaultClass = "unspecified"
)

const (
	MatchTickFunction  = "matchTick"
	SettlementFunction = "settlement"

	// Enqueue rejection reason constants.
	RejectReasonDuplicateEntry    = "reject_duplicate_entry"
	RejectReasonSeasonClosed      = "reject_season_closed"
	RejectReasonNoDeclaredClasses = "reject_no_declared_classes"
	RejectReasonAlreadyInMatch    = "reject_already_in_match"
	RejectReasonRatingNotFound    = "reject_rating_not_found"

	// Unmatched reason constants.
	ReasonNotEnoughEntries   = "not_enough_entries"
	ReasonRatingOutOfWindow  = "rating_out_of_window"
	ReasonPreviousOpponent   = "previous_opponent"
	ReasonStaleInMatchEntry  = "stale_in_match_entry"
	ReasonWaitTimeoutExpired = "wait_timeout_expired"
)
