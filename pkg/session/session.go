// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package session implements the per-pair settlement protocol: result
// submission, reconciliation, walkover on timeout, and the cancellation
// dispute flow. Each session owns one mutex; sessions never contend with each
// other.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yakioni/SVRatings-sub000/pkg/common"
	"github.com/yakioni/SVRatings-sub000/pkg/config"
	"github.com/yakioni/SVRatings-sub000/pkg/constants"
	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/external"
	"github.com/yakioni/SVRatings-sub000/pkg/metrics"
	"github.com/yakioni/SVRatings-sub000/pkg/models"
	"github.com/yakioni/SVRatings-sub000/pkg/rating"
	"github.com/yakioni/SVRatings-sub000/pkg/utils"
)

const (
	DefaultResultTimeLimit  = 3 * time.Hour
	DefaultDisputeTimeLimit = 48 * time.Hour
	DefaultTimeoutPenalty   = 10
)

// Settings carries the session-level timeouts and the rating constants.
type Settings struct {
	ResultTimeLimit      time.Duration
	DisputeTimeLimit     time.Duration
	TimeoutPenaltyPoints int
	Rating               rating.Settings
}

func DefaultSettings() Settings {
	return Settings{
		ResultTimeLimit:      DefaultResultTimeLimit,
		DisputeTimeLimit:     DefaultDisputeTimeLimit,
		TimeoutPenaltyPoints: DefaultTimeoutPenalty,
		Rating:               rating.DefaultSettings(),
	}
}

func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfg.ResultTimeLimitSecond > 0 {
		s.ResultTimeLimit = time.Duration(cfg.ResultTimeLimitSecond) * time.Second
	}
	if cfg.DisputeTimeLimitHour > 0 {
		s.DisputeTimeLimit = time.Duration(cfg.DisputeTimeLimitHour) * time.Hour
	}
	if cfg.TimeoutPenaltyPoints > 0 {
		s.TimeoutPenaltyPoints = cfg.TimeoutPenaltyPoints
	}
	s.Rating = rating.SettingsFromConfig(cfg)
	return s
}

// Collaborators bundles the external contracts one session mutates through.
type Collaborators struct {
	Eligibility external.Eligibility
	Persistence external.Persistence
	Notifier    external.Notifier
	Metrics     metrics.LadderMetrics
}

type resultSlot struct {
	outcome     models.Outcome
	class       string
	submittedAt time.Time
}

// MatchSession is the state machine for one formed pairing. All mutation goes
// through the session mutex; the result timer and the dispute auto-accept
// timer re-check state before acting so a lost cancellation race never causes
// duplicate side effects.
type MatchSession struct {
	id      string
	pairing models.MatchPairing

	mu       sync.Mutex
	state    models.SessionState
	slots    map[string]*resultSlot
	dispute  *DisputeSession
	walkover bool

	resultTimer     *time.Timer
	settlement      *models.SettlementRecord
	deltas          map[string]float64
	deltasApplied   map[string]bool
	recordPersisted bool
	penaltyUserID   string
	penaltyApplied  bool

	createdAt time.Time

	collab   Collaborators
	settings Settings
	onClosed func(*MatchSession)
}

// NewMatchSession creates a session in AwaitingResults and arms the
// result-report timer. The timer runs from creation so a pair that stays
// completely silent is voided rather than leaking. onClosed is invoked exactly
// once when the session reaches Settled or Voided.
func NewMatchSession(scope *envelope.Scope, pairing models.MatchPairing, settings Settings, collab Collaborators, onClosed func(*MatchSession)) *MatchSession {
	if settings.ResultTimeLimit <= 0 {
		settings.ResultTimeLimit = DefaultResultTimeLimit
	}
	if settings.DisputeTimeLimit <= 0 {
		settings.DisputeTimeLimit = DefaultDisputeTimeLimit
	}

	s := &MatchSession{
		id:      common.GenerateUUID(),
		pairing: pairing,
		state:   models.StateAwaitingResults,
		slots: map[string]*resultSlot{
			pairing.PlayerA.UserID: {},
			pairing.PlayerB.UserID: {},
		},
		createdAt: time.Now().UTC(),
		collab:    collab,
		settings:  settings,
		onClosed:  onClosed,
	}
	s.resultTimer = time.AfterFunc(settings.ResultTimeLimit, s.handleResultTimeout)

	scope.SetAttributes(envelope.SessionIDTag, s.id)
	scope.SetAttributes(envelope.ParticipantsTag, pairing.UserIDs())
	scope.Log.WithFields(logrus.Fields{
		"sessionID": s.id,
		"playerA":   pairing.PlayerA.UserID,
		"playerB":   pairing.PlayerB.UserID,
	}).Info("match session created")

	return s
}

func (s *MatchSession) ID() string { return s.id }

func (s *MatchSession) Pairing() models.MatchPairing { return s.pairing }

func (s *MatchSession) CreatedAt() time.Time { return s.createdAt }

func (s *MatchSession) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Settlement returns a copy of the persisted settlement record, if the session
// reached one.
func (s *MatchSession) Settlement() (models.SettlementRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settlement == nil {
		return models.SettlementRecord{}, false
	}
	return s.settlement.Copy(), true
}

// SubmitResult fills the caller's result slot. The second fill triggers
// reconciliation; conflicting outcomes clear both slots so the pair can
// resubmit without penalty.
func (s *MatchSession) SubmitResult(scope *envelope.Scope, userID string, outcome models.Outcome, class string) error {
	if outcome != models.OutcomeWin && outcome != models.OutcomeLoss {
		return models.ErrInvalidRequest
	}

	s.mu.Lock()

	if s.state.Terminal() {
		s.mu.Unlock()
		return models.ErrSessionLocked
	}
	if s.dispute != nil && s.dispute.outcome == models.DisputePending {
		s.mu.Unlock()
		return models.ErrDisputePending
	}
	slot, ok := s.slots[userID]
	if !ok {
		s.mu.Unlock()
		return models.ErrNotParticipant
	}
	if slot.outcome != models.OutcomeUnset {
		s.mu.Unlock()
		return models.ErrAlreadySubmitted
	}

	slot.outcome = outcome
	slot.class = class
	slot.submittedAt = time.Now().UTC()

	scope.Log.WithFields(logrus.Fields{
		"sessionID": s.id,
		"userID":    userID,
		"outcome":   outcome,
	}).Info("result submitted")

	if s.filledCountLocked() < 2 {
		s.state = models.StateAwaitingSecondResult
		if s.resultTimer == nil {
			// re-armed after a conflicting-results clear
			s.resultTimer = time.AfterFunc(s.settings.ResultTimeLimit, s.handleResultTimeout)
		}
		s.mu.Unlock()
		return nil
	}

	return s.reconcileLocked(scope)
}

// reconcileLocked validates the two submitted outcomes and drives settlement.
// Called with the session mutex held; releases it.
func (s *MatchSession) reconcileLocked(scope *envelope.Scope) error {
	slotA := s.slots[s.pairing.PlayerA.UserID]
	slotB := s.slots[s.pairing.PlayerB.UserID]

	if slotA.outcome != slotB.outcome.Opposite() {
		// both reported the same outcome: clear and ask for resubmission,
		// with a fresh report window
		*slotA = resultSlot{}
		*slotB = resultSlot{}
		s.state = models.StateAwaitingResults
		s.stopResultTimerLocked()
		s.resultTimer = time.AfterFunc(s.settings.ResultTimeLimit, s.handleResultTimeout)
		s.mu.Unlock()

		scope.Log.WithField("sessionID", s.id).Warn("conflicting results, slots cleared")
		s.collab.Notifier.OnResubmitRequired(scope, s.id, s.pairing)
		return nil
	}

	s.state = models.StateReconciling
	s.prepareSettlementLocked(false)
	return s.settleLocked(scope)
}

// prepareSettlementLocked computes both deltas and builds the settlement
// record. walkover marks the silent-loser path.
func (s *MatchSession) prepareSettlementLocked(walkover bool) {
	var winner, loser models.PairSide
	if s.slots[s.pairing.PlayerA.UserID].outcome == models.OutcomeWin {
		winner, loser = s.pairing.PlayerA, s.pairing.PlayerB
	} else {
		winner, loser = s.pairing.PlayerB, s.pairing.PlayerA
	}

	winnerDelta := rating.Delta(winner.Rating, loser.Rating, true, s.settings.Rating)
	loserDelta := rating.Delta(loser.Rating, winner.Rating, false, s.settings.Rating)
	s.deltas = map[string]float64{
		winner.UserID: winnerDelta,
		loser.UserID:  loserDelta,
	}
	s.deltasApplied = make(map[string]bool, 2)
	s.recordPersisted = false
	s.walkover = walkover

	s.settlement = &models.SettlementRecord{
		SettlementID:     utils.GenerateUlid(),
		WinnerID:         winner.UserID,
		LoserID:          loser.UserID,
		WinnerPreRating:  winner.Rating,
		LoserPreRating:   loser.Rating,
		WinnerPostRating: winner.Rating + winnerDelta,
		LoserPostRating:  loser.Rating + loserDelta,
		WinnerClass:      s.classOrDefaultLocked(winner.UserID),
		LoserClass:       s.classOrDefaultLocked(loser.UserID),
		Walkover:         walkover,
		SettledAt:        time.Now().UTC(),
	}
}

// settleLocked pushes the prepared settlement through the persistence
// collaborator. On failure the session stays where it is (Reconciling or
// TimedOut) and the caller may retry; each step is flagged once it succeeds so
// a retry after a partial failure never re-applies a confirmed step. Called
// with the mutex held; releases it.
func (s *MatchSession) settleLocked(scope *envelope.Scope) error {
	record := *s.settlement
	startedAt := time.Now()

	if !s.recordPersisted {
		if _, err := s.collab.Persistence.RecordSettlement(scope, record); err != nil {
			s.mu.Unlock()
			scope.Log.WithField("sessionID", s.id).WithError(err).Error("settlement persistence failed")
			return fmt.Errorf("%w: %v", models.ErrSettlementFailed, err)
		}
		s.recordPersisted = true
	}
	for userID, delta := range s.deltas {
		if s.deltasApplied[userID] {
			continue
		}
		if err := s.collab.Persistence.ApplyRatingDelta(scope, userID, delta); err != nil {
			s.mu.Unlock()
			scope.Log.WithField("sessionID", s.id).WithError(err).Error("rating delta persistence failed")
			return fmt.Errorf("%w: %v", models.ErrSettlementFailed, err)
		}
		s.deltasApplied[userID] = true
	}
	if s.walkover && !s.penaltyApplied {
		points := rating.PenaltyPoints(s.settings.TimeoutPenaltyPoints, s.settings.Rating)
		if err := s.collab.Persistence.ApplyPenalty(scope, s.penaltyUserID, points); err != nil {
			s.mu.Unlock()
			scope.Log.WithField("sessionID", s.id).WithError(err).Error("penalty persistence failed")
			return fmt.Errorf("%w: %v", models.ErrSettlementFailed, err)
		}
		s.penaltyApplied = true
	}

	s.state = models.StateSettled
	s.stopResultTimerLocked()
	walkover := s.walkover
	s.mu.Unlock()

	s.collab.Eligibility.SetInMatch(s.pairing.PlayerA.UserID, false)
	s.collab.Eligibility.SetInMatch(s.pairing.PlayerB.UserID, false)
	if s.collab.Metrics != nil {
		s.collab.Metrics.AddSettlement(walkover)
		s.collab.Metrics.AddMatchTickElapsedTimeMs(constants.SettlementFunction, time.Since(startedAt))
	}
	scope.Log.WithFields(logrus.Fields{
		"sessionID":    s.id,
		"settlementID": record.SettlementID,
		"winner":       record.WinnerID,
		"loser":        record.LoserID,
		"walkover":     walkover,
	}).Info("session settled")

	if s.onClosed != nil {
		s.onClosed(s)
	}
	return nil
}

// RetrySettlement re-runs the persistence step after a transient failure.
func (s *MatchSession) RetrySettlement(scope *envelope.Scope) error {
	s.mu.Lock()
	if s.state != models.StateReconciling && s.state != models.StateTimedOut {
		s.mu.Unlock()
		return models.ErrSessionLocked
	}
	return s.settleLocked(scope)
}

// handleResultTimeout is the report-timer callback. One filled slot turns the
// silent side into a walkover loss with a penalty; zero filled slots void the
// session with no rating change.
func (s *MatchSession) handleResultTimeout() {
	scope := envelope.NewRootScope(context.Background(), "MatchSession.handleResultTimeout", "")
	defer scope.Finish()

	s.mu.Lock()
	if s.state != models.StateAwaitingResults && s.state != models.StateAwaitingSecondResult {
		s.mu.Unlock()
		return
	}
	if s.dispute != nil && s.dispute.outcome == models.DisputePending {
		s.mu.Unlock()
		return
	}
	s.resultTimer = nil

	switch s.filledCountLocked() {
	case 0:
		scope.Log.WithField("sessionID", s.id).Info("both participants silent, session voided")
		s.voidLocked(scope)
		return
	case 1:
		s.state = models.StateTimedOut
		silent := s.silentParticipantLocked()
		present, _ := s.pairing.Other(silent)
		// walkover: the present participant wins regardless of the outcome
		// they reported
		s.slots[silent].outcome = models.OutcomeLoss
		s.slots[present.UserID].outcome = models.OutcomeWin
		s.penaltyUserID = silent
		s.prepareSettlementLocked(true)

		scope.Log.WithFields(logrus.Fields{
			"sessionID": s.id,
			"silent":    silent,
		}).Warn("result window expired, recording walkover")

		if err := s.settleLocked(scope); err != nil {
			scope.Log.WithField("sessionID", s.id).WithError(err).Error("walkover settlement failed, will retry")
		}
		return
	default:
		// both results arrived while the callback raced the timer stop
		s.mu.Unlock()
	}
}

// RequestCancellation opens a dispute instead of submitting a result. The
// armed result timer is cancelled until the dispute resolves.
func (s *MatchSession) RequestCancellation(scope *envelope.Scope, requesterID string) (*DisputeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() || s.state == models.StateReconciling || s.state == models.StateTimedOut {
		return nil, models.ErrSessionLocked
	}
	if s.dispute != nil && s.dispute.outcome == models.DisputePending {
		return nil, models.ErrDisputePending
	}
	counterpart, ok := s.pairing.Other(requesterID)
	if !ok {
		return nil, models.ErrNotParticipant
	}

	s.stopResultTimerLocked()
	s.dispute = newDisputeSession(s, requesterID, counterpart.UserID, s.settings.DisputeTimeLimit)

	if s.collab.Metrics != nil {
		s.collab.Metrics.AddDisputeOpened()
	}
	scope.Log.WithFields(logrus.Fields{
		"sessionID":   s.id,
		"requester":   requesterID,
		"counterpart": counterpart.UserID,
	}).Info("cancellation requested, dispute opened")

	return s.dispute, nil
}

// Dispute returns the live dispute, if one is open.
func (s *MatchSession) Dispute() (*DisputeSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispute == nil {
		return nil, false
	}
	return s.dispute, true
}

// voidLocked tears the session down with no rating change. Called with the
// mutex held; releases it.
func (s *MatchSession) voidLocked(scope *envelope.Scope) {
	s.state = models.StateVoided
	s.stopResultTimerLocked()
	s.mu.Unlock()

	s.collab.Eligibility.SetInMatch(s.pairing.PlayerA.UserID, false)
	s.collab.Eligibility.SetInMatch(s.pairing.PlayerB.UserID, false)
	if s.collab.Metrics != nil {
		s.collab.Metrics.AddVoidedSession()
	}
	scope.Log.WithField("sessionID", s.id).Info("session voided")

	if s.onClosed != nil {
		s.onClosed(s)
	}
}

func (s *MatchSession) stopResultTimerLocked() {
	if s.resultTimer != nil {
		s.resultTimer.Stop()
		s.resultTimer = nil
	}
}

func (s *MatchSession) filledCountLocked() int {
	count := 0
	for _, slot := range s.slots {
		if slot.outcome != models.OutcomeUnset {
			count++
		}
	}
	return count
}

func (s *MatchSession) silentParticipantLocked() string {
	for userID, slot := range s.slots {
		if slot.outcome == models.OutcomeUnset {
			return userID
		}
	}
	return ""
}

func (s *MatchSession) classOrDefaultLocked(userID string) string {
	if slot, ok := s.slots[userID]; ok && slot.class != "" {
		return slot.class
	}
	return constants.DefaultClass
}
