// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package service wires the waiting pool, the matcher and the live session
// registry behind the surface exposed to collaborators: Enqueue, Withdraw,
// SubmitResult, RequestCancellation, RespondToCancellation and the diagnostics
// snapshot.
package service

import (
	"errors"
	"sync"
	"time"

	"github.com/yakioni/SVRatings-sub000/pkg/config"
	"github.com/yakioni/SVRatings-sub000/pkg/constants"
	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/external"
	"github.com/yakioni/SVRatings-sub000/pkg/matcher"
	"github.com/yakioni/SVRatings-sub000/pkg/metrics"
	"github.com/yakioni/SVRatings-sub000/pkg/models"
	"github.com/yakioni/SVRatings-sub000/pkg/pool"
	"github.com/yakioni/SVRatings-sub000/pkg/session"
)

type Service struct {
	waitingPool *pool.WaitingPool
	matcher     *matcher.Matcher
	registry    *session.Registry

	eligibility external.Eligibility
	notifier    external.Notifier
	collab      session.Collaborators
	settings    session.Settings
	metrics     metrics.LadderMetrics

	wg sync.WaitGroup
}

// New builds the service. Every collaborator is required at construction so a
// half-wired service is unrepresentable.
func New(cfg *config.Config, eligibility external.Eligibility, persistence external.Persistence, notifier external.Notifier, ladderMetrics metrics.LadderMetrics) *Service {
	waitTimeLimit := pool.DefaultWaitTimeLimit
	if cfg != nil && cfg.WaitTimeLimitSecond > 0 {
		waitTimeLimit = time.Duration(cfg.WaitTimeLimitSecond) * time.Second
	}

	waitingPool := pool.NewWaitingPool(waitTimeLimit, eligibility, notifier, ladderMetrics)

	return &Service{
		waitingPool: waitingPool,
		matcher:     matcher.New(cfg, waitingPool, eligibility, ladderMetrics),
		registry:    session.NewRegistry(),
		eligibility: eligibility,
		notifier:    notifier,
		collab: session.Collaborators{
			Eligibility: eligibility,
			Persistence: persistence,
			Notifier:    notifier,
			Metrics:     ladderMetrics,
		},
		settings: session.SettingsFromConfig(cfg),
		metrics:  ladderMetrics,
	}
}

// Start launches the matcher loop and the pairing consumer.
func (s *Service) Start(scope *envelope.Scope) {
	s.matcher.Start(scope)

	s.wg.Add(1)
	go s.consumePairings(scope)
}

// Stop halts matching and drains the pairing channel.
func (s *Service) Stop(scope *envelope.Scope) {
	s.matcher.Stop(scope)
	s.wg.Wait()
}

// Enqueue admits a participant to the waiting pool with a fresh rating
// snapshot.
func (s *Service) Enqueue(scope *envelope.Scope, req models.EnqueueRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	ratingSnapshot, err := s.eligibility.GetRatingSnapshot(req.UserID)
	if err != nil {
		if errors.Is(err, external.ErrNotFound) {
			if s.metrics != nil {
				s.metrics.AddRejectReason(constants.RejectReasonRatingNotFound)
			}
			return models.ErrRatingNotFound
		}
		return err
	}

	return s.waitingPool.Enqueue(scope, req.UserID, ratingSnapshot)
}

// Withdraw removes the participant's waiting entry. Idempotent.
func (s *Service) Withdraw(scope *envelope.Scope, userID string) bool {
	return s.waitingPool.Remove(scope, userID)
}

// CurrentQueueSnapshot returns a consistent, rating-ascending view of the
// waiting pool for diagnostics and administration.
func (s *Service) CurrentQueueSnapshot() []models.WaitingEntry {
	return s.waitingPool.Snapshot()
}

// SubmitResult routes a result submission to the caller's live session.
func (s *Service) SubmitResult(scope *envelope.Scope, req models.SubmitRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	live, ok := s.registry.FindByUser(req.UserID)
	if !ok {
		return models.ErrSessionNotFound
	}
	return live.SubmitResult(scope, req.UserID, models.Outcome(req.Outcome), req.Class)
}

// RequestCancellation opens a dispute against the caller's live session and
// returns the owning session id.
func (s *Service) RequestCancellation(scope *envelope.Scope, userID string) (string, error) {
	live, ok := s.registry.FindByUser(userID)
	if !ok {
		return "", models.ErrSessionNotFound
	}
	if _, err := live.RequestCancellation(scope, userID); err != nil {
		return "", err
	}
	return live.ID(), nil
}

// RespondToCancellation resolves the open dispute on the responder's session.
func (s *Service) RespondToCancellation(scope *envelope.Scope, userID string, accept bool) error {
	live, ok := s.registry.FindByUser(userID)
	if !ok {
		return models.ErrSessionNotFound
	}
	dispute, ok := live.Dispute()
	if !ok {
		return models.ErrNoDispute
	}
	return dispute.Respond(scope, userID, accept)
}

// RetrySettlement re-runs the persistence step of a session stuck behind a
// transient persistence failure.
func (s *Service) RetrySettlement(scope *envelope.Scope, sessionID string) error {
	live, ok := s.registry.FindByID(sessionID)
	if !ok {
		return models.ErrSessionNotFound
	}
	return live.RetrySettlement(scope)
}

// LiveSessionCount returns the number of sessions between formation and
// settlement, for diagnostics.
func (s *Service) LiveSessionCount() int {
	return s.registry.Size()
}

// consumePairings turns formed pairings into live sessions. Runs until the
// matcher closes its channel. The in-match flags are set before the session is
// registered so the matcher's defensive cleanup and the enqueue gate both see
// the membership immediately.
func (s *Service) consumePairings(rootScope *envelope.Scope) {
	defer s.wg.Done()

	for pairing := range s.matcher.Pairings() {
		scope := rootScope.NewChildScope("Service.consumePairings")

		s.eligibility.SetInMatch(pairing.PlayerA.UserID, true)
		s.eligibility.SetInMatch(pairing.PlayerB.UserID, true)

		live := session.NewMatchSession(scope, pairing, s.settings, s.collab, s.registry.Remove)
		s.registry.Add(live)

		// outside the pool lock; a failure here never rolls the pairing back
		s.notifier.OnMatchFormed(scope, live.ID(), pairing)
		scope.Finish()
	}
}
