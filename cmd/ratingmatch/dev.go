// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/models"
)

const devInitialRating = 1600

// devGate is the in-memory eligibility gate and persistence used when the core
// runs standalone. Unknown participants get the initial rating on first
// lookup so the process can be exercised end to end without a profile store.
type devGate struct {
	mu        sync.Mutex
	ratings   map[string]float64
	inMatch   map[string]bool
	penalties map[string]int
}

func newDevGate() *devGate {
	return &devGate{
		ratings:   make(map[string]float64),
		inMatch:   make(map[string]bool),
		penalties: make(map[string]int),
	}
}

func (g *devGate) IsSeasonOpen() bool { return true }

func (g *devGate) GetRatingSnapshot(userID string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rating, ok := g.ratings[userID]
	if !ok {
		rating = devInitialRating
		g.ratings[userID] = rating
	}
	return rating, nil
}

func (g *devGate) HasDeclaredClasses(userID string) bool { return true }

func (g *devGate) IsCurrentlyInMatch(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inMatch[userID]
}

func (g *devGate) SetInMatch(userID string, inMatch bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inMatch[userID] = inMatch
}

func (g *devGate) RecordSettlement(scope *envelope.Scope, record models.SettlementRecord) (string, error) {
	scope.Log.WithFields(logrus.Fields{
		"settlementID": record.SettlementID,
		"winner":       record.WinnerID,
		"loser":        record.LoserID,
		"walkover":     record.Walkover,
	}).Info("settlement recorded")
	return record.SettlementID, nil
}

func (g *devGate) ApplyRatingDelta(scope *envelope.Scope, userID string, delta float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ratings[userID] += delta
	return nil
}

func (g *devGate) ApplyPenalty(scope *envelope.Scope, userID string, points int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.penalties[userID] += points
	return nil
}

// loggingNotifier writes protocol events to the log instead of a presentation
// channel.
type loggingNotifier struct{}

func newLoggingNotifier() loggingNotifier { return loggingNotifier{} }

func (loggingNotifier) OnMatchFormed(scope *envelope.Scope, sessionID string, pairing models.MatchPairing) {
	scope.Log.WithFields(logrus.Fields{
		"sessionID": sessionID,
		"playerA":   pairing.PlayerA.UserID,
		"playerB":   pairing.PlayerB.UserID,
	}).Info("match formed")
}

func (loggingNotifier) OnQueueTimeout(scope *envelope.Scope, userID string) {
	scope.Log.WithField("userID", userID).Info("no opponent found")
}

func (loggingNotifier) OnResubmitRequired(scope *envelope.Scope, sessionID string, pairing models.MatchPairing) {
	scope.Log.WithField("sessionID", sessionID).Info("resubmission required")
}

func (loggingNotifier) OnDisputeFlagged(scope *envelope.Scope, sessionID string, requesterID, counterpartID string) {
	scope.Log.WithFields(logrus.Fields{
		"sessionID":   sessionID,
		"requester":   requesterID,
		"counterpart": counterpartID,
	}).Warn("dispute flagged for review")
}
