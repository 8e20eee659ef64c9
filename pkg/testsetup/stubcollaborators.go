// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"sync"

	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/external"
	"github.com/yakioni/SVRatings-sub000/pkg/models"
)

// StubEligibility is an in-memory eligibility gate for tests. The zero value
// is unusable; use NewStubEligibility.
type StubEligibility struct {
	mu         sync.Mutex
	SeasonOpen bool
	Ratings    map[string]float64
	NoClasses  map[string]bool
	inMatch    map[string]bool
}

func NewStubEligibility() *StubEligibility {
	return &StubEligibility{
		SeasonOpen: true,
		Ratings:    make(map[string]float64),
		NoClasses:  make(map[string]bool),
		inMatch:    make(map[string]bool),
	}
}

func (s *StubEligibility) IsSeasonOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SeasonOpen
}

func (s *StubEligibility) GetRatingSnapshot(userID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rating, ok := s.Ratings[userID]
	if !ok {
		return 0, external.ErrNotFound
	}
	return rating, nil
}

func (s *StubEligibility) HasDeclaredClasses(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.NoClasses[userID]
}

func (s *StubEligibility) IsCurrentlyInMatch(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inMatch[userID]
}

func (s *StubEligibility) SetInMatch(userID string, inMatch bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inMatch[userID] = inMatch
}

// StubPersistence records settlements in memory and can be told to fail to
// exercise the transient-failure path.
type StubPersistence struct {
	mu          sync.Mutex
	FailNext    error
	Settlements []models.SettlementRecord
	Deltas      map[string]float64
	Penalties   map[string]int
}

func NewStubPersistence() *StubPersistence {
	return &StubPersistence{
		Deltas:    make(map[string]float64),
		Penalties: make(map[string]int),
	}
}

func (s *StubPersistence) RecordSettlement(scope *envelope.Scope, record models.SettlementRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return "", err
	}
	s.Settlements = append(s.Settlements, record.Copy())
	return record.SettlementID, nil
}

func (s *StubPersistence) ApplyRatingDelta(scope *envelope.Scope, userID string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return err
	}
	s.Deltas[userID] += delta
	return nil
}

func (s *StubPersistence) ApplyPenalty(scope *envelope.Scope, userID string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return err
	}
	s.Penalties[userID] += points
	return nil
}

func (s *StubPersistence) LastSettlement() (models.SettlementRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Settlements) == 0 {
		return models.SettlementRecord{}, false
	}
	return s.Settlements[len(s.Settlements)-1], true
}

// RecordingNotifier captures every protocol event pushed toward presentation.
type RecordingNotifier struct {
	mu              sync.Mutex
	FormedSessions  []string
	FormedPairings  []models.MatchPairing
	QueueTimeouts   []string
	ResubmitAsked   []string
	FlaggedDisputes []string
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) OnMatchFormed(scope *envelope.Scope, sessionID string, pairing models.MatchPairing) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.FormedSessions = append(n.FormedSessions, sessionID)
	n.FormedPairings = append(n.FormedPairings, pairing)
}

func (n *RecordingNotifier) OnQueueTimeout(scope *envelope.Scope, userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.QueueTimeouts = append(n.QueueTimeouts, userID)
}

func (n *RecordingNotifier) OnResubmitRequired(scope *envelope.Scope, sessionID string, pairing models.MatchPairing) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ResubmitAsked = append(n.ResubmitAsked, sessionID)
}

func (n *RecordingNotifier) OnDisputeFlagged(scope *envelope.Scope, sessionID string, requesterID, counterpartID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.FlaggedDisputes = append(n.FlaggedDisputes, sessionID)
}

func (n *RecordingNotifier) QueueTimeoutsSnapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.QueueTimeouts...)
}

func (n *RecordingNotifier) FormedSessionsSnapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.FormedSessions...)
}

func (n *RecordingNotifier) FormedPairingsSnapshot() []models.MatchPairing {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.MatchPairing(nil), n.FormedPairings...)
}

func (n *RecordingNotifier) ResubmitAskedSnapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.ResubmitAsked...)
}

func (n *RecordingNotifier) FlaggedDisputesSnapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.FlaggedDisputes...)
}
