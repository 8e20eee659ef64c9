// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakioni/SVRatings-sub000/pkg/constants"
	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/models"
	"github.com/yakioni/SVRatings-sub000/pkg/testsetup"
)

type sessionFixture struct {
	eligibility *testsetup.StubEligibility
	persistence *testsetup.StubPersistence
	notifier    *testsetup.RecordingNotifier

	mu     sync.Mutex
	closed []string
}

func (f *sessionFixture) onClosed(s *MatchSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, s.ID())
}

func (f *sessionFixture) closedSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

func testPairing() models.MatchPairing {
	return models.MatchPairing{
		PlayerA:  models.PairSide{UserID: "user-a", Rating: 1600},
		PlayerB:  models.PairSide{UserID: "user-b", Rating: 1400},
		FormedAt: time.Now().UTC(),
	}
}

func newTestSession(g testsetup.GomegaWithScope, settings Settings) (*MatchSession, *sessionFixture) {
	f := &sessionFixture{
		eligibility: testsetup.NewStubEligibility(),
		persistence: testsetup.NewStubPersistence(),
		notifier:    testsetup.NewRecordingNotifier(),
	}
	f.eligibility.SetInMatch("user-a", true)
	f.eligibility.SetInMatch("user-b", true)

	collab := Collaborators{
		Eligibility: f.eligibility,
		Persistence: f.persistence,
		Notifier:    f.notifier,
		Metrics:     testsetup.NewMetrics(),
	}
	return NewMatchSession(g.TestScope, testPairing(), settings, collab, f.onClosed), f
}

func TestConsistentResultsSettle(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, f := newTestSession(g, DefaultSettings())

	require.NoError(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeWin, "forestcraft"))
	assert.Equal(t, models.StateAwaitingSecondResult, s.State())
	require.NoError(t, s.SubmitResult(g.TestScope, "user-b", models.OutcomeLoss, "dragoncraft"))

	assert.Equal(t, models.StateSettled, s.State())

	record, ok := s.Settlement()
	require.True(t, ok, "expected a settlement record")
	t.Logf("settlement record: %s", spew.Sdump(record))
	assert.NotEmpty(t, record.SettlementID)
	assert.Equal(t, "user-a", record.WinnerID)
	assert.Equal(t, "user-b", record.LoserID)
	assert.Equal(t, 1600.0, record.WinnerPreRating)
	assert.InDelta(t, 1615.0, record.WinnerPostRating, 1e-9)
	assert.InDelta(t, 1385.0, record.LoserPostRating, 1e-9)
	assert.Equal(t, "forestcraft", record.WinnerClass)
	assert.Equal(t, "dragoncraft", record.LoserClass)
	assert.False(t, record.Walkover)

	assert.InDelta(t, 15.0, f.persistence.Deltas["user-a"], 1e-9)
	assert.InDelta(t, -15.0, f.persistence.Deltas["user-b"], 1e-9)
	assert.Empty(t, f.persistence.Penalties)

	assert.False(t, f.eligibility.IsCurrentlyInMatch("user-a"))
	assert.False(t, f.eligibility.IsCurrentlyInMatch("user-b"))
	assert.Equal(t, []string{s.ID()}, f.closedSnapshot())
}

func TestConflictingResultsClearSlots(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, f := newTestSession(g, DefaultSettings())

	require.NoError(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeWin, ""))
	require.NoError(t, s.SubmitResult(g.TestScope, "user-b", models.OutcomeWin, ""))

	assert.Equal(t, models.StateAwaitingResults, s.State())
	assert.Equal(t, []string{s.ID()}, f.notifier.ResubmitAskedSnapshot())
	_, ok := s.Settlement()
	assert.False(t, ok, "conflicting results must not settle")
	assert.Empty(t, f.persistence.Settlements)

	// both may resubmit; a consistent pair settles normally
	require.NoError(t, s.SubmitResult(g.TestScope, "user-b", models.OutcomeWin, ""))
	require.NoError(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeLoss, ""))

	assert.Equal(t, models.StateSettled, s.State())
	record, ok := s.Settlement()
	require.True(t, ok)
	assert.Equal(t, "user-b", record.WinnerID)
	assert.Equal(t, constants.DefaultClass, record.WinnerClass)
}

func TestSubmitRejections(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, _ := newTestSession(g, DefaultSettings())

	assert.ErrorIs(t, s.SubmitResult(g.TestScope, "stranger", models.OutcomeWin, ""), models.ErrNotParticipant)

	require.NoError(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeWin, ""))
	assert.ErrorIs(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeLoss, ""), models.ErrAlreadySubmitted)

	require.NoError(t, s.SubmitResult(g.TestScope, "user-b", models.OutcomeLoss, ""))
	assert.ErrorIs(t, s.SubmitResult(g.TestScope, "user-b", models.OutcomeLoss, ""), models.ErrSessionLocked)
}

func TestWalkoverOnResultTimeout(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	settings := DefaultSettings()
	settings.ResultTimeLimit = 30 * time.Millisecond
	s, f := newTestSession(g, settings)

	require.NoError(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeWin, "swordcraft"))

	g.Eventually(s.State, time.Second, 5*time.Millisecond).Should(gomega.Equal(models.StateSettled))

	record, ok := s.Settlement()
	require.True(t, ok)
	assert.True(t, record.Walkover)
	assert.Equal(t, "user-a", record.WinnerID)
	assert.Equal(t, "user-b", record.LoserID)
	assert.Equal(t, constants.DefaultClass, record.LoserClass)

	assert.InDelta(t, 15.0, f.persistence.Deltas["user-a"], 1e-9)
	assert.InDelta(t, -15.0, f.persistence.Deltas["user-b"], 1e-9)
	assert.Equal(t, DefaultTimeoutPenalty, f.persistence.Penalties["user-b"])
	g.Eventually(func() bool { return f.eligibility.IsCurrentlyInMatch("user-b") }).Should(gomega.BeFalse())
}

func TestWalkoverOverridesReportedLoss(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	settings := DefaultSettings()
	settings.ResultTimeLimit = 30 * time.Millisecond
	s, f := newTestSession(g, settings)

	// the present participant claimed a loss, the counterpart never reported
	require.NoError(t, s.SubmitResult(g.TestScope, "user-b", models.OutcomeLoss, ""))

	g.Eventually(s.State, time.Second, 5*time.Millisecond).Should(gomega.Equal(models.StateSettled))

	record, ok := s.Settlement()
	require.True(t, ok)
	assert.True(t, record.Walkover)
	assert.Equal(t, "user-b", record.WinnerID)
	assert.Equal(t, DefaultTimeoutPenalty, f.persistence.Penalties["user-a"])
}

func TestVoidWhenBothSilent(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	settings := DefaultSettings()
	settings.ResultTimeLimit = 30 * time.Millisecond
	s, f := newTestSession(g, settings)

	g.Eventually(s.State, time.Second, 5*time.Millisecond).Should(gomega.Equal(models.StateVoided))

	_, ok := s.Settlement()
	assert.False(t, ok)
	assert.Empty(t, f.persistence.Settlements)
	assert.Empty(t, f.persistence.Deltas)
	assert.Empty(t, f.persistence.Penalties)
	g.Eventually(func() bool { return f.eligibility.IsCurrentlyInMatch("user-a") }).Should(gomega.BeFalse())
	g.Eventually(f.closedSnapshot).Should(gomega.Equal([]string{s.ID()}))

	assert.ErrorIs(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeWin, ""), models.ErrSessionLocked)
}

func TestSettlementFailureIsRetryable(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, f := newTestSession(g, DefaultSettings())

	f.persistence.FailNext = errors.New("records store unavailable")

	require.NoError(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeWin, ""))
	err := s.SubmitResult(g.TestScope, "user-b", models.OutcomeLoss, "")
	require.ErrorIs(t, err, models.ErrSettlementFailed)
	assert.True(t, models.IsTransient(err))

	assert.Equal(t, models.StateReconciling, s.State())
	assert.True(t, f.eligibility.IsCurrentlyInMatch("user-a"), "in-match flag must survive a failed settlement")
	assert.Empty(t, f.closedSnapshot())

	require.NoError(t, s.RetrySettlement(g.TestScope))
	assert.Equal(t, models.StateSettled, s.State())
	assert.InDelta(t, 15.0, f.persistence.Deltas["user-a"], 1e-9)
	assert.Equal(t, []string{s.ID()}, f.closedSnapshot())
}

func TestRetrySettlementRequiresPendingSettlement(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, _ := newTestSession(g, DefaultSettings())

	assert.ErrorIs(t, s.RetrySettlement(g.TestScope), models.ErrSessionLocked)
}

// partialFailPersistence lets the settlement record and the first rating delta
// through, then fails the second delta exactly once.
type partialFailPersistence struct {
	*testsetup.StubPersistence
	mu         sync.Mutex
	deltaCalls int
}

func (p *partialFailPersistence) ApplyRatingDelta(scope *envelope.Scope, userID string, delta float64) error {
	p.mu.Lock()
	p.deltaCalls++
	failNow := p.deltaCalls == 2
	p.mu.Unlock()
	if failNow {
		return errors.New("ratings store unavailable")
	}
	return p.StubPersistence.ApplyRatingDelta(scope, userID, delta)
}

func TestRetrySkipsStepsThatAlreadySucceeded(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := &sessionFixture{
		eligibility: testsetup.NewStubEligibility(),
		persistence: testsetup.NewStubPersistence(),
		notifier:    testsetup.NewRecordingNotifier(),
	}
	f.eligibility.SetInMatch("user-a", true)
	f.eligibility.SetInMatch("user-b", true)
	flaky := &partialFailPersistence{StubPersistence: f.persistence}
	collab := Collaborators{
		Eligibility: f.eligibility,
		Persistence: flaky,
		Notifier:    f.notifier,
		Metrics:     testsetup.NewMetrics(),
	}
	s := NewMatchSession(g.TestScope, testPairing(), DefaultSettings(), collab, f.onClosed)

	require.NoError(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeWin, ""))
	err := s.SubmitResult(g.TestScope, "user-b", models.OutcomeLoss, "")
	require.ErrorIs(t, err, models.ErrSettlementFailed)
	assert.Equal(t, models.StateReconciling, s.State())
	require.Len(t, f.persistence.Settlements, 1, "record confirmed before the failing delta")

	require.NoError(t, s.RetrySettlement(g.TestScope))
	assert.Equal(t, models.StateSettled, s.State())

	// the confirmed record and delta were not applied a second time
	assert.Len(t, f.persistence.Settlements, 1)
	assert.InDelta(t, 15.0, f.persistence.Deltas["user-a"], 1e-9)
	assert.InDelta(t, -15.0, f.persistence.Deltas["user-b"], 1e-9)
}

func TestSubmitRejectsInvalidOutcome(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, _ := newTestSession(g, DefaultSettings())

	assert.ErrorIs(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeUnset, ""), models.ErrInvalidRequest)
	assert.ErrorIs(t, s.SubmitResult(g.TestScope, "user-a", models.Outcome("draw"), ""), models.ErrInvalidRequest)
	assert.Equal(t, models.StateAwaitingResults, s.State())
}
