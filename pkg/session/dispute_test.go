// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakioni/SVRatings-sub000/pkg/models"
	"github.com/yakioni/SVRatings-sub000/pkg/testsetup"
)

func TestDisputeAcceptVoidsSession(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, f := newTestSession(g, DefaultSettings())

	d, err := s.RequestCancellation(g.TestScope, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "user-a", d.RequesterID())
	assert.Equal(t, "user-b", d.CounterpartID())
	assert.Equal(t, models.DisputePending, d.Outcome())

	require.NoError(t, d.Respond(g.TestScope, "user-b", true))

	assert.Equal(t, models.DisputeAccepted, d.Outcome())
	assert.Equal(t, models.StateVoided, s.State())
	assert.Empty(t, f.persistence.Settlements)
	assert.False(t, f.eligibility.IsCurrentlyInMatch("user-a"))
	assert.False(t, f.eligibility.IsCurrentlyInMatch("user-b"))
	assert.Equal(t, []string{s.ID()}, f.closedSnapshot())
}

func TestDisputeRejectResumesResultFlow(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, f := newTestSession(g, DefaultSettings())

	require.NoError(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeWin, ""))

	d, err := s.RequestCancellation(g.TestScope, "user-b")
	require.NoError(t, err)

	// a pending dispute blocks result submission
	assert.ErrorIs(t, s.SubmitResult(g.TestScope, "user-b", models.OutcomeLoss, ""), models.ErrDisputePending)

	require.NoError(t, d.Respond(g.TestScope, "user-a", false))

	assert.Equal(t, models.DisputeRejected, d.Outcome())
	assert.Equal(t, models.StateAwaitingSecondResult, s.State())
	assert.Equal(t, []string{s.ID()}, f.notifier.FlaggedDisputesSnapshot())

	// the already-submitted result survived the dispute
	require.NoError(t, s.SubmitResult(g.TestScope, "user-b", models.OutcomeLoss, ""))
	assert.Equal(t, models.StateSettled, s.State())
	record, ok := s.Settlement()
	require.True(t, ok)
	assert.Equal(t, "user-a", record.WinnerID)
}

func TestDisputeRespondRejections(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, _ := newTestSession(g, DefaultSettings())

	d, err := s.RequestCancellation(g.TestScope, "user-a")
	require.NoError(t, err)

	assert.ErrorIs(t, d.Respond(g.TestScope, "user-a", true), models.ErrNotCounterpart)
	assert.ErrorIs(t, d.Respond(g.TestScope, "stranger", true), models.ErrNotCounterpart)

	require.NoError(t, d.Respond(g.TestScope, "user-b", false))
	assert.ErrorIs(t, d.Respond(g.TestScope, "user-b", true), models.ErrDisputeResolved)
}

func TestDisputeRequestRejections(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, _ := newTestSession(g, DefaultSettings())

	_, err := s.RequestCancellation(g.TestScope, "stranger")
	assert.ErrorIs(t, err, models.ErrNotParticipant)

	_, err = s.RequestCancellation(g.TestScope, "user-a")
	require.NoError(t, err)
	_, err = s.RequestCancellation(g.TestScope, "user-b")
	assert.ErrorIs(t, err, models.ErrDisputePending)
}

func TestDisputeRequestAfterSettlement(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	s, _ := newTestSession(g, DefaultSettings())

	require.NoError(t, s.SubmitResult(g.TestScope, "user-a", models.OutcomeWin, ""))
	require.NoError(t, s.SubmitResult(g.TestScope, "user-b", models.OutcomeLoss, ""))

	_, err := s.RequestCancellation(g.TestScope, "user-a")
	assert.ErrorIs(t, err, models.ErrSessionLocked)
}

func TestDisputeAutoAcceptAfterWindow(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	settings := DefaultSettings()
	settings.DisputeTimeLimit = 30 * time.Millisecond
	s, f := newTestSession(g, settings)

	d, err := s.RequestCancellation(g.TestScope, "user-a")
	require.NoError(t, err)

	g.Eventually(s.State, time.Second, 5*time.Millisecond).Should(gomega.Equal(models.StateVoided))
	assert.Equal(t, models.DisputeAccepted, d.Outcome())
	assert.Empty(t, f.persistence.Settlements)

	assert.ErrorIs(t, d.Respond(g.TestScope, "user-b", false), models.ErrDisputeResolved)
}

func TestDisputeSuspendsResultTimer(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	settings := DefaultSettings()
	settings.ResultTimeLimit = 30 * time.Millisecond
	s, f := newTestSession(g, settings)

	_, err := s.RequestCancellation(g.TestScope, "user-a")
	require.NoError(t, err)

	// well past the report window: the open dispute keeps the session alive
	g.Consistently(s.State, 150*time.Millisecond, 10*time.Millisecond).
		Should(gomega.Equal(models.StateAwaitingResults))
	assert.Empty(t, f.closedSnapshot())
}
