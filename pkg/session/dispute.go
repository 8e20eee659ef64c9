// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/models"
)

// DisputeSession tracks one cancellation request against a live match session.
// Its fields are guarded by the owning session's mutex; it carries no lock of
// its own. The counterpart has a fixed window to respond before auto-accept
// fires with the same effect as an explicit accept.
type DisputeSession struct {
	session       *MatchSession
	requesterID   string
	counterpartID string
	outcome       models.DisputeOutcome
	autoTimer     *time.Timer
	createdAt     time.Time
}

func newDisputeSession(owner *MatchSession, requesterID, counterpartID string, window time.Duration) *DisputeSession {
	d := &DisputeSession{
		session:       owner,
		requesterID:   requesterID,
		counterpartID: counterpartID,
		outcome:       models.DisputePending,
		createdAt:     time.Now().UTC(),
	}
	d.autoTimer = time.AfterFunc(window, d.autoAccept)
	return d
}

func (d *DisputeSession) RequesterID() string { return d.requesterID }

func (d *DisputeSession) CounterpartID() string { return d.counterpartID }

func (d *DisputeSession) Outcome() models.DisputeOutcome {
	d.session.mu.Lock()
	defer d.session.mu.Unlock()
	return d.outcome
}

// Respond resolves the dispute. Accepting voids the match session and clears
// both in-match flags; rejecting resumes the normal result flow and flags the
// dispute for human review.
func (d *DisputeSession) Respond(scope *envelope.Scope, responderID string, accept bool) error {
	s := d.session
	s.mu.Lock()

	if d.outcome != models.DisputePending {
		s.mu.Unlock()
		return models.ErrDisputeResolved
	}
	if responderID != d.counterpartID {
		s.mu.Unlock()
		return models.ErrNotCounterpart
	}

	d.resolveLocked(scope, accept, false)
	return nil
}

// autoAccept is the dispute-window timer callback. The pending check makes it
// a no-op when an explicit response won the race.
func (d *DisputeSession) autoAccept() {
	scope := envelope.NewRootScope(context.Background(), "DisputeSession.autoAccept", "")
	defer scope.Finish()

	s := d.session
	s.mu.Lock()
	if d.outcome != models.DisputePending {
		s.mu.Unlock()
		return
	}

	scope.Log.WithField("sessionID", s.id).Info("dispute response window elapsed, auto-accepting")
	d.resolveLocked(scope, true, true)
}

// resolveLocked finishes the dispute. Called with the session mutex held;
// releases it on every path.
func (d *DisputeSession) resolveLocked(scope *envelope.Scope, accept bool, auto bool) {
	s := d.session
	if d.autoTimer != nil {
		d.autoTimer.Stop()
		d.autoTimer = nil
	}

	if accept {
		d.outcome = models.DisputeAccepted
		outcome := "accepted"
		if auto {
			outcome = "auto_accepted"
		}
		if s.collab.Metrics != nil {
			s.collab.Metrics.AddDisputeResolved(outcome)
		}
		scope.Log.WithFields(logrus.Fields{
			"sessionID": s.id,
			"requester": d.requesterID,
			"auto":      auto,
		}).Info("cancellation accepted, voiding session")
		s.voidLocked(scope)
		return
	}

	// rejected: the normal result-submission flow resumes with a fresh report
	// window, and the dispute goes to human review
	d.outcome = models.DisputeRejected
	if s.filledCountLocked() > 0 {
		s.state = models.StateAwaitingSecondResult
	} else {
		s.state = models.StateAwaitingResults
	}
	s.resultTimer = time.AfterFunc(s.settings.ResultTimeLimit, s.handleResultTimeout)
	s.mu.Unlock()

	if s.collab.Metrics != nil {
		s.collab.Metrics.AddDisputeResolved("rejected")
	}
	scope.Log.WithFields(logrus.Fields{
		"sessionID":   s.id,
		"requester":   d.requesterID,
		"counterpart": d.counterpartID,
	}).Warn("cancellation rejected, flagging dispute for review")
	s.collab.Notifier.OnDisputeFlagged(scope, s.id, d.requesterID, d.counterpartID)
}
