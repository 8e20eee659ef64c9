// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package pool holds the waiting pool: a concurrency-safe, rating-ordered set
// of participants waiting for an opponent. One mutex guards every mutation;
// the pool stays small (tens of entries) so lock contention is not a concern.
package pool

import (
	"context"
	"sort"
	"sync"
	"time"

	pie "github.com/elliotchance/pie/v2"

	"github.com/yakioni/SVRatings-sub000/pkg/constants"
	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/external"
	"github.com/yakioni/SVRatings-sub000/pkg/metrics"
	"github.com/yakioni/SVRatings-sub000/pkg/models"
)

const DefaultWaitTimeLimit = 60 * time.Second

// WaitingPool keeps entries sorted rating-ascending so pairing scans can walk
// them in rating-proximity order.
type WaitingPool struct {
	mu      sync.Mutex
	entries []models.WaitingEntry
	timers  map[string]*time.Timer

	waitTimeLimit time.Duration
	eligibility   external.Eligibility
	notifier      external.Notifier
	metrics       metrics.LadderMetrics
	buffers       *models.Pool
}

func NewWaitingPool(waitTimeLimit time.Duration, eligibility external.Eligibility, notifier external.Notifier, ladderMetrics metrics.LadderMetrics) *WaitingPool {
	if waitTimeLimit <= 0 {
		waitTimeLimit = DefaultWaitTimeLimit
	}
	return &WaitingPool{
		entries:       make([]models.WaitingEntry, 0, 32),
		timers:        make(map[string]*time.Timer),
		waitTimeLimit: waitTimeLimit,
		eligibility:   eligibility,
		notifier:      notifier,
		metrics:       ladderMetrics,
		buffers:       models.NewPool(),
	}
}

// Enqueue admits a participant with the given rating snapshot. It rejects
// duplicates, a closed season, undeclared classes and participants already in
// a match. On acceptance a wait timer is armed; if the entry is still present
// at expiry it is removed and the participant is told no opponent was found.
func (p *WaitingPool) Enqueue(scope *envelope.Scope, userID string, ratingSnapshot float64) error {
	if !p.eligibility.IsSeasonOpen() {
		p.addRejectMetric(constants.RejectReasonSeasonClosed)
		return models.ErrSeasonClosed
	}
	if !p.eligibility.HasDeclaredClasses(userID) {
		p.addRejectMetric(constants.RejectReasonNoDeclaredClasses)
		return models.ErrNoDeclaredClasses
	}
	if p.eligibility.IsCurrentlyInMatch(userID) {
		p.addRejectMetric(constants.RejectReasonAlreadyInMatch)
		return models.ErrAlreadyInMatch
	}

	p.mu.Lock()
	if p.indexOfLocked(userID) >= 0 {
		p.mu.Unlock()
		p.addRejectMetric(constants.RejectReasonDuplicateEntry)
		return models.ErrDuplicateEntry
	}

	entry := models.WaitingEntry{
		UserID:     userID,
		Rating:     ratingSnapshot,
		EnqueuedAt: time.Now().UTC(),
	}
	p.insertLocked(entry)
	p.timers[userID] = time.AfterFunc(p.waitTimeLimit, func() {
		expireScope := envelope.NewRootScope(context.Background(), "WaitingPool.expire", "")
		defer expireScope.Finish()
		p.expire(expireScope, userID)
	})
	size := len(p.entries)
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.SetQueueSize(size)
	}
	scope.Log.WithField("userID", userID).WithField("rating", ratingSnapshot).Info("entry queued")

	return nil
}

// Remove withdraws the participant's entry. It is idempotent and is shared by
// explicit withdrawal, successful pairing and wait-timeout expiry.
func (p *WaitingPool) Remove(scope *envelope.Scope, userID string) bool {
	p.mu.Lock()
	removed := p.removeLocked(userID)
	size := len(p.entries)
	p.mu.Unlock()

	if removed {
		if p.metrics != nil {
			p.metrics.SetQueueSize(size)
		}
		scope.Log.WithField("userID", userID).Debug("entry removed from waiting pool")
	}
	return removed
}

// Snapshot returns a consistent point-in-time copy of the pool, rating-ascending.
func (p *WaitingPool) Snapshot() []models.WaitingEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return pie.Map(p.entries, models.WaitingEntry.Copy)
}

// Size returns the current number of live entries.
func (p *WaitingPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// ScanAndRemove runs one pairing scan under the pool lock. The callback sees a
// rating-ascending view of the pool (a reused scratch buffer, valid only for
// the duration of the call) and returns the IDs to drop; those entries are
// removed in one batch before the lock is released.
func (p *WaitingPool) ScanAndRemove(scope *envelope.Scope, scan func(entries []models.WaitingEntry) []string) int {
	buffer := p.buffers.WaitingEntries.Get()
	defer func() {
		// capture after the copy below so a grown backing array is recycled
		p.buffers.WaitingEntries.Put(buffer[:0])
	}()

	p.mu.Lock()
	buffer = append(buffer[:0], p.entries...)
	removeIDs := scan(buffer)
	for _, userID := range removeIDs {
		p.removeLocked(userID)
	}
	size := len(p.entries)
	p.mu.Unlock()

	if len(removeIDs) > 0 {
		scope.Log.WithField("removed", len(removeIDs)).WithField("remaining", size).Debug("pairing scan removed entries")
	}
	if p.metrics != nil {
		p.metrics.SetQueueSize(size)
	}
	return size
}

// expire is the wait-timer callback. The presence check makes it a no-op when
// the entry was already matched or withdrawn before the timer could be stopped.
func (p *WaitingPool) expire(scope *envelope.Scope, userID string) {
	p.mu.Lock()
	removed := p.removeLocked(userID)
	size := len(p.entries)
	p.mu.Unlock()

	if !removed {
		return
	}
	if p.metrics != nil {
		p.metrics.SetQueueSize(size)
		p.metrics.AddUnmatchedReason(constants.ReasonWaitTimeoutExpired)
	}
	scope.Log.WithField("userID", userID).Info("wait timeout expired, no opponent found")
	p.notifier.OnQueueTimeout(scope, userID)
}

func (p *WaitingPool) indexOfLocked(userID string) int {
	return pie.FindFirstUsing(p.entries, func(e models.WaitingEntry) bool { return e.UserID == userID })
}

func (p *WaitingPool) insertLocked(entry models.WaitingEntry) {
	at := sort.Search(len(p.entries), func(i int) bool { return p.entries[i].Rating > entry.Rating })
	p.entries = append(p.entries, models.WaitingEntry{})
	copy(p.entries[at+1:], p.entries[at:])
	p.entries[at] = entry
}

func (p *WaitingPool) removeLocked(userID string) bool {
	at := p.indexOfLocked(userID)
	if at < 0 {
		return false
	}
	if timer, ok := p.timers[userID]; ok {
		timer.Stop()
		delete(p.timers, userID)
	}
	p.entries = append(p.entries[:at], p.entries[at+1:]...)
	return true
}

func (p *WaitingPool) addRejectMetric(reason string) {
	if p.metrics != nil {
		p.metrics.AddRejectReason(reason)
	}
}
