// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package matcher runs the recurring pairing scan over the waiting pool and
// emits formed pairings on a channel, decoupling matching cadence from
// downstream notification latency.
package matcher

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/yakioni/SVRatings-sub000/pkg/config"
	"github.com/yakioni/SVRatings-sub000/pkg/constants"
	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/external"
	"github.com/yakioni/SVRatings-sub000/pkg/mathutil"
	"github.com/yakioni/SVRatings-sub000/pkg/metrics"
	"github.com/yakioni/SVRatings-sub000/pkg/models"
	"github.com/yakioni/SVRatings-sub000/pkg/pool"
)

const (
	DefaultMatchInterval = 500 * time.Millisecond
	pairingChannelSize   = 64
)

// Matcher owns no pool state beyond the anti-repeat memory; everything else is
// read through the pool's locked scan. Formed pairings flow through Pairings().
type Matcher struct {
	waitingPool   *pool.WaitingPool
	eligibility   external.Eligibility
	metrics       metrics.LadderMetrics
	interval      time.Duration
	maxRatingDiff float64

	pairings chan models.MatchPairing

	// one-slot memory per participant: the immediately-previous opponent
	lastOpponent map[string]string
	lastMu       sync.Mutex

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func New(cfg *config.Config, waitingPool *pool.WaitingPool, eligibility external.Eligibility, ladderMetrics metrics.LadderMetrics) *Matcher {
	interval := DefaultMatchInterval
	if cfg != nil && cfg.MatchIntervalMs > 0 {
		interval = time.Duration(cfg.MatchIntervalMs) * time.Millisecond
	}
	maxRatingDiff := 300.0
	if cfg != nil && cfg.MaxRatingDiff > 0 {
		maxRatingDiff = cfg.MaxRatingDiff
	}

	return &Matcher{
		waitingPool:   waitingPool,
		eligibility:   eligibility,
		metrics:       ladderMetrics,
		interval:      interval,
		maxRatingDiff: maxRatingDiff,
		pairings:      make(chan models.MatchPairing, pairingChannelSize),
		lastOpponent:  make(map[string]string),
		stopChan:      make(chan struct{}),
	}
}

// Pairings is the channel formed pairings are delivered on. It is closed when
// the matcher stops.
func (m *Matcher) Pairings() <-chan models.MatchPairing {
	return m.pairings
}

func (m *Matcher) Start(scope *envelope.Scope) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	scope.Log.WithField("interval", m.interval).WithField("maxRatingDiff", m.maxRatingDiff).Info("starting matcher")

	m.wg.Add(1)
	go m.matchLoop()
}

func (m *Matcher) Stop(scope *envelope.Scope) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	scope.Log.Info("stopping matcher")
	close(m.stopChan)
	m.wg.Wait()
	close(m.pairings)
	scope.Log.Info("matcher stopped")
}

func (m *Matcher) matchLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			scope := envelope.ChildScopeFromRemoteScope(context.Background(), "Matcher.tick")
			m.tick(scope)
			scope.Finish()
		case <-m.stopChan:
			return
		}
	}
}

// tick runs one pairing scan: snapshot under the pool lock, drop stale
// in-match entries, pair remaining entries ascending-rating first-fit, remove
// the paired batch, then hand pairings downstream outside the lock.
func (m *Matcher) tick(scope *envelope.Scope) {
	var tickTimer elapsedTimer
	tickTimer.start()

	var formed []models.MatchPairing
	m.waitingPool.ScanAndRemove(scope, func(entries []models.WaitingEntry) []string {
		var removeIDs []string
		paired := make(map[string]bool, len(entries))

		// defensive cleanup: entries whose participant got flagged in-match
		// since enqueue are dropped from the pool, not only from the view
		live := entries[:0]
		for _, entry := range entries {
			if m.eligibility.IsCurrentlyInMatch(entry.UserID) {
				removeIDs = append(removeIDs, entry.UserID)
				m.addUnmatchedMetric(constants.ReasonStaleInMatchEntry)
				continue
			}
			live = append(live, entry)
		}

		m.recordQueueStats(live)

		if len(live) == 1 {
			m.addUnmatchedMetric(constants.ReasonNotEnoughEntries)
			return removeIDs
		}

		// ascending-rating first-fit: the first eligible candidate wins, no
		// variance optimization is attempted
		for i, a := range live {
			if paired[a.UserID] {
				continue
			}
			for _, b := range live[i+1:] {
				if paired[b.UserID] {
					continue
				}
				if m.wasPreviousOpponent(a.UserID, b.UserID) {
					m.addUnmatchedMetric(constants.ReasonPreviousOpponent)
					continue
				}
				if mathutil.Abs(a.Rating-b.Rating) > m.maxRatingDiff {
					// the view is rating-ascending, every later candidate is
					// at least this far away
					m.addUnmatchedMetric(constants.ReasonRatingOutOfWindow)
					break
				}
				paired[a.UserID] = true
				paired[b.UserID] = true
				m.rememberOpponents(a.UserID, b.UserID)
				formed = append(formed, models.MatchPairing{
					PlayerA:  models.PairSide{UserID: a.UserID, Rating: a.Rating},
					PlayerB:  models.PairSide{UserID: b.UserID, Rating: b.Rating},
					FormedAt: time.Now().UTC(),
				})
				removeIDs = append(removeIDs, a.UserID, b.UserID)
				break
			}
		}

		return removeIDs
	})

	tickTimer.end()
	if m.metrics != nil {
		m.metrics.AddMatchTickElapsedTimeMs(constants.MatchTickFunction, tickTimer.elapsed())
	}

	if len(formed) == 0 {
		return
	}

	scope.Log.WithFields(logrus.Fields{
		"pairings": len(formed),
		"elapsed":  tickTimer.elapsed(),
	}).Info("matcher tick formed pairings")

	// notification happens outside the pool lock so slow downstream I/O never
	// blocks matching; a pairing that fails downstream is not rolled back
	for _, pairing := range formed {
		if m.metrics != nil {
			m.metrics.AddMatchFormed()
		}
		select {
		case m.pairings <- pairing:
		case <-m.stopChan:
			return
		}
	}
}

func (m *Matcher) wasPreviousOpponent(userA, userB string) bool {
	m.lastMu.Lock()
	defer m.lastMu.Unlock()
	return m.lastOpponent[userA] == userB || m.lastOpponent[userB] == userA
}

func (m *Matcher) rememberOpponents(userA, userB string) {
	m.lastMu.Lock()
	defer m.lastMu.Unlock()
	m.lastOpponent[userA] = userB
	m.lastOpponent[userB] = userA
}

func (m *Matcher) recordQueueStats(entries []models.WaitingEntry) {
	if m.metrics == nil || len(entries) == 0 {
		return
	}
	ratings := make([]float64, len(entries))
	for i, entry := range entries {
		ratings[i] = entry.Rating
	}
	mean, std := stat.MeanStdDev(ratings, nil)
	if len(ratings) < 2 {
		std = 0
	}
	m.metrics.SetQueueRatingStats(mean, std)
}

func (m *Matcher) addUnmatchedMetric(reason string) {
	if m.metrics != nil {
		m.metrics.AddUnmatchedReason(reason)
	}
}
