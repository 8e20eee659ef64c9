// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matcher

import (
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakioni/SVRatings-sub000/pkg/config"
	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/models"
	"github.com/yakioni/SVRatings-sub000/pkg/pool"
	"github.com/yakioni/SVRatings-sub000/pkg/testsetup"
)

func newTestMatcher(maxRatingDiff float64) (*Matcher, *pool.WaitingPool, *testsetup.StubEligibility) {
	eligibility := testsetup.NewStubEligibility()
	waitingPool := pool.NewWaitingPool(time.Minute, eligibility, testsetup.NewRecordingNotifier(), testsetup.NewMetrics())
	cfg := &config.Config{MaxRatingDiff: maxRatingDiff, MatchIntervalMs: 10}
	return New(cfg, waitingPool, eligibility, testsetup.NewMetrics()), waitingPool, eligibility
}

func drainPairings(m *Matcher) []models.MatchPairing {
	var out []models.MatchPairing
	for {
		select {
		case pairing := <-m.pairings:
			out = append(out, pairing)
		default:
			return out
		}
	}
}

func enqueue(t *testing.T, scope *envelope.Scope, p *pool.WaitingPool, userID string, rating float64) {
	t.Helper()
	require.NoError(t, p.Enqueue(scope, userID, rating))
}

func TestTickPairsCloseRatings(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	m, waitingPool, _ := newTestMatcher(300)

	enqueue(t, g.TestScope, waitingPool, "user-a", 1500)
	enqueue(t, g.TestScope, waitingPool, "user-b", 1510)

	m.tick(g.TestScope)

	formed := drainPairings(m)
	require.Len(t, formed, 1)
	assert.Equal(t, "user-a", formed[0].PlayerA.UserID)
	assert.Equal(t, "user-b", formed[0].PlayerB.UserID)
	assert.Equal(t, 0, waitingPool.Size())
}

func TestTickSkipsRatingsOutOfWindow(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	m, waitingPool, _ := newTestMatcher(300)

	enqueue(t, g.TestScope, waitingPool, "user-a", 1500)
	enqueue(t, g.TestScope, waitingPool, "user-b", 1900)

	m.tick(g.TestScope)
	m.tick(g.TestScope)

	assert.Empty(t, drainPairings(m))
	assert.Equal(t, 2, waitingPool.Size())
}

func TestTickRespectsWindowBoundary(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	m, waitingPool, _ := newTestMatcher(300)

	// exactly at the limit is still pairable
	enqueue(t, g.TestScope, waitingPool, "user-a", 1500)
	enqueue(t, g.TestScope, waitingPool, "user-b", 1800)

	m.tick(g.TestScope)

	require.Len(t, drainPairings(m), 1)
	assert.Equal(t, 0, waitingPool.Size())
}

func TestTickAvoidsImmediateRematch(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	m, waitingPool, _ := newTestMatcher(300)

	enqueue(t, g.TestScope, waitingPool, "user-a", 1500)
	enqueue(t, g.TestScope, waitingPool, "user-b", 1510)
	m.tick(g.TestScope)
	require.Len(t, drainPairings(m), 1)

	// the same two come straight back, nobody else waiting
	enqueue(t, g.TestScope, waitingPool, "user-a", 1500)
	enqueue(t, g.TestScope, waitingPool, "user-b", 1510)
	m.tick(g.TestScope)
	assert.Empty(t, drainPairings(m))
	assert.Equal(t, 2, waitingPool.Size())

	// a third arrival breaks the standoff
	enqueue(t, g.TestScope, waitingPool, "user-c", 1505)
	m.tick(g.TestScope)
	formed := drainPairings(m)
	require.Len(t, formed, 1)
	assert.Equal(t, []string{"user-a", "user-c"}, formed[0].UserIDs())

	snapshot := waitingPool.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "user-b", snapshot[0].UserID)
}

func TestTickDropsStaleInMatchEntries(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	m, waitingPool, eligibility := newTestMatcher(300)

	enqueue(t, g.TestScope, waitingPool, "user-a", 1500)
	enqueue(t, g.TestScope, waitingPool, "user-b", 1510)
	eligibility.SetInMatch("user-a", true)

	m.tick(g.TestScope)

	assert.Empty(t, drainPairings(m))
	snapshot := waitingPool.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "user-b", snapshot[0].UserID)
}

func TestTickPairsMultipleDisjointly(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	m, waitingPool, _ := newTestMatcher(300)

	enqueue(t, g.TestScope, waitingPool, "user-a", 1500)
	enqueue(t, g.TestScope, waitingPool, "user-b", 1505)
	enqueue(t, g.TestScope, waitingPool, "user-c", 1600)
	enqueue(t, g.TestScope, waitingPool, "user-d", 1610)

	m.tick(g.TestScope)

	formed := drainPairings(m)
	require.Len(t, formed, 2)
	seen := make(map[string]int)
	for _, pairing := range formed {
		for _, userID := range pairing.UserIDs() {
			seen[userID]++
		}
	}
	for userID, count := range seen {
		assert.Equal(t, 1, count, "user %s paired more than once", userID)
	}
	assert.Equal(t, 0, waitingPool.Size())
}

func TestStartStopLifecycle(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	m, waitingPool, _ := newTestMatcher(300)

	m.Start(g.TestScope)
	enqueue(t, g.TestScope, waitingPool, "user-a", 1500)
	enqueue(t, g.TestScope, waitingPool, "user-b", 1510)

	g.Eventually(m.Pairings(), time.Second).Should(gomega.Receive())

	m.Stop(g.TestScope)
	g.Eventually(m.Pairings()).Should(gomega.BeClosed())
}
