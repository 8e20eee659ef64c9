// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"time"

	"github.com/yakioni/SVRatings-sub000/pkg/metrics"
)

type stubMetricsCollection struct{}

func (s stubMetricsCollection) SetQueueSize(size int) {}

func (s stubMetricsCollection) SetQueueRatingStats(mean, stddev float64) {}

func (s stubMetricsCollection) AddMatchFormed() {}

func (s stubMetricsCollection) AddMatchTickElapsedTimeMs(function string, elapsedTime time.Duration) {
}

func (s stubMetricsCollection) AddRejectReason(reason string) {}

func (s stubMetricsCollection) AddUnmatchedReason(reason string) {}

func (s stubMetricsCollection) AddSettlement(walkover bool) {}

func (s stubMetricsCollection) AddVoidedSession() {}

func (s stubMetricsCollection) AddDisputeOpened() {}

func (s stubMetricsCollection) AddDisputeResolved(outcome string) {}

func NewMetrics() metrics.LadderMetrics {
	return stubMetricsCollection{}
}
