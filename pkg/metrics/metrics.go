// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type LadderMetrics interface {
	SetQueueSize(size int)
	SetQueueRatingStats(mean, stddev float64)
	AddMatchFormed()
	AddMatchTickElapsedTimeMs(function string, elapsedTime time.Duration)
	AddRejectReason(reason string)
	AddUnmatchedReason(reason string)
	AddSettlement(walkover bool)
	AddVoidedSession()
	AddDisputeOpened()
	AddDisputeResolved(outcome string)
}

func NewMetrics(registry *prometheus.Registry) LadderMetrics {
	return setupPrometheusMetrics(registry)
}
