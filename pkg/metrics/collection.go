// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	queueSize         prometheus.Gauge
	queueRatingMean   prometheus.Gauge
	queueRatingStddev prometheus.Gauge
	matchesFormed     prometheus.Counter
	matchTickElapsed  prometheus.HistogramVec
	rejectReasons     prometheus.CounterVec
	unmatchedReasons  prometheus.CounterVec
	settlements       prometheus.CounterVec
	voidedSessions    prometheus.Counter
	disputesOpened    prometheus.Counter
	disputesResolved  prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	queueSize := factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "svr_ladder_queue_size",
			Help: "Number of entries currently in the waiting pool",
		})
	queueRatingMean := factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "svr_ladder_queue_rating_mean",
			Help: "Mean rating over the current waiting pool snapshot",
		})
	queueRatingStddev := factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "svr_ladder_queue_rating_stddev",
			Help: "Rating standard deviation over the current waiting pool snapshot",
		})
	matchesFormed := factory.NewCounter(
		prometheus.CounterOpts{
			Name: "svr_ladder_matches_formed_total",
			Help: "Number of pairings formed by the matcher",
		})

	//nolint:promlinter
	matchTickElapsed := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "svr_ladder_match_tick_elapsed_time_ms",
			Help:    "A histogram of matcher tick phases elapsed time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"function"})
	rejectReasons := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svr_ladder_enqueue_reject_reasons_total",
			Help: "Counter for rejected enqueue request reasons",
		}, []string{"reason"})
	unmatchedReasons := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svr_ladder_unmatched_reasons_total",
			Help: "Counter for reasons entries were skipped or dropped during a pairing scan",
		}, []string{"reason"})
	settlements := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svr_ladder_settlements_total",
			Help: "Number of settled sessions",
		}, []string{"walkover"})
	voidedSessions := factory.NewCounter(
		prometheus.CounterOpts{
			Name: "svr_ladder_voided_sessions_total",
			Help: "Number of sessions voided with no rating change",
		})
	disputesOpened := factory.NewCounter(
		prometheus.CounterOpts{
			Name: "svr_ladder_disputes_opened_total",
			Help: "Number of cancellation requests opened against live sessions",
		})
	disputesResolved := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svr_ladder_disputes_resolved_total",
			Help: "Number of disputes resolved by outcome",
		}, []string{"outcome"})

	return prometheusMetrics{
		queueSize:         queueSize,
		queueRatingMean:   queueRatingMean,
		queueRatingStddev: queueRatingStddev,
		matchesFormed:     matchesFormed,
		matchTickElapsed:  *matchTickElapsed,
		rejectReasons:     *rejectReasons,
		unmatchedReasons:  *unmatchedReasons,
		settlements:       *settlements,
		voidedSessions:    voidedSessions,
		disputesOpened:    disputesOpened,
		disputesResolved:  *disputesResolved,
	}
}

func (metrics prometheusMetrics) SetQueueSize(size int) {
	metrics.queueSize.Set(float64(size))
}

func (metrics prometheusMetrics) SetQueueRatingStats(mean, stddev float64) {
	metrics.queueRatingMean.Set(mean)
	metrics.queueRatingStddev.Set(stddev)
}

func (metrics prometheusMetrics) AddMatchFormed() {
	metrics.matchesFormed.Add(1)
}

func (metrics prometheusMetrics) AddMatchTickElapsedTimeMs(function string, elapsedTime time.Duration) {
	metrics.matchTickElapsed.With(prometheus.Labels{"function": function}).Observe(float64(elapsedTime.Milliseconds()))
}

func (metrics prometheusMetrics) AddRejectReason(reason string) {
	metrics.rejectReasons.With(prometheus.Labels{"reason": reason}).Add(1)
}

func (metrics prometheusMetrics) AddUnmatchedReason(reason string) {
	metrics.unmatchedReasons.With(prometheus.Labels{"reason": reason}).Add(1)
}

func (metrics prometheusMetrics) AddSettlement(walkover bool) {
	metrics.settlements.With(prometheus.Labels{"walkover": strconv.FormatBool(walkover)}).Add(1)
}

func (metrics prometheusMetrics) AddVoidedSession() {
	metrics.voidedSessions.Add(1)
}

func (metrics prometheusMetrics) AddDisputeOpened() {
	metrics.disputesOpened.Add(1)
}

func (metrics prometheusMetrics) AddDisputeResolved(outcome string) {
	metrics.disputesResolved.With(prometheus.Labels{"outcome": outcome}).Add(1)
}
