// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// ratingmatch runs the matching/settlement core as a standalone process with
// in-memory collaborators, a prometheus metrics endpoint and optional zipkin
// tracing. Production deployments embed pkg/service behind their own
// collaborator implementations instead.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	env "github.com/caarlos0/env"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/yakioni/SVRatings-sub000/pkg/config"
	"github.com/yakioni/SVRatings-sub000/pkg/envelope"
	"github.com/yakioni/SVRatings-sub000/pkg/metrics"
	"github.com/yakioni/SVRatings-sub000/pkg/service"
)

func main() {
	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		logrus.WithError(err).Fatal("failed to parse configuration from environment")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ZipkinEndpoint != "" {
		exporter, err := zipkin.New(cfg.ZipkinEndpoint)
		if err != nil {
			logrus.WithError(err).Fatal("failed to create zipkin exporter")
		}
		tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(tracerProvider)
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logrus.WithError(err).Warn("tracer provider shutdown failed")
			}
		}()
	}

	registry := prometheus.NewRegistry()
	ladderMetrics := metrics.NewMetrics(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logrus.WithError(err).Error("metrics listener stopped")
		}
	}()

	scope := envelope.NewRootScope(ctx, "main", "")
	defer scope.Finish()

	gate := newDevGate()
	svc := service.New(cfg, gate, gate, newLoggingNotifier(), ladderMetrics)
	svc.Start(scope)

	scope.Log.WithField("metricsAddr", cfg.MetricsAddr).Info("rating match core started")

	<-ctx.Done()
	scope.Log.Info("shutdown signal received")
	svc.Stop(scope)
}
