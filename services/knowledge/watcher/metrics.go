// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watcher

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for watcher operations.
var meter = otel.Meter("panorama.watcher")

var (
	eventsProcessed metric.Int64Counter
	reconnects      metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		eventsProcessed, err = meter.Int64Counter(
			"knowledge_watch_events_total",
			metric.WithDescription("Change feed events applied to the graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		reconnects, err = meter.Int64Counter(
			"knowledge_watch_reconnects_total",
			metric.WithDescription("Change feed reconnection attempts"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordEventProcessed counts one applied change feed event.
func recordEventProcessed(ctx context.Context, eventType string) {
	if err := initMetrics(); err != nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	eventsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType)))
}

// recordReconnect counts one reconnection attempt.
func recordReconnect(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	reconnects.Add(ctx, 1)
}
