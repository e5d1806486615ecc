// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for query operations.
var meter = otel.Meter("panorama.query")

var (
	queryLatency metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		queryLatency, metricsErr = meter.Float64Histogram(
			"knowledge_query_duration_seconds",
			metric.WithDescription("Duration of knowledge graph query operations"),
			metric.WithUnit("s"),
		)
	})
	return metricsErr
}

// recordQueryMetrics records latency for one query operation.
func recordQueryMetrics(ctx context.Context, queryType string, duration time.Duration, resultCount int) {
	if err := initMetrics(); err != nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	queryLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("query_type", queryType),
		attribute.Int("result_count", resultCount),
	))
}
