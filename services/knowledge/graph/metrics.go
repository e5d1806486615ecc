// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for graph mutations.
var meter = otel.Meter("panorama.graph")

var (
	nodeUpserts metric.Int64Counter
	edgeAppends metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		nodeUpserts, err = meter.Int64Counter(
			"knowledge_graph_node_upserts_total",
			metric.WithDescription("Total node insert/replace operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgeAppends, err = meter.Int64Counter(
			"knowledge_graph_edge_appends_total",
			metric.WithDescription("Total edge append operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordNodeUpsert counts a node upsert by node type.
func recordNodeUpsert(nodeType string) {
	if err := initMetrics(); err != nil {
		return
	}
	nodeUpserts.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("node_type", nodeType)))
}

// recordEdgeAppend counts an edge append by edge type.
func recordEdgeAppend(edgeType string) {
	if err := initMetrics(); err != nil {
		return
	}
	edgeAppends.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("edge_type", edgeType)))
}
