// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package builder transforms batches of project context records into a
// populated knowledge graph.
//
// The Builder operates on a Graph handle it is given; it does not own
// separate graph state. BuildFromContexts is a full rebuild: every call
// discards prior graph state. The watcher package reuses the same
// per-record processing for incremental updates.
package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/panorama/services/knowledge/graph"
	"github.com/AleutianAI/panorama/services/knowledge/record"
)

// contractHashLen is the length of the short content hash used for
// contract node ids.
const contractHashLen = 12

// riskWeights maps a risk priority to the has_risk edge weight used in
// severity scoring. Unrecognized priorities weigh 1.0.
var riskWeights = map[string]float64{
	"P1": 4.0,
	"P2": 3.0,
	"P3": 2.0,
	"P4": 1.0,
}

// Builder populates a knowledge graph from project context records.
//
// # Description
//
// Builder derives node ids deterministically from record content and
// maintains an auxiliary resource-to-project index used for dependency
// inference across projects.
//
// # Thread Safety
//
// NOT safe for concurrent use. The graph itself is internally locked,
// but the builder's auxiliary index is single-writer. The watcher runs
// a single sequential loop, so it shares a Builder safely.
type Builder struct {
	g      *graph.Graph
	logger *slog.Logger

	// resourceProjects maps resource id -> project ids that manage it.
	resourceProjects map[string][]string

	// resourceKinds maps resource id -> declared target kind.
	resourceKinds map[string]string
}

// New creates a Builder operating on the given graph handle.
//
// # Inputs
//
//   - g: The graph to populate. Must not be nil.
func New(g *graph.Graph) *Builder {
	return &Builder{
		g:                g,
		logger:           slog.Default().With("component", "knowledge.builder"),
		resourceProjects: make(map[string][]string),
		resourceKinds:    make(map[string]string),
	}
}

// Graph returns the graph handle the builder populates.
func (b *Builder) Graph() *graph.Graph {
	return b.g
}

// BuildFromContexts rebuilds the graph from a batch of records.
//
// # Description
//
// Discards all prior graph state, processes every record in batch
// order, then runs the shared-service dependency-inference pass. The
// operation is synchronous and performs no I/O; callers fetch records
// externally and pass them in.
//
// # Inputs
//
//   - ctx: Context for tracing. Must not be nil.
//   - records: The validated record batch.
//
// # Outputs
//
//   - *BuildResult: Counts, timing, and inferred shared-service
//     candidates.
//   - error: Non-nil if ctx is nil or a record cannot be processed.
func (b *Builder) BuildFromContexts(ctx context.Context, records []record.ProjectContext) (*BuildResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}

	ctx, span := tracer.Start(ctx, "builder.build_from_contexts",
		trace.WithAttributes(attribute.Int("record_count", len(records))))
	defer span.End()

	start := time.Now()

	b.g.Reset()
	b.resourceProjects = make(map[string][]string)
	b.resourceKinds = make(map[string]string)

	for i := range records {
		if _, err := b.ProcessContext(ctx, &records[i]); err != nil {
			recordBuildMetrics(ctx, time.Since(start), 0, 0, false)
			return nil, fmt.Errorf("processing record %q: %w", records[i].Metadata.Name, err)
		}
	}

	result := &BuildResult{
		BuildID:                 newBuildID(),
		NodeCount:               b.g.NodeCount(),
		EdgeCount:               b.g.EdgeCount(),
		SharedServiceCandidates: b.sharedServiceCandidates(),
		DurationMs:              time.Since(start).Milliseconds(),
	}

	recordBuildMetrics(ctx, time.Since(start), result.NodeCount, result.EdgeCount, true)
	b.logger.Debug("graph rebuilt",
		"records", len(records),
		"nodes", result.NodeCount,
		"edges", result.EdgeCount,
		"shared_service_candidates", len(result.SharedServiceCandidates),
		"duration_ms", result.DurationMs,
	)

	return result, nil
}

// ProcessContext materializes one record into the graph.
//
// # Description
//
// Applies the per-record derivation rules: project node, team node and
// owned_by edge, resource nodes and manages edges, ADR and contract
// nodes, the per-project requirement node, and positional risk nodes
// with priority-derived has_risk weights.
//
// # Outputs
//
//   - []graph.EdgeKey: The exact edge set emitted for this record, in
//     emission order. The watcher uses it to retract stale edges when
//     the record is modified.
//   - error: Non-nil if rec is nil.
func (b *Builder) ProcessContext(ctx context.Context, rec *record.ProjectContext) ([]graph.EdgeKey, error) {
	if rec == nil {
		return nil, fmt.Errorf("record must not be nil")
	}

	projectID := DeriveProjectID(rec)
	emitted := make([]graph.EdgeKey, 0, 8)

	emit := func(e *graph.Edge) {
		// Endpoint ids are always derived non-empty here, so AddEdge
		// cannot fail.
		_ = b.g.AddEdge(e)
		emitted = append(emitted, e.Key())
	}

	// Project node.
	attrs := map[string]any{"namespace": rec.Metadata.Namespace}
	if biz := rec.Spec.Business; biz != nil {
		if biz.Criticality != "" {
			attrs["criticality"] = biz.Criticality
		}
		if biz.Value != "" {
			attrs["business_value"] = biz.Value
		}
	}
	if ref := rec.Spec.Project; ref != nil && ref.Epic != "" {
		attrs["epic"] = ref.Epic
	}
	_ = b.g.AddNode(&graph.Node{
		ID:         projectID,
		Type:       graph.NodeTypeProject,
		Name:       rec.Metadata.Name,
		Attributes: attrs,
	})

	// Team ownership.
	if biz := rec.Spec.Business; biz != nil && biz.Owner != "" {
		teamID := "team:" + biz.Owner
		teamAttrs := map[string]any{}
		if biz.CostCenter != "" {
			teamAttrs["cost_center"] = biz.CostCenter
		}
		_ = b.g.AddNode(&graph.Node{
			ID:         teamID,
			Type:       graph.NodeTypeTeam,
			Name:       biz.Owner,
			Attributes: teamAttrs,
		})
		emit(&graph.Edge{SourceID: projectID, TargetID: teamID, Type: graph.EdgeTypeOwnedBy})
	}

	// Managed resources.
	for _, target := range rec.Spec.Targets {
		ns := target.Namespace
		if ns == "" {
			ns = rec.Metadata.Namespace
		}
		resourceID := fmt.Sprintf("resource:%s/%s/%s", ns, target.Kind, target.Name)
		_ = b.g.AddNode(&graph.Node{
			ID:   resourceID,
			Type: graph.NodeTypeResource,
			Name: target.Name,
			Attributes: map[string]any{
				"kind":      target.Kind,
				"namespace": ns,
			},
		})
		emit(&graph.Edge{SourceID: projectID, TargetID: resourceID, Type: graph.EdgeTypeManages})
		b.indexResource(resourceID, target.Kind, projectID)
	}

	// Design artifacts.
	if design := rec.Spec.Design; design != nil {
		if design.ADR != "" {
			adrID := "adr:" + design.ADR
			_ = b.g.AddNode(&graph.Node{
				ID:   adrID,
				Type: graph.NodeTypeADR,
				Name: design.ADR,
			})
			emit(&graph.Edge{SourceID: projectID, TargetID: adrID, Type: graph.EdgeTypeImplements})
		}
		if design.APIContract != "" {
			contractID := "contract:" + contractHash(design.APIContract)
			_ = b.g.AddNode(&graph.Node{
				ID:         contractID,
				Type:       graph.NodeTypeContract,
				Name:       design.APIContract,
				Attributes: map[string]any{"url": design.APIContract},
			})
			emit(&graph.Edge{SourceID: projectID, TargetID: contractID, Type: graph.EdgeTypeExposes})
		}
	}

	// Service level requirements: one node per project.
	if req := rec.Spec.Requirements; req != nil {
		reqID := "requirement:" + projectID
		reqAttrs := map[string]any{}
		if req.Availability != "" {
			reqAttrs["availability"] = req.Availability
		}
		if req.LatencyP99 != "" {
			reqAttrs["latency_p99"] = req.LatencyP99
		}
		if req.LatencyP50 != "" {
			reqAttrs["latency_p50"] = req.LatencyP50
		}
		if req.Throughput != "" {
			reqAttrs["throughput"] = req.Throughput
		}
		if req.ErrorBudget != "" {
			reqAttrs["error_budget"] = req.ErrorBudget
		}
		_ = b.g.AddNode(&graph.Node{
			ID:         reqID,
			Type:       graph.NodeTypeRequirement,
			Name:       projectID + " requirements",
			Attributes: reqAttrs,
		})
		emit(&graph.Edge{SourceID: projectID, TargetID: reqID, Type: graph.EdgeTypeHasRequirement})
	}

	// Risks. Ids are positional, so reordering a record's risk list
	// changes risk identity across reprocessing; see DESIGN.md.
	for i, risk := range rec.Spec.Risks {
		riskID := fmt.Sprintf("risk:%s:%d", projectID, i)
		riskAttrs := map[string]any{}
		if risk.Type != "" {
			riskAttrs["type"] = risk.Type
		}
		if risk.Priority != "" {
			riskAttrs["priority"] = risk.Priority
		}
		if risk.Description != "" {
			riskAttrs["description"] = risk.Description
		}
		if risk.Scope != "" {
			riskAttrs["scope"] = risk.Scope
		}
		name := risk.Type
		if name == "" {
			name = "unspecified"
		}
		_ = b.g.AddNode(&graph.Node{
			ID:         riskID,
			Type:       graph.NodeTypeRisk,
			Name:       name,
			Attributes: riskAttrs,
		})
		emit(&graph.Edge{
			SourceID: projectID,
			TargetID: riskID,
			Type:     graph.EdgeTypeHasRisk,
			Weight:   riskWeight(risk.Priority),
		})
	}

	return emitted, nil
}

// RemoveProject removes a project node, every edge touching it, and its
// entries in the resource index. Used by the watcher on delete events.
//
// # Outputs
//
//   - bool: True if the project node existed.
func (b *Builder) RemoveProject(projectID string) bool {
	existed := b.g.RemoveNode(projectID)
	b.g.RemoveEdgesTouching(projectID)

	for resourceID, projects := range b.resourceProjects {
		kept := projects[:0]
		for _, p := range projects {
			if p != projectID {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(b.resourceProjects, resourceID)
			delete(b.resourceKinds, resourceID)
		} else {
			b.resourceProjects[resourceID] = kept
		}
	}

	return existed
}

// DeriveProjectID returns the project id for a record: the explicit
// spec.project id when present, otherwise the record's metadata name.
func DeriveProjectID(rec *record.ProjectContext) string {
	if ref := rec.Spec.Project; ref != nil && ref.ID != "" {
		return ref.ID
	}
	return rec.Metadata.Name
}

// indexResource records that projectID manages resourceID.
func (b *Builder) indexResource(resourceID, kind, projectID string) {
	b.resourceKinds[resourceID] = kind
	for _, p := range b.resourceProjects[resourceID] {
		if p == projectID {
			return
		}
	}
	b.resourceProjects[resourceID] = append(b.resourceProjects[resourceID], projectID)
}

// sharedServiceCandidates collects Service resources managed by more
// than one project.
//
// The candidate set feeds cross-project dependency inference. No
// depends_on edges are emitted for candidates yet; edge emission is an
// open extension point pending call-derived evidence, so the candidates
// are only surfaced on the build result.
func (b *Builder) sharedServiceCandidates() []SharedService {
	candidates := make([]SharedService, 0)
	for resourceID, projects := range b.resourceProjects {
		if b.resourceKinds[resourceID] != "Service" || len(projects) < 2 {
			continue
		}
		sorted := make([]string, len(projects))
		copy(sorted, projects)
		sort.Strings(sorted)
		candidates = append(candidates, SharedService{
			ResourceID: resourceID,
			Projects:   sorted,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ResourceID < candidates[j].ResourceID
	})
	return candidates
}

// riskWeight maps a priority to its has_risk edge weight.
func riskWeight(priority string) float64 {
	if w, ok := riskWeights[priority]; ok {
		return w
	}
	return graph.DefaultEdgeWeight
}

// contractHash derives the stable short id for an API contract URL.
func contractHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:contractHashLen]
}
