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
	"fmt"
	"time"

	"github.com/AleutianAI/panorama/services/knowledge/graph"
)

// DefaultMaxDepth bounds impact traversal when the caller passes no
// explicit depth.
const DefaultMaxDepth = 5

// Querier provides read-only queries over a knowledge graph.
//
// # Thread Safety
//
// Safe for concurrent use; every graph access goes through the graph's
// reader lock.
type Querier struct {
	g *graph.Graph
}

// NewQuerier creates a Querier over the given graph.
func NewQuerier(g *graph.Graph) *Querier {
	return &Querier{g: g}
}

// ImpactReport describes the blast radius of a project.
type ImpactReport struct {
	Project string `json:"project"`

	// AffectedProjects holds the names of distinct projects reachable
	// within the depth bound, in traversal order.
	AffectedProjects []string `json:"affected_projects"`

	// AffectedTeams holds owning teams of affected projects, including
	// intermediate projects' teams, in first-seen order.
	AffectedTeams []string `json:"affected_teams"`

	// CriticalProjects holds affected projects whose criticality
	// attribute equals "critical".
	CriticalProjects []string `json:"critical_projects"`

	// DependencyPaths holds one path per affected project: the ordered
	// project names from the source to that project.
	DependencyPaths [][]string `json:"dependency_paths"`

	// TotalBlastRadius is the count of distinct affected projects.
	TotalBlastRadius int `json:"total_blast_radius"`

	// MaxDepthUsed is the depth bound applied to the traversal.
	MaxDepthUsed int `json:"max_depth_used"`
}

// ImpactAnalysis computes the blast radius of a project.
//
// # Description
//
// Performs a depth-bounded breadth-first traversal from the project
// node, visiting each node id at most once. Forward hops follow
// depends_on and manages edges; backward hops follow depends_on edges
// (projects that depend on the source are impacted by it). Depth
// increments once per hop; nodes enqueued within the bound are fully
// reported even when expansion stops at the bound.
//
// # Inputs
//
//   - ctx: Context for cancellation. Must not be nil.
//   - projectID: Id of the source project node.
//   - maxDepth: Traversal bound; values <= 0 use DefaultMaxDepth.
//
// # Outputs
//
//   - *ImpactReport: The blast radius report.
//   - error: A ProjectNotFoundError when no project node with that id
//     exists. Never an empty report for an unknown id.
func (q *Querier) ImpactAnalysis(ctx context.Context, projectID string, maxDepth int) (*ImpactReport, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}

	start := time.Now()

	source, ok := q.g.GetNode(projectID)
	if !ok || source.Type != graph.NodeTypeProject {
		return nil, &ProjectNotFoundError{ID: projectID}
	}

	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	report := &ImpactReport{
		Project:          projectID,
		AffectedProjects: make([]string, 0),
		AffectedTeams:    make([]string, 0),
		CriticalProjects: make([]string, 0),
		DependencyPaths:  make([][]string, 0),
		MaxDepthUsed:     maxDepth,
	}

	type queueItem struct {
		id    string
		depth int
		// path holds project names from the source to this node,
		// skipping non-project hops.
		path []string
	}

	visited := map[string]bool{projectID: true}
	seenTeams := make(map[string]bool)
	queue := []queueItem{{id: projectID, depth: 0, path: []string{source.Name}}}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]

		if item.depth >= maxDepth {
			continue
		}

		for _, next := range q.impactNeighbors(item.id) {
			if visited[next] {
				continue
			}
			visited[next] = true

			node, ok := q.g.GetNode(next)
			if !ok {
				// Dangling edge target; nothing to report.
				continue
			}

			path := item.path
			if node.Type == graph.NodeTypeProject {
				path = append(append([]string{}, item.path...), node.Name)
				report.AffectedProjects = append(report.AffectedProjects, node.Name)
				report.DependencyPaths = append(report.DependencyPaths, path)

				if team, ok := q.owningTeam(next); ok && !seenTeams[team] {
					seenTeams[team] = true
					report.AffectedTeams = append(report.AffectedTeams, team)
				}
				if crit, _ := node.Attributes["criticality"].(string); crit == "critical" {
					report.CriticalProjects = append(report.CriticalProjects, node.Name)
				}
			}

			queue = append(queue, queueItem{id: next, depth: item.depth + 1, path: path})
		}
	}

	report.TotalBlastRadius = len(report.AffectedProjects)
	recordQueryMetrics(ctx, "impact_analysis", time.Since(start), report.TotalBlastRadius)
	return report, nil
}

// impactNeighbors returns the ids reachable from id in one impact hop:
// depends_on and manages forward, depends_on backward.
func (q *Querier) impactNeighbors(id string) []string {
	var neighbors []string
	for _, e := range q.g.GetEdgesFrom(id) {
		if e.Type == graph.EdgeTypeDependsOn || e.Type == graph.EdgeTypeManages {
			neighbors = append(neighbors, e.TargetID)
		}
	}
	for _, e := range q.g.GetEdgesTo(id) {
		if e.Type == graph.EdgeTypeDependsOn {
			neighbors = append(neighbors, e.SourceID)
		}
	}
	return neighbors
}

// owningTeam resolves a project's team via its owned_by edge.
func (q *Querier) owningTeam(projectID string) (string, bool) {
	for _, e := range q.g.GetEdgesFrom(projectID) {
		if e.Type != graph.EdgeTypeOwnedBy {
			continue
		}
		if team, ok := q.g.GetNode(e.TargetID); ok {
			return team.Name, true
		}
		return e.TargetID, true
	}
	return "", false
}
