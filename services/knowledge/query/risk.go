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
	"sort"

	"github.com/AleutianAI/panorama/services/knowledge/graph"
)

// riskTypeUnknown buckets risks declared without a type, so exposure
// counts always sum to the number of has_risk edges.
const riskTypeUnknown = "unknown"

// RiskExposure aggregates risk counts by risk type across every
// project owned by the team.
//
// # Description
//
// Projects are resolved via owned_by edges into the team node. A team
// that owns no projects, or whose projects carry no risks, yields an
// empty mapping, never an error.
func (q *Querier) RiskExposure(team string) map[string]int {
	exposure := make(map[string]int)

	seen := make(map[string]bool)
	for _, owned := range q.g.GetEdgesTo("team:" + team) {
		if owned.Type != graph.EdgeTypeOwnedBy || seen[owned.SourceID] {
			continue
		}
		seen[owned.SourceID] = true

		for _, e := range q.g.GetEdgesFrom(owned.SourceID) {
			if e.Type != graph.EdgeTypeHasRisk {
				continue
			}
			riskType := riskTypeUnknown
			if node, ok := q.g.GetNode(e.TargetID); ok {
				if t, _ := node.Attributes["type"].(string); t != "" {
					riskType = t
				}
			}
			exposure[riskType]++
		}
	}

	return exposure
}

// ProjectsByTeam returns the sorted names of projects owned by a team.
func (q *Querier) ProjectsByTeam(team string) []string {
	names := make([]string, 0)
	seen := make(map[string]bool)
	for _, e := range q.g.GetEdgesTo("team:" + team) {
		if e.Type != graph.EdgeTypeOwnedBy || seen[e.SourceID] {
			continue
		}
		seen[e.SourceID] = true
		if node, ok := q.g.GetNode(e.SourceID); ok && node.Type == graph.NodeTypeProject {
			names = append(names, node.Name)
		}
	}
	sort.Strings(names)
	return names
}

// ProjectsByCriticality returns the sorted names of projects whose
// criticality attribute equals the given level.
func (q *Querier) ProjectsByCriticality(level string) []string {
	names := make([]string, 0)
	for _, node := range q.g.Nodes() {
		if node.Type != graph.NodeTypeProject {
			continue
		}
		if crit, _ := node.Attributes["criticality"].(string); crit == level {
			names = append(names, node.Name)
		}
	}
	sort.Strings(names)
	return names
}
