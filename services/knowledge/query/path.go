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
	"time"

	"github.com/AleutianAI/panorama/services/knowledge/graph"
)

// PathResult is the outcome of a shortest-path query.
type PathResult struct {
	From string `json:"from"`
	To   string `json:"to"`

	// Path holds project ids from From to To. Empty when no path
	// exists.
	Path []string `json:"path"`

	// Found reports whether a path exists.
	Found bool `json:"found"`

	// Length is the number of hops, -1 when no path exists.
	Length int `json:"length"`
}

// FindPath finds the unweighted shortest path between two projects.
//
// # Description
//
// Breadth-first search restricted to project-type nodes, treating every
// edge as traversable in both directions (undirected for pathfinding
// purposes only). Identical endpoints yield the single-element path.
// An absent endpoint or an unreachable pair yields Found=false, not an
// error.
func (q *Querier) FindPath(from, to string) *PathResult {
	start := time.Now()
	result := &PathResult{From: from, To: to, Path: []string{}, Length: -1}

	fromNode, ok := q.g.GetNode(from)
	if !ok || fromNode.Type != graph.NodeTypeProject {
		return result
	}
	toNode, ok := q.g.GetNode(to)
	if !ok || toNode.Type != graph.NodeTypeProject {
		return result
	}

	if from == to {
		result.Path = []string{from}
		result.Found = true
		result.Length = 0
		return result
	}

	type queueItem struct {
		id   string
		path []string
	}

	visited := map[string]bool{from: true}
	queue := []queueItem{{id: from, path: []string{from}}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for _, next := range q.undirectedNeighbors(item.id) {
			if visited[next] {
				continue
			}
			visited[next] = true

			node, ok := q.g.GetNode(next)
			if !ok || node.Type != graph.NodeTypeProject {
				continue
			}

			path := append(append([]string{}, item.path...), next)
			if next == to {
				result.Path = path
				result.Found = true
				result.Length = len(path) - 1
				recordQueryMetrics(nil, "find_path", time.Since(start), result.Length)
				return result
			}
			queue = append(queue, queueItem{id: next, path: path})
		}
	}

	recordQueryMetrics(nil, "find_path", time.Since(start), 0)
	return result
}

// undirectedNeighbors returns every id adjacent to id via any edge
// type, in either direction.
func (q *Querier) undirectedNeighbors(id string) []string {
	var neighbors []string
	for _, e := range q.g.GetEdgesFrom(id) {
		neighbors = append(neighbors, e.TargetID)
	}
	for _, e := range q.g.GetEdgesTo(id) {
		neighbors = append(neighbors, e.SourceID)
	}
	return neighbors
}
