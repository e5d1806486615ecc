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
	"sort"
	"time"
)

// Serialized is the neutral node/edge structure used for transport or
// persistence. Timestamps are ISO-8601 strings and type enums are their
// string identifiers.
type Serialized struct {
	Nodes []SerializedNode `json:"nodes"`
	Edges []SerializedEdge `json:"edges"`
}

// SerializedNode is one node in transport form.
type SerializedNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

// SerializedEdge is one edge in transport form.
type SerializedEdge struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Weight     float64        `json:"weight"`
}

// Snapshot serializes the whole graph.
//
// # Description
//
// Produces a consistent, frozen copy of the graph under a single read
// lock. Nodes are sorted by id for deterministic output; edges keep
// insertion order.
//
// # Thread Safety
//
// Safe for concurrent use; the returned value is independent of the
// live graph.
func (g *Graph) Snapshot() *Serialized {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := &Serialized{
		Nodes: make([]SerializedNode, 0, len(g.nodes)),
		Edges: make([]SerializedEdge, 0, len(g.edges)),
	}

	for _, n := range g.nodes {
		s.Nodes = append(s.Nodes, SerializedNode{
			ID:         n.ID,
			Type:       string(n.Type),
			Name:       n.Name,
			Attributes: copyAttributes(n.Attributes),
			CreatedAt:  n.CreatedAt.Format(time.RFC3339),
			UpdatedAt:  n.UpdatedAt.Format(time.RFC3339),
		})
	}
	sort.Slice(s.Nodes, func(i, j int) bool { return s.Nodes[i].ID < s.Nodes[j].ID })

	for _, e := range g.edges {
		s.Edges = append(s.Edges, SerializedEdge{
			Source:     e.SourceID,
			Target:     e.TargetID,
			Type:       string(e.Type),
			Attributes: copyAttributes(e.Attributes),
			Weight:     e.Weight,
		})
	}

	return s
}

// copyAttributes shallow-copies an attribute map.
func copyAttributes(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	result := make(map[string]any, len(attrs))
	for k, v := range attrs {
		result[k] = v
	}
	return result
}
