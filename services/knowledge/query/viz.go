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

import "sort"

// VizGraph is a generic {nodes, links} structure consumable by any
// force-directed-graph rendering component.
type VizGraph struct {
	Nodes []map[string]any `json:"nodes"`
	Links []VizLink        `json:"links"`
}

// VizLink is one rendered edge.
type VizLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
}

// VisualizationFormat flattens the whole graph for rendering.
//
// # Description
//
// Each node becomes {id, label, group=<type string>} with its
// attributes spread into the entry; the reserved keys win on
// collision. Each edge becomes {source, target, type, value=weight}.
// Nodes are sorted by id for deterministic output; links keep
// insertion order.
func (q *Querier) VisualizationFormat() *VizGraph {
	nodes := q.g.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	viz := &VizGraph{
		Nodes: make([]map[string]any, 0, len(nodes)),
		Links: make([]VizLink, 0),
	}

	for _, n := range nodes {
		entry := make(map[string]any, len(n.Attributes)+3)
		for k, v := range n.Attributes {
			entry[k] = v
		}
		entry["id"] = n.ID
		entry["label"] = n.Name
		entry["group"] = string(n.Type)
		viz.Nodes = append(viz.Nodes, entry)
	}

	for _, e := range q.g.Edges() {
		viz.Links = append(viz.Links, VizLink{
			Source: e.SourceID,
			Target: e.TargetID,
			Type:   string(e.Type),
			Value:  e.Weight,
		})
	}

	return viz
}
