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
	"sync"
	"time"
)

// NodeType classifies a node. Node ids are conventionally
// "{type}:{qualifier}".
type NodeType string

const (
	NodeTypeProject     NodeType = "project"
	NodeTypeResource    NodeType = "resource"
	NodeTypeTeam        NodeType = "team"
	NodeTypeADR         NodeType = "adr"
	NodeTypeContract    NodeType = "contract"
	NodeTypeRisk        NodeType = "risk"
	NodeTypeRequirement NodeType = "requirement"
	NodeTypeInsight     NodeType = "insight"
)

// EdgeType classifies a directed relationship between two nodes.
type EdgeType string

const (
	EdgeTypeManages        EdgeType = "manages"
	EdgeTypeDependsOn      EdgeType = "depends_on"
	EdgeTypeOwnedBy        EdgeType = "owned_by"
	EdgeTypeImplements     EdgeType = "implements"
	EdgeTypeExposes        EdgeType = "exposes"
	EdgeTypeHasRisk        EdgeType = "has_risk"
	EdgeTypeHasRequirement EdgeType = "has_requirement"
	EdgeTypeGenerated      EdgeType = "generated"
	EdgeTypeCalls          EdgeType = "calls"
)

// DefaultEdgeWeight is assigned to edges inserted without an explicit
// positive weight. Weights feed risk severity scoring.
const DefaultEdgeWeight = 1.0

// Node is a single entity in the knowledge graph.
//
// The id is the sole identity. Attributes is an open string-keyed map
// of scalar or semi-structured values; the graph never interprets it.
type Node struct {
	ID         string
	Type       NodeType
	Name       string
	Attributes map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Edge is a directed, weighted relationship between two node ids.
//
// Endpoint existence is NOT validated at insertion time; edges may
// dangle. Duplicate edges (same source, target, type) are permitted.
type Edge struct {
	SourceID   string
	TargetID   string
	Type       EdgeType
	Attributes map[string]any
	Weight     float64
}

// EdgeKey identifies an edge by its endpoints and type. The watcher
// tracks the key set it emitted per project so a modify event can
// retract exactly the stale edges.
type EdgeKey struct {
	SourceID string
	TargetID string
	Type     EdgeType
}

// Key returns the edge's identity for retraction bookkeeping.
func (e *Edge) Key() EdgeKey {
	return EdgeKey{SourceID: e.SourceID, TargetID: e.TargetID, Type: e.Type}
}

// Graph owns all nodes (keyed by id) and the ordered edge list.
//
// # Lifecycle
//
// empty (New) -> populated (builder full rebuild) -> optionally kept
// live (watcher incremental mutation) -> queried repeatedly until the
// host process exits. There is no destruction step.
//
// # Thread Safety
//
// All operations take g.mu. The lock is a reader/writer lock because
// queries vastly outnumber mutations.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges []*Edge

	// Secondary indexes, maintained on every mutation.
	outgoing map[string][]*Edge // source id -> edges
	incoming map[string][]*Edge // target id -> edges
}

// New creates an empty graph ready for population.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		edges:    make([]*Edge, 0),
		outgoing: make(map[string][]*Edge),
		incoming: make(map[string][]*Edge),
	}
}

// AddNode inserts or replaces a node.
//
// # Description
//
// Upsert by id with overwrite semantics: an existing node with the same
// id is replaced wholesale, no attribute merge. CreatedAt is carried
// over from the replaced node; UpdatedAt is refreshed.
//
// # Inputs
//
//   - n: The node to insert. Must not be nil and must have an id.
//
// # Outputs
//
//   - error: ErrInvalidNode if n is nil or has an empty id.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.ID == "" {
		return ErrInvalidNode
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UTC()
	n.UpdatedAt = now
	if prev, ok := g.nodes[n.ID]; ok {
		n.CreatedAt = prev.CreatedAt
	} else {
		n.CreatedAt = now
	}

	g.nodes[n.ID] = n
	recordNodeUpsert(string(n.Type))
	return nil
}

// AddEdge appends a directed edge.
//
// # Description
//
// Append-only: no endpoint validation, no deduplication. A weight of
// zero or less normalizes to DefaultEdgeWeight.
//
// # Outputs
//
//   - error: ErrInvalidEdge if e is nil or either endpoint id is empty.
func (g *Graph) AddEdge(e *Edge) error {
	if e == nil || e.SourceID == "" || e.TargetID == "" {
		return ErrInvalidEdge
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if e.Weight <= 0 {
		e.Weight = DefaultEdgeWeight
	}

	g.edges = append(g.edges, e)
	g.outgoing[e.SourceID] = append(g.outgoing[e.SourceID], e)
	g.incoming[e.TargetID] = append(g.incoming[e.TargetID], e)
	recordEdgeAppend(string(e.Type))
	return nil
}

// GetNode retrieves a node by id.
//
// The returned node is shared with the graph and must not be mutated.
func (g *Graph) GetNode(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	return n, ok
}

// GetEdgesFrom returns edges whose source is id, in insertion order.
func (g *Graph) GetEdgesFrom(id string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return copyEdges(g.outgoing[id])
}

// GetEdgesTo returns edges whose target is id, in insertion order.
func (g *Graph) GetEdgesTo(id string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return copyEdges(g.incoming[id])
}

// Nodes returns all nodes. Order is unspecified.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		result = append(result, n)
	}
	return result
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return copyEdges(g.edges)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.edges)
}

// RemoveNode deletes the node with the given id.
//
// Edges referencing the id are NOT removed; callers that need symmetric
// cleanup pair this with RemoveEdgesTouching.
func (g *Graph) RemoveNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	return true
}

// RemoveEdgesTouching removes every edge where id appears as source OR
// target, and returns the number removed.
func (g *Graph) RemoveEdgesTouching(id string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	kept := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if e.SourceID == id || e.TargetID == id {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0
	}
	g.edges = kept
	g.rebuildEdgeIndexesLocked()
	return removed
}

// RemoveEdges removes one edge per key, treating keys as a multiset.
//
// # Description
//
// Used by the watcher to retract the exact edge set it emitted for a
// project before reprocessing a modified record. Because duplicate
// edges are legal, each key removes at most one matching edge.
//
// # Outputs
//
//   - int: Number of edges actually removed.
func (g *Graph) RemoveEdges(keys []EdgeKey) int {
	if len(keys) == 0 {
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	pending := make(map[EdgeKey]int, len(keys))
	for _, k := range keys {
		pending[k]++
	}

	removed := 0
	kept := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if pending[e.Key()] > 0 {
			pending[e.Key()]--
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0
	}
	g.edges = kept
	g.rebuildEdgeIndexesLocked()
	return removed
}

// Reset discards all nodes and edges, returning the graph to empty.
// Used by the builder's full-rebuild semantics.
func (g *Graph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[string]*Node)
	g.edges = make([]*Edge, 0)
	g.outgoing = make(map[string][]*Edge)
	g.incoming = make(map[string][]*Edge)
}

// rebuildEdgeIndexesLocked recomputes the secondary indexes from the
// edge list. Caller must hold g.mu for writing.
func (g *Graph) rebuildEdgeIndexesLocked() {
	g.outgoing = make(map[string][]*Edge, len(g.outgoing))
	g.incoming = make(map[string][]*Edge, len(g.incoming))
	for _, e := range g.edges {
		g.outgoing[e.SourceID] = append(g.outgoing[e.SourceID], e)
		g.incoming[e.TargetID] = append(g.incoming[e.TargetID], e)
	}
}

// copyEdges returns a defensive copy of an edge slice.
func copyEdges(edges []*Edge) []*Edge {
	if len(edges) == 0 {
		return []*Edge{}
	}
	result := make([]*Edge, len(edges))
	copy(result, edges)
	return result
}
