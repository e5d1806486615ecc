// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph implements the in-memory knowledge graph model: typed
// nodes, typed weighted edges, and the Graph container that owns them.
//
// The Graph is the sole mutable aggregate. The builder and watcher
// packages mutate it; the query package reads it. Node identity is the
// node id alone: re-inserting a node with an existing id replaces it
// wholesale. Edges are appended in insertion order, may reference node
// ids that do not (yet) exist, and are not deduplicated. Dangling-edge
// tolerance is deliberate so that streamed updates can arrive out of
// order.
//
// # Thread Safety
//
// Every Graph operation takes the container's RWMutex, so individual
// reads and writes are safe under concurrent watcher mutation. Readers
// that need a frozen view of the whole graph should use Snapshot.
package graph
