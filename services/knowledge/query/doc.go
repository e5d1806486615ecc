// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package query implements read-only traversal queries over the
// knowledge graph: impact analysis, dependency reports, path finding,
// risk exposure aggregation, team/criticality filters, and the
// visualization export.
//
// All operations are stateless functions of the current graph. Impact
// analysis uses depth-bounded BFS with cycle safety; path finding uses
// unweighted BFS treating edges as undirected.
//
// # Error Taxonomy
//
// Operations referencing an unknown project id fail with a not-found
// error that unwraps ErrProjectNotFound; they never silently return an
// empty report. Queries on an existing entity with zero matching
// relationships return empty collections, not errors.
package query
