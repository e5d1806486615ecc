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

import "errors"

// Sentinel errors for graph mutations.
var (
	// ErrInvalidNode is returned when a node is nil or has no id.
	ErrInvalidNode = errors.New("invalid node: missing id")

	// ErrInvalidEdge is returned when an edge is nil or an endpoint id
	// is empty.
	ErrInvalidEdge = errors.New("invalid edge: missing endpoint id")
)
