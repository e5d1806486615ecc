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
	"errors"
	"fmt"
)

// Sentinel errors for graph queries.
var (
	// ErrProjectNotFound is returned when a query references a project
	// id with no project node in the graph.
	ErrProjectNotFound = errors.New("project not found")
)

// ProjectNotFoundError provides details about a missing project.
type ProjectNotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project %q not found in knowledge graph", e.ID)
}

// Unwrap returns the sentinel error.
func (e *ProjectNotFoundError) Unwrap() error {
	return ErrProjectNotFound
}
