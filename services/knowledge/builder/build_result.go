// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package builder

import "github.com/google/uuid"

// BuildResult summarizes one full rebuild.
type BuildResult struct {
	// BuildID uniquely identifies this rebuild run.
	BuildID string `json:"build_id"`

	// NodeCount is the number of nodes after the rebuild.
	NodeCount int `json:"node_count"`

	// EdgeCount is the number of edges after the rebuild.
	EdgeCount int `json:"edge_count"`

	// SharedServiceCandidates lists Service resources managed by more
	// than one project: candidate cross-project dependencies. No
	// depends_on edges exist for them; consumers decide what to do
	// with the candidates.
	SharedServiceCandidates []SharedService `json:"shared_service_candidates"`

	// DurationMs is the wall-clock rebuild duration.
	DurationMs int64 `json:"duration_ms"`
}

// SharedService is one dependency-inference candidate.
type SharedService struct {
	// ResourceID is the shared Service resource node id.
	ResourceID string `json:"resource_id"`

	// Projects are the ids of the projects managing it, sorted.
	Projects []string `json:"projects"`
}

// newBuildID returns a fresh build run identifier.
func newBuildID() string {
	return uuid.NewString()
}
