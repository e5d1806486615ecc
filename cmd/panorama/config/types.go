// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

type PanoramaConfig struct {
	// Contexts: where project context records live
	Contexts ContextsConfig `yaml:"contexts"`

	// Feed: the live change feed endpoint
	Feed FeedConfig `yaml:"feed"`

	// Query: defaults applied to graph queries
	Query QueryConfig `yaml:"query"`
}

type ContextsConfig struct {
	Dir string `yaml:"dir"` // e.g. ~/.panorama/contexts
}

type FeedConfig struct {
	URL   string `yaml:"url"`             // e.g. ws://panorama-feed:9090/stream
	Token string `yaml:"token,omitempty"` // bearer token, optional
}

type QueryConfig struct {
	MaxDepth int `yaml:"max_depth"` // e.g. 5
}

// DefaultConfig returns the config written on first run.
func DefaultConfig() PanoramaConfig {
	return PanoramaConfig{
		Query: QueryConfig{MaxDepth: 5},
	}
}
