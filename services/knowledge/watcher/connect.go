// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watcher

import (
	"context"
	"fmt"
	"os"
)

// Environment fallbacks for the change feed endpoint.
const (
	EnvFeedURL   = "PANORAMA_FEED_URL"
	EnvFeedToken = "PANORAMA_FEED_TOKEN"
)

// FeedConfig is the explicit change feed configuration, usually loaded
// from the config file.
type FeedConfig struct {
	// URL is the websocket endpoint of the change feed.
	URL string `yaml:"url" json:"url"`

	// Token is the bearer token presented on connect. Optional.
	Token string `yaml:"token" json:"token"`
}

// resolveFeedConfig applies the two-stage fallback: the explicit
// config first, then the environment.
func resolveFeedConfig(cfg FeedConfig) (FeedConfig, error) {
	if cfg.URL != "" {
		return cfg, nil
	}

	env := FeedConfig{
		URL:   os.Getenv(EnvFeedURL),
		Token: os.Getenv(EnvFeedToken),
	}
	if env.URL != "" {
		return env, nil
	}

	return FeedConfig{}, fmt.Errorf("%w: set feed.url in the config file or %s in the environment",
		ErrNoFeedConfig, EnvFeedURL)
}

// Connect establishes a websocket change feed.
//
// # Description
//
// Resolves the endpoint with a two-stage fallback (explicit config,
// then environment) and dials it. Failure at both stages, or a failed
// dial, produces a structured error the caller can detect and retry
// on. The watch is never silently skipped.
//
// # Inputs
//
//   - ctx: Context bounding the dial. Must not be nil.
//   - cfg: Explicit feed configuration; zero value falls through to
//     the environment.
//
// # Outputs
//
//   - Feed: The established change feed.
//   - error: Wraps ErrNoFeedConfig or ErrFeedUnavailable.
func Connect(ctx context.Context, cfg FeedConfig) (Feed, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}

	resolved, err := resolveFeedConfig(cfg)
	if err != nil {
		return nil, err
	}

	feed, err := DialFeed(ctx, resolved.URL, resolved.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", ErrFeedUnavailable, resolved.URL, err)
	}
	return feed, nil
}
