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

import "errors"

// Sentinel errors for watcher startup.
var (
	// ErrFeedUnavailable is returned when no change feed source can be
	// established from any configuration stage. Callers get an
	// explicit error to detect and retry on, never a silent no-op.
	ErrFeedUnavailable = errors.New("change feed unavailable")

	// ErrNoFeedConfig is returned when neither the explicit
	// configuration nor the environment provides a feed endpoint.
	ErrNoFeedConfig = errors.New("no change feed configuration found")
)
