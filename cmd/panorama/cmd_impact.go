// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/panorama/cmd/panorama/config"
	"github.com/AleutianAI/panorama/services/knowledge/query"
)

var impactMaxDepth int

func init() {
	impactCmd.Flags().IntVar(&impactMaxDepth, "max-depth", 0,
		"Maximum traversal depth (0 = query.max_depth from the config)")
}

// runImpact computes and prints the blast radius of a project.
func runImpact(cmd *cobra.Command, args []string) {
	projectID := args[0]

	maxDepth := impactMaxDepth
	if maxDepth <= 0 {
		maxDepth = config.Global.Query.MaxDepth
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	q := newQuerier(ctx)
	report, err := q.ImpactAnalysis(ctx, projectID, maxDepth)
	if err != nil {
		if errors.Is(err, query.ErrProjectNotFound) {
			fmt.Fprintf(os.Stderr, "Project %q is not in the graph\n", projectID)
			os.Exit(1)
		}
		log.Fatalf("Error computing impact: %v", err)
	}

	if outputJSON {
		printJSON(report)
		return
	}

	fmt.Printf("Impact of %s (depth %d): %d affected projects\n",
		report.Project, report.MaxDepthUsed, report.TotalBlastRadius)
	for i, name := range report.AffectedProjects {
		fmt.Printf("  %s  via %s\n", name, strings.Join(report.DependencyPaths[i], " -> "))
	}
	if len(report.CriticalProjects) > 0 {
		fmt.Printf("Critical: %s\n", strings.Join(report.CriticalProjects, ", "))
	}
	if len(report.AffectedTeams) > 0 {
		fmt.Printf("Teams: %s\n", strings.Join(report.AffectedTeams, ", "))
	}
}
