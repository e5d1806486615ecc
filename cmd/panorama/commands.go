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
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/panorama/cmd/panorama/config"
)

// --- Global Command Variables ---
var (
	contextPaths []string
	outputJSON   bool
	verbose      bool

	rootCmd = &cobra.Command{
		Use:   "panorama",
		Short: "A cli to build and query the engineering knowledge graph",
		Long: `Panorama builds a knowledge graph from project context records
				and answers impact, dependency, and risk questions over it.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
				&slog.HandlerOptions{Level: level})))

			if err := config.Load(); err != nil {
				log.Fatalf("Error loading config: %v", err)
			}
		},
	}

	// --- Build ---
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the knowledge graph from project context records",
		Run:   runBuild, // Defined in cmd_build.go
	}

	// --- Queries ---
	impactCmd = &cobra.Command{
		Use:   "impact [project_id]",
		Short: "Compute the blast radius of a project change",
		Args:  cobra.ExactArgs(1),
		Run:   runImpact, // Defined in cmd_impact.go
	}
	depsCmd = &cobra.Command{
		Use:   "deps [project_id]",
		Short: "List a project's direct dependencies and artifacts",
		Args:  cobra.ExactArgs(1),
		Run:   runDeps, // Defined in cmd_query.go
	}
	pathCmd = &cobra.Command{
		Use:   "path [from_project] [to_project]",
		Short: "Find the shortest path between two projects",
		Args:  cobra.ExactArgs(2),
		Run:   runPath, // Defined in cmd_query.go
	}
	riskCmd = &cobra.Command{
		Use:   "risk [team]",
		Short: "Aggregate risk exposure for a team's projects",
		Args:  cobra.ExactArgs(1),
		Run:   runRisk, // Defined in cmd_query.go
	}
	projectsCmd = &cobra.Command{
		Use:   "projects",
		Short: "List projects filtered by team or criticality",
		Run:   runProjects, // Defined in cmd_query.go
	}
	vizCmd = &cobra.Command{
		Use:   "viz",
		Short: "Export the graph as a {nodes, links} visualization document",
		Run:   runViz, // Defined in cmd_query.go
	}

	// --- Live updates ---
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Keep the graph updated from a live change feed",
		Run:   runWatch, // Defined in cmd_watch.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&contextPaths, "contexts", nil,
		"YAML files or directories of project context records (defaults to contexts.dir from the config)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false,
		"Output as JSON for scripting")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false,
		"Enable debug logging")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(riskCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(vizCmd)
	rootCmd.AddCommand(watchCmd)
}
