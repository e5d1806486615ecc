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
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/panorama/services/knowledge/query"
)

var (
	projectsTeam        string
	projectsCriticality string
	vizOutputPath       string
)

func init() {
	projectsCmd.Flags().StringVar(&projectsTeam, "team", "",
		"List projects owned by this team")
	projectsCmd.Flags().StringVar(&projectsCriticality, "criticality", "",
		"List projects with this criticality level")
	vizCmd.Flags().StringVar(&vizOutputPath, "out", "",
		"Write the visualization document to this file instead of stdout")
}

// runDeps prints a project's one-hop relationships.
func runDeps(cmd *cobra.Command, args []string) {
	q := newQuerier(cmd.Context())

	report, err := q.Dependencies(args[0])
	if err != nil {
		if errors.Is(err, query.ErrProjectNotFound) {
			fmt.Fprintf(os.Stderr, "Project %q is not in the graph\n", args[0])
			os.Exit(1)
		}
		log.Fatalf("Error querying dependencies: %v", err)
	}

	if outputJSON {
		printJSON(report)
		return
	}

	fmt.Printf("Dependencies of %s\n", report.Project)
	printList("  upstream", report.UpstreamProjects)
	printList("  downstream", report.DownstreamProjects)
	printList("  resources", report.ManagedResources)
	printList("  adrs", report.ADRs)
}

// runPath prints the shortest path between two projects.
func runPath(cmd *cobra.Command, args []string) {
	q := newQuerier(cmd.Context())

	result := q.FindPath(args[0], args[1])
	if outputJSON {
		printJSON(result)
		return
	}

	if !result.Found {
		fmt.Printf("No path between %s and %s\n", result.From, result.To)
		return
	}
	fmt.Printf("%s (%d hops)\n", strings.Join(result.Path, " -> "), result.Length)
}

// runRisk prints a team's risk exposure grouped by risk type.
func runRisk(cmd *cobra.Command, args []string) {
	q := newQuerier(cmd.Context())

	exposure := q.RiskExposure(args[0])
	if outputJSON {
		printJSON(exposure)
		return
	}

	if len(exposure) == 0 {
		fmt.Printf("Team %q has no recorded risks\n", args[0])
		return
	}
	fmt.Printf("Risk exposure for %s\n", args[0])
	for riskType, count := range exposure {
		fmt.Printf("  %s: %d\n", riskType, count)
	}
}

// runProjects lists projects by team or criticality.
func runProjects(cmd *cobra.Command, args []string) {
	if (projectsTeam == "") == (projectsCriticality == "") {
		log.Fatal("Pass exactly one of --team or --criticality")
	}

	q := newQuerier(cmd.Context())

	var names []string
	if projectsTeam != "" {
		names = q.ProjectsByTeam(projectsTeam)
	} else {
		names = q.ProjectsByCriticality(projectsCriticality)
	}

	if outputJSON {
		printJSON(names)
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

// runViz exports the graph as a {nodes, links} document.
func runViz(cmd *cobra.Command, args []string) {
	q := newQuerier(cmd.Context())

	data, err := json.MarshalIndent(q.VisualizationFormat(), "", "  ")
	if err != nil {
		log.Fatalf("Error encoding visualization: %v", err)
	}

	if vizOutputPath == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(vizOutputPath, data, 0644); err != nil {
		log.Fatalf("Error writing visualization: %v", err)
	}
	fmt.Printf("Wrote visualization to %s\n", vizOutputPath)
}

func printList(label string, items []string) {
	if len(items) == 0 {
		fmt.Printf("%s: none\n", label)
		return
	}
	fmt.Printf("%s: %s\n", label, strings.Join(items, ", "))
}
