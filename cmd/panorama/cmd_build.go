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
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/panorama/cmd/panorama/config"
	"github.com/AleutianAI/panorama/services/knowledge/builder"
	"github.com/AleutianAI/panorama/services/knowledge/graph"
	"github.com/AleutianAI/panorama/services/knowledge/query"
	"github.com/AleutianAI/panorama/services/knowledge/record"
)

var buildSnapshotPath string

func init() {
	buildCmd.Flags().StringVar(&buildSnapshotPath, "out", "",
		"Write the serialized graph to this file after building")
}

// runBuild rebuilds the graph from the configured records and prints
// the build result.
func runBuild(cmd *cobra.Command, args []string) {
	g, result, err := buildGraph(cmd.Context())
	if err != nil {
		log.Fatalf("Error building graph: %v", err)
	}

	if buildSnapshotPath != "" {
		data, err := json.MarshalIndent(g.Snapshot(), "", "  ")
		if err != nil {
			log.Fatalf("Error serializing graph: %v", err)
		}
		if err := os.WriteFile(buildSnapshotPath, data, 0644); err != nil {
			log.Fatalf("Error writing snapshot: %v", err)
		}
	}

	if outputJSON {
		printJSON(result)
		return
	}

	fmt.Printf("Build %s complete: %d nodes, %d edges (%dms)\n",
		result.BuildID, result.NodeCount, result.EdgeCount, result.DurationMs)
	for _, candidate := range result.SharedServiceCandidates {
		fmt.Printf("  shared service %s managed by %s\n",
			candidate.ResourceID, strings.Join(candidate.Projects, ", "))
	}
}

// buildGraph loads records from --contexts (or the configured contexts
// directory) and runs a full rebuild.
func buildGraph(ctx context.Context) (*graph.Graph, *builder.BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	records, err := loadRecords()
	if err != nil {
		return nil, nil, err
	}

	g := graph.New()
	result, err := builder.New(g).BuildFromContexts(ctx, records)
	if err != nil {
		return nil, nil, err
	}
	return g, result, nil
}

// newQuerier builds the graph and wraps it for query commands.
func newQuerier(ctx context.Context) *query.Querier {
	g, _, err := buildGraph(ctx)
	if err != nil {
		log.Fatalf("Error building graph: %v", err)
	}
	return query.NewQuerier(g)
}

// loadRecords reads every record file named by --contexts, descending
// one level into directories. Falls back to contexts.dir from the
// config when the flag is absent.
func loadRecords() ([]record.ProjectContext, error) {
	paths := contextPaths
	if len(paths) == 0 {
		if config.Global.Contexts.Dir == "" {
			return nil, fmt.Errorf("no context records: pass --contexts or set contexts.dir in the config")
		}
		paths = []string{config.Global.Contexts.Dir}
	}

	var records []record.ProjectContext
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		if !info.IsDir() {
			recs, err := record.LoadFile(path)
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isYAML(entry.Name()) {
				continue
			}
			recs, err := record.LoadFile(filepath.Join(path, entry.Name()))
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
	}
	return records, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Error encoding output: %v", err)
	}
	fmt.Println(string(data))
}
