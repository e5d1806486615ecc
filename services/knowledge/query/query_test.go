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
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/AleutianAI/panorama/services/knowledge/graph"
)

// chainGraph builds the dependency chain X -> Y -> Z: X depends on Y,
// Y depends on Z. Each project is owned by its own team.
func chainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, name := range []string{"X", "Y", "Z"} {
		addProject(t, g, name, "team-"+name, "")
	}
	addEdge(t, g, "X", "Y", graph.EdgeTypeDependsOn)
	addEdge(t, g, "Y", "Z", graph.EdgeTypeDependsOn)
	return g
}

func addProject(t *testing.T, g *graph.Graph, id, team, criticality string) {
	t.Helper()
	attrs := map[string]any{}
	if criticality != "" {
		attrs["criticality"] = criticality
	}
	if err := g.AddNode(&graph.Node{ID: id, Type: graph.NodeTypeProject, Name: id, Attributes: attrs}); err != nil {
		t.Fatalf("AddNode(%s): %v", id, err)
	}
	if team != "" {
		teamID := "team:" + team
		if err := g.AddNode(&graph.Node{ID: teamID, Type: graph.NodeTypeTeam, Name: team}); err != nil {
			t.Fatalf("AddNode(%s): %v", teamID, err)
		}
		addEdge(t, g, id, teamID, graph.EdgeTypeOwnedBy)
	}
}

func addEdge(t *testing.T, g *graph.Graph, source, target string, edgeType graph.EdgeType) {
	t.Helper()
	if err := g.AddEdge(&graph.Edge{SourceID: source, TargetID: target, Type: edgeType}); err != nil {
		t.Fatalf("AddEdge(%s->%s): %v", source, target, err)
	}
}

func addRisk(t *testing.T, g *graph.Graph, projectID, riskID, riskType string, weight float64) {
	t.Helper()
	attrs := map[string]any{}
	if riskType != "" {
		attrs["type"] = riskType
	}
	if err := g.AddNode(&graph.Node{ID: riskID, Type: graph.NodeTypeRisk, Name: riskType, Attributes: attrs}); err != nil {
		t.Fatalf("AddNode(%s): %v", riskID, err)
	}
	if err := g.AddEdge(&graph.Edge{SourceID: projectID, TargetID: riskID, Type: graph.EdgeTypeHasRisk, Weight: weight}); err != nil {
		t.Fatalf("AddEdge(%s->%s): %v", projectID, riskID, err)
	}
}

func TestQuerier_ImpactAnalysis(t *testing.T) {
	t.Run("dependency chain blast radius", func(t *testing.T) {
		q := NewQuerier(chainGraph(t))

		report, err := q.ImpactAnalysis(context.Background(), "Z", 5)
		if err != nil {
			t.Fatalf("ImpactAnalysis: %v", err)
		}

		if report.TotalBlastRadius != 2 {
			t.Errorf("expected blast radius 2, got %d", report.TotalBlastRadius)
		}
		if !reflect.DeepEqual(report.AffectedProjects, []string{"Y", "X"}) {
			t.Errorf("expected [Y X], got %v", report.AffectedProjects)
		}
		wantPaths := [][]string{{"Z", "Y"}, {"Z", "Y", "X"}}
		if !reflect.DeepEqual(report.DependencyPaths, wantPaths) {
			t.Errorf("expected paths %v, got %v", wantPaths, report.DependencyPaths)
		}
		if !reflect.DeepEqual(report.AffectedTeams, []string{"team-Y", "team-X"}) {
			t.Errorf("expected owning teams, got %v", report.AffectedTeams)
		}
	})

	t.Run("depth bound truncates traversal", func(t *testing.T) {
		q := NewQuerier(chainGraph(t))

		report, err := q.ImpactAnalysis(context.Background(), "Z", 1)
		if err != nil {
			t.Fatalf("ImpactAnalysis: %v", err)
		}
		if !reflect.DeepEqual(report.AffectedProjects, []string{"Y"}) {
			t.Errorf("expected only Y within depth 1, got %v", report.AffectedProjects)
		}
		if report.MaxDepthUsed != 1 {
			t.Errorf("expected MaxDepthUsed=1, got %d", report.MaxDepthUsed)
		}
	})

	t.Run("default depth applies when non-positive", func(t *testing.T) {
		q := NewQuerier(chainGraph(t))
		report, err := q.ImpactAnalysis(context.Background(), "Z", 0)
		if err != nil {
			t.Fatalf("ImpactAnalysis: %v", err)
		}
		if report.MaxDepthUsed != DefaultMaxDepth {
			t.Errorf("expected default depth %d, got %d", DefaultMaxDepth, report.MaxDepthUsed)
		}
	})

	t.Run("isolated project has empty blast radius", func(t *testing.T) {
		g := graph.New()
		addProject(t, g, "lonely", "", "")
		q := NewQuerier(g)

		report, err := q.ImpactAnalysis(context.Background(), "lonely", 5)
		if err != nil {
			t.Fatalf("ImpactAnalysis: %v", err)
		}
		if report.TotalBlastRadius != 0 || len(report.AffectedProjects) != 0 {
			t.Errorf("expected empty report, got %+v", report)
		}
	})

	t.Run("critical downstream projects are flagged", func(t *testing.T) {
		g := graph.New()
		addProject(t, g, "core", "platform", "")
		addProject(t, g, "checkout", "payments", "critical")
		addEdge(t, g, "checkout", "core", graph.EdgeTypeDependsOn)
		q := NewQuerier(g)

		report, err := q.ImpactAnalysis(context.Background(), "core", 5)
		if err != nil {
			t.Fatalf("ImpactAnalysis: %v", err)
		}
		if !reflect.DeepEqual(report.CriticalProjects, []string{"checkout"}) {
			t.Errorf("expected critical projects [checkout], got %v", report.CriticalProjects)
		}
	})

	t.Run("unknown project is an error, never an empty report", func(t *testing.T) {
		q := NewQuerier(chainGraph(t))
		report, err := q.ImpactAnalysis(context.Background(), "does-not-exist", 5)
		if report != nil {
			t.Errorf("expected nil report, got %+v", report)
		}
		if !errors.Is(err, ErrProjectNotFound) {
			t.Errorf("expected ErrProjectNotFound, got %v", err)
		}
	})

	t.Run("non-project node id is treated as not found", func(t *testing.T) {
		g := chainGraph(t)
		q := NewQuerier(g)
		if _, err := q.ImpactAnalysis(context.Background(), "team:team-X", 5); !errors.Is(err, ErrProjectNotFound) {
			t.Errorf("expected ErrProjectNotFound, got %v", err)
		}
	})
}

func TestQuerier_Dependencies(t *testing.T) {
	t.Run("one-hop relationships", func(t *testing.T) {
		g := chainGraph(t)
		if err := g.AddNode(&graph.Node{ID: "resource:prod/Service/y-svc", Type: graph.NodeTypeResource, Name: "y-svc"}); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
		addEdge(t, g, "Y", "resource:prod/Service/y-svc", graph.EdgeTypeManages)
		if err := g.AddNode(&graph.Node{ID: "adr:ADR-007", Type: graph.NodeTypeADR, Name: "ADR-007"}); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
		addEdge(t, g, "Y", "adr:ADR-007", graph.EdgeTypeImplements)

		q := NewQuerier(g)
		report, err := q.Dependencies("Y")
		if err != nil {
			t.Fatalf("Dependencies: %v", err)
		}

		if !reflect.DeepEqual(report.UpstreamProjects, []string{"Z"}) {
			t.Errorf("expected upstream [Z], got %v", report.UpstreamProjects)
		}
		if !reflect.DeepEqual(report.DownstreamProjects, []string{"X"}) {
			t.Errorf("expected downstream [X], got %v", report.DownstreamProjects)
		}
		if !reflect.DeepEqual(report.ManagedResources, []string{"y-svc"}) {
			t.Errorf("expected resources [y-svc], got %v", report.ManagedResources)
		}
		if !reflect.DeepEqual(report.ADRs, []string{"ADR-007"}) {
			t.Errorf("expected ADRs [ADR-007], got %v", report.ADRs)
		}
	})

	t.Run("no relationships yields empty collections", func(t *testing.T) {
		g := graph.New()
		addProject(t, g, "lonely", "", "")
		q := NewQuerier(g)

		report, err := q.Dependencies("lonely")
		if err != nil {
			t.Fatalf("Dependencies: %v", err)
		}
		if len(report.UpstreamProjects) != 0 || len(report.DownstreamProjects) != 0 ||
			len(report.ManagedResources) != 0 || len(report.ADRs) != 0 {
			t.Errorf("expected empty collections, got %+v", report)
		}
	})

	t.Run("unknown project is an error", func(t *testing.T) {
		q := NewQuerier(graph.New())
		if _, err := q.Dependencies("ghost"); !errors.Is(err, ErrProjectNotFound) {
			t.Errorf("expected ErrProjectNotFound, got %v", err)
		}

		var notFound *ProjectNotFoundError
		_, err := q.Dependencies("ghost")
		if !errors.As(err, &notFound) || notFound.ID != "ghost" {
			t.Errorf("expected typed not-found error carrying the id, got %v", err)
		}
	})
}

func TestQuerier_FindPath(t *testing.T) {
	t.Run("identity path", func(t *testing.T) {
		q := NewQuerier(chainGraph(t))
		result := q.FindPath("X", "X")
		if !result.Found || result.Length != 0 || !reflect.DeepEqual(result.Path, []string{"X"}) {
			t.Errorf("expected single-element path, got %+v", result)
		}
	})

	t.Run("direction-agnostic shortest path", func(t *testing.T) {
		q := NewQuerier(chainGraph(t))

		forward := q.FindPath("X", "Z")
		if !forward.Found || !reflect.DeepEqual(forward.Path, []string{"X", "Y", "Z"}) {
			t.Fatalf("expected X-Y-Z, got %+v", forward)
		}

		backward := q.FindPath("Z", "X")
		if !backward.Found {
			t.Fatal("expected reverse path to exist")
		}
		if forward.Length != backward.Length {
			t.Errorf("expected symmetric lengths, got %d vs %d", forward.Length, backward.Length)
		}
	})

	t.Run("absent endpoint is no path, not an error", func(t *testing.T) {
		q := NewQuerier(chainGraph(t))
		result := q.FindPath("X", "ghost")
		if result.Found || result.Length != -1 || len(result.Path) != 0 {
			t.Errorf("expected no path, got %+v", result)
		}
	})

	t.Run("disconnected projects have no path", func(t *testing.T) {
		g := chainGraph(t)
		addProject(t, g, "island", "", "")
		q := NewQuerier(g)
		if result := q.FindPath("X", "island"); result.Found {
			t.Errorf("expected no path, got %+v", result)
		}
	})
}

func TestQuerier_RiskExposure(t *testing.T) {
	t.Run("counts grouped by risk type", func(t *testing.T) {
		g := graph.New()
		addProject(t, g, "A", "team-a", "")
		addRisk(t, g, "A", "risk:A:0", "security", 4.0)
		addRisk(t, g, "A", "risk:A:1", "cost", 2.0)
		q := NewQuerier(g)

		exposure := q.RiskExposure("team-a")
		want := map[string]int{"security": 1, "cost": 1}
		if !reflect.DeepEqual(exposure, want) {
			t.Errorf("expected %v, got %v", want, exposure)
		}
	})

	t.Run("sum equals has_risk edge count across the team", func(t *testing.T) {
		g := graph.New()
		addProject(t, g, "A", "team-a", "")
		addProject(t, g, "B", "team-a", "")
		addRisk(t, g, "A", "risk:A:0", "security", 4.0)
		addRisk(t, g, "A", "risk:A:1", "security", 3.0)
		addRisk(t, g, "B", "risk:B:0", "", 1.0)
		q := NewQuerier(g)

		exposure := q.RiskExposure("team-a")
		sum := 0
		for _, count := range exposure {
			sum += count
		}
		if sum != 3 {
			t.Errorf("expected sum 3, got %d from %v", sum, exposure)
		}
		if exposure["unknown"] != 1 {
			t.Errorf("expected typeless risk under %q, got %v", riskTypeUnknown, exposure)
		}
	})

	t.Run("unknown team yields empty mapping", func(t *testing.T) {
		q := NewQuerier(graph.New())
		if exposure := q.RiskExposure("nobody"); len(exposure) != 0 {
			t.Errorf("expected empty mapping, got %v", exposure)
		}
	})
}

func TestQuerier_ProjectFilters(t *testing.T) {
	g := graph.New()
	addProject(t, g, "checkout", "payments-team", "critical")
	addProject(t, g, "billing", "payments-team", "high")
	addProject(t, g, "search", "discovery-team", "critical")
	q := NewQuerier(g)

	t.Run("by team", func(t *testing.T) {
		got := q.ProjectsByTeam("payments-team")
		if !reflect.DeepEqual(got, []string{"billing", "checkout"}) {
			t.Errorf("expected sorted pair, got %v", got)
		}
		if got := q.ProjectsByTeam("nobody"); len(got) != 0 {
			t.Errorf("expected empty, got %v", got)
		}
	})

	t.Run("by criticality", func(t *testing.T) {
		got := q.ProjectsByCriticality("critical")
		if !reflect.DeepEqual(got, []string{"checkout", "search"}) {
			t.Errorf("expected [checkout search], got %v", got)
		}
		if got := q.ProjectsByCriticality("low"); len(got) != 0 {
			t.Errorf("expected empty, got %v", got)
		}
	})
}

func TestQuerier_VisualizationFormat(t *testing.T) {
	g := graph.New()
	addProject(t, g, "checkout", "", "critical")
	if err := g.AddNode(&graph.Node{ID: "resource:prod/Service/svc", Type: graph.NodeTypeResource, Name: "svc"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(&graph.Node{ID: "team:payments", Type: graph.NodeTypeTeam, Name: "payments"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	addEdge(t, g, "checkout", "resource:prod/Service/svc", graph.EdgeTypeManages)
	if err := g.AddEdge(&graph.Edge{SourceID: "checkout", TargetID: "team:payments", Type: graph.EdgeTypeOwnedBy, Weight: 2.5}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	viz := NewQuerier(g).VisualizationFormat()

	if len(viz.Nodes) != 3 {
		t.Fatalf("expected 3 node entries, got %d", len(viz.Nodes))
	}
	if len(viz.Links) != 2 {
		t.Fatalf("expected 2 link entries, got %d", len(viz.Links))
	}

	for _, entry := range viz.Nodes {
		if entry["id"] == "" || entry["label"] == "" {
			t.Errorf("missing id/label in %+v", entry)
		}
		group, _ := entry["group"].(string)
		switch group {
		case "project", "resource", "team":
		default:
			t.Errorf("unexpected group %q", group)
		}
		if entry["id"] == "checkout" && entry["criticality"] != "critical" {
			t.Errorf("expected attributes spread into entry, got %+v", entry)
		}
	}

	if viz.Links[1].Value != 2.5 {
		t.Errorf("expected link value to carry weight, got %v", viz.Links[1].Value)
	}
	if viz.Links[0].Type != "manages" {
		t.Errorf("expected link type string, got %q", viz.Links[0].Type)
	}
}
