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
	"github.com/AleutianAI/panorama/services/knowledge/graph"
)

// DependencyReport lists a project's direct (one-hop) relationships.
type DependencyReport struct {
	Project string `json:"project"`

	// UpstreamProjects are projects this one depends on directly.
	UpstreamProjects []string `json:"upstream_projects"`

	// DownstreamProjects are projects depending on this one directly.
	DownstreamProjects []string `json:"downstream_projects"`

	// ManagedResources are resources this project manages.
	ManagedResources []string `json:"managed_resources"`

	// ADRs are the design records this project implements.
	ADRs []string `json:"adrs"`
}

// Dependencies returns a project's direct relationships.
//
// # Description
//
// A one-hop, non-transitive sibling of ImpactAnalysis. A project with
// no relationships yields empty collections, never an error; an
// unknown project id yields a ProjectNotFoundError.
func (q *Querier) Dependencies(projectID string) (*DependencyReport, error) {
	node, ok := q.g.GetNode(projectID)
	if !ok || node.Type != graph.NodeTypeProject {
		return nil, &ProjectNotFoundError{ID: projectID}
	}

	report := &DependencyReport{
		Project:            projectID,
		UpstreamProjects:   make([]string, 0),
		DownstreamProjects: make([]string, 0),
		ManagedResources:   make([]string, 0),
		ADRs:               make([]string, 0),
	}

	for _, e := range q.g.GetEdgesFrom(projectID) {
		switch e.Type {
		case graph.EdgeTypeDependsOn:
			report.UpstreamProjects = append(report.UpstreamProjects, q.nameOrID(e.TargetID))
		case graph.EdgeTypeManages:
			report.ManagedResources = append(report.ManagedResources, q.nameOrID(e.TargetID))
		case graph.EdgeTypeImplements:
			report.ADRs = append(report.ADRs, q.nameOrID(e.TargetID))
		}
	}

	for _, e := range q.g.GetEdgesTo(projectID) {
		if e.Type == graph.EdgeTypeDependsOn {
			report.DownstreamProjects = append(report.DownstreamProjects, q.nameOrID(e.SourceID))
		}
	}

	return report, nil
}

// nameOrID returns the node's display name, or the raw id when the
// edge dangles.
func (q *Querier) nameOrID(id string) string {
	if node, ok := q.g.GetNode(id); ok {
		return node.Name
	}
	return id
}
