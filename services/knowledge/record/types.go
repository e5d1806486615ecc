// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package record defines the project context record, the sole input to
// the knowledge graph core.
//
// Records arrive pre-validated from an external contract-validation
// component; this package only defines their shape and decoding rules.
// No semantic validation happens here.
package record

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ProjectContext describes one project's ownership, managed
// infrastructure, design artifacts, requirements, and risks.
type ProjectContext struct {
	Metadata Metadata `yaml:"metadata" json:"metadata"`
	Spec     Spec     `yaml:"spec" json:"spec"`
}

// Metadata identifies the record.
type Metadata struct {
	Name      string `yaml:"name" json:"name"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// Spec holds the declared project context.
type Spec struct {
	Business     *Business     `yaml:"business,omitempty" json:"business,omitempty"`
	Project      *ProjectRef   `yaml:"project,omitempty" json:"project,omitempty"`
	Targets      []Target      `yaml:"targets,omitempty" json:"targets,omitempty"`
	Design       *Design       `yaml:"design,omitempty" json:"design,omitempty"`
	Requirements *Requirements `yaml:"requirements,omitempty" json:"requirements,omitempty"`
	Risks        []Risk        `yaml:"risks,omitempty" json:"risks,omitempty"`
}

// Business carries ownership and business metadata. All fields optional.
type Business struct {
	Criticality string `yaml:"criticality,omitempty" json:"criticality,omitempty"`
	Value       string `yaml:"value,omitempty" json:"value,omitempty"`
	Owner       string `yaml:"owner,omitempty" json:"owner,omitempty"`
	CostCenter  string `yaml:"costCenter,omitempty" json:"costCenter,omitempty"`
}

// ProjectRef links the record to a project.
//
// # Description
//
// The upstream contract allows either a bare string (the project id) or
// a structured object {id, epic}. Both forms decode into ProjectRef;
// the string form leaves Epic empty.
type ProjectRef struct {
	ID   string `yaml:"id" json:"id"`
	Epic string `yaml:"epic,omitempty" json:"epic,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (p *ProjectRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&p.ID)
	}

	type plain struct {
		ID   string `yaml:"id"`
		Epic string `yaml:"epic"`
	}
	var raw plain
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decoding project reference: %w", err)
	}
	p.ID = raw.ID
	p.Epic = raw.Epic
	return nil
}

// UnmarshalJSON accepts both the string and the object form.
func (p *ProjectRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.ID)
	}

	type plain struct {
		ID   string `json:"id"`
		Epic string `json:"epic"`
	}
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding project reference: %w", err)
	}
	p.ID = raw.ID
	p.Epic = raw.Epic
	return nil
}

// Target declares an infrastructure resource the project manages.
// Namespace defaults to the record's namespace when omitted.
type Target struct {
	Kind      string `yaml:"kind" json:"kind"`
	Name      string `yaml:"name" json:"name"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
}

// Design references design artifacts for the project.
type Design struct {
	ADR         string `yaml:"adr,omitempty" json:"adr,omitempty"`
	Doc         string `yaml:"doc,omitempty" json:"doc,omitempty"`
	APIContract string `yaml:"apiContract,omitempty" json:"apiContract,omitempty"`
}

// Requirements holds service level requirements. All fields optional.
type Requirements struct {
	Availability string `yaml:"availability,omitempty" json:"availability,omitempty"`
	LatencyP99   string `yaml:"latencyP99,omitempty" json:"latencyP99,omitempty"`
	LatencyP50   string `yaml:"latencyP50,omitempty" json:"latencyP50,omitempty"`
	Throughput   string `yaml:"throughput,omitempty" json:"throughput,omitempty"`
	ErrorBudget  string `yaml:"errorBudget,omitempty" json:"errorBudget,omitempty"`
}

// Risk describes one declared risk. Priority is P1..P4 or empty.
type Risk struct {
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Priority    string `yaml:"priority,omitempty" json:"priority,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Scope       string `yaml:"scope,omitempty" json:"scope,omitempty"`
}
