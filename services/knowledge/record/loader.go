// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package record

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a batch of project context records from a YAML file.
//
// # Description
//
// Accepts either a single YAML document containing a sequence of
// records, or a multi-document stream with one record per document.
//
// # Inputs
//
//   - path: Path to the YAML file.
//
// # Outputs
//
//   - []ProjectContext: The decoded records, in file order.
//   - error: Non-nil if the file cannot be read or decoded.
func LoadFile(path string) ([]ProjectContext, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening context file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads project context records from a YAML stream.
//
// Each document may be either a sequence of records or a single record;
// documents are concatenated in stream order.
func Decode(r io.Reader) ([]ProjectContext, error) {
	dec := yaml.NewDecoder(r)

	var batch []ProjectContext
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding context document: %w", err)
		}

		root := &doc
		if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
			root = root.Content[0]
		}

		if root.Kind == yaml.SequenceNode {
			var recs []ProjectContext
			if err := root.Decode(&recs); err != nil {
				return nil, fmt.Errorf("decoding context batch: %w", err)
			}
			batch = append(batch, recs...)
			continue
		}

		var rec ProjectContext
		if err := root.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decoding context record: %w", err)
		}
		batch = append(batch, rec)
	}
	return batch, nil
}
