// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gemaraproj/statement-screener/internal/store"
)

// MetadataReadEvidence describes the read_evidence tool.
var MetadataReadEvidence = &mcp.Tool{
	Name: "read_evidence",
	Description: "Read the confirmed evidence of a completed screening run. " +
		"Returns one record per evidence file, ordered by evidence number, with the URL and the " +
		"primary and organization match values. The run directory must contain the " +
		"evidence_summary.csv written by the run.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"run_dir"},
		"properties": map[string]interface{}{
			"run_dir": map[string]interface{}{
				"type":        "string",
				"description": "Path of the run directory, e.g. statement_evidence_20240309_140530",
			},
			"include_text": map[string]interface{}{
				"type":        "boolean",
				"description": "Include the full rendered text of each document. Defaults to false.",
			},
		},
	},
}

// InputReadEvidence is the input for the ReadEvidence tool.
type InputReadEvidence struct {
	RunDir      string `json:"run_dir"`
	IncludeText bool   `json:"include_text,omitempty"`
}

// OutputReadEvidence is the output for the ReadEvidence tool.
type OutputReadEvidence struct {
	Records []store.Record `json:"records"`
	Total   int            `json:"total"`
}

// ReadEvidence loads the records persisted in a run directory.
func ReadEvidence(_ context.Context, _ *mcp.CallToolRequest, input InputReadEvidence) (*mcp.CallToolResult, OutputReadEvidence, error) {
	if input.RunDir == "" {
		return nil, OutputReadEvidence{}, fmt.Errorf("run_dir is required")
	}

	records, err := store.Load(input.RunDir)
	if err != nil {
		return nil, OutputReadEvidence{}, fmt.Errorf("read evidence from %s: %w", input.RunDir, err)
	}
	if !input.IncludeText {
		for i := range records {
			records[i].FullText = ""
		}
	}

	return nil, OutputReadEvidence{
		Records: records,
		Total:   len(records),
	}, nil
}
