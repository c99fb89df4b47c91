// SPDX-License-Identifier: Apache-2.0

// Package tool exposes the screening core as MCP tools.
package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gemaraproj/statement-screener/internal/evidence"
	"github.com/gemaraproj/statement-screener/internal/evidence/patterns"
)

// MetadataScreenText describes the screen_text tool.
var MetadataScreenText = &mcp.Tool{
	Name: "screen_text",
	Description: "Screen a block of text with the two-stage evidence patterns. " +
		"The text is evidence only when at least one primary pattern matches and at least one " +
		"organization pattern matches. Patterns are case-insensitive regular expressions; a pattern " +
		"with a capturing group reports the first group, otherwise the whole match. " +
		"Organization patterns are not evaluated when no primary pattern matches.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"text", "primary_patterns", "organization_patterns"},
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Visible text of the document to screen",
			},
			"primary_patterns": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Ordered stage-one patterns establishing the identifying signal",
			},
			"organization_patterns": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Ordered stage-two patterns confirming the organizational context",
			},
			"min_matches": map[string]interface{}{
				"type":        "integer",
				"minimum":     1,
				"description": "Optional number of matches a primary pattern needs to count as a signal. Defaults to 1.",
			},
		},
	},
}

// InputScreenText is the input for the ScreenText tool.
type InputScreenText struct {
	Text                 string   `json:"text"`
	PrimaryPatterns      []string `json:"primary_patterns"`
	OrganizationPatterns []string `json:"organization_patterns"`
	MinMatches           int      `json:"min_matches,omitempty"`
}

// OutputScreenText is the output for the ScreenText tool.
type OutputScreenText struct {
	// Matched reports whether the text is evidence.
	Matched bool `json:"matched"`
	// Primary holds the validated stage-one matches, in pattern order.
	Primary evidence.StageMatches `json:"primary"`
	// Organization holds the stage-two matches, in pattern order.
	Organization evidence.StageMatches `json:"organization"`
}

// ScreenText evaluates the provided text against an ad-hoc pattern profile.
func ScreenText(_ context.Context, _ *mcp.CallToolRequest, input InputScreenText) (*mcp.CallToolResult, OutputScreenText, error) {
	if input.Text == "" {
		return nil, OutputScreenText{}, fmt.Errorf("text is required")
	}
	if input.MinMatches < 0 {
		return nil, OutputScreenText{}, fmt.Errorf("min_matches must be positive, got %d", input.MinMatches)
	}

	profile := patterns.Profile{
		Name:         "screen_text",
		MinMatches:   input.MinMatches,
		Primary:      input.PrimaryPatterns,
		Organization: input.OrganizationPatterns,
	}
	matcher, err := profile.Matcher()
	if err != nil {
		return nil, OutputScreenText{}, err
	}

	match := matcher.Evaluate(input.Text)
	if match == nil {
		return nil, OutputScreenText{
			Primary:      evidence.StageMatches{},
			Organization: evidence.StageMatches{},
		}, nil
	}
	return nil, OutputScreenText{
		Matched:      true,
		Primary:      match.Primary,
		Organization: match.Organization,
	}, nil
}
