// SPDX-License-Identifier: Apache-2.0

// Package patterns loads pattern profiles: the two ordered pattern stages and the
// primary-match validation policy a Matcher is built from.
package patterns

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/gemaraproj/statement-screener/internal/evidence"
)

// ErrInvalidProfile is returned when a profile fails to decode or validate.
var ErrInvalidProfile = errors.New("invalid pattern profile")

// Profile is the on-disk pattern configuration.
type Profile struct {
	Name         string   `yaml:"name,omitempty" json:"name,omitempty"`
	MinMatches   int      `yaml:"min_matches,omitempty" json:"min_matches,omitempty"`
	Primary      []string `yaml:"primary,omitempty" json:"primary,omitempty"`
	Organization []string `yaml:"organization,omitempty" json:"organization,omitempty"`
}

// Empty is the profile used when none is configured: three unset patterns per stage.
// It never produces evidence.
func Empty() Profile {
	return Profile{
		Name:         "empty",
		Primary:      []string{"", "", ""},
		Organization: []string{"", "", ""},
	}
}

// Load reads and validates a YAML profile from path.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read pattern profile: %w", err)
	}
	profile, err := Parse(data)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return profile, nil
}

// Parse decodes a YAML profile and validates it against the profile schema.
func Parse(data []byte) (Profile, error) {
	var profile Profile
	if err := yaml.UnmarshalWithOptions(data, &profile, yaml.DisallowUnknownField()); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := Validate(profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// PatternConfig converts the profile into matcher configuration.
func (p Profile) PatternConfig() evidence.PatternConfig {
	return evidence.PatternConfig{
		Primary:      evidence.PatternSet(p.Primary),
		Organization: evidence.PatternSet(p.Organization),
	}
}

// Validator returns the primary-match validator the profile selects.
func (p Profile) Validator() evidence.Validator {
	if p.MinMatches > 1 {
		return evidence.MinMatches(p.MinMatches)
	}
	return evidence.AnyMatch
}

// Matcher builds a Matcher from the profile.
func (p Profile) Matcher() (*evidence.Matcher, error) {
	return evidence.NewMatcher(p.PatternConfig(), evidence.WithValidator(p.Validator()))
}
