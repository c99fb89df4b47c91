// SPDX-License-Identifier: Apache-2.0

package patterns

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// profileSchema constrains profiles before any pattern is compiled.
const profileSchema = `
#Profile: {
	name?:         string & =~"^[A-Za-z0-9._-]+$"
	min_matches?:  int & >=1 & <=1000
	primary?:      [...string]
	organization?: [...string]
}
`

// Validate checks the profile against the CUE profile schema.
func Validate(profile Profile) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(profileSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile profile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Profile"))

	value := ctx.Encode(profile)
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, errors.Details(err, nil))
	}
	return nil
}
