// SPDX-License-Identifier: Apache-2.0

package render

import (
	"context"
	"time"
)

// SetSleep replaces the backoff sleep for testing.
func (r *Retrying) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	r.sleep = fn
}
