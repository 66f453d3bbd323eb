// Package utils holds small helpers shared by the AI client code.
package utils

import (
	"context"
	"strings"
	"time"
)

// WaitFor blocks for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Preview flattens s to one line and keeps at most limit runes of it, marking
// a cut with an ellipsis. It is meant for log fields carrying prompts.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	flat := strings.Join(strings.Fields(s), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}
