package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	t.Parallel()

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := WaitFor(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if err := WaitFor(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled for zero delay, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input  string
		limit  int
		expect string
	}{
		"non-positive limit":  {input: "audit", limit: 0, expect: ""},
		"fits":                {input: "audit", limit: 10, expect: "audit"},
		"cut":                 {input: "maturity audit", limit: 8, expect: "maturity..."},
		"flattens whitespace": {input: "  [Audit responses]\n- q1\n\n- q2  ", limit: 40, expect: "[Audit responses] - q1 - q2"},
		"counts runes":        {input: "Maturité élevée", limit: 8, expect: "Maturité..."},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := Preview(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
