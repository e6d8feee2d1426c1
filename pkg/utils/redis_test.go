package utils

import (
	"context"
	"testing"
	"time"
)

func TestDebounce_RejectsBadArgs(t *testing.T) {
	if _, err := Debounce(context.Background(), nil, "k", time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
