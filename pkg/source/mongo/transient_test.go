package mongo

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/matzehuels/flat/pkg/retry"
)

func TestTransient(t *testing.T) {
	wrapped := stderrors.New("query zoo.animals")

	tests := []struct {
		name      string
		cause     error
		retryable bool
	}{
		{"bad filter", stderrors.New("unknown operator: $regexx"), false},
		{"deadline", context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transient(wrapped, tt.cause)
			if retry.IsRetryable(got) != tt.retryable {
				t.Errorf("transient(%v) retryable = %v, want %v", tt.cause, !tt.retryable, tt.retryable)
			}
			if !stderrors.Is(got, wrapped) {
				t.Errorf("transient() = %v, want it to wrap %v", got, wrapped)
			}
		})
	}
}
