package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"canceled", context.Canceled, KindCanceled},
		{"caller deadline", fmt.Errorf("dataset: %w", context.DeadlineExceeded), KindCanceled},
		{"provider timeout", fmt.Errorf("%w: match 7: %w", ErrDataProvider, context.DeadlineExceeded), KindDataProvider},
		{"generation timeout", fmt.Errorf("%w: %w", ErrGeneration, context.DeadlineExceeded), KindGeneration},
		{"unavailable", ErrDataUnavailable, KindDataUnavailable},
		{"session changed", ErrSessionChanged, KindInvalidRequest},
		{"unknown", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(context.Canceled); got != "" {
		t.Errorf("canceled message = %q, want empty", got)
	}
	if got := UserMessage(context.DeadlineExceeded); got != "The request took too long. Please retry." {
		t.Errorf("deadline message = %q", got)
	}
	if got := UserMessage(fmt.Errorf("ask: %w", ErrNoMatchSelected)); got != "Select a match first." {
		t.Errorf("no match message = %q", got)
	}
}
