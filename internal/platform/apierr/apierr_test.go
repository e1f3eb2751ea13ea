package apierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestAsFindsWrappedError(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("handler: %w", New(502, "generation_failed", base))
	ae, ok := As(err)
	if !ok {
		t.Fatalf("expected apierr in chain")
	}
	if ae.Status != 502 || ae.Code != "generation_failed" {
		t.Fatalf("unexpected error: %+v", ae)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected Unwrap to reach base error")
	}
	if ae.Error() != "boom" {
		t.Fatalf("unexpected message %q", ae.Error())
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if got := New(404, "not_found", nil).Error(); got != "not_found" {
		t.Fatalf("got %q", got)
	}
	if got := New(500, "", nil).Error(); got != "api error (500)" {
		t.Fatalf("got %q", got)
	}
}
