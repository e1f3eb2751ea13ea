package observability

import "testing"

func TestOtelSampleRatioClamps(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "4")
	if got := otelSampleRatio(); got != 1 {
		t.Fatalf("got=%v want=1", got)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "-1")
	if got := otelSampleRatio(); got != 0 {
		t.Fatalf("got=%v want=0", got)
	}
}

func TestOtelHeadersParsing(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api=abc, broken ,y=")
	h := otelHeaders()
	if len(h) != 1 || h["x-api"] != "abc" {
		t.Fatalf("unexpected headers: %v", h)
	}
}
