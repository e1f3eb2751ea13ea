package ctxutil

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if GetTraceData(ctx) != nil || GetIdentity(ctx) != nil {
		t.Fatalf("expected empty context")
	}
	ctx = WithTraceData(ctx, &TraceData{TraceID: "t", RequestID: "r"})
	ctx = WithIdentity(ctx, &Identity{UserID: "u1", Name: "Aoi"})
	if td := GetTraceData(ctx); td == nil || td.TraceID != "t" || td.RequestID != "r" {
		t.Fatalf("unexpected trace data: %+v", td)
	}
	if id := GetIdentity(ctx); id == nil || id.UserID != "u1" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}
