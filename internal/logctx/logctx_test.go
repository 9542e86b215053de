package logctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestHandler_AddsGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(New(slog.NewTextHandler(&buf, nil))).With("component", "test")

	ctx := WithRequestData(context.Background(), &RequestData{Method: "GET", URL: "http://x/users"})
	ctx = WithOperation(ctx, &OperationData{Name: "search", Resource: "users"})
	log.InfoContext(ctx, "hello")

	out := buf.String()
	for _, want := range []string{"component=test", "req.method=GET", "req.url=http://x/users", "op.name=search", "op.resource=users", "req.id="} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
	rd, ok := RequestFrom(ctx)
	if !ok || rd.RequestID == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestHandler_NoContextData(t *testing.T) {
	var buf bytes.Buffer
	slog.New(New(slog.NewTextHandler(&buf, nil))).Info("plain")
	if strings.Contains(buf.String(), "req.") {
		t.Fatalf("unexpected request attrs: %s", buf.String())
	}
}
