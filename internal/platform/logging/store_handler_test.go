package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/go-async-context/internal/platform/asynccontext"
)

func newTestStore(t *testing.T) (*asynccontext.Registry, *int) {
	t.Helper()

	misses := 0
	r := asynccontext.NewRegistry("logging-test", asynccontext.Values{"correlationId": ""}, func(context.Context, error) {
		misses++
	})

	return r, &misses
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	return entry
}

func TestStoreHandler_AddsStoreValuesInsideScope(t *testing.T) {
	r, misses := newTestStore(t)

	var buf bytes.Buffer
	logger := slog.New(NewStoreHandler(slog.NewJSONHandler(&buf, nil), r.Accessor()))

	asynccontext.RunWithinScope(context.Background(), r, asynccontext.Values{"correlationId": "corr-789", "requestId": "req-1"},
		func(ctx context.Context) struct{} {
			logger.InfoContext(ctx, "inside scope")
			return struct{}{}
		})

	entry := decodeLine(t, &buf)
	group, ok := entry[StoreGroup].(map[string]any)
	require.True(t, ok, "missing %q group in %v", StoreGroup, entry)
	assert.Equal(t, "corr-789", group["correlationId"])
	assert.Equal(t, "req-1", group["requestId"])
	assert.Equal(t, 0, *misses)
}

func TestStoreHandler_OutsideScopePassesThrough(t *testing.T) {
	r, misses := newTestStore(t)

	var buf bytes.Buffer
	logger := slog.New(NewStoreHandler(slog.NewJSONHandler(&buf, nil), r.Accessor()))

	logger.InfoContext(context.Background(), "outside scope")

	entry := decodeLine(t, &buf)
	assert.NotContains(t, entry, StoreGroup)
	assert.Equal(t, 0, *misses, "logging must not count as a read")
}

func TestStoreHandler_WithAttrsAndGroupKeepStore(t *testing.T) {
	r, _ := newTestStore(t)

	var buf bytes.Buffer
	logger := slog.New(NewStoreHandler(slog.NewJSONHandler(&buf, nil), r.Accessor())).
		With(slog.String("component", "test")).
		WithGroup("req")

	asynccontext.RunWithinScope(context.Background(), r, asynccontext.Values{"correlationId": "grouped"},
		func(ctx context.Context) struct{} {
			logger.InfoContext(ctx, "grouped", slog.String("path", "/x"))
			return struct{}{}
		})

	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.Contains(t, buf.String(), "grouped")
	assert.Contains(t, buf.String(), `"path":"/x"`)
}

func TestNewWithWriter_StoreValuesAreRedacted(t *testing.T) {
	r, _ := newTestStore(t)

	var buf bytes.Buffer
	logger := NewWithWriter(&Config{
		Level:   "info",
		Format:  "json",
		Service: "test-service",
		Version: "1.0.0",
		Store:   r.Accessor(),
	}, &buf)

	asynccontext.RunWithinScope(context.Background(), r,
		asynccontext.Values{"correlationId": "visible-id", "token": "super-secret"},
		func(ctx context.Context) struct{} {
			logger.InfoContext(ctx, "with store")
			return struct{}{}
		})

	output := buf.String()
	assert.Contains(t, output, "visible-id")
	assert.NotContains(t, output, "super-secret")
	assert.Contains(t, output, "test-service")
}

func TestNewMissingReadHook(t *testing.T) {
	tests := []struct {
		name      string
		policy    string
		expectLog bool
		level     string
	}{
		{name: "warn logs at warn", policy: "warn", expectLog: true, level: "WARN"},
		{name: "error logs at error", policy: "error", expectLog: true, level: "ERROR"},
		{name: "ignore is silent", policy: "ignore", expectLog: false},
		{name: "debug below logger level is silent", policy: "debug", expectLog: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			ctx := WithContext(context.Background(), logger)

			acc, _ := asynccontext.New("hooked", asynccontext.Values{"correlationId": "fallback"}, NewMissingReadHook(tt.policy))

			assert.Equal(t, "fallback", acc.Get(ctx, "correlationId"))

			if !tt.expectLog {
				assert.Empty(t, buf.String())
				return
			}

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "hooked", entry["registry"])
			assert.Equal(t, "correlationId", entry["key"])
			assert.Contains(t, entry["error"], "store undefined when getting a value")
		})
	}
}
