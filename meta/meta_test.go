package meta_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiancms/mediacore/meta"
)

func TestInject(t *testing.T) {
	tests := []struct {
		name   string
		data   map[meta.ContextKey]string
		key    meta.ContextKey
		expect string
		absent bool
	}{
		{
			name:   "single value",
			data:   map[meta.ContextKey]string{meta.TraceID: "abc-123"},
			key:    meta.TraceID,
			expect: "abc-123",
		},
		{
			name: "multiple values",
			data: map[meta.ContextKey]string{
				meta.TraceID:       "abc-123",
				meta.RequestUserID: "user-42",
			},
			key:    meta.RequestUserID,
			expect: "user-42",
		},
		{
			name:   "empty value skipped",
			data:   map[meta.ContextKey]string{meta.IPAddress: ""},
			key:    meta.IPAddress,
			absent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := meta.Inject(t.Context(), tt.data)

			v := ctx.Value(tt.key)
			if tt.absent {
				assert.Nil(t, v)
				return
			}
			require.NotNil(t, v)
			assert.Equal(t, tt.expect, v)
		})
	}
}

func TestExtract(t *testing.T) {
	ctx := meta.Inject(t.Context(), map[meta.ContextKey]string{
		meta.TraceID:         "trace-1",
		meta.RequestUserID:   "user-9",
		meta.RequestUserRole: "",
	})

	got := meta.Extract(ctx)

	assert.Equal(t, "trace-1", got[meta.TraceID])
	assert.Equal(t, "user-9", got[meta.RequestUserID])
	assert.NotContains(t, got, meta.RequestUserRole)
	assert.NotContains(t, got, meta.IPAddress)
}

func TestExtract_IgnoresForeignValues(t *testing.T) {
	type otherKey string
	ctx := context.WithValue(t.Context(), otherKey("trace_id"), "not-mine")

	got := meta.Extract(ctx)
	assert.Empty(t, got)
}

func TestFind(t *testing.T) {
	ctx := meta.Inject(t.Context(), map[meta.ContextKey]string{
		meta.RequestUserID: "user-7",
	})

	assert.Equal(t, "user-7", meta.Find(ctx, meta.RequestUserID))
	assert.Empty(t, meta.Find(ctx, meta.TraceID))
}

func TestServiceInfo(t *testing.T) {
	meta.SetServiceInfo("mediacore-test", "v1.2.3")
	// the second call must be a no-op
	meta.SetServiceInfo("other", "v9")

	assert.Equal(t, "mediacore-test", meta.GetServiceName())
	assert.Equal(t, "v1.2.3", meta.GetServiceVersion())
}
