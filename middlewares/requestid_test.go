package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/internal"
	"github.com/dmitrymomot/tela/middlewares"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	fixed := middlewares.WithRequestIDGenerator(func() string { return "generated" })

	tests := []struct {
		name    string
		headers map[string]string
		opts    []middlewares.RequestIDOption
		want    string
		echo    string
	}{
		{"generated when absent", nil, nil, "", "X-Request-ID"},
		{"custom generator", nil, []middlewares.RequestIDOption{fixed}, "generated", "X-Request-ID"},
		{"upstream id kept", map[string]string{"X-Request-ID": "req-42"}, nil, "req-42", "X-Request-ID"},
		{"correlation id fallback", map[string]string{"X-Correlation-ID": "corr-7"}, nil, "corr-7", "X-Request-ID"},
		{"first header wins", map[string]string{"X-Request-ID": "a", "X-Correlation-ID": "b"}, nil, "a", "X-Request-ID"},
		{"spaces rejected", map[string]string{"X-Request-ID": "a b"}, []middlewares.RequestIDOption{fixed}, "generated", "X-Request-ID"},
		{"too long rejected", map[string]string{"X-Request-ID": strings.Repeat("x", 129)}, []middlewares.RequestIDOption{fixed}, "generated", "X-Request-ID"},
		{
			"custom headers",
			map[string]string{"X-Trace-ID": "trace-1", "X-Request-ID": "ignored"},
			[]middlewares.RequestIDOption{middlewares.WithRequestIDHeaders("X-Amzn-Trace-Id", "X-Trace-ID")},
			"trace-1",
			"X-Amzn-Trace-Id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/user", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			ctx := newTestContext(rec, req)

			var seen string
			err := middlewares.RequestID(tt.opts...)(func(c internal.Context) error {
				seen = internal.RequestID(c)
				return nil
			})(ctx)
			require.NoError(t, err)

			require.NotEmpty(t, seen)
			if tt.want != "" {
				assert.Equal(t, tt.want, seen)
			}
			assert.Equal(t, seen, rec.Header().Get(tt.echo))
		})
	}
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	extract := middlewares.RequestIDExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	ctx := newTestContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, middlewares.RequestID()(func(internal.Context) error { return nil })(ctx))

	attr, ok := extract(ctx.Context())
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, internal.RequestID(ctx), attr.Value.String())
}
