package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessorsDefaultToZero(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, UserAgent(ctx))
	assert.Equal(t, Endpoint{}, RequestEndpoint(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessorsRoundTrip(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := WithRequestID(context.Background(), "req-42")
	ctx = WithClientMetadata(ctx, "203.0.113.9", "curl/8.0")
	ctx = WithEndpoint(ctx, "GET", "/verifications")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, "req-42", RequestID(ctx))
	assert.Equal(t, "203.0.113.9", ClientIP(ctx))
	assert.Equal(t, "curl/8.0", UserAgent(ctx))
	assert.Equal(t, Endpoint{Method: "GET", Path: "/verifications"}, RequestEndpoint(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
