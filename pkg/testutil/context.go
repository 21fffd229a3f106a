package testutil

import (
	"context"
	"time"

	"pinpool/pkg/requestcontext"
)

// RequestContext returns a context carrying the request ID and request clock
// that the RequestID and requesttime middleware would install.
func RequestContext(requestID string, now time.Time) context.Context {
	ctx := requestcontext.WithRequestID(context.Background(), requestID)
	return requestcontext.WithTime(ctx, now)
}
