package request_id

import (
	"context"

	"github.com/google/uuid"
)

const RequestIDKey = "x-request-id"

func Set(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func Get(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Ensure returns ctx unchanged if it already carries a request id,
// otherwise a child context with a freshly minted one.
func Ensure(ctx context.Context) context.Context {
	if Get(ctx) != "" {
		return ctx
	}
	return Set(ctx, uuid.New().String())
}
