package goShield

import "context"

type userAgentContextKey struct{}
type requestIDContextKey struct{}

// WithUserAgent attaches the HTTP User-Agent string to ctx. The Engine
// copies it into security events and audit records so operators can
// correlate automated clients across sources.
//
//	Docs: docs/events.md
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithRequestID attaches the caller's request correlation ID to ctx. It is
// copied into security events and audit records emitted while handling
// that request.
//
//	Docs: docs/events.md
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}
