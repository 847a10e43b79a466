// Package context carries per-request values (tracing, tenant) through call chains.
package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext contains request tracing information.
type TraceContext struct {
	RequestID string
	SessionID string
}

type traceContextKey struct{}
type tenantCodeKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext creates a new TraceContext with generated IDs.
func NewTraceContext() *TraceContext {
	return &TraceContext{
		RequestID: uuid.New().String(),
		SessionID: uuid.New().String(),
	}
}

// WithTenantCode records the tenant code a request is acting for.
// Used for log enrichment only; authorization is out of scope.
func WithTenantCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, tenantCodeKey{}, code)
}

// GetTenantCode returns the tenant code from context or empty string.
func GetTenantCode(ctx context.Context) string {
	if v, ok := ctx.Value(tenantCodeKey{}).(string); ok {
		return v
	}
	return ""
}
