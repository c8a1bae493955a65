// Package meta carries request-scoped metadata through context and holds
// the global service identity.
package meta

import "context"

// ContextKey is a type for keys used in context values for metadata.
type ContextKey string

const (
	// TraceID represents a unique identifier for tracing requests across services.
	TraceID ContextKey = "trace_id"

	// RequestUserID identifies the user performing the operation.
	// File records store it as the uploader when the caller did not set one.
	RequestUserID ContextKey = "request_user_id"

	// RequestUserRole indicates the current role of the acting user.
	RequestUserRole ContextKey = "request_user_role"

	// IPAddress contains the client's IP address.
	IPAddress ContextKey = "ip_address"

	// ServiceName identifies the name of the current running service.
	ServiceName ContextKey = "service_name"

	// ServiceVersion indicates the version of the service.
	ServiceVersion ContextKey = "service_version"
)

// allKeys lists every key Extract looks up. Keep in sync with the consts above.
var allKeys = []ContextKey{ //nolint:gochecknoglobals // finite fixed key set
	TraceID,
	RequestUserID,
	RequestUserRole,
	IPAddress,
	ServiceName,
	ServiceVersion,
}

// Inject adds metadata from the provided map to the context.
// Empty values are skipped. Returns a new context with the added values.
func Inject(ctx context.Context, data map[ContextKey]string) context.Context {
	for k, v := range data {
		if v != "" {
			ctx = context.WithValue(ctx, k, v) //nolint:fatcontext // finite number of keys
		}
	}
	return ctx
}

// Extract collects all metadata present in the context.
// Only non-empty string values are included in the returned map.
func Extract(ctx context.Context) map[ContextKey]string {
	data := make(map[ContextKey]string)
	for _, k := range allKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			data[k] = v
		}
	}
	return data
}

// Find returns the value for a single metadata key, or "" when absent.
func Find(ctx context.Context, key ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
