package common

import "context"

// ContextKey represents a context key type
type ContextKey string

const ContextKeyClientIP ContextKey = "client_ip"

// WithClientIP records the caller address used for rate limiting.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyClientIP, ip)
}

func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(ContextKeyClientIP).(string)
	return ip
}
