package ratelimit

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// NopLimiter lets everything through. Used when rate limiting is disabled.
type NopLimiter struct{}

// Allow always permits the request.
func (NopLimiter) Allow(string) bool { return true }
