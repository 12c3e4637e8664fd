// Package middleware provides HTTP middleware for the kubectl gateway:
// request IDs, per-client rate limiting, request metrics, security headers
// and CORS.
package middleware
