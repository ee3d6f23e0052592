// Package quote adapts the upstream price provider: a rate-limited
// HTTP client, a Redis-backed TTL cache in front of it, and a
// simulated random-walk source for development and tests.
package quote
