// Package client is the consumer side of the realtime protocol: a
// reconnecting WebSocket client that tracks wanted subscriptions
// locally, re-issues them after every reconnect, and reconciles pushed
// snapshots and deltas into a local view.
package client
