// Package ws implements the realtime transport: the subscription hub
// mapping rooms to connections, the JSON wire protocol, and the
// gateway that upgrades HTTP requests and dispatches client commands.
package ws
