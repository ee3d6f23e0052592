// Package broadcast drives server-side pushes: a periodic scheduler
// that polls every watched resource and emits snapshots or deltas to
// its room, plus a synchronous emitter for immediate trade, reaction,
// and membership notifications. Milestone and rank-change detection
// lives here as pure functions over consecutive snapshots.
package broadcast
