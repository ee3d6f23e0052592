// Package model holds the domain and wire record types shared by the
// realtime core: quotes, leaderboard members, snapshot diffs, and the
// order/portfolio payloads pushed to individual users.
package model
