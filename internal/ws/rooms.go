package ws

import (
	"regexp"
	"strconv"
	"strings"
)

// Room kinds. A room is the set of connections subscribed to one
// resource; keys look like "stock:AAPL", "leaderboard:42", "user:7".
const (
	KindStock       = "stock"
	KindLeaderboard = "leaderboard"
	KindUser        = "user"
)

var symbolRE = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// ValidSymbol reports whether s looks like a tradable ticker symbol.
func ValidSymbol(s string) bool {
	return symbolRE.MatchString(s)
}

// StockRoom returns the room key for a stock symbol.
func StockRoom(symbol string) string {
	return KindStock + ":" + strings.ToUpper(symbol)
}

// LeaderboardRoom returns the room key for a league leaderboard.
func LeaderboardRoom(leagueID int64) string {
	return KindLeaderboard + ":" + strconv.FormatInt(leagueID, 10)
}

// UserRoom returns the per-user room key used for order and portfolio
// pushes.
func UserRoom(userID int64) string {
	return KindUser + ":" + strconv.FormatInt(userID, 10)
}

// SplitRoom splits a room key into kind and resource key. Unknown or
// malformed keys return ("", "").
func SplitRoom(room string) (kind, key string) {
	idx := strings.Index(room, ":")
	if idx <= 0 || idx == len(room)-1 {
		return "", ""
	}
	kind = room[:idx]
	key = room[idx+1:]
	switch kind {
	case KindStock, KindLeaderboard, KindUser:
		return kind, key
	default:
		return "", ""
	}
}

// RoomLeagueID extracts the league id from a leaderboard room key.
func RoomLeagueID(room string) (int64, bool) {
	kind, key := SplitRoom(room)
	if kind != KindLeaderboard {
		return 0, false
	}
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// RoomSymbol extracts the symbol from a stock room key.
func RoomSymbol(room string) (string, bool) {
	kind, key := SplitRoom(room)
	if kind != KindStock || !ValidSymbol(key) {
		return "", false
	}
	return key, true
}
