// Package history defines the unified player event model shared by the runtime log extractor and the
// admin audit trail.
package history

import (
	"cmp"
	"slices"
	"time"
)

type Kind string

const (
	PlayerJoin       Kind = "player_join"
	PlayerLeave      Kind = "player_leave"
	PlayerDisconnect Kind = "player_disconnect"
	PlayerCommand    Kind = "player_command"
	OpAdd            Kind = "op_add"
	OpRemove         Kind = "op_remove"
	WhitelistAdd     Kind = "whitelist_add"
	WhitelistRemove  Kind = "whitelist_remove"
	PlayerBan        Kind = "player_ban"
	PlayerUnban      Kind = "player_unban"
	IPBan            Kind = "ip_ban"
	IPUnban          Kind = "ip_unban"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case PlayerJoin, PlayerLeave, PlayerDisconnect, PlayerCommand,
		OpAdd, OpRemove, WhitelistAdd, WhitelistRemove,
		PlayerBan, PlayerUnban, IPBan, IPUnban:
		return true
	default:
		return false
	}
}

type Origin string

const (
	Admin   Origin = "admin"
	Runtime Origin = "runtime"
)

// Event is immutable once created.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail"`
	Origin    Origin    `json:"origin"`
}

// NewestFirst stable sorts events by timestamp descending, in place.
func NewestFirst(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})
}

// Truncate returns at most limit events from the head of events. A limit <= 0 returns events unchanged.
func Truncate(events []Event, limit int) []Event {
	if limit <= 0 || len(events) <= limit {
		return events
	}

	return events[:limit]
}
