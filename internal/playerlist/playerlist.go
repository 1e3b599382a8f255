// Package playerlist reads and writes the four authoritative player list files kept in a server root:
// operators, whitelist, player bans and IP bans. Each file is a JSON array that is always rewritten in
// full.
package playerlist

import (
	"strings"

	"github.com/charlesshaw3/SimpleServers/internal/identity"
)

type File string

const (
	OperatorsFile   File = "ops.json"
	WhitelistFile   File = "whitelist.json"
	PlayerBansFile  File = "banned-players.json"
	IPBansFile      File = "banned-ips.json"
	ExpiresForever       = "forever"
	MinOperatorLevel     = 1
	MaxOperatorLevel     = 4
)

// Files lists every list file in load order.
func Files() []File {
	return []File{OperatorsFile, WhitelistFile, PlayerBansFile, IPBansFile}
}

type Operator struct {
	UUID                string `json:"uuid"`
	Name                string `json:"name"`
	Level               int    `json:"level"`
	BypassesPlayerLimit bool   `json:"bypassesPlayerLimit"`
}

func (o Operator) Player() identity.Player {
	return identity.Player{Name: o.Name, ID: o.UUID}
}

type WhitelistEntry struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

func (w WhitelistEntry) Player() identity.Player {
	return identity.Player{Name: w.Name, ID: w.UUID}
}

type PlayerBan struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	Created string `json:"created"`
	Source  string `json:"source"`
	Expires string `json:"expires"`
	Reason  string `json:"reason"`
}

func (b PlayerBan) Player() identity.Player {
	return identity.Player{Name: b.Name, ID: b.UUID}
}

type IPBan struct {
	IP      string `json:"ip"`
	Created string `json:"created"`
	Source  string `json:"source"`
	Expires string `json:"expires"`
	Reason  string `json:"reason"`
}

// PlayerEntry is implemented by the entries that identify a player.
type PlayerEntry interface {
	Operator | WhitelistEntry | PlayerBan
	Player() identity.Player
}

// Without returns the entries whose identifier or name does not match any of the given raw keys.
// Blank keys match nothing.
func Without[T PlayerEntry](entries []T, keys ...string) []T {
	var wanted []string

	for _, key := range keys {
		if normalized := identity.Key(key); normalized != "" {
			wanted = append(wanted, normalized)
		}
	}

	kept := make([]T, 0, len(entries))

	for _, entry := range entries {
		player := entry.Player()
		idKey, nameKey := identity.Key(player.ID), identity.Key(player.Name)
		matched := false

		for _, key := range wanted {
			if key == idKey || key == nameKey {
				matched = true

				break
			}
		}

		if !matched {
			kept = append(kept, entry)
		}
	}

	return kept
}

// WithoutIP returns the bans whose address does not equal ip once both are trimmed.
func WithoutIP(entries []IPBan, ip string) []IPBan {
	target := strings.TrimSpace(ip)
	kept := make([]IPBan, 0, len(entries))

	for _, entry := range entries {
		if strings.TrimSpace(entry.IP) != target {
			kept = append(kept, entry)
		}
	}

	return kept
}

// ClampLevel keeps an operator permission level inside the accepted range. Zero selects the maximum.
func ClampLevel(level int) int {
	switch {
	case level == 0:
		return MaxOperatorLevel
	case level < MinOperatorLevel:
		return MinOperatorLevel
	case level > MaxOperatorLevel:
		return MaxOperatorLevel
	default:
		return level
	}
}
