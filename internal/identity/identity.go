// Package identity canonicalizes player names and identifiers so the same player can be matched across
// the operator, whitelist and ban lists as well as the runtime log.
package identity

import (
	"strings"
)

const (
	syntheticPrefix = "offline-"
	syntheticEmpty  = "player"
)

// Player is a name/identifier pair. ID is never empty once produced by Resolve.
type Player struct {
	Name string `json:"name"`
	ID   string `json:"uuid"`
}

// Key returns the comparison key for a name or identifier.
func Key(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Name returns the display form of a name.
func Name(raw string) string {
	return strings.TrimSpace(raw)
}

// Synthesize derives the stable fallback identifier used for players that have never been recorded
// with a real one. It is deterministic and idempotent for a given name.
func Synthesize(name string) string {
	var builder strings.Builder

	for _, char := range strings.ToLower(name) {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '_' {
			builder.WriteRune(char)
		}
	}

	if builder.Len() == 0 {
		return syntheticPrefix + syntheticEmpty
	}

	return syntheticPrefix + builder.String()
}

// IsSynthetic reports whether id was produced by Synthesize.
func IsSynthetic(id string) bool {
	return strings.HasPrefix(id, syntheticPrefix)
}

// Resolve trims both inputs and fills in a synthesized identifier when none was supplied.
func Resolve(name string, id string) Player {
	player := Player{Name: Name(name), ID: strings.TrimSpace(id)}
	if player.ID == "" {
		player.ID = Synthesize(player.Name)
	}

	return player
}

// Key returns the identity key for the player, preferring the identifier over the name.
func (p Player) Key() string {
	if key := Key(p.ID); key != "" {
		return key
	}

	return Key(p.Name)
}

// Matches reports whether the raw target refers to this player by either identifier or name.
func (p Player) Matches(target string) bool {
	key := Key(target)
	if key == "" {
		return false
	}

	return Key(p.ID) == key || Key(p.Name) == key
}
