package directory

import (
	"slices"

	"github.com/charlesshaw3/SimpleServers/internal/identity"
)

// playerSet accumulates known players, first seen wins. Players are keyed by identifier, falling back
// to the name, and indexed by name so runtime names can be matched to list entries.
type playerSet struct {
	players []identity.Player
	keys    map[string]int
	names   map[string]int
}

func newPlayerSet() *playerSet {
	return &playerSet{keys: map[string]int{}, names: map[string]int{}}
}

func (s *playerSet) add(player identity.Player) {
	player = identity.Resolve(player.Name, player.ID)
	if player.Name == "" {
		// An entry recorded with an identifier only.
		if identity.IsSynthetic(player.ID) {
			return
		}

		player.Name = player.ID
	}

	key := player.Key()
	if _, found := s.keys[key]; found {
		return
	}

	s.keys[key] = len(s.players)
	if _, found := s.names[identity.Key(player.Name)]; !found {
		s.names[identity.Key(player.Name)] = len(s.players)
	}

	s.players = append(s.players, player)
}

// addName adds a player only seen by name unless the name, or its synthesized identifier, is known.
func (s *playerSet) addName(name string) {
	name = identity.Name(name)
	if name == "" {
		return
	}

	if _, found := s.names[identity.Key(name)]; found {
		return
	}

	s.add(identity.Resolve(name, ""))
}

// byName returns the first known player with the given name, or a synthesized identity.
func (s *playerSet) byName(name string) identity.Player {
	if idx, found := s.names[identity.Key(name)]; found {
		return s.players[idx]
	}

	return identity.Resolve(name, "")
}

func (s *playerSet) sorted() []identity.Player {
	players := slices.Clone(s.players)
	if players == nil {
		players = []identity.Player{}
	}

	slices.SortStableFunc(players, comparePlayers)

	return players
}

// membership matches a player against a list by identifier or name.
type membership map[string]struct{}

func newMembership() membership {
	return membership{}
}

func (m membership) add(player identity.Player) {
	for _, raw := range []string{player.ID, player.Name} {
		if key := identity.Key(raw); key != "" {
			m[key] = struct{}{}
		}
	}
}

func (m membership) has(player identity.Player) bool {
	for _, raw := range []string{player.ID, player.Name} {
		if key := identity.Key(raw); key != "" {
			if _, found := m[key]; found {
				return true
			}
		}
	}

	return false
}
