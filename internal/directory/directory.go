// Package directory reconciles the player lists, the runtime log and the admin audit trail of a server
// into a single player directory. Nothing is cached, every Build reads current state.
package directory

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/charlesshaw3/SimpleServers/internal/identity"
	"github.com/charlesshaw3/SimpleServers/internal/metrics"
	"github.com/charlesshaw3/SimpleServers/internal/playerlist"
	"github.com/charlesshaw3/SimpleServers/internal/runtimelog"
	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/charlesshaw3/SimpleServers/pkg/log"
	"github.com/gofrs/uuid/v5"
	"github.com/maruel/natural"
	"github.com/ryanuber/go-glob"
)

const (
	DefaultHistoryLimit = 150
	MaxHistoryLimit     = 1000
)

type Profile struct {
	Name          string     `json:"name"`
	ID            string     `json:"uuid"`
	IsOp          bool       `json:"is_op"`
	IsWhitelisted bool       `json:"is_whitelisted"`
	IsBanned      bool       `json:"is_banned"`
	LastSeenAt    *time.Time `json:"last_seen_at"`
	LastActionAt  *time.Time `json:"last_action_at"`
}

type Directory struct {
	Ops           []playerlist.Operator       `json:"ops"`
	Whitelist     []playerlist.WhitelistEntry `json:"whitelist"`
	BannedPlayers []playerlist.PlayerBan      `json:"banned_players"`
	BannedIPs     []playerlist.IPBan          `json:"banned_ips"`
	KnownPlayers  []identity.Player           `json:"known_players"`
	OnlinePlayers []identity.Player           `json:"online_players"`
	Capacity      int                         `json:"capacity"`
	Profiles      []Profile                   `json:"profiles"`
	History       []history.Event             `json:"history"`
}

// FilterProfiles keeps the profiles whose name matches the case-insensitive glob pattern. An empty
// pattern keeps everything.
func (d Directory) FilterProfiles(pattern string) Directory {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return d
	}

	filtered := make([]Profile, 0, len(d.Profiles))

	for _, profile := range d.Profiles {
		if glob.Glob(pattern, strings.ToLower(profile.Name)) {
			filtered = append(filtered, profile)
		}
	}

	d.Profiles = filtered

	return d
}

type ServerSource interface {
	Server(ctx context.Context, serverID uuid.UUID) (servers.Server, error)
}

type AuditSource interface {
	Recent(ctx context.Context, serverID uuid.UUID, limit int) ([]history.Event, error)
}

type Options struct {
	DefaultHistoryLimit int
	DefaultCapacity     int
	LogWindow           int64
}

type Builder struct {
	servers   ServerSource
	audit     AuditSource
	extractor runtimelog.Extractor
	opts      Options
}

func NewBuilder(registry ServerSource, audit AuditSource, extractor runtimelog.Extractor, opts Options) Builder {
	if opts.DefaultHistoryLimit <= 0 {
		opts.DefaultHistoryLimit = DefaultHistoryLimit
	}

	if opts.DefaultCapacity <= 0 {
		opts.DefaultCapacity = servers.DefaultCapacity
	}

	if opts.LogWindow <= 0 {
		opts.LogWindow = runtimelog.DefaultWindow
	}

	return Builder{servers: registry, audit: audit, extractor: extractor, opts: opts}
}

// Build resolves the server and returns its directory. Unknown servers fail with servers.ErrNotFound.
func (b Builder) Build(ctx context.Context, serverID uuid.UUID, historyLimit int) (Directory, error) {
	server, errServer := b.servers.Server(ctx, serverID)
	if errServer != nil {
		return Directory{}, errServer
	}

	return b.BuildFor(ctx, server, historyLimit), nil
}

// BuildFor builds the directory of an already resolved server. Every source degrades to empty data
// rather than failing.
func (b Builder) BuildFor(ctx context.Context, server servers.Server, historyLimit int) Directory {
	defer metrics.ObserveBuild(time.Now())

	limit := b.limit(historyLimit)
	store := playerlist.NewStore(server.RootPath)

	dir := Directory{
		Ops:           store.Operators(),
		Whitelist:     store.Whitelist(),
		BannedPlayers: store.PlayerBans(),
		BannedIPs:     store.IPBans(),
	}

	known := newPlayerSet()
	for _, entry := range dir.Ops {
		known.add(entry.Player())
	}

	for _, entry := range dir.Whitelist {
		known.add(entry.Player())
	}

	for _, entry := range dir.BannedPlayers {
		known.add(entry.Player())
	}

	adminEvents, errAudit := b.audit.Recent(ctx, server.ServerID, limit)
	if errAudit != nil {
		slog.Warn("Admin history unavailable", slog.String("server", server.Name), log.ErrAttr(errAudit))
		metrics.DegradedRead("audit")

		adminEvents = []history.Event{}
	}

	runtime := b.extractor.Extract(runtimelog.ReadWindow(server.LogPath(), b.opts.LogWindow), limit)

	for _, event := range runtime.Events {
		known.addName(event.Subject)
	}

	for _, name := range runtime.Online {
		known.addName(name)
	}

	merged := make([]history.Event, 0, len(adminEvents)+len(runtime.Events))
	merged = append(merged, adminEvents...)
	merged = append(merged, runtime.Events...)
	history.NewestFirst(merged)
	dir.History = history.Truncate(merged, limit)

	dir.KnownPlayers = known.sorted()

	dir.OnlinePlayers = make([]identity.Player, 0, len(runtime.Online))
	for _, name := range runtime.Online {
		dir.OnlinePlayers = append(dir.OnlinePlayers, known.byName(name))
	}

	slices.SortStableFunc(dir.OnlinePlayers, comparePlayers)

	ops, whitelisted, banned := newMembership(), newMembership(), newMembership()
	for _, entry := range dir.Ops {
		ops.add(entry.Player())
	}

	for _, entry := range dir.Whitelist {
		whitelisted.add(entry.Player())
	}

	for _, entry := range dir.BannedPlayers {
		banned.add(entry.Player())
	}

	dir.Profiles = make([]Profile, 0, len(dir.KnownPlayers))
	for _, player := range dir.KnownPlayers {
		dir.Profiles = append(dir.Profiles, Profile{
			Name:          player.Name,
			ID:            player.ID,
			IsOp:          ops.has(player),
			IsWhitelisted: whitelisted.has(player),
			IsBanned:      banned.has(player),
			LastSeenAt:    latest(runtime.Events, func(subject string) bool { return identity.Key(subject) == identity.Key(player.Name) }),
			LastActionAt:  latest(adminEvents, player.Matches),
		})
	}

	dir.Capacity = servers.Capacity(server.ConfigPath(), b.opts.DefaultCapacity)

	return dir
}

func (b Builder) limit(requested int) int {
	switch {
	case requested <= 0:
		return b.opts.DefaultHistoryLimit
	case requested > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return requested
	}
}

// latest returns the timestamp of the most recent event whose subject satisfies match.
func latest(events []history.Event, match func(subject string) bool) *time.Time {
	var found *time.Time

	for _, event := range events {
		if !match(event.Subject) {
			continue
		}

		if found == nil || event.Timestamp.After(*found) {
			timestamp := event.Timestamp
			found = &timestamp
		}
	}

	return found
}

// comparePlayers orders by natural name order then identifier.
func comparePlayers(a, b identity.Player) int {
	switch {
	case natural.Less(a.Name, b.Name):
		return -1
	case natural.Less(b.Name, a.Name):
		return 1
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}
