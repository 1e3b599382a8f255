// Package playeradmin is the only path for changing a server's operator, whitelist and ban lists.
// Every successful change rewrites the full list file, then records one audit event, then fans out
// to the optional notification and live console channels.
package playeradmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charlesshaw3/SimpleServers/internal/clock"
	"github.com/charlesshaw3/SimpleServers/internal/directory"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/charlesshaw3/SimpleServers/internal/identity"
	"github.com/charlesshaw3/SimpleServers/internal/metrics"
	"github.com/charlesshaw3/SimpleServers/internal/playerlist"
	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/charlesshaw3/SimpleServers/pkg/log"
	"github.com/gofrs/uuid/v5"
)

const (
	DefaultSource       = "SimpleServers"
	DefaultBanReason    = "Banned by operator"
	DefaultIPBanReason  = "IP banned by operator"
	ApplyHistoryLimit   = 200
	createdLayout       = "2006-01-02T15:04:05.000Z07:00"
	detailOpRemove      = "Removed operator"
	detailWhitelistAdd  = "Added to whitelist"
	detailWhitelistDel  = "Removed from whitelist"
	detailPlayerUnban   = "Player unbanned"
	detailIPUnban       = "IP unbanned"
	detailOpAddTemplate = "Added operator (level %d)"
)

var ErrSave = errors.New("failed to save player list")

type Recorder interface {
	Record(ctx context.Context, serverID uuid.UUID, kind history.Kind, subject string, detail string) error
}

type Notifier interface {
	Notify(ctx context.Context, server servers.Server, event history.Event) error
}

type Console interface {
	Exec(ctx context.Context, server servers.Server, commands ...string) error
}

type Options struct {
	// Source is stamped on new ban entries.
	Source string
}

type Gateway struct {
	servers  directory.ServerSource
	recorder Recorder
	builder  directory.Builder
	clock    clock.Clock
	notifier Notifier
	console  Console
	opts     Options
}

// NewGateway wires the gateway. notifier and console may be nil.
func NewGateway(registry directory.ServerSource, recorder Recorder, builder directory.Builder, clk clock.Clock,
	notifier Notifier, console Console, opts Options,
) Gateway {
	if strings.TrimSpace(opts.Source) == "" {
		opts.Source = DefaultSource
	}

	return Gateway{
		servers:  registry,
		recorder: recorder,
		builder:  builder,
		clock:    clk,
		notifier: notifier,
		console:  console,
		opts:     opts,
	}
}

// GetDirectory is the read only view of a server's players.
func (g Gateway) GetDirectory(ctx context.Context, serverID uuid.UUID, historyLimit int) (directory.Directory, error) {
	return g.builder.Build(ctx, serverID, historyLimit)
}

// Apply performs the action and returns the rebuilt directory.
func (g Gateway) Apply(ctx context.Context, serverID uuid.UUID, action Action) (directory.Directory, error) {
	server, errServer := g.servers.Server(ctx, serverID)
	if errServer != nil {
		return directory.Directory{}, errServer
	}

	var errApply error

	switch act := action.(type) {
	case Op:
		_, errApply = g.addOperator(ctx, server, act)
	case Deop:
		_, errApply = g.removeOperator(ctx, server, act.Target)
	case Whitelist:
		_, errApply = g.addToWhitelist(ctx, server, act)
	case Unwhitelist:
		_, errApply = g.removeFromWhitelist(ctx, server, act.Target)
	case Ban:
		_, errApply = g.banPlayer(ctx, server, act)
	case Unban:
		_, errApply = g.unbanPlayer(ctx, server, act.Target)
	case BanIP:
		_, errApply = g.banIP(ctx, server, act)
	case UnbanIP:
		_, errApply = g.unbanIP(ctx, server, act.IP)
	default:
		return directory.Directory{}, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}

	if errApply != nil {
		return directory.Directory{}, errApply
	}

	return g.builder.BuildFor(ctx, server, ApplyHistoryLimit), nil
}

func (g Gateway) AddOperator(ctx context.Context, serverID uuid.UUID, op Op) ([]playerlist.Operator, error) {
	server, errServer := g.servers.Server(ctx, serverID)
	if errServer != nil {
		return nil, errServer
	}

	return g.addOperator(ctx, server, op)
}

func (g Gateway) RemoveOperator(ctx context.Context, serverID uuid.UUID, target string) ([]playerlist.Operator, error) {
	server, errServer := g.servers.Server(ctx, serverID)
	if errServer != nil {
		return nil, errServer
	}

	return g.removeOperator(ctx, server, target)
}

func (g Gateway) AddToWhitelist(ctx context.Context, serverID uuid.UUID, entry Whitelist) ([]playerlist.WhitelistEntry, error) {
	server, errServer := g.servers.Server(ctx, serverID)
	if errServer != nil {
		return nil, errServer
	}

	return g.addToWhitelist(ctx, server, entry)
}

func (g Gateway) RemoveFromWhitelist(ctx context.Context, serverID uuid.UUID, target string) ([]playerlist.WhitelistEntry, error) {
	server, errServer := g.servers.Server(ctx, serverID)
	if errServer != nil {
		return nil, errServer
	}

	return g.removeFromWhitelist(ctx, server, target)
}

func (g Gateway) BanPlayer(ctx context.Context, serverID uuid.UUID, ban Ban) ([]playerlist.PlayerBan, error) {
	server, errServer := g.servers.Server(ctx, serverID)
	if errServer != nil {
		return nil, errServer
	}

	return g.banPlayer(ctx, server, ban)
}

func (g Gateway) UnbanPlayer(ctx context.Context, serverID uuid.UUID, target string) ([]playerlist.PlayerBan, error) {
	server, errServer := g.servers.Server(ctx, serverID)
	if errServer != nil {
		return nil, errServer
	}

	return g.unbanPlayer(ctx, server, target)
}

func (g Gateway) BanIP(ctx context.Context, serverID uuid.UUID, ban BanIP) ([]playerlist.IPBan, error) {
	server, errServer := g.servers.Server(ctx, serverID)
	if errServer != nil {
		return nil, errServer
	}

	return g.banIP(ctx, server, ban)
}

func (g Gateway) UnbanIP(ctx context.Context, serverID uuid.UUID, address string) ([]playerlist.IPBan, error) {
	server, errServer := g.servers.Server(ctx, serverID)
	if errServer != nil {
		return nil, errServer
	}

	return g.unbanIP(ctx, server, address)
}

func (g Gateway) addOperator(ctx context.Context, server servers.Server, op Op) ([]playerlist.Operator, error) {
	player := resolvePlayer(op.Name, op.ID)
	level := playerlist.ClampLevel(op.Level)

	bypass := true
	if op.BypassesPlayerLimit != nil {
		bypass = *op.BypassesPlayerLimit
	}

	store := playerlist.NewStore(server.RootPath)
	entries := append(playerlist.Without(store.Operators(), player.ID, player.Name), playerlist.Operator{
		UUID:                player.ID,
		Name:                player.Name,
		Level:               level,
		BypassesPlayerLimit: bypass,
	})

	if errSave := store.SaveOperators(entries); errSave != nil {
		return nil, failed(ActionOp, errSave)
	}

	g.committed(ctx, server, ActionOp, change{
		kind:     history.OpAdd,
		subject:  player.Name,
		detail:   fmt.Sprintf(detailOpAddTemplate, level),
		commands: []string{command("op", player.Name)},
	})

	return entries, nil
}

func (g Gateway) removeOperator(ctx context.Context, server servers.Server, target string) ([]playerlist.Operator, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrEmptyTarget
	}

	store := playerlist.NewStore(server.RootPath)
	current := store.Operators()
	entries := playerlist.Without(current, target)

	if errSave := store.SaveOperators(entries); errSave != nil {
		return nil, failed(ActionDeop, errSave)
	}

	g.committed(ctx, server, ActionDeop, change{
		kind:     history.OpRemove,
		subject:  target,
		detail:   detailOpRemove,
		commands: commands("deop", removedNames(current, target)),
	})

	return entries, nil
}

func (g Gateway) addToWhitelist(ctx context.Context, server servers.Server, entry Whitelist) ([]playerlist.WhitelistEntry, error) {
	player := resolvePlayer(entry.Name, entry.ID)

	store := playerlist.NewStore(server.RootPath)
	entries := append(playerlist.Without(store.Whitelist(), player.ID, player.Name), playerlist.WhitelistEntry{
		UUID: player.ID,
		Name: player.Name,
	})

	if errSave := store.SaveWhitelist(entries); errSave != nil {
		return nil, failed(ActionWhitelist, errSave)
	}

	g.committed(ctx, server, ActionWhitelist, change{
		kind:     history.WhitelistAdd,
		subject:  player.Name,
		detail:   detailWhitelistAdd,
		commands: []string{command("whitelist add", player.Name)},
	})

	return entries, nil
}

func (g Gateway) removeFromWhitelist(ctx context.Context, server servers.Server, target string) ([]playerlist.WhitelistEntry, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrEmptyTarget
	}

	store := playerlist.NewStore(server.RootPath)
	current := store.Whitelist()
	entries := playerlist.Without(current, target)

	if errSave := store.SaveWhitelist(entries); errSave != nil {
		return nil, failed(ActionUnwhitelist, errSave)
	}

	g.committed(ctx, server, ActionUnwhitelist, change{
		kind:     history.WhitelistRemove,
		subject:  target,
		detail:   detailWhitelistDel,
		commands: commands("whitelist remove", removedNames(current, target)),
	})

	return entries, nil
}

func (g Gateway) banPlayer(ctx context.Context, server servers.Server, ban Ban) ([]playerlist.PlayerBan, error) {
	player := resolvePlayer(ban.Name, ban.ID)
	reason := orDefault(ban.Reason, DefaultBanReason)

	store := playerlist.NewStore(server.RootPath)
	entries := append(playerlist.Without(store.PlayerBans(), player.ID, player.Name), playerlist.PlayerBan{
		UUID:    player.ID,
		Name:    player.Name,
		Created: g.created(),
		Source:  g.opts.Source,
		Expires: orDefault(ban.Expires, playerlist.ExpiresForever),
		Reason:  reason,
	})

	if errSave := store.SavePlayerBans(entries); errSave != nil {
		return nil, failed(ActionBan, errSave)
	}

	g.committed(ctx, server, ActionBan, change{
		kind:     history.PlayerBan,
		subject:  player.Name,
		detail:   reason,
		commands: []string{command("ban", player.Name, reason)},
	})

	return entries, nil
}

func (g Gateway) unbanPlayer(ctx context.Context, server servers.Server, target string) ([]playerlist.PlayerBan, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrEmptyTarget
	}

	store := playerlist.NewStore(server.RootPath)
	current := store.PlayerBans()
	entries := playerlist.Without(current, target)

	if errSave := store.SavePlayerBans(entries); errSave != nil {
		return nil, failed(ActionUnban, errSave)
	}

	g.committed(ctx, server, ActionUnban, change{
		kind:     history.PlayerUnban,
		subject:  target,
		detail:   detailPlayerUnban,
		commands: commands("pardon", removedNames(current, target)),
	})

	return entries, nil
}

func (g Gateway) banIP(ctx context.Context, server servers.Server, ban BanIP) ([]playerlist.IPBan, error) {
	address := strings.TrimSpace(ban.IP)
	if address == "" {
		return nil, ErrEmptyTarget
	}

	reason := orDefault(ban.Reason, DefaultIPBanReason)

	store := playerlist.NewStore(server.RootPath)
	entries := append(playerlist.WithoutIP(store.IPBans(), address), playerlist.IPBan{
		IP:      address,
		Created: g.created(),
		Source:  g.opts.Source,
		Expires: orDefault(ban.Expires, playerlist.ExpiresForever),
		Reason:  reason,
	})

	if errSave := store.SaveIPBans(entries); errSave != nil {
		return nil, failed(ActionBanIP, errSave)
	}

	g.committed(ctx, server, ActionBanIP, change{
		kind:     history.IPBan,
		subject:  address,
		detail:   reason,
		commands: []string{command("ban-ip", address, reason)},
	})

	return entries, nil
}

func (g Gateway) unbanIP(ctx context.Context, server servers.Server, address string) ([]playerlist.IPBan, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyTarget
	}

	store := playerlist.NewStore(server.RootPath)
	entries := playerlist.WithoutIP(store.IPBans(), address)

	if errSave := store.SaveIPBans(entries); errSave != nil {
		return nil, failed(ActionUnbanIP, errSave)
	}

	g.committed(ctx, server, ActionUnbanIP, change{
		kind:     history.IPUnban,
		subject:  address,
		detail:   detailIPUnban,
		commands: []string{command("pardon-ip", address)},
	})

	return entries, nil
}

type change struct {
	kind     history.Kind
	subject  string
	detail   string
	commands []string
}

func failed(action ActionType, err error) error {
	metrics.Mutation(string(action), err)

	return errors.Join(err, ErrSave)
}

// committed runs after the list file is written. Nothing here can fail the mutation.
func (g Gateway) committed(ctx context.Context, server servers.Server, action ActionType, change change) {
	metrics.Mutation(string(action), nil)

	if errRecord := g.recorder.Record(ctx, server.ServerID, change.kind, change.subject, change.detail); errRecord != nil {
		slog.Warn("Failed to record admin action", slog.String("server", server.Name),
			slog.String("action", string(action)), log.ErrAttr(errRecord))
	}

	if g.notifier != nil {
		event := history.Event{
			Timestamp: g.clock.Now().UTC(),
			Kind:      change.kind,
			Subject:   change.subject,
			Detail:    change.detail,
			Origin:    history.Admin,
		}

		if errNotify := g.notifier.Notify(ctx, server, event); errNotify != nil {
			slog.Warn("Failed to send admin action notification", slog.String("server", server.Name), log.ErrAttr(errNotify))
		}
	}

	if g.console != nil && server.HasRCON() && len(change.commands) > 0 {
		if errExec := g.console.Exec(ctx, server, change.commands...); errExec != nil {
			slog.Warn("Failed to sync list change to server console", slog.String("server", server.Name),
				slog.String("action", string(action)), log.ErrAttr(errExec))
		}
	}
}

func (g Gateway) created() string {
	return g.clock.Now().UTC().Format(createdLayout)
}

// resolvePlayer normalizes add inputs. A blank name falls back to the identifier so entries are never
// written without one.
func resolvePlayer(name string, id string) identity.Player {
	player := identity.Resolve(name, id)
	if player.Name == "" {
		player.Name = player.ID
	}

	return player
}

func orDefault(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}

	return fallback
}

// removedNames returns the names of the entries matching target, or target itself when none do.
func removedNames[T playerlist.PlayerEntry](entries []T, target string) []string {
	var names []string

	for _, entry := range entries {
		player := entry.Player()
		if player.Matches(target) && strings.TrimSpace(player.Name) != "" {
			names = append(names, strings.TrimSpace(player.Name))
		}
	}

	if len(names) == 0 {
		return []string{target}
	}

	return names
}

// command joins a console verb with its arguments. Whitespace runs, including newlines, collapse to
// a single space so an argument cannot smuggle a second command.
func command(verb string, args ...string) string {
	parts := []string{verb}

	for _, arg := range args {
		if cleaned := strings.Join(strings.Fields(arg), " "); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}

	return strings.Join(parts, " ")
}

func commands(verb string, targets []string) []string {
	out := make([]string, 0, len(targets))
	for _, target := range targets {
		out = append(out, command(verb, target))
	}

	return out
}
