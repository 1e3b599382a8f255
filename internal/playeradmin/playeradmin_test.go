package playeradmin_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/audit"
	"github.com/charlesshaw3/SimpleServers/internal/clock"
	"github.com/charlesshaw3/SimpleServers/internal/directory"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/charlesshaw3/SimpleServers/internal/playeradmin"
	"github.com/charlesshaw3/SimpleServers/internal/playerlist"
	"github.com/charlesshaw3/SimpleServers/internal/runtimelog"
	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

var errUnavailable = errors.New("unavailable")

type recordingConsole struct {
	mu       sync.Mutex
	commands []string
}

func (c *recordingConsole) Exec(_ context.Context, _ servers.Server, commands ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commands = append(c.commands, commands...)

	return nil
}

type recordingNotifier struct {
	events []history.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, _ servers.Server, event history.Event) error {
	n.events = append(n.events, event)

	return n.err
}

type failingRecorder struct{}

func (failingRecorder) Record(_ context.Context, _ uuid.UUID, _ history.Kind, _ string, _ string) error {
	return errUnavailable
}

type env struct {
	server   servers.Server
	registry servers.Registry
	trail    audit.Trail
	clock    *clock.MockClock
	store    playerlist.Store
	console  *recordingConsole
	notifier *recordingNotifier
}

func newEnv(t *testing.T) env {
	t.Helper()

	server := servers.NewServer("survival", t.TempDir())
	server.RCONAddress = "127.0.0.1:25575"
	clk := clock.NewMockClock(time.Date(2024, 6, 2, 18, 30, 5, 123000000, time.UTC))

	return env{
		server:   server,
		registry: servers.NewRegistry(servers.NewMemoryRepository(server)),
		trail:    audit.NewTrail(audit.NewMemoryRepository(), clk),
		clock:    clk,
		store:    playerlist.NewStore(server.RootPath),
		console:  &recordingConsole{},
		notifier: &recordingNotifier{},
	}
}

func (e env) gateway(recorder playeradmin.Recorder) playeradmin.Gateway {
	if recorder == nil {
		recorder = e.trail
	}

	builder := directory.NewBuilder(e.registry, e.trail, runtimelog.NewPatternExtractor(e.clock), directory.Options{})

	return playeradmin.NewGateway(e.registry, recorder, builder, e.clock, e.notifier, e.console, playeradmin.Options{})
}

func profile(t *testing.T, dir directory.Directory, name string) directory.Profile {
	t.Helper()

	for _, p := range dir.Profiles {
		if p.Name == name {
			return p
		}
	}

	t.Fatalf("no profile for %s", name)

	return directory.Profile{}
}

func TestBanThenUnban(t *testing.T) {
	testEnv := newEnv(t)
	gateway := testEnv.gateway(nil)

	ban, errParse := playeradmin.ParseAction("ban", "Grief", "", "griefing")
	require.NoError(t, errParse)

	_, errApply := gateway.Apply(t.Context(), testEnv.server.ServerID, ban)
	require.NoError(t, errApply)

	dir, errDir := gateway.GetDirectory(t.Context(), testEnv.server.ServerID, 0)
	require.NoError(t, errDir)
	require.True(t, profile(t, dir, "Grief").IsBanned)
	require.Len(t, dir.History, 1)
	require.Equal(t, history.PlayerBan, dir.History[0].Kind)
	require.Equal(t, "griefing", dir.History[0].Detail)
	require.Equal(t, history.Admin, dir.History[0].Origin)

	testEnv.clock.Advance(time.Minute)

	unban, errParse := playeradmin.ParseAction("unban", "Grief", "", "")
	require.NoError(t, errParse)

	dir, errApply = gateway.Apply(t.Context(), testEnv.server.ServerID, unban)
	require.NoError(t, errApply)
	require.False(t, profile(t, dir, "Grief").IsBanned)
	require.Len(t, dir.History, 2)
	require.Equal(t, history.PlayerUnban, dir.History[0].Kind)
	require.Equal(t, "Player unbanned", dir.History[0].Detail)
	require.Equal(t, history.PlayerBan, dir.History[1].Kind)
}

func TestAddOperatorUpsert(t *testing.T) {
	testEnv := newEnv(t)
	gateway := testEnv.gateway(nil)
	ctx := t.Context()

	ops, errAdd := gateway.AddOperator(ctx, testEnv.server.ServerID, playeradmin.Op{Name: " Steve ", Level: 9})
	require.NoError(t, errAdd)
	require.Len(t, ops, 1)
	require.Equal(t, playerlist.Operator{
		UUID: "offline-steve", Name: "Steve", Level: 4, BypassesPlayerLimit: true,
	}, ops[0])

	noBypass := false
	ops, errAdd = gateway.AddOperator(ctx, testEnv.server.ServerID,
		playeradmin.Op{Name: "STEVE", ID: "uuid-steve", Level: -3, BypassesPlayerLimit: &noBypass})
	require.NoError(t, errAdd)
	require.Len(t, ops, 1)
	require.Equal(t, playerlist.Operator{
		UUID: "uuid-steve", Name: "STEVE", Level: 1, BypassesPlayerLimit: false,
	}, ops[0])

	ops, errAdd = gateway.AddOperator(ctx, testEnv.server.ServerID, playeradmin.Op{Name: "Alex", Level: 2})
	require.NoError(t, errAdd)
	require.Len(t, ops, 2)
	require.Equal(t, ops, testEnv.store.Operators())

	events, errRecent := testEnv.trail.Recent(ctx, testEnv.server.ServerID, 10)
	require.NoError(t, errRecent)
	require.Len(t, events, 3)
	require.Equal(t, "Added operator (level 2)", events[0].Detail)
}

func TestRemoveOperatorByID(t *testing.T) {
	testEnv := newEnv(t)
	gateway := testEnv.gateway(nil)
	ctx := t.Context()

	_, errAdd := gateway.AddOperator(ctx, testEnv.server.ServerID, playeradmin.Op{Name: "Steve", ID: "uuid-steve"})
	require.NoError(t, errAdd)

	ops, errRemove := gateway.RemoveOperator(ctx, testEnv.server.ServerID, "  UUID-STEVE ")
	require.NoError(t, errRemove)
	require.Empty(t, ops)
	require.NotNil(t, ops)

	require.Equal(t, []string{"op Steve", "deop Steve"}, testEnv.console.commands)

	events, errRecent := testEnv.trail.Recent(ctx, testEnv.server.ServerID, 1)
	require.NoError(t, errRecent)
	require.Equal(t, history.OpRemove, events[0].Kind)
	require.Equal(t, "UUID-STEVE", events[0].Subject)
}

func TestWhitelist(t *testing.T) {
	testEnv := newEnv(t)
	gateway := testEnv.gateway(nil)
	ctx := t.Context()

	entries, errAdd := gateway.AddToWhitelist(ctx, testEnv.server.ServerID, playeradmin.Whitelist{Name: "", ID: "uuid-only"})
	require.NoError(t, errAdd)
	require.Equal(t, []playerlist.WhitelistEntry{{UUID: "uuid-only", Name: "uuid-only"}}, entries)

	entries, errAdd = gateway.AddToWhitelist(ctx, testEnv.server.ServerID, playeradmin.Whitelist{Name: "Alex"})
	require.NoError(t, errAdd)
	require.Len(t, entries, 2)

	entries, errRemove := gateway.RemoveFromWhitelist(ctx, testEnv.server.ServerID, "alex")
	require.NoError(t, errRemove)
	require.Equal(t, []playerlist.WhitelistEntry{{UUID: "uuid-only", Name: "uuid-only"}}, entries)

	require.Equal(t, []string{"whitelist add uuid-only", "whitelist add Alex", "whitelist remove Alex"},
		testEnv.console.commands)
}

func TestBanDefaults(t *testing.T) {
	testEnv := newEnv(t)
	gateway := testEnv.gateway(nil)
	ctx := t.Context()

	bans, errBan := gateway.BanPlayer(ctx, testEnv.server.ServerID, playeradmin.Ban{Name: "Grief"})
	require.NoError(t, errBan)
	require.Equal(t, []playerlist.PlayerBan{{
		UUID:    "offline-grief",
		Name:    "Grief",
		Created: "2024-06-02T18:30:05.123Z",
		Source:  "SimpleServers",
		Expires: "forever",
		Reason:  "Banned by operator",
	}}, bans)

	bans, errBan = gateway.BanPlayer(ctx, testEnv.server.ServerID,
		playeradmin.Ban{Name: "grief", Reason: " spam\nop Grief ", Expires: "2025-01-01T00:00:00.000Z"})
	require.NoError(t, errBan)
	require.Len(t, bans, 1)
	require.Equal(t, "spam\nop Grief", bans[0].Reason)
	require.Equal(t, "2025-01-01T00:00:00.000Z", bans[0].Expires)

	require.Equal(t, []string{"ban Grief Banned by operator", "ban grief spam op Grief"}, testEnv.console.commands)
}

func TestIPBans(t *testing.T) {
	testEnv := newEnv(t)
	gateway := testEnv.gateway(nil)
	ctx := t.Context()

	_, errBan := gateway.BanIP(ctx, testEnv.server.ServerID, playeradmin.BanIP{IP: "10.0.0.1"})
	require.NoError(t, errBan)

	bans, errBan := gateway.BanIP(ctx, testEnv.server.ServerID, playeradmin.BanIP{IP: " 10.0.0.1 ", Reason: "proxy"})
	require.NoError(t, errBan)
	require.Len(t, bans, 1)
	require.Equal(t, "proxy", bans[0].Reason)

	bans, errBan = gateway.BanIP(ctx, testEnv.server.ServerID, playeradmin.BanIP{IP: "10.0.0.2"})
	require.NoError(t, errBan)
	require.Len(t, bans, 2)
	require.Equal(t, "IP banned by operator", bans[1].Reason)

	bans, errUnban := gateway.UnbanIP(ctx, testEnv.server.ServerID, "10.0.0.1")
	require.NoError(t, errUnban)
	require.Len(t, bans, 1)
	require.Equal(t, "10.0.0.2", bans[0].IP)

	_, errBan = gateway.BanIP(ctx, testEnv.server.ServerID, playeradmin.BanIP{IP: "  "})
	require.ErrorIs(t, errBan, playeradmin.ErrEmptyTarget)

	require.Equal(t, "pardon-ip 10.0.0.1", testEnv.console.commands[len(testEnv.console.commands)-1])
}

func TestEmptyRemovalTarget(t *testing.T) {
	testEnv := newEnv(t)
	gateway := testEnv.gateway(nil)

	for _, action := range []playeradmin.Action{
		playeradmin.Deop{Target: " "},
		playeradmin.Unwhitelist{},
		playeradmin.Unban{Target: "\t"},
		playeradmin.UnbanIP{},
	} {
		_, errApply := gateway.Apply(t.Context(), testEnv.server.ServerID, action)
		require.ErrorIs(t, errApply, playeradmin.ErrEmptyTarget, action.Type())
	}

	events, errRecent := testEnv.trail.Recent(t.Context(), testEnv.server.ServerID, 10)
	require.NoError(t, errRecent)
	require.Empty(t, events)
}

func TestUnknownServer(t *testing.T) {
	testEnv := newEnv(t)
	gateway := testEnv.gateway(nil)

	_, errApply := gateway.Apply(t.Context(), uuid.Must(uuid.NewV4()), playeradmin.Ban{Name: "Grief"})
	require.ErrorIs(t, errApply, servers.ErrNotFound)

	_, errAdd := gateway.AddToWhitelist(t.Context(), uuid.Must(uuid.NewV4()), playeradmin.Whitelist{Name: "Alex"})
	require.ErrorIs(t, errAdd, servers.ErrNotFound)

	for _, file := range playerlist.Files() {
		_, errStat := os.Stat(testEnv.store.Path(file))
		require.ErrorIs(t, errStat, os.ErrNotExist)
	}
}

func TestUnknownAction(t *testing.T) {
	_, errParse := playeradmin.ParseAction("kick", "Alex", "", "")
	require.ErrorIs(t, errParse, playeradmin.ErrUnknownAction)

	testEnv := newEnv(t)
	_, errApply := testEnv.gateway(nil).Apply(t.Context(), testEnv.server.ServerID, nil)
	require.ErrorIs(t, errApply, playeradmin.ErrUnknownAction)
}

func TestParseAction(t *testing.T) {
	for _, testCase := range []struct {
		kind     string
		name     string
		id       string
		expected playeradmin.Action
	}{
		{"op", "Alex", "", playeradmin.Op{Name: "Alex"}},
		{"DEOP", "Alex", " uuid-alex ", playeradmin.Deop{Target: "uuid-alex"}},
		{"whitelist", "Alex", "uuid-alex", playeradmin.Whitelist{Name: "Alex", ID: "uuid-alex"}},
		{"unwhitelist", " Alex ", "", playeradmin.Unwhitelist{Target: "Alex"}},
		{"ban", "Alex", "", playeradmin.Ban{Name: "Alex", Reason: "r"}},
		{"unban", "Alex", "", playeradmin.Unban{Target: "Alex"}},
		{"ban_ip", "10.1.1.1", "", playeradmin.BanIP{IP: "10.1.1.1", Reason: "r"}},
		{"unban_ip", "10.1.1.1", "", playeradmin.UnbanIP{IP: "10.1.1.1"}},
	} {
		reason := ""
		if testCase.kind == "ban" || testCase.kind == "ban_ip" {
			reason = "r"
		}

		action, errParse := playeradmin.ParseAction(testCase.kind, testCase.name, testCase.id, reason)
		require.NoError(t, errParse, testCase.kind)
		require.Equal(t, testCase.expected, action, testCase.kind)
	}

	require.Len(t, playeradmin.ActionTypes(), 8)
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	testEnv := newEnv(t)
	gateway := testEnv.gateway(failingRecorder{})

	entries, errAdd := gateway.AddToWhitelist(t.Context(), testEnv.server.ServerID, playeradmin.Whitelist{Name: "Alex"})
	require.NoError(t, errAdd)
	require.Len(t, entries, 1)
	require.Len(t, testEnv.store.Whitelist(), 1)
}

func TestNotifierFailureIgnored(t *testing.T) {
	testEnv := newEnv(t)
	testEnv.notifier.err = errUnavailable
	gateway := testEnv.gateway(nil)

	_, errBan := gateway.BanPlayer(t.Context(), testEnv.server.ServerID, playeradmin.Ban{Name: "Grief", Reason: "griefing"})
	require.NoError(t, errBan)
	require.Len(t, testEnv.notifier.events, 1)
	require.Equal(t, history.PlayerBan, testEnv.notifier.events[0].Kind)
	require.Equal(t, "Grief", testEnv.notifier.events[0].Subject)
	require.Equal(t, "griefing", testEnv.notifier.events[0].Detail)
}

func TestSaveFailure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o600))

	testEnv := newEnv(t)
	server := servers.NewServer("broken", root)
	registry := servers.NewRegistry(servers.NewMemoryRepository(server))
	builder := directory.NewBuilder(registry, testEnv.trail, runtimelog.NewPatternExtractor(testEnv.clock), directory.Options{})
	gateway := playeradmin.NewGateway(registry, testEnv.trail, builder, testEnv.clock, nil, nil, playeradmin.Options{})

	_, errBan := gateway.BanPlayer(t.Context(), server.ServerID, playeradmin.Ban{Name: "Grief"})
	require.ErrorIs(t, errBan, playeradmin.ErrSave)

	events, errRecent := testEnv.trail.Recent(t.Context(), server.ServerID, 10)
	require.NoError(t, errRecent)
	require.Empty(t, events)
}

func TestNoConsoleWithoutRCON(t *testing.T) {
	testEnv := newEnv(t)
	server := servers.NewServer("offline", t.TempDir())
	registry := servers.NewRegistry(servers.NewMemoryRepository(server))
	builder := directory.NewBuilder(registry, testEnv.trail, runtimelog.NewPatternExtractor(testEnv.clock), directory.Options{})
	gateway := playeradmin.NewGateway(registry, testEnv.trail, builder, testEnv.clock, nil, testEnv.console,
		playeradmin.Options{Source: "Console"})

	bans, errBan := gateway.BanPlayer(t.Context(), server.ServerID, playeradmin.Ban{Name: "Grief"})
	require.NoError(t, errBan)
	require.Equal(t, "Console", bans[0].Source)
	require.Empty(t, testEnv.console.commands)
}
