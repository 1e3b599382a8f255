package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/directory"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/charlesshaw3/SimpleServers/internal/identity"
	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := rootCmd()

	for _, path := range [][]string{
		{"serve"},
		{"migrate"},
		{"server", "add"},
		{"server", "list"},
		{"server", "delete"},
		{"players", "directory"},
		{"players", "op"},
		{"players", "unwhitelist"},
		{"players", "ban-ip"},
		{"players", "unban-ip"},
	} {
		found, _, errFind := root.Find(path)
		require.NoError(t, errFind, path)
		require.Equal(t, path[len(path)-1], found.Name())
	}

	banIP, _, errFind := root.Find([]string{"players", "ban-ip"})
	require.NoError(t, errFind)
	require.NotNil(t, banIP.Flags().Lookup("reason"))
	require.Nil(t, banIP.Flags().Lookup("uuid"))
}

func TestRenderProfiles(t *testing.T) {
	seen := time.Now().Add(-2 * time.Hour)
	dir := directory.Directory{
		Capacity:      20,
		OnlinePlayers: []identity.Player{{Name: "Alex", ID: "offline-alex"}},
		KnownPlayers:  []identity.Player{{Name: "Alex", ID: "offline-alex"}, {Name: "Steve", ID: "offline-steve"}},
		Profiles: []directory.Profile{
			{Name: "Alex", ID: "offline-alex", IsOp: true, LastSeenAt: &seen},
			{Name: "Steve", ID: "offline-steve", IsBanned: true},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, renderProfiles(&buf, dir))

	out := buf.String()
	require.Contains(t, out, "Alex")
	require.Contains(t, out, "offline-steve")
	require.Contains(t, out, "2 hours ago")
	require.Contains(t, out, "never")
	require.Contains(t, out, "Online: 1/20  Known: 2")
}

func TestRenderServersAndHistory(t *testing.T) {
	server := servers.NewServer("survival", "/srv/survival")
	server.RCONAddress = "127.0.0.1:25575"

	var buf bytes.Buffer
	require.NoError(t, renderServers(&buf, []servers.Server{server}))
	require.Contains(t, buf.String(), server.ServerID.String())
	require.Contains(t, buf.String(), "127.0.0.1:25575")

	buf.Reset()
	require.NoError(t, renderHistory(&buf, []history.Event{{
		Timestamp: time.Now().Add(-3 * time.Minute),
		Kind:      history.PlayerBan,
		Subject:   "Steve",
		Detail:    "Player banned",
		Origin:    history.Admin,
	}}))
	require.Contains(t, buf.String(), "Steve")
	require.Contains(t, buf.String(), "3 minutes ago")
}
