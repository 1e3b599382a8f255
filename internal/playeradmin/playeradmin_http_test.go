package playeradmin_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/directory"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/charlesshaw3/SimpleServers/internal/playeradmin"
	"github.com/charlesshaw3/SimpleServers/internal/playerlist"
	"github.com/charlesshaw3/SimpleServers/internal/tests"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

type directoryParams struct {
	HistoryLimit int    `url:"history_limit,omitempty"`
	Filter       string `url:"filter,omitempty"`
}

func newRouter(t *testing.T) (*gin.Engine, env) {
	t.Helper()

	testEnv := newEnv(t)
	router := tests.CreateRouter()
	playeradmin.NewPlayerAdminHandler(router, testEnv.gateway(nil))

	return router, testEnv
}

func TestHTTPActionRoundTrip(t *testing.T) {
	router, testEnv := newRouter(t)
	base := fmt.Sprintf("/api/servers/%s/players", testEnv.server.ServerID)

	var dir directory.Directory
	tests.PostOK(t, router, base+"/action", playeradmin.ActionRequest{
		Action: playeradmin.ActionBan, Name: "Grief", Reason: "griefing",
	}, &dir)
	require.Len(t, dir.BannedPlayers, 1)
	require.True(t, profile(t, dir, "Grief").IsBanned)

	testEnv.clock.Advance(time.Minute)
	tests.PostOK(t, router, base+"/action", playeradmin.ActionRequest{Action: playeradmin.ActionWhitelist, Name: "Alex"}, &dir)

	var filtered directory.Directory
	tests.GetOK(t, router, base, directoryParams{HistoryLimit: 1, Filter: "gr*"}, &filtered)
	require.Len(t, filtered.Profiles, 1)
	require.Equal(t, "Grief", filtered.Profiles[0].Name)
	require.Len(t, filtered.History, 1)
	require.Equal(t, history.WhitelistAdd, filtered.History[0].Kind)
	require.Len(t, filtered.KnownPlayers, 2)
}

func TestHTTPListRoutes(t *testing.T) {
	router, testEnv := newRouter(t)
	base := fmt.Sprintf("/api/servers/%s/players", testEnv.server.ServerID)

	var ops []playerlist.Operator
	tests.PostOK(t, router, base+"/ops", playeradmin.OperatorRequest{Name: "Steve", Level: 2}, &ops)
	require.Equal(t, []playerlist.Operator{{UUID: "offline-steve", Name: "Steve", Level: 2, BypassesPlayerLimit: true}}, ops)
	tests.DeleteOK(t, router, base+"/ops/steve", &ops)
	require.Empty(t, ops)

	var whitelist []playerlist.WhitelistEntry
	tests.PostOK(t, router, base+"/whitelist", playeradmin.PlayerRequest{Name: "Alex", UUID: "uuid-alex"}, &whitelist)
	require.Len(t, whitelist, 1)
	tests.DeleteOK(t, router, base+"/whitelist/uuid-alex", &whitelist)
	require.Empty(t, whitelist)

	var bans []playerlist.PlayerBan
	tests.PostOK(t, router, base+"/bans", playeradmin.BanRequest{Name: "Grief"}, &bans)
	require.Equal(t, "Banned by operator", bans[0].Reason)
	tests.DeleteOK(t, router, base+"/bans/Grief", &bans)
	require.Empty(t, bans)

	var ipBans []playerlist.IPBan
	tests.PostOK(t, router, base+"/ip_bans", playeradmin.IPBanRequest{IP: "10.0.0.9", Reason: "proxy"}, &ipBans)
	require.Equal(t, "10.0.0.9", ipBans[0].IP)
	tests.DeleteOK(t, router, base+"/ip_bans/10.0.0.9", &ipBans)
	require.Empty(t, ipBans)
}

func TestHTTPErrors(t *testing.T) {
	router, testEnv := newRouter(t)
	base := fmt.Sprintf("/api/servers/%s/players", testEnv.server.ServerID)
	unknown := fmt.Sprintf("/api/servers/%s/players", uuid.Must(uuid.NewV4()))

	tests.GetNotFound(t, router, unknown)
	tests.PostNotFound(t, router, unknown+"/action", playeradmin.ActionRequest{Action: playeradmin.ActionOp, Name: "Steve"})
	tests.PostBadRequest(t, router, base+"/action", playeradmin.ActionRequest{Action: "kick", Name: "Steve"})
	tests.PostBadRequest(t, router, base+"/action", playeradmin.ActionRequest{Action: playeradmin.ActionDeop})
	tests.PostBadRequest(t, router, base+"/action", map[string]string{"name": "Steve"})
	tests.PostBadRequest(t, router, base+"/ops", playeradmin.OperatorRequest{Name: "Steve", Level: 7})
	tests.PostBadRequest(t, router, base+"/ip_bans", playeradmin.IPBanRequest{})
	tests.PostBadRequest(t, router, "/api/servers/not-a-uuid/players/action", playeradmin.ActionRequest{Action: playeradmin.ActionOp})
}

func TestHTTPConcurrentMutations(t *testing.T) {
	router, testEnv := newRouter(t)
	path := fmt.Sprintf("/api/servers/%s/players/whitelist", testEnv.server.ServerID)

	const players = 20

	codes := make([]int, players)

	var waitGroup sync.WaitGroup
	for idx := range players {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			body := strings.NewReader(fmt.Sprintf(`{"name":"player_%d"}`, idx))
			request := httptest.NewRequestWithContext(t.Context(), http.MethodPost, path, body)
			request.Header.Set("Content-Type", "application/json")

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, request)
			codes[idx] = recorder.Code
		}()
	}

	waitGroup.Wait()

	for _, code := range codes {
		require.Equal(t, http.StatusOK, code)
	}

	require.Len(t, testEnv.store.Whitelist(), players)
}
