package servers_test

import (
	"encoding/json"
	"testing"

	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/charlesshaw3/SimpleServers/internal/tests"
	"github.com/stretchr/testify/require"
)

func TestHTTPServers(t *testing.T) {
	server := servers.NewServer("survival", "/srv/survival")
	server.RCONPassword = "hunter2"

	router := tests.CreateRouter()
	servers.NewServersHandler(router, servers.NewRegistry(servers.NewMemoryRepository(server)))

	var raw []map[string]any
	tests.GetOK(t, router, "/api/servers", nil, &raw)
	require.Len(t, raw, 1)
	require.Equal(t, "survival", raw[0]["name"])
	require.Equal(t, server.ServerID.String(), raw[0]["server_id"])
	require.NotContains(t, raw[0], "rcon_password")

	encoded, errEncode := json.Marshal(raw[0])
	require.NoError(t, errEncode)
	require.NotContains(t, string(encoded), "hunter2")
}
