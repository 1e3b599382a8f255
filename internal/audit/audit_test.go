package audit_test

import (
	"testing"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/audit"
	"github.com/charlesshaw3/SimpleServers/internal/clock"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func TestTrailMemory(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	trail := audit.NewTrail(audit.NewMemoryRepository(), clk)
	serverID := uuid.Must(uuid.NewV4())
	otherID := uuid.Must(uuid.NewV4())

	require.NoError(t, trail.Record(t.Context(), serverID, history.OpAdd, "Alice", "Added operator (level 4)"))
	clk.Advance(time.Minute)
	require.NoError(t, trail.Record(t.Context(), serverID, history.PlayerBan, "Grief", "griefing"))
	require.NoError(t, trail.Record(t.Context(), serverID, history.PlayerUnban, "Grief", "Player unban"))
	require.NoError(t, trail.Record(t.Context(), otherID, history.IPBan, "10.0.0.1", "IP banned by operator"))

	require.ErrorIs(t, trail.Record(t.Context(), serverID, "op_everyone", "x", ""), audit.ErrInvalidKind)

	events, errEvents := trail.Recent(t.Context(), serverID, 10)
	require.NoError(t, errEvents)
	require.Len(t, events, 3)
	require.Equal(t, history.PlayerUnban, events[0].Kind)
	require.Equal(t, history.PlayerBan, events[1].Kind)
	require.Equal(t, history.OpAdd, events[2].Kind)
	require.Equal(t, history.Admin, events[0].Origin)
	require.Equal(t, clk.Now(), events[0].Timestamp)

	limited, _ := trail.Recent(t.Context(), serverID, 1)
	require.Len(t, limited, 1)
	require.Equal(t, history.PlayerUnban, limited[0].Kind)

	none, _ := trail.Recent(t.Context(), serverID, 0)
	require.Empty(t, none)

	unknown, _ := trail.Recent(t.Context(), uuid.Must(uuid.NewV4()), 10)
	require.Empty(t, unknown)
}
