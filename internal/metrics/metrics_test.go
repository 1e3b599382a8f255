package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	metrics.Mutation("op", nil)
	metrics.Mutation("ban", errors.New("disk full"))
	metrics.DegradedRead("ops.json")
	metrics.LiveSync(nil)
	metrics.ObserveBuild(time.Now().Add(-time.Millisecond))

	engine := gin.New()
	metrics.NewHandler(engine)

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	require.Contains(t, body, `simpleservers_player_mutations_total{action="ban",result="error"} 1`)
	require.Contains(t, body, `simpleservers_degraded_reads_total{resource="ops.json"}`)
	require.Contains(t, body, "simpleservers_directory_build_seconds_count")
}
