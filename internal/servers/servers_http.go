package servers

import (
	"net/http"

	"github.com/charlesshaw3/SimpleServers/internal/httphelper"
	"github.com/gin-gonic/gin"
)

type serversHandler struct {
	registry Registry
}

func NewServersHandler(engine *gin.Engine, registry Registry) {
	handler := serversHandler{registry: registry}

	engine.GET("/api/servers", handler.onServers())
}

func (h serversHandler) onServers() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		servers, errServers := h.registry.Servers(ctx)
		if errServers != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errServers))

			return
		}

		ctx.JSON(http.StatusOK, servers)
	}
}
