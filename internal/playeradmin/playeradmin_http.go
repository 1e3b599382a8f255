package playeradmin

import (
	"errors"
	"net/http"

	"github.com/charlesshaw3/SimpleServers/internal/httphelper"
	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/charlesshaw3/SimpleServers/pkg/fp"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
)

type DirectoryQuery struct {
	HistoryLimit int    `schema:"history_limit"`
	Filter       string `schema:"filter"`
}

type OperatorRequest struct {
	Name                string `json:"name"`
	UUID                string `json:"uuid"`
	Level               int    `json:"level" binding:"min=0,max=4"`
	BypassesPlayerLimit *bool  `json:"bypasses_player_limit"`
}

type PlayerRequest struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

type BanRequest struct {
	Name    string `json:"name"`
	UUID    string `json:"uuid"`
	Reason  string `json:"reason"`
	Expires string `json:"expires"`
}

type IPBanRequest struct {
	IP      string `json:"ip" binding:"required"`
	Reason  string `json:"reason"`
	Expires string `json:"expires"`
}

type playerAdminHandler struct {
	gateway Gateway
	// Mutations on the same server are serialized so concurrent read-modify-write cycles cannot drop entries.
	locks *fp.KeyedMutex[uuid.UUID]
}

func NewPlayerAdminHandler(engine *gin.Engine, gateway Gateway) {
	handler := playerAdminHandler{gateway: gateway, locks: fp.NewKeyedMutex[uuid.UUID]()}

	players := engine.Group("/api/servers/:server_id/players")
	{
		players.GET("", handler.onDirectory())
		players.POST("/action", handler.onAction())
		players.POST("/ops", handler.onAddOperator())
		players.DELETE("/ops/:target", handler.onRemoveOperator())
		players.POST("/whitelist", handler.onAddToWhitelist())
		players.DELETE("/whitelist/:target", handler.onRemoveFromWhitelist())
		players.POST("/bans", handler.onBanPlayer())
		players.DELETE("/bans/:target", handler.onUnbanPlayer())
		players.POST("/ip_bans", handler.onBanIP())
		players.DELETE("/ip_bans/:ip", handler.onUnbanIP())
	}
}

func (h playerAdminHandler) onDirectory() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		serverID, idFound := httphelper.GetUUIDParam(ctx, "server_id")
		if !idFound {
			return
		}

		var query DirectoryQuery
		if !httphelper.BindQuery(ctx, &query) {
			return
		}

		dir, errDir := h.gateway.GetDirectory(ctx, serverID, query.HistoryLimit)
		if errDir != nil {
			setError(ctx, errDir)

			return
		}

		ctx.JSON(http.StatusOK, dir.FilterProfiles(query.Filter))
	}
}

func (h playerAdminHandler) onAction() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		serverID, idFound := httphelper.GetUUIDParam(ctx, "server_id")
		if !idFound {
			return
		}

		req, ok := httphelper.BindJSON[ActionRequest](ctx)
		if !ok {
			return
		}

		action, errAction := req.ToAction()
		if errAction != nil {
			setError(ctx, errAction)

			return
		}

		unlock := h.locks.Lock(serverID)
		defer unlock()

		dir, errApply := h.gateway.Apply(ctx, serverID, action)
		if errApply != nil {
			setError(ctx, errApply)

			return
		}

		ctx.JSON(http.StatusOK, dir)
	}
}

func (h playerAdminHandler) onAddOperator() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		serverID, idFound := httphelper.GetUUIDParam(ctx, "server_id")
		if !idFound {
			return
		}

		req, ok := httphelper.BindJSON[OperatorRequest](ctx)
		if !ok {
			return
		}

		mutate(ctx, h.locks, serverID, func() (any, error) {
			return h.gateway.AddOperator(ctx, serverID, Op{
				Name:                req.Name,
				ID:                  req.UUID,
				Level:               req.Level,
				BypassesPlayerLimit: req.BypassesPlayerLimit,
			})
		})
	}
}

func (h playerAdminHandler) onRemoveOperator() gin.HandlerFunc {
	return h.onRemove("target", func(ctx *gin.Context, serverID uuid.UUID, target string) (any, error) {
		return h.gateway.RemoveOperator(ctx, serverID, target)
	})
}

func (h playerAdminHandler) onAddToWhitelist() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		serverID, idFound := httphelper.GetUUIDParam(ctx, "server_id")
		if !idFound {
			return
		}

		req, ok := httphelper.BindJSON[PlayerRequest](ctx)
		if !ok {
			return
		}

		mutate(ctx, h.locks, serverID, func() (any, error) {
			return h.gateway.AddToWhitelist(ctx, serverID, Whitelist{Name: req.Name, ID: req.UUID})
		})
	}
}

func (h playerAdminHandler) onRemoveFromWhitelist() gin.HandlerFunc {
	return h.onRemove("target", func(ctx *gin.Context, serverID uuid.UUID, target string) (any, error) {
		return h.gateway.RemoveFromWhitelist(ctx, serverID, target)
	})
}

func (h playerAdminHandler) onBanPlayer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		serverID, idFound := httphelper.GetUUIDParam(ctx, "server_id")
		if !idFound {
			return
		}

		req, ok := httphelper.BindJSON[BanRequest](ctx)
		if !ok {
			return
		}

		mutate(ctx, h.locks, serverID, func() (any, error) {
			return h.gateway.BanPlayer(ctx, serverID, Ban{
				Name:    req.Name,
				ID:      req.UUID,
				Reason:  req.Reason,
				Expires: req.Expires,
			})
		})
	}
}

func (h playerAdminHandler) onUnbanPlayer() gin.HandlerFunc {
	return h.onRemove("target", func(ctx *gin.Context, serverID uuid.UUID, target string) (any, error) {
		return h.gateway.UnbanPlayer(ctx, serverID, target)
	})
}

func (h playerAdminHandler) onBanIP() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		serverID, idFound := httphelper.GetUUIDParam(ctx, "server_id")
		if !idFound {
			return
		}

		req, ok := httphelper.BindJSON[IPBanRequest](ctx)
		if !ok {
			return
		}

		mutate(ctx, h.locks, serverID, func() (any, error) {
			return h.gateway.BanIP(ctx, serverID, BanIP{IP: req.IP, Reason: req.Reason, Expires: req.Expires})
		})
	}
}

func (h playerAdminHandler) onUnbanIP() gin.HandlerFunc {
	return h.onRemove("ip", func(ctx *gin.Context, serverID uuid.UUID, address string) (any, error) {
		return h.gateway.UnbanIP(ctx, serverID, address)
	})
}

type removeFunc func(ctx *gin.Context, serverID uuid.UUID, target string) (any, error)

func (h playerAdminHandler) onRemove(param string, remove removeFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		serverID, idFound := httphelper.GetUUIDParam(ctx, "server_id")
		if !idFound {
			return
		}

		target, targetFound := httphelper.GetStringParam(ctx, param)
		if !targetFound {
			return
		}

		mutate(ctx, h.locks, serverID, func() (any, error) {
			return remove(ctx, serverID, target)
		})
	}
}

func mutate(ctx *gin.Context, locks *fp.KeyedMutex[uuid.UUID], serverID uuid.UUID, apply func() (any, error)) {
	unlock := locks.Lock(serverID)
	defer unlock()

	entries, errApply := apply()
	if errApply != nil {
		setError(ctx, errApply)

		return
	}

	ctx.JSON(http.StatusOK, entries)
}

func setError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, servers.ErrNotFound):
		httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusNotFound, servers.ErrNotFound,
			"Unknown server: %s", ctx.Param("server_id")))
	case errors.Is(err, ErrEmptyTarget), errors.Is(err, ErrUnknownAction):
		httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, err))
	default:
		httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(err, httphelper.ErrInternal)))
	}
}
