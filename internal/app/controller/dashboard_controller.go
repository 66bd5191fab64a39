package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apperrors "github.com/ikkim/configurator-backend/internal/errors"
	"github.com/ikkim/configurator-backend/internal/middleware"
	ws "github.com/ikkim/configurator-backend/internal/websocket"
)

// DashboardController upgrades staff sessions to the RFQ event stream.
type DashboardController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewDashboardController accepts upgrades from allowedOrigins only. An empty
// list accepts any origin.
func NewDashboardController(hub *ws.Hub, allowedOrigins []string) *DashboardController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &DashboardController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
	}
}

// Connect opens a dashboard session
// GET /api/v1/admin/ws?token=
func (ctrl *DashboardController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	staffID, ok := middleware.GetStaffID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, ws.NewConn(conn), staffID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("Dashboard session opened", map[string]interface{}{
		"staff_id": staffID,
	})
}
