package handler

import (
	"net/http"

	"bizledger/internal/logger"
	"bizledger/internal/middleware"
	"bizledger/internal/service"
	"bizledger/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ConnectionHandler struct {
	connectionService service.ConnectionService
	log               *zap.Logger
}

func NewConnectionHandler(connectionService service.ConnectionService, log *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService, log: log}
}

func (h *ConnectionHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	group := router.Group("/api/moneybird")
	group.Use(auth)
	{
		group.GET("/connection", h.GetConnection)
		group.PUT("/connection", h.Connect)
		group.DELETE("/connection", h.Disconnect)
		group.GET("/administrations", h.ListAdministrations)
	}
}

func (h *ConnectionHandler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromGin(c, h.log).Error(msg, zap.Error(err))
		_ = c.Error(err)
	}
	response.Fail(c, status, err.Error())
}

// Connect stores a Moneybird API token for the caller
// @Summary      Connect Moneybird
// @Description  Verifies the access token by listing administrations, then stores it with the selected administration
// @Tags         moneybird
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ConnectRequest  true  "Access token and optional administration"
// @Success      200      {object}  response.Response{data=service.ConnectionStatus}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/moneybird/connection [put]
func (h *ConnectionHandler) Connect(c *gin.Context) {
	var req service.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	status, err := h.connectionService.Connect(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		h.fail(c, "connect moneybird failed", err)
		return
	}
	response.OK(c, http.StatusOK, status)
}

// GetConnection reports whether the caller has a stored token
// @Summary      Moneybird connection status
// @Tags         moneybird
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ConnectionStatus}
// @Router       /api/moneybird/connection [get]
func (h *ConnectionHandler) GetConnection(c *gin.Context) {
	status, err := h.connectionService.Status(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, "connection status failed", err)
		return
	}
	response.OK(c, http.StatusOK, status)
}

// Disconnect removes the caller's stored token
// @Summary      Disconnect Moneybird
// @Tags         moneybird
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /api/moneybird/connection [delete]
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	if err := h.connectionService.Disconnect(c.Request.Context(), middleware.UserID(c)); err != nil {
		h.fail(c, "disconnect moneybird failed", err)
		return
	}
	response.OK(c, http.StatusOK, "Disconnected")
}

// ListAdministrations lists the administrations reachable with the stored token
// @Summary      List Moneybird administrations
// @Tags         moneybird
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.AdministrationResponse}
// @Failure      403  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/moneybird/administrations [get]
func (h *ConnectionHandler) ListAdministrations(c *gin.Context) {
	admins, err := h.connectionService.ListAdministrations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, "list administrations failed", err)
		return
	}
	response.OK(c, http.StatusOK, admins)
}
