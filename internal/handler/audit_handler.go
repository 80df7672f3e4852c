package handler

import (
	"net/http"

	"bizledger/internal/middleware"
	"bizledger/internal/service"
	"bizledger/pkg/pagination"
	"bizledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	group := router.Group("/api/audit-logs")
	group.Use(auth)
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs pages through the caller's own audit trail
// @Summary      Get audit logs
// @Description  Retrieves the caller's account history, newest first
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.AuditLogResponse,meta=pagination.Meta}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.ListForUser(c.Request.Context(), middleware.UserID(c), p.Offset, p.Limit)
	if err != nil {
		response.Fail(c, statusFor(err), "Failed to retrieve audit logs: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, logs, p.MetaFor(total)))
}
