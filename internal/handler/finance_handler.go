package handler

import (
	"errors"
	"net/http"

	"bizledger/internal/logger"
	"bizledger/internal/middleware"
	"bizledger/internal/model"
	"bizledger/internal/service"
	"bizledger/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Reasons reported to dashboards that cannot be served yet
const (
	ReasonNoCredential     = "no_credential"
	ReasonNoAdministration = "no_administration"
)

type FinanceHandler struct {
	financeService service.FinanceService
	log            *zap.Logger
}

func NewFinanceHandler(financeService service.FinanceService, log *zap.Logger) *FinanceHandler {
	return &FinanceHandler{financeService: financeService, log: log}
}

func (h *FinanceHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	group := router.Group("/api/finance")
	group.Use(auth)
	{
		group.POST("/aggregate", h.Aggregate)
	}
}

// Aggregate builds the daily series, KPIs and detail rows for a date range
// @Summary      Aggregate finance figures
// @Description  Fetches sales invoices, purchase invoices and receipts from Moneybird and aggregates them per day on cash or accrual basis
// @Tags         finance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AggregateRequest  true  "Date range and basis"
// @Success      200      {object}  model.FinanceAggregateResponse
// @Success      200      {object}  model.NotConnectedResponse  "No administration available"
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  model.NotConnectedResponse
// @Failure      500      {object}  response.Response
// @Router       /api/finance/aggregate [post]
func (h *FinanceHandler) Aggregate(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Fail(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req service.AggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.financeService.Aggregate(c.Request.Context(), userID, req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, service.ErrNoCredential):
		c.JSON(http.StatusForbidden, model.NotConnectedResponse{
			Connected: false,
			Reason:    ReasonNoCredential,
			Message:   "Connect a Moneybird account to see live figures",
		})
	case errors.Is(err, service.ErrNoAdministration):
		c.JSON(http.StatusOK, model.NotConnectedResponse{
			Connected: false,
			Reason:    ReasonNoAdministration,
			Message:   "The connected Moneybird account has no administration",
		})
	default:
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.FromGin(c, h.log).Error("aggregate failed", zap.String("user_id", userID), zap.Error(err))
			_ = c.Error(err)
		}
		response.Fail(c, status, err.Error())
	}
}
