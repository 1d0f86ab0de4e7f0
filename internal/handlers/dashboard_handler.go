package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moneta/internal/services"
)

// DashboardHandler handles the aggregate dashboard view.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard handles the month summary.
// @Summary     Dashboard summary
// @Description Month totals, budget and fund statuses, recent transactions
// @Tags        dashboard
// @Produce     json
// @Param       month query int false "Month (defaults to current)"
// @Param       year  query int false "Year (defaults to current)"
// @Success     200 {object} services.DashboardSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	now := time.Now()
	month, year := int(now.Month()), now.Year()
	if c.Query("month") != "" || c.Query("year") != "" {
		var err error
		month, year, err = parseMonthYear(c)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	summary, err := h.dashboardService.Summary(month, year, now)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
