package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moneta/internal/services"
)

// SchedulerHandler exposes the scheduler tick for manual catch-up runs.
type SchedulerHandler struct {
	schedulerService services.SchedulerServicer
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(schedulerService services.SchedulerServicer) *SchedulerHandler {
	return &SchedulerHandler{schedulerService: schedulerService}
}

// RunTick handles a manual scheduler tick. The same idempotent path the
// background worker runs, so invoking it repeatedly is always safe.
// @Summary     Run a scheduler tick
// @Description Generate due bills and, on the 1st, run the income allocation
// @Tags        scheduler
// @Produce     json
// @Success     200 {object} services.TickResult "Tick result"
// @Failure     500 {object} ErrorResponse "Tick failed"
// @Router      /scheduler/tick [post]
func (h *SchedulerHandler) RunTick(c *gin.Context) {
	result, err := h.schedulerService.RunScheduledTick(time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
