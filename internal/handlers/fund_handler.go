package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/services"
)

// FundHandler handles sinking fund requests.
type FundHandler struct {
	fundService services.FundServicer
}

// NewFundHandler creates a new FundHandler.
func NewFundHandler(fundService services.FundServicer) *FundHandler {
	return &FundHandler{fundService: fundService}
}

// CreateFundRequest represents the request payload for creating a sinking fund.
type CreateFundRequest struct {
	Name              string `json:"name" binding:"required,min=1,max=100"`
	Description       string `json:"description" binding:"omitempty,max=500"`
	Color             string `json:"color" binding:"required,hex_color"`
	MonthlyAllocation string `json:"monthly_allocation" binding:"omitempty,money"`
}

// UpdateFundRequest represents the request payload for updating a sinking fund.
type UpdateFundRequest struct {
	Name              *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description       *string `json:"description" binding:"omitempty,max=500"`
	Color             *string `json:"color" binding:"omitempty,hex_color"`
	MonthlyAllocation *string `json:"monthly_allocation" binding:"omitempty,money"`
}

// CreateFund handles the creation of a sinking fund.
// @Summary     Create a sinking fund
// @Tags        funds
// @Accept      json
// @Produce     json
// @Param       request body CreateFundRequest true "Fund details"
// @Success     201 {object} models.SinkingFund "Fund created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /funds [post]
func (h *FundHandler) CreateFund(c *gin.Context) {
	var req CreateFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	monthly := decimal.Zero
	if req.MonthlyAllocation != "" {
		parsed, err := parseAmount("monthly_allocation", req.MonthlyAllocation)
		if err != nil {
			respondWithError(c, err)
			return
		}
		monthly = parsed
	}

	fund, err := h.fundService.Create(req.Name, req.Description, req.Color, monthly)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"fund": fund})
}

// ListFunds handles listing sinking funds.
// @Summary     List sinking funds
// @Tags        funds
// @Produce     json
// @Param       include_deleted query bool false "Include soft-deleted funds"
// @Success     200 {array} models.SinkingFund "Funds"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /funds [get]
func (h *FundHandler) ListFunds(c *gin.Context) {
	funds, err := h.fundService.List(c.Query("include_deleted") == "true")
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"funds": funds})
}

// GetFund handles fetching a single fund.
// @Summary     Get a sinking fund
// @Tags        funds
// @Produce     json
// @Param       id path int true "Fund ID"
// @Success     200 {object} models.SinkingFund "Fund"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /funds/{id} [get]
func (h *FundHandler) GetFund(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	fund, err := h.fundService.GetByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fund": fund})
}

// GetFundStatus handles the fund's diagnostic view.
// @Summary     Fund status
// @Description Balance plus the 30-day bill-buffer warning
// @Tags        funds
// @Produce     json
// @Param       id path int true "Fund ID"
// @Success     200 {object} services.FundStatus "Fund status"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /funds/{id}/status [get]
func (h *FundHandler) GetFundStatus(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	status, err := h.fundService.Status(id, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// RecomputeFundBalance handles an explicit replay of the fund's ledger.
// @Summary     Recompute a fund balance
// @Description Rebuild the cached balance from the full ledger history
// @Tags        funds
// @Produce     json
// @Param       id path int true "Fund ID"
// @Success     200 {object} models.SinkingFund "Fund with recomputed balance"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /funds/{id}/recompute [post]
func (h *FundHandler) RecomputeFundBalance(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	fund, err := h.fundService.RecomputeBalance(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fund": fund})
}

// UpdateFund handles updating a fund.
// @Summary     Update a sinking fund
// @Tags        funds
// @Accept      json
// @Produce     json
// @Param       id      path int true "Fund ID"
// @Param       request body UpdateFundRequest true "Fields to update"
// @Success     200 {object} models.SinkingFund "Updated fund"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /funds/{id} [put]
func (h *FundHandler) UpdateFund(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	var monthly *decimal.Decimal
	if req.MonthlyAllocation != nil {
		parsed, err := parseAmount("monthly_allocation", *req.MonthlyAllocation)
		if err != nil {
			respondWithError(c, err)
			return
		}
		monthly = &parsed
	}

	fund, err := h.fundService.Update(id, req.Name, req.Description, req.Color, monthly)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fund": fund})
}

// DeleteFund handles soft-deleting a fund.
// @Summary     Delete a sinking fund
// @Description Soft delete; ledger history is preserved
// @Tags        funds
// @Produce     json
// @Param       id path int true "Fund ID"
// @Success     204 "Deleted"
// @Failure     400 {object} ErrorResponse "Fund still pays active bills"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /funds/{id} [delete]
func (h *FundHandler) DeleteFund(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.fundService.Delete(id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
