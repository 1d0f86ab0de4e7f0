package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/services"
)

// BudgetHandler handles monthly budget requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// CreateBudgetRequest represents the request payload for creating a budget line.
type CreateBudgetRequest struct {
	CategoryID      uint   `json:"category_id" binding:"required"`
	Month           int    `json:"month" binding:"required,min=1,max=12"`
	Year            int    `json:"year" binding:"required,min=1970"`
	AllocatedAmount string `json:"allocated_amount" binding:"required,money"`
}

// UpdateBudgetRequest represents the request payload for updating a budget line.
type UpdateBudgetRequest struct {
	AllocatedAmount string `json:"allocated_amount" binding:"required,money"`
}

// ResolveOverspendRequest represents the request payload for an overspend transfer.
type ResolveOverspendRequest struct {
	SourceFundID uint   `json:"source_fund_id" binding:"required"`
	Amount       string `json:"amount" binding:"required,money"`
}

// CreateBudget handles the creation of a budget line.
// @Summary     Create a budget line
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Budget already exists for the month"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	allocated, err := parseAmount("allocated_amount", req.AllocatedAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.Create(req.CategoryID, req.Month, req.Year, allocated)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgetStatus handles the month's budget status view.
// @Summary     Budget status for a month
// @Description Allocated, spent, buffer, and overspend state per category
// @Tags        budgets
// @Produce     json
// @Param       month query int true "Month (1-12)"
// @Param       year  query int true "Year"
// @Success     200 {array} services.BudgetStatus "Budget statuses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/status [get]
func (h *BudgetHandler) GetBudgetStatus(c *gin.Context) {
	month, year, err := parseMonthYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	statuses, err := h.budgetService.Status(month, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	total, err := h.budgetService.MonthlyBudgetAllocation(month, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": statuses, "total_allocated": total})
}

// GetBudget handles fetching a single budget line.
// @Summary     Get a budget line
// @Tags        budgets
// @Produce     json
// @Param       id path int true "Budget ID"
// @Success     200 {object} models.Budget "Budget"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating a budget line's allocation.
// @Summary     Update a budget line
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id      path int true "Budget ID"
// @Param       request body UpdateBudgetRequest true "New allocation"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	allocated, err := parseAmount("allocated_amount", req.AllocatedAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.UpdateAllocated(id, allocated)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles removing a budget line.
// @Summary     Delete a budget line
// @Tags        budgets
// @Produce     json
// @Param       id path int true "Budget ID"
// @Success     204 "Deleted"
// @Failure     400 {object} ErrorResponse "Budget has ledger history"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.Delete(id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResolveOverspend handles the explicit overspend transfer.
// @Summary     Resolve an overspent budget
// @Description Move money from a source fund into the budget's buffer
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id      path int true "Budget ID"
// @Param       request body ResolveOverspendRequest true "Source fund and amount"
// @Success     200 {object} models.Transaction "Budget transfer recorded"
// @Failure     400 {object} ErrorResponse "Not overspent or insufficient funds"
// @Failure     404 {object} ErrorResponse "Budget or fund not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/resolve-overspend [post]
func (h *BudgetHandler) ResolveOverspend(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ResolveOverspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	amount, err := parsePositiveAmount("amount", req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.budgetService.ResolveOverspend(id, req.SourceFundID, amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transfer})
}
