package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/services"
)

// IncomeHandler handles income allocation plan requests.
type IncomeHandler struct {
	allocationService services.AllocationServicer
}

// NewIncomeHandler creates a new IncomeHandler.
func NewIncomeHandler(allocationService services.AllocationServicer) *IncomeHandler {
	return &IncomeHandler{allocationService: allocationService}
}

// AllocationTargetRequest is one ordered step of the plan payload.
type AllocationTargetRequest struct {
	SinkingFundID *uint   `json:"sinking_fund_id"`
	CategoryID    *uint   `json:"category_id"`
	Amount        *string `json:"amount" binding:"omitempty,money"`
	Percent       *string `json:"percent"`
}

// UpsertPlanRequest represents the full plan payload.
type UpsertPlanRequest struct {
	MonthlyIncome        string                    `json:"monthly_income" binding:"required,money"`
	BudgetAllocation     string                    `json:"budget_allocation" binding:"omitempty,money"`
	BillsFundMethod      string                    `json:"bills_fund_method" binding:"required,bills_fund_method"`
	BillsFundFixedAmount *string                   `json:"bills_fund_fixed_amount" binding:"omitempty,money"`
	Targets              []AllocationTargetRequest `json:"targets"`
}

// GetPlan handles fetching the allocation plan.
// @Summary     Get the income allocation plan
// @Tags        income
// @Produce     json
// @Success     200 {object} models.AllocationPlan "Plan"
// @Failure     404 {object} ErrorResponse "No plan configured"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /income/plan [get]
func (h *IncomeHandler) GetPlan(c *gin.Context) {
	plan, err := h.allocationService.GetPlan()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// UpsertPlan handles replacing the allocation plan.
// @Summary     Configure the income allocation plan
// @Description Replace the plan; validated so the total never exceeds income
// @Tags        income
// @Accept      json
// @Produce     json
// @Param       request body UpsertPlanRequest true "Plan details"
// @Success     200 {object} models.AllocationPlan "Plan stored"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Plan total exceeds income"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /income/plan [put]
func (h *IncomeHandler) UpsertPlan(c *gin.Context) {
	var req UpsertPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	income, err := parsePositiveAmount("monthly_income", req.MonthlyIncome)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetAllocation := decimal.Zero
	if req.BudgetAllocation != "" {
		budgetAllocation, err = parseAmount("budget_allocation", req.BudgetAllocation)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	var billsFixed *decimal.Decimal
	if req.BillsFundFixedAmount != nil {
		parsed, err := parseAmount("bills_fund_fixed_amount", *req.BillsFundFixedAmount)
		if err != nil {
			respondWithError(c, err)
			return
		}
		billsFixed = &parsed
	}

	targets := make([]services.AllocationTargetInput, 0, len(req.Targets))
	for _, t := range req.Targets {
		target := services.AllocationTargetInput{
			SinkingFundID: t.SinkingFundID,
			CategoryID:    t.CategoryID,
		}
		if t.Amount != nil {
			parsed, err := parsePositiveAmount("target amount", *t.Amount)
			if err != nil {
				respondWithError(c, err)
				return
			}
			target.Amount = &parsed
		}
		if t.Percent != nil {
			parsed, err := decimal.NewFromString(*t.Percent)
			if err != nil {
				respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "target percent is not a decimal"))
				return
			}
			target.Percent = &parsed
		}
		targets = append(targets, target)
	}

	plan, err := h.allocationService.UpsertPlan(services.UpsertPlanInput{
		MonthlyIncome:        income,
		BudgetAllocation:     budgetAllocation,
		BillsFundMethod:      models.BillsAllocationMethod(req.BillsFundMethod),
		BillsFundFixedAmount: billsFixed,
		Targets:              targets,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// GetUnallocated handles the month's unallocated income residue.
// @Summary     Unallocated income for a month
// @Tags        income
// @Produce     json
// @Param       month query int true "Month (1-12)"
// @Param       year  query int true "Year"
// @Success     200 {object} map[string]string "Unallocated amount"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /income/unallocated [get]
func (h *IncomeHandler) GetUnallocated(c *gin.Context) {
	month, year, err := parseMonthYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	amount, err := h.allocationService.UnallocatedFor(month, year)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": month, "year": year, "unallocated": amount})
}
