package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/services"
)

// BillHandler handles recurring bill requests.
type BillHandler struct {
	billService services.BillServicer
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(billService services.BillServicer) *BillHandler {
	return &BillHandler{billService: billService}
}

// CreateBillRequest represents the request payload for creating a recurring bill.
type CreateBillRequest struct {
	Name           string  `json:"name" binding:"required,min=1,max=100"`
	Amount         string  `json:"amount" binding:"required,money"`
	DebtorProvider string  `json:"debtor_provider" binding:"required,min=1,max=150"`
	Frequency      string  `json:"frequency" binding:"required,bill_frequency"`
	StartDate      string  `json:"start_date" binding:"required,civil_date"`
	EndDate        *string `json:"end_date" binding:"omitempty,civil_date"`
	CategoryID     uint    `json:"category_id" binding:"required"`
	SinkingFundID  uint    `json:"sinking_fund_id" binding:"required"`
}

// UpdateBillRequest represents the request payload for updating a recurring bill.
type UpdateBillRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1,max=100"`
	Amount         *string `json:"amount" binding:"omitempty,money"`
	DebtorProvider *string `json:"debtor_provider" binding:"omitempty,min=1,max=150"`
	EndDate        *string `json:"end_date" binding:"omitempty,civil_date"`
	CategoryID     *uint   `json:"category_id"`
	SinkingFundID  *uint   `json:"sinking_fund_id"`
}

// CreateBill handles the creation of a recurring bill.
// @Summary     Create a recurring bill
// @Tags        bills
// @Accept      json
// @Produce     json
// @Param       request body CreateBillRequest true "Bill details"
// @Success     201 {object} models.RecurringBill "Bill created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category or fund not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /bills [post]
func (h *BillHandler) CreateBill(c *gin.Context) {
	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	amount, err := parsePositiveAmount("amount", req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.Create(services.CreateBillInput{
		Name:           req.Name,
		Amount:         amount,
		DebtorProvider: req.DebtorProvider,
		Frequency:      models.BillFrequency(req.Frequency),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		CategoryID:     req.CategoryID,
		SinkingFundID:  req.SinkingFundID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bill": bill})
}

// ListBills handles listing recurring bills.
// @Summary     List recurring bills
// @Tags        bills
// @Produce     json
// @Param       active query bool false "Only active bills"
// @Success     200 {array} models.RecurringBill "Bills"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /bills [get]
func (h *BillHandler) ListBills(c *gin.Context) {
	bills, err := h.billService.List(c.Query("active") == "true")
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": bills})
}

// GetBill handles fetching a single bill.
// @Summary     Get a recurring bill
// @Tags        bills
// @Produce     json
// @Param       id path int true "Bill ID"
// @Success     200 {object} models.RecurringBill "Bill"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /bills/{id} [get]
func (h *BillHandler) GetBill(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.GetByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": bill})
}

// UpdateBill handles updating a recurring bill.
// @Summary     Update a recurring bill
// @Tags        bills
// @Accept      json
// @Produce     json
// @Param       id      path int true "Bill ID"
// @Param       request body UpdateBillRequest true "Fields to update"
// @Success     200 {object} models.RecurringBill "Updated bill"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /bills/{id} [put]
func (h *BillHandler) UpdateBill(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		parsed, err := parsePositiveAmount("amount", *req.Amount)
		if err != nil {
			respondWithError(c, err)
			return
		}
		amount = &parsed
	}

	bill, err := h.billService.Update(id, services.UpdateBillInput{
		Name:           req.Name,
		Amount:         amount,
		DebtorProvider: req.DebtorProvider,
		EndDate:        req.EndDate,
		CategoryID:     req.CategoryID,
		SinkingFundID:  req.SinkingFundID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": bill})
}

// DeactivateBill handles retiring a recurring bill.
// @Summary     Deactivate a recurring bill
// @Description Bills are never hard-deleted; payment history is preserved
// @Tags        bills
// @Produce     json
// @Param       id path int true "Bill ID"
// @Success     204 "Deactivated"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /bills/{id} [delete]
func (h *BillHandler) DeactivateBill(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.billService.Deactivate(id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRecommendedAmount handles the leveled monthly bills figure.
// @Summary     Recommended monthly bills amount
// @Description Active bills leveled into one monthly savings figure
// @Tags        bills
// @Produce     json
// @Success     200 {object} map[string]string "Recommended amount"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /bills/recommended [get]
func (h *BillHandler) GetRecommendedAmount(c *gin.Context) {
	amount, err := h.billService.RecommendedMonthlyAmount()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommended_monthly_amount": amount})
}
