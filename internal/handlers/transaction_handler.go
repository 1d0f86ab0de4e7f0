package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// TransactionHandler handles ledger requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// RecordTransactionRequest represents the request payload for recording a
// ledger entry. Amount is a decimal string.
type RecordTransactionRequest struct {
	Date            string `json:"date" binding:"required,civil_date"`
	Description     string `json:"description" binding:"omitempty,max=500"`
	Amount          string `json:"amount" binding:"required,money"`
	Type            string `json:"type" binding:"required,transaction_type"`
	Kind            string `json:"kind" binding:"omitempty"`
	CategoryID      *uint  `json:"category_id"`
	SinkingFundID   *uint  `json:"sinking_fund_id"`
	RecurringBillID *uint  `json:"recurring_bill_id"`
	BudgetID        *uint  `json:"budget_id"`
	IsPaid          *bool  `json:"is_paid"`
}

// UpdateTransactionRequest represents the controlled edits on a ledger entry.
type UpdateTransactionRequest struct {
	Date        *string `json:"date" binding:"omitempty,civil_date"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Amount      *string `json:"amount" binding:"omitempty,money"`
	CategoryID  *uint   `json:"category_id"`
	IsPaid      *bool   `json:"is_paid"`
}

// RecordTransaction handles appending a ledger entry.
// @Summary     Record a transaction
// @Description Append an immutable ledger entry
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body RecordTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction recorded"
// @Failure     400 {object} ErrorResponse "Invalid input or linkage"
// @Failure     404 {object} ErrorResponse "Linked entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) RecordTransaction(c *gin.Context) {
	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	amount, err := parsePositiveAmount("amount", req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.Record(services.RecordTransactionInput{
		Date:            req.Date,
		Description:     req.Description,
		Amount:          amount,
		Type:            models.TransactionType(req.Type),
		Kind:            models.TransactionKind(req.Kind),
		CategoryID:      req.CategoryID,
		SinkingFundID:   req.SinkingFundID,
		RecurringBillID: req.RecurringBillID,
		BudgetID:        req.BudgetID,
		IsPaid:          req.IsPaid,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ListTransactions handles listing ledger entries.
// @Summary     List transactions
// @Description Paginated ledger entries, date ascending with stable ties
// @Tags        transactions
// @Produce     json
// @Param       month       query int    false "Month filter (1-12, requires year)"
// @Param       year        query int    false "Year filter"
// @Param       type        query string false "Direction filter (income/expense)"
// @Param       kind        query string false "Kind filter"
// @Param       category_id query int    false "Category filter"
// @Param       fund_id     query int    false "Sinking fund filter"
// @Param       bill_id     query int    false "Recurring bill filter"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 50, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.List(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	intQuery := func(name string) (*int, error) {
		v := c.Query(name)
		if v == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "Invalid "+name)
		}
		return &n, nil
	}
	uintQuery := func(name string) (*uint, error) {
		v := c.Query(name)
		if v == "" {
			return nil, nil
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "Invalid "+name)
		}
		id := uint(n)
		return &id, nil
	}

	var err error
	if filter.Month, err = intQuery("month"); err != nil {
		return filter, err
	}
	if filter.Year, err = intQuery("year"); err != nil {
		return filter, err
	}
	if filter.Month != nil && filter.Year == nil {
		return filter, apperrors.WithMessage(apperrors.ErrValidation, "month filter requires year")
	}
	if v := c.Query("type"); v != "" {
		t := models.TransactionType(v)
		filter.Type = &t
	}
	if v := c.Query("kind"); v != "" {
		k := models.TransactionKind(v)
		filter.Kind = &k
	}
	if filter.CategoryID, err = uintQuery("category_id"); err != nil {
		return filter, err
	}
	if filter.SinkingFundID, err = uintQuery("fund_id"); err != nil {
		return filter, err
	}
	if filter.RecurringBillID, err = uintQuery("bill_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetTransaction handles fetching a single ledger entry.
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles the controlled edits on a ledger entry.
// @Summary     Update a transaction
// @Description Edit amount, date, category, description, or paid flag
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id      path int true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	input := services.UpdateTransactionInput{
		Date:        req.Date,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		IsPaid:      req.IsPaid,
	}
	if req.Amount != nil {
		amount, err := parsePositiveAmount("amount", *req.Amount)
		if err != nil {
			respondWithError(c, err)
			return
		}
		input.Amount = &amount
	}

	transaction, err := h.transactionService.Update(id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the hard delete of a ledger entry.
// @Summary     Delete a transaction
// @Description Hard-delete a ledger row; dependent balances are recomputed
// @Tags        transactions
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.Delete(id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
