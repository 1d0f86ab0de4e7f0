package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// transactionService handles ledger business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// validateLinkage enforces the dual-linkage invariant: the linkage fields a
// ledger entry carries must be consistent with its kind. A regular entry may
// reference both a fund and a bill (a bill paid from its fund), but a bill
// link without the paying fund is always inconsistent.
func validateLinkage(kind models.TransactionKind, categoryID, fundID, billID, budgetID *uint) error {
	if budgetID != nil && kind != models.KindBudgetTransfer {
		return apperrors.WithMessage(apperrors.ErrValidation, "only budget transfers may reference a budget")
	}
	switch kind {
	case models.KindRegular:
		if categoryID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "regular transactions require a category")
		}
		if billID != nil && fundID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "bill-linked transactions must also reference the paying fund")
		}
	case models.KindIncome:
		if fundID != nil || billID != nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "income transactions cannot reference a fund or bill")
		}
	case models.KindIncomeAllocation:
		if billID != nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "income allocations cannot reference a bill")
		}
		if fundID != nil && categoryID != nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "income allocations target a fund or a category, not both")
		}
	case models.KindContribution, models.KindWithdrawal:
		if fundID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "fund movements require a sinking fund")
		}
		if billID != nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "fund movements cannot reference a bill")
		}
	case models.KindBudgetExpense:
		if categoryID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "budget expenses require a category")
		}
		if fundID != nil || billID != nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "budget expenses cannot reference a fund or bill")
		}
	case models.KindBudgetTransfer:
		if fundID == nil || budgetID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "budget transfers require a source fund and a destination budget")
		}
		if billID != nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "budget transfers cannot reference a bill")
		}
	default:
		return apperrors.WithMessage(apperrors.ErrValidation, "unknown transaction kind")
	}
	return nil
}

// directionFor returns the required cash direction for kinds that fix one.
func directionFor(kind models.TransactionKind) (models.TransactionType, bool) {
	switch kind {
	case models.KindIncome:
		return models.TransactionTypeIncome, true
	case models.KindWithdrawal:
		return models.TransactionTypeIncome, true
	case models.KindIncomeAllocation, models.KindContribution,
		models.KindBudgetExpense, models.KindBudgetTransfer:
		return models.TransactionTypeExpense, true
	}
	return "", false
}

// Record appends an immutable ledger entry. Validation happens before any
// write; the insert and every dependent balance recompute commit together.
func (s *transactionService) Record(input RecordTransactionInput) (*models.Transaction, error) {
	if !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	}
	if _, err := time.Parse(models.DateLayout, input.Date); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "date must be in YYYY-MM-DD format")
	}
	if input.Kind == "" {
		input.Kind = models.KindRegular
	}
	if err := validateLinkage(input.Kind, input.CategoryID, input.SinkingFundID, input.RecurringBillID, input.BudgetID); err != nil {
		return nil, err
	}
	if required, ok := directionFor(input.Kind); ok && input.Type != required {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "transaction type is inconsistent with its kind")
	}

	isPaid := true
	if input.IsPaid != nil {
		isPaid = *input.IsPaid
	}

	transaction := &models.Transaction{
		Date:            input.Date,
		Description:     input.Description,
		Amount:          input.Amount,
		Type:            input.Type,
		Kind:            input.Kind,
		CategoryID:      input.CategoryID,
		SinkingFundID:   input.SinkingFundID,
		RecurringBillID: input.RecurringBillID,
		BudgetID:        input.BudgetID,
		IsPaid:          isPaid,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.CategoryID != nil {
			if err := requireCategory(tx, *input.CategoryID); err != nil {
				return err
			}
		}
		if input.SinkingFundID != nil {
			if err := requireFund(tx, *input.SinkingFundID); err != nil {
				return err
			}
		}
		if input.RecurringBillID != nil {
			var bill models.RecurringBill
			if err := tx.First(&bill, *input.RecurringBillID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrBillNotFound
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if input.BudgetID != nil {
			var budget models.Budget
			if err := tx.First(&budget, *input.BudgetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrBudgetNotFound
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			// The transfer belongs to the destination budget's category.
			if transaction.CategoryID == nil {
				transaction.CategoryID = &budget.CategoryID
			} else if *transaction.CategoryID != budget.CategoryID {
				return apperrors.WithMessage(apperrors.ErrValidation, "budget transfer category must match the destination budget")
			}
		}

		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return recomputeForTransaction(tx, transaction)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(transaction.ID)
}

// List returns ledger entries ordered by date ascending, then insertion order
// for same-date ties, so balance replay is deterministic.
func (s *transactionService) List(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{})
	if filter.Month != nil && filter.Year != nil {
		base = base.Where("date LIKE ?", monthPrefix(*filter.Month, *filter.Year)+"%")
	} else if filter.Year != nil {
		base = base.Where("date LIKE ?", fmt.Sprintf("%04d-%%", *filter.Year))
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.Kind != nil {
		base = base.Where("kind = ?", *filter.Kind)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SinkingFundID != nil {
		base = base.Where("sinking_fund_id = ?", *filter.SinkingFundID)
	}
	if filter.RecurringBillID != nil {
		base = base.Where("recurring_bill_id = ?", *filter.RecurringBillID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.
		Preload("Category").Preload("SinkingFund").Preload("RecurringBill").
		Order("date ASC, id ASC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetByID returns a ledger entry with its linked entities preloaded.
func (s *transactionService) GetByID(id uint) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.
		Preload("Category").Preload("SinkingFund").Preload("RecurringBill").Preload("Budget").
		First(&transaction, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// Update applies the controlled edits (amount, date, category, description,
// paid flag) and rebuilds every balance the entry touched before or after the
// edit. Linkage and kind are immutable.
func (s *transactionService) Update(id uint, input UpdateTransactionInput) (*models.Transaction, error) {
	if input.Amount != nil && !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	}
	if input.Date != nil {
		if _, err := time.Parse(models.DateLayout, *input.Date); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "date must be in YYYY-MM-DD format")
		}
	}

	var updated *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var transaction models.Transaction
		if err := tx.First(&transaction, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		before := transaction

		updates := make(map[string]interface{})
		if input.Date != nil {
			updates["date"] = *input.Date
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.Amount != nil {
			updates["amount"] = *input.Amount
		}
		if input.CategoryID != nil {
			if transaction.CategoryID == nil {
				return apperrors.WithMessage(apperrors.ErrValidation, "cannot attach a category to this transaction kind")
			}
			if err := requireCategory(tx, *input.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *input.CategoryID
		}
		if input.IsPaid != nil {
			updates["is_paid"] = *input.IsPaid
		}

		if len(updates) > 0 {
			if err := tx.Model(&transaction).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		// Rebuild balances for both the old and the new shape of the entry:
		// a date or category edit can move it between budget months.
		if err := recomputeForTransaction(tx, &before); err != nil {
			return err
		}
		if err := recomputeForTransaction(tx, &transaction); err != nil {
			return err
		}
		updated = &transaction
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(updated.ID)
}

// Delete hard-deletes a ledger row and rebuilds every balance that included it.
func (s *transactionService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var transaction models.Transaction
		if err := tx.First(&transaction, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Unscoped().Delete(&models.Transaction{}, id).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return recomputeForTransaction(tx, &transaction)
	})
}

// requireCategory loads a category and rejects soft-deleted ones for new linkage.
func requireCategory(tx *gorm.DB, id uint) error {
	var category models.Category
	if err := tx.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.IsDeleted {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// requireFund loads a fund and rejects soft-deleted ones for new linkage.
func requireFund(tx *gorm.DB, id uint) error {
	var fund models.SinkingFund
	if err := tx.First(&fund, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrFundNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if fund.IsDeleted {
		return apperrors.ErrFundNotFound
	}
	return nil
}
