package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// budgetService handles monthly budget accounting.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// Create creates a budget line for a category and month.
func (s *budgetService) Create(categoryID uint, month, year int, allocated decimal.Decimal) (*models.Budget, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "month must be between 1 and 12")
	}
	if allocated.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "allocated amount cannot be negative")
	}

	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.IsDeleted {
		return nil, apperrors.ErrCategoryNotFound
	}
	if !category.IsBudgetCategory {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "category is not a budget category")
	}

	var existing int64
	if err := s.db.Model(&models.Budget{}).
		Where("category_id = ? AND month = ? AND year = ?", categoryID, month, year).
		Count(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return nil, apperrors.ErrDuplicateBudget
	}

	budget := &models.Budget{
		CategoryID:      categoryID,
		Month:           month,
		Year:            year,
		AllocatedAmount: allocated,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// Ledger history for the category and month may predate the line.
		return recomputeBudget(tx, budget.ID)
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return s.GetByID(budget.ID)
}

// List returns the month's budget lines.
func (s *budgetService) List(month, year int) ([]models.Budget, error) {
	var budgets []models.Budget
	err := s.db.Preload("Category").
		Where("month = ? AND year = ?", month, year).
		Order("id ASC").
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// GetByID returns a budget line by ID.
func (s *budgetService) GetByID(id uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").First(&budget, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateAllocated changes a budget line's allocation target.
func (s *budgetService) UpdateAllocated(id uint, allocated decimal.Decimal) (*models.Budget, error) {
	if allocated.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "allocated amount cannot be negative")
	}
	budget, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(budget).Update("allocated_amount", allocated).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// Delete removes a budget line. Lines with ledger history cannot be removed.
func (s *budgetService) Delete(id uint) error {
	budget, err := s.GetByID(id)
	if err != nil {
		return err
	}

	var linked int64
	if err := s.db.Model(&models.Transaction{}).
		Where("budget_id = ?", id).
		Count(&linked).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if linked > 0 {
		return apperrors.WithMessage(apperrors.ErrValidation, "budget has linked transactions and cannot be deleted")
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecomputeSpent rebuilds the budget's cached columns from the ledger.
func (s *budgetService) RecomputeSpent(id uint) (*models.Budget, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return recomputeBudget(tx, id)
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return s.GetByID(id)
}

// Status returns the month's budget lines with their overspend condition. The
// accounting layer only reports overspend; resolving it is a separate,
// explicit action.
func (s *budgetService) Status(month, year int) ([]BudgetStatus, error) {
	budgets, err := s.List(month, year)
	if err != nil {
		return nil, err
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, budget := range budgets {
		over := budget.Overspend()
		statuses = append(statuses, BudgetStatus{
			Budget:      budget,
			Overspend:   over,
			IsOverspent: over.IsPositive(),
		})
	}
	return statuses, nil
}

// MonthlyBudgetAllocation returns the plain sum of the month's allocations
// across non-deleted categories.
func (s *budgetService) MonthlyBudgetAllocation(month, year int) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := s.db.Model(&models.Budget{}).
		Joins("JOIN categories ON categories.id = budgets.category_id").
		Where("budgets.month = ? AND budgets.year = ? AND categories.is_deleted = ?", month, year, false).
		Select("SUM(budgets.allocated_amount)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// ResolveOverspend moves money from a source fund into an overspent budget's
// working balance. One budget_transfer entry simultaneously debits the fund
// and credits the budget's FundBalance buffer, so the deficit is absorbed
// without falsifying SpentAmount. All-or-nothing.
func (s *budgetService) ResolveOverspend(budgetID, sourceFundID uint, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "transfer amount must be greater than zero")
	}

	var transfer *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var budget models.Budget
		if err := tx.First(&budget, budgetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBudgetNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// Recompute before judging the overspend condition so a stale cache
		// can neither block a legitimate transfer nor allow a double one.
		if err := recomputeBudget(tx, budget.ID); err != nil {
			return err
		}
		if err := tx.First(&budget, budgetID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		remaining := budget.Overspend().Sub(budget.FundBalance)
		if !remaining.IsPositive() {
			return apperrors.ErrNotOverspent
		}

		var fund models.SinkingFund
		if err := tx.First(&fund, sourceFundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrFundNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if fund.IsDeleted {
			return apperrors.ErrFundNotFound
		}
		if fund.CurrentBalance.LessThan(amount) {
			return apperrors.ErrInsufficientFunds
		}

		transfer = &models.Transaction{
			Date:          firstOfMonthDate(budget.Month, budget.Year),
			Description:   fmt.Sprintf("Overspend cover from %s", fund.Name),
			Amount:        amount,
			Type:          models.TransactionTypeExpense,
			Kind:          models.KindBudgetTransfer,
			CategoryID:    &budget.CategoryID,
			SinkingFundID: &fund.ID,
			BudgetID:      &budget.ID,
		}
		if err := tx.Create(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := recomputeFundBalance(tx, fund.ID); err != nil {
			return err
		}
		return recomputeBudget(tx, budget.ID)
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return transfer, nil
}

// firstOfMonthDate returns the civil date of the month's first day.
func firstOfMonthDate(month, year int) string {
	return fmt.Sprintf("%04d-%02d-01", year, month)
}

// toAppError passes AppErrors through, surfaces database isolation conflicts
// as retryable, and wraps anything else as internal.
func toAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if isIsolationConflict(err) {
		return apperrors.Wrap(apperrors.ErrConflict, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// isIsolationConflict reports whether err is a concurrency failure the caller
// can retry: postgres serialization failure or deadlock, or sqlite lock
// contention.
func isIsolationConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
