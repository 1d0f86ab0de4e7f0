package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/money"
)

// The ledger is the source of truth. SinkingFund.CurrentBalance and
// Budget.{SpentAmount,FundBalance} are caches rebuilt by the replay functions
// below, never patched incrementally, so a deleted or edited entry can never
// leave drift behind.

// monthPrefix returns the date-string prefix matching every civil date in the
// given month, e.g. "2026-02-".
func monthPrefix(month, year int) string {
	return fmt.Sprintf("%04d-%02d-", year, month)
}

func sumAmounts(query *gorm.DB) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := query.Select("SUM(amount)").Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return money.Round(sum.Decimal), nil
}

// recomputeFundBalance replays the fund's full transaction history and writes
// the resulting balance back to the cached CurrentBalance column.
//
// Inflows: contributions and income allocations credited to the fund, plus
// regular income entries linked to it. Outflows: withdrawals, budget transfers
// out of the fund, and regular expenses linked to it (bill payments included).
func recomputeFundBalance(tx *gorm.DB, fundID uint) error {
	inflows, err := sumAmounts(tx.Model(&models.Transaction{}).
		Where("sinking_fund_id = ?", fundID).
		Where("kind IN ? OR (kind = ? AND type = ?)",
			[]models.TransactionKind{models.KindContribution, models.KindIncomeAllocation},
			models.KindRegular, models.TransactionTypeIncome))
	if err != nil {
		return err
	}

	outflows, err := sumAmounts(tx.Model(&models.Transaction{}).
		Where("sinking_fund_id = ?", fundID).
		Where("kind IN ? OR (kind = ? AND type = ?)",
			[]models.TransactionKind{models.KindWithdrawal, models.KindBudgetTransfer},
			models.KindRegular, models.TransactionTypeExpense))
	if err != nil {
		return err
	}

	balance := inflows.Sub(outflows)
	return tx.Model(&models.SinkingFund{}).
		Where("id = ?", fundID).
		Update("current_balance", balance).Error
}

// recomputeBudget replays the month's budget expenses and the budget's
// transfer inflows, then writes both cached columns back.
func recomputeBudget(tx *gorm.DB, budgetID uint) error {
	var budget models.Budget
	if err := tx.First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrBudgetNotFound
		}
		return err
	}

	spent, err := sumAmounts(tx.Model(&models.Transaction{}).
		Where("kind = ? AND category_id = ? AND date LIKE ?",
			models.KindBudgetExpense, budget.CategoryID, monthPrefix(budget.Month, budget.Year)+"%"))
	if err != nil {
		return err
	}

	fundBalance, err := sumAmounts(tx.Model(&models.Transaction{}).
		Where("kind = ? AND budget_id = ?", models.KindBudgetTransfer, budgetID))
	if err != nil {
		return err
	}

	return tx.Model(&models.Budget{}).
		Where("id = ?", budgetID).
		Updates(map[string]interface{}{
			"spent_amount": spent,
			"fund_balance": fundBalance,
		}).Error
}

// recomputeForTransaction rebuilds every cached balance the given ledger entry
// can have contributed to. Called after any create, edit, or delete.
func recomputeForTransaction(tx *gorm.DB, t *models.Transaction) error {
	if t.SinkingFundID != nil {
		if err := recomputeFundBalance(tx, *t.SinkingFundID); err != nil {
			return err
		}
	}
	if t.BudgetID != nil {
		if err := recomputeBudget(tx, *t.BudgetID); err != nil {
			return err
		}
	}
	if t.Kind == models.KindBudgetExpense && t.CategoryID != nil && t.BudgetID == nil {
		// The entry's date decides which month's budget row it hits.
		month, year, err := monthOfDate(t.Date)
		if err != nil {
			return err
		}
		var budget models.Budget
		err = tx.Where("category_id = ? AND month = ? AND year = ?", *t.CategoryID, month, year).
			First(&budget).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return recomputeBudget(tx, budget.ID)
	}
	return nil
}

// monthOfDate extracts the month and year from a civil date string.
func monthOfDate(date string) (month, year int, err error) {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return int(d.Month()), d.Year(), nil
}
