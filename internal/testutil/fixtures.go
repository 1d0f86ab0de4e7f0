package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Amount parses a decimal string, failing the test on bad input.
func Amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad test amount %q: %v", s, err)
	}
	return d
}

// CreateTestCategory creates an expense category.
func CreateTestCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:  fmt.Sprintf("Test Category %d", nextID()),
		Type:  categoryType,
		Color: "#4F46E5",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudgetCategory creates an expense category flagged for budgeting.
func CreateTestBudgetCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:             name,
		Type:             models.CategoryTypeExpense,
		Color:            "#4F46E5",
		IsBudgetCategory: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test budget category: %v", err)
	}
	return category
}

// CreateTestFund creates a sinking fund with the given cached balance and a
// matching contribution entry so the cache survives a replay.
func CreateTestFund(t *testing.T, db *gorm.DB, name, balance string) *models.SinkingFund {
	t.Helper()

	fund := &models.SinkingFund{
		Name:  name,
		Color: "#0EA5E9",
	}
	if err := db.Create(fund).Error; err != nil {
		t.Fatalf("failed to create test fund: %v", err)
	}

	amount := Amount(t, balance)
	if amount.IsPositive() {
		entry := &models.Transaction{
			Date:          "2026-01-01",
			Description:   "Opening contribution",
			Amount:        amount,
			Type:          models.TransactionTypeExpense,
			Kind:          models.KindContribution,
			SinkingFundID: &fund.ID,
		}
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("failed to create opening contribution: %v", err)
		}
		if err := db.Model(fund).Update("current_balance", amount).Error; err != nil {
			t.Fatalf("failed to set fund balance: %v", err)
		}
		fund.CurrentBalance = amount
	}
	return fund
}

// CreateTestBudget creates a budget line for the category and month.
func CreateTestBudget(t *testing.T, db *gorm.DB, categoryID uint, month, year int, allocated string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		CategoryID:      categoryID,
		Month:           month,
		Year:            year,
		AllocatedAmount: Amount(t, allocated),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestBill creates an active recurring bill due on its start date.
func CreateTestBill(t *testing.T, db *gorm.DB, categoryID, fundID uint, amount, startDate string, frequency models.BillFrequency) *models.RecurringBill {
	t.Helper()

	bill := &models.RecurringBill{
		Name:           fmt.Sprintf("Test Bill %d", nextID()),
		Amount:         Amount(t, amount),
		DebtorProvider: "Test Provider",
		Frequency:      frequency,
		StartDate:      startDate,
		NextDueDate:    startDate,
		CategoryID:     categoryID,
		SinkingFundID:  fundID,
		IsActive:       true,
	}
	if err := db.Create(bill).Error; err != nil {
		t.Fatalf("failed to create test bill: %v", err)
	}
	return bill
}

// CreateTestExpense records a budget_expense entry against a category.
func CreateTestExpense(t *testing.T, db *gorm.DB, categoryID uint, date, amount string) *models.Transaction {
	t.Helper()

	entry := &models.Transaction{
		Date:        date,
		Description: fmt.Sprintf("Test Expense %d", nextID()),
		Amount:      Amount(t, amount),
		Type:        models.TransactionTypeExpense,
		Kind:        models.KindBudgetExpense,
		CategoryID:  &categoryID,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return entry
}
