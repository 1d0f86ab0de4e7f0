package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// recentTransactionCount is how many ledger entries the dashboard shows.
const recentTransactionCount = 10

// dashboardService assembles the read-only month summary.
type dashboardService struct {
	db         *gorm.DB
	budgets    BudgetServicer
	funds      FundServicer
	allocation AllocationServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB, budgets BudgetServicer, funds FundServicer, allocation AllocationServicer) DashboardServicer {
	return &dashboardService{db: db, budgets: budgets, funds: funds, allocation: allocation}
}

// Summary aggregates the month's position: real cash in and out, budget lines
// with their overspend state, fund balances with buffer warnings, unallocated
// income, and the latest ledger entries. Internal movements (allocations,
// contributions, withdrawals, transfers) are excluded from the income and
// expense totals so money is never counted twice.
func (s *dashboardService) Summary(month, year int, now time.Time) (*DashboardSummary, error) {
	prefix := monthPrefix(month, year) + "%"

	totalIncome, err := sumAmounts(s.db.Model(&models.Transaction{}).
		Where("date LIKE ? AND type = ? AND kind IN ?", prefix,
			models.TransactionTypeIncome,
			[]models.TransactionKind{models.KindRegular, models.KindIncome}))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totalExpenses, err := sumAmounts(s.db.Model(&models.Transaction{}).
		Where("date LIKE ? AND type = ? AND kind IN ?", prefix,
			models.TransactionTypeExpense,
			[]models.TransactionKind{models.KindRegular, models.KindBudgetExpense}))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	unallocated, err := s.allocation.UnallocatedFor(month, year)
	if err != nil {
		return nil, err
	}

	budgetStatuses, err := s.budgets.Status(month, year)
	if err != nil {
		return nil, err
	}
	totalAllocated, err := s.budgets.MonthlyBudgetAllocation(month, year)
	if err != nil {
		return nil, err
	}
	totalSpent := decimal.Zero
	for _, status := range budgetStatuses {
		totalSpent = totalSpent.Add(status.Budget.SpentAmount)
	}

	fundList, err := s.funds.List(false)
	if err != nil {
		return nil, err
	}
	fundStatuses := make([]FundStatus, 0, len(fundList))
	for _, fund := range fundList {
		status, err := s.funds.Status(fund.ID, now)
		if err != nil {
			return nil, err
		}
		fundStatuses = append(fundStatuses, *status)
	}

	var recent []models.Transaction
	err = s.db.Preload("Category").Preload("SinkingFund").Preload("RecurringBill").
		Order("date DESC, id DESC").
		Limit(recentTransactionCount).
		Find(&recent).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &DashboardSummary{
		Month:              month,
		Year:               year,
		TotalIncome:        totalIncome,
		TotalExpenses:      totalExpenses,
		Net:                totalIncome.Sub(totalExpenses),
		UnallocatedIncome:  unallocated,
		TotalAllocated:     totalAllocated,
		TotalSpent:         totalSpent,
		Budgets:            budgetStatuses,
		Funds:              fundStatuses,
		RecentTransactions: recent,
	}, nil
}
