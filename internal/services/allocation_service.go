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

// allocationService handles the income allocation plan and the monthly run.
type allocationService struct {
	db *gorm.DB
}

// NewAllocationService creates a new AllocationServicer.
func NewAllocationService(db *gorm.DB) AllocationServicer {
	return &allocationService{db: db}
}

// GetPlan returns the active allocation plan with its ordered targets.
func (s *allocationService) GetPlan() (*models.AllocationPlan, error) {
	var plan models.AllocationPlan
	err := s.db.Preload("Targets", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &plan, nil
}

// UpsertPlan replaces the allocation plan. The plan is validated here, at
// configuration time, so that its total can never exceed the expected income;
// historical runs are never retroactively invalidated by later edits.
func (s *allocationService) UpsertPlan(input UpsertPlanInput) (*models.AllocationPlan, error) {
	if !input.MonthlyIncome.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "monthly income must be greater than zero")
	}
	if input.BudgetAllocation.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "budget allocation cannot be negative")
	}
	switch input.BillsFundMethod {
	case models.BillsAllocationRecommended:
	case models.BillsAllocationFixed:
		if input.BillsFundFixedAmount == nil || input.BillsFundFixedAmount.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "fixed bills method requires a non-negative fixed amount")
		}
	default:
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unknown bills fund method")
	}

	targets := make([]models.AllocationTarget, 0, len(input.Targets))
	for i, t := range input.Targets {
		if (t.SinkingFundID == nil) == (t.CategoryID == nil) {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("target %d must reference exactly one of a fund or a category", i+1))
		}
		if (t.Amount == nil) == (t.Percent == nil) {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("target %d must set exactly one of amount or percent", i+1))
		}
		if t.Amount != nil && !t.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("target %d amount must be greater than zero", i+1))
		}
		if t.Percent != nil && (!t.Percent.IsPositive() || t.Percent.GreaterThan(decimal.NewFromInt(100))) {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("target %d percent must be between 0 and 100", i+1))
		}
		targets = append(targets, models.AllocationTarget{
			Position:      i + 1,
			SinkingFundID: t.SinkingFundID,
			CategoryID:    t.CategoryID,
			Amount:        t.Amount,
			Percent:       t.Percent,
		})
	}

	plan := &models.AllocationPlan{
		MonthlyIncome:        input.MonthlyIncome,
		BudgetAllocation:     input.BudgetAllocation,
		BillsFundMethod:      input.BillsFundMethod,
		BillsFundFixedAmount: input.BillsFundFixedAmount,
		Targets:              targets,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, t := range targets {
			if t.SinkingFundID != nil {
				if err := requireFund(tx, *t.SinkingFundID); err != nil {
					return err
				}
			}
			if t.CategoryID != nil {
				if err := requireCategory(tx, *t.CategoryID); err != nil {
					return err
				}
			}
		}

		total, err := planTotal(tx, plan)
		if err != nil {
			return err
		}
		if total.GreaterThan(plan.MonthlyIncome) {
			return apperrors.WithMessage(apperrors.ErrConfiguration,
				fmt.Sprintf("plan allocates %s but monthly income is %s",
					money.String(total), money.String(plan.MonthlyIncome)))
		}

		// Single-plan system: replace whatever is configured.
		if err := tx.Where("1 = 1").Delete(&models.AllocationTarget{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.AllocationPlan{}).Error; err != nil {
			return err
		}
		return tx.Create(plan).Error
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return s.GetPlan()
}

// planTotal computes everything the plan would distribute from one month's
// income: the budget lump, the bills fund share, and each ordered target.
func planTotal(tx *gorm.DB, plan *models.AllocationPlan) (decimal.Decimal, error) {
	bills, err := billsFundShare(tx, plan)
	if err != nil {
		return decimal.Zero, err
	}

	total := plan.BudgetAllocation.Add(bills)
	for _, t := range plan.Targets {
		total = total.Add(targetAmount(plan.MonthlyIncome, t))
	}
	return total, nil
}

func billsFundShare(tx *gorm.DB, plan *models.AllocationPlan) (decimal.Decimal, error) {
	if plan.BillsFundMethod == models.BillsAllocationFixed {
		if plan.BillsFundFixedAmount == nil {
			return decimal.Zero, apperrors.WithMessage(apperrors.ErrConfiguration, "fixed bills method has no fixed amount")
		}
		return *plan.BillsFundFixedAmount, nil
	}
	return recommendedMonthlyBills(tx)
}

func targetAmount(income decimal.Decimal, t models.AllocationTarget) decimal.Decimal {
	if t.Amount != nil {
		return *t.Amount
	}
	return money.Percent(income, *t.Percent)
}

// ProcessMonthlyIncome runs the allocator for the month containing now.
// Returns false without error when the month has already been allocated; the
// persisted income entry is the idempotency marker, so a crashed or delayed
// run catching up can never double-allocate. The whole distribution is one
// atomic transaction: a misconfigured plan fails with no partial allocation.
func (s *allocationService) ProcessMonthlyIncome(now time.Time) (bool, error) {
	month, year := int(now.Month()), now.Year()
	ran := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Transaction{}).
			Where("kind = ? AND date LIKE ?", models.KindIncome, monthPrefix(month, year)+"%").
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		var plan models.AllocationPlan
		err := tx.Preload("Targets", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).First(&plan).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrPlanNotFound
		}
		if err != nil {
			return err
		}

		income := plan.MonthlyIncome
		billsShare, err := billsFundShare(tx, &plan)
		if err != nil {
			return err
		}

		// Validated again at run time: the recommended bills share moves with
		// the bill roster, so the configured plan can drift over income.
		total := plan.BudgetAllocation.Add(billsShare)
		for _, t := range plan.Targets {
			total = total.Add(targetAmount(income, t))
		}
		if total.GreaterThan(income) {
			return apperrors.WithMessage(apperrors.ErrConfiguration,
				fmt.Sprintf("plan allocates %s but monthly income is %s",
					money.String(total), money.String(income)))
		}

		date := firstOfMonthDate(month, year)

		incomeEntry := &models.Transaction{
			Date:        date,
			Description: "Monthly income",
			Amount:      income,
			Type:        models.TransactionTypeIncome,
			Kind:        models.KindIncome,
		}
		if err := tx.Create(incomeEntry).Error; err != nil {
			return err
		}

		if plan.BudgetAllocation.IsPositive() {
			if err := tx.Create(&models.Transaction{
				Date:        date,
				Description: "Monthly budget allocation",
				Amount:      plan.BudgetAllocation,
				Type:        models.TransactionTypeExpense,
				Kind:        models.KindIncomeAllocation,
			}).Error; err != nil {
				return err
			}
		}
		if err := ensureMonthBudgets(tx, month, year); err != nil {
			return err
		}

		if billsShare.IsPositive() {
			billsFund, err := findBillsFund(tx)
			if err != nil {
				return err
			}
			if err := tx.Create(&models.Transaction{
				Date:          date,
				Description:   "Bills fund allocation",
				Amount:        billsShare,
				Type:          models.TransactionTypeExpense,
				Kind:          models.KindIncomeAllocation,
				SinkingFundID: &billsFund.ID,
			}).Error; err != nil {
				return err
			}
			if err := recomputeFundBalance(tx, billsFund.ID); err != nil {
				return err
			}
		}

		for _, t := range plan.Targets {
			amount := targetAmount(income, t)
			if !amount.IsPositive() {
				continue
			}
			entry := &models.Transaction{
				Date:          date,
				Description:   "Income allocation",
				Amount:        amount,
				Type:          models.TransactionTypeExpense,
				Kind:          models.KindIncomeAllocation,
				SinkingFundID: t.SinkingFundID,
				CategoryID:    t.CategoryID,
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
			if t.SinkingFundID != nil {
				if err := recomputeFundBalance(tx, *t.SinkingFundID); err != nil {
					return err
				}
			}
			if t.CategoryID != nil {
				if err := raiseBudgetAllocation(tx, *t.CategoryID, month, year, amount); err != nil {
					return err
				}
			}
		}

		// The residual is surfaced, never force-distributed.
		unallocated := income.Sub(total)
		if err := tx.Create(&models.UnallocatedIncome{
			Month:  month,
			Year:   year,
			Amount: unallocated,
		}).Error; err != nil {
			return err
		}

		ran = true
		return nil
	})
	if err != nil {
		return false, toAppError(err)
	}
	return ran, nil
}

// UnallocatedFor returns the month's unallocated income residue, zero when
// the month has not been allocated.
func (s *allocationService) UnallocatedFor(month, year int) (decimal.Decimal, error) {
	var row models.UnallocatedIncome
	err := s.db.Where("month = ? AND year = ?", month, year).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return row.Amount, nil
}

// ensureMonthBudgets creates the month's budget line for every active budget
// category that does not have one, carrying the allocation forward from the
// category's most recent line.
func ensureMonthBudgets(tx *gorm.DB, month, year int) error {
	var categories []models.Category
	err := tx.Where("is_budget_category = ? AND is_deleted = ?", true, false).Find(&categories).Error
	if err != nil {
		return err
	}

	for _, category := range categories {
		var count int64
		if err := tx.Model(&models.Budget{}).
			Where("category_id = ? AND month = ? AND year = ?", category.ID, month, year).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		allocated := decimal.Zero
		var previous models.Budget
		err := tx.Where("category_id = ?", category.ID).
			Order("year DESC, month DESC").
			First(&previous).Error
		if err == nil {
			allocated = previous.AllocatedAmount
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		budget := &models.Budget{
			CategoryID:      category.ID,
			Month:           month,
			Year:            year,
			AllocatedAmount: allocated,
		}
		if err := tx.Create(budget).Error; err != nil {
			return err
		}
		// Expenses recorded before the line existed still count against it.
		if err := recomputeBudget(tx, budget.ID); err != nil {
			return err
		}
	}
	return nil
}

// raiseBudgetAllocation adds a category-targeted allocation on top of the
// month's budget line, creating the line if the category has none yet.
func raiseBudgetAllocation(tx *gorm.DB, categoryID uint, month, year int, amount decimal.Decimal) error {
	var budget models.Budget
	err := tx.Where("category_id = ? AND month = ? AND year = ?", categoryID, month, year).
		First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		budget = models.Budget{
			CategoryID:      categoryID,
			Month:           month,
			Year:            year,
			AllocatedAmount: amount,
		}
		if err := tx.Create(&budget).Error; err != nil {
			return err
		}
		return recomputeBudget(tx, budget.ID)
	}
	if err != nil {
		return err
	}
	return tx.Model(&budget).
		Update("allocated_amount", budget.AllocatedAmount.Add(amount)).Error
}

// findBillsFund resolves the conventional bill-paying fund by name.
func findBillsFund(tx *gorm.DB) (*models.SinkingFund, error) {
	var fund models.SinkingFund
	err := tx.Where("name = ? AND is_deleted = ?", models.BillsFundName, false).First(&fund).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.WithMessage(apperrors.ErrConfiguration,
			fmt.Sprintf("no active %q sinking fund to receive the bills allocation", models.BillsFundName))
	}
	if err != nil {
		return nil, err
	}
	return &fund, nil
}
