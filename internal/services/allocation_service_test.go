package services

import (
	"testing"
	"time"

	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestUpsertPlan(t *testing.T) {
	t.Run("valid_plan", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)
		holiday := testutil.CreateTestFund(t, db, "Holiday", "0")
		savings := testutil.CreateTestFund(t, db, "Short Term Savings", "0")

		plan, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:        testutil.Amount(t, "5000.00"),
			BudgetAllocation:     testutil.Amount(t, "2000.00"),
			BillsFundMethod:      models.BillsAllocationFixed,
			BillsFundFixedAmount: ptr(testutil.Amount(t, "600.00")),
			Targets: []AllocationTargetInput{
				{SinkingFundID: &holiday.ID, Amount: ptr(testutil.Amount(t, "300.00"))},
				{SinkingFundID: &savings.ID, Percent: ptr(testutil.Amount(t, "10"))},
			},
		})
		testutil.AssertNoError(t, err)
		if len(plan.Targets) != 2 {
			t.Fatalf("expected 2 targets, got %d", len(plan.Targets))
		}
		if plan.Targets[0].Position != 1 || plan.Targets[1].Position != 2 {
			t.Error("targets must keep their configured order")
		}
	})

	t.Run("total_exceeds_income", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)
		holiday := testutil.CreateTestFund(t, db, "Holiday", "0")

		_, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:        testutil.Amount(t, "1000.00"),
			BudgetAllocation:     testutil.Amount(t, "800.00"),
			BillsFundMethod:      models.BillsAllocationFixed,
			BillsFundFixedAmount: ptr(testutil.Amount(t, "150.00")),
			Targets: []AllocationTargetInput{
				{SinkingFundID: &holiday.ID, Amount: ptr(testutil.Amount(t, "100.00"))},
			},
		})
		testutil.AssertAppError(t, err, "CONFIGURATION_ERROR")

		_, err = svc.GetPlan()
		testutil.AssertAppError(t, err, "PLAN_NOT_FOUND")
	})

	t.Run("target_needs_fund_xor_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)

		_, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:   testutil.Amount(t, "1000.00"),
			BillsFundMethod: models.BillsAllocationRecommended,
			Targets: []AllocationTargetInput{
				{Amount: ptr(testutil.Amount(t, "100.00"))},
			},
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("target_needs_amount_xor_percent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)
		holiday := testutil.CreateTestFund(t, db, "Holiday", "0")

		_, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:   testutil.Amount(t, "1000.00"),
			BillsFundMethod: models.BillsAllocationRecommended,
			Targets: []AllocationTargetInput{
				{SinkingFundID: &holiday.ID,
					Amount:  ptr(testutil.Amount(t, "100.00")),
					Percent: ptr(testutil.Amount(t, "10"))},
			},
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("replaces_existing_plan", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)
		holiday := testutil.CreateTestFund(t, db, "Holiday", "0")

		_, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:   testutil.Amount(t, "4000.00"),
			BillsFundMethod: models.BillsAllocationRecommended,
			Targets: []AllocationTargetInput{
				{SinkingFundID: &holiday.ID, Amount: ptr(testutil.Amount(t, "300.00"))},
			},
		})
		testutil.AssertNoError(t, err)

		plan, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:   testutil.Amount(t, "4500.00"),
			BillsFundMethod: models.BillsAllocationRecommended,
		})
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, plan.MonthlyIncome, "4500.00")
		if len(plan.Targets) != 0 {
			t.Errorf("replaced plan should have no targets, got %d", len(plan.Targets))
		}

		var planCount int64
		testutil.AssertNoError(t, db.Model(&models.AllocationPlan{}).Count(&planCount).Error)
		if planCount != 1 {
			t.Errorf("expected a single plan row, got %d", planCount)
		}
	})
}

func TestProcessMonthlyIncome(t *testing.T) {
	now := time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)

	t.Run("distributes_per_plan", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)
		bills := testutil.CreateTestFund(t, db, "Bills", "0")
		holiday := testutil.CreateTestFund(t, db, "Holiday", "0")
		groceries := testutil.CreateTestBudgetCategory(t, db, "Groceries")
		testutil.CreateTestBudget(t, db, groceries.ID, 3, 2026, "450.00")

		_, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:        testutil.Amount(t, "5000.00"),
			BudgetAllocation:     testutil.Amount(t, "2000.00"),
			BillsFundMethod:      models.BillsAllocationFixed,
			BillsFundFixedAmount: ptr(testutil.Amount(t, "600.00")),
			Targets: []AllocationTargetInput{
				{SinkingFundID: &holiday.ID, Amount: ptr(testutil.Amount(t, "300.00"))},
				{SinkingFundID: &holiday.ID, Percent: ptr(testutil.Amount(t, "10"))},
			},
		})
		testutil.AssertNoError(t, err)

		ran, err := svc.ProcessMonthlyIncome(now)
		testutil.AssertNoError(t, err)
		if !ran {
			t.Fatal("expected the allocation to run")
		}

		// Bills fund gets the fixed share, Holiday gets 300 + 10% of 5000.
		var billsFund, holidayFund models.SinkingFund
		testutil.AssertNoError(t, db.First(&billsFund, bills.ID).Error)
		testutil.AssertNoError(t, db.First(&holidayFund, holiday.ID).Error)
		testutil.AssertAmount(t, billsFund.CurrentBalance, "600.00")
		testutil.AssertAmount(t, holidayFund.CurrentBalance, "800.00")

		// Residual: 5000 - 2000 - 600 - 300 - 500 = 1600 left unallocated.
		unallocated, err := svc.UnallocatedFor(4, 2026)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, unallocated, "1600.00")

		// April's budget line was carried forward from March.
		var budget models.Budget
		testutil.AssertNoError(t, db.
			Where("category_id = ? AND month = ? AND year = ?", groceries.ID, 4, 2026).
			First(&budget).Error)
		testutil.AssertAmount(t, budget.AllocatedAmount, "450.00")
	})

	t.Run("second_run_is_idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)
		holiday := testutil.CreateTestFund(t, db, "Holiday", "0")

		_, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:   testutil.Amount(t, "4000.00"),
			BillsFundMethod: models.BillsAllocationRecommended,
			Targets: []AllocationTargetInput{
				{SinkingFundID: &holiday.ID, Amount: ptr(testutil.Amount(t, "250.00"))},
			},
		})
		testutil.AssertNoError(t, err)

		ran, err := svc.ProcessMonthlyIncome(now)
		testutil.AssertNoError(t, err)
		if !ran {
			t.Fatal("first run should allocate")
		}

		ran, err = svc.ProcessMonthlyIncome(now)
		testutil.AssertNoError(t, err)
		if ran {
			t.Error("second run for the same month must be a no-op")
		}

		var incomeCount int64
		testutil.AssertNoError(t, db.Model(&models.Transaction{}).
			Where("kind = ?", models.KindIncome).Count(&incomeCount).Error)
		if incomeCount != 1 {
			t.Errorf("expected a single income entry, got %d", incomeCount)
		}

		var fund models.SinkingFund
		testutil.AssertNoError(t, db.First(&fund, holiday.ID).Error)
		testutil.AssertAmount(t, fund.CurrentBalance, "250.00")
	})

	t.Run("misconfigured_plan_writes_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		bills := testutil.CreateTestFund(t, db, "Bills", "0")

		// A valid recommended-method plan that drifts over income once a big
		// bill joins the roster.
		_, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:    testutil.Amount(t, "1000.00"),
			BudgetAllocation: testutil.Amount(t, "900.00"),
			BillsFundMethod:  models.BillsAllocationRecommended,
		})
		testutil.AssertNoError(t, err)
		testutil.CreateTestBill(t, db, category.ID, bills.ID, "2400.00", "2026-04-15", models.FrequencyMonthly)

		_, err = svc.ProcessMonthlyIncome(now)
		testutil.AssertAppError(t, err, "CONFIGURATION_ERROR")

		// All-or-nothing: zero ledger entries escape the failed run.
		var count int64
		testutil.AssertNoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
		if count != 0 {
			t.Errorf("expected no transactions after failed allocation, got %d", count)
		}
		unallocated, err := svc.UnallocatedFor(4, 2026)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, unallocated, "0")
	})

	t.Run("new_budget_line_replays_existing_spending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)
		groceries := testutil.CreateTestBudgetCategory(t, db, "Groceries")
		testutil.CreateTestBudget(t, db, groceries.ID, 3, 2026, "450.00")

		// Spending lands in April before the allocator materializes April's line.
		testutil.CreateTestExpense(t, db, groceries.ID, "2026-04-01", "75.00")

		_, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:   testutil.Amount(t, "4000.00"),
			BillsFundMethod: models.BillsAllocationRecommended,
		})
		testutil.AssertNoError(t, err)

		ran, err := svc.ProcessMonthlyIncome(now)
		testutil.AssertNoError(t, err)
		if !ran {
			t.Fatal("expected the allocation to run")
		}

		var budget models.Budget
		testutil.AssertNoError(t, db.
			Where("category_id = ? AND month = ? AND year = ?", groceries.ID, 4, 2026).
			First(&budget).Error)
		testutil.AssertAmount(t, budget.AllocatedAmount, "450.00")
		testutil.AssertAmount(t, budget.SpentAmount, "75.00")
	})

	t.Run("no_plan_configured", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)

		_, err := svc.ProcessMonthlyIncome(now)
		testutil.AssertAppError(t, err, "PLAN_NOT_FOUND")
	})

	t.Run("missing_bills_fund", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAllocationService(db)

		_, err := svc.UpsertPlan(UpsertPlanInput{
			MonthlyIncome:        testutil.Amount(t, "1000.00"),
			BillsFundMethod:      models.BillsAllocationFixed,
			BillsFundFixedAmount: ptr(testutil.Amount(t, "100.00")),
		})
		testutil.AssertNoError(t, err)

		_, err = svc.ProcessMonthlyIncome(now)
		testutil.AssertAppError(t, err, "CONFIGURATION_ERROR")
	})
}
