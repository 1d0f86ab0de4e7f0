package services

import (
	"testing"

	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

func ptr[T any](v T) *T {
	return &v
}

func TestRecordTransaction(t *testing.T) {
	t.Run("regular_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		tx, err := svc.Record(RecordTransactionInput{
			Date:       "2026-03-15",
			Amount:     testutil.Amount(t, "42.50"),
			Type:       models.TransactionTypeExpense,
			Kind:       models.KindRegular,
			CategoryID: &category.ID,
		})
		testutil.AssertNoError(t, err)

		if tx.ID == 0 {
			t.Fatal("expected non-zero transaction ID")
		}
		testutil.AssertAmount(t, tx.Amount, "42.50")
		if tx.Kind != models.KindRegular {
			t.Errorf("expected kind regular, got %s", tx.Kind)
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		_, err := svc.Record(RecordTransactionInput{
			Date:       "2026-03-15",
			Amount:     testutil.Amount(t, "0"),
			Type:       models.TransactionTypeExpense,
			Kind:       models.KindRegular,
			CategoryID: &category.ID,
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("bad_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		_, err := svc.Record(RecordTransactionInput{
			Date:       "15/03/2026",
			Amount:     testutil.Amount(t, "10"),
			Type:       models.TransactionTypeExpense,
			Kind:       models.KindRegular,
			CategoryID: &category.ID,
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("dual_linkage_bill_payment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		fund := testutil.CreateTestFund(t, db, "Bills", "200.00")
		bill := testutil.CreateTestBill(t, db, category.ID, fund.ID, "80.00", "2026-03-01", models.FrequencyMonthly)

		tx, err := svc.Record(RecordTransactionInput{
			Date:            "2026-03-01",
			Amount:          testutil.Amount(t, "80.00"),
			Type:            models.TransactionTypeExpense,
			Kind:            models.KindRegular,
			CategoryID:      &category.ID,
			SinkingFundID:   &fund.ID,
			RecurringBillID: &bill.ID,
		})
		testutil.AssertNoError(t, err)
		if tx.SinkingFundID == nil || tx.RecurringBillID == nil {
			t.Fatal("expected both fund and bill linkage")
		}

		// Paying the bill from the fund debits the fund's replayed balance.
		var updated models.SinkingFund
		testutil.AssertNoError(t, db.First(&updated, fund.ID).Error)
		testutil.AssertAmount(t, updated.CurrentBalance, "120.00")
	})

	t.Run("bill_linkage_without_fund", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		fund := testutil.CreateTestFund(t, db, "Bills", "200.00")
		bill := testutil.CreateTestBill(t, db, category.ID, fund.ID, "80.00", "2026-03-01", models.FrequencyMonthly)

		_, err := svc.Record(RecordTransactionInput{
			Date:            "2026-03-01",
			Amount:          testutil.Amount(t, "80.00"),
			Type:            models.TransactionTypeExpense,
			Kind:            models.KindRegular,
			CategoryID:      &category.ID,
			RecurringBillID: &bill.ID,
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("income_with_fund_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		fund := testutil.CreateTestFund(t, db, "Holiday", "0")

		_, err := svc.Record(RecordTransactionInput{
			Date:          "2026-03-01",
			Amount:        testutil.Amount(t, "100"),
			Type:          models.TransactionTypeIncome,
			Kind:          models.KindIncome,
			SinkingFundID: &fund.ID,
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("contribution_requires_fund", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)

		_, err := svc.Record(RecordTransactionInput{
			Date:   "2026-03-01",
			Amount: testutil.Amount(t, "25"),
			Type:   models.TransactionTypeExpense,
			Kind:   models.KindContribution,
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("type_inconsistent_with_kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		fund := testutil.CreateTestFund(t, db, "Holiday", "0")

		_, err := svc.Record(RecordTransactionInput{
			Date:          "2026-03-01",
			Amount:        testutil.Amount(t, "25"),
			Type:          models.TransactionTypeIncome,
			Kind:          models.KindContribution,
			SinkingFundID: &fund.ID,
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)

		_, err := svc.Record(RecordTransactionInput{
			Date:       "2026-03-01",
			Amount:     testutil.Amount(t, "25"),
			Type:       models.TransactionTypeExpense,
			Kind:       models.KindRegular,
			CategoryID: ptr(uint(9999)),
		})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("budget_expense_updates_spent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestBudgetCategory(t, db, "Groceries")
		budget := testutil.CreateTestBudget(t, db, category.ID, 3, 2026, "500.00")

		_, err := svc.Record(RecordTransactionInput{
			Date:       "2026-03-10",
			Amount:     testutil.Amount(t, "120.40"),
			Type:       models.TransactionTypeExpense,
			Kind:       models.KindBudgetExpense,
			CategoryID: &category.ID,
		})
		testutil.AssertNoError(t, err)

		var updated models.Budget
		testutil.AssertNoError(t, db.First(&updated, budget.ID).Error)
		testutil.AssertAmount(t, updated.SpentAmount, "120.40")
	})
}

func TestListTransactions(t *testing.T) {
	t.Run("ordered_by_date_then_insertion", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		for _, date := range []string{"2026-03-20", "2026-03-05", "2026-03-05", "2026-03-01"} {
			_, err := svc.Record(RecordTransactionInput{
				Date:       date,
				Amount:     testutil.Amount(t, "10"),
				Type:       models.TransactionTypeExpense,
				Kind:       models.KindRegular,
				CategoryID: &category.ID,
			})
			testutil.AssertNoError(t, err)
		}

		page, err := svc.List(pagination.PageRequest{}, TransactionFilter{Month: ptr(3), Year: ptr(2026)})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 4 {
			t.Fatalf("expected 4 transactions, got %d", len(page.Data))
		}

		dates := []string{page.Data[0].Date, page.Data[1].Date, page.Data[2].Date, page.Data[3].Date}
		expected := []string{"2026-03-01", "2026-03-05", "2026-03-05", "2026-03-20"}
		for i := range expected {
			if dates[i] != expected[i] {
				t.Errorf("position %d: expected %s, got %s", i, expected[i], dates[i])
			}
		}
		// Same-date tie breaks by insertion order.
		if page.Data[1].ID > page.Data[2].ID {
			t.Error("same-date entries should keep insertion order")
		}
	})

	t.Run("month_filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		for _, date := range []string{"2026-02-28", "2026-03-01"} {
			_, err := svc.Record(RecordTransactionInput{
				Date:       date,
				Amount:     testutil.Amount(t, "10"),
				Type:       models.TransactionTypeExpense,
				Kind:       models.KindRegular,
				CategoryID: &category.ID,
			})
			testutil.AssertNoError(t, err)
		}

		page, err := svc.List(pagination.PageRequest{}, TransactionFilter{Month: ptr(2), Year: ptr(2026)})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 February transaction, got %d", page.TotalItems)
		}
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("hard_delete_recomputes_balances", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		fund := testutil.CreateTestFund(t, db, "Holiday", "0")

		tx, err := svc.Record(RecordTransactionInput{
			Date:          "2026-03-01",
			Amount:        testutil.Amount(t, "150.00"),
			Type:          models.TransactionTypeExpense,
			Kind:          models.KindContribution,
			SinkingFundID: &fund.ID,
		})
		testutil.AssertNoError(t, err)

		var afterCreate models.SinkingFund
		testutil.AssertNoError(t, db.First(&afterCreate, fund.ID).Error)
		testutil.AssertAmount(t, afterCreate.CurrentBalance, "150.00")

		testutil.AssertNoError(t, svc.Delete(tx.ID))

		var afterDelete models.SinkingFund
		testutil.AssertNoError(t, db.First(&afterDelete, fund.ID).Error)
		testutil.AssertAmount(t, afterDelete.CurrentBalance, "0")

		_, err = svc.GetByID(tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("missing_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)

		err := svc.Delete(9999)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("date_edit_moves_between_budget_months", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestBudgetCategory(t, db, "Groceries")
		march := testutil.CreateTestBudget(t, db, category.ID, 3, 2026, "500.00")
		april := testutil.CreateTestBudget(t, db, category.ID, 4, 2026, "500.00")

		tx, err := svc.Record(RecordTransactionInput{
			Date:       "2026-03-10",
			Amount:     testutil.Amount(t, "60.00"),
			Type:       models.TransactionTypeExpense,
			Kind:       models.KindBudgetExpense,
			CategoryID: &category.ID,
		})
		testutil.AssertNoError(t, err)

		_, err = svc.Update(tx.ID, UpdateTransactionInput{Date: ptr("2026-04-02")})
		testutil.AssertNoError(t, err)

		var m, a models.Budget
		testutil.AssertNoError(t, db.First(&m, march.ID).Error)
		testutil.AssertNoError(t, db.First(&a, april.ID).Error)
		testutil.AssertAmount(t, m.SpentAmount, "0")
		testutil.AssertAmount(t, a.SpentAmount, "60.00")
	})

	t.Run("amount_edit_recomputes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		fund := testutil.CreateTestFund(t, db, "Holiday", "0")

		tx, err := svc.Record(RecordTransactionInput{
			Date:          "2026-03-01",
			Amount:        testutil.Amount(t, "100.00"),
			Type:          models.TransactionTypeExpense,
			Kind:          models.KindContribution,
			SinkingFundID: &fund.ID,
		})
		testutil.AssertNoError(t, err)

		_, err = svc.Update(tx.ID, UpdateTransactionInput{Amount: ptr(testutil.Amount(t, "75.25"))})
		testutil.AssertNoError(t, err)

		var updated models.SinkingFund
		testutil.AssertNoError(t, db.First(&updated, fund.ID).Error)
		testutil.AssertAmount(t, updated.CurrentBalance, "75.25")
	})
}

func TestRecordBudgetTransfer(t *testing.T) {
	t.Run("moves_fund_into_budget_buffer", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestBudgetCategory(t, db, "Groceries")
		budget := testutil.CreateTestBudget(t, db, category.ID, 3, 2026, "500.00")
		fund := testutil.CreateTestFund(t, db, "Short Term Savings", "100.00")

		tx, err := svc.Record(RecordTransactionInput{
			Date:          "2026-03-20",
			Amount:        testutil.Amount(t, "40.00"),
			Type:          models.TransactionTypeExpense,
			Kind:          models.KindBudgetTransfer,
			SinkingFundID: &fund.ID,
			BudgetID:      &budget.ID,
		})
		testutil.AssertNoError(t, err)
		if tx.CategoryID == nil || *tx.CategoryID != category.ID {
			t.Fatal("transfer must carry the destination budget's category")
		}

		// The same entry debits the fund and credits the budget's buffer.
		var updatedFund models.SinkingFund
		testutil.AssertNoError(t, db.First(&updatedFund, fund.ID).Error)
		testutil.AssertAmount(t, updatedFund.CurrentBalance, "60.00")

		var updatedBudget models.Budget
		testutil.AssertNoError(t, db.First(&updatedBudget, budget.ID).Error)
		testutil.AssertAmount(t, updatedBudget.FundBalance, "40.00")
	})

	t.Run("fund_only_transfer_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		fund := testutil.CreateTestFund(t, db, "Short Term Savings", "100.00")

		_, err := svc.Record(RecordTransactionInput{
			Date:          "2026-03-20",
			Amount:        testutil.Amount(t, "40.00"),
			Type:          models.TransactionTypeExpense,
			Kind:          models.KindBudgetTransfer,
			SinkingFundID: &fund.ID,
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")

		// Nothing left the fund.
		var unchanged models.SinkingFund
		testutil.AssertNoError(t, db.First(&unchanged, fund.ID).Error)
		testutil.AssertAmount(t, unchanged.CurrentBalance, "100.00")
	})

	t.Run("missing_destination_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		fund := testutil.CreateTestFund(t, db, "Short Term Savings", "100.00")

		_, err := svc.Record(RecordTransactionInput{
			Date:          "2026-03-20",
			Amount:        testutil.Amount(t, "40.00"),
			Type:          models.TransactionTypeExpense,
			Kind:          models.KindBudgetTransfer,
			SinkingFundID: &fund.ID,
			BudgetID:      ptr(uint(9999)),
		})
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})

	t.Run("budget_link_on_other_kinds_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		category := testutil.CreateTestBudgetCategory(t, db, "Groceries")
		budget := testutil.CreateTestBudget(t, db, category.ID, 3, 2026, "500.00")

		_, err := svc.Record(RecordTransactionInput{
			Date:       "2026-03-20",
			Amount:     testutil.Amount(t, "40.00"),
			Type:       models.TransactionTypeExpense,
			Kind:       models.KindRegular,
			CategoryID: &category.ID,
			BudgetID:   &budget.ID,
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}
