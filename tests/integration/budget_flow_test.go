package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestBudgetFlow_OverspendAndResolve(t *testing.T) {
	app := setupApp(t)

	// Step 1: Create a budget category and a March budget of $500
	categoryID := app.createCategory(t, "Groceries", "expense", true)

	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%.0f,"month":3,"year":2026,"allocated_amount":"500.00"}`, categoryID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating budget, got %d: %s", rec.Code, rec.Body.String())
	}
	budgetID := parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(float64)

	// Step 2: Spend $520 against the $500 budget
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"date":"2026-03-10","amount":"300.00","type":"expense","kind":"budget_expense","category_id":%.0f}`, categoryID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 recording expense, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"date":"2026-03-21","amount":"220.00","type":"expense","kind":"budget_expense","category_id":%.0f}`, categoryID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 recording expense, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 3: Status shows a $20 overspend
	rec = app.request("GET", "/api/v1/budgets/status?month=3&year=2026", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	statusResult := parseJSON(t, rec)
	budgets := statusResult["budgets"].([]interface{})
	if len(budgets) != 1 {
		t.Fatalf("expected 1 budget status, got %d", len(budgets))
	}
	status := budgets[0].(map[string]interface{})
	assertAmount(t, status["overspend"], "20")
	if status["is_overspent"] != true {
		t.Error("expected budget to be overspent")
	}
	assertAmount(t, statusResult["total_allocated"], "500")

	// Step 4: Fund a sinking fund with $100
	fundID := app.createFund(t, "Emergency")
	app.contribute(t, fundID, "2026-03-01", "100.00")

	// Step 5: Resolve the overspend from the fund
	rec = app.request("POST", fmt.Sprintf("/api/v1/budgets/%.0f/resolve-overspend", budgetID),
		fmt.Sprintf(`{"source_fund_id":%.0f,"amount":"20.00"}`, fundID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 resolving overspend, got %d: %s", rec.Code, rec.Body.String())
	}
	transfer := parseJSON(t, rec)["transaction"].(map[string]interface{})
	if transfer["kind"] != "budget_transfer" {
		t.Errorf("expected budget_transfer kind, got %v", transfer["kind"])
	}

	// Step 6: Fund balance dropped, budget buffer filled
	rec = app.request("GET", fmt.Sprintf("/api/v1/funds/%.0f", fundID), "")
	fund := parseJSON(t, rec)["fund"].(map[string]interface{})
	assertAmount(t, fund["current_balance"], "80")

	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%.0f", budgetID), "")
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	assertAmount(t, budget["fund_balance"], "20")
	assertAmount(t, budget["spent_amount"], "520")

	// Step 7: A second resolve attempt is rejected, nothing moved
	rec = app.request("POST", fmt.Sprintf("/api/v1/budgets/%.0f/resolve-overspend", budgetID),
		fmt.Sprintf(`{"source_fund_id":%.0f,"amount":"20.00"}`, fundID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on second resolve, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "NOT_OVERSPENT" {
		t.Errorf("expected NOT_OVERSPENT, got %s", code)
	}

	rec = app.request("GET", fmt.Sprintf("/api/v1/funds/%.0f", fundID), "")
	fund = parseJSON(t, rec)["fund"].(map[string]interface{})
	assertAmount(t, fund["current_balance"], "80")
}

func TestBudgetFlow_DuplicateMonthRejected(t *testing.T) {
	app := setupApp(t)
	categoryID := app.createCategory(t, "Dining", "expense", true)

	body := fmt.Sprintf(`{"category_id":%.0f,"month":6,"year":2026,"allocated_amount":"250.00"}`, categoryID)
	rec := app.request("POST", "/api/v1/budgets", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/budgets", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate budget, got %d: %s", rec.Code, rec.Body.String())
	}
}
