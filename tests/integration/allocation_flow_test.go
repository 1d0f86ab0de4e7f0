package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAllocationFlow_ConfigurePlan(t *testing.T) {
	app := setupApp(t)
	fundID := app.createFund(t, "Holiday")

	// Configure: $5000 income, $1000 budgets, $600 fixed bills, $800 to Holiday
	rec := app.request("PUT", "/api/v1/income/plan",
		fmt.Sprintf(`{"monthly_income":"5000.00","budget_allocation":"1000.00","bills_fund_method":"fixed","bills_fund_fixed_amount":"600.00","targets":[{"sinking_fund_id":%.0f,"amount":"800.00"}]}`, fundID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 storing plan, got %d: %s", rec.Code, rec.Body.String())
	}
	plan := parseJSON(t, rec)["plan"].(map[string]interface{})
	assertAmount(t, plan["monthly_income"], "5000.00")
	targets := plan["targets"].([]interface{})
	if len(targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(targets))
	}

	rec = app.request("GET", "/api/v1/income/plan", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching plan, got %d: %s", rec.Code, rec.Body.String())
	}

	// An over-committed replacement is rejected and the stored plan survives
	rec = app.request("PUT", "/api/v1/income/plan",
		fmt.Sprintf(`{"monthly_income":"1000.00","budget_allocation":"1000.00","bills_fund_method":"fixed","bills_fund_fixed_amount":"600.00","targets":[{"sinking_fund_id":%.0f,"amount":"800.00"}]}`, fundID))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for over-committed plan, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "CONFIGURATION_ERROR" {
		t.Errorf("expected CONFIGURATION_ERROR, got %s", code)
	}

	rec = app.request("GET", "/api/v1/income/plan", "")
	plan = parseJSON(t, rec)["plan"].(map[string]interface{})
	assertAmount(t, plan["monthly_income"], "5000.00")
}

func TestAllocationFlow_TargetValidation(t *testing.T) {
	app := setupApp(t)
	fundID := app.createFund(t, "Holiday")

	// A target naming neither a fund nor a category is rejected
	rec := app.request("PUT", "/api/v1/income/plan",
		`{"monthly_income":"5000.00","bills_fund_method":"fixed","bills_fund_fixed_amount":"100.00","targets":[{"amount":"50.00"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unlinked target, got %d: %s", rec.Code, rec.Body.String())
	}

	// A target with both amount and percent is rejected
	rec = app.request("PUT", "/api/v1/income/plan",
		fmt.Sprintf(`{"monthly_income":"5000.00","bills_fund_method":"fixed","bills_fund_fixed_amount":"100.00","targets":[{"sinking_fund_id":%.0f,"amount":"50.00","percent":"10"}]}`, fundID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for amount and percent together, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAllocationFlow_UnallocatedBeforeAnyRun(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/income/unallocated?month=5&year=2026", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	assertAmount(t, parseJSON(t, rec)["unallocated"], "0")
}
