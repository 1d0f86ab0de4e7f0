package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"moneta/internal/handlers"
	"moneta/internal/logger"
	"moneta/internal/middleware"
	"moneta/internal/models"
	"moneta/internal/services"
	"moneta/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integrationdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.Category{},
		&models.SinkingFund{},
		&models.Budget{},
		&models.RecurringBill{},
		&models.Transaction{},
		&models.AllocationPlan{},
		&models.AllocationTarget{},
		&models.UnallocatedIncome{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	transactionService := services.NewTransactionService(db)
	categoryService := services.NewCategoryService(db)
	budgetService := services.NewBudgetService(db)
	fundService := services.NewFundService(db)
	billService := services.NewBillService(db)
	allocationService := services.NewAllocationService(db)
	schedulerService := services.NewSchedulerService(billService, allocationService, time.UTC)
	dashboardService := services.NewDashboardService(db, budgetService, fundService, allocationService)

	// Handlers
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	fundHandler := handlers.NewFundHandler(fundService)
	billHandler := handlers.NewBillHandler(billService)
	incomeHandler := handlers.NewIncomeHandler(allocationService)
	schedulerHandler := handlers.NewSchedulerHandler(schedulerService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.RecordTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	budgets := v1.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("/status", budgetHandler.GetBudgetStatus)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.POST("/:id/resolve-overspend", budgetHandler.ResolveOverspend)

	funds := v1.Group("/funds")
	funds.POST("", fundHandler.CreateFund)
	funds.GET("", fundHandler.ListFunds)
	funds.GET("/:id", fundHandler.GetFund)
	funds.GET("/:id/status", fundHandler.GetFundStatus)
	funds.POST("/:id/recompute", fundHandler.RecomputeFundBalance)
	funds.PUT("/:id", fundHandler.UpdateFund)
	funds.DELETE("/:id", fundHandler.DeleteFund)

	bills := v1.Group("/bills")
	bills.POST("", billHandler.CreateBill)
	bills.GET("", billHandler.ListBills)
	bills.GET("/recommended", billHandler.GetRecommendedAmount)
	bills.GET("/:id", billHandler.GetBill)
	bills.PUT("/:id", billHandler.UpdateBill)
	bills.DELETE("/:id", billHandler.DeactivateBill)

	income := v1.Group("/income")
	income.GET("/plan", incomeHandler.GetPlan)
	income.PUT("/plan", incomeHandler.UpsertPlan)
	income.GET("/unallocated", incomeHandler.GetUnallocated)

	scheduler := v1.Group("/scheduler")
	scheduler.POST("/tick", schedulerHandler.RunTick)

	v1.GET("/dashboard", dashboardHandler.GetDashboard)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode extracts the application error code from an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %s", rec.Body.String())
	}
	return errObj["code"].(string)
}

// assertAmount compares a decimal-string JSON value against an expected amount.
func assertAmount(t *testing.T, got interface{}, expected string) {
	t.Helper()
	s, ok := got.(string)
	if !ok {
		t.Fatalf("expected decimal string, got %T (%v)", got, got)
	}
	gotDec, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	wantDec := decimal.RequireFromString(expected)
	if !gotDec.Equal(wantDec) {
		t.Errorf("expected amount %s, got %s", expected, s)
	}
}

// createCategory creates a category over HTTP and returns its ID.
func (app *testApp) createCategory(t *testing.T, name, categoryType string, isBudget bool) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":%q,"color":"#336699","is_budget_category":%v}`,
		name, categoryType, isBudget)
	rec := app.request("POST", "/api/v1/categories", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["category"].(map[string]interface{})["id"].(float64)
}

// createFund creates a sinking fund over HTTP and returns its ID.
func (app *testApp) createFund(t *testing.T, name string) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"color":"#996633"}`, name)
	rec := app.request("POST", "/api/v1/funds", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create fund failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["fund"].(map[string]interface{})["id"].(float64)
}

// contribute records a contribution into a fund over HTTP.
func (app *testApp) contribute(t *testing.T, fundID float64, date, amount string) {
	t.Helper()
	body := fmt.Sprintf(`{"date":%q,"amount":%q,"type":"expense","kind":"contribution","sinking_fund_id":%.0f}`,
		date, amount, fundID)
	rec := app.request("POST", "/api/v1/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("contribution failed: %d %s", rec.Code, rec.Body.String())
	}
}
