package services

import (
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/pagination"
)

// RecordTransactionInput carries the fields for a new ledger entry. Amounts
// are already parsed into exact decimals by the caller.
type RecordTransactionInput struct {
	Date            string
	Description     string
	Amount          decimal.Decimal
	Type            models.TransactionType
	Kind            models.TransactionKind
	CategoryID      *uint
	SinkingFundID   *uint
	RecurringBillID *uint
	BudgetID        *uint
	IsPaid          *bool
}

// UpdateTransactionInput carries the controlled edits allowed on an existing
// ledger entry. Nil fields are left unchanged.
type UpdateTransactionInput struct {
	Date        *string
	Description *string
	Amount      *decimal.Decimal
	CategoryID  *uint
	IsPaid      *bool
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Month           *int
	Year            *int
	Type            *models.TransactionType
	Kind            *models.TransactionKind
	CategoryID      *uint
	SinkingFundID   *uint
	RecurringBillID *uint
}

// TransactionServicer defines the contract for ledger operations.
type TransactionServicer interface {
	Record(input RecordTransactionInput) (*models.Transaction, error)
	List(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetByID(id uint) (*models.Transaction, error)
	Update(id uint, input UpdateTransactionInput) (*models.Transaction, error)
	Delete(id uint) error
}

// CategoryServicer defines the contract for category management.
type CategoryServicer interface {
	Create(name string, categoryType models.CategoryType, color string, isBudgetCategory bool) (*models.Category, error)
	List(includeDeleted bool) ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	Update(id uint, name, color *string, isBudgetCategory *bool) (*models.Category, error)
	Delete(id uint) error
}

// BudgetStatus is the per-category view of one month's budget line.
type BudgetStatus struct {
	Budget      models.Budget   `json:"budget"`
	Overspend   decimal.Decimal `json:"overspend"`
	IsOverspent bool            `json:"is_overspent"`
}

// BudgetServicer defines the contract for monthly budget accounting.
type BudgetServicer interface {
	Create(categoryID uint, month, year int, allocated decimal.Decimal) (*models.Budget, error)
	List(month, year int) ([]models.Budget, error)
	GetByID(id uint) (*models.Budget, error)
	UpdateAllocated(id uint, allocated decimal.Decimal) (*models.Budget, error)
	Delete(id uint) error
	RecomputeSpent(id uint) (*models.Budget, error)
	Status(month, year int) ([]BudgetStatus, error)
	MonthlyBudgetAllocation(month, year int) (decimal.Decimal, error)
	ResolveOverspend(budgetID, sourceFundID uint, amount decimal.Decimal) (*models.Transaction, error)
}

// FundStatus is the read-only diagnostic view of a sinking fund.
type FundStatus struct {
	Fund               models.SinkingFund `json:"fund"`
	UpcomingBillsTotal decimal.Decimal    `json:"upcoming_bills_total"`
	BufferWarning      bool               `json:"buffer_warning"`
}

// FundServicer defines the contract for sinking fund accounting.
type FundServicer interface {
	Create(name, description, color string, monthlyAllocation decimal.Decimal) (*models.SinkingFund, error)
	List(includeDeleted bool) ([]models.SinkingFund, error)
	GetByID(id uint) (*models.SinkingFund, error)
	Update(id uint, name, description, color *string, monthlyAllocation *decimal.Decimal) (*models.SinkingFund, error)
	Delete(id uint) error
	RecomputeBalance(id uint) (*models.SinkingFund, error)
	Status(id uint, now time.Time) (*FundStatus, error)
}

// CreateBillInput carries the fields for a new recurring bill.
type CreateBillInput struct {
	Name           string
	Amount         decimal.Decimal
	DebtorProvider string
	Frequency      models.BillFrequency
	StartDate      string
	EndDate        *string
	CategoryID     uint
	SinkingFundID  uint
}

// UpdateBillInput carries the editable fields of a recurring bill. Nil fields
// are left unchanged.
type UpdateBillInput struct {
	Name           *string
	Amount         *decimal.Decimal
	DebtorProvider *string
	EndDate        *string
	CategoryID     *uint
	SinkingFundID  *uint
}

// BillServicer defines the contract for recurring bill management and the
// scheduled bill generator.
type BillServicer interface {
	Create(input CreateBillInput) (*models.RecurringBill, error)
	List(activeOnly bool) ([]models.RecurringBill, error)
	GetByID(id uint) (*models.RecurringBill, error)
	Update(id uint, input UpdateBillInput) (*models.RecurringBill, error)
	Deactivate(id uint) error
	ProcessDueBills(now time.Time) (int, error)
	RecommendedMonthlyAmount() (decimal.Decimal, error)
}

// AllocationTargetInput is one ordered step of an allocation plan.
type AllocationTargetInput struct {
	SinkingFundID *uint
	CategoryID    *uint
	Amount        *decimal.Decimal
	Percent       *decimal.Decimal
}

// UpsertPlanInput carries the full allocation plan configuration.
type UpsertPlanInput struct {
	MonthlyIncome        decimal.Decimal
	BudgetAllocation     decimal.Decimal
	BillsFundMethod      models.BillsAllocationMethod
	BillsFundFixedAmount *decimal.Decimal
	Targets              []AllocationTargetInput
}

// AllocationServicer defines the contract for the income allocation plan and
// the monthly allocator.
type AllocationServicer interface {
	GetPlan() (*models.AllocationPlan, error)
	UpsertPlan(input UpsertPlanInput) (*models.AllocationPlan, error)
	ProcessMonthlyIncome(now time.Time) (bool, error)
	UnallocatedFor(month, year int) (decimal.Decimal, error)
}

// TickResult summarizes one scheduler tick.
type TickResult struct {
	BillsGenerated int  `json:"bills_generated"`
	AllocationRan  bool `json:"allocation_ran"`
}

// SchedulerServicer defines the contract for the scheduler policy.
type SchedulerServicer interface {
	RunScheduledTick(now time.Time) (*TickResult, error)
}

// DashboardSummary aggregates the month's position for presentation layers.
type DashboardSummary struct {
	Month              int                  `json:"month"`
	Year               int                  `json:"year"`
	TotalIncome        decimal.Decimal      `json:"total_income"`
	TotalExpenses      decimal.Decimal      `json:"total_expenses"`
	Net                decimal.Decimal      `json:"net"`
	UnallocatedIncome  decimal.Decimal      `json:"unallocated_income"`
	TotalAllocated     decimal.Decimal      `json:"total_allocated"`
	TotalSpent         decimal.Decimal      `json:"total_spent"`
	Budgets            []BudgetStatus       `json:"budgets"`
	Funds              []FundStatus         `json:"funds"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
}

// DashboardServicer defines the contract for the dashboard aggregate view.
type DashboardServicer interface {
	Summary(month, year int, now time.Time) (*DashboardSummary, error)
}
