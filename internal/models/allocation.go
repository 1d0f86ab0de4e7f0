package models

import "github.com/shopspring/decimal"

// BillsAllocationMethod selects how the Bills fund's monthly share is sized.
type BillsAllocationMethod string

const (
	BillsAllocationRecommended BillsAllocationMethod = "recommended"
	BillsAllocationFixed       BillsAllocationMethod = "fixed"
)

// AllocationPlan is the single-row configuration that drives the monthly
// income distribution. The plan is validated at configuration time so that
// its total never exceeds MonthlyIncome; historical runs are never
// retroactively invalidated by later edits.
type AllocationPlan struct {
	Base
	MonthlyIncome        decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"monthly_income"`
	BudgetAllocation     decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0" json:"budget_allocation"`
	BillsFundMethod      BillsAllocationMethod `gorm:"size:20;not null;default:recommended" json:"bills_fund_method"`
	BillsFundFixedAmount *decimal.Decimal      `gorm:"type:decimal(12,2)" json:"bills_fund_fixed_amount,omitempty"`

	Targets []AllocationTarget `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"targets"`
}

// AllocationTarget is one ordered step of the plan: a fixed amount or a
// percentage of income, credited to either a sinking fund or a budget
// category. Exactly one of SinkingFundID/CategoryID and exactly one of
// Amount/Percent must be set.
type AllocationTarget struct {
	Base
	PlanID        uint             `gorm:"not null;index" json:"plan_id"`
	Position      int              `gorm:"not null" json:"position"`
	SinkingFundID *uint            `json:"sinking_fund_id,omitempty"`
	CategoryID    *uint            `json:"category_id,omitempty"`
	Amount        *decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount,omitempty"`
	Percent       *decimal.Decimal `gorm:"type:decimal(5,2)" json:"percent,omitempty"`

	SinkingFund *SinkingFund `gorm:"foreignKey:SinkingFundID" json:"sinking_fund,omitempty"`
	Category    *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// UnallocatedIncome records, per month, the income residue the allocator left
// undistributed. Its presence doubles as the persisted marker that the
// month's allocation has run.
type UnallocatedIncome struct {
	Base
	Month  int             `gorm:"not null;uniqueIndex:idx_unallocated_month" json:"month"`
	Year   int             `gorm:"not null;uniqueIndex:idx_unallocated_month" json:"year"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
}
