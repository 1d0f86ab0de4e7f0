package models

import "github.com/shopspring/decimal"

// Budget is one category's budget line for a specific month. AllocatedAmount
// is configuration; SpentAmount is a cache recomputed from the ledger;
// FundBalance is the rolling overspend buffer filled by budget transfers.
type Budget struct {
	Base
	CategoryID      uint            `gorm:"not null;uniqueIndex:idx_budget_category_month" json:"category_id"`
	Month           int             `gorm:"not null;uniqueIndex:idx_budget_category_month" json:"month"`
	Year            int             `gorm:"not null;uniqueIndex:idx_budget_category_month" json:"year"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"allocated_amount"`
	SpentAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"spent_amount"`
	FundBalance     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"fund_balance"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}

// Overspend returns how far spending exceeds the allocation, zero if within budget.
func (b *Budget) Overspend() decimal.Decimal {
	over := b.SpentAmount.Sub(b.AllocatedAmount)
	if over.IsNegative() {
		return decimal.Zero
	}
	return over
}
