package models

import "github.com/shopspring/decimal"

// SinkingFund is a savings pot accumulating balance over time for a
// designated purpose. CurrentBalance is a cache: the ledger is authoritative
// and the balance is always rebuildable by replaying the fund's full history.
type SinkingFund struct {
	Base
	Name              string          `gorm:"size:100;not null" json:"name"`
	Description       string          `gorm:"size:500" json:"description"`
	MonthlyAllocation decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"monthly_allocation"`
	CurrentBalance    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"current_balance"`
	Color             string          `gorm:"size:7;not null" json:"color"`
	IsDeleted         bool            `gorm:"default:false;index" json:"is_deleted"`
}

// BillsFundName is the conventional name of the sinking fund that pays
// recurring bills.
const BillsFundName = "Bills"
