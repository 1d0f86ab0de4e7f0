package models

import "github.com/shopspring/decimal"

// BillFrequency is how often a recurring bill falls due.
type BillFrequency string

const (
	FrequencyMonthly        BillFrequency = "monthly"
	FrequencyQuarterly      BillFrequency = "quarterly"
	FrequencyYearly         BillFrequency = "yearly"
	FrequencyTwentyEightDay BillFrequency = "28_days"
)

// RecurringBill is a bill that materializes into ledger entries on schedule.
// Bills are deactivated, never hard-deleted, preserving payment history.
//
// StartDate carries the anchor day-of-month: every calendar advance of
// NextDueDate clamps against the target month independently, so a bill
// anchored on the 31st returns to the 31st after passing through February.
type RecurringBill struct {
	Base
	Name           string          `gorm:"size:100;not null" json:"name"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	DebtorProvider string          `gorm:"size:150;not null" json:"debtor_provider"`
	Frequency      BillFrequency   `gorm:"size:20;not null" json:"frequency"`
	StartDate      string          `gorm:"size:10;not null" json:"start_date"`
	EndDate        *string         `gorm:"size:10" json:"end_date,omitempty"`
	NextDueDate    string          `gorm:"size:10;not null;index" json:"next_due_date"`
	CategoryID     uint            `gorm:"not null" json:"category_id"`
	SinkingFundID  uint            `gorm:"not null" json:"sinking_fund_id"`
	IsActive       bool            `gorm:"default:true;index" json:"is_active"`

	Category    Category    `gorm:"foreignKey:CategoryID" json:"category"`
	SinkingFund SinkingFund `gorm:"foreignKey:SinkingFundID" json:"sinking_fund"`
}
