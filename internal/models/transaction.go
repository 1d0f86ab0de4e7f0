package models

import "github.com/shopspring/decimal"

// TransactionType is the cash direction of a ledger entry.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// TransactionKind classifies what a ledger entry represents within the
// money-movement engine. The kind constrains which linkage fields may be set.
type TransactionKind string

const (
	KindRegular          TransactionKind = "regular"
	KindIncome           TransactionKind = "income"
	KindIncomeAllocation TransactionKind = "income_allocation"
	KindContribution     TransactionKind = "contribution"
	KindWithdrawal       TransactionKind = "withdrawal"
	KindBudgetExpense    TransactionKind = "budget_expense"
	KindBudgetTransfer   TransactionKind = "budget_transfer"
)

// Transaction is an immutable ledger entry. Amount is a strictly positive
// magnitude; Type carries the direction. An entry may dual-link a sinking
// fund and a recurring bill (a bill paid from its fund); other linkage
// combinations are constrained per kind and validated before any write.
//
// Deleting a transaction is a hard delete of the row and always triggers
// recomputation of the cached balances that included it.
type Transaction struct {
	Base
	Date            string          `gorm:"size:10;not null;index" json:"date"`
	Description     string          `gorm:"size:500" json:"description"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CategoryID      *uint           `gorm:"index" json:"category_id,omitempty"`
	Type            TransactionType `gorm:"size:10;not null" json:"type"`
	Kind            TransactionKind `gorm:"size:20;not null;default:regular" json:"kind"`
	SinkingFundID   *uint           `gorm:"index" json:"sinking_fund_id,omitempty"`
	RecurringBillID *uint           `gorm:"index" json:"recurring_bill_id,omitempty"`
	BudgetID        *uint           `gorm:"index" json:"budget_id,omitempty"`
	IsPaid          bool            `gorm:"default:true" json:"is_paid"`

	Category      *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SinkingFund   *SinkingFund   `gorm:"foreignKey:SinkingFundID" json:"sinking_fund,omitempty"`
	RecurringBill *RecurringBill `gorm:"foreignKey:RecurringBillID" json:"recurring_bill,omitempty"`
	Budget        *Budget        `gorm:"foreignKey:BudgetID" json:"budget,omitempty"`
}
