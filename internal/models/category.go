package models

// CategoryType distinguishes income categories from expense categories.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category. Budget categories additionally
// receive a monthly Budget row per period.
//
// Categories are soft-deleted: a deleted category is excluded from new
// allocations and dropdowns but stays resolvable for historical transactions.
type Category struct {
	Base
	Name             string       `gorm:"size:100;not null" json:"name"`
	Type             CategoryType `gorm:"size:10;not null" json:"type"`
	Color            string       `gorm:"size:7;not null" json:"color"`
	IsBudgetCategory bool         `gorm:"default:false" json:"is_budget_category"`
	IsDeleted        bool         `gorm:"default:false;index" json:"is_deleted"`
}
