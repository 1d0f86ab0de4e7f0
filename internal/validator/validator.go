// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hex_color", validateHexColor)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("category_type", validateCategoryType)
		_ = v.RegisterValidation("bill_frequency", validateBillFrequency)
		_ = v.RegisterValidation("bills_fund_method", validateBillsFundMethod)
		_ = v.RegisterValidation("money", validateMoney)
		_ = v.RegisterValidation("civil_date", validateCivilDate)
	}
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateBillFrequency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "monthly", "quarterly", "yearly", "28_days":
		return true
	}
	return false
}

func validateBillsFundMethod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "recommended", "fixed":
		return true
	}
	return false
}

// validateMoney accepts decimal strings with at most two fractional digits.
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.Exponent() >= -2
}

var civilDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func validateCivilDate(fl validator.FieldLevel) bool {
	return civilDateRegex.MatchString(fl.Field().String())
}
