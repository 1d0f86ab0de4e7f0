package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
)

// annualMultipliers converts a bill's frequency into occurrences per year,
// used to level irregular bills into a monthly savings amount. A 28-day cycle
// recurs 365.25/28 times a year.
var annualMultipliers = map[models.BillFrequency]decimal.Decimal{
	models.FrequencyMonthly:        decimal.NewFromInt(12),
	models.FrequencyQuarterly:      decimal.NewFromInt(4),
	models.FrequencyYearly:         decimal.NewFromInt(1),
	models.FrequencyTwentyEightDay: decimal.RequireFromString("13.036"),
}

// billService handles recurring bill management and scheduled generation.
type billService struct {
	db *gorm.DB
}

// NewBillService creates a new BillServicer.
func NewBillService(db *gorm.DB) BillServicer {
	return &billService{db: db}
}

// Create creates a recurring bill. The first due date is the start date.
func (s *billService) Create(input CreateBillInput) (*models.RecurringBill, error) {
	if !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "bill amount must be greater than zero")
	}
	if _, ok := annualMultipliers[input.Frequency]; !ok {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unknown bill frequency")
	}
	if _, err := time.Parse(models.DateLayout, input.StartDate); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "start date must be in YYYY-MM-DD format")
	}
	if input.EndDate != nil {
		if _, err := time.Parse(models.DateLayout, *input.EndDate); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "end date must be in YYYY-MM-DD format")
		}
		if *input.EndDate < input.StartDate {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "end date cannot precede start date")
		}
	}

	bill := &models.RecurringBill{
		Name:           input.Name,
		Amount:         input.Amount,
		DebtorProvider: input.DebtorProvider,
		Frequency:      input.Frequency,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		NextDueDate:    input.StartDate,
		CategoryID:     input.CategoryID,
		SinkingFundID:  input.SinkingFundID,
		IsActive:       true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireCategory(tx, input.CategoryID); err != nil {
			return err
		}
		if err := requireFund(tx, input.SinkingFundID); err != nil {
			return err
		}
		if err := tx.Create(bill).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(bill.ID)
}

// List returns recurring bills ordered by next due date.
func (s *billService) List(activeOnly bool) ([]models.RecurringBill, error) {
	query := s.db.Preload("Category").Preload("SinkingFund").Order("next_due_date ASC, id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var bills []models.RecurringBill
	if err := query.Find(&bills).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return bills, nil
}

// GetByID returns a bill by ID.
func (s *billService) GetByID(id uint) (*models.RecurringBill, error) {
	var bill models.RecurringBill
	if err := s.db.Preload("Category").Preload("SinkingFund").First(&bill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBillNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &bill, nil
}

// Update updates a bill's editable fields. Frequency and start date are fixed
// at creation; they define the anchor the date-advance clamps against.
func (s *billService) Update(id uint, input UpdateBillInput) (*models.RecurringBill, error) {
	bill, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "bill amount must be greater than zero")
		}
		updates["amount"] = *input.Amount
	}
	if input.DebtorProvider != nil {
		updates["debtor_provider"] = *input.DebtorProvider
	}
	if input.EndDate != nil {
		if _, err := time.Parse(models.DateLayout, *input.EndDate); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "end date must be in YYYY-MM-DD format")
		}
		updates["end_date"] = *input.EndDate
	}
	if input.CategoryID != nil {
		if err := requireCategory(s.db, *input.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.SinkingFundID != nil {
		if err := requireFund(s.db, *input.SinkingFundID); err != nil {
			return nil, err
		}
		updates["sinking_fund_id"] = *input.SinkingFundID
	}

	if len(updates) > 0 {
		if err := s.db.Model(bill).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetByID(id)
}

// Deactivate retires a bill. Bills are never hard-deleted so payment history
// stays linked.
func (s *billService) Deactivate(id uint) error {
	bill, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Model(bill).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ProcessDueBills materializes every active bill due on or before now into a
// ledger entry and advances its due date. Each bill is one atomic unit: the
// entry, the due-date advance, and the fund recompute commit together or not
// at all. Generating only for the bill's current NextDueDate makes re-runs
// idempotent; a crashed tick is simply caught up on the next one, one advance
// per tick.
func (s *billService) ProcessDueBills(now time.Time) (int, error) {
	today := now.Format(models.DateLayout)

	var due []models.RecurringBill
	err := s.db.
		Where("is_active = ? AND next_due_date <= ?", true, today).
		Order("next_due_date ASC, id ASC").
		Find(&due).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	generated := 0
	var errs []error
	for i := range due {
		created, err := s.processBill(due[i].ID, today)
		if err != nil {
			logger.Get().Errorw("bill generation failed",
				"bill_id", due[i].ID,
				"bill", due[i].Name,
				"error", err.Error(),
			)
			errs = append(errs, fmt.Errorf("bill %d: %w", due[i].ID, err))
			continue
		}
		if created {
			generated++
		}
	}
	return generated, errors.Join(errs...)
}

// processBill generates at most one ledger entry for a single bill.
func (s *billService) processBill(billID uint, today string) (bool, error) {
	created := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var bill models.RecurringBill
		if err := tx.First(&bill, billID).Error; err != nil {
			return err
		}
		// Re-check under the transaction: a concurrent tick may have already
		// advanced the bill past today.
		if !bill.IsActive || bill.NextDueDate > today {
			return nil
		}

		// A bill past its end date retires instead of generating.
		if bill.EndDate != nil && bill.NextDueDate > *bill.EndDate {
			return tx.Model(&bill).Update("is_active", false).Error
		}

		var existing int64
		if err := tx.Model(&models.Transaction{}).
			Where("recurring_bill_id = ? AND date = ?", bill.ID, bill.NextDueDate).
			Count(&existing).Error; err != nil {
			return err
		}

		if existing == 0 {
			entry := &models.Transaction{
				Date:            bill.NextDueDate,
				Description:     fmt.Sprintf("%s (%s)", bill.Name, bill.DebtorProvider),
				Amount:          bill.Amount,
				Type:            models.TransactionTypeExpense,
				Kind:            models.KindRegular,
				CategoryID:      &bill.CategoryID,
				SinkingFundID:   &bill.SinkingFundID,
				RecurringBillID: &bill.ID,
				IsPaid:          false,
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
			if err := recomputeFundBalance(tx, bill.SinkingFundID); err != nil {
				return err
			}
			created = true
		}

		next, err := advanceDueDate(bill.NextDueDate, bill.StartDate, bill.Frequency)
		if err != nil {
			return err
		}
		return tx.Model(&bill).Update("next_due_date", next).Error
	})
	return created, err
}

// RecommendedMonthlyAmount levels all active bills into one monthly savings
// figure: each bill's amount times its yearly occurrence count, divided by
// twelve, banker's-rounded.
func (s *billService) RecommendedMonthlyAmount() (decimal.Decimal, error) {
	amount, err := recommendedMonthlyBills(s.db)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return amount, nil
}

func recommendedMonthlyBills(db *gorm.DB) (decimal.Decimal, error) {
	var bills []models.RecurringBill
	if err := db.Where("is_active = ?", true).Find(&bills).Error; err != nil {
		return decimal.Zero, err
	}

	annual := decimal.Zero
	for _, bill := range bills {
		annual = annual.Add(bill.Amount.Mul(annualMultipliers[bill.Frequency]))
	}
	return annual.Div(decimal.NewFromInt(12)).RoundBank(2), nil
}

// advanceDueDate computes the due date after current for the given frequency.
// Month-based frequencies preserve the anchor day-of-month taken from the
// bill's start date: each advance re-clamps independently against the target
// month, so a bill anchored on the 31st passes through Feb 28 and lands back
// on Mar 31 rather than staying pinned to the 28th. The 28-day frequency adds
// exactly 28 days with no month awareness.
func advanceDueDate(current, startDate string, frequency models.BillFrequency) (string, error) {
	cur, err := time.Parse(models.DateLayout, current)
	if err != nil {
		return "", fmt.Errorf("invalid due date %q: %w", current, err)
	}

	if frequency == models.FrequencyTwentyEightDay {
		return cur.AddDate(0, 0, 28).Format(models.DateLayout), nil
	}

	anchor, err := time.Parse(models.DateLayout, startDate)
	if err != nil {
		return "", fmt.Errorf("invalid start date %q: %w", startDate, err)
	}

	var months int
	switch frequency {
	case models.FrequencyMonthly:
		months = 1
	case models.FrequencyQuarterly:
		months = 3
	case models.FrequencyYearly:
		months = 12
	default:
		return "", fmt.Errorf("unknown bill frequency %q", frequency)
	}

	// Normalize to the first of the target month, then clamp the anchor day
	// to the days that month actually has.
	first := time.Date(cur.Year(), cur.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	day := anchor.Day()
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC).Format(models.DateLayout), nil
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
