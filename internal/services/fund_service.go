package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// bufferWindowDays is the forward horizon for the bill-buffer diagnostic.
const bufferWindowDays = 30

// fundService handles sinking fund accounting.
type fundService struct {
	db *gorm.DB
}

// NewFundService creates a new FundServicer.
func NewFundService(db *gorm.DB) FundServicer {
	return &fundService{db: db}
}

// Create creates a new sinking fund.
func (s *fundService) Create(name, description, color string, monthlyAllocation decimal.Decimal) (*models.SinkingFund, error) {
	if monthlyAllocation.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "monthly allocation cannot be negative")
	}
	fund := &models.SinkingFund{
		Name:              name,
		Description:       description,
		MonthlyAllocation: monthlyAllocation,
		Color:             color,
	}
	if err := s.db.Create(fund).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fund, nil
}

// List returns sinking funds, excluding soft-deleted ones unless requested.
func (s *fundService) List(includeDeleted bool) ([]models.SinkingFund, error) {
	query := s.db.Order("name ASC")
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	var funds []models.SinkingFund
	if err := query.Find(&funds).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return funds, nil
}

// GetByID returns a fund by ID, soft-deleted ones included.
func (s *fundService) GetByID(id uint) (*models.SinkingFund, error) {
	var fund models.SinkingFund
	if err := s.db.First(&fund, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFundNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &fund, nil
}

// Update updates a fund's editable fields.
func (s *fundService) Update(id uint, name, description, color *string, monthlyAllocation *decimal.Decimal) (*models.SinkingFund, error) {
	fund, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if fund.IsDeleted {
		return nil, apperrors.ErrFundNotFound
	}

	updates := make(map[string]interface{})
	if name != nil {
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if color != nil {
		updates["color"] = *color
	}
	if monthlyAllocation != nil {
		if monthlyAllocation.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "monthly allocation cannot be negative")
		}
		updates["monthly_allocation"] = *monthlyAllocation
	}

	if len(updates) > 0 {
		if err := s.db.Model(fund).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return fund, nil
}

// Delete soft-deletes a fund. History stays in the ledger; active bills must
// be repointed first.
func (s *fundService) Delete(id uint) error {
	fund, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if fund.IsDeleted {
		return apperrors.ErrFundNotFound
	}

	var activeBills int64
	if err := s.db.Model(&models.RecurringBill{}).
		Where("sinking_fund_id = ? AND is_active = ?", id, true).
		Count(&activeBills).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if activeBills > 0 {
		return apperrors.WithMessage(apperrors.ErrValidation, "fund still pays active recurring bills")
	}

	if err := s.db.Model(fund).Update("is_deleted", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecomputeBalance rebuilds the fund's cached balance by replaying its full
// transaction history.
func (s *fundService) RecomputeBalance(id uint) (*models.SinkingFund, error) {
	if _, err := s.GetByID(id); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return recomputeFundBalance(tx, id)
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return s.GetByID(id)
}

// Status returns the fund with its buffer diagnostic: the fund is flagged when
// its balance cannot cover the active bills it pays that fall due within the
// next 30 days. Read-only; never blocks anything.
func (s *fundService) Status(id uint, now time.Time) (*FundStatus, error) {
	fund, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	horizon := now.AddDate(0, 0, bufferWindowDays).Format(models.DateLayout)
	var upcoming decimal.NullDecimal
	err = s.db.Model(&models.RecurringBill{}).
		Where("sinking_fund_id = ? AND is_active = ? AND next_due_date <= ?", id, true, horizon).
		Select("SUM(amount)").
		Scan(&upcoming).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := decimal.Zero
	if upcoming.Valid {
		total = upcoming.Decimal
	}

	return &FundStatus{
		Fund:               *fund,
		UpcomingBillsTotal: total,
		BufferWarning:      fund.CurrentBalance.LessThan(total),
	}, nil
}
