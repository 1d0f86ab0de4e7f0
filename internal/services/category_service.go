package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// categoryService handles category business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// Create creates a new category.
func (s *categoryService) Create(name string, categoryType models.CategoryType, color string, isBudgetCategory bool) (*models.Category, error) {
	category := &models.Category{
		Name:             name,
		Type:             categoryType,
		Color:            color,
		IsBudgetCategory: isBudgetCategory,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// List returns categories, excluding soft-deleted ones unless requested.
func (s *categoryService) List(includeDeleted bool) ([]models.Category, error) {
	query := s.db.Order("name ASC")
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	var categories []models.Category
	if err := query.Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetByID returns a category by ID, soft-deleted ones included so historical
// transactions stay resolvable.
func (s *categoryService) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// Update updates a category's editable fields.
func (s *categoryService) Update(id uint, name, color *string, isBudgetCategory *bool) (*models.Category, error) {
	category, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category.IsDeleted {
		return nil, apperrors.ErrCategoryNotFound
	}

	updates := make(map[string]interface{})
	if name != nil {
		updates["name"] = *name
	}
	if color != nil {
		updates["color"] = *color
	}
	if isBudgetCategory != nil {
		updates["is_budget_category"] = *isBudgetCategory
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// Delete soft-deletes a category. The row is never removed while transactions
// reference it; it is only excluded from new allocations.
func (s *categoryService) Delete(id uint) error {
	category, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if category.IsDeleted {
		return apperrors.ErrCategoryNotFound
	}
	if err := s.db.Model(category).Update("is_deleted", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
