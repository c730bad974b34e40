package database

import (
	"context"

	"github.com/kodustech/activity-tracker/internal/models"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Categories returns all categories ordered by name.
func (r *Repository) Categories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	result := r.db.WithContext(ctx).Order("name ASC").Find(&categories)
	if result.Error != nil {
		return nil, ioError(result.Error, "failed to query categories")
	}
	return categories, nil
}

// CountCategories returns the number of stored categories.
func (r *Repository) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&count).Error; err != nil {
		return 0, ioError(err, "failed to count categories")
	}
	return count, nil
}

// CategoryByID returns the category with the given id or ErrNotFound.
func (r *Repository) CategoryByID(ctx context.Context, id string) (*models.Category, error) {
	return categoryByID(r.db.WithContext(ctx), id)
}

func categoryByID(db *gorm.DB, id string) (*models.Category, error) {
	var category models.Category
	result := db.Where("id = ?", id).First(&category)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "category %s", id)
		}
		return nil, ioError(result.Error, "failed to get category")
	}
	return &category, nil
}

// CategoryFor resolves the category assigned to application. It returns nil
// without error when the application is uncategorized.
func (r *Repository) CategoryFor(ctx context.Context, application string) (*models.Category, error) {
	var category models.Category
	result := r.db.WithContext(ctx).
		Joins("JOIN app_categories ON app_categories.category_id = categories.id").
		Where("app_categories.application = ?", application).
		First(&category)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ioError(result.Error, "failed to resolve category")
	}
	return &category, nil
}

// CreateCategory inserts a category, rejecting a name that already exists.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = ulid.Make().String()
	}

	err := r.write(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, category.Name, ""); err != nil {
			return err
		}
		return tx.Create(category).Error
	})
	return ioError(err, "failed to create category")
}

// UpdateCategory applies the non-nil fields of upd to category id.
func (r *Repository) UpdateCategory(ctx context.Context, id string, upd models.CategoryUpdate) (*models.Category, error) {
	var updated *models.Category
	err := r.write(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := categoryByID(tx, id)
		if err != nil {
			return err
		}
		if upd.Name != nil && *upd.Name != category.Name {
			if err := ensureNameFree(tx, *upd.Name, id); err != nil {
				return err
			}
			category.Name = *upd.Name
		}
		if upd.Color != nil {
			category.Color = *upd.Color
		}
		if upd.IsProductive != nil {
			category.IsProductive = *upd.IsProductive
		}
		if err := tx.Save(category).Error; err != nil {
			return err
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, ioError(err, "failed to update category")
	}
	return updated, nil
}

// DeleteCategory removes a category and every mapping that references it.
// Activities are never touched.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	err := r.write(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.Wrapf(ErrNotFound, "category %s", id)
		}
		return tx.Where("category_id = ?", id).Delete(&models.AppCategory{}).Error
	})
	return ioError(err, "failed to delete category")
}

// SetAppCategory assigns application to categoryID, replacing any previous
// assignment.
func (r *Repository) SetAppCategory(ctx context.Context, application, categoryID string) error {
	err := r.write(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := categoryByID(tx, categoryID); err != nil {
			return err
		}
		mapping := models.AppCategory{Application: application, CategoryID: categoryID}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "application"}},
			DoUpdates: clause.AssignmentColumns([]string{"category_id", "updated_at"}),
		}).Create(&mapping).Error
	})
	return ioError(err, "failed to set application category")
}

// ClearAppCategory removes the mapping for application, if any.
func (r *Repository) ClearAppCategory(ctx context.Context, application string) error {
	result := r.write(ctx).Where("application = ?", application).Delete(&models.AppCategory{})
	if result.Error != nil {
		return ioError(result.Error, "failed to clear application category")
	}
	return nil
}

// AppCategories returns every application to category mapping.
func (r *Repository) AppCategories(ctx context.Context) ([]models.AppCategory, error) {
	mappings := []models.AppCategory{}
	result := r.db.WithContext(ctx).Order("application ASC").Find(&mappings)
	if result.Error != nil {
		return nil, ioError(result.Error, "failed to query application categories")
	}
	return mappings, nil
}

// CategoryIndex resolves every mapped application to its category.
func (r *Repository) CategoryIndex(ctx context.Context) (map[string]models.Category, error) {
	index, err := categoryIndex(r.db.WithContext(ctx))
	if err != nil {
		return nil, ioError(err, "failed to build category index")
	}
	return index, nil
}

func categoryIndex(db *gorm.DB) (map[string]models.Category, error) {
	var categories []models.Category
	if err := db.Find(&categories).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	var mappings []models.AppCategory
	if err := db.Find(&mappings).Error; err != nil {
		return nil, err
	}
	index := make(map[string]models.Category, len(mappings))
	for _, m := range mappings {
		if c, ok := byID[m.CategoryID]; ok {
			index[m.Application] = c
		}
	}
	return index, nil
}

// UncategorizedApplications lists applications seen in activities that have
// no category mapping.
func (r *Repository) UncategorizedApplications(ctx context.Context) ([]string, error) {
	db := r.db.WithContext(ctx)
	apps := []string{}
	result := db.
		Model(&models.Activity{}).
		Where("application NOT IN (?)", db.Model(&models.AppCategory{}).Select("application")).
		Distinct().
		Order("application ASC").
		Pluck("application", &apps)
	if result.Error != nil {
		return nil, ioError(result.Error, "failed to query uncategorized applications")
	}
	return apps, nil
}

func ensureNameFree(tx *gorm.DB, name, exceptID string) error {
	var count int64
	q := tx.Model(&models.Category{}).Where("name = ?", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.Wrapf(ErrDuplicateName, "category %q", name)
	}
	return nil
}
