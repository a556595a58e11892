package db

import (
	"context"
	"errors"

	"lablend/models"

	"gorm.io/gorm"
)

// FindMaterialByID returns (nil, nil) when the id does not exist;
// absence is an answer here, not an error.
func (r *Repo) FindMaterialByID(ctx context.Context, id string) (*models.Material, error) {
	var m models.Material
	err := r.DB.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) ListMaterials(ctx context.Context) ([]models.Material, error) {
	var ms []models.Material
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&ms).Error
	return ms, err
}

func (r *Repo) CreateMaterial(ctx context.Context, m *models.Material) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

// UpdateMaterial patches the mutable fields, leaving timestamps to gorm.
func (r *Repo) UpdateMaterial(ctx context.Context, m *models.Material) error {
	return r.DB.WithContext(ctx).Model(&models.Material{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"name":        m.Name,
			"category":    m.Category,
			"description": m.Description,
			"quantity":    m.Quantity,
			"available":   m.Available,
			"location":    m.Location,
			"image_url":   m.ImageURL,
		}).Error
}

func (r *Repo) SetMaterialImage(ctx context.Context, id, url string) error {
	return r.DB.WithContext(ctx).Model(&models.Material{}).
		Where("id = ?", id).
		Update("image_url", url).Error
}

// DeleteMaterial hard-deletes. Requests referencing the material keep
// their denormalized name/image and are left orphaned on purpose.
func (r *Repo) DeleteMaterial(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&models.Material{}, "id = ?", id).Error
}
