package repository

import (
	"fmt"

	"slip-catalog-backend/internal/models"

	"gorm.io/gorm"
)

type ImportRunRepository struct {
	db *gorm.DB
}

func NewImportRunRepository(db *gorm.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

func (r *ImportRunRepository) Create(run *models.ImportRun) error {
	if err := r.db.Create(run).Error; err != nil {
		return fmt.Errorf("import run repository: create: %w", err)
	}
	return nil
}
