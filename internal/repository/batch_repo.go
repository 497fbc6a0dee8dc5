package repository

import (
	"fmt"
	"log"

	"slip-catalog-backend/internal/models"

	"gorm.io/gorm"
)

type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// ActiveBatchMap loads every active batch and returns a name -> id lookup.
// No active batches is a valid, empty result; only a store failure is an error.
func (r *BatchRepository) ActiveBatchMap() (map[string]int, error) {
	var batches []models.Batch
	err := r.db.Model(&models.Batch{}).
		Select("id", "name").
		Where("active = ?", true).
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("batch repository: load active batches: %w", err)
	}

	m := make(map[string]int, len(batches))
	for _, b := range batches {
		m[b.Name] = b.ID
	}
	log.Printf("Active batch map loaded, %d entries", len(m))
	return m, nil
}
