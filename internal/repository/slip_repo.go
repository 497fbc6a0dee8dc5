package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"slip-catalog-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SlipRepository struct {
	db *gorm.DB
}

func NewSlipRepository(db *gorm.DB) *SlipRepository {
	return &SlipRepository{db: db}
}

// SlipFilters carries the raw query-parameter values. Blank or malformed
// values are ignored, never rejected.
type SlipFilters struct {
	DebtorName string
	BatchID    string
	MinAmount  string
	MaxAmount  string
}

// BulkInsert creates all records in a single store call and returns the number
// of rows created. An empty input returns 0 without touching the store.
func (r *SlipRepository) BulkInsert(records []models.SlipCreation) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	slips := make([]models.Slip, len(records))
	for i, rec := range records {
		active := true
		if rec.Active != nil {
			active = *rec.Active
		}
		slips[i] = models.Slip{
			DebtorName: rec.DebtorName,
			BatchID:    rec.BatchID,
			Amount:     rec.Amount,
			Code:       rec.Code,
			Active:     active,
		}
	}

	result := r.db.Create(&slips)
	if result.Error != nil {
		return 0, fmt.Errorf("slip repository: bulk insert of %d records: %w", len(records), result.Error)
	}
	return int(result.RowsAffected), nil
}

// FindWithFilters returns active slips matching every well-formed filter,
// ordered by debtor name then id.
func (r *SlipRepository) FindWithFilters(f SlipFilters) ([]models.Slip, error) {
	q := r.db.Model(&models.Slip{}).Where("active = ?", true)

	if name := strings.TrimSpace(f.DebtorName); name != "" {
		q = q.Where("LOWER(debtor_name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if id, err := strconv.Atoi(strings.TrimSpace(f.BatchID)); err == nil {
		q = q.Where("batch_id = ?", id)
	}
	if lower, err := decimal.NewFromString(strings.TrimSpace(f.MinAmount)); err == nil {
		q = q.Where("amount >= ?", lower)
	}
	if upper, err := decimal.NewFromString(strings.TrimSpace(f.MaxAmount)); err == nil {
		q = q.Where("amount <= ?", upper)
	}

	slips := []models.Slip{}
	if err := q.Order("debtor_name ASC").Order("id ASC").Find(&slips).Error; err != nil {
		return nil, fmt.Errorf("slip repository: filtered find: %w", err)
	}
	return slips, nil
}

// MapDebtorNamesToIDs resolves the given debtor names to existing slip ids.
// Names without a matching slip are simply absent from the result.
func (r *SlipRepository) MapDebtorNamesToIDs(names []string) (map[string]int, error) {
	m := make(map[string]int, len(names))
	if len(names) == 0 {
		return m, nil
	}

	var slips []models.Slip
	err := r.db.Model(&models.Slip{}).
		Select("id", "debtor_name").
		Where("debtor_name IN ?", names).
		Find(&slips).Error
	if err != nil {
		return nil, fmt.Errorf("slip repository: map debtor names: %w", err)
	}
	for _, s := range slips {
		m[s.DebtorName] = s.ID
	}
	return m, nil
}

// IsForeignKeyViolation reports whether err stems from a referential-integrity
// violation, which the import pipeline surfaces as a conflict rather than a
// generic persistence failure.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	// sqlite test driver has no typed error for this
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
