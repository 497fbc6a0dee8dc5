package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"slip-catalog-backend/internal/models"
	"slip-catalog-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// Result is the outcome of a completed import call.
type Result struct {
	Message       string   `json:"message"`
	ImportedCount int      `json:"importedCount"`
	SkippedRows   int      `json:"skippedRows"`
	NotFoundLotes []string `json:"notFoundLotes"`
}

// Kind classifies a fatal pipeline failure.
type Kind int

const (
	KindResolver    Kind = iota + 1 // active-batch lookup failed
	KindRead                        // source stream unreadable
	KindConflict                    // bulk insert hit a referential-integrity violation
	KindPersistence                 // any other bulk insert failure
)

// PipelineError is a fatal failure of the whole import call. Row-level
// problems never produce one; they only feed the skip counters.
type PipelineError struct {
	Kind Kind
	Err  error
}

func (e *PipelineError) Error() string { return e.Err.Error() }
func (e *PipelineError) Unwrap() error { return e.Err }

type BatchResolver interface {
	ActiveBatchMap() (map[string]int, error)
}

type SlipWriter interface {
	BulkInsert([]models.SlipCreation) (int, error)
}

type Service struct {
	batches BatchResolver
	slips   SlipWriter
}

func New(batches BatchResolver, slips SlipWriter) *Service {
	return &Service{batches: batches, slips: slips}
}

const batchNameWidth = 4

// required CSV columns, matched case-insensitively after trimming
const (
	colName   = "nome"
	colUnit   = "unidade"
	colAmount = "valor"
	colCode   = "linha_digitavel"
)

// Import streams a semicolon-delimited CSV with a header row and bulk-inserts
// every valid row as a slip. Each row either becomes a slip or increments
// SkippedRows; a fatal failure is returned as *PipelineError.
func (s *Service) Import(r io.Reader) (*Result, error) {
	batchByName, err := s.batches.ActiveBatchMap()
	if err != nil {
		return nil, &PipelineError{Kind: KindResolver, Err: fmt.Errorf("load batch map: %w", err)}
	}
	if len(batchByName) == 0 {
		log.Println("CSV import: no active batches, every row will be unresolved")
	}

	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		// empty file: a valid zero-row import
		return &Result{
			Message:       "No valid slips found in file.",
			NotFoundLotes: []string{},
		}, nil
	}
	if err != nil {
		return nil, &PipelineError{Kind: KindRead, Err: fmt.Errorf("read CSV header: %w", err)}
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var (
		creations    []models.SlipCreation
		rowsRead     int
		skippedRows  int
		notFound     = []string{}
		notFoundSeen = map[string]bool{}
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &PipelineError{Kind: KindRead, Err: fmt.Errorf("read CSV row %d: %w", rowsRead+1, err)}
		}
		rowsRead++

		debtorName := field(record, colName)
		unitCode := field(record, colUnit)
		amountStr := field(record, colAmount)
		code := field(record, colCode)

		if debtorName == "" || unitCode == "" || amountStr == "" || code == "" {
			log.Printf("CSV import: row %d incomplete, skipped", rowsRead)
			skippedRows++
			continue
		}

		batchName := padBatchName(unitCode)
		batchID, ok := batchByName[batchName]
		if !ok {
			log.Printf("CSV import: row %d: batch %q (unit %q) not found or inactive, skipped", rowsRead, batchName, unitCode)
			if !notFoundSeen[unitCode] {
				notFoundSeen[unitCode] = true
				notFound = append(notFound, unitCode)
			}
			skippedRows++
			continue
		}

		// every comma is a decimal separator; grouped values like "1,234,56"
		// fail to parse and are skipped rather than misread
		amount, err := decimal.NewFromString(strings.ReplaceAll(amountStr, ",", "."))
		if err != nil {
			log.Printf("CSV import: row %d: invalid amount %q, skipped", rowsRead, amountStr)
			skippedRows++
			continue
		}

		active := true
		creations = append(creations, models.SlipCreation{
			DebtorName: debtorName,
			BatchID:    batchID,
			Amount:     amount,
			Code:       code,
			Active:     &active,
		})
	}

	log.Printf("CSV import: %d rows read, %d valid, %d skipped", rowsRead, len(creations), skippedRows)

	if len(creations) == 0 {
		return &Result{
			Message:       "No valid slips found in file.",
			SkippedRows:   skippedRows,
			NotFoundLotes: notFound,
		}, nil
	}

	imported, err := s.slips.BulkInsert(creations)
	if err != nil {
		kind := KindPersistence
		if repository.IsForeignKeyViolation(err) {
			kind = KindConflict
		}
		return nil, &PipelineError{Kind: kind, Err: err}
	}

	return &Result{
		Message:       fmt.Sprintf("%d slips imported. %d rows skipped.", imported, skippedRows),
		ImportedCount: imported,
		SkippedRows:   skippedRows,
		NotFoundLotes: notFound,
	}, nil
}

// padBatchName left-pads a unit code with zeros to the 4-character batch name
// convention. Longer codes are passed through unchanged.
func padBatchName(unit string) string {
	if len(unit) >= batchNameWidth {
		return unit
	}
	return strings.Repeat("0", batchNameWidth-len(unit)) + unit
}
