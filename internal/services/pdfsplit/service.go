package pdfsplit

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageDetail records the outcome of one processed page. Page numbers are
// 1-based to match the detail payload shown to callers.
type PageDetail struct {
	Status   string `json:"status"` // "saved", "skipped" or "error"
	Page     int    `json:"page"`
	Name     string `json:"name,omitempty"`
	ID       int    `json:"id,omitempty"`
	Filename string `json:"filename,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type Result struct {
	Message      string       `json:"message"`
	SavedCount   int          `json:"savedCount"`
	SkippedCount int          `json:"skippedCount"`
	ErrorCount   int          `json:"errorCount"`
	Details      []PageDetail `json:"details"`
}

type SlipFinder interface {
	MapDebtorNamesToIDs(names []string) (map[string]int, error)
}

type Service struct {
	slips SlipFinder
	conf  *model.Configuration
}

func New(slips SlipFinder) *Service {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Service{slips: slips, conf: conf}
}

// Split matches pageOrder positionally against the document's pages and
// writes one single-page PDF per resolved name into outputDir, named
// <slip id>.pdf. Correctness depends entirely on the source document's page
// order matching pageOrder; nothing here inspects page content.
func (s *Service) Split(pdfBytes []byte, pageOrder []string, outputDir string) (*Result, error) {
	nameToID, err := s.slips.MapDebtorNamesToIDs(pageOrder)
	if err != nil {
		return nil, fmt.Errorf("resolve page order names: %w", err)
	}
	if len(nameToID) != len(pageOrder) {
		log.Printf("PDF split: only %d of %d expected names have a slip record", len(nameToID), len(pageOrder))
	}

	rs := bytes.NewReader(pdfBytes)
	pageCount, err := api.PageCount(rs, s.conf)
	if err != nil {
		return nil, fmt.Errorf("read PDF page count: %w", err)
	}
	log.Printf("PDF split: document has %d pages, expected order has %d names", pageCount, len(pageOrder))

	if pageCount > len(pageOrder) {
		log.Printf("PDF split: %d trailing pages have no expected name and are ignored", pageCount-len(pageOrder))
	}
	if pageCount < len(pageOrder) {
		log.Printf("PDF split: %d trailing names have no page and are ignored", len(pageOrder)-pageCount)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	pages := pageCount
	if len(pageOrder) < pages {
		pages = len(pageOrder)
	}

	res := &Result{Details: []PageDetail{}}
	for i := 0; i < pages; i++ {
		pageNum := i + 1
		expectedName := pageOrder[i]

		id, ok := nameToID[expectedName]
		if !ok {
			log.Printf("PDF split: page %d: no slip record for %q, skipped", pageNum, expectedName)
			res.Details = append(res.Details, PageDetail{
				Status: "skipped",
				Page:   pageNum,
				Name:   expectedName,
				Reason: "record not found",
			})
			res.SkippedCount++
			continue
		}

		filename := strconv.Itoa(id) + ".pdf"
		if err := s.extractPage(rs, pageNum, filepath.Join(outputDir, filename)); err != nil {
			log.Printf("PDF split: page %d (%q, id %d) failed: %v", pageNum, expectedName, id, err)
			res.Details = append(res.Details, PageDetail{
				Status: "error",
				Page:   pageNum,
				Name:   expectedName,
				ID:     id,
				Reason: err.Error(),
			})
			res.ErrorCount++
			continue
		}

		res.Details = append(res.Details, PageDetail{
			Status:   "saved",
			Page:     pageNum,
			Name:     expectedName,
			ID:       id,
			Filename: filename,
		})
		res.SavedCount++
	}

	res.Message = fmt.Sprintf("PDF processing finished. %d pages saved, %d skipped, %d errors.",
		res.SavedCount, res.SkippedCount, res.ErrorCount)
	log.Println("PDF split:", res.Message)
	return res, nil
}

// extractPage trims the source document down to a single page and writes it
// to path, overwriting any existing file.
func (s *Service) extractPage(rs io.ReadSeeker, pageNum int, path string) error {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind source document: %w", err)
	}

	var buf bytes.Buffer
	if err := api.Trim(rs, &buf, []string{strconv.Itoa(pageNum)}, s.conf); err != nil {
		return fmt.Errorf("extract page %d: %w", pageNum, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
