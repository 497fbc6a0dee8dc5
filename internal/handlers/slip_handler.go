package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"slip-catalog-backend/internal/config"
	"slip-catalog-backend/internal/models"
	"slip-catalog-backend/internal/repository"
	"slip-catalog-backend/internal/services/csvimport"
	"slip-catalog-backend/internal/services/pdfsplit"
	"slip-catalog-backend/internal/services/report"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SlipHandler struct {
	csvImport *csvimport.Service
	pdfSplit  *pdfsplit.Service
	report    *report.Renderer
	slips     *repository.SlipRepository
	runs      *repository.ImportRunRepository
}

func NewSlipHandler(
	csvImport *csvimport.Service,
	pdfSplit *pdfsplit.Service,
	reportRenderer *report.Renderer,
	slips *repository.SlipRepository,
	runs *repository.ImportRunRepository,
) *SlipHandler {
	return &SlipHandler{
		csvImport: csvImport,
		pdfSplit:  pdfSplit,
		report:    reportRenderer,
		slips:     slips,
		runs:      runs,
	}
}

// ImportCsv stages the uploaded CSV to local storage, runs the ingestion
// pipeline and reports its per-row breakdown.
func (h *SlipHandler) ImportCsv(c *gin.Context) {
	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "BadRequest", "message": "no CSV file sent"})
		return
	}
	defer file.Close()

	if !hasExtension(fileHeader.Filename, ".csv") || !isCsvContentType(contentType(fileHeader.Header.Get("Content-Type"))) {
		log.Printf("Invalid CSV upload: %s (%s)", fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error":   "UnsupportedMediaType",
			"message": "invalid file format, send a .csv file",
		})
		return
	}

	tempPath, err := stageUpload(file, fileHeader.Filename)
	if err != nil {
		log.Println("ERROR staging CSV upload:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "InternalServerError", "message": "could not store uploaded file"})
		return
	}
	defer func() {
		// best effort, never changes the call's outcome
		if err := os.Remove(tempPath); err != nil {
			log.Printf("ERROR deleting temp file %s: %v", tempPath, err)
		}
	}()

	staged, err := os.Open(tempPath)
	if err != nil {
		log.Println("ERROR reopening staged CSV:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "InternalServerError", "message": "could not read uploaded file"})
		return
	}
	defer staged.Close()

	result, err := h.csvImport.Import(staged)
	if err != nil {
		h.importError(c, err)
		return
	}

	h.recordRun("csv", fileHeader.Filename, result.ImportedCount, result.SkippedRows, 0, result)

	status := http.StatusOK
	if result.ImportedCount > 0 {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// ImportPdf splits the uploaded multi-page PDF into one file per matched slip.
func (h *SlipHandler) ImportPdf(c *gin.Context) {
	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "BadRequest", "message": "no PDF file sent"})
		return
	}
	defer file.Close()

	if !hasExtension(fileHeader.Filename, ".pdf") || contentType(fileHeader.Header.Get("Content-Type")) != "application/pdf" {
		log.Printf("Invalid PDF upload: %s (%s)", fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error":   "UnsupportedMediaType",
			"message": "invalid file format, send a .pdf file",
		})
		return
	}

	pdfBytes, err := io.ReadAll(file)
	if err != nil {
		log.Println("ERROR reading PDF upload:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "InternalServerError", "message": "could not read uploaded file"})
		return
	}

	pageOrder := config.PdfPageOrder()
	if raw := c.PostForm("pageOrder"); raw != "" {
		pageOrder = config.SplitPageOrder(raw)
	}

	result, err := h.pdfSplit.Split(pdfBytes, pageOrder, config.PdfOutputDir())
	if err != nil {
		log.Println("ERROR in PDF split pipeline:", err)
		resp := gin.H{"error": "PdfProcessingError", "message": "failed to process PDF"}
		if gin.Mode() != gin.ReleaseMode {
			resp["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	h.recordRun("pdf", fileHeader.Filename, result.SavedCount, result.SkippedCount, result.ErrorCount, result)
	c.JSON(http.StatusCreated, result)
}

// ListSlips returns the filtered slip list, or the rendered report when
// report=1 (or true) is passed.
func (h *SlipHandler) ListSlips(c *gin.Context) {
	filters := repository.SlipFilters{
		DebtorName: c.Query("debtorName"),
		BatchID:    c.Query("batchId"),
		MinAmount:  c.Query("minAmount"),
		MaxAmount:  c.Query("maxAmount"),
	}

	slips, err := h.slips.FindWithFilters(filters)
	if err != nil {
		log.Println("ERROR listing slips:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "InternalServerError", "message": "failed to fetch slips"})
		return
	}

	reportParam := c.Query("report")
	if reportParam == "1" || strings.EqualFold(reportParam, "true") {
		if len(slips) == 0 {
			c.JSON(http.StatusOK, gin.H{"base64": nil, "message": "no records found for report"})
			return
		}
		pdfBytes, err := h.report.Render(slips)
		if err != nil {
			log.Println("ERROR rendering report:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ReportError", "message": "failed to generate report"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"base64": base64.StdEncoding.EncodeToString(pdfBytes)})
		return
	}

	c.JSON(http.StatusOK, slips)
}

func (h *SlipHandler) importError(c *gin.Context, err error) {
	log.Println("ERROR in CSV import pipeline:", err)

	status := http.StatusInternalServerError
	name := "InternalServerError"
	message := "unexpected error while importing CSV"

	var pe *csvimport.PipelineError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case csvimport.KindConflict:
			status = http.StatusConflict
			name = "Conflict"
			message = "import rejected: a row references a batch that no longer exists"
		case csvimport.KindRead:
			name = "CsvReadError"
			message = "failed to read the CSV file"
		case csvimport.KindResolver, csvimport.KindPersistence:
			name = "DatabaseError"
			message = "failed to save imported data"
		}
	}

	resp := gin.H{"error": name, "message": message}
	if gin.Mode() != gin.ReleaseMode {
		resp["details"] = err.Error()
	}
	c.JSON(status, resp)
}

// recordRun persists an audit row for a completed pipeline call. Failures are
// logged only.
func (h *SlipHandler) recordRun(kind, filename string, imported, skipped, errCount int, details any) {
	payload, err := json.Marshal(details)
	if err != nil {
		log.Printf("ERROR marshalling %s run details: %v", kind, err)
		payload = nil
	}
	run := &models.ImportRun{
		Kind:          kind,
		Filename:      filename,
		ImportedCount: imported,
		SkippedCount:  skipped,
		ErrorCount:    errCount,
		Details:       datatypes.JSON(payload),
	}
	if err := h.runs.Create(run); err != nil {
		log.Printf("ERROR recording %s import run: %v", kind, err)
	}
}

func stageUpload(file io.Reader, originalName string) (string, error) {
	dir := config.UploadDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "import_"+uuid.New().String()+"_"+filepath.Base(originalName))

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func hasExtension(filename, ext string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ext)
}

// contentType strips any parameters ("text/csv; charset=utf-8" -> "text/csv").
func contentType(raw string) string {
	mediaType, _, _ := strings.Cut(raw, ";")
	return strings.TrimSpace(strings.ToLower(mediaType))
}

func isCsvContentType(mediaType string) bool {
	return mediaType == "text/csv" || mediaType == "application/vnd.ms-excel"
}
