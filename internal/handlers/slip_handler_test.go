package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"slip-catalog-backend/internal/models"
	"slip-catalog-backend/internal/repository"
	"slip-catalog-backend/internal/services/csvimport"
	"slip-catalog-backend/internal/services/report"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// multipartUpload builds a request with a single "file" part carrying the
// given filename and declared content type.
func multipartUpload(t *testing.T, target, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// Boundary rejections happen before any collaborator is touched, so a handler
// with nil dependencies is enough here.
func newBoundaryRouter() *gin.Engine {
	h := NewSlipHandler(nil, nil, nil, nil, nil)
	r := gin.New()
	r.POST("/import/csv", h.ImportCsv)
	r.POST("/import/pdf", h.ImportPdf)
	return r
}

func TestImportCsvMissingFile(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import/csv", nil)
	newBoundaryRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportCsvRejectsWrongExtension(t *testing.T) {
	rec := httptest.NewRecorder()
	req := multipartUpload(t, "/import/csv", "data.txt", "text/csv", []byte("a;b\n"))
	newBoundaryRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestImportCsvRejectsWrongContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	req := multipartUpload(t, "/import/csv", "data.csv", "application/pdf", []byte("a;b\n"))
	newBoundaryRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestImportPdfRejectsWrongContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	req := multipartUpload(t, "/import/pdf", "doc.pdf", "text/plain", []byte("%PDF-1.4"))
	newBoundaryRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestImportPdfMissingFile(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import/pdf", nil)
	newBoundaryRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// newIntegrationRouter wires the handler against a real sqlite-backed stack,
// with uploads staged into a throwaway directory.
func newIntegrationRouter(t *testing.T) (*gin.Engine, *gorm.DB, string) {
	t.Helper()

	uploadDir := t.TempDir()
	t.Setenv("UPLOAD_DIR", uploadDir)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Batch{}, &models.Slip{}, &models.ImportRun{}))

	batchRepo := repository.NewBatchRepository(db)
	slipRepo := repository.NewSlipRepository(db)
	runRepo := repository.NewImportRunRepository(db)
	h := NewSlipHandler(csvimport.New(batchRepo, slipRepo), nil, report.NewRenderer(), slipRepo, runRepo)

	r := gin.New()
	r.POST("/import/csv", h.ImportCsv)
	r.GET("/slips", h.ListSlips)
	return r, db, uploadDir
}

func seedSlip(t *testing.T, db *gorm.DB, name, amount string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Batch{ID: 3, Name: "0017", Active: true}).Error)
	require.NoError(t, db.Create(&models.Slip{
		DebtorName: name,
		BatchID:    3,
		Amount:     decimal.RequireFromString(amount),
		Code:       "123456123456999999",
		Active:     true,
	}).Error)
}

func TestImportCsvEndToEnd(t *testing.T) {
	r, db, uploadDir := newIntegrationRouter(t)
	require.NoError(t, db.Create(&models.Batch{ID: 3, Name: "0017", Active: true}).Error)

	csv := "nome;unidade;valor;linha_digitavel\n" +
		"JOSE DA SILVA;17;182,54;c1\n" +
		"MARCIA CARVALHO;18;10,00;c2\n" + // batch 0018 is not seeded
		";17;1,00;c3\n" // incomplete

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "/import/csv", "slips.csv", "text/csv", []byte(csv)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ImportedCount int      `json:"importedCount"`
		SkippedRows   int      `json:"skippedRows"`
		NotFoundLotes []string `json:"notFoundLotes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.ImportedCount)
	assert.Equal(t, 2, body.SkippedRows)
	assert.Equal(t, []string{"18"}, body.NotFoundLotes)

	var slipCount int64
	require.NoError(t, db.Model(&models.Slip{}).Count(&slipCount).Error)
	assert.EqualValues(t, 1, slipCount)

	var run models.ImportRun
	require.NoError(t, db.First(&run).Error)
	assert.Equal(t, "csv", run.Kind)
	assert.Equal(t, "slips.csv", run.Filename)
	assert.Equal(t, 1, run.ImportedCount)
	assert.Equal(t, 2, run.SkippedCount)

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged upload is removed after the call")
}

func TestImportCsvNothingValidReturns200(t *testing.T) {
	r, _, _ := newIntegrationRouter(t)

	csv := "nome;unidade;valor;linha_digitavel\nANA;99;10,00;c1\n"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "/import/csv", "slips.csv", "text/csv", []byte(csv)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type staticResolver map[string]int

func (m staticResolver) ActiveBatchMap() (map[string]int, error) { return m, nil }

type conflictWriter struct{}

func (conflictWriter) BulkInsert([]models.SlipCreation) (int, error) {
	return 0, fmt.Errorf("slip repository: bulk insert of 1 records: %w", &pgconn.PgError{Code: "23503"})
}

func TestImportCsvConflictMapsTo409(t *testing.T) {
	t.Setenv("UPLOAD_DIR", t.TempDir())

	h := NewSlipHandler(csvimport.New(staticResolver{"0017": 3}, conflictWriter{}), nil, nil, nil, nil)
	r := gin.New()
	r.POST("/import/csv", h.ImportCsv)

	csv := "nome;unidade;valor;linha_digitavel\nANA;17;10,00;c1\n"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "/import/csv", "slips.csv", "text/csv", []byte(csv)))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Conflict", body["error"])
}

func TestListSlipsReportEmpty(t *testing.T) {
	r, _, _ := newIntegrationRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slips?report=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Base64  *string `json:"base64"`
		Message string  `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.Base64)
	assert.Equal(t, "no records found for report", body.Message)
}

func TestListSlipsReportReturnsBase64Pdf(t *testing.T) {
	r, db, _ := newIntegrationRouter(t)
	seedSlip(t, db, "JOSE DA SILVA", "182.54")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slips?report=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Base64 string `json:"base64"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Base64)

	pdfBytes, err := base64.StdEncoding.DecodeString(body.Base64)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))
}

func TestListSlipsJSONAmountIsDecimalString(t *testing.T) {
	r, db, _ := newIntegrationRouter(t)
	seedSlip(t, db, "JOSE DA SILVA", "182.54")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slips", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)

	amount, ok := body[0]["amount"].(string)
	require.True(t, ok, "amount must be a JSON string, not a number")
	assert.Equal(t, "182.54", amount)
	assert.Equal(t, "JOSE DA SILVA", body[0]["debtor_name"])
}

func TestContentTypeStripsParameters(t *testing.T) {
	assert.Equal(t, "text/csv", contentType("text/csv; charset=utf-8"))
	assert.Equal(t, "application/pdf", contentType("Application/PDF"))
	assert.Equal(t, "", contentType(""))
}

func TestHasExtension(t *testing.T) {
	assert.True(t, hasExtension("Data.CSV", ".csv"))
	assert.True(t, hasExtension("a.b.csv", ".csv"))
	assert.False(t, hasExtension("data.csv.txt", ".csv"))
}

func TestIsCsvContentType(t *testing.T) {
	assert.True(t, isCsvContentType("text/csv"))
	assert.True(t, isCsvContentType("application/vnd.ms-excel"))
	assert.False(t, isCsvContentType("text/plain"))
}
