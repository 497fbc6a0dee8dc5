package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the postgres connection. DATABASE_URL wins; otherwise the DSN
// is assembled from the individual DB_* variables.
func InitDB() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			envOr("DB_HOST", "localhost"),
			envOr("DB_PORT", "5432"),
			envOr("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			envOr("DB_NAME", "slips"),
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	return db
}

// UploadDir is where incoming files are staged before processing.
func UploadDir() string { return envOr("UPLOAD_DIR", "uploads") }

// PdfOutputDir is where split pages are written.
func PdfOutputDir() string { return envOr("PDF_OUTPUT_DIR", "generated_pdfs") }

// Port the HTTP server listens on.
func Port() string { return envOr("PORT", "8080") }

// PdfPageOrder is the default expected debtor-name sequence for PDF splitting,
// one name per source page. Callers may override it per request.
func PdfPageOrder() []string {
	raw := os.Getenv("PDF_PAGE_ORDER")
	if raw == "" {
		return []string{"MARCIA CARVALHO", "JOSE DA SILVA", "MARCOS ROBERTO"}
	}
	return SplitPageOrder(raw)
}

// SplitPageOrder parses a comma-separated name list, dropping blank entries.
func SplitPageOrder(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
