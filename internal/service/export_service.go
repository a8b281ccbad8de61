package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scms-ph/attendance-api/internal/models"
	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
	"github.com/scms-ph/attendance-api/pkg/export"
	"github.com/scms-ph/attendance-api/pkg/storage"
)

// rosterHeaders is the canonical header set every export emits.
var rosterHeaders = []string{"Student ID", "First Name", "Last Name", "Strand", "Year Level", "Section", "Email", "Phone"}

type exportStudentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
}

// ExportResult describes a generated roster file and its download token.
type ExportResult struct {
	ExportID  string    `json:"export_id"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	RowCount  int       `json:"row_count"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Download carries an open export file ready for streaming.
type Download struct {
	File        *os.File
	Filename    string
	ContentType string
}

// ExportService renders the student roster to CSV or PDF files.
type ExportService struct {
	repo    exportStudentRepository
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(repo exportStudentRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:    repo,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		storage: store,
		signer:  signer,
		logger:  logger,
	}
}

// Export renders the full roster in the requested format and stores the
// file, returning a signed download token.
func (s *ExportService) Export(ctx context.Context, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	dataset := rosterDataset(students)
	var data []byte
	switch format {
	case "csv":
		data, err = s.csv.Render(dataset)
	case "pdf":
		data, err = s.pdf.Render(dataset, "Student Roster")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("students_%s_%s.%s", time.Now().UTC().Format("20060102T150405"), exportID[:8], format)
	relPath, err := s.storage.Save(filename, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export url")
	}

	s.logger.Info("roster export generated",
		zap.String("export_id", exportID),
		zap.String("format", format),
		zap.Int("rows", len(students)))

	return &ExportResult{
		ExportID:  exportID,
		Filename:  filename,
		Format:    format,
		RowCount:  len(students),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Download validates a signed token and opens the referenced file.
func (s *ExportService) Download(token string) (*Download, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	contentType := "text/csv"
	if strings.HasSuffix(relPath, ".pdf") {
		contentType = "application/pdf"
	}
	return &Download{File: file, Filename: relPath, ContentType: contentType}, nil
}

// CleanupExpired removes export files older than the signer's window.
func (s *ExportService) CleanupExpired(ttl time.Duration) (int, error) {
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return 0, err
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
	return len(deleted), nil
}

func rosterDataset(students []models.Student) export.Dataset {
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"Student ID": st.StudentID,
			"First Name": st.FirstName,
			"Last Name":  st.LastName,
			"Strand":     string(st.Strand),
			"Year Level": st.YearLevel,
			"Section":    st.Section,
			"Email":      deref(st.Email),
			"Phone":      deref(st.Phone),
		})
	}
	return export.Dataset{Headers: rosterHeaders, Rows: rows}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
