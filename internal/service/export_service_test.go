package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scms-ph/attendance-api/internal/models"
	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
	"github.com/scms-ph/attendance-api/pkg/storage"
)

func newTestExportService(t *testing.T, repo exportStudentRepository) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", 30*time.Minute)
	return NewExportService(repo, store, signer, nil)
}

func sampleRoster() []models.Student {
	email := "juan@school.edu.ph"
	return []models.Student{
		{ID: 1, StudentID: "2024-0001", FirstName: "Juan", LastName: "Dela Cruz", Strand: models.StrandHUMSS, YearLevel: "11", Section: "A", Email: &email},
		{ID: 2, StudentID: "2024-0002", FirstName: "Ana", LastName: "Cruzado", Strand: models.StrandABM, YearLevel: "12", Section: "B"},
	}
}

func TestExportServiceCSVRoundTrip(t *testing.T) {
	repo := &mockStudentRepo{students: sampleRoster()}
	svc := newTestExportService(t, repo)

	result, err := svc.Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", result.Format)
	assert.Equal(t, 2, result.RowCount)
	assert.NotEmpty(t, result.Token)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	download, err := svc.Download(result.Token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)

	raw, err := io.ReadAll(download.File)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student ID,First Name,Last Name,Strand,Year Level,Section,Email,Phone", lines[0])
	assert.Contains(t, lines[1], "2024-0001")
	// Optional fields render as empty cells.
	assert.True(t, strings.HasSuffix(lines[2], ","))
}

func TestExportServicePDF(t *testing.T) {
	repo := &mockStudentRepo{students: sampleRoster()}
	svc := newTestExportService(t, repo)

	result, err := svc.Export(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", result.Format)

	download, err := svc.Download(result.Token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "application/pdf", download.ContentType)

	header := make([]byte, 4)
	_, err = download.File.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestExportServiceDefaultsToCSV(t *testing.T) {
	svc := newTestExportService(t, &mockStudentRepo{})

	result, err := svc.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "csv", result.Format)
	assert.Equal(t, 0, result.RowCount)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newTestExportService(t, &mockStudentRepo{})

	_, err := svc.Export(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDownloadRejectsTamperedToken(t *testing.T) {
	repo := &mockStudentRepo{students: sampleRoster()}
	svc := newTestExportService(t, repo)

	result, err := svc.Export(context.Background(), "csv")
	require.NoError(t, err)

	_, err = svc.Download(result.Token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
