package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
)

func TestImportServiceHappyPath(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewImportService(repo, nil, nil, nil)

	csv := strings.Join([]string{
		"Student ID,First Name,Last Name,Strand,Year Level,Section,Email,Phone",
		"2024-0001,Juan,Dela Cruz,HUMSS,11,A,juan@school.edu.ph,0917-000-0001",
		"2024-0002,Ana,Cruzado,ABM,12,B,,",
	}, "\n")

	result, err := svc.Import(context.Background(), ImportRequest{CSVContent: csv})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Total)
	assert.Empty(t, result.Errors)
	assert.False(t, result.HasMoreErrors)
	assert.Equal(t, "Import completed. 2 students imported successfully.", result.Message)
	require.Len(t, repo.students, 2)
	assert.Equal(t, "2024-0001", repo.students[0].StudentID)
	assert.Nil(t, repo.students[1].Email)
}

func TestImportServiceHeaderAliases(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewImportService(repo, nil, nil, nil)

	csv := strings.Join([]string{
		"id,Name,Surname,strand,Grade,section,email,Contact",
		"2024-0003,Pedro,Penduko,css,11,C,pedro@school.edu.ph,0917-000-0003",
	}, "\n")

	result, err := svc.Import(context.Background(), ImportRequest{CSVContent: csv})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, repo.students, 1)
	assert.Equal(t, "Pedro", repo.students[0].FirstName)
	assert.Equal(t, "Penduko", repo.students[0].LastName)
	assert.Equal(t, "CSS", string(repo.students[0].Strand))
	require.NotNil(t, repo.students[0].Phone)
	assert.Equal(t, "0917-000-0003", *repo.students[0].Phone)
}

func TestImportServiceRowErrors(t *testing.T) {
	repo := &mockStudentRepo{duplicateIDs: map[string]bool{"2024-0009": true}}
	svc := NewImportService(repo, nil, nil, nil)

	csv := strings.Join([]string{
		"Student ID,First Name,Last Name,Strand,Year Level,Section,Email",
		",Juan,Dela Cruz,HUMSS,11,A,",
		"ab,Juan,Dela Cruz,HUMSS,11,A,",
		"2024-0005,Juan,Dela Cruz,STEM,11,A,",
		"2024-0006,Juan,Dela Cruz,HUMSS,11,A,broken-email",
		"2024-0009,Juan,Dela Cruz,HUMSS,11,A,",
		"2024-0007,Maria,Clara,ABM,12,B,",
	}, "\n")

	result, err := svc.Import(context.Background(), ImportRequest{CSVContent: csv})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 6, result.Total)
	require.Len(t, result.Errors, 5)
	assert.Equal(t, "Row 2: Missing required fields", result.Errors[0])
	assert.Equal(t, "Row 3: Invalid student ID format", result.Errors[1])
	assert.Equal(t, "Row 4: Invalid strand 'STEM'. Must be one of: HUMSS, ABM, CSS, SMAW, AUTO, EIM", result.Errors[2])
	assert.Equal(t, "Row 5: Invalid email format", result.Errors[3])
	assert.Equal(t, "Row 6: Student ID '2024-0009' already exists", result.Errors[4])
	assert.False(t, result.HasMoreErrors)
}

func TestImportServiceDuplicateWithinBatch(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewImportService(repo, nil, nil, nil)

	csv := strings.Join([]string{
		"Student ID,First Name,Last Name,Strand,Year Level,Section",
		"2024-0010,Juan,Dela Cruz,HUMSS,11,A",
		"2024-0010,Ana,Cruzado,ABM,12,B",
	}, "\n")

	result, err := svc.Import(context.Background(), ImportRequest{CSVContent: csv})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Row 3: Student ID '2024-0010' already exists", result.Errors[0])
}

func TestImportServiceErrorCap(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewImportService(repo, nil, nil, nil)

	lines := []string{"Student ID,First Name,Last Name,Strand,Year Level,Section"}
	for i := 0; i < 12; i++ {
		lines = append(lines, ",,,,,")
	}
	lines = append(lines, "2024-0020,Juan,Dela Cruz,HUMSS,11,A")

	result, err := svc.Import(context.Background(), ImportRequest{CSVContent: strings.Join(lines, "\n")})
	require.NoError(t, err)
	assert.Len(t, result.Errors, 10)
	assert.True(t, result.HasMoreErrors)
	// Rows after the capped errors are still processed.
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 13, result.Total)
}

func TestImportServiceExactlyTenErrors(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewImportService(repo, nil, nil, nil)

	lines := []string{"Student ID,First Name,Last Name,Strand,Year Level,Section"}
	for i := 0; i < 10; i++ {
		lines = append(lines, ",,,,,")
	}

	result, err := svc.Import(context.Background(), ImportRequest{CSVContent: strings.Join(lines, "\n")})
	require.NoError(t, err)
	assert.Len(t, result.Errors, 10)
	assert.False(t, result.HasMoreErrors)
}

func TestImportServiceEmptyPayload(t *testing.T) {
	svc := NewImportService(&mockStudentRepo{}, nil, nil, nil)

	_, err := svc.Import(context.Background(), ImportRequest{CSVContent: "  \n "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportServiceHeaderOnly(t *testing.T) {
	svc := NewImportService(&mockStudentRepo{}, nil, nil, nil)

	result, err := svc.Import(context.Background(), ImportRequest{
		CSVContent: "Student ID,First Name,Last Name,Strand,Year Level,Section",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 0, result.Total)
}

func TestImportServiceInvalidatesDashboardCache(t *testing.T) {
	cacheRepo := newRecordingCache()
	svc := NewImportService(&mockStudentRepo{}, newTestCacheService(cacheRepo), nil, nil)

	csv := "Student ID,First Name,Last Name,Strand,Year Level,Section\n2024-0030,Juan,Dela Cruz,HUMSS,11,A"
	_, err := svc.Import(context.Background(), ImportRequest{CSVContent: csv})
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.invalidated, "dashboard:*")
}

func TestParseDelimitedNaiveSplitter(t *testing.T) {
	rows := parseDelimited("Name,Remarks\nJuan,\"likes a, b\"")
	require.Len(t, rows, 1)
	// Quoted fields are not understood: the comma inside the quotes splits
	// the value and the tail is dropped.
	assert.Equal(t, `"likes a`, rows[0]["Remarks"])
}

func TestParseDelimitedSkipsBlankLinesAndPadsShortRows(t *testing.T) {
	rows := parseDelimited("A,B,C\n\n1,2\n\n3,4,5\n")
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0]["C"])
	assert.Equal(t, "5", rows[1]["C"])
}

func TestImportServiceRowNumbersSkipBlankLines(t *testing.T) {
	svc := NewImportService(&mockStudentRepo{}, nil, nil, nil)

	// Blank lines are discarded before numbering, so the failing row is
	// reported relative to the compacted input.
	csv := "Student ID,First Name,Last Name,Strand,Year Level,Section\n\n,,,,,"
	result, err := svc.Import(context.Background(), ImportRequest{CSVContent: csv})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, fmt.Sprintf("Row %d: Missing required fields", 2), result.Errors[0])
}
