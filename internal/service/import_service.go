package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scms-ph/attendance-api/internal/models"
	"github.com/scms-ph/attendance-api/internal/repository"
	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
	"github.com/scms-ph/attendance-api/pkg/validate"
)

// maxReportedImportErrors bounds the error list in the response.
const maxReportedImportErrors = 10

// Accepted header spellings per logical field, checked in order.
var (
	studentIDAliases = []string{"Student ID", "student_id", "ID", "id"}
	firstNameAliases = []string{"First Name", "first_name", "FirstName", "Name"}
	lastNameAliases  = []string{"Last Name", "last_name", "LastName", "Surname"}
	strandAliases    = []string{"Strand", "strand"}
	yearLevelAliases = []string{"Year Level", "year_level", "Grade", "grade"}
	sectionAliases   = []string{"Section", "section"}
	emailAliases     = []string{"Email", "email"}
	phoneAliases     = []string{"Phone", "phone", "Contact", "contact"}
)

// ImportRequest carries raw delimited text embedded in the JSON body.
type ImportRequest struct {
	CSVContent string `json:"csvContent"`
}

// ImportResult summarises a bulk ingestion run.
type ImportResult struct {
	Message       string   `json:"message"`
	Imported      int      `json:"imported"`
	Total         int      `json:"total"`
	Errors        []string `json:"errors"`
	HasMoreErrors bool     `json:"hasMoreErrors"`
}

// ImportService ingests delimited student rosters.
type ImportService struct {
	repo    studentRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(repo studentRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Import parses the payload and inserts rows best-effort. Row failures never
// abort the batch; rows inserted before a later failure stay committed.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if strings.TrimSpace(req.CSVContent) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "CSV content is required")
	}

	rows := parseDelimited(req.CSVContent)
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no valid data found in CSV")
	}

	imported := 0
	var rowErrors []string

	for i, row := range rows {
		// +2 accounts for the header line and zero-based indexing.
		rowNum := i + 2

		studentID := resolveField(row, studentIDAliases)
		firstName := resolveField(row, firstNameAliases)
		lastName := resolveField(row, lastNameAliases)
		strand := strings.ToUpper(resolveField(row, strandAliases))
		yearLevel := resolveField(row, yearLevelAliases)
		section := resolveField(row, sectionAliases)
		email := resolveField(row, emailAliases)
		phone := resolveField(row, phoneAliases)

		if studentID == "" || firstName == "" || lastName == "" || strand == "" || yearLevel == "" || section == "" {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Missing required fields", rowNum))
			continue
		}
		if !validate.StudentID(studentID) {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Invalid student ID format", rowNum))
			continue
		}
		if !models.ValidStrand(strand) {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Invalid strand '%s'. Must be one of: %s", rowNum, strand, models.StrandList()))
			continue
		}
		if email != "" && !validate.Email(email) {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Invalid email format", rowNum))
			continue
		}

		student := &models.Student{
			StudentID: studentID,
			FirstName: firstName,
			LastName:  lastName,
			Strand:    models.Strand(strand),
			YearLevel: yearLevel,
			Section:   section,
			Email:     optional(email),
			Phone:     optional(phone),
		}
		if err := s.repo.Create(ctx, student); err != nil {
			if errors.Is(err, repository.ErrDuplicateStudentID) {
				rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Student ID '%s' already exists", rowNum, studentID))
			} else {
				rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Database error - %v", rowNum, err))
			}
			continue
		}
		imported++
	}

	s.metrics.RecordImportRows("imported", imported)
	s.metrics.RecordImportRows("rejected", len(rowErrors))
	if imported > 0 {
		if err := s.cache.Invalidate(ctx, dashboardCacheKeyPattern); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("student import finished",
		zap.Int("imported", imported),
		zap.Int("total", len(rows)),
		zap.Int("errors", len(rowErrors)))

	reported := rowErrors
	if len(reported) > maxReportedImportErrors {
		reported = reported[:maxReportedImportErrors]
	}
	if reported == nil {
		reported = []string{}
	}

	return &ImportResult{
		Message:       fmt.Sprintf("Import completed. %d students imported successfully.", imported),
		Imported:      imported,
		Total:         len(rows),
		Errors:        reported,
		HasMoreErrors: len(rowErrors) > maxReportedImportErrors,
	}, nil
}

// parseDelimited splits comma-separated text into header-keyed rows. It is a
// naive splitter and does not handle quoted fields containing the delimiter.
func parseDelimited(text string) []map[string]string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	headers := strings.Split(lines[0], ",")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([]map[string]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(line, ",")
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(values) {
				row[header] = strings.TrimSpace(values[i])
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func resolveField(row map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if value := row[alias]; value != "" {
			return value
		}
	}
	return ""
}
