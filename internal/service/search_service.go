package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/scms-ph/attendance-api/internal/models"
	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
)

const (
	minSearchQueryLength = 2
	perEntitySearchLimit = 10
	maxSearchResults     = 20
)

type searchRepository interface {
	Search(ctx context.Context, term string, limit int) ([]models.SearchResult, error)
}

// SearchService runs the global search box across students and teachers.
type SearchService struct {
	students searchRepository
	teachers searchRepository
	logger   *zap.Logger
}

// NewSearchService constructs the search service.
func NewSearchService(students, teachers searchRepository, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{students: students, teachers: teachers, logger: logger}
}

// Search matches the query against student and teacher records, ranks the
// combined hits, and truncates the result list. Queries shorter than two
// characters never reach storage.
func (s *SearchService) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchQueryLength {
		return &models.SearchResponse{
			Results: []models.SearchResult{},
			Total:   0,
			Query:   query,
			Message: "query must be at least 2 characters",
		}, nil
	}

	students, err := s.students.Search(ctx, query, perEntitySearchLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "search failed")
	}
	teachers, err := s.teachers.Search(ctx, query, perEntitySearchLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "search failed")
	}

	results := append(students, teachers...)
	rankResults(results, query)
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	if results == nil {
		results = []models.SearchResult{}
	}

	return &models.SearchResponse{
		Results: results,
		Total:   len(results),
		Query:   query,
	}, nil
}

// rankResults sorts matches whose name contains the query ahead of the rest,
// breaking ties by case-insensitive name order.
func rankResults(results []models.SearchResult, query string) {
	q := strings.ToLower(query)
	sort.SliceStable(results, func(i, j int) bool {
		ni := strings.ToLower(results[i].Name)
		nj := strings.ToLower(results[j].Name)
		ci := strings.Contains(ni, q)
		cj := strings.Contains(nj, q)
		if ci != cj {
			return ci
		}
		return ni < nj
	})
}
