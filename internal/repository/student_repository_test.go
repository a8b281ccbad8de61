package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/scms-ph/attendance-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryCreateReturnsGeneratedID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	student := &models.Student{
		StudentID: "S-12345",
		FirstName: "Juan",
		LastName:  "Dela Cruz",
		Strand:    models.StrandHUMSS,
		YearLevel: "11",
		Section:   "A",
	}
	require.NoError(t, repo.Create(context.Background(), student))
	require.Equal(t, int64(42), student.ID)
	require.False(t, student.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Student{StudentID: "S-12345"})
	require.ErrorIs(t, err, ErrDuplicateStudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 99)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteRemovesChildrenFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE student_id = $1")).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM qr_codes WHERE student_id = $1")).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM face_recognition WHERE student_id = $1")).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryClear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE student_id IN")).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM qr_codes WHERE student_id IN")).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM face_recognition WHERE student_id IN")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students")).
		WillReturnResult(sqlmock.NewResult(0, 5))

	require.NoError(t, repo.Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCountByStrandFillsMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	rows := sqlmock.NewRows([]string{"strand", "count"}).
		AddRow("HUMSS", 12).
		AddRow("ABM", 4)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT strand, COUNT(*)")).WillReturnRows(rows)

	counts, err := repo.CountByStrand(context.Background())
	require.NoError(t, err)
	require.Equal(t, 12, counts[models.StrandHUMSS])
	require.Equal(t, 4, counts[models.StrandABM])
	require.Equal(t, 0, counts[models.StrandEIM])
	require.Len(t, counts, len(models.Strands))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySearchUsesLoweredPattern(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "name", "detail", "type"}).
		AddRow(int64(1), "Juan Dela Cruz", "HUMSS", "student")
	mock.ExpectQuery("SELECT id, first_name").
		WithArgs("%cruz%").
		WillReturnRows(rows)

	results, err := repo.Search(context.Background(), "CRUZ", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, models.SearchResultType("student"), results[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "first_name", "last_name", "strand", "year_level", "section", "email", "phone", "created_at", "updated_at"}).
		AddRow(int64(1), "2024-0001", "Ana", "Cruzado", "ABM", "12", "B", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id")).WillReturnRows(rows)

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Nil(t, students[0].Email)
	require.NoError(t, mock.ExpectationsWereMet())
}
