package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced when the database rejects a duplicate value in
// a column declared unique. Services translate these into 409 responses
// or per-row import errors.
var (
	ErrDuplicateStudentID = errors.New("student id already exists")
	ErrDuplicateTeacherID = errors.New("teacher id already exists")
	ErrDuplicateUser      = errors.New("username or email already exists")
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
