package validate

import "regexp"

var (
	studentIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// StudentID reports whether the external-facing student code has an
// acceptable shape: 5 to 20 characters, letters, digits and hyphens only.
func StudentID(id string) bool {
	if len(id) < 5 || len(id) > 20 {
		return false
	}
	return studentIDPattern.MatchString(id)
}

// Email performs a basic local@domain.tld shape check. It is intentionally
// loose; deliverability is not this package's concern.
func Email(email string) bool {
	return emailPattern.MatchString(email)
}
