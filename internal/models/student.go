package models

import (
	"strings"
	"time"
)

// Strand is the fixed academic track code for a student.
type Strand string

const (
	StrandHUMSS Strand = "HUMSS"
	StrandABM   Strand = "ABM"
	StrandCSS   Strand = "CSS"
	StrandSMAW  Strand = "SMAW"
	StrandAUTO  Strand = "AUTO"
	StrandEIM   Strand = "EIM"
)

// Strands lists the accepted strand codes in canonical order.
var Strands = []Strand{StrandHUMSS, StrandABM, StrandCSS, StrandSMAW, StrandAUTO, StrandEIM}

// ValidStrand reports whether the upper-cased code is an accepted strand.
func ValidStrand(code string) bool {
	s := Strand(strings.ToUpper(code))
	for _, valid := range Strands {
		if s == valid {
			return true
		}
	}
	return false
}

// StrandList renders the accepted set for error messages.
func StrandList() string {
	names := make([]string, len(Strands))
	for i, s := range Strands {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Student represents a learner registered in the institution.
type Student struct {
	ID        int64     `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Strand    Strand    `db:"strand" json:"strand"`
	YearLevel string    `db:"year_level" json:"year_level"`
	Section   string    `db:"section" json:"section"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name used by search ranking.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StrandCounts maps each strand to its student count. All six strands are
// always present, zero-valued when empty.
type StrandCounts map[Strand]int

// NewStrandCounts returns a zeroed count for every accepted strand.
func NewStrandCounts() StrandCounts {
	counts := make(StrandCounts, len(Strands))
	for _, s := range Strands {
		counts[s] = 0
	}
	return counts
}

// QRCode stores the opaque QR payload attached to a student.
type QRCode struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	Data      string    `db:"qr_code_data" json:"qr_code_data"`
	URL       *string   `db:"qr_code_url" json:"qr_code_url,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
