package models

import "time"

// AttendanceStatus enumerates the accepted attendance states.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusLate    AttendanceStatus = "Late"
	StatusAbsent  AttendanceStatus = "Absent"
)

// Valid reports whether the status is one of the accepted values.
func (s AttendanceStatus) Valid() bool {
	return s == StatusPresent || s == StatusLate || s == StatusAbsent
}

// Attendance records a single student's state for one date. At most one
// row exists per (student, date).
type Attendance struct {
	ID        int64            `db:"id" json:"id"`
	StudentID int64            `db:"student_id" json:"student_id"`
	Date      time.Time        `db:"date" json:"date"`
	TimeIn    *string          `db:"time_in" json:"time_in,omitempty"`
	TimeOut   *string          `db:"time_out" json:"time_out,omitempty"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Remarks   *string          `db:"remarks" json:"remarks,omitempty"`
	CreatedBy *int64           `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceCounts aggregates today's attendance for the dashboard.
type AttendanceCounts struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
}
