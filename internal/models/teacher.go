package models

import "time"

// Teacher represents a faculty member record.
type Teacher struct {
	ID         int64     `db:"id" json:"id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Position   string    `db:"position" json:"position"`
	Department *string   `db:"department" json:"department,omitempty"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name used by search ranking.
func (t *Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}
