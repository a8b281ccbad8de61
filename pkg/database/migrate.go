package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// Schema statements are idempotent so the migration step can be re-run
// at every deployment without inspecting current state.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(100) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(10) NOT NULL DEFAULT 'teacher' CHECK (role IN ('admin', 'teacher')),
		full_name VARCHAR(100) NOT NULL,
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id BIGSERIAL PRIMARY KEY,
		student_id VARCHAR(50) UNIQUE NOT NULL,
		first_name VARCHAR(50) NOT NULL,
		last_name VARCHAR(50) NOT NULL,
		strand VARCHAR(10) NOT NULL CHECK (strand IN ('HUMSS', 'ABM', 'CSS', 'SMAW', 'AUTO', 'EIM')),
		year_level VARCHAR(10) NOT NULL,
		section VARCHAR(10) NOT NULL,
		email VARCHAR(100),
		phone VARCHAR(20),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS teachers (
		id BIGSERIAL PRIMARY KEY,
		teacher_id VARCHAR(50) UNIQUE NOT NULL,
		first_name VARCHAR(50) NOT NULL,
		last_name VARCHAR(50) NOT NULL,
		position VARCHAR(100) NOT NULL,
		department VARCHAR(100),
		email VARCHAR(100),
		phone VARCHAR(20),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL REFERENCES students(id),
		date DATE NOT NULL,
		time_in TIME,
		time_out TIME,
		status VARCHAR(10) NOT NULL DEFAULT 'Absent' CHECK (status IN ('Present', 'Late', 'Absent')),
		remarks TEXT,
		created_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT attendance_student_date_key UNIQUE (student_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS qr_codes (
		id BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL REFERENCES students(id),
		qr_code_data TEXT NOT NULL,
		qr_code_url VARCHAR(255),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS face_recognition (
		id BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL REFERENCES students(id),
		face_encoding TEXT NOT NULL,
		image_url VARCHAR(255),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		user_id BIGINT,
		action VARCHAR(50) NOT NULL,
		resource VARCHAR(50) NOT NULL,
		resource_id VARCHAR(50),
		new_values JSONB,
		ip_address VARCHAR(45),
		user_agent TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date)`,
	`CREATE INDEX IF NOT EXISTS idx_students_strand ON students(strand)`,
}

const (
	defaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@attendance.local"
	defaultAdminPassword = "admin123"
)

// Migrate applies the schema and seeds the default admin account. It is
// safe to run repeatedly and is intended for the deploy-time migrate
// command, never for request handling.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return seedAdmin(ctx, db)
}

func seedAdmin(ctx context.Context, db *sqlx.DB) error {
	var id int64
	err := db.GetContext(ctx, &id, `SELECT id FROM users WHERE username = $1 OR email = $2 LIMIT 1`, defaultAdminUsername, defaultAdminEmail)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check default admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), 12)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	const query = `INSERT INTO users (username, email, password_hash, role, full_name)
		VALUES ($1, $2, $3, 'admin', 'System Administrator')`
	if _, err := db.ExecContext(ctx, query, defaultAdminUsername, defaultAdminEmail, string(hash)); err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}
	return nil
}
