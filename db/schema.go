// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is kept to the subset PostgreSQL and SQLite share.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DropSchema removes every table. Used by tests to start from a clean slate.
func DropSchema(db *sql.DB) error {
	_, err := db.Exec(`
		DROP TABLE IF EXISTS completion_record;
		DROP TABLE IF EXISTS ballot;
		DROP TABLE IF EXISTS candidate;
		DROP TABLE IF EXISTS election_position;
		DROP TABLE IF EXISTS election;
		DROP TABLE IF EXISTS student_faculty;
		DROP TABLE IF EXISTS ec_officer;
		DROP TABLE IF EXISTS student;
		DROP TABLE IF EXISTS app_user;
		DROP TABLE IF EXISTS faculty;
	`)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

const schema = `
-- Faculties (reference data)
CREATE TABLE IF NOT EXISTS faculty (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    color TEXT NOT NULL DEFAULT '#007bff'
);

-- Users: one identity, exactly one role
CREATE TABLE IF NOT EXISTS app_user (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('student', 'ec_officer')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Student profile
CREATE TABLE IF NOT EXISTS student (
    user_id TEXT PRIMARY KEY REFERENCES app_user(id) ON DELETE CASCADE,
    email TEXT,
    mobile TEXT,
    ballot_seq INTEGER NOT NULL DEFAULT 0
);

-- EC officer profile
CREATE TABLE IF NOT EXISTS ec_officer (
    user_id TEXT PRIMARY KEY REFERENCES app_user(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Student faculty memberships
CREATE TABLE IF NOT EXISTS student_faculty (
    student_id TEXT NOT NULL REFERENCES student(user_id) ON DELETE CASCADE,
    faculty_id TEXT NOT NULL REFERENCES faculty(id) ON DELETE CASCADE,
    PRIMARY KEY (student_id, faculty_id)
);

CREATE INDEX IF NOT EXISTS idx_student_faculty_faculty ON student_faculty(faculty_id);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL REFERENCES ec_officer(user_id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    faculty_id TEXT NOT NULL REFERENCES faculty(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_election_owner ON election(owner_id);
CREATE INDEX IF NOT EXISTS idx_election_faculty ON election(faculty_id);

-- Positions
CREATE TABLE IF NOT EXISTS election_position (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_election_position_election ON election_position(election_id);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    position_id TEXT NOT NULL REFERENCES election_position(id) ON DELETE CASCADE,
    full_name TEXT NOT NULL,
    photo_url TEXT
);

CREATE INDEX IF NOT EXISTS idx_candidate_position ON candidate(position_id);

-- Ballots: one per student per position
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL REFERENCES student(user_id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    position_id TEXT NOT NULL REFERENCES election_position(id) ON DELETE CASCADE,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    cast_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (student_id, position_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_student_election ON ballot(student_id, election_id);

-- Completion records: one per student per election
CREATE TABLE IF NOT EXISTS completion_record (
    student_id TEXT NOT NULL REFERENCES student(user_id) ON DELETE CASCADE,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    completed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (student_id, election_id)
);

CREATE INDEX IF NOT EXISTS idx_completion_record_election ON completion_record(election_id);
`
