// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/models"
)

// TestPassword is the password of every user created by this package
const TestPassword = "test-password"

func init() {
	auth.PasswordCost = bcrypt.MinCost
}

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The database lives in t.TempDir and is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := GetTestConfig()
	cfg.DatabaseURL = "file:" + filepath.Join(t.TempDir(), "test.db")

	conn, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file::memory:",
		DatabaseType:  cliparse.DatabaseSQLite,
		SessionSecret: "test-session-secret",
		SessionTTL:    time.Hour,
	}
}

// CreateTestFaculty inserts a faculty and returns its ID
func CreateTestFaculty(t *testing.T, conn *sql.DB, name string) string {
	t.Helper()

	id, _ := auth.GenerateID(8)
	_, err := conn.Exec(`
		INSERT INTO faculty (id, name, color) VALUES ($1, $2, '#007bff')
	`, id, name)
	if err != nil {
		t.Fatalf("Failed to create test faculty: %v", err)
	}
	return id
}

func createTestUser(t *testing.T, conn *sql.DB, username string, role models.Role) string {
	t.Helper()

	id, _ := auth.GenerateID(16)
	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO app_user (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, username, hash, role, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return id
}

// CreateTestStudent creates a student belonging to the given faculties
func CreateTestStudent(t *testing.T, conn *sql.DB, username string, facultyIDs ...string) string {
	t.Helper()

	id := createTestUser(t, conn, username, models.RoleStudent)
	if _, err := conn.Exec(`INSERT INTO student (user_id) VALUES ($1)`, id); err != nil {
		t.Fatalf("Failed to create student profile: %v", err)
	}
	for _, f := range facultyIDs {
		_, err := conn.Exec(`
			INSERT INTO student_faculty (student_id, faculty_id) VALUES ($1, $2)
		`, id, f)
		if err != nil {
			t.Fatalf("Failed to add student faculty: %v", err)
		}
	}
	return id
}

// CreateTestOfficer creates an EC officer
func CreateTestOfficer(t *testing.T, conn *sql.DB, username string) string {
	t.Helper()

	id := createTestUser(t, conn, username, models.RoleECOfficer)
	_, err := conn.Exec(`
		INSERT INTO ec_officer (user_id, created_at) VALUES ($1, $2)
	`, id, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create officer profile: %v", err)
	}
	return id
}

// CreateTestElection creates an election owned by ownerID
func CreateTestElection(t *testing.T, conn *sql.DB, ownerID, facultyID, name string) string {
	t.Helper()

	id, _ := auth.GenerateID(16)
	_, err := conn.Exec(`
		INSERT INTO election (id, owner_id, name, faculty_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, ownerID, name, facultyID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return id
}

// AddTestPosition adds a position with the named candidates and returns the
// position ID and candidate IDs in argument order
func AddTestPosition(t *testing.T, conn *sql.DB, electionID, text string, candidates ...string) (string, []string) {
	t.Helper()

	positionID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO election_position (id, election_id, text) VALUES ($1, $2, $3)
	`, positionID, electionID, text)
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}

	ids := make([]string, 0, len(candidates))
	for _, name := range candidates {
		id, _ := auth.GenerateID(12)
		_, err := conn.Exec(`
			INSERT INTO candidate (id, position_id, full_name) VALUES ($1, $2, $3)
		`, id, positionID, name)
		if err != nil {
			t.Fatalf("Failed to create test candidate: %v", err)
		}
		ids = append(ids, id)
	}
	return positionID, ids
}

// TokenFor issues a session token for an existing user
func TokenFor(t *testing.T, cfg cliparse.Config, userID, username string, role models.Role) string {
	t.Helper()

	token, err := auth.IssueToken(auth.Identity{UserID: userID, Username: username, Role: role}, cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// CountRows returns SELECT COUNT(*) FROM table WHERE where
func CountRows(t *testing.T, conn *sql.DB, table, where string, args ...any) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request. A non-empty token is sent as a
// bearer credential.
func MakeRequest(method, path string, body interface{}, token string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
