// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
)

// MinPasswordLength is the shortest password signup accepts
const MinPasswordLength = 8

type AccountHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAccountHandler(db *sql.DB, cfg cliparse.Config) *AccountHandler {
	return &AccountHandler{db: db, cfg: cfg}
}

// StudentSignupForm handles GET /accounts/signup/student/
func (h *AccountHandler) StudentSignupForm(w http.ResponseWriter, r *http.Request) {
	faculties, err := listFaculties(r.Context(), h.db)
	if err != nil {
		slog.Error("failed to list faculties", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SignupFormResponse{
		Role:      models.RoleStudent,
		Faculties: faculties,
	})
}

// ECSignupForm handles GET /accounts/signup/ec/
func (h *AccountHandler) ECSignupForm(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.SignupFormResponse{Role: models.RoleECOfficer})
}

// SignupStudent handles POST /accounts/signup/student/
func (h *AccountHandler) SignupStudent(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	fields := validateCredentials(&req)
	facultyIDs, msg, err := checkFaculties(r.Context(), h.db, req.FacultyIDs)
	if err != nil {
		slog.Error("failed to check faculties", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if msg != "" {
		fields["faculty_ids"] = msg
	}
	if len(fields) > 0 {
		middleware.ValidationResponse(w, "Invalid signup", fields)
		return
	}

	h.signup(w, r, req, models.RoleStudent, func(ctx context.Context, tx *sql.Tx, userID string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO student (user_id, email, mobile) VALUES ($1, $2, $3)
		`, userID, nullString(req.Email), nullString(req.Mobile))
		if err != nil {
			return err
		}
		for _, f := range facultyIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO student_faculty (student_id, faculty_id) VALUES ($1, $2)
			`, userID, f)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SignupEC handles POST /accounts/signup/ec/
func (h *AccountHandler) SignupEC(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if fields := validateCredentials(&req); len(fields) > 0 {
		middleware.ValidationResponse(w, "Invalid signup", fields)
		return
	}

	h.signup(w, r, req, models.RoleECOfficer, func(ctx context.Context, tx *sql.Tx, userID string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ec_officer (user_id, created_at) VALUES ($1, $2)
		`, userID, time.Now().UTC())
		return err
	})
}

// signup writes the user and its profile in one transaction and signs the
// new user in.
func (h *AccountHandler) signup(w http.ResponseWriter, r *http.Request, req models.SignupRequest, role models.Role,
	profile func(ctx context.Context, tx *sql.Tx, userID string) error) {

	ctx := r.Context()

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	userID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate user ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO app_user (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, req.Username, hash, role, time.Now().UTC())
	if db.IsUniqueViolation(err) {
		middleware.ValidationResponse(w, "Invalid signup", map[string]string{
			"username": "a user with that username already exists",
		})
		return
	}
	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	if err := profile(ctx, tx, userID); err != nil {
		slog.Error("failed to insert profile", "error", err, "role", role)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit signup", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	slog.Info("user signed up", "user_id", userID, "role", role)

	h.signIn(w, http.StatusCreated, auth.Identity{UserID: userID, Username: req.Username, Role: role})
}

// Login handles POST /accounts/login/
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var (
		id   auth.Identity
		hash string
	)
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, username, password_hash, role FROM app_user WHERE username = $1
	`, strings.TrimSpace(req.Username)).Scan(&id.UserID, &id.Username, &hash, &id.Role)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := auth.CheckPassword(hash, req.Password); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	h.signIn(w, http.StatusOK, id)
}

// Home handles GET /, sending signed-in callers to their landing page
func (h *AccountHandler) Home(w http.ResponseWriter, r *http.Request) {
	if id, ok := middleware.Authenticate(r, h.cfg.SessionSecret); ok {
		seeOther(w, LandingFor(id.Role), "Signed in as "+id.Username)
		return
	}
	w.Write([]byte("campus-vote API v1"))
}

func (h *AccountHandler) signIn(w http.ResponseWriter, status int, id auth.Identity) {
	token, err := auth.IssueToken(id, h.cfg.SessionSecret, h.cfg.SessionTTL)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	middleware.JSONResponse(w, status, models.AuthResponse{
		UserID:   id.UserID,
		Username: id.Username,
		Role:     id.Role,
		Token:    token,
		Next:     LandingFor(id.Role),
	})
}

func validateCredentials(req *models.SignupRequest) map[string]string {
	fields := map[string]string{}

	req.Username = strings.TrimSpace(req.Username)
	switch {
	case req.Username == "":
		fields["username"] = "username is required"
	case len(req.Username) > 150:
		fields["username"] = "username must be at most 150 characters"
	}

	if len(req.Password) < MinPasswordLength {
		fields["password"] = "password must be at least 8 characters"
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		fields["email"] = "enter a valid email address"
	}

	return fields
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
