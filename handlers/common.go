// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/scope"
)

// Landing pages per role
const (
	StudentHome = "/students/"
	StudentDone = "/students/taken/"
	ECHome      = "/ec/"
)

// LandingFor returns the page a signed-in user starts from
func LandingFor(role models.Role) string {
	if role == models.RoleECOfficer {
		return ECHome
	}
	return StudentHome
}

// caller returns the identity placed on the context by RequireRole
func caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		w.Header().Set("Location", middleware.LoginPath)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Sign in required")
		return auth.Identity{}, false
	}
	return id, true
}

// seeOther answers with 303 and a JSON body naming the new location
func seeOther(w http.ResponseWriter, location, message string) {
	w.Header().Set("Location", location)
	middleware.JSONResponse(w, http.StatusSeeOther, models.ErrorResponse{
		Error:   http.StatusText(http.StatusSeeOther),
		Message: message,
	})
}

func listFaculties(ctx context.Context, q scope.Querier) ([]models.Faculty, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, color FROM faculty ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query faculties: %w", err)
	}
	defer rows.Close()

	faculties := []models.Faculty{}
	for rows.Next() {
		var f models.Faculty
		if err := rows.Scan(&f.ID, &f.Name, &f.Color); err != nil {
			return nil, fmt.Errorf("failed to scan faculty: %w", err)
		}
		faculties = append(faculties, f)
	}
	return faculties, rows.Err()
}

func facultyByID(ctx context.Context, q scope.Querier, id string) (models.Faculty, bool, error) {
	var f models.Faculty
	err := q.QueryRowContext(ctx, `
		SELECT id, name, color FROM faculty WHERE id = $1
	`, id).Scan(&f.ID, &f.Name, &f.Color)
	if err == sql.ErrNoRows {
		return models.Faculty{}, false, nil
	}
	if err != nil {
		return models.Faculty{}, false, fmt.Errorf("failed to load faculty: %w", err)
	}
	return f, true, nil
}

// checkFaculties validates a non-empty set of existing faculty IDs and
// returns it without duplicates. A non-empty message means invalid input.
func checkFaculties(ctx context.Context, q scope.Querier, ids []string) ([]string, string, error) {
	if len(ids) == 0 {
		return nil, "select at least one faculty", nil
	}

	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		_, ok, err := facultyByID(ctx, q, id)
		if err != nil {
			return nil, "", err
		}
		if !ok {
			return nil, fmt.Sprintf("unknown faculty %q", id), nil
		}
		unique = append(unique, id)
	}
	return unique, "", nil
}
