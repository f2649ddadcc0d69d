// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	"github.com/danielhkuo/campus-vote/auth"
)

// DefaultFaculties is the reference data every installation starts with.
var DefaultFaculties = []struct {
	Name  string
	Color string
}{
	{"General Guild", "#343a40"},
	{"COCIS", "#007bff"},
	{"COBAMS", "#28a745"},
	{"CEES", "#17a2b8"},
	{"CHS", "#ffc107"},
}

// SeedFaculties inserts DefaultFaculties when the faculty table is empty.
// It returns the number of rows inserted.
func SeedFaculties(db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM faculty`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count faculties: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, f := range DefaultFaculties {
		id, err := auth.GenerateID(8)
		if err != nil {
			return 0, err
		}
		_, err = tx.Exec(`
			INSERT INTO faculty (id, name, color) VALUES ($1, $2, $3)
		`, id, f.Name, f.Color)
		if err != nil {
			return 0, fmt.Errorf("failed to insert faculty %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit faculties: %w", err)
	}
	return len(DefaultFaculties), nil
}
