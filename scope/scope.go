// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scope

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/campus-vote/models"
)

// ErrNotFound covers both missing objects and objects owned by someone else
var ErrNotFound = errors.New("not found")

// Kind names an entity that is owned through its election
type Kind int

const (
	KindElection Kind = iota
	KindPosition
	KindCandidate
)

func (k Kind) String() string {
	switch k {
	case KindElection:
		return "election"
	case KindPosition:
		return "position"
	case KindCandidate:
		return "candidate"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Querier is satisfied by *sql.DB and *sql.Tx
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ownershipQueries join each kind back to election.owner_id
var ownershipQueries = map[Kind]string{
	KindElection: `
		SELECT EXISTS(
			SELECT 1 FROM election e
			WHERE e.id = $1 AND e.owner_id = $2
		)`,
	KindPosition: `
		SELECT EXISTS(
			SELECT 1 FROM election_position p
			JOIN election e ON e.id = p.election_id
			WHERE p.id = $1 AND e.owner_id = $2
		)`,
	KindCandidate: `
		SELECT EXISTS(
			SELECT 1 FROM candidate c
			JOIN election_position p ON p.id = c.position_id
			JOIN election e ON e.id = p.election_id
			WHERE c.id = $1 AND e.owner_id = $2
		)`,
}

// Owns is the single authorization predicate for EC workflows: it reports
// whether officerID owns the election that kind/id belongs to.
func Owns(ctx context.Context, q Querier, officerID string, kind Kind, id string) (bool, error) {
	query, ok := ownershipQueries[kind]
	if !ok {
		return false, fmt.Errorf("unknown kind %s", kind)
	}

	var owned bool
	if err := q.QueryRowContext(ctx, query, id, officerID).Scan(&owned); err != nil {
		return false, fmt.Errorf("failed to check %s ownership: %w", kind, err)
	}
	return owned, nil
}

// Require is Owns that turns "not owned" into ErrNotFound
func Require(ctx context.Context, q Querier, officerID string, kind Kind, id string) error {
	owned, err := Owns(ctx, q, officerID, kind, id)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotFound
	}
	return nil
}

// Election loads an election owned by officerID
func Election(ctx context.Context, q Querier, officerID, electionID string) (models.Election, error) {
	var e models.Election
	err := q.QueryRowContext(ctx, `
		SELECT id, owner_id, name, faculty_id, created_at
		FROM election
		WHERE id = $1 AND owner_id = $2
	`, electionID, officerID).Scan(&e.ID, &e.OwnerID, &e.Name, &e.FacultyID, &e.CreatedAt)

	if err == sql.ErrNoRows {
		return models.Election{}, ErrNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to load election: %w", err)
	}
	return e, nil
}

// Position loads a position that belongs to electionID, which in turn must
// be owned by officerID. A position from a different election is not found
// even when the caller owns both.
func Position(ctx context.Context, q Querier, officerID, electionID, positionID string) (models.Election, models.Position, error) {
	e, err := Election(ctx, q, officerID, electionID)
	if err != nil {
		return models.Election{}, models.Position{}, err
	}

	var p models.Position
	err = q.QueryRowContext(ctx, `
		SELECT id, election_id, text
		FROM election_position
		WHERE id = $1 AND election_id = $2
	`, positionID, e.ID).Scan(&p.ID, &p.ElectionID, &p.Text)

	if err == sql.ErrNoRows {
		return models.Election{}, models.Position{}, ErrNotFound
	}
	if err != nil {
		return models.Election{}, models.Position{}, fmt.Errorf("failed to load position: %w", err)
	}
	return e, p, nil
}

// ListElections returns the officer's elections ordered by name, with
// faculty, position count and voter count.
func ListElections(ctx context.Context, q Querier, officerID string) ([]models.ElectionSummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e.id, e.owner_id, e.name, e.faculty_id, e.created_at,
		       f.id, f.name, f.color,
		       (SELECT COUNT(*) FROM election_position p WHERE p.election_id = e.id),
		       (SELECT COUNT(*) FROM completion_record c WHERE c.election_id = e.id)
		FROM election e
		JOIN faculty f ON f.id = e.faculty_id
		WHERE e.owner_id = $1
		ORDER BY e.name, e.id
	`, officerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	elections := []models.ElectionSummary{}
	for rows.Next() {
		var s models.ElectionSummary
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.Name, &s.FacultyID, &s.CreatedAt,
			&s.Faculty.ID, &s.Faculty.Name, &s.Faculty.Color,
			&s.PositionsCount, &s.VotersCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		elections = append(elections, s)
	}
	return elections, rows.Err()
}
