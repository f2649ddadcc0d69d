// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/models"
)

var (
	ErrNotFound             = errors.New("election not found")
	ErrNoPositions          = errors.New("election has no positions")
	ErrUnknownStudent       = errors.New("unknown student")
	ErrElectionCompleted    = errors.New("election already completed by this student")
	ErrPositionNotRemaining = errors.New("position is not awaiting a ballot from this student")
	ErrCandidateMismatch    = errors.New("candidate does not belong to position")
)

// Progress describes the next step of a student through an election
type Progress struct {
	Election  models.Election
	Position  *models.Position // nil once nothing remains
	Total     int
	Remaining int
	Percent   int
	State     State
}

// Outcome is the result of a successful CastBallot
type Outcome struct {
	BallotID   string
	ElectionID string
	Completed  bool
}

// Machine drives students through election positions, one ballot at a time
type Machine struct {
	db  *sql.DB
	now func() time.Time
}

func NewMachine(db *sql.DB) *Machine {
	return &Machine{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Election returns the election if the student holds its faculty.
// Elections outside the student's faculties are reported as ErrNotFound.
func (m *Machine) Election(ctx context.Context, studentID, electionID string) (models.Election, error) {
	var e models.Election
	err := m.db.QueryRowContext(ctx, `
		SELECT e.id, e.owner_id, e.name, e.faculty_id, e.created_at
		FROM election e
		JOIN student_faculty sf ON sf.faculty_id = e.faculty_id
		WHERE e.id = $1 AND sf.student_id = $2
	`, electionID, studentID).Scan(&e.ID, &e.OwnerID, &e.Name, &e.FacultyID, &e.CreatedAt)

	if err == sql.ErrNoRows {
		return models.Election{}, ErrNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to load election: %w", err)
	}
	return e, nil
}

// Completed reports whether a completion record exists
func (m *Machine) Completed(ctx context.Context, studentID, electionID string) (bool, error) {
	return completed(ctx, m.db, studentID, electionID)
}

// NextPosition returns the first position the student has not balloted,
// ordered by position text then id, together with the progress figures.
func (m *Machine) NextPosition(ctx context.Context, studentID, electionID string) (Progress, error) {
	e, err := m.Election(ctx, studentID, electionID)
	if err != nil {
		return Progress{}, err
	}

	var total int
	err = m.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM election_position WHERE election_id = $1
	`, electionID).Scan(&total)
	if err != nil {
		return Progress{}, fmt.Errorf("failed to count positions: %w", err)
	}
	if total == 0 {
		return Progress{}, ErrNoPositions
	}

	done, err := m.Completed(ctx, studentID, electionID)
	if err != nil {
		return Progress{}, err
	}
	if done {
		return Progress{Election: e, Total: total, Percent: 100, State: StateCompleted}, nil
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT p.id, p.election_id, p.text
		FROM election_position p
		WHERE p.election_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM ballot b
			WHERE b.position_id = p.id AND b.student_id = $2
		  )
		ORDER BY p.text, p.id
	`, electionID, studentID)
	if err != nil {
		return Progress{}, fmt.Errorf("failed to query remaining positions: %w", err)
	}
	defer rows.Close()

	var remaining []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.Text); err != nil {
			return Progress{}, fmt.Errorf("failed to scan position: %w", err)
		}
		remaining = append(remaining, p)
	}
	if err := rows.Err(); err != nil {
		return Progress{}, fmt.Errorf("failed to read positions: %w", err)
	}

	progress := Progress{
		Election:  e,
		Total:     total,
		Remaining: len(remaining),
		Percent:   ProgressPercent(total, len(remaining)),
		State:     StateFor(total, len(remaining), false),
	}
	if len(remaining) > 0 {
		progress.Position = &remaining[0]
	}
	return progress, nil
}

// Candidates lists a position's candidates ordered by full name
func (m *Machine) Candidates(ctx context.Context, positionID string) ([]models.Candidate, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, position_id, full_name, photo_url
		FROM candidate
		WHERE position_id = $1
		ORDER BY full_name, id
	`, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.PositionID, &c.FullName, &c.PhotoURL); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// CastBallot records the student's choice for one position and, when that
// empties the remaining set, the election's completion record. Both writes
// share one transaction. The transaction first bumps the student's
// ballot_seq so that ballots from the same student are serialized (row lock
// on PostgreSQL, write lock on SQLite) before any check runs.
func (m *Machine) CastBallot(ctx context.Context, studentID, positionID, candidateID string) (Outcome, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE student SET ballot_seq = ballot_seq + 1 WHERE user_id = $1
	`, studentID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to lock student: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Outcome{}, fmt.Errorf("failed to lock student: %w", err)
	} else if n == 0 {
		return Outcome{}, ErrUnknownStudent
	}

	// Position and eligibility
	var electionID string
	err = tx.QueryRowContext(ctx, `
		SELECT p.election_id
		FROM election_position p
		JOIN election e ON e.id = p.election_id
		JOIN student_faculty sf ON sf.faculty_id = e.faculty_id
		WHERE p.id = $1 AND sf.student_id = $2
	`, positionID, studentID).Scan(&electionID)
	if err == sql.ErrNoRows {
		return Outcome{}, ErrPositionNotRemaining
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load position: %w", err)
	}

	done, err := completed(ctx, tx, studentID, electionID)
	if err != nil {
		return Outcome{}, err
	}
	if done {
		return Outcome{}, ErrElectionCompleted
	}

	var voted bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM ballot WHERE student_id = $1 AND position_id = $2
		)
	`, studentID, positionID).Scan(&voted)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to check ballot: %w", err)
	}
	if voted {
		return Outcome{}, ErrPositionNotRemaining
	}

	var candidatePosition string
	err = tx.QueryRowContext(ctx, `
		SELECT position_id FROM candidate WHERE id = $1
	`, candidateID).Scan(&candidatePosition)
	if err == sql.ErrNoRows || (err == nil && candidatePosition != positionID) {
		return Outcome{}, ErrCandidateMismatch
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load candidate: %w", err)
	}

	ballotID, err := auth.GenerateID(16)
	if err != nil {
		return Outcome{}, err
	}
	now := m.now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ballot (id, student_id, candidate_id, position_id, election_id, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ballotID, studentID, candidateID, positionID, electionID, now)
	if db.IsUniqueViolation(err) {
		return Outcome{}, ErrPositionNotRemaining
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to insert ballot: %w", err)
	}

	var remaining int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM election_position p
		WHERE p.election_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM ballot b
			WHERE b.position_id = p.id AND b.student_id = $2
		  )
	`, electionID, studentID).Scan(&remaining)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to count remaining positions: %w", err)
	}

	if remaining == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO completion_record (student_id, election_id, completed_at)
			VALUES ($1, $2, $3)
		`, studentID, electionID, now)
		if db.IsUniqueViolation(err) {
			return Outcome{}, ErrElectionCompleted
		}
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to insert completion record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Outcome{}, fmt.Errorf("failed to commit ballot: %w", err)
	}

	return Outcome{
		BallotID:   ballotID,
		ElectionID: electionID,
		Completed:  remaining == 0,
	}, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func completed(ctx context.Context, q rowQuerier, studentID, electionID string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM completion_record
			WHERE student_id = $1 AND election_id = $2
		)
	`, studentID, electionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completion: %w", err)
	}
	return exists, nil
}
