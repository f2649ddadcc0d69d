// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/metrics"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/voting"
)

type StudentHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	machine *voting.Machine
	metrics *metrics.Metrics
}

func NewStudentHandler(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *StudentHandler {
	return &StudentHandler{db: db, cfg: cfg, machine: voting.NewMachine(db), metrics: m}
}

// ListElections handles GET /students/
// Lists elections of the student's faculties that have positions and that
// the student has not completed.
func (h *StudentHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT e.id, e.owner_id, e.name, e.faculty_id, e.created_at,
		       f.id, f.name, f.color,
		       (SELECT COUNT(*) FROM election_position p WHERE p.election_id = e.id),
		       (SELECT COUNT(*) FROM completion_record c WHERE c.election_id = e.id)
		FROM election e
		JOIN faculty f ON f.id = e.faculty_id
		JOIN student_faculty sf ON sf.faculty_id = e.faculty_id AND sf.student_id = $1
		WHERE EXISTS (SELECT 1 FROM election_position p WHERE p.election_id = e.id)
		  AND NOT EXISTS (
			SELECT 1 FROM completion_record c
			WHERE c.election_id = e.id AND c.student_id = $1
		  )
		ORDER BY e.name, e.id
	`, id.UserID)
	if err != nil {
		slog.Error("failed to query elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
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
			slog.Error("failed to scan election", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		elections = append(elections, s)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionsResponse{Elections: elections})
}

// Faculties handles GET /students/faculty/
func (h *StudentHandler) Faculties(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	resp, err := h.facultiesOf(r, id.UserID)
	if err != nil {
		slog.Error("failed to load faculties", "error", err, "student_id", id.UserID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// UpdateFaculties handles POST /students/faculty/
// Replaces the student's faculty set.
func (h *StudentHandler) UpdateFaculties(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req models.UpdateFacultiesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ctx := r.Context()
	facultyIDs, msg, err := checkFaculties(ctx, h.db, req.FacultyIDs)
	if err != nil {
		slog.Error("failed to check faculties", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if msg != "" {
		middleware.ValidationResponse(w, "Invalid faculties", map[string]string{"faculty_ids": msg})
		return
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM student_faculty WHERE student_id = $1`, id.UserID); err != nil {
		slog.Error("failed to clear faculties", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	for _, f := range facultyIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO student_faculty (student_id, faculty_id) VALUES ($1, $2)
		`, id.UserID, f)
		if err != nil {
			slog.Error("failed to insert faculty", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit faculties", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("student faculties updated", "student_id", id.UserID, "count", len(facultyIDs))

	resp, err := h.facultiesOf(r, id.UserID)
	if err != nil {
		slog.Error("failed to load faculties", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

func (h *StudentHandler) facultiesOf(r *http.Request, studentID string) (models.FacultiesResponse, error) {
	faculties, err := listFaculties(r.Context(), h.db)
	if err != nil {
		return models.FacultiesResponse{}, err
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT faculty_id FROM student_faculty WHERE student_id = $1 ORDER BY faculty_id
	`, studentID)
	if err != nil {
		return models.FacultiesResponse{}, fmt.Errorf("failed to query student faculties: %w", err)
	}
	defer rows.Close()

	selected := []string{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return models.FacultiesResponse{}, fmt.Errorf("failed to scan faculty: %w", err)
		}
		selected = append(selected, f)
	}
	return models.FacultiesResponse{Faculties: faculties, Selected: selected}, rows.Err()
}

// Taken handles GET /students/taken/
func (h *StudentHandler) Taken(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT e.id, e.owner_id, e.name, e.faculty_id, e.created_at,
		       f.id, f.name, f.color, c.completed_at
		FROM completion_record c
		JOIN election e ON e.id = c.election_id
		JOIN faculty f ON f.id = e.faculty_id
		WHERE c.student_id = $1
		ORDER BY e.name, e.id
	`, id.UserID)
	if err != nil {
		slog.Error("failed to query taken elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	taken := []models.TakenElection{}
	for rows.Next() {
		var t models.TakenElection
		if err := rows.Scan(
			&t.Election.ID, &t.Election.OwnerID, &t.Election.Name, &t.Election.FacultyID, &t.Election.CreatedAt,
			&t.Faculty.ID, &t.Faculty.Name, &t.Faculty.Color, &t.CompletedAt,
		); err != nil {
			slog.Error("failed to scan taken election", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		taken = append(taken, t)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read taken elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TakenResponse{Elections: taken})
}

// VoteForm handles GET /students/election/{id}/
// Shows the next position awaiting a ballot and its candidates.
func (h *StudentHandler) VoteForm(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	electionID := r.PathValue("id")

	progress, err := h.machine.NextPosition(r.Context(), id.UserID, electionID)
	if h.progressFailed(w, err) {
		return
	}

	if progress.State == voting.StateCompleted {
		seeOther(w, StudentDone, "You already voted in this election")
		return
	}

	candidates, err := h.machine.Candidates(r.Context(), progress.Position.ID)
	if err != nil {
		slog.Error("failed to load candidates", "error", err, "position_id", progress.Position.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteFormResponse{
		Election:   progress.Election,
		Position:   progress.Position,
		Candidates: candidates,
		Progress:   progress.Percent,
		State:      string(progress.State),
		Remaining:  progress.Remaining,
		Total:      progress.Total,
	})
}

// CastBallot handles POST /students/election/{id}/
// The ballot always targets the position currently awaiting a vote. A
// position_id naming any other position is rejected as stale.
func (h *StudentHandler) CastBallot(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	electionID := r.PathValue("id")

	var req models.CastBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CandidateID == "" {
		middleware.ValidationResponse(w, "Select a candidate", map[string]string{
			"candidate_id": "this field is required",
		})
		return
	}

	ctx := r.Context()
	progress, err := h.machine.NextPosition(ctx, id.UserID, electionID)
	if h.progressFailed(w, err) {
		return
	}

	if progress.State == voting.StateCompleted {
		h.metrics.Rejected(metrics.ReasonCompleted)
		middleware.ErrorResponse(w, http.StatusConflict, "You already voted in this election")
		return
	}
	if req.PositionID != "" && req.PositionID != progress.Position.ID {
		h.metrics.Rejected(metrics.ReasonStale)
		middleware.ErrorResponse(w, http.StatusConflict, "This position is no longer awaiting your vote")
		return
	}

	outcome, err := h.machine.CastBallot(ctx, id.UserID, progress.Position.ID, req.CandidateID)
	switch {
	case errors.Is(err, voting.ErrElectionCompleted):
		h.metrics.Rejected(metrics.ReasonCompleted)
		middleware.ErrorResponse(w, http.StatusConflict, "You already voted in this election")
		return
	case errors.Is(err, voting.ErrPositionNotRemaining):
		h.metrics.Rejected(metrics.ReasonNotRemaining)
		middleware.ErrorResponse(w, http.StatusConflict, "This position is no longer awaiting your vote")
		return
	case errors.Is(err, voting.ErrCandidateMismatch):
		h.metrics.Rejected(metrics.ReasonCandidateMismatch)
		middleware.ValidationResponse(w, "Invalid candidate", map[string]string{
			"candidate_id": "candidate does not stand for this position",
		})
		return
	case errors.Is(err, voting.ErrUnknownStudent):
		middleware.ErrorResponse(w, http.StatusForbidden, "Student profile not found")
		return
	case err != nil:
		slog.Error("failed to cast ballot", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast ballot")
		return
	}

	h.metrics.BallotsCast.Inc()
	slog.Info("ballot cast",
		"election_id", electionID,
		"position_id", progress.Position.ID,
		"completed", outcome.Completed,
	)

	resp := models.CastBallotResponse{
		BallotID:  outcome.BallotID,
		Completed: outcome.Completed,
		Next:      fmt.Sprintf("/students/election/%s/", electionID),
	}
	if outcome.Completed {
		h.metrics.ElectionsCompleted.Inc()
		resp.Message = fmt.Sprintf("Congratulations! You voted in the %s election successfully!", progress.Election.Name)
		resp.Next = StudentHome
	}

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// progressFailed writes the response for a NextPosition error and reports
// whether there was one.
func (h *StudentHandler) progressFailed(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, voting.ErrNotFound), errors.Is(err, voting.ErrNoPositions):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
	default:
		slog.Error("failed to compute next position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
	return true
}
