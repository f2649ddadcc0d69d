// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/scope"
)

type ECHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewECHandler(db *sql.DB, cfg cliparse.Config) *ECHandler {
	return &ECHandler{db: db, cfg: cfg, now: time.Now}
}

// List handles GET /ec/
func (h *ECHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	elections, err := scope.ListElections(r.Context(), h.db, id.UserID)
	if err != nil {
		slog.Error("failed to list elections", "error", err, "officer_id", id.UserID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ElectionsResponse{Elections: elections})
}

// CreateElectionForm handles GET /ec/election/add/
func (h *ECHandler) CreateElectionForm(w http.ResponseWriter, r *http.Request) {
	faculties, err := listFaculties(r.Context(), h.db)
	if err != nil {
		slog.Error("failed to list faculties", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.FacultiesResponse{Faculties: faculties})
}

// CreateElection handles POST /ec/election/add/
func (h *ECHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req models.ElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !h.validElection(w, r, &req) {
		return
	}

	electionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate election ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO election (id, owner_id, name, faculty_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, electionID, id.UserID, req.Name, req.FacultyID, h.now().UTC())
	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", electionID, "officer_id", id.UserID)

	h.writeDetail(w, r, id.UserID, electionID, http.StatusCreated)
}

// Election handles GET /ec/election/{id}/
func (h *ECHandler) Election(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	h.writeDetail(w, r, id.UserID, r.PathValue("id"), http.StatusOK)
}

// UpdateElection handles POST /ec/election/{id}/
func (h *ECHandler) UpdateElection(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	electionID := r.PathValue("id")

	if err := scope.Require(r.Context(), h.db, id.UserID, scope.KindElection, electionID); err != nil {
		h.scopeError(w, err)
		return
	}

	var req models.ElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !h.validElection(w, r, &req) {
		return
	}

	_, err := h.db.ExecContext(r.Context(), `
		UPDATE election SET name = $1, faculty_id = $2
		WHERE id = $3 AND owner_id = $4
	`, req.Name, req.FacultyID, electionID, id.UserID)
	if err != nil {
		slog.Error("failed to update election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update election")
		return
	}

	slog.Info("election updated", "election_id", electionID)

	h.writeDetail(w, r, id.UserID, electionID, http.StatusOK)
}

// DeleteElectionForm handles GET /ec/election/{id}/delete/
func (h *ECHandler) DeleteElectionForm(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	h.writeDetail(w, r, id.UserID, r.PathValue("id"), http.StatusOK)
}

// DeleteElection handles POST /ec/election/{id}/delete/
// Positions, candidates, ballots and completion records go with it.
func (h *ECHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	electionID := r.PathValue("id")

	res, err := h.db.ExecContext(r.Context(), `
		DELETE FROM election WHERE id = $1 AND owner_id = $2
	`, electionID, id.UserID)
	if err != nil {
		slog.Error("failed to delete election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete election")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}

	slog.Info("election deleted", "election_id", electionID, "officer_id", id.UserID)

	middleware.JSONResponse(w, http.StatusOK, models.DeletedResponse{
		ID:      electionID,
		Message: "The election has been deleted with success!",
		Next:    ECHome,
	})
}

// Results handles GET /ec/election/{id}/results/
// Lists the students who completed the election, newest first.
func (h *ECHandler) Results(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	election, err := scope.Election(ctx, h.db, id.UserID, r.PathValue("id"))
	if err != nil {
		h.scopeError(w, err)
		return
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT c.student_id, u.username, c.completed_at
		FROM completion_record c
		JOIN app_user u ON u.id = c.student_id
		WHERE c.election_id = $1
		ORDER BY c.completed_at DESC, c.student_id
	`, election.ID)
	if err != nil {
		slog.Error("failed to query results", "error", err, "election_id", election.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	now := h.now()
	voters := []models.VoterRecord{}
	for rows.Next() {
		var v models.VoterRecord
		if err := rows.Scan(&v.StudentID, &v.Username, &v.CompletedAt); err != nil {
			slog.Error("failed to scan voter", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		v.CompletedAgo = humanize.RelTime(v.CompletedAt, now, "ago", "from now")
		voters = append(voters, v)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read voters", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Election:    election,
		TotalVoters: len(voters),
		Voters:      voters,
	})
}

// AddPositionForm handles GET /ec/election/{id}/position/add/
func (h *ECHandler) AddPositionForm(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	election, err := scope.Election(r.Context(), h.db, id.UserID, r.PathValue("id"))
	if err != nil {
		h.scopeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PositionFormResponse{
		Election:      election,
		MinCandidates: models.MinCandidates,
		MaxCandidates: models.MaxCandidates,
	})
}

// AddPosition handles POST /ec/election/{id}/position/add/
// The position and its candidates are saved together or not at all.
func (h *ECHandler) AddPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	election, err := scope.Election(ctx, h.db, id.UserID, r.PathValue("id"))
	if err != nil {
		h.scopeError(w, err)
		return
	}

	var req models.PositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	fields := map[string]string{}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		fields["text"] = "this field is required"
	}
	for i, c := range req.Candidates {
		if c.ID != "" {
			fields[fmt.Sprintf("candidates[%d].id", i)] = "new positions take new candidates only"
		}
	}
	kept := validateCandidates(req.Candidates, fields)
	if len(fields) > 0 {
		middleware.ValidationResponse(w, "Invalid position", fields)
		return
	}

	positionID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate position ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save position")
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
		INSERT INTO election_position (id, election_id, text) VALUES ($1, $2, $3)
	`, positionID, election.ID, req.Text)
	if err != nil {
		slog.Error("failed to insert position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save position")
		return
	}

	for _, c := range kept {
		if err := insertCandidate(ctx, tx, positionID, c); err != nil {
			slog.Error("failed to insert candidate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save position")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save position")
		return
	}

	slog.Info("position added", "election_id", election.ID, "position_id", positionID, "candidates", len(kept))

	h.writePosition(w, r, id.UserID, election.ID, positionID, http.StatusCreated)
}

// Position handles GET /ec/election/{eid}/position/{pid}/
func (h *ECHandler) Position(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	h.writePosition(w, r, id.UserID, r.PathValue("eid"), r.PathValue("pid"), http.StatusOK)
}

// UpdatePosition handles POST /ec/election/{eid}/position/{pid}/
// The submitted candidates become the position's full candidate set:
// rows with an id update that candidate, rows without one are added, and
// existing candidates that are omitted or marked delete are removed.
func (h *ECHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	_, position, err := scope.Position(ctx, h.db, id.UserID, r.PathValue("eid"), r.PathValue("pid"))
	if err != nil {
		h.scopeError(w, err)
		return
	}

	var req models.PositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	existing, err := candidateIDs(ctx, tx, position.ID)
	if err != nil {
		slog.Error("failed to load candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	fields := map[string]string{}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		fields["text"] = "this field is required"
	}
	for i, c := range req.Candidates {
		if c.ID == "" || existing[c.ID] {
			continue
		}
		// Someone else's candidate, or none at all
		if err := scope.Require(ctx, tx, id.UserID, scope.KindCandidate, c.ID); err != nil {
			h.scopeError(w, err)
			return
		}
		fields[fmt.Sprintf("candidates[%d].id", i)] = "candidate stands for another position"
	}
	kept := validateCandidates(req.Candidates, fields)
	if len(fields) > 0 {
		middleware.ValidationResponse(w, "Invalid position", fields)
		return
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE election_position SET text = $1 WHERE id = $2
	`, req.Text, position.ID)
	if err != nil {
		slog.Error("failed to update position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save position")
		return
	}

	keep := map[string]bool{}
	for _, c := range kept {
		if c.ID == "" {
			err = insertCandidate(ctx, tx, position.ID, c)
		} else {
			keep[c.ID] = true
			_, err = tx.ExecContext(ctx, `
				UPDATE candidate SET full_name = $1, photo_url = $2 WHERE id = $3
			`, c.FullName, nullString(c.PhotoURL), c.ID)
		}
		if err != nil {
			slog.Error("failed to save candidate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save position")
			return
		}
	}

	for cid := range existing {
		if keep[cid] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM candidate WHERE id = $1`, cid); err != nil {
			slog.Error("failed to delete candidate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save position")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save position")
		return
	}

	slog.Info("position updated", "position_id", position.ID, "candidates", len(kept))

	h.writePosition(w, r, id.UserID, position.ElectionID, position.ID, http.StatusOK)
}

// DeletePositionForm handles GET /ec/election/{eid}/position/{pid}/delete/
func (h *ECHandler) DeletePositionForm(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	h.writePosition(w, r, id.UserID, r.PathValue("eid"), r.PathValue("pid"), http.StatusOK)
}

// DeletePosition handles POST /ec/election/{eid}/position/{pid}/delete/
func (h *ECHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	election, position, err := scope.Position(ctx, h.db, id.UserID, r.PathValue("eid"), r.PathValue("pid"))
	if err != nil {
		h.scopeError(w, err)
		return
	}

	if _, err := h.db.ExecContext(ctx, `DELETE FROM election_position WHERE id = $1`, position.ID); err != nil {
		slog.Error("failed to delete position", "error", err, "position_id", position.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete position")
		return
	}

	slog.Info("position deleted", "election_id", election.ID, "position_id", position.ID)

	middleware.JSONResponse(w, http.StatusOK, models.DeletedResponse{
		ID:      position.ID,
		Message: fmt.Sprintf("The position %s has been deleted with success!", position.Text),
		Next:    fmt.Sprintf("/ec/election/%s/", election.ID),
	})
}

func (h *ECHandler) validElection(w http.ResponseWriter, r *http.Request, req *models.ElectionRequest) bool {
	fields := map[string]string{}

	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		fields["name"] = "this field is required"
	case len(req.Name) > 255:
		fields["name"] = "name must be at most 255 characters"
	}

	if req.FacultyID == "" {
		fields["faculty_id"] = "this field is required"
	} else {
		_, ok, err := facultyByID(r.Context(), h.db, req.FacultyID)
		if err != nil {
			slog.Error("failed to load faculty", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return false
		}
		if !ok {
			fields["faculty_id"] = "unknown faculty"
		}
	}

	if len(fields) > 0 {
		middleware.ValidationResponse(w, "Invalid election", fields)
		return false
	}
	return true
}

func (h *ECHandler) writeDetail(w http.ResponseWriter, r *http.Request, officerID, electionID string, status int) {
	ctx := r.Context()

	election, err := scope.Election(ctx, h.db, officerID, electionID)
	if err != nil {
		h.scopeError(w, err)
		return
	}

	faculty, _, err := facultyByID(ctx, h.db, election.FacultyID)
	if err != nil {
		slog.Error("failed to load faculty", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT p.id, p.election_id, p.text,
		       (SELECT COUNT(*) FROM candidate c WHERE c.position_id = p.id)
		FROM election_position p
		WHERE p.election_id = $1
		ORDER BY p.text, p.id
	`, election.ID)
	if err != nil {
		slog.Error("failed to query positions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	positions := []models.PositionSummary{}
	for rows.Next() {
		var p models.PositionSummary
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.Text, &p.CandidatesCount); err != nil {
			slog.Error("failed to scan position", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read positions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, status, models.ElectionDetail{
		Election:  election,
		Faculty:   faculty,
		Positions: positions,
	})
}

func (h *ECHandler) writePosition(w http.ResponseWriter, r *http.Request, officerID, electionID, positionID string, status int) {
	ctx := r.Context()

	election, position, err := scope.Position(ctx, h.db, officerID, electionID, positionID)
	if err != nil {
		h.scopeError(w, err)
		return
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, position_id, full_name, photo_url
		FROM candidate
		WHERE position_id = $1
		ORDER BY full_name, id
	`, position.ID)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.PositionID, &c.FullName, &c.PhotoURL); err != nil {
			slog.Error("failed to scan candidate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, status, models.PositionDetail{
		Election:   election,
		Position:   position,
		Candidates: candidates,
	})
}

// scopeError maps ownership failures to 404
func (h *ECHandler) scopeError(w http.ResponseWriter, err error) {
	if errors.Is(err, scope.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
		return
	}
	slog.Error("ownership check failed", "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}

// validateCandidates checks the candidate rows that survive deletion marks.
// Between MinCandidates and MaxCandidates must remain, each with a name.
// Problems are recorded in fields; the surviving rows are returned.
func validateCandidates(inputs []models.CandidateInput, fields map[string]string) []models.CandidateInput {
	kept := make([]models.CandidateInput, 0, len(inputs))
	for i, c := range inputs {
		if c.Delete {
			continue
		}
		c.FullName = strings.TrimSpace(c.FullName)
		if c.FullName == "" {
			fields[fmt.Sprintf("candidates[%d].full_name", i)] = "this field is required"
		}
		kept = append(kept, c)
	}

	switch {
	case len(kept) < models.MinCandidates:
		fields["candidates"] = fmt.Sprintf("a position needs at least %d candidates", models.MinCandidates)
	case len(kept) > models.MaxCandidates:
		fields["candidates"] = fmt.Sprintf("a position takes at most %d candidates", models.MaxCandidates)
	}
	return kept
}

func insertCandidate(ctx context.Context, tx *sql.Tx, positionID string, c models.CandidateInput) error {
	id, err := auth.GenerateID(12)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidate (id, position_id, full_name, photo_url) VALUES ($1, $2, $3, $4)
	`, id, positionID, c.FullName, nullString(c.PhotoURL))
	return err
}

func candidateIDs(ctx context.Context, q scope.Querier, positionID string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM candidate WHERE position_id = $1`, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
