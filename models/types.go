package models

import "time"

// Role selects which profile record backs a user
type Role string

const (
	RoleStudent   Role = "student"
	RoleECOfficer Role = "ec_officer"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleECOfficer
}

// Candidate count limits per position
const (
	MinCandidates = 2
	MaxCandidates = 10
)

// Request types

type SignupRequest struct {
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	Email      string   `json:"email,omitempty"`
	Mobile     string   `json:"mobile,omitempty"`
	FacultyIDs []string `json:"faculty_ids,omitempty"` // students only
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateFacultiesRequest struct {
	FacultyIDs []string `json:"faculty_ids"`
}

type ElectionRequest struct {
	Name      string `json:"name"`
	FacultyID string `json:"faculty_id"`
}

// CandidateInput is one row of a position's candidate form.
// ID is empty for new candidates; Delete drops an existing one.
type CandidateInput struct {
	ID       string `json:"id,omitempty"`
	FullName string `json:"full_name"`
	PhotoURL string `json:"photo_url,omitempty"`
	Delete   bool   `json:"delete,omitempty"`
}

type PositionRequest struct {
	Text       string           `json:"text"`
	Candidates []CandidateInput `json:"candidates"`
}

type CastBallotRequest struct {
	PositionID  string `json:"position_id,omitempty"`
	CandidateID string `json:"candidate_id"`
}

// Response types

type AuthResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Token    string `json:"token"`
	Next     string `json:"next"`
}

type SignupFormResponse struct {
	Role      Role      `json:"role"`
	Faculties []Faculty `json:"faculties,omitempty"`
}

type FacultiesResponse struct {
	Faculties []Faculty `json:"faculties"`
	Selected  []string  `json:"selected,omitempty"`
}

type ElectionSummary struct {
	Election
	Faculty        Faculty `json:"faculty"`
	PositionsCount int     `json:"positions_count"`
	VotersCount    int     `json:"voters_count"`
}

type ElectionsResponse struct {
	Elections []ElectionSummary `json:"elections"`
}

type PositionSummary struct {
	Position
	CandidatesCount int `json:"candidates_count"`
}

type ElectionDetail struct {
	Election  Election          `json:"election"`
	Faculty   Faculty           `json:"faculty"`
	Positions []PositionSummary `json:"positions"`
}

type PositionDetail struct {
	Election   Election    `json:"election"`
	Position   Position    `json:"position"`
	Candidates []Candidate `json:"candidates"`
}

type TakenElection struct {
	Election    Election  `json:"election"`
	Faculty     Faculty   `json:"faculty"`
	CompletedAt time.Time `json:"completed_at"`
}

type TakenResponse struct {
	Elections []TakenElection `json:"elections"`
}

type PositionFormResponse struct {
	Election      Election `json:"election"`
	MinCandidates int      `json:"min_candidates"`
	MaxCandidates int      `json:"max_candidates"`
}

type VoteFormResponse struct {
	Election   Election    `json:"election"`
	Position   *Position   `json:"position"`
	Candidates []Candidate `json:"candidates"`
	Progress   int         `json:"progress"`
	State      string      `json:"state"`
	Remaining  int         `json:"remaining"`
	Total      int         `json:"total"`
}

type CastBallotResponse struct {
	BallotID  string `json:"ballot_id"`
	Completed bool   `json:"completed"`
	Message   string `json:"message,omitempty"`
	Next      string `json:"next"`
}

type VoterRecord struct {
	StudentID    string    `json:"student_id"`
	Username     string    `json:"username"`
	CompletedAt  time.Time `json:"completed_at"`
	CompletedAgo string    `json:"completed_ago"`
}

type ResultsResponse struct {
	Election    Election      `json:"election"`
	TotalVoters int           `json:"total_voters"`
	Voters      []VoterRecord `json:"voters"`
}

type DeletedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Next    string `json:"next"`
}

// Domain types

type Faculty struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Election struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	FacultyID string    `json:"faculty_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Position struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	Text       string `json:"text"`
}

type Candidate struct {
	ID         string  `json:"id"`
	PositionID string  `json:"position_id"`
	FullName   string  `json:"full_name"`
	PhotoURL   *string `json:"photo_url,omitempty"`
}

type Ballot struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	CandidateID string    `json:"candidate_id"`
	PositionID  string    `json:"position_id"`
	ElectionID  string    `json:"election_id"`
	CastAt      time.Time `json:"cast_at"`
}

type CompletionRecord struct {
	StudentID   string    `json:"student_id"`
	ElectionID  string    `json:"election_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// Error response

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
