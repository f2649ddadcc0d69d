// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - SignupRequest: username, password, faculty_ids (students)
  - LoginRequest: username, password
  - UpdateFacultiesRequest: faculty_ids
  - ElectionRequest: name, faculty_id
  - PositionRequest: text, candidates ([]CandidateInput)
  - CastBallotRequest: position_id (optional), candidate_id

# Response Types

  - AuthResponse: user_id, role, token, next
  - ElectionSummary, ElectionDetail, PositionDetail
  - VoteFormResponse: current position, candidates, progress
  - CastBallotResponse: ballot_id, completed, next
  - ResultsResponse: completion records newest first
  - ErrorResponse: error, message, fields

# Domain Types

  - Faculty, User, Election, Position, Candidate
  - Ballot: one student's choice for one position
  - CompletionRecord: marks an election fully voted by a student

# Constants

Roles:

	RoleStudent   = "student"
	RoleECOfficer = "ec_officer"

Candidates per position:

	MinCandidates = 2
	MaxCandidates = 10
*/
package models
