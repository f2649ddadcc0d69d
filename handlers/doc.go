// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the campus-vote API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - AccountHandler: signup, login and the home redirect
  - StudentHandler: faculty membership, election lists and voting
  - ECHandler: election, position and candidate management plus results

Handlers are created via constructor functions that accept *sql.DB and Config:

	ecHandler := handlers.NewECHandler(db, cfg)
	studentHandler := handlers.NewStudentHandler(db, cfg, metrics)

Handlers read the caller from the request context; the router wraps them
in middleware.RequireRole to put it there.

# Voting Flow

A student walks an election one position at a time:

	GET  /students/election/{id}/ → VoteForm (next position and candidates)
	POST /students/election/{id}/ → CastBallot

Once every position holds a ballot the election is completed for that
student: GET answers 303 to /students/taken/ and POST answers 409.

# EC Management

Every EC route loads its object through package scope. Objects that do not
exist and objects owned by another officer both answer 404.

Positions are saved with their full candidate set. Between MinCandidates
and MaxCandidates named candidates must remain after deletions, otherwise
nothing is written and the response is a 400 with per-field messages.
*/
package handlers
