// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the campus-vote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, metrics.New())

Every route is wrapped in request logging and a duration histogram keyed by
its pattern. Student and EC routes also pass through middleware.RequireRole.

# Endpoints

Operations:

	GET /health
	GET /metrics

Accounts (public):

	GET|POST /accounts/signup/student/
	GET|POST /accounts/signup/ec/
	POST     /accounts/login/
	GET      /                      - redirects signed-in callers

Students:

	GET      /students/               - open elections
	GET|POST /students/faculty/       - faculty membership
	GET      /students/taken/         - completed elections
	GET|POST /students/election/{id}/ - next position / cast ballot

Electoral commission:

	GET      /ec/
	GET|POST /ec/election/add/
	GET|POST /ec/election/{id}/
	GET|POST /ec/election/{id}/delete/
	GET      /ec/election/{id}/results/
	GET|POST /ec/election/{id}/position/add/
	GET|POST /ec/election/{eid}/position/{pid}/
	GET|POST /ec/election/{eid}/position/{pid}/delete/

GET shows the current state of a resource, POST changes it.
*/
package router
