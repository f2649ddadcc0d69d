// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/handlers"
	"github.com/danielhkuo/campus-vote/metrics"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(db, cfg)
	studentHandler := handlers.NewStudentHandler(db, cfg, m)
	ecHandler := handlers.NewECHandler(db, cfg)

	public := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(middleware.WithMetrics(m, pattern, h)))
	}
	as := func(role models.Role) func(string, http.HandlerFunc) {
		return func(pattern string, h http.HandlerFunc) {
			public(pattern, middleware.RequireRole(cfg.SessionSecret, role, h))
		}
	}
	student := as(models.RoleStudent)
	ec := as(models.RoleECOfficer)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Accounts
	public("GET /accounts/signup/student/{$}", accountHandler.StudentSignupForm)
	public("POST /accounts/signup/student/{$}", accountHandler.SignupStudent)
	public("GET /accounts/signup/ec/{$}", accountHandler.ECSignupForm)
	public("POST /accounts/signup/ec/{$}", accountHandler.SignupEC)
	public("POST /accounts/login/{$}", accountHandler.Login)

	// Students
	student("GET /students/{$}", studentHandler.ListElections)
	student("GET /students/faculty/{$}", studentHandler.Faculties)
	student("POST /students/faculty/{$}", studentHandler.UpdateFaculties)
	student("GET /students/taken/{$}", studentHandler.Taken)
	student("GET /students/election/{id}/{$}", studentHandler.VoteForm)
	student("POST /students/election/{id}/{$}", studentHandler.CastBallot)

	// Electoral commission
	ec("GET /ec/{$}", ecHandler.List)
	ec("GET /ec/election/add/{$}", ecHandler.CreateElectionForm)
	ec("POST /ec/election/add/{$}", ecHandler.CreateElection)
	ec("GET /ec/election/{id}/{$}", ecHandler.Election)
	ec("POST /ec/election/{id}/{$}", ecHandler.UpdateElection)
	ec("GET /ec/election/{id}/delete/{$}", ecHandler.DeleteElectionForm)
	ec("POST /ec/election/{id}/delete/{$}", ecHandler.DeleteElection)
	ec("GET /ec/election/{id}/results/{$}", ecHandler.Results)
	ec("GET /ec/election/{id}/position/add/{$}", ecHandler.AddPositionForm)
	ec("POST /ec/election/{id}/position/add/{$}", ecHandler.AddPosition)
	ec("GET /ec/election/{eid}/position/{pid}/{$}", ecHandler.Position)
	ec("POST /ec/election/{eid}/position/{pid}/{$}", ecHandler.UpdatePosition)
	ec("GET /ec/election/{eid}/position/{pid}/delete/{$}", ecHandler.DeletePositionForm)
	ec("POST /ec/election/{eid}/position/{pid}/delete/{$}", ecHandler.DeletePosition)

	// Root endpoint
	public("GET /{$}", accountHandler.Home)

	return mux
}
