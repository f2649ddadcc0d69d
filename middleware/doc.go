// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /ec/{$}", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms) under an X-Request-ID, generated when the caller sends none.

# Metrics

WithMetrics observes the request duration labelled with method, route
pattern and status:

	middleware.WithMetrics(m, "GET /ec/{$}", handler)

# Role Gating

RequireRole admits callers holding a session token for one role:

	middleware.RequireRole(cfg.SessionSecret, models.RoleStudent, handler)

No token or a bad token answers 401 with Location: /accounts/login/. A
token for the other role answers 403. Admitted requests carry the
auth.Identity on their context.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, OPTIONS with headers Content-Type,
Authorization, X-Request-ID.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ValidationResponse(w, "Invalid position", fields)

Parse JSON request bodies:

	var req models.PositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Logged with every request.
*/
package middleware
