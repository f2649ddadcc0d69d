// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the campus-vote API server.

campus-vote runs faculty elections on campus. Electoral commission (EC)
officers create elections for a faculty and fill them with positions and
candidates; students of that faculty vote one position at a time until the
election is complete.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:campus.db SESSION_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -session-secret ...

A .env file in the working directory is loaded first if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): database connection string
  - SESSION_SECRET (-session-secret): secret for session token signatures

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - SESSION_TTL (-session-ttl): session lifetime (default: 24h)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (accounts, students, EC)
  - voting: the per-student voting state machine
  - scope: ownership-scoped loaders for EC objects
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, metrics, role gating, JSON helpers
  - metrics: Prometheus collectors
  - models: Domain and request/response types
  - auth: Password hashing, session tokens, IDs
  - db: Connections, schema and seed data
  - cliparse: Configuration parsing

The evotectl command in cmd/evotectl inspects the same database from a
terminal.

See package documentation for each component.
*/
package main
