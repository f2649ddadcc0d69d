// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: database connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - SessionSecret: HMAC secret for session tokens (required)
  - SessionTTL: session token lifetime (default: 24h)

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	--session-secret Session token secret
	--session-ttl    Session token lifetime

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	SESSION_SECRET → --session-secret
	SESSION_TTL    → --session-ttl

CLI flags take precedence over environment variables. main loads a .env
file (if present) before parsing, so values there behave like env vars.

# Operator Tools

ParseToolFlags reads only the database settings and returns the remaining
positional arguments:

	cfg, args, err := cliparse.ParseToolFlags("evotectl", os.Args[1:])
*/
package cliparse
