// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections, schema creation and seed data.

# Connections

Open picks the driver from the configuration: lib/pq for postgres,
modernc.org/sqlite for sqlite. SQLite connections enable foreign keys and
a busy timeout and are limited to one open connection.

	conn, err := db.Open(cfg)

Queries use $N placeholders, which both drivers accept.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
SeedFaculties fills an empty faculty table with DefaultFaculties.

# Tables

  - faculty: Reference data
  - app_user: Credentials and role
  - student, ec_officer: Role profiles
  - student_faculty: Student memberships
  - election, election_position, candidate: EC-managed content
  - ballot: One per student per position
  - completion_record: One per student per election

# Relationships

	ec_officer 1──* election
	faculty 1──* election
	election 1──* election_position 1──* candidate
	student *──* faculty (via student_faculty)
	student 1──* ballot *──1 candidate
	student 1──* completion_record *──1 election

All foreign keys use ON DELETE CASCADE, so deleting a candidate or
position also deletes the ballots cast for it.

# Errors

IsUniqueViolation recognizes unique and primary key violations from
either driver.
*/
package db
