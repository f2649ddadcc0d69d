// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command evotectl inspects a campus-vote database from the terminal.
//
//	evotectl [-d url] [-t sqlite|postgres] seed
//	evotectl [-d url] [-t sqlite|postgres] elections
//	evotectl [-d url] [-t sqlite|postgres] results -e <election-id>
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/db"
)

var errUsage = errors.New("usage: evotectl [-d url] [-t type] seed|elections|results -e <election-id>")

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		color.Yellow("warning: failed to load .env: %v", err)
	}

	if err := run(os.Args[1:], os.Stdout); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, rest, err := cliparse.ParseToolFlags("evotectl", args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return errUsage
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.CreateSchema(conn); err != nil {
		return err
	}

	switch rest[0] {
	case "seed":
		return seed(conn, out)
	case "elections":
		return elections(conn, out)
	case "results":
		flags := flag.NewFlagSet("results", flag.ContinueOnError)
		flags.SetOutput(out)
		electionID := flags.String("e", "", "Election ID")
		if err := flags.Parse(rest[1:]); err != nil {
			return err
		}
		if *electionID == "" {
			return errUsage
		}
		return results(conn, out, *electionID, time.Now())
	}
	return errUsage
}

func seed(conn *sql.DB, out io.Writer) error {
	n, err := db.SeedFaculties(conn)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(out, "Faculties already present, nothing to seed")
		return nil
	}
	fmt.Fprintf(out, "Seeded %d faculties\n", n)
	return nil
}

func elections(conn *sql.DB, out io.Writer) error {
	rows, err := conn.Query(`
		SELECT e.id, e.name, f.name, u.username,
		       (SELECT COUNT(*) FROM election_position p WHERE p.election_id = e.id),
		       (SELECT COUNT(*) FROM completion_record c WHERE c.election_id = e.id)
		FROM election e
		JOIN faculty f ON f.id = e.faculty_id
		JOIN app_user u ON u.id = e.owner_id
		ORDER BY e.name, e.id
	`)
	if err != nil {
		return fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	fmt.Fprintln(out, color.YellowString("Elections"))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Name", "Faculty", "Owner", "Positions", "Voters"})

	for rows.Next() {
		var id, name, faculty, owner string
		var positions, voters int
		if err := rows.Scan(&id, &name, &faculty, &owner, &positions, &voters); err != nil {
			return fmt.Errorf("failed to scan election: %w", err)
		}
		table.Append([]string{id, name, faculty, owner, strconv.Itoa(positions), strconv.Itoa(voters)})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	table.Render()
	return nil
}

func results(conn *sql.DB, out io.Writer, electionID string, now time.Time) error {
	var name string
	err := conn.QueryRow(`SELECT name FROM election WHERE id = $1`, electionID).Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("election %s not found", electionID)
	}
	if err != nil {
		return fmt.Errorf("failed to load election: %w", err)
	}

	rows, err := conn.Query(`
		SELECT u.username, c.completed_at
		FROM completion_record c
		JOIN app_user u ON u.id = c.student_id
		WHERE c.election_id = $1
		ORDER BY c.completed_at DESC, c.student_id
	`, electionID)
	if err != nil {
		return fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	fmt.Fprintln(out, color.YellowString("Voters in %s", name))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Student", "Completed", "When"})

	total := 0
	for rows.Next() {
		var username string
		var completedAt time.Time
		if err := rows.Scan(&username, &completedAt); err != nil {
			return fmt.Errorf("failed to scan voter: %w", err)
		}
		table.Append([]string{
			username,
			completedAt.UTC().Format(time.RFC3339),
			humanize.RelTime(completedAt, now, "ago", "from now"),
		})
		total++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	table.Render()
	fmt.Fprintf(out, "Total voters: %s\n", humanize.Comma(int64(total)))
	return nil
}
