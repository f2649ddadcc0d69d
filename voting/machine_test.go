// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/campus-vote/testutil"
)

type fixture struct {
	db         *sql.DB
	machine    *Machine
	studentID  string
	electionID string
	president  string
	secretary  string
	alice      string
	bob        string
	carol      string
	dave       string
}

// newFixture builds an election with two positions the student can vote in:
// President (Alice, Bob) and Secretary (Carol, Dave).
func newFixture(t *testing.T) fixture {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	faculty := testutil.CreateTestFaculty(t, conn, "COCIS")
	officer := testutil.CreateTestOfficer(t, conn, "officer")
	student := testutil.CreateTestStudent(t, conn, "student", faculty)
	election := testutil.CreateTestElection(t, conn, officer, faculty, "Guild 2025")

	president, pc := testutil.AddTestPosition(t, conn, election, "President", "Alice", "Bob")
	secretary, sc := testutil.AddTestPosition(t, conn, election, "Secretary", "Carol", "Dave")

	return fixture{
		db:         conn,
		machine:    NewMachine(conn),
		studentID:  student,
		electionID: election,
		president:  president,
		secretary:  secretary,
		alice:      pc[0],
		bob:        pc[1],
		carol:      sc[0],
		dave:       sc[1],
	}
}

func TestNextPosition_WalksPositionsInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.machine.NextPosition(ctx, f.studentID, f.electionID)
	require.NoError(t, err)
	require.NotNil(t, p.Position)
	require.Equal(t, f.president, p.Position.ID)
	require.Equal(t, 2, p.Total)
	require.Equal(t, 2, p.Remaining)
	require.Equal(t, 50, p.Percent)
	require.Equal(t, StateNotStarted, p.State)

	out, err := f.machine.CastBallot(ctx, f.studentID, f.president, f.alice)
	require.NoError(t, err)
	require.False(t, out.Completed)
	require.Equal(t, f.electionID, out.ElectionID)

	p, err = f.machine.NextPosition(ctx, f.studentID, f.electionID)
	require.NoError(t, err)
	require.Equal(t, f.secretary, p.Position.ID)
	require.Equal(t, 1, p.Remaining)
	require.Equal(t, 100, p.Percent)
	require.Equal(t, StateLastPosition, p.State)

	out, err = f.machine.CastBallot(ctx, f.studentID, f.secretary, f.dave)
	require.NoError(t, err)
	require.True(t, out.Completed)

	p, err = f.machine.NextPosition(ctx, f.studentID, f.electionID)
	require.NoError(t, err)
	require.Nil(t, p.Position)
	require.Equal(t, StateCompleted, p.State)

	done, err := f.machine.Completed(ctx, f.studentID, f.electionID)
	require.NoError(t, err)
	require.True(t, done)

	require.Equal(t, 2, testutil.CountRows(t, f.db, "ballot", "student_id = $1", f.studentID))
	require.Equal(t, 1, testutil.CountRows(t, f.db, "completion_record", "student_id = $1", f.studentID))
}

func TestNextPosition_ProgressOfFour(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testutil.AddTestPosition(t, f.db, f.electionID, "Treasurer", "Eve", "Frank")
	testutil.AddTestPosition(t, f.db, f.electionID, "Welfare", "Grace", "Heidi")

	_, err := f.machine.CastBallot(ctx, f.studentID, f.president, f.bob)
	require.NoError(t, err)

	p, err := f.machine.NextPosition(ctx, f.studentID, f.electionID)
	require.NoError(t, err)
	require.Equal(t, 4, p.Total)
	require.Equal(t, 3, p.Remaining)
	require.Equal(t, 50, p.Percent)
	require.Equal(t, StateInProgress, p.State)
}

func TestNextPosition_NotEligible(t *testing.T) {
	f := newFixture(t)
	other := testutil.CreateTestFaculty(t, f.db, "CHS")
	outsider := testutil.CreateTestStudent(t, f.db, "outsider", other)

	_, err := f.machine.NextPosition(context.Background(), outsider, f.electionID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.machine.NextPosition(context.Background(), f.studentID, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNextPosition_NoPositions(t *testing.T) {
	f := newFixture(t)
	var facultyID, ownerID string
	err := f.db.QueryRow(`SELECT faculty_id, owner_id FROM election WHERE id = $1`, f.electionID).
		Scan(&facultyID, &ownerID)
	require.NoError(t, err)

	empty := testutil.CreateTestElection(t, f.db, ownerID, facultyID, "Empty")

	_, err = f.machine.NextPosition(context.Background(), f.studentID, empty)
	require.ErrorIs(t, err, ErrNoPositions)
}

func TestCastBallot_CandidateMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.machine.CastBallot(context.Background(), f.studentID, f.president, f.carol)
	require.ErrorIs(t, err, ErrCandidateMismatch)

	_, err = f.machine.CastBallot(context.Background(), f.studentID, f.president, "no-such-candidate")
	require.ErrorIs(t, err, ErrCandidateMismatch)

	require.Zero(t, testutil.CountRows(t, f.db, "ballot", ""))
}

func TestCastBallot_Replay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.machine.CastBallot(ctx, f.studentID, f.president, f.alice)
	require.NoError(t, err)

	_, err = f.machine.CastBallot(ctx, f.studentID, f.president, f.bob)
	require.ErrorIs(t, err, ErrPositionNotRemaining)

	var candidate string
	err = f.db.QueryRow(`SELECT candidate_id FROM ballot WHERE student_id = $1 AND position_id = $2`,
		f.studentID, f.president).Scan(&candidate)
	require.NoError(t, err)
	require.Equal(t, f.alice, candidate)
}

func TestCastBallot_AfterCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.machine.CastBallot(ctx, f.studentID, f.president, f.alice)
	require.NoError(t, err)
	_, err = f.machine.CastBallot(ctx, f.studentID, f.secretary, f.carol)
	require.NoError(t, err)

	// A position added after completion never reopens the election
	late, lc := testutil.AddTestPosition(t, f.db, f.electionID, "Auditor", "Ivan", "Judy")
	_, err = f.machine.CastBallot(ctx, f.studentID, late, lc[0])
	require.ErrorIs(t, err, ErrElectionCompleted)

	p, err := f.machine.NextPosition(ctx, f.studentID, f.electionID)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, p.State)
	require.Equal(t, 100, p.Percent)
}

func TestCastBallot_Ineligible(t *testing.T) {
	f := newFixture(t)
	other := testutil.CreateTestFaculty(t, f.db, "CEES")
	outsider := testutil.CreateTestStudent(t, f.db, "outsider", other)

	_, err := f.machine.CastBallot(context.Background(), outsider, f.president, f.alice)
	require.ErrorIs(t, err, ErrPositionNotRemaining)

	_, err = f.machine.CastBallot(context.Background(), "nobody", f.president, f.alice)
	require.ErrorIs(t, err, ErrUnknownStudent)
}

func TestCastBallot_ConcurrentDoubleSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			candidate := f.alice
			if i%2 == 1 {
				candidate = f.bob
			}
			_, err := f.machine.CastBallot(ctx, f.studentID, f.president, candidate)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrPositionNotRemaining):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, succeeded)
	require.Equal(t, attempts-1, rejected)
	require.Equal(t, 1, testutil.CountRows(t, f.db, "ballot", "student_id = $1", f.studentID))
	require.Zero(t, testutil.CountRows(t, f.db, "completion_record", ""))
}

func TestCandidates_OrderedByName(t *testing.T) {
	f := newFixture(t)
	pos, _ := testutil.AddTestPosition(t, f.db, f.electionID, "PRO", "Zed", "Amy", "Moe")

	cs, err := f.machine.Candidates(context.Background(), pos)
	require.NoError(t, err)
	require.Len(t, cs, 3)
	require.Equal(t, "Amy", cs[0].FullName)
	require.Equal(t, "Moe", cs[1].FullName)
	require.Equal(t, "Zed", cs[2].FullName)
}
