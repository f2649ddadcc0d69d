// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/campus-vote/testutil"
)

func TestOwns(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()

	faculty := testutil.CreateTestFaculty(t, conn, "COBAMS")
	owner := testutil.CreateTestOfficer(t, conn, "owner")
	other := testutil.CreateTestOfficer(t, conn, "other")
	election := testutil.CreateTestElection(t, conn, owner, faculty, "Finance Guild")
	position, candidates := testutil.AddTestPosition(t, conn, election, "Chair", "Ann", "Ben")

	tests := []struct {
		name    string
		officer string
		kind    Kind
		id      string
		want    bool
	}{
		{"owner election", owner, KindElection, election, true},
		{"owner position", owner, KindPosition, position, true},
		{"owner candidate", owner, KindCandidate, candidates[0], true},
		{"foreign election", other, KindElection, election, false},
		{"foreign position", other, KindPosition, position, false},
		{"foreign candidate", other, KindCandidate, candidates[1], false},
		{"missing election", owner, KindElection, "missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Owns(ctx, conn, tt.officer, tt.kind, tt.id)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			err = Require(ctx, conn, tt.officer, tt.kind, tt.id)
			if tt.want {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrNotFound)
			}
		})
	}

	_, err := Owns(ctx, conn, owner, Kind(42), election)
	require.Error(t, err)
}

func TestElectionAndPosition(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()

	faculty := testutil.CreateTestFaculty(t, conn, "CHS")
	owner := testutil.CreateTestOfficer(t, conn, "owner")
	other := testutil.CreateTestOfficer(t, conn, "other")
	e1 := testutil.CreateTestElection(t, conn, owner, faculty, "One")
	e2 := testutil.CreateTestElection(t, conn, owner, faculty, "Two")
	p1, _ := testutil.AddTestPosition(t, conn, e1, "Chair", "Ann", "Ben")

	e, err := Election(ctx, conn, owner, e1)
	require.NoError(t, err)
	require.Equal(t, "One", e.Name)

	_, err = Election(ctx, conn, other, e1)
	require.ErrorIs(t, err, ErrNotFound)

	_, p, err := Position(ctx, conn, owner, e1, p1)
	require.NoError(t, err)
	require.Equal(t, "Chair", p.Text)

	// Owned, but under the wrong election
	_, _, err = Position(ctx, conn, owner, e2, p1)
	require.ErrorIs(t, err, ErrNotFound)

	_, _, err = Position(ctx, conn, other, e1, p1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListElections(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()

	faculty := testutil.CreateTestFaculty(t, conn, "CEES")
	owner := testutil.CreateTestOfficer(t, conn, "owner")
	other := testutil.CreateTestOfficer(t, conn, "other")

	zeta := testutil.CreateTestElection(t, conn, owner, faculty, "Zeta")
	testutil.CreateTestElection(t, conn, owner, faculty, "Alpha")
	testutil.CreateTestElection(t, conn, other, faculty, "Foreign")
	testutil.AddTestPosition(t, conn, zeta, "Chair", "Ann", "Ben")
	testutil.AddTestPosition(t, conn, zeta, "Vice", "Cal", "Dee")

	list, err := ListElections(ctx, conn, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Alpha", list[0].Name)
	require.Equal(t, "Zeta", list[1].Name)
	require.Equal(t, 2, list[1].PositionsCount)
	require.Zero(t, list[1].VotersCount)
	require.Equal(t, "CEES", list[1].Faculty.Name)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "election", KindElection.String())
	require.Equal(t, "candidate", KindCandidate.String())
	require.Equal(t, "kind(9)", Kind(9).String())
}
