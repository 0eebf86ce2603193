package voilibgov

import (
	"math/big"
	"strings"
	"testing"
)

func leaderboardCandidates() []*Candidate {
	return []*Candidate{
		{ID: 1, Name: "alpha.voi"},
		{ID: 2, Name: "beta.voi"},
		{ID: 3, Name: "gamma.voi"},
	}
}

func TestBuildLeaderboard(t *testing.T) {
	rows := BuildLeaderboard(leaderboardCandidates(), map[int]int64{1: 10, 2: 60, 3: 30})

	wantOrder := []int{2, 3, 1}
	for i, row := range rows {
		if row.CandidateID != wantOrder[i] {
			t.Fatalf("row %d = candidate %d, want %d", i, row.CandidateID, wantOrder[i])
		}
		if row.Rank != i+1 {
			t.Fatalf("row %d rank = %d", i, row.Rank)
		}
	}
	if rows[0].Percentage != 60 || rows[2].Percentage != 10 {
		t.Fatalf("percentages = %v, %v", rows[0].Percentage, rows[2].Percentage)
	}
}

func TestBuildLeaderboardTiesKeepRosterOrder(t *testing.T) {
	rows := BuildLeaderboard(leaderboardCandidates(), map[int]int64{1: 20, 2: 20, 3: 20})
	for i, row := range rows {
		if row.CandidateID != i+1 {
			t.Fatalf("tied rows reshuffled: %+v", rows)
		}
	}
}

func TestBuildLeaderboardZeroTotal(t *testing.T) {
	rows := BuildLeaderboard(leaderboardCandidates(), map[int]int64{})
	for _, row := range rows {
		if row.Percentage != 0 {
			t.Fatalf("percentage = %v with no endorsements", row.Percentage)
		}
	}
}

func TestFormatTimeRemaining(t *testing.T) {
	tests := []struct {
		delta int64
		want  string
	}{
		{0, "0d 0h 0m"},
		{-500, "0d 0h 0m"},
		{59, "0d 0h 0m"},
		{60, "0d 0h 1m"},
		{3*3600 + 4*60, "0d 3h 4m"},
		{2*86400 + 3*3600 + 4*60, "2d 3h 4m"},
	}
	for _, tc := range tests {
		if got := FormatTimeRemaining(tc.delta); got != tc.want {
			t.Errorf("FormatTimeRemaining(%d) = %q, want %q", tc.delta, got, tc.want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	if got := FormatCountdown(nil); got != "—" {
		t.Fatalf("nil countdown = %q", got)
	}
	if got := FormatCountdown(&Countdown{}); got != "—" {
		t.Fatalf("empty countdown = %q", got)
	}
	c := &Countdown{Days: 1, Hours: 2, Minutes: 3, UnlockTimestamp: 999}
	if got := FormatCountdown(c); got != "1d 2h 3m" {
		t.Fatalf("countdown = %q", got)
	}
}

func TestElectionStats(t *testing.T) {
	election := &Election{
		Title:            "Council Vote",
		StartTimestamp:   1000,
		EndTimestamp:     90_000,
		EndorsementCount: 12,
		EndorsementVotes: 48,
	}
	voter := &Voter{
		VotePower:             big.NewInt(100_000 * 1e6),
		ProposalsParticipated: 2,
	}
	locks := &PowerLockSummary{
		ActiveLocks:         []*PowerLock{{SourceID: 1}},
		TotalLocked:         big.NewInt(50_000 * 1e6),
		TotalPower:          big.NewInt(100_000 * 1e6),
		NextUnlockTimestamp: 4600,
	}

	stats := ElectionStats(election, ElectionStatusActive, voter, locks, 1000)
	if len(stats) != 4 {
		t.Fatalf("stats = %d entries", len(stats))
	}
	if stats[0].Title != "Council Vote" || stats[0].Value != "Active" {
		t.Fatalf("election stat = %+v", stats[0])
	}
	if !strings.HasPrefix(stats[0].Description, "ends in ") {
		t.Fatalf("election stat description = %q", stats[0].Description)
	}
	if stats[1].Value != "12" {
		t.Fatalf("endorsement stat = %+v", stats[1])
	}
	if stats[2].Title != "Vote Power" || stats[2].Trend != "up" {
		t.Fatalf("vote power stat = %+v", stats[2])
	}
	if stats[3].Title != "Locked" || !strings.Contains(stats[3].Description, "next unlock in ") {
		t.Fatalf("lock stat = %+v", stats[3])
	}
}

func TestElectionStatsUnstaked(t *testing.T) {
	stats := ElectionStats(nil, ElectionStatusUnknown, nil, nil, 0)
	if len(stats) != 1 {
		t.Fatalf("stats = %d entries, want the vote power placeholder only", len(stats))
	}
	if stats[0].Description != "stake to gain vote power" {
		t.Fatalf("placeholder = %+v", stats[0])
	}
}
