package voilibgov

import (
	"fmt"
	"sort"

	"github.com/voinetwork/voilibgov/utils"
)

// Stat is a formatted dashboard tuple. Trend is optional and empty when the
// stat has no direction.
type Stat struct {
	Title       string
	Value       string
	Description string
	Trend       string
}

// LeaderboardRow is one formatted row of the candidate standings.
type LeaderboardRow struct {
	Rank        int
	CandidateID int
	Name        string
	Votes       int64
	Percentage  float64
}

// BuildLeaderboard ranks candidates by descending endorsement count. Ties
// keep roster order so re-renders with unchanged counts never reshuffle
// rows. Percentages are of the total count, zero when nothing has been
// endorsed yet.
func BuildLeaderboard(candidates []*Candidate, counts map[int]int64) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(candidates))
	var total int64
	for _, c := range candidates {
		votes := counts[c.ID]
		total += votes
		rows = append(rows, LeaderboardRow{
			CandidateID: c.ID,
			Name:        c.Name,
			Votes:       votes,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Votes > rows[j].Votes
	})

	for i := range rows {
		rows[i].Rank = i + 1
		if total > 0 {
			rows[i].Percentage = float64(rows[i].Votes) / float64(total) * 100
		}
	}
	return rows
}

// FormatTimeRemaining renders a second delta as "Xd Yh Zm". Negative deltas
// render as elapsed.
func FormatTimeRemaining(deltaSeconds int64) string {
	if deltaSeconds <= 0 {
		return "0d 0h 0m"
	}
	days := deltaSeconds / 86400
	hours := deltaSeconds % 86400 / 3600
	minutes := deltaSeconds % 3600 / 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

// FormatCountdown renders a lock countdown, or a placeholder when no future
// maturity exists.
func FormatCountdown(c *Countdown) string {
	if c == nil || c.UnlockTimestamp == 0 {
		return "—"
	}
	return fmt.Sprintf("%dd %dh %dm", c.Days, c.Hours, c.Minutes)
}

// ElectionStats projects the current election and voter position into
// dashboard tuples. It only formats values derived elsewhere; eligibility
// rules never live here.
func ElectionStats(election *Election, status ElectionStatus, voter *Voter,
	locks *PowerLockSummary, now int64) []Stat {

	stats := make([]Stat, 0, 4)

	if election != nil {
		value := status.String()
		description := ""
		switch status {
		case ElectionStatusUpcoming:
			description = "starts in " + FormatTimeRemaining(election.StartTimestamp-now)
		case ElectionStatusActive:
			description = "ends in " + FormatTimeRemaining(election.EndTimestamp-now)
		case ElectionStatusCompleted:
			description = "ended " + utils.ExtractDateOrTime(election.EndTimestamp)
		}
		stats = append(stats, Stat{
			Title:       election.Title,
			Value:       value,
			Description: description,
		})
		stats = append(stats, Stat{
			Title:       "Endorsements",
			Value:       fmt.Sprintf("%d", election.EndorsementCount),
			Description: fmt.Sprintf("%d votes cast", election.EndorsementVotes),
		})
	}

	if voter != nil && voter.Staked() {
		stats = append(stats, Stat{
			Title:       "Vote Power",
			Value:       utils.FormatTokenAmount(voter.VotePower.Int64()),
			Description: fmt.Sprintf("%d elections participated", voter.ProposalsParticipated),
			Trend:       "up",
		})
	} else {
		stats = append(stats, Stat{
			Title:       "Vote Power",
			Value:       utils.FormatTokenAmount(0),
			Description: "stake to gain vote power",
		})
	}

	if locks != nil && len(locks.ActiveLocks) > 0 {
		description := "no upcoming unlock"
		if locks.NextUnlockTimestamp > 0 {
			description = "next unlock in " + FormatTimeRemaining(locks.NextUnlockTimestamp-now)
		}
		stats = append(stats, Stat{
			Title:       "Locked",
			Value:       utils.FormatTokenAmount(locks.TotalLocked.Int64()),
			Description: description,
		})
	}

	return stats
}
