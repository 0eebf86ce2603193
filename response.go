package voilibgov

import (
	"errors"
	"fmt"
)

// GovernanceNotificationListener receives updates as on-chain governance
// state is re-read or a submission settles. Implementations must not block;
// they are invoked inline from the publishing flow.
type GovernanceNotificationListener interface {
	OnVoterUpdated(voter *Voter)
	OnElectionUpdated(election *Election)
	OnEndorsementCountsUpdated(counts map[int]int64)
	OnPowerLocksUpdated(summary *PowerLockSummary)
	OnCountdown(remaining *Countdown)
	OnVotesSubmitted(confirmedIDs []int, txID string, voteChange bool)
	OnStakingChanged(state StakingState)
}

// BlockingNotice is raised to the caller when an action cannot proceed.
// Reason is one of the Err* codes; Detail carries the human-oriented
// message, verbatim from the adapter for adapter-reported failures.
type BlockingNotice struct {
	Reason string
	Detail string
}

func (n BlockingNotice) Error() string {
	if n.Detail == "" {
		return n.Reason
	}
	return n.Reason + ": " + n.Detail
}

const (
	// Error Codes
	ErrNotConnected         = "not_connected"
	ErrNotStaked            = "not_staked"
	ErrAlreadyStaked        = "already_staked"
	ErrStakeInProgress      = "stake_in_progress"
	ErrInsufficientBalance  = "insufficient_balance"
	ErrQuotaReached         = "quota_reached"
	ErrVotingClosed         = "voting_closed"
	ErrNoSelection          = "no_selection"
	ErrSubmissionInFlight   = "submission_in_flight"
	ErrNothingToUnlock      = "nothing_to_unlock"
	ErrAmbiguousLocks       = "ambiguous_locks"
	ErrLockNotMatured       = "lock_not_matured"
	ErrSignRejected         = "sign_rejected"
	ErrBroadcastFailed      = "broadcast_failed"
	ErrUnconfirmed          = "unconfirmed"
	ErrCallFailed           = "call_failed"
	ErrDecode               = "decode_error"
	ErrNotExist             = "not_exists"
	ErrUnavailable          = "unavailable"
	ErrContextCanceled      = "context_canceled"
	ErrListenerAlreadyExist = "listener_already_exists"
	ErrDatabaseInUse        = "database_in_use"
	ErrUnsupportedNetwork   = "unsupported_network"
)

func notice(reason, format string, a ...interface{}) error {
	return BlockingNotice{Reason: reason, Detail: fmt.Sprintf(format, a...)}
}

// IsError reports whether err is a BlockingNotice carrying the given reason
// code.
func IsError(err error, reason string) bool {
	var n BlockingNotice
	if errors.As(err, &n) {
		return n.Reason == reason
	}
	return false
}
