package voilibgov

import (
	"math/big"
)

// Voter is the on-chain voter record for one address, keyed by the
// governance contract. It is created implicitly by the first confirmed
// lock_power and only ever mutated by confirmed transactions; the client
// treats it as read-only chain truth.
type Voter struct {
	Address                    string
	VotePower                  *big.Int
	VoteTimestamp              int64
	ProposalsParticipated      int64
	LastParticipationTimestamp int64
	LastProposalNode           string // lowercase hex
}

// Staked reports whether the confirmed record carries positive vote power.
// This, not client intent, is the source of truth for the staked flag.
func (v *Voter) Staked() bool {
	return v != nil && v.VotePower != nil && v.VotePower.Sign() > 0
}

// ElectionStatus is the derived status of an election, combining the coarse
// on-chain status code with the continuous time window.
type ElectionStatus int32

const (
	ElectionStatusUpcoming ElectionStatus = iota
	ElectionStatusActive
	ElectionStatusCompleted
	ElectionStatusCancelled
	ElectionStatusUnknown
)

func (s ElectionStatus) String() string {
	switch s {
	case ElectionStatusUpcoming:
		return "Upcoming"
	case ElectionStatusActive:
		return "Active"
	case ElectionStatusCompleted:
		return "Completed"
	case ElectionStatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Election is the on-chain election record. Title and description are stored
// by the contract as fixed-width zero-padded buffers; decoded values carry no
// padding. Node is the election's 32-byte identifier in lowercase hex.
type Election struct {
	Index                int64
	RawStatus            int64
	Proposer             string
	Title                string
	Description          string
	Node                 string `storm:"id"`
	CreatedAtTimestamp   int64
	StartTimestamp       int64
	EndTimestamp         int64
	EndorsementCount     int64
	EndorsementVotes     int64
	EndorsementTimestamp int64

	// Positions is the number of council seats, from the roster config.
	// Zero means the default quota applies.
	Positions int
}

// Candidate is a client-local roster entry. The numeric ID exists only on
// this side; on-chain a candidate is identified by the node hash of its name.
type Candidate struct {
	ID                int    `storm:"id,increment"`
	ElectionNode      string `storm:"index"`
	Name              string
	Bio               string
	Address           string
	CampaignStatement string
	Profile           *Profile
}

// Endorsement is the per-(election, candidate) aggregate endorsement record.
type Endorsement struct {
	Node          []byte
	ElectionNode  []byte
	CandidateNode []byte
	Count         *big.Int
	Votes         *big.Int
	Timestamp     *big.Int
}

// PowerLock is the payload of a PowerLockCreated event: a time-bounded
// escrow of governance tokens granting vote power for its duration.
type PowerLock struct {
	SourceID        uint64
	Amount          *big.Int
	UnlockTimestamp int64
	Owner           string
	PowerGranted    *big.Int
	LockupDuration  int64
	BonusMultiplier uint64
}

// Unlockable reports whether the lock has matured at the given unix time.
func (l *PowerLock) Unlockable(now int64) bool {
	return now >= l.UnlockTimestamp
}

// PowerLockCreatedEvent is a confirmed lock creation observed on chain.
type PowerLockCreatedEvent struct {
	TxID      string
	Round     uint64
	Timestamp int64
	Lock      PowerLock
}

// PowerLockUnlockedEvent is a confirmed lock release observed on chain. A
// created lock whose source id carries a matching unlocked event is consumed.
type PowerLockUnlockedEvent struct {
	TxID            string
	Round           uint64
	Timestamp       int64
	SourceID        uint64
	UnlockTimestamp int64
}

// Proposal is the on-chain yes/no governance proposal record.
type Proposal struct {
	Index               int64
	Status              int64
	Proposer            string
	Title               string
	Description         string
	Node                string `storm:"id"`
	CategoryID          int64
	TotalVotes          int64
	YesVotes            int64
	TotalPower          *big.Int
	ActivationPower     *big.Int
	CreatedAtTimestamp  int64
	VotingStart         int64
	VotingEnd           int64
	ActionHash          string
	ExecutedAtTimestamp int64
	ExecutionTxnID      int64
	ActivationTimestamp int64
	QuorumThreshold     *big.Int
	QuorumMet           bool
	QuorumStatus        int64
	YesPower            *big.Int
}

// Vote support values for CastVote.
const (
	VoteNo  int64 = 0
	VoteYes int64 = 1
)

// GlobalState is the governance contract's aggregate counters.
type GlobalState struct {
	ProposalCount            int64
	ActiveProposalCount      int64
	TotalVoterCount          int64
	TotalParticipatingVoters int64
}

// Profile is off-chain directory metadata for a candidate name. Best effort;
// a candidate without one renders with its bare name and bio.
type Profile struct {
	Name     string          `json:"name"`
	Address  string          `json:"address"`
	Metadata ProfileMetadata `json:"metadata"`
	Cached   bool            `json:"cached"`
}

type ProfileMetadata struct {
	Bio      string `json:"bio,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Banner   string `json:"banner,omitempty"`
	Location string `json:"location,omitempty"`
	Twitter  string `json:"com.twitter,omitempty"`
	Github   string `json:"com.github,omitempty"`
}
