package voilibgov

import (
	"context"
	"sync"

	"github.com/voinetwork/voilibgov/namehash"
	"github.com/voinetwork/voilibgov/utils"
)

// MaxVotes is the protocol's hard cap on candidates one voter may endorse
// per election. The endorsement call always carries exactly this many
// positional candidate nodes.
const MaxVotes = 5

// SelectionState is a candidate's position in the voter's current session.
type SelectionState int32

const (
	// SelectionNone means the candidate is not part of the session.
	SelectionNone SelectionState = iota
	// SelectionSelected means the candidate is picked but not submitted.
	SelectionSelected
	// SelectionInFlight means the candidate is part of a submission whose
	// outcome is not yet known.
	SelectionInFlight
	// SelectionVoted means the candidate is part of the voter's confirmed
	// on-chain endorsement.
	SelectionVoted
)

// VoteSession tracks one voter's candidate selection for the working
// election and drives the endorsement submission protocol. A submission is
// a full replace: the confirmed set becomes exactly what was submitted,
// never a union with earlier votes.
//
// All session mutations are serialized; the session refuses changes while a
// submission is in flight, and refuses further submissions after an
// unconfirmed timeout until the voter acknowledges it.
type VoteSession struct {
	gateway   *ContractGateway
	elections *ElectionManager
	staking   *StakingManager

	mu          sync.Mutex
	address     string
	selected    []int
	inFlight    []int
	voted       []int
	submitting  bool
	unconfirmed bool

	onSubmitted func(confirmedIDs []int, txID string, voteChange bool)
}

func NewVoteSession(gateway *ContractGateway, elections *ElectionManager,
	staking *StakingManager, onSubmitted func([]int, string, bool)) *VoteSession {

	return &VoteSession{
		gateway:     gateway,
		elections:   elections,
		staking:     staking,
		onSubmitted: onSubmitted,
	}
}

// SetAddress binds the session to a wallet address, clearing any state left
// from a previous address.
func (s *VoteSession) SetAddress(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.address == address {
		return
	}
	s.address = address
	s.selected = nil
	s.inFlight = nil
	s.voted = nil
	s.submitting = false
	s.unconfirmed = false
}

// Reset drops all selection and vote state. Called when the stake backing
// the session's vote power is released.
func (s *VoteSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.inFlight = nil
	s.voted = nil
	s.submitting = false
	s.unconfirmed = false
}

// SeedVoted replaces the confirmed set, used when reconciling against the
// on-chain endorsement record at startup.
func (s *VoteSession) SeedVoted(candidateIDs []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voted = append([]int(nil), candidateIDs...)
}

// State reports a candidate's position in the session. In-flight and voted
// take precedence over selected so an optimistic UI never shows a candidate
// as merely picked while a submission naming it is outstanding.
func (s *VoteSession) State(candidateID int) SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contains(s.inFlight, candidateID) {
		return SelectionInFlight
	}
	if contains(s.voted, candidateID) && !contains(s.selected, candidateID) {
		return SelectionVoted
	}
	if contains(s.selected, candidateID) {
		return SelectionSelected
	}
	return SelectionNone
}

// Selected returns the picked candidate ids in selection order. Order is
// preserved through submission; the contract receives the nodes positionally.
func (s *VoteSession) Selected() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.selected...)
}

// Voted returns the confirmed candidate ids.
func (s *VoteSession) Voted() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.voted...)
}

// IsVoteChange reports whether a submission now would replace an existing
// confirmed endorsement rather than cast a first vote. Resubmitting an
// identical set is not a change.
func (s *VoteSession) IsVoteChange() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return voteSetChanged(s.selected, s.voted)
}

// voteSetChanged reports whether selected and voted differ as sets. An empty
// voted set is a first vote, never a change.
func voteSetChanged(selected, voted []int) bool {
	if len(voted) == 0 {
		return false
	}
	for _, id := range selected {
		if !contains(voted, id) {
			return true
		}
	}
	for _, id := range voted {
		if !contains(selected, id) {
			return true
		}
	}
	return false
}

// checkPreconditions enforces the gate order: connection before staking,
// staking before election status, status before in-flight. Callers rely on
// the first failing gate being the one reported.
func (s *VoteSession) checkPreconditions() error {
	if s.address == "" {
		return notice(ErrNotConnected, "connect a wallet to vote")
	}
	if s.staking.State() != StakingStaked {
		return notice(ErrNotStaked, "stake %s to gain vote power",
			utils.FormatTokenAmount(RequiredStakeAtoms().Int64()))
	}
	if status := s.elections.Status(); status != ElectionStatusActive {
		return notice(ErrVotingClosed, "voting is closed, election is %s", status)
	}
	if s.submitting || len(s.inFlight) > 0 {
		return notice(ErrSubmissionInFlight, "a vote submission is in flight")
	}
	if s.unconfirmed {
		return notice(ErrUnconfirmed, "the previous submission is unresolved, check the explorer")
	}
	return nil
}

// ToggleCandidate adds or removes a candidate from the selection, enforcing
// the election's quota on additions.
func (s *VoteSession) ToggleCandidate(candidateID int) error {
	quota := s.elections.Quota()
	known := false
	for _, c := range s.elections.Candidates() {
		if c.ID == candidateID {
			known = true
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPreconditions(); err != nil {
		return err
	}
	if !known {
		return notice(ErrNotExist, "unknown candidate %d", candidateID)
	}

	for i, id := range s.selected {
		if id == candidateID {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return nil
		}
	}
	if len(s.selected) >= quota {
		return notice(ErrQuotaReached, "you may select up to %d candidates", quota)
	}
	s.selected = append(s.selected, candidateID)
	return nil
}

// SubmitVotes submits the current selection as the voter's complete
// endorsement for the working election. Unused candidate slots carry the
// zero node. On a confirmation timeout the session does NOT resubmit and
// refuses further submissions until AcknowledgeUnconfirmed: a resubmitted
// identical endorsement would read as a deliberate vote change on chain.
func (s *VoteSession) SubmitVotes(ctx context.Context) (string, error) {
	s.mu.Lock()
	if err := s.checkPreconditions(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return "", notice(ErrNoSelection, "select at least one candidate")
	}

	voteChange := voteSetChanged(s.selected, s.voted)
	s.inFlight = s.selected
	s.selected = nil
	s.submitting = true
	submitted := append([]int(nil), s.inFlight...)
	s.mu.Unlock()

	nodes, err := s.candidateNodes(submitted)
	if err != nil {
		s.restoreSelection()
		return "", err
	}

	txID, err := s.gateway.EndorseCandidates(ctx, s.elections.CurrentNode(), nodes)
	if err != nil {
		if IsError(err, ErrUnconfirmed) {
			s.mu.Lock()
			s.submitting = false
			s.unconfirmed = true
			s.mu.Unlock()
			return txID, err
		}
		s.restoreSelection()
		return "", err
	}

	s.mu.Lock()
	s.voted = submitted
	s.inFlight = nil
	s.submitting = false
	s.mu.Unlock()

	log.Infof("endorsement confirmed for %d candidate(s), txid %s", len(submitted), txID)
	if s.onSubmitted != nil {
		s.onSubmitted(append([]int(nil), submitted...), txID, voteChange)
	}
	return txID, nil
}

// AcknowledgeUnconfirmed resolves an unconfirmed submission against the
// chain: if the voter's endorsement record now exists the in-flight set is
// promoted to voted, otherwise it returns to selected for a deliberate
// retry. Either way the session accepts changes again.
func (s *VoteSession) AcknowledgeUnconfirmed(ctx context.Context) error {
	s.mu.Lock()
	if !s.unconfirmed {
		s.mu.Unlock()
		return nil
	}
	address := s.address
	s.mu.Unlock()

	landed, err := s.elections.HasEndorsed(ctx, address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if landed {
		s.voted = s.inFlight
		s.inFlight = nil
	} else {
		s.selected = s.inFlight
		s.inFlight = nil
	}
	s.unconfirmed = false
	return nil
}

func (s *VoteSession) restoreSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = s.inFlight
	s.inFlight = nil
	s.submitting = false
}

// candidateNodes maps the submitted ids onto the fixed positional node
// array, in selection order, zero-filled to MaxVotes.
func (s *VoteSession) candidateNodes(candidateIDs []int) ([MaxVotes]namehash.Node, error) {
	var nodes [MaxVotes]namehash.Node
	if len(candidateIDs) > MaxVotes {
		return nodes, notice(ErrQuotaReached, "at most %d candidates per submission", MaxVotes)
	}

	byID := make(map[int]*Candidate)
	for _, c := range s.elections.Candidates() {
		byID[c.ID] = c
	}
	for i, id := range candidateIDs {
		candidate, ok := byID[id]
		if !ok {
			return nodes, notice(ErrNotExist, "unknown candidate %d", id)
		}
		nodes[i] = CandidateNode(candidate)
	}
	return nodes, nil
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
