package voilibgov

import (
	"context"
	"sync"

	"github.com/asdine/storm"
	"github.com/facebookgo/clock"

	"github.com/voinetwork/voilibgov/namehash"
)

// ProposalManager handles the yes/no governance proposals that run beside
// council elections. Records are cached in the database under their node
// hash; the voter's own ballots are kept in memory per address.
type ProposalManager struct {
	gateway *ContractGateway
	db      *storm.DB
	clock   clock.Clock

	mu    sync.RWMutex
	votes map[string]int64 // node hex -> VoteYes/VoteNo
}

func NewProposalManager(gateway *ContractGateway, db *storm.DB, clk clock.Clock) *ProposalManager {
	return &ProposalManager{
		gateway: gateway,
		db:      db,
		clock:   clk,
		votes:   make(map[string]int64),
	}
}

// FetchProposal reads a proposal from chain and caches it. Returns
// (nil, nil) when no proposal exists under the node.
func (pm *ProposalManager) FetchProposal(ctx context.Context, node namehash.Node) (*Proposal, error) {
	proposal, err := pm.gateway.ProposalRecord(ctx, node)
	if err != nil || proposal == nil {
		return nil, err
	}
	if err := pm.db.Save(proposal); err != nil {
		log.Errorf("caching proposal %s failed: %v", proposal.Node, err)
	}
	return proposal, nil
}

// CachedProposal loads a proposal from the database by node hash.
func (pm *ProposalManager) CachedProposal(node string) (*Proposal, error) {
	var proposal Proposal
	err := pm.db.One("Node", node, &proposal)
	if err != nil {
		if err == storm.ErrNotFound {
			return nil, nil
		}
		return nil, notice(ErrUnavailable, "proposal cache read failed: %v", err)
	}
	return &proposal, nil
}

// FetchVote reads the address's ballot for a proposal and records it. The
// second return is false when no ballot exists.
func (pm *ProposalManager) FetchVote(ctx context.Context, node namehash.Node, address string) (int64, bool, error) {
	support, voted, err := pm.gateway.VoteRecord(ctx, node, address)
	if err != nil || !voted {
		return 0, false, err
	}
	pm.mu.Lock()
	pm.votes[node.String()] = support
	pm.mu.Unlock()
	return support, true, nil
}

// KnownVote returns the last fetched ballot for a proposal node, if any.
func (pm *ProposalManager) KnownVote(node string) (int64, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	support, ok := pm.votes[node]
	return support, ok
}

// Propose submits a new proposal and returns its transaction id. The node
// hash under which the proposal will live is derivable locally via
// namehash.Hash, but the contract computes it authoritatively on creation.
func (pm *ProposalManager) Propose(ctx context.Context, title, description string, categoryID int64) (string, error) {
	if title == "" {
		return "", notice(ErrNoSelection, "proposal title is required")
	}
	return pm.gateway.Propose(ctx, title, description, categoryID)
}

// ProposalNode resolves the contract node hash for a proposal's title and
// description, e.g. to look up a proposal right after submitting it.
func (pm *ProposalManager) ProposalNode(ctx context.Context, title, description string) (namehash.Node, error) {
	return pm.gateway.ProposalNode(ctx, title, description)
}

// ActivateProposal opens a proposal for voting and drops the stale cache
// entry so the next read reflects the new status.
func (pm *ProposalManager) ActivateProposal(ctx context.Context, node namehash.Node) (string, error) {
	txID, err := pm.gateway.ActivateProposal(ctx, node)
	if err != nil {
		return txID, err
	}
	pm.dropCached(node)
	return txID, nil
}

// RejectProposal closes a proposal without a vote.
func (pm *ProposalManager) RejectProposal(ctx context.Context, node namehash.Node) (string, error) {
	txID, err := pm.gateway.RejectProposal(ctx, node)
	if err != nil {
		return txID, err
	}
	pm.dropCached(node)
	return txID, nil
}

func (pm *ProposalManager) dropCached(node namehash.Node) {
	if err := pm.db.DeleteStruct(&Proposal{Node: node.String()}); err != nil && err != storm.ErrNotFound {
		log.Errorf("dropping cached proposal %s failed: %v", logNode(node), err)
	}
}

// CastVote submits a yes/no ballot. The proposal's voting window is checked
// before anything is signed.
func (pm *ProposalManager) CastVote(ctx context.Context, node namehash.Node, support int64) (string, error) {
	if support != VoteYes && support != VoteNo {
		return "", notice(ErrNoSelection, "vote must be yes or no")
	}

	proposal, err := pm.FetchProposal(ctx, node)
	if err != nil {
		return "", err
	}
	if proposal == nil {
		return "", notice(ErrNotExist, "proposal %s not found", logNode(node))
	}
	now := pm.clock.Now().Unix()
	if now < proposal.VotingStart || (proposal.VotingEnd > 0 && now > proposal.VotingEnd) {
		return "", notice(ErrVotingClosed, "voting window for %q is closed", proposal.Title)
	}

	txID, err := pm.gateway.CastVote(ctx, node, support)
	if err != nil {
		return txID, err
	}

	pm.mu.Lock()
	pm.votes[node.String()] = support
	pm.mu.Unlock()
	return txID, nil
}

// GlobalState reads the contract's aggregate proposal and voter counters.
func (pm *ProposalManager) GlobalState(ctx context.Context) (*GlobalState, error) {
	state, err := pm.gateway.ContractGlobalState(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, notice(ErrUnavailable, "governance global state unavailable")
	}
	return state, nil
}

// ClearVotes drops per-address ballot state, used when the wallet address
// changes.
func (pm *ProposalManager) ClearVotes() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.votes = make(map[string]int64)
}
