package voilibgov

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/voinetwork/voilibgov/namehash"
	"github.com/voinetwork/voilibgov/utils"
)

// Fees are in microVOI. The endorsement call touches the voter box, the
// election box and five endorsement boxes, hence the larger budget.
const (
	feeEndorse = 15000
	feeGroup   = 2000
	feeUnlock  = 2000

	paymentBalanceBox = 28501
	paymentApprove    = 28502
	paymentLockPower  = 28503
)

const (
	eventPowerLockCreated  = "PowerLockCreated"
	eventPowerLockUnlocked = "PowerLockUnlocked"
)

// Proposal title and description are stored by the contract as fixed-width
// zero-padded buffers.
const (
	proposalTitleSize       = 64
	proposalDescriptionSize = 512
)

// CallResult is the normalized outcome of a contract method invocation.
// Txns carries the unsigned transaction group when the method mutates state;
// read-only simulations leave it empty.
type CallResult struct {
	Success     bool
	ReturnValue interface{}
	Error       string
	Txns        [][]byte
}

// GroupTxn is a companion transaction prepended to a contract call when the
// method requires a grouped multi-step submission. Payment is microVOI
// attached to the step.
type GroupTxn struct {
	AppID   uint64
	Method  string
	Args    []interface{}
	Payment uint64
	Note    string
}

// CallOptions identifies a single contract method invocation.
type CallOptions struct {
	AppID  uint64
	Method string
	Args   []interface{}
	Fee    uint64
	Extra  []GroupTxn
}

// ContractCaller is the external chain-client capability. Implementations
// simulate the call, returning the decoded ABI value for reads and the
// unsigned transaction group for writes.
type ContractCaller interface {
	Call(ctx context.Context, opts CallOptions) (*CallResult, error)
	ApplicationAddress(appID uint64) string
}

// TransactionSigner is the external wallet capability. A rejection by the
// user surfaces as an error.
type TransactionSigner interface {
	SignTransactions(ctx context.Context, txns [][]byte) ([][]byte, error)
}

// TransactionBroadcaster submits signed transactions and waits for them to
// land in a block.
type TransactionBroadcaster interface {
	Broadcast(ctx context.Context, signed [][]byte) (string, error)
	WaitForConfirmation(ctx context.Context, txID string) error
}

// EventFetcher returns the raw positional tuples logged by an application
// under the given event name, oldest first.
type EventFetcher interface {
	FetchEvents(ctx context.Context, appID uint64, eventName string) ([][]interface{}, error)
}

// AccountReader reads token balances from chain state.
type AccountReader interface {
	TokenBalance(ctx context.Context, tokenAppID uint64, address string) (*big.Int, error)
}

// ContractGateway wraps the opaque chain capabilities with typed operations
// on the governance and token applications. All reads translate a failed or
// empty call into (nil, nil) so callers can distinguish "record does not
// exist" from transport errors.
type ContractGateway struct {
	caller      ContractCaller
	signer      TransactionSigner
	broadcaster TransactionBroadcaster
	events      EventFetcher
	accounts    AccountReader

	governanceAppID uint64
	tokenAppID      uint64
}

func NewContractGateway(caller ContractCaller, signer TransactionSigner,
	broadcaster TransactionBroadcaster, events EventFetcher, accounts AccountReader,
	governanceAppID, tokenAppID uint64) *ContractGateway {

	return &ContractGateway{
		caller:          caller,
		signer:          signer,
		broadcaster:     broadcaster,
		events:          events,
		accounts:        accounts,
		governanceAppID: governanceAppID,
		tokenAppID:      tokenAppID,
	}
}

func (g *ContractGateway) read(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	res, err := g.caller.Call(ctx, CallOptions{
		AppID:  g.governanceAppID,
		Method: method,
		Args:   args,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, notice(ErrContextCanceled, "%s interrupted: %v", method, err)
		}
		log.Errorf("contract read %s failed: %v", method, err)
		return nil, notice(ErrCallFailed, "%s: %v", method, err)
	}
	if !res.Success {
		// The contract reports a missing box as an unsuccessful call.
		log.Debugf("contract read %s unsuccessful: %s", method, res.Error)
		return nil, nil
	}
	return res.ReturnValue, nil
}

// Ping issues a no-op call to verify the chain client is reachable.
func (g *ContractGateway) Ping(ctx context.Context) error {
	_, err := g.read(ctx, "nop")
	return err
}

// VoterRecord fetches and decodes the voter box for an address. Returns
// (nil, nil) when the address has never staked.
func (g *ContractGateway) VoterRecord(ctx context.Context, address string) (*Voter, error) {
	raw, err := g.read(ctx, "get_voter", address)
	if err != nil || raw == nil {
		return nil, err
	}
	tuple, err := asTuple(raw)
	if err == nil {
		var voter *Voter
		voter, err = decodeVoter(tuple)
		if err == nil {
			return voter, nil
		}
	}
	logRawPayload("get_voter", []interface{}{address}, raw, err)
	return nil, notice(ErrDecode, "voter record for %s could not be decoded", address)
}

// ProposalNode asks the contract to compute the node hash for a proposal
// title and description. The result must match namehash.Hash over the same
// inputs; the contract is authoritative.
func (g *ContractGateway) ProposalNode(ctx context.Context, title, description string) (namehash.Node, error) {
	raw, err := g.read(ctx, "get_proposal_node", []byte(title), []byte(description))
	if err != nil {
		return namehash.ZeroNode, err
	}
	if raw == nil {
		return namehash.ZeroNode, notice(ErrNotExist, "no node for proposal %q", title)
	}
	b, err := asBytes(raw)
	if err != nil || len(b) != namehash.NodeSize {
		logRawPayload("get_proposal_node", []interface{}{title}, raw, err)
		return namehash.ZeroNode, notice(ErrDecode, "proposal node for %q could not be decoded", title)
	}
	var node namehash.Node
	copy(node[:], b)
	return node, nil
}

// ElectionRecord fetches and decodes the election box for a node hash.
// Returns (nil, nil) when no election exists under that node.
func (g *ContractGateway) ElectionRecord(ctx context.Context, node namehash.Node) (*Election, error) {
	raw, err := g.read(ctx, "get_election", node[:])
	if err != nil || raw == nil {
		return nil, err
	}
	tuple, err := asTuple(raw)
	if err == nil {
		var election *Election
		election, err = decodeElection(tuple)
		if err == nil {
			return election, nil
		}
	}
	logRawPayload("get_election", []interface{}{logNode(node)}, raw, err)
	return nil, notice(ErrDecode, "election %s could not be decoded", logNode(node))
}

// EndorsementRecord fetches the aggregate endorsement record for a voter
// within an election. Returns (nil, nil) when the voter has not endorsed.
func (g *ContractGateway) EndorsementRecord(ctx context.Context, electionNode namehash.Node, address string) (*Endorsement, error) {
	raw, err := g.read(ctx, "get_endorsement", electionNode[:], address)
	if err != nil || raw == nil {
		return nil, err
	}
	tuple, err := asTuple(raw)
	if err == nil {
		var endorsement *Endorsement
		endorsement, err = decodeEndorsement(tuple)
		if err == nil {
			return endorsement, nil
		}
	}
	logRawPayload("get_endorsement", []interface{}{logNode(electionNode), address}, raw, err)
	return nil, notice(ErrDecode, "endorsement for %s could not be decoded", address)
}

// CandidateEndorsement fetches the aggregate endorsement count for one
// candidate node within an election. A missing record counts as zero.
func (g *ContractGateway) CandidateEndorsement(ctx context.Context, electionNode, candidateNode namehash.Node) (*big.Int, error) {
	raw, err := g.read(ctx, "get_candidate_endorsement", electionNode[:], candidateNode[:])
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return big.NewInt(0), nil
	}
	count, err := asBigInt(raw)
	if err != nil {
		logRawPayload("get_candidate_endorsement", []interface{}{logNode(electionNode), logNode(candidateNode)}, raw, err)
		return nil, notice(ErrDecode, "endorsement count for %s could not be decoded", logNode(candidateNode))
	}
	return count, nil
}

// VoteRecord fetches a voter's yes/no ballot for a proposal. The second
// return value is false when the voter has not voted.
func (g *ContractGateway) VoteRecord(ctx context.Context, proposalNode namehash.Node, address string) (int64, bool, error) {
	raw, err := g.read(ctx, "get_vote", proposalNode[:], address)
	if err != nil || raw == nil {
		return 0, false, err
	}
	value, err := asInt64(raw)
	if err != nil {
		logRawPayload("get_vote", []interface{}{logNode(proposalNode), address}, raw, err)
		return 0, false, notice(ErrDecode, "vote for %s could not be decoded", address)
	}
	return value, true, nil
}

// ProposalRecord fetches and decodes a governance proposal box.
func (g *ContractGateway) ProposalRecord(ctx context.Context, node namehash.Node) (*Proposal, error) {
	raw, err := g.read(ctx, "get_proposal", node[:])
	if err != nil || raw == nil {
		return nil, err
	}
	tuple, err := asTuple(raw)
	if err == nil {
		var proposal *Proposal
		proposal, err = decodeProposal(tuple)
		if err == nil {
			return proposal, nil
		}
	}
	logRawPayload("get_proposal", []interface{}{logNode(node)}, raw, err)
	return nil, notice(ErrDecode, "proposal %s could not be decoded", logNode(node))
}

// ContractGlobalState fetches the governance contract's aggregate counters.
func (g *ContractGateway) ContractGlobalState(ctx context.Context) (*GlobalState, error) {
	raw, err := g.read(ctx, "get_global_state")
	if err != nil || raw == nil {
		return nil, err
	}
	tuple, err := asTuple(raw)
	if err == nil {
		var state *GlobalState
		state, err = decodeGlobalState(tuple)
		if err == nil {
			return state, nil
		}
	}
	logRawPayload("get_global_state", nil, raw, err)
	return nil, notice(ErrDecode, "global state could not be decoded")
}

// TokenBalance reads the governance token balance of an address in atoms.
func (g *ContractGateway) TokenBalance(ctx context.Context, address string) (*big.Int, error) {
	balance, err := g.accounts.TokenBalance(ctx, g.tokenAppID, address)
	if err != nil {
		log.Errorf("token balance read for %s failed: %v", address, err)
		return nil, notice(ErrCallFailed, "balance unavailable: %v", err)
	}
	return balance, nil
}

// PowerLockEvents fetches the full power-lock event history for the
// governance application, oldest first.
func (g *ContractGateway) PowerLockEvents(ctx context.Context) ([]*PowerLockCreatedEvent, []*PowerLockUnlockedEvent, error) {
	rawCreated, err := g.events.FetchEvents(ctx, g.governanceAppID, eventPowerLockCreated)
	if err != nil {
		log.Errorf("fetching %s events failed: %v", eventPowerLockCreated, err)
		return nil, nil, notice(ErrCallFailed, "power lock events unavailable: %v", err)
	}
	rawUnlocked, err := g.events.FetchEvents(ctx, g.governanceAppID, eventPowerLockUnlocked)
	if err != nil {
		log.Errorf("fetching %s events failed: %v", eventPowerLockUnlocked, err)
		return nil, nil, notice(ErrCallFailed, "power lock events unavailable: %v", err)
	}

	created := make([]*PowerLockCreatedEvent, 0, len(rawCreated))
	for _, raw := range rawCreated {
		ev, err := decodePowerLockCreatedEvent(raw)
		if err != nil {
			logRawPayload(eventPowerLockCreated, nil, raw, err)
			return nil, nil, notice(ErrDecode, "power lock event could not be decoded")
		}
		created = append(created, ev)
	}
	unlocked := make([]*PowerLockUnlockedEvent, 0, len(rawUnlocked))
	for _, raw := range rawUnlocked {
		ev, err := decodePowerLockUnlockedEvent(raw)
		if err != nil {
			logRawPayload(eventPowerLockUnlocked, nil, raw, err)
			return nil, nil, notice(ErrDecode, "power unlock event could not be decoded")
		}
		unlocked = append(unlocked, ev)
	}
	return created, unlocked, nil
}

// EndorseCandidates submits a full-replace endorsement for an election. The
// contract requires exactly MaxVotes positional candidate nodes; unused
// slots carry the zero node. Returns the confirmed transaction id.
func (g *ContractGateway) EndorseCandidates(ctx context.Context, electionNode namehash.Node, candidates [MaxVotes]namehash.Node) (string, error) {
	args := make([]interface{}, 0, MaxVotes+1)
	args = append(args, electionNode[:])
	for i := range candidates {
		args = append(args, candidates[i][:])
	}

	res, err := g.caller.Call(ctx, CallOptions{
		AppID:  g.governanceAppID,
		Method: "endorse_candidates",
		Args:   args,
		Fee:    feeEndorse,
	})
	if err != nil {
		log.Errorf("endorse_candidates call failed: %v", err)
		return "", notice(ErrCallFailed, "endorsement could not be built: %v", err)
	}
	if !res.Success {
		log.Errorf("endorse_candidates rejected: %s", res.Error)
		return "", notice(ErrCallFailed, "endorsement rejected: %s", res.Error)
	}
	return g.signAndBroadcast(ctx, "endorse_candidates", res.Txns)
}

// LockPower submits the four-step staking group: create the voter's token
// balance box, deposit the stake into the token application, approve the
// governance application to spend it, and lock it for vote power. The group
// is all-or-nothing on chain.
func (g *ContractGateway) LockPower(ctx context.Context, sender string, amount *big.Int, unlockTimestamp int64) (string, error) {
	governanceAddr := g.caller.ApplicationAddress(g.governanceAppID)
	if !amount.IsUint64() {
		return "", notice(ErrCallFailed, "stake amount %s out of range", amount)
	}
	atoms := amount.Uint64()

	group := []GroupTxn{
		{
			AppID:   g.tokenAppID,
			Method:  "createBalanceBox",
			Args:    []interface{}{sender},
			Payment: paymentBalanceBox,
			Note:    fmt.Sprintf("Create balance box for %s", sender),
		},
		{
			AppID:   g.tokenAppID,
			Method:  "deposit",
			Args:    []interface{}{atoms},
			Payment: atoms,
			Note:    fmt.Sprintf("Deposit %s", amount),
		},
		{
			AppID:   g.tokenAppID,
			Method:  "arc200_approve",
			Args:    []interface{}{governanceAddr, atoms},
			Payment: paymentApprove,
			Note:    fmt.Sprintf("Approve %s to %s", amount, governanceAddr),
		},
		{
			AppID:   g.governanceAppID,
			Method:  "lock_power",
			Args:    []interface{}{g.tokenAppID, atoms, unlockTimestamp},
			Payment: paymentLockPower,
			Note:    fmt.Sprintf("Lock power %s", amount),
		},
	}

	res, err := g.caller.Call(ctx, CallOptions{
		AppID:  g.governanceAppID,
		Method: "custom",
		Fee:    feeGroup,
		Extra:  group,
	})
	if err != nil {
		log.Errorf("lock_power group call failed: %v", err)
		return "", notice(ErrCallFailed, "staking group could not be built: %v", err)
	}
	if !res.Success {
		log.Errorf("lock_power group rejected: %s", res.Error)
		return "", notice(ErrCallFailed, "staking rejected: %s", res.Error)
	}
	return g.signAndBroadcast(ctx, "lock_power", res.Txns)
}

// CastVote submits a yes/no ballot on a governance proposal.
// Propose submits a new yes/no governance proposal. The contract stores
// title and description as fixed-width buffers, so both are zero-padded
// before the call; a title over 64 bytes or a description over 512 is
// rejected here rather than truncated silently.
func (g *ContractGateway) Propose(ctx context.Context, title, description string, categoryID int64) (string, error) {
	if len(title) > proposalTitleSize {
		return "", notice(ErrCallFailed, "title exceeds %d bytes", proposalTitleSize)
	}
	if len(description) > proposalDescriptionSize {
		return "", notice(ErrCallFailed, "description exceeds %d bytes", proposalDescriptionSize)
	}

	res, err := g.caller.Call(ctx, CallOptions{
		AppID:  g.governanceAppID,
		Method: "propose",
		Args: []interface{}{
			utils.PadToLength(title, proposalTitleSize),
			utils.PadToLength(description, proposalDescriptionSize),
			categoryID,
		},
	})
	if err != nil {
		log.Errorf("propose call failed: %v", err)
		return "", notice(ErrCallFailed, "proposal could not be built: %v", err)
	}
	if !res.Success {
		log.Errorf("propose rejected: %s", res.Error)
		return "", notice(ErrCallFailed, "proposal rejected: %s", res.Error)
	}
	return g.signAndBroadcast(ctx, "propose", res.Txns)
}

// ActivateProposal opens a proposal for voting.
func (g *ContractGateway) ActivateProposal(ctx context.Context, node namehash.Node) (string, error) {
	return g.proposalAction(ctx, "activate_proposal", node)
}

// RejectProposal closes a proposal without a vote.
func (g *ContractGateway) RejectProposal(ctx context.Context, node namehash.Node) (string, error) {
	return g.proposalAction(ctx, "reject_proposal", node)
}

func (g *ContractGateway) proposalAction(ctx context.Context, method string, node namehash.Node) (string, error) {
	res, err := g.caller.Call(ctx, CallOptions{
		AppID:  g.governanceAppID,
		Method: method,
		Args:   []interface{}{node[:]},
	})
	if err != nil {
		log.Errorf("%s call failed: %v", method, err)
		return "", notice(ErrCallFailed, "%s could not be built: %v", method, err)
	}
	if !res.Success {
		log.Errorf("%s rejected: %s", method, res.Error)
		return "", notice(ErrCallFailed, "%s rejected: %s", method, res.Error)
	}
	return g.signAndBroadcast(ctx, method, res.Txns)
}

func (g *ContractGateway) CastVote(ctx context.Context, proposalNode namehash.Node, support int64) (string, error) {
	res, err := g.caller.Call(ctx, CallOptions{
		AppID:  g.governanceAppID,
		Method: "cast_vote",
		Args:   []interface{}{proposalNode[:], support},
	})
	if err != nil {
		log.Errorf("cast_vote call failed: %v", err)
		return "", notice(ErrCallFailed, "vote could not be built: %v", err)
	}
	if !res.Success {
		log.Errorf("cast_vote rejected: %s", res.Error)
		return "", notice(ErrCallFailed, "vote rejected: %s", res.Error)
	}
	return g.signAndBroadcast(ctx, "cast_vote", res.Txns)
}

// UnlockPower releases a matured power lock back to the voter's balance.
func (g *ContractGateway) UnlockPower(ctx context.Context, sourceID uint64, unlockTimestamp int64) (string, error) {
	res, err := g.caller.Call(ctx, CallOptions{
		AppID:  g.governanceAppID,
		Method: "unlock_power",
		Args:   []interface{}{sourceID, unlockTimestamp},
		Fee:    feeUnlock,
	})
	if err != nil {
		log.Errorf("unlock_power call failed: %v", err)
		return "", notice(ErrCallFailed, "unlock could not be built: %v", err)
	}
	if !res.Success {
		log.Errorf("unlock_power rejected: %s", res.Error)
		return "", notice(ErrCallFailed, "unlock rejected: %s", res.Error)
	}
	return g.signAndBroadcast(ctx, "unlock_power", res.Txns)
}

// signAndBroadcast walks the sign, broadcast, confirm sequence for an
// unsigned transaction group. A confirmation timeout is NOT a failure: the
// transaction may still land, so the txid is returned alongside the
// unconfirmed error and callers must not resubmit.
func (g *ContractGateway) signAndBroadcast(ctx context.Context, method string, txns [][]byte) (string, error) {
	signed, err := g.signer.SignTransactions(ctx, txns)
	if err != nil {
		log.Infof("%s: signing rejected: %v", method, err)
		return "", notice(ErrSignRejected, "transaction was not signed: %v", err)
	}

	txID, err := g.broadcaster.Broadcast(ctx, signed)
	if err != nil {
		log.Errorf("%s: broadcast failed: %v", method, err)
		return "", notice(ErrBroadcastFailed, "transaction could not be sent: %v", err)
	}

	if err := g.broadcaster.WaitForConfirmation(ctx, txID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			log.Warnf("%s: confirmation wait for %s timed out", method, txID)
			return txID, notice(ErrUnconfirmed, "transaction %s not yet confirmed, check the explorer", txID)
		}
		log.Errorf("%s: confirmation for %s failed: %v", method, txID, err)
		return txID, notice(ErrBroadcastFailed, "transaction %s failed: %v", txID, err)
	}

	log.Infof("%s confirmed, txid %s", method, txID)
	return txID, nil
}
