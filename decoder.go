package voilibgov

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/voinetwork/voilibgov/utils"
)

// The contract returns records as positional ABI tuples; field order is the
// wire contract. Every decoder asserts the arity before touching a field so
// a malformed payload fails as a decode error for that entity instead of an
// index panic taking down the caller.

const (
	voterTupleArity       = 6
	electionTupleArity    = 12
	endorsementTupleArity = 6
	lockCreatedArity      = 4
	lockPayloadArity      = 7
	lockUnlockedArity     = 5
	proposalTupleArity    = 22
	globalStateArity      = 4
)

func arityCheck(method string, raw []interface{}, want int) error {
	if len(raw) != want {
		return fmt.Errorf("%s: expected %d-field tuple, got %d fields", method, want, len(raw))
	}
	return nil
}

func decodeVoter(raw []interface{}) (*Voter, error) {
	if err := arityCheck("decodeVoter", raw, voterTupleArity); err != nil {
		return nil, err
	}

	addr, err := asString(raw[0])
	if err != nil {
		return nil, fmt.Errorf("decodeVoter field 0: %v", err)
	}
	power, err := asBigInt(raw[1])
	if err != nil {
		return nil, fmt.Errorf("decodeVoter field 1: %v", err)
	}
	voteTS, err := asInt64(raw[2])
	if err != nil {
		return nil, fmt.Errorf("decodeVoter field 2: %v", err)
	}
	participated, err := asInt64(raw[3])
	if err != nil {
		return nil, fmt.Errorf("decodeVoter field 3: %v", err)
	}
	lastTS, err := asInt64(raw[4])
	if err != nil {
		return nil, fmt.Errorf("decodeVoter field 4: %v", err)
	}
	lastNode, err := asBytes(raw[5])
	if err != nil {
		return nil, fmt.Errorf("decodeVoter field 5: %v", err)
	}

	return &Voter{
		Address:                    addr,
		VotePower:                  power,
		VoteTimestamp:              voteTS,
		ProposalsParticipated:      participated,
		LastParticipationTimestamp: lastTS,
		LastProposalNode:           hex.EncodeToString(lastNode),
	}, nil
}

func decodeElection(raw []interface{}) (*Election, error) {
	if err := arityCheck("decodeElection", raw, electionTupleArity); err != nil {
		return nil, err
	}

	e := &Election{}
	var err error
	if e.Index, err = asInt64(raw[0]); err != nil {
		return nil, fmt.Errorf("decodeElection field 0: %v", err)
	}
	if e.RawStatus, err = asInt64(raw[1]); err != nil {
		return nil, fmt.Errorf("decodeElection field 1: %v", err)
	}
	if e.Proposer, err = asString(raw[2]); err != nil {
		return nil, fmt.Errorf("decodeElection field 2: %v", err)
	}

	title, err := asBytes(raw[3])
	if err != nil {
		return nil, fmt.Errorf("decodeElection field 3: %v", err)
	}
	e.Title = utils.StripTrailingZeroBytes(string(title))

	desc, err := asBytes(raw[4])
	if err != nil {
		return nil, fmt.Errorf("decodeElection field 4: %v", err)
	}
	e.Description = utils.StripTrailingZeroBytes(string(desc))

	node, err := asBytes(raw[5])
	if err != nil {
		return nil, fmt.Errorf("decodeElection field 5: %v", err)
	}
	e.Node = hex.EncodeToString(node)

	if e.CreatedAtTimestamp, err = asInt64(raw[6]); err != nil {
		return nil, fmt.Errorf("decodeElection field 6: %v", err)
	}
	if e.StartTimestamp, err = asInt64(raw[7]); err != nil {
		return nil, fmt.Errorf("decodeElection field 7: %v", err)
	}
	if e.EndTimestamp, err = asInt64(raw[8]); err != nil {
		return nil, fmt.Errorf("decodeElection field 8: %v", err)
	}
	if e.EndorsementCount, err = asInt64(raw[9]); err != nil {
		return nil, fmt.Errorf("decodeElection field 9: %v", err)
	}
	if e.EndorsementVotes, err = asInt64(raw[10]); err != nil {
		return nil, fmt.Errorf("decodeElection field 10: %v", err)
	}
	if e.EndorsementTimestamp, err = asInt64(raw[11]); err != nil {
		return nil, fmt.Errorf("decodeElection field 11: %v", err)
	}

	return e, nil
}

func decodeEndorsement(raw []interface{}) (*Endorsement, error) {
	if err := arityCheck("decodeEndorsement", raw, endorsementTupleArity); err != nil {
		return nil, err
	}

	e := &Endorsement{}
	var err error
	if e.Node, err = asBytes(raw[0]); err != nil {
		return nil, fmt.Errorf("decodeEndorsement field 0: %v", err)
	}
	if e.ElectionNode, err = asBytes(raw[1]); err != nil {
		return nil, fmt.Errorf("decodeEndorsement field 1: %v", err)
	}
	if e.CandidateNode, err = asBytes(raw[2]); err != nil {
		return nil, fmt.Errorf("decodeEndorsement field 2: %v", err)
	}
	if e.Count, err = asBigInt(raw[3]); err != nil {
		return nil, fmt.Errorf("decodeEndorsement field 3: %v", err)
	}
	if e.Votes, err = asBigInt(raw[4]); err != nil {
		return nil, fmt.Errorf("decodeEndorsement field 4: %v", err)
	}
	if e.Timestamp, err = asBigInt(raw[5]); err != nil {
		return nil, fmt.Errorf("decodeEndorsement field 5: %v", err)
	}

	return e, nil
}

func decodePowerLockCreatedEvent(raw []interface{}) (*PowerLockCreatedEvent, error) {
	if err := arityCheck("decodePowerLockCreatedEvent", raw, lockCreatedArity); err != nil {
		return nil, err
	}

	ev := &PowerLockCreatedEvent{}
	var err error
	if ev.TxID, err = asString(raw[0]); err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent field 0: %v", err)
	}
	if ev.Round, err = asUint64(raw[1]); err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent field 1: %v", err)
	}
	if ev.Timestamp, err = asInt64(raw[2]); err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent field 2: %v", err)
	}

	payload, err := asTuple(raw[3])
	if err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent field 3: %v", err)
	}
	if err := arityCheck("decodePowerLockCreatedEvent lock payload", payload, lockPayloadArity); err != nil {
		return nil, err
	}

	lock := PowerLock{}
	if lock.SourceID, err = asUint64(payload[0]); err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent lock field 0: %v", err)
	}
	if lock.Amount, err = asBigInt(payload[1]); err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent lock field 1: %v", err)
	}
	if lock.UnlockTimestamp, err = asInt64(payload[2]); err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent lock field 2: %v", err)
	}
	if lock.Owner, err = asString(payload[3]); err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent lock field 3: %v", err)
	}
	if lock.PowerGranted, err = asBigInt(payload[4]); err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent lock field 4: %v", err)
	}
	if lock.LockupDuration, err = asInt64(payload[5]); err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent lock field 5: %v", err)
	}
	if lock.BonusMultiplier, err = asUint64(payload[6]); err != nil {
		return nil, fmt.Errorf("decodePowerLockCreatedEvent lock field 6: %v", err)
	}
	ev.Lock = lock

	return ev, nil
}

func decodePowerLockUnlockedEvent(raw []interface{}) (*PowerLockUnlockedEvent, error) {
	if err := arityCheck("decodePowerLockUnlockedEvent", raw, lockUnlockedArity); err != nil {
		return nil, err
	}

	ev := &PowerLockUnlockedEvent{}
	var err error
	if ev.TxID, err = asString(raw[0]); err != nil {
		return nil, fmt.Errorf("decodePowerLockUnlockedEvent field 0: %v", err)
	}
	if ev.Round, err = asUint64(raw[1]); err != nil {
		return nil, fmt.Errorf("decodePowerLockUnlockedEvent field 1: %v", err)
	}
	if ev.Timestamp, err = asInt64(raw[2]); err != nil {
		return nil, fmt.Errorf("decodePowerLockUnlockedEvent field 2: %v", err)
	}
	if ev.SourceID, err = asUint64(raw[3]); err != nil {
		return nil, fmt.Errorf("decodePowerLockUnlockedEvent field 3: %v", err)
	}
	if ev.UnlockTimestamp, err = asInt64(raw[4]); err != nil {
		return nil, fmt.Errorf("decodePowerLockUnlockedEvent field 4: %v", err)
	}

	return ev, nil
}

func decodeProposal(raw []interface{}) (*Proposal, error) {
	if err := arityCheck("decodeProposal", raw, proposalTupleArity); err != nil {
		return nil, err
	}

	p := &Proposal{}
	var err error
	if p.Index, err = asInt64(raw[0]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 0: %v", err)
	}
	if p.Status, err = asInt64(raw[1]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 1: %v", err)
	}
	if p.Proposer, err = asString(raw[2]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 2: %v", err)
	}

	title, err := asBytes(raw[3])
	if err != nil {
		return nil, fmt.Errorf("decodeProposal field 3: %v", err)
	}
	p.Title = utils.StripTrailingZeroBytes(string(title))

	desc, err := asBytes(raw[4])
	if err != nil {
		return nil, fmt.Errorf("decodeProposal field 4: %v", err)
	}
	p.Description = utils.StripTrailingZeroBytes(string(desc))

	node, err := asBytes(raw[5])
	if err != nil {
		return nil, fmt.Errorf("decodeProposal field 5: %v", err)
	}
	p.Node = hex.EncodeToString(node)

	if p.CategoryID, err = asInt64(raw[6]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 6: %v", err)
	}
	if p.TotalVotes, err = asInt64(raw[7]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 7: %v", err)
	}
	if p.YesVotes, err = asInt64(raw[8]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 8: %v", err)
	}
	if p.TotalPower, err = asBigInt(raw[9]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 9: %v", err)
	}
	if p.ActivationPower, err = asBigInt(raw[10]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 10: %v", err)
	}
	if p.CreatedAtTimestamp, err = asInt64(raw[11]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 11: %v", err)
	}
	if p.VotingStart, err = asInt64(raw[12]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 12: %v", err)
	}
	if p.VotingEnd, err = asInt64(raw[13]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 13: %v", err)
	}

	actionHash, err := asBytes(raw[14])
	if err != nil {
		return nil, fmt.Errorf("decodeProposal field 14: %v", err)
	}
	p.ActionHash = hex.EncodeToString(actionHash)

	if p.ExecutedAtTimestamp, err = asInt64(raw[15]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 15: %v", err)
	}
	if p.ExecutionTxnID, err = asInt64(raw[16]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 16: %v", err)
	}
	if p.ActivationTimestamp, err = asInt64(raw[17]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 17: %v", err)
	}
	if p.QuorumThreshold, err = asBigInt(raw[18]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 18: %v", err)
	}
	if p.QuorumMet, err = asBool(raw[19]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 19: %v", err)
	}
	if p.QuorumStatus, err = asInt64(raw[20]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 20: %v", err)
	}
	if p.YesPower, err = asBigInt(raw[21]); err != nil {
		return nil, fmt.Errorf("decodeProposal field 21: %v", err)
	}

	return p, nil
}

func decodeGlobalState(raw []interface{}) (*GlobalState, error) {
	if err := arityCheck("decodeGlobalState", raw, globalStateArity); err != nil {
		return nil, err
	}

	s := &GlobalState{}
	var err error
	if s.ProposalCount, err = asInt64(raw[0]); err != nil {
		return nil, fmt.Errorf("decodeGlobalState field 0: %v", err)
	}
	if s.ActiveProposalCount, err = asInt64(raw[1]); err != nil {
		return nil, fmt.Errorf("decodeGlobalState field 1: %v", err)
	}
	if s.TotalVoterCount, err = asInt64(raw[2]); err != nil {
		return nil, fmt.Errorf("decodeGlobalState field 2: %v", err)
	}
	if s.TotalParticipatingVoters, err = asInt64(raw[3]); err != nil {
		return nil, fmt.Errorf("decodeGlobalState field 3: %v", err)
	}

	return s, nil
}

// Chain numerics arrive as uint64 or arbitrary-precision integers depending
// on the ABI width; the coercions below accept both and never narrow a
// big integer that exceeds the target width.

func asTuple(v interface{}) ([]interface{}, error) {
	t, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected tuple, got %T", v)
	}
	return t, nil
}

func asBytes(v interface{}) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("expected bytes, got %T", v)
	}
	return b, nil
}

func asString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func asBool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func asUint64(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d", n)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d", n)
		}
		return uint64(n), nil
	case *big.Int:
		if !n.IsUint64() {
			return 0, fmt.Errorf("value %s exceeds uint64", n)
		}
		return n.Uint64(), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case uint64:
		if n > uint64(1)<<63-1 {
			return 0, fmt.Errorf("value %d exceeds int64", n)
		}
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case *big.Int:
		if !n.IsInt64() {
			return 0, fmt.Errorf("value %s exceeds int64", n)
		}
		return n.Int64(), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func asBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return new(big.Int).Set(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case int64:
		return big.NewInt(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}
