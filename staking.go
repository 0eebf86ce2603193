package voilibgov

import (
	"context"
	"math/big"
	"sync"

	"github.com/facebookgo/clock"
	"github.com/iotexproject/go-fsm"
	"github.com/voinetwork/voilibgov/utils"
)

// RequiredStakeTokens is the fixed stake granting election vote power, in
// whole tokens.
const RequiredStakeTokens = 50000

// DefaultLockupSeconds is the lockup attached to a new stake. The contract
// scales granted vote power by lockup duration; four weeks is the shortest
// duration granting full power.
const DefaultLockupSeconds = 4 * 7 * 24 * 60 * 60

// StakingState is the externally visible position in the staking lifecycle.
type StakingState string

const (
	StakingUnstaked  StakingState = "unstaked"
	StakingSubmitted StakingState = "staking"
	StakingStaked    StakingState = "staked"
	StakingUnstaking StakingState = "unstaking"
)

const (
	sUnstaked  fsm.State = fsm.State(StakingUnstaked)
	sStaking   fsm.State = fsm.State(StakingSubmitted)
	sStaked    fsm.State = fsm.State(StakingStaked)
	sUnstaking fsm.State = fsm.State(StakingUnstaking)
)

const (
	eStakeSubmit    fsm.EventType = "E_STAKE_SUBMIT"
	eStakeConfirmed fsm.EventType = "E_STAKE_CONFIRMED"
	eStakeFailed    fsm.EventType = "E_STAKE_FAILED"
	eUnstakeSubmit  fsm.EventType = "E_UNSTAKE_SUBMIT"
	eUnstakeConfirm fsm.EventType = "E_UNSTAKE_CONFIRMED"
	eUnstakeFailed  fsm.EventType = "E_UNSTAKE_FAILED"
	eVoterStaked    fsm.EventType = "E_VOTER_STAKED"
	eVoterUnstaked  fsm.EventType = "E_VOTER_UNSTAKED"
)

type stakingEvent struct {
	eventType fsm.EventType
}

func (e *stakingEvent) Type() fsm.EventType { return e.eventType }

// RequiredStakeAtoms returns the required stake in atoms.
func RequiredStakeAtoms() *big.Int {
	atoms := new(big.Int).SetInt64(utils.AtomsPerToken)
	return atoms.Mul(atoms, big.NewInt(RequiredStakeTokens))
}

// StakingManager drives a voter through the staking lifecycle. Transitions
// follow confirm-then-reflect: local state never claims Staked until the
// chain says so, and an unconfirmed submission parks the machine in the
// submitted state until ReconcileVoter resolves it against the voter record.
type StakingManager struct {
	gateway *ContractGateway
	clock   clock.Clock

	mu      sync.Mutex
	machine fsm.FSM
	address string
	voter   *Voter

	onChange func(StakingState)
}

func NewStakingManager(gateway *ContractGateway, clk clock.Clock, address string,
	onChange func(StakingState)) (*StakingManager, error) {

	machine, err := fsm.NewBuilder().
		AddInitialState(sUnstaked).
		AddStates(sStaking, sStaked, sUnstaking).
		AddTransition(sUnstaked, eStakeSubmit, pass(sStaking), []fsm.State{sStaking}).
		AddTransition(sUnstaked, eVoterStaked, pass(sStaked), []fsm.State{sStaked}).
		AddTransition(sUnstaked, eVoterUnstaked, pass(sUnstaked), []fsm.State{sUnstaked}).
		AddTransition(sStaking, eStakeConfirmed, pass(sStaked), []fsm.State{sStaked}).
		AddTransition(sStaking, eStakeFailed, pass(sUnstaked), []fsm.State{sUnstaked}).
		AddTransition(sStaking, eVoterStaked, pass(sStaked), []fsm.State{sStaked}).
		AddTransition(sStaked, eUnstakeSubmit, pass(sUnstaking), []fsm.State{sUnstaking}).
		AddTransition(sStaked, eVoterStaked, pass(sStaked), []fsm.State{sStaked}).
		AddTransition(sStaked, eVoterUnstaked, pass(sUnstaked), []fsm.State{sUnstaked}).
		AddTransition(sUnstaking, eUnstakeConfirm, pass(sUnstaked), []fsm.State{sUnstaked}).
		AddTransition(sUnstaking, eUnstakeFailed, pass(sStaked), []fsm.State{sStaked}).
		AddTransition(sUnstaking, eVoterUnstaked, pass(sUnstaked), []fsm.State{sUnstaked}).
		Build()
	if err != nil {
		return nil, err
	}

	return &StakingManager{
		gateway:  gateway,
		clock:    clk,
		machine:  machine,
		address:  address,
		onChange: onChange,
	}, nil
}

func pass(dst fsm.State) fsm.Transition {
	return func(fsm.Event) (fsm.State, error) { return dst, nil }
}

// State returns the current lifecycle position.
func (m *StakingManager) State() StakingState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return StakingState(m.machine.CurrentState())
}

// Voter returns the last reconciled voter record, nil before the first
// reconcile.
func (m *StakingManager) Voter() *Voter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voter
}

// handle feeds an event to the machine under the mutex so a reconcile and a
// submission cannot interleave transitions. onChange fires outside the lock.
func (m *StakingManager) handle(et fsm.EventType) error {
	m.mu.Lock()
	prev := m.machine.CurrentState()
	if err := m.machine.Handle(&stakingEvent{eventType: et}); err != nil {
		m.mu.Unlock()
		return err
	}
	cur := m.machine.CurrentState()
	m.mu.Unlock()

	if cur != prev {
		log.Debugf("staking state %s -> %s (%s)", prev, cur, et)
		if m.onChange != nil {
			m.onChange(StakingState(cur))
		}
	}
	return nil
}

// CanStake checks the staking preflight: the voter must not already hold or
// be acquiring a stake, and the wallet balance must cover the required
// amount. Runs no transaction calls; the balance read is the only network
// touch.
func (m *StakingManager) CanStake(ctx context.Context) error {
	switch m.State() {
	case StakingStaked:
		return notice(ErrAlreadyStaked, "vote power is already staked")
	case StakingSubmitted, StakingUnstaking:
		return notice(ErrStakeInProgress, "a staking transaction is in flight")
	}

	balance, err := m.gateway.TokenBalance(ctx, m.address)
	if err != nil {
		return err
	}
	required := RequiredStakeAtoms()
	if balance.Cmp(required) < 0 {
		shortfall := new(big.Int).Sub(required, balance)
		return notice(ErrInsufficientBalance, "balance is short %s of the required %s",
			utils.FormatTokenAmount(shortfall.Int64()), utils.FormatTokenAmount(required.Int64()))
	}
	return nil
}

// Stake submits the staking transaction group and waits for confirmation.
// On an unconfirmed timeout the machine stays in the submitted state; the
// caller resolves it later through ReconcileVoter rather than resubmitting.
func (m *StakingManager) Stake(ctx context.Context) (string, error) {
	if err := m.CanStake(ctx); err != nil {
		return "", err
	}
	if err := m.handle(eStakeSubmit); err != nil {
		return "", notice(ErrStakeInProgress, "staking already in flight")
	}

	unlockAt := m.clock.Now().Unix() + DefaultLockupSeconds
	txID, err := m.gateway.LockPower(ctx, m.address, RequiredStakeAtoms(), unlockAt)
	if err != nil {
		if IsError(err, ErrUnconfirmed) {
			return txID, err
		}
		if ferr := m.handle(eStakeFailed); ferr != nil {
			log.Errorf("staking rollback failed: %v", ferr)
		}
		return "", err
	}

	if err := m.handle(eStakeConfirmed); err != nil {
		log.Errorf("staking confirm transition failed: %v", err)
	}
	return txID, nil
}

// Unstake releases a matured power lock. The lock must have passed its
// unlock timestamp.
func (m *StakingManager) Unstake(ctx context.Context, lock *PowerLock) (string, error) {
	if m.State() != StakingStaked {
		return "", notice(ErrNotStaked, "no active stake to release")
	}
	if !lock.Unlockable(m.clock.Now().Unix()) {
		return "", notice(ErrLockNotMatured, "lock matures at %s",
			utils.FormatUTCTime(lock.UnlockTimestamp))
	}
	if err := m.handle(eUnstakeSubmit); err != nil {
		return "", notice(ErrStakeInProgress, "an unstaking transaction is in flight")
	}

	txID, err := m.gateway.UnlockPower(ctx, lock.SourceID, lock.UnlockTimestamp)
	if err != nil {
		if IsError(err, ErrUnconfirmed) {
			return txID, err
		}
		if ferr := m.handle(eUnstakeFailed); ferr != nil {
			log.Errorf("unstaking rollback failed: %v", ferr)
		}
		return "", err
	}

	if err := m.handle(eUnstakeConfirm); err != nil {
		log.Errorf("unstaking confirm transition failed: %v", err)
	}
	return txID, nil
}

// ReconcileVoter fetches the on-chain voter record and drives the machine to
// match it. The chain is authoritative: a submitted stake that landed moves
// to Staked, one that never landed falls back to Unstaked.
func (m *StakingManager) ReconcileVoter(ctx context.Context) (*Voter, error) {
	voter, err := m.gateway.VoterRecord(ctx, m.address)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.voter = voter
	m.mu.Unlock()

	et := eVoterUnstaked
	if voter != nil && voter.Staked() {
		et = eVoterStaked
	}
	if err := m.handle(et); err != nil {
		// A reconcile event racing a submission is benign; the next
		// reconcile settles it.
		log.Debugf("voter reconcile transition skipped: %v", err)
	}
	return voter, nil
}
