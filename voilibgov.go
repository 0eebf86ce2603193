package voilibgov

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/asdine/storm"
	"github.com/facebookgo/clock"
	bolt "go.etcd.io/bbolt"

	"github.com/voinetwork/voilibgov/namehash"
	"github.com/voinetwork/voilibgov/utils"
)

const (
	logFileName      = "voilibgov.log"
	governanceDbName = "governance.db"
)

// Governance is the entry point of the library: it owns the database, the
// network parameters, the contract gateway and the per-concern managers,
// and fans chain updates out to registered listeners.
type Governance struct {
	rootDir   string
	db        *storm.DB
	activeNet *utils.Params
	clock     clock.Clock

	gateway   *ContractGateway
	elections *ElectionManager
	locks     *PowerLockTracker
	proposals *ProposalManager
	profiles  *ProfileDirectory

	// staking and session are bound to the connected wallet address and
	// exist only between ConnectWallet and DisconnectWallet.
	mu      sync.RWMutex
	address string
	staking *StakingManager
	session *VoteSession

	notificationListenersMu sync.RWMutex
	notificationListeners   map[string]GovernanceNotificationListener

	shuttingDown  chan bool
	cancelFuncsMu sync.Mutex
	cancelFuncs   []context.CancelFunc
}

// NewGovernance opens the governance database under rootDir for the given
// network and wires the chain capabilities into the managers. The caller
// owns the capability implementations; nothing here reaches for a global
// client.
func NewGovernance(rootDir, netType string, caller ContractCaller, signer TransactionSigner,
	broadcaster TransactionBroadcaster, events EventFetcher, accounts AccountReader) (*Governance, error) {

	activeNet := utils.NetParams(netType)
	if activeNet == nil {
		return nil, notice(ErrUnsupportedNetwork, "unsupported network type: %s", netType)
	}

	rootDir = filepath.Join(rootDir, netType)

	initLogRotator(filepath.Join(rootDir, logFileName))

	db, err := storm.Open(filepath.Join(rootDir, governanceDbName))
	if err != nil {
		log.Errorf("Error opening governance database: %s", err.Error())
		if err == bolt.ErrTimeout {
			// timeout error occurs if storm fails to acquire a lock on the database file
			return nil, notice(ErrDatabaseInUse, "governance database is in use by another process")
		}
		return nil, fmt.Errorf("error opening governance database: %s", err.Error())
	}

	for _, record := range []interface{}{&Election{}, &Candidate{}, &Proposal{}} {
		if err = db.Init(record); err != nil {
			log.Errorf("Error initializing governance database: %s", err.Error())
			return nil, err
		}
	}

	clk := clock.New()
	gateway := NewContractGateway(caller, signer, broadcaster, events, accounts,
		activeNet.GovernanceAppID, activeNet.TokenAppID)

	g := &Governance{
		rootDir:               rootDir,
		db:                    db,
		activeNet:             activeNet,
		clock:                 clk,
		gateway:               gateway,
		proposals:             NewProposalManager(gateway, db, clk),
		profiles:              NewProfileDirectory(""),
		notificationListeners: make(map[string]GovernanceNotificationListener),
	}
	g.elections = NewElectionManager(gateway, db, clk)
	g.locks = NewPowerLockTracker(gateway, clk, g.publishPowerLocksUpdated, g.publishCountdown)

	g.listenForShutdown()

	log.Infof("Governance client ready on %s (app %d, token %d)",
		activeNet.Name, activeNet.GovernanceAppID, activeNet.TokenAppID)
	return g, nil
}

// Shutdown cancels outstanding operations and closes the database.
func (g *Governance) Shutdown() {
	log.Info("Shutting down governance client")

	// Trigger the shuttingDown signal to cancel all contexts created with
	// contextWithShutdownCancel.
	g.shuttingDown <- true

	g.locks.StopCountdown()

	if g.db != nil {
		if err := g.db.Close(); err != nil {
			log.Errorf("db closed with error: %v", err)
		} else {
			log.Info("db closed successfully")
		}
	}

	if logRotator != nil {
		log.Info("Shutting down log rotator")
		logRotator.Close()
	}
}

func (g *Governance) listenForShutdown() {
	g.cancelFuncs = make([]context.CancelFunc, 0)
	g.shuttingDown = make(chan bool)
	go func() {
		<-g.shuttingDown
		g.cancelFuncsMu.Lock()
		defer g.cancelFuncsMu.Unlock()
		for _, cancel := range g.cancelFuncs {
			cancel()
		}
	}()
}

func (g *Governance) contextWithShutdownCancel() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	g.cancelFuncsMu.Lock()
	g.cancelFuncs = append(g.cancelFuncs, cancel)
	g.cancelFuncsMu.Unlock()
	return ctx, cancel
}

func (g *Governance) shutdownContext() (ctx context.Context) {
	ctx, _ = g.contextWithShutdownCancel()
	return
}

// NetType returns the active network's name.
func (g *Governance) NetType() string {
	return g.activeNet.Name
}

// ConnectWallet binds the client to a wallet address and builds the
// address-scoped managers. The address must be a well-formed account
// address; ownership is proven later by the signer when a transaction is
// submitted.
func (g *Governance) ConnectWallet(address string) error {
	if !namehash.IsValidAddress(address) {
		return notice(ErrNotConnected, "malformed account address")
	}

	staking, err := NewStakingManager(g.gateway, g.clock, address, g.publishStakingChanged)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.address = address
	g.staking = staking
	g.session = NewVoteSession(g.gateway, g.elections, staking, g.onVotesSubmitted)
	g.session.SetAddress(address)
	g.mu.Unlock()

	g.locks.SetOwner(address)
	g.proposals.ClearVotes()
	g.locks.StartCountdown()

	log.Infof("Wallet connected: %s", address)
	return nil
}

// DisconnectWallet drops the address-scoped managers and their state.
func (g *Governance) DisconnectWallet() {
	g.mu.Lock()
	g.address = ""
	g.staking = nil
	g.session = nil
	g.mu.Unlock()

	g.locks.StopCountdown()
	g.locks.SetOwner("")
	g.proposals.ClearVotes()
	log.Info("Wallet disconnected")
}

// ConnectedAddress returns the bound wallet address, empty when none.
func (g *Governance) ConnectedAddress() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.address
}

// Elections returns the election manager.
func (g *Governance) Elections() *ElectionManager { return g.elections }

// PowerLocks returns the power-lock tracker.
func (g *Governance) PowerLocks() *PowerLockTracker { return g.locks }

// Proposals returns the yes/no proposal manager.
func (g *Governance) Proposals() *ProposalManager { return g.proposals }

// Session returns the vote session for the connected wallet, nil when
// disconnected.
func (g *Governance) Session() *VoteSession {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// Staking returns the staking manager for the connected wallet, nil when
// disconnected.
func (g *Governance) Staking() *StakingManager {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.staking
}

// LoadElectionConfig parses the roster, selects the working election and
// fetches candidate profiles in the background.
func (g *Governance) LoadElectionConfig(data []byte) error {
	if err := g.elections.LoadRoster(data); err != nil {
		return err
	}
	go g.profiles.AttachProfiles(g.shutdownContext(), g.elections.Candidates())
	return nil
}

// SyncGovernanceState re-reads everything the dashboard renders: the
// election record, the voter record, per-candidate endorsement counts and
// the power-lock event streams. Each result is published to listeners as it
// lands; one failing read does not abort the others.
func (g *Governance) SyncGovernanceState() {
	ctx := g.shutdownContext()

	if election, err := g.elections.RefreshElection(ctx); err != nil {
		log.Errorf("election refresh failed: %v", err)
	} else {
		g.publishElectionUpdated(election)
	}

	if _, err := g.elections.FetchEndorsementCounts(ctx); err != nil {
		log.Errorf("endorsement counts refresh failed: %v", err)
	} else {
		g.publishEndorsementCountsUpdated(g.elections.EndorsementCounts())
	}

	if _, err := g.locks.Refresh(ctx); err != nil {
		log.Errorf("power lock refresh failed: %v", err)
	}

	staking := g.Staking()
	if staking == nil {
		return
	}
	if voter, err := staking.ReconcileVoter(ctx); err != nil {
		log.Errorf("voter reconcile failed: %v", err)
	} else {
		g.publishVoterUpdated(voter)
	}
}

// CanStake runs the staking preflight for the connected wallet.
func (g *Governance) CanStake() error {
	staking := g.Staking()
	if staking == nil {
		return notice(ErrNotConnected, "connect a wallet to stake")
	}
	ctx, cancel := g.contextWithShutdownCancel()
	defer cancel()
	return staking.CanStake(ctx)
}

// Stake submits the staking group for the connected wallet.
func (g *Governance) Stake() (string, error) {
	staking := g.Staking()
	if staking == nil {
		return "", notice(ErrNotConnected, "connect a wallet to stake")
	}
	ctx, cancel := g.contextWithShutdownCancel()
	defer cancel()

	txID, err := staking.Stake(ctx)
	if err != nil {
		return txID, err
	}
	go g.SyncGovernanceState()
	return txID, nil
}

// CanUnstake checks whether an unlock can proceed right now: live event
// data, exactly one active lock, past maturity.
func (g *Governance) CanUnstake() error {
	staking := g.Staking()
	if staking == nil {
		return notice(ErrNotConnected, "connect a wallet to unstake")
	}
	if !g.locks.HasEventData() {
		return notice(ErrUnavailable, "power lock data not fetched yet")
	}
	lock, err := g.locks.SoleActiveLock()
	if err != nil {
		return err
	}
	if !lock.Unlockable(g.clock.Now().Unix()) {
		return notice(ErrLockNotMatured, "lock matures at %s",
			utils.FormatUTCTime(lock.UnlockTimestamp))
	}
	return nil
}

// Unstake releases the connected wallet's sole matured power lock.
func (g *Governance) Unstake() (string, error) {
	staking := g.Staking()
	if staking == nil {
		return "", notice(ErrNotConnected, "connect a wallet to unstake")
	}
	if err := g.CanUnstake(); err != nil {
		return "", err
	}
	lock, err := g.locks.SoleActiveLock()
	if err != nil {
		return "", err
	}

	ctx, cancel := g.contextWithShutdownCancel()
	defer cancel()
	txID, err := staking.Unstake(ctx, lock)
	if err != nil {
		return txID, err
	}
	// Vote power is gone with the stake, and the selection and confirmed
	// sets with it.
	if session := g.Session(); session != nil {
		session.Reset()
	}
	go g.SyncGovernanceState()
	return txID, nil
}

// onVotesSubmitted is the vote session's confirmation hook: publish the
// result and refresh everything the submission touched.
func (g *Governance) onVotesSubmitted(confirmedIDs []int, txID string, voteChange bool) {
	g.publishVotesSubmitted(confirmedIDs, txID, voteChange)
	go g.SyncGovernanceState()
}

// AddNotificationListener registers a listener under a unique identifier.
func (g *Governance) AddNotificationListener(listener GovernanceNotificationListener, uniqueIdentifier string) error {
	g.notificationListenersMu.Lock()
	defer g.notificationListenersMu.Unlock()

	if _, ok := g.notificationListeners[uniqueIdentifier]; ok {
		return notice(ErrListenerAlreadyExist, "listener %s already registered", uniqueIdentifier)
	}
	g.notificationListeners[uniqueIdentifier] = listener
	return nil
}

// RemoveNotificationListener unregisters a listener.
func (g *Governance) RemoveNotificationListener(uniqueIdentifier string) {
	g.notificationListenersMu.Lock()
	defer g.notificationListenersMu.Unlock()
	delete(g.notificationListeners, uniqueIdentifier)
}

func (g *Governance) publishVoterUpdated(voter *Voter) {
	g.notificationListenersMu.RLock()
	defer g.notificationListenersMu.RUnlock()
	for _, listener := range g.notificationListeners {
		listener.OnVoterUpdated(voter)
	}
}

func (g *Governance) publishElectionUpdated(election *Election) {
	g.notificationListenersMu.RLock()
	defer g.notificationListenersMu.RUnlock()
	for _, listener := range g.notificationListeners {
		listener.OnElectionUpdated(election)
	}
}

func (g *Governance) publishEndorsementCountsUpdated(counts map[int]int64) {
	g.notificationListenersMu.RLock()
	defer g.notificationListenersMu.RUnlock()
	for _, listener := range g.notificationListeners {
		listener.OnEndorsementCountsUpdated(counts)
	}
}

func (g *Governance) publishPowerLocksUpdated(summary *PowerLockSummary) {
	g.notificationListenersMu.RLock()
	defer g.notificationListenersMu.RUnlock()
	for _, listener := range g.notificationListeners {
		listener.OnPowerLocksUpdated(summary)
	}
}

func (g *Governance) publishCountdown(countdown *Countdown) {
	g.notificationListenersMu.RLock()
	defer g.notificationListenersMu.RUnlock()
	for _, listener := range g.notificationListeners {
		listener.OnCountdown(countdown)
	}
}

func (g *Governance) publishVotesSubmitted(confirmedIDs []int, txID string, voteChange bool) {
	g.notificationListenersMu.RLock()
	defer g.notificationListenersMu.RUnlock()
	for _, listener := range g.notificationListeners {
		listener.OnVotesSubmitted(confirmedIDs, txID, voteChange)
	}
}

func (g *Governance) publishStakingChanged(state StakingState) {
	g.notificationListenersMu.RLock()
	defer g.notificationListenersMu.RUnlock()
	for _, listener := range g.notificationListeners {
		listener.OnStakingChanged(state)
	}
}
