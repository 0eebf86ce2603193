package voilibgov

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// countdownInterval is how often the live unlock countdown is recomputed.
const countdownInterval = 60 * time.Second

// Countdown is the time remaining until the next lock matures, decomposed
// for display. Zero UnlockTimestamp means no future maturity exists.
type Countdown struct {
	Days            int
	Hours           int
	Minutes         int
	UnlockTimestamp int64
}

// PowerLockSummary is the derived view of a voter's lock position.
type PowerLockSummary struct {
	ActiveLocks         []*PowerLock
	TotalLocked         *big.Int
	TotalPower          *big.Int
	NextUnlockTimestamp int64
}

// PowerLockTracker derives a voter's lock position from the contract's two
// chronological event streams. A created lock stays active until an
// unlocked event for the same source id arrives at the same or a later
// round; the streams, not any locally set flag, are the source of truth.
type PowerLockTracker struct {
	gateway *ContractGateway
	clock   clock.Clock

	mu       sync.RWMutex
	owner    string
	created  []*PowerLockCreatedEvent
	unlocked []*PowerLockUnlockedEvent
	fetched  bool

	onSummary   func(*PowerLockSummary)
	onCountdown func(*Countdown)

	tickerQuit chan struct{}
}

func NewPowerLockTracker(gateway *ContractGateway, clk clock.Clock,
	onSummary func(*PowerLockSummary), onCountdown func(*Countdown)) *PowerLockTracker {

	return &PowerLockTracker{
		gateway:     gateway,
		clock:       clk,
		onSummary:   onSummary,
		onCountdown: onCountdown,
	}
}

// SetOwner binds the tracker to a wallet address and drops event state from
// a previous address.
func (t *PowerLockTracker) SetOwner(address string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owner == address {
		return
	}
	t.owner = address
	t.created = nil
	t.unlocked = nil
	t.fetched = false
}

// Refresh re-reads the full event history and publishes the derived
// summary.
func (t *PowerLockTracker) Refresh(ctx context.Context) (*PowerLockSummary, error) {
	created, unlocked, err := t.gateway.PowerLockEvents(ctx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	owner := t.owner
	t.created = t.created[:0]
	for _, ev := range created {
		if owner == "" || ev.Lock.Owner == owner {
			t.created = append(t.created, ev)
		}
	}
	t.unlocked = unlocked
	t.fetched = true
	t.mu.Unlock()

	summary := t.Summary()
	log.Debugf("power locks refreshed: %d active", len(summary.ActiveLocks))
	if t.onSummary != nil {
		t.onSummary(summary)
	}
	return summary, nil
}

// HasEventData reports whether at least one refresh has completed. Before
// that, eligibility checks must not trust the empty lock set.
func (t *PowerLockTracker) HasEventData() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fetched
}

// ActiveLocks returns the locks with no matching unlocked event at the same
// or a later round, in creation order.
func (t *PowerLockTracker) ActiveLocks() []*PowerLock {
	t.mu.RLock()
	defer t.mu.RUnlock()

	active := make([]*PowerLock, 0, len(t.created))
	for _, ev := range t.created {
		retired := false
		for _, un := range t.unlocked {
			if un.SourceID == ev.Lock.SourceID && un.Round >= ev.Round {
				retired = true
				break
			}
		}
		if !retired {
			lock := ev.Lock
			active = append(active, &lock)
		}
	}
	return active
}

// Summary derives the aggregate lock position.
func (t *PowerLockTracker) Summary() *PowerLockSummary {
	active := t.ActiveLocks()
	totalLocked := new(big.Int)
	totalPower := new(big.Int)
	for _, lock := range active {
		if lock.Amount != nil {
			totalLocked.Add(totalLocked, lock.Amount)
		}
		if lock.PowerGranted != nil {
			totalPower.Add(totalPower, lock.PowerGranted)
		}
	}
	return &PowerLockSummary{
		ActiveLocks:         active,
		TotalLocked:         totalLocked,
		TotalPower:          totalPower,
		NextUnlockTimestamp: t.NextUnlockTimestamp(),
	}
}

// NextUnlockTimestamp is the earliest future maturity among active locks.
// Zero means none: either there are no locks, or the earliest is already
// unlockable.
func (t *PowerLockTracker) NextUnlockTimestamp() int64 {
	now := t.clock.Now().Unix()
	var next int64
	for _, lock := range t.ActiveLocks() {
		if lock.UnlockTimestamp <= now {
			continue
		}
		if next == 0 || lock.UnlockTimestamp < next {
			next = lock.UnlockTimestamp
		}
	}
	return next
}

// UnlockableLocks returns the active locks that have passed maturity.
func (t *PowerLockTracker) UnlockableLocks() []*PowerLock {
	now := t.clock.Now().Unix()
	var matured []*PowerLock
	for _, lock := range t.ActiveLocks() {
		if lock.Unlockable(now) {
			matured = append(matured, lock)
		}
	}
	return matured
}

// SoleActiveLock returns the single active lock, erroring when there are
// none or more than one. Batch unlock of multiple locks is not supported
// yet; TODO(unlock): lift this once unlock_power accepts a source id list.
func (t *PowerLockTracker) SoleActiveLock() (*PowerLock, error) {
	active := t.ActiveLocks()
	switch len(active) {
	case 0:
		return nil, notice(ErrNothingToUnlock, "no active power locks")
	case 1:
		return active[0], nil
	default:
		return nil, notice(ErrAmbiguousLocks, "%d active locks, unlock them individually", len(active))
	}
}

// CurrentCountdown decomposes the delta to the next maturity into days,
// hours and minutes.
func (t *PowerLockTracker) CurrentCountdown() *Countdown {
	next := t.NextUnlockTimestamp()
	if next == 0 {
		return &Countdown{}
	}
	delta := next - t.clock.Now().Unix()
	return &Countdown{
		Days:            int(delta / 86400),
		Hours:           int(delta % 86400 / 3600),
		Minutes:         int(delta % 3600 / 60),
		UnlockTimestamp: next,
	}
}

// StartCountdown begins republishing the countdown on a fixed interval. The
// countdown is live; computing it once at refresh time would freeze the
// display.
func (t *PowerLockTracker) StartCountdown() {
	t.mu.Lock()
	if t.tickerQuit != nil {
		t.mu.Unlock()
		return
	}
	quit := make(chan struct{})
	t.tickerQuit = quit
	t.mu.Unlock()

	go func() {
		ticker := t.clock.Ticker(countdownInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if t.onCountdown != nil {
					t.onCountdown(t.CurrentCountdown())
				}
			case <-quit:
				return
			}
		}
	}()
}

// StopCountdown halts the countdown loop.
func (t *PowerLockTracker) StopCountdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tickerQuit != nil {
		close(t.tickerQuit)
		t.tickerQuit = nil
	}
}
