package voilibgov

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
)

func createdEvent(round, sourceID uint64, amount int64, unlockTS int64, owner string) []interface{} {
	return []interface{}{
		"CREATETX", round, int64(100),
		[]interface{}{
			sourceID,
			uint64(amount),
			unlockTS,
			owner,
			uint64(amount * 2),
			int64(DefaultLockupSeconds),
			uint64(1),
		},
	}
}

func unlockedEvent(round, sourceID uint64, unlockTS int64) []interface{} {
	return []interface{}{"UNLOCKTX", round, int64(200), sourceID, unlockTS}
}

type trackerFixture struct {
	caps    *testCapabilities
	mock    *clock.Mock
	tracker *PowerLockTracker

	summaries  []*PowerLockSummary
	countdowns chan *Countdown
}

func newTrackerFixture(t *testing.T) *trackerFixture {
	t.Helper()
	f := &trackerFixture{
		caps:       newTestCapabilities(),
		mock:       clock.NewMock(),
		countdowns: make(chan *Countdown, 8),
	}
	f.tracker = NewPowerLockTracker(f.caps.gateway(), f.mock,
		func(s *PowerLockSummary) { f.summaries = append(f.summaries, s) },
		func(c *Countdown) { f.countdowns <- c })
	f.tracker.SetOwner("OWNER")
	return f
}

func (f *trackerFixture) refresh(t *testing.T) *PowerLockSummary {
	t.Helper()
	summary, err := f.tracker.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

func TestUnlockRetiresLock(t *testing.T) {
	f := newTrackerFixture(t)
	f.caps.events.created = [][]interface{}{
		createdEvent(10, 1, 5_000, 1_000, "OWNER"),
		createdEvent(20, 2, 7_000, 2_000, "OWNER"),
	}

	summary := f.refresh(t)
	if len(summary.ActiveLocks) != 2 {
		t.Fatalf("active = %d, want 2", len(summary.ActiveLocks))
	}
	if summary.TotalLocked.Int64() != 12_000 || summary.TotalPower.Int64() != 24_000 {
		t.Fatalf("totals = %s locked, %s power", summary.TotalLocked, summary.TotalPower)
	}
	if got := f.tracker.NextUnlockTimestamp(); got != 1_000 {
		t.Fatalf("next unlock = %d, want the earlier maturity", got)
	}

	// An unlocked event at a later round retires the first lock; the
	// countdown moves to the remaining one.
	f.caps.events.unlocked = [][]interface{}{unlockedEvent(30, 1, 1_000)}
	summary = f.refresh(t)
	if len(summary.ActiveLocks) != 1 || summary.ActiveLocks[0].SourceID != 2 {
		t.Fatalf("active = %+v", summary.ActiveLocks)
	}
	if got := f.tracker.NextUnlockTimestamp(); got != 2_000 {
		t.Fatalf("next unlock = %d, want 2000", got)
	}
	if len(f.summaries) != 2 {
		t.Fatalf("summary listener fired %d times", len(f.summaries))
	}
}

func TestUnlockBeforeCreationRoundIsIgnored(t *testing.T) {
	f := newTrackerFixture(t)
	f.caps.events.created = [][]interface{}{createdEvent(50, 1, 5_000, 1_000, "OWNER")}
	f.caps.events.unlocked = [][]interface{}{unlockedEvent(40, 1, 1_000)}

	summary := f.refresh(t)
	if len(summary.ActiveLocks) != 1 {
		t.Fatal("an unlock recorded before the lock's creation round must not retire it")
	}
}

func TestRefreshFiltersByOwner(t *testing.T) {
	f := newTrackerFixture(t)
	f.caps.events.created = [][]interface{}{
		createdEvent(10, 1, 5_000, 1_000, "OWNER"),
		createdEvent(11, 2, 9_000, 1_500, "SOMEONEELSE"),
	}

	summary := f.refresh(t)
	if len(summary.ActiveLocks) != 1 || summary.ActiveLocks[0].Owner != "OWNER" {
		t.Fatalf("active = %+v", summary.ActiveLocks)
	}
}

func TestHasEventData(t *testing.T) {
	f := newTrackerFixture(t)
	if f.tracker.HasEventData() {
		t.Fatal("tracker must not claim event data before the first refresh")
	}
	f.refresh(t)
	if !f.tracker.HasEventData() {
		t.Fatal("tracker must report event data after a refresh")
	}
	// Switching owners invalidates the fetched history.
	f.tracker.SetOwner("OTHER")
	if f.tracker.HasEventData() {
		t.Fatal("an owner switch must drop the previous owner's event data")
	}
}

func TestSoleActiveLock(t *testing.T) {
	f := newTrackerFixture(t)

	f.refresh(t)
	if _, err := f.tracker.SoleActiveLock(); !IsError(err, ErrNothingToUnlock) {
		t.Fatalf("err = %v, want %s", err, ErrNothingToUnlock)
	}

	f.caps.events.created = [][]interface{}{createdEvent(10, 1, 5_000, 1_000, "OWNER")}
	f.refresh(t)
	lock, err := f.tracker.SoleActiveLock()
	if err != nil {
		t.Fatal(err)
	}
	if lock.SourceID != 1 {
		t.Fatalf("lock = %+v", lock)
	}

	f.caps.events.created = append(f.caps.events.created,
		createdEvent(20, 2, 7_000, 2_000, "OWNER"))
	f.refresh(t)
	if _, err := f.tracker.SoleActiveLock(); !IsError(err, ErrAmbiguousLocks) {
		t.Fatalf("err = %v, want %s", err, ErrAmbiguousLocks)
	}
}

func TestNextUnlockSkipsMatured(t *testing.T) {
	f := newTrackerFixture(t)
	f.mock.Add(1_500 * time.Second) // now = 1500
	f.caps.events.created = [][]interface{}{
		createdEvent(10, 1, 5_000, 1_000, "OWNER"), // already matured
		createdEvent(20, 2, 7_000, 2_000, "OWNER"),
	}
	f.refresh(t)

	if got := f.tracker.NextUnlockTimestamp(); got != 2_000 {
		t.Fatalf("next unlock = %d, matured locks must not count", got)
	}
	matured := f.tracker.UnlockableLocks()
	if len(matured) != 1 || matured[0].SourceID != 1 {
		t.Fatalf("unlockable = %+v", matured)
	}
}

func TestCurrentCountdown(t *testing.T) {
	f := newTrackerFixture(t)

	// 2 days, 3 hours, 4 minutes out.
	unlockTS := int64(2*86400 + 3*3600 + 4*60)
	f.caps.events.created = [][]interface{}{createdEvent(10, 1, 5_000, unlockTS, "OWNER")}
	f.refresh(t)

	c := f.tracker.CurrentCountdown()
	if c.Days != 2 || c.Hours != 3 || c.Minutes != 4 {
		t.Fatalf("countdown = %+v", c)
	}
	if c.UnlockTimestamp != unlockTS {
		t.Fatalf("countdown target = %d", c.UnlockTimestamp)
	}

	// Past maturity there is nothing to count down to.
	f.mock.Add(time.Duration(unlockTS+1) * time.Second)
	c = f.tracker.CurrentCountdown()
	if c.UnlockTimestamp != 0 {
		t.Fatalf("countdown = %+v after maturity", c)
	}
}

func TestCountdownTicker(t *testing.T) {
	f := newTrackerFixture(t)
	f.caps.events.created = [][]interface{}{createdEvent(10, 1, 5_000, 10_000, "OWNER")}
	f.refresh(t)

	f.tracker.StartCountdown()
	defer f.tracker.StopCountdown()

	// Let the loop reach the ticker before advancing the mock clock.
	time.Sleep(10 * time.Millisecond)
	f.mock.Add(countdownInterval)

	select {
	case c := <-f.countdowns:
		if c.UnlockTimestamp != 10_000 {
			t.Fatalf("countdown = %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no countdown published after a full interval")
	}
}
