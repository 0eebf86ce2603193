package voilibgov

import (
	"context"
	"fmt"
	"math/big"
	"sync"
)

// The fakes below stand in for the chain capabilities. They record every
// invocation so tests can assert that preflight failures perform zero
// transaction work.

type fakeCaller struct {
	mu      sync.Mutex
	calls   []CallOptions
	handler func(opts CallOptions) (*CallResult, error)
}

func (f *fakeCaller) Call(_ context.Context, opts CallOptions) (*CallResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	if f.handler != nil {
		return f.handler(opts)
	}
	return &CallResult{Success: true}, nil
}

func (f *fakeCaller) ApplicationAddress(appID uint64) string {
	return fmt.Sprintf("APP%d", appID)
}

func (f *fakeCaller) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

type fakeSigner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSigner) SignTransactions(_ context.Context, txns [][]byte) ([][]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return txns, nil
}

type fakeBroadcaster struct {
	mu         sync.Mutex
	broadcasts int
	txID       string
	sendErr    error
	confirmErr error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, _ [][]byte) (string, error) {
	f.mu.Lock()
	f.broadcasts++
	f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	if f.txID == "" {
		return "TX1", nil
	}
	return f.txID, nil
}

func (f *fakeBroadcaster) WaitForConfirmation(_ context.Context, _ string) error {
	return f.confirmErr
}

type fakeEvents struct {
	created  [][]interface{}
	unlocked [][]interface{}
	err      error
}

func (f *fakeEvents) FetchEvents(_ context.Context, _ uint64, eventName string) ([][]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	if eventName == eventPowerLockCreated {
		return f.created, nil
	}
	return f.unlocked, nil
}

type fakeAccounts struct {
	mu      sync.Mutex
	calls   int
	balance *big.Int
	err     error
}

func (f *fakeAccounts) TokenBalance(_ context.Context, _ uint64, _ string) (*big.Int, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.balance), nil
}

type testCapabilities struct {
	caller      *fakeCaller
	signer      *fakeSigner
	broadcaster *fakeBroadcaster
	events      *fakeEvents
	accounts    *fakeAccounts
}

func newTestCapabilities() *testCapabilities {
	return &testCapabilities{
		caller:      &fakeCaller{},
		signer:      &fakeSigner{},
		broadcaster: &fakeBroadcaster{},
		events:      &fakeEvents{},
		accounts:    &fakeAccounts{balance: big.NewInt(0)},
	}
}

func (tc *testCapabilities) gateway() *ContractGateway {
	return NewContractGateway(tc.caller, tc.signer, tc.broadcaster, tc.events,
		tc.accounts, 2887, 2889)
}

// transactionCalls is the number of sign or broadcast attempts, the work a
// failed preflight must never perform.
func (tc *testCapabilities) transactionCalls() int {
	tc.signer.mu.Lock()
	signs := tc.signer.calls
	tc.signer.mu.Unlock()
	tc.broadcaster.mu.Lock()
	sends := tc.broadcaster.broadcasts
	tc.broadcaster.mu.Unlock()
	return signs + sends
}

func tokensToAtoms(tokens int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(tokens), big.NewInt(1e6))
}
