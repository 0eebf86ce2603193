package voilibgov_test

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/voinetwork/voilibgov"
	"github.com/voinetwork/voilibgov/namehash"
)

var (
	rootDir     = filepath.Join(os.TempDir(), "voilibgov_test")
	governance  *Governance
	testAddress string
)

// suiteChain is a stand-in chain client: every box read reports a missing
// record and every write produces an unsigned transaction group.
type suiteChain struct{}

func (suiteChain) Call(_ context.Context, opts CallOptions) (*CallResult, error) {
	if opts.Fee == 0 {
		return &CallResult{Success: false, Error: "box not found"}, nil
	}
	return &CallResult{Success: true, Txns: [][]byte{{1}}}, nil
}

func (suiteChain) ApplicationAddress(uint64) string { return "SUITEAPPADDRESS" }

func (suiteChain) SignTransactions(_ context.Context, txns [][]byte) ([][]byte, error) {
	return txns, nil
}

func (suiteChain) Broadcast(context.Context, [][]byte) (string, error) { return "SUITETX", nil }

func (suiteChain) WaitForConfirmation(context.Context, string) error { return nil }

func (suiteChain) FetchEvents(context.Context, uint64, string) ([][]interface{}, error) {
	return nil, nil
}

func (suiteChain) TokenBalance(context.Context, uint64, string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func TestVoilibgov(t *testing.T) {

	BeforeSuite(func() {
		os.RemoveAll(rootDir)

		chain := suiteChain{}
		var err error
		governance, err = NewGovernance(rootDir, "localnet", chain, chain, chain, chain, chain)
		Expect(err).To(BeNil())
		Expect(governance).ToNot(BeNil())

		testAddress, err = namehash.EncodeAddress(bytes.Repeat([]byte{7}, 32))
		Expect(err).To(BeNil())
	})

	AfterSuite(func() {
		if governance != nil {
			governance.Shutdown()
		}
		os.RemoveAll(rootDir)
	})

	RegisterFailHandler(Fail)
	RunSpecs(t, "Voilibgov Suite")
}
