package voilibgov_test

import (
	"math/big"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/voinetwork/voilibgov"
)

type recordingListener struct {
	voters []*Voter
}

func (l *recordingListener) OnVoterUpdated(voter *Voter) {
	l.voters = append(l.voters, voter)
}
func (l *recordingListener) OnElectionUpdated(*Election)              {}
func (l *recordingListener) OnEndorsementCountsUpdated(map[int]int64) {}
func (l *recordingListener) OnPowerLocksUpdated(*PowerLockSummary)    {}
func (l *recordingListener) OnCountdown(*Countdown)                   {}
func (l *recordingListener) OnVotesSubmitted([]int, string, bool)     {}
func (l *recordingListener) OnStakingChanged(StakingState)            {}

var _ GovernanceNotificationListener = (*recordingListener)(nil)

var _ = Describe("Governance", func() {

	Describe("NewGovernance", func() {
		It("rejects an unsupported network type", func() {
			_, err := NewGovernance(rootDir, "betanet", suiteChain{}, suiteChain{},
				suiteChain{}, suiteChain{}, suiteChain{})
			Expect(IsError(err, ErrUnsupportedNetwork)).To(BeTrue())
		})

		It("reports the active network", func() {
			Expect(governance.NetType()).To(Equal("localnet"))
		})
	})

	Describe("ConnectWallet", func() {
		AfterEach(func() {
			governance.DisconnectWallet()
		})

		It("rejects a malformed address", func() {
			err := governance.ConnectWallet("not-an-address")
			Expect(IsError(err, ErrNotConnected)).To(BeTrue())
			Expect(governance.ConnectedAddress()).To(BeEmpty())
			Expect(governance.Session()).To(BeNil())
		})

		It("builds the address-scoped managers", func() {
			Expect(governance.ConnectWallet(testAddress)).To(Succeed())
			Expect(governance.ConnectedAddress()).To(Equal(testAddress))
			Expect(governance.Session()).ToNot(BeNil())
			Expect(governance.Staking()).ToNot(BeNil())
			Expect(governance.Staking().State()).To(Equal(StakingUnstaked))
		})

		It("drops them again on disconnect", func() {
			Expect(governance.ConnectWallet(testAddress)).To(Succeed())
			governance.DisconnectWallet()
			Expect(governance.ConnectedAddress()).To(BeEmpty())
			Expect(governance.Session()).To(BeNil())
			Expect(governance.Staking()).To(BeNil())
		})
	})

	Describe("TokenBalance", func() {
		It("requires a connected wallet", func() {
			_, err := governance.TokenBalance()
			Expect(IsError(err, ErrNotConnected)).To(BeTrue())
		})

		It("reports the shortfall against the stake requirement", func() {
			Expect(governance.ConnectWallet(testAddress)).To(Succeed())
			defer governance.DisconnectWallet()

			balance, err := governance.TokenBalance()
			Expect(err).To(BeNil())
			Expect(balance.Sign()).To(Equal(0))

			shortfall, err := governance.StakeShortfall()
			Expect(err).To(BeNil())
			Expect(shortfall.Cmp(RequiredStakeAtoms())).To(Equal(0))

			formatted, err := governance.FormattedTokenBalance()
			Expect(err).To(BeNil())
			Expect(formatted).To(Equal("0 VOI"))
		})
	})

	Describe("user config", func() {
		It("round-trips typed values", func() {
			governance.SetBoolConfigValueForKey(HideStakingPromptConfigKey, true)
			governance.SetLongConfigValueForKey(LastSyncTimestampConfigKey, 1234567)
			governance.SetStringConfigValueForKey(LastTxHashConfigKey, "SUITETX")

			Expect(governance.ReadBoolConfigValueForKey(HideStakingPromptConfigKey, false)).To(BeTrue())
			Expect(governance.ReadLongConfigValueForKey(LastSyncTimestampConfigKey, 0)).To(Equal(int64(1234567)))
			Expect(governance.ReadStringConfigValueForKey(LastTxHashConfigKey)).To(Equal("SUITETX"))
		})

		It("falls back to the default for unset keys", func() {
			Expect(governance.ReadBoolConfigValueForKey("unset-key", true)).To(BeTrue())
			Expect(governance.ReadLongConfigValueForKey("unset-key", 42)).To(Equal(int64(42)))
			Expect(governance.ReadStringConfigValueForKey("unset-key")).To(BeEmpty())
		})

		It("deletes values", func() {
			governance.SetStringConfigValueForKey(LastTxHashConfigKey, "SUITETX")
			governance.DeleteUserConfigValueForKey(LastTxHashConfigKey)
			Expect(governance.ReadStringConfigValueForKey(LastTxHashConfigKey)).To(BeEmpty())
		})
	})

	Describe("notification listeners", func() {
		It("rejects duplicate identifiers", func() {
			listener := &recordingListener{}
			Expect(governance.AddNotificationListener(listener, "suite")).To(Succeed())
			defer governance.RemoveNotificationListener("suite")

			err := governance.AddNotificationListener(listener, "suite")
			Expect(IsError(err, ErrListenerAlreadyExist)).To(BeTrue())
		})

		It("registers again after removal", func() {
			listener := &recordingListener{}
			Expect(governance.AddNotificationListener(listener, "suite")).To(Succeed())
			governance.RemoveNotificationListener("suite")
			Expect(governance.AddNotificationListener(listener, "suite")).To(Succeed())
			governance.RemoveNotificationListener("suite")
		})
	})

	Describe("election config", func() {
		It("rejects an unreadable roster", func() {
			err := governance.LoadElectionConfig([]byte("no json here"))
			Expect(IsError(err, ErrDecode)).To(BeTrue())
		})
	})
})

var _ = Describe("RequiredStakeAtoms", func() {
	It("is the token requirement in atomic units", func() {
		want := new(big.Int).Mul(big.NewInt(RequiredStakeTokens), big.NewInt(1e6))
		Expect(RequiredStakeAtoms().Cmp(want)).To(Equal(0))
	})
})
