package voilibgov

import (
	"math/big"

	"github.com/voinetwork/voilibgov/utils"
)

// TokenBalance reads the connected wallet's governance token balance in
// atoms.
func (g *Governance) TokenBalance() (*big.Int, error) {
	address := g.ConnectedAddress()
	if address == "" {
		return nil, notice(ErrNotConnected, "connect a wallet to read a balance")
	}
	ctx, cancel := g.contextWithShutdownCancel()
	defer cancel()
	return g.gateway.TokenBalance(ctx, address)
}

// FormattedTokenBalance renders the balance for display.
func (g *Governance) FormattedTokenBalance() (string, error) {
	balance, err := g.TokenBalance()
	if err != nil {
		return "", err
	}
	return utils.FormatTokenAmount(balance.Int64()), nil
}

// StakeShortfall returns how many atoms short of the required stake the
// connected wallet is, zero when the balance suffices.
func (g *Governance) StakeShortfall() (*big.Int, error) {
	balance, err := g.TokenBalance()
	if err != nil {
		return nil, err
	}
	required := RequiredStakeAtoms()
	if balance.Cmp(required) >= 0 {
		return big.NewInt(0), nil
	}
	return new(big.Int).Sub(required, balance), nil
}
