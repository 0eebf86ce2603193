package utils

import "strings"

// Params describes a supported network: its name and the application ids of
// the deployed governance and token contracts. The table is static; app ids
// are assigned at contract deployment and versioned outside this repository.
type Params struct {
	Name            string
	GovernanceAppID uint64
	TokenAppID      uint64
}

var (
	localnetParams = Params{
		Name:            "localnet",
		GovernanceAppID: 2887,
		TokenAppID:      2889,
	}

	testnetParams = Params{
		Name:            "testnet",
		GovernanceAppID: 746692137,
		TokenAppID:      746694492,
	}

	mainnetParams = Params{
		Name:            "mainnet",
		GovernanceAppID: 46023374,
		TokenAppID:      46023346,
	}
)

// NetParams returns the parameters for the named network, or nil if the
// network is not supported.
func NetParams(netType string) *Params {
	switch strings.ToLower(netType) {
	case localnetParams.Name:
		p := localnetParams
		return &p
	case testnetParams.Name:
		p := testnetParams
		return &p
	case mainnetParams.Name:
		p := mainnetParams
		return &p
	default:
		return nil
	}
}
