package chain

import (
	"fmt"
	"strings"

	"github.com/Mantelijo/multichain-wallet/internal/c32"
	"github.com/Mantelijo/multichain-wallet/internal/wallet"
)

const stacksExplorerURL = "https://explorer.hiro.so"

// StacksNetwork describes a Stacks network and the public API serving it.
type StacksNetwork struct {
	Name           string
	CoreAPIURL     string
	ChainID        uint32
	AddressVersion byte
	// ZeroAddress is used as sender of read-only calls made without a
	// session.
	ZeroAddress string
}

var (
	StacksMainnet = StacksNetwork{
		Name:           "mainnet",
		CoreAPIURL:     "https://api.mainnet.hiro.so",
		ChainID:        0x00000001,
		AddressVersion: c32.MainnetSingleSig,
		ZeroAddress:    "SP000000000000000000002Q6VF78",
	}
	StacksTestnet = StacksNetwork{
		Name:           "testnet",
		CoreAPIURL:     "https://api.testnet.hiro.so",
		ChainID:        0x80000000,
		AddressVersion: c32.TestnetSingleSig,
		ZeroAddress:    "ST000000000000000000002AMW42H",
	}
)

// StacksNetworkByName returns the network called name, mainnet or testnet.
func StacksNetworkByName(name string) (StacksNetwork, error) {
	switch strings.ToLower(name) {
	case StacksMainnet.Name:
		return StacksMainnet, nil
	case StacksTestnet.Name:
		return StacksTestnet, nil
	}
	return StacksNetwork{}, fmt.Errorf("unknown stacks network %q", name)
}

// WithAPIURL returns a copy of n served by a different API host.
func (n StacksNetwork) WithAPIURL(url string) StacksNetwork {
	if url != "" {
		n.CoreAPIURL = strings.TrimRight(url, "/")
	}
	return n
}

func (n StacksNetwork) wallet() wallet.Network {
	return wallet.Network{
		Name:       n.Name,
		CoreAPIURL: n.CoreAPIURL,
		ChainID:    n.ChainID,
	}
}

// TxURL returns the explorer page of a transaction.
func (n StacksNetwork) TxURL(txID string) string {
	return fmt.Sprintf("%s/txid/%s?chain=%s", stacksExplorerURL, txID, n.Name)
}

// AddressURL returns the explorer page of an address.
func (n StacksNetwork) AddressURL(address string) string {
	return fmt.Sprintf("%s/address/%s?chain=%s", stacksExplorerURL, address, n.Name)
}

// ValidateStacksAddress checks the c32check encoding of address and that it
// belongs to n.
func (n StacksNetwork) ValidateStacksAddress(address string) error {
	version, _, err := c32.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	switch {
	case n.AddressVersion == c32.MainnetSingleSig && (version == c32.MainnetSingleSig || version == c32.MainnetMultiSig):
	case n.AddressVersion == c32.TestnetSingleSig && (version == c32.TestnetSingleSig || version == c32.TestnetMultiSig):
	default:
		return fmt.Errorf("%w: %s is not a %s address", ErrInvalidAddress, address, n.Name)
	}
	return nil
}
