package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	BaseMainnetChainID uint64 = 8453
	BaseSepoliaChainID uint64 = 84532
)

// NativeCurrency describes the gas token of an EVM network.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// EvmNetwork is the descriptor a wallet needs to register a network it does
// not know yet.
type EvmNetwork struct {
	ChainID        uint64
	Name           string
	NativeCurrency NativeCurrency
	RPCURLs        []string
	ExplorerURLs   []string
}

// addEthereumChainParams is the wallet_addEthereumChain request object.
type addEthereumChainParams struct {
	ChainID           hexutil.Uint64 `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

func (n EvmNetwork) addParams() addEthereumChainParams {
	return addEthereumChainParams{
		ChainID:           hexutil.Uint64(n.ChainID),
		ChainName:         n.Name,
		NativeCurrency:    n.NativeCurrency,
		RPCURLs:           n.RPCURLs,
		BlockExplorerURLs: n.ExplorerURLs,
	}
}

// WithRPCURL returns a copy of n which advertises url as its rpc endpoint.
func (n EvmNetwork) WithRPCURL(url string) EvmNetwork {
	if url != "" {
		n.RPCURLs = []string{url}
	}
	n.ExplorerURLs = append([]string(nil), n.ExplorerURLs...)
	return n
}

// CustomEvmNetwork describes an ETH denominated network missing from
// KnownEvmNetworks. explorerURL may be empty.
func CustomEvmNetwork(chainID uint64, name, rpcURL, explorerURL string) EvmNetwork {
	n := EvmNetwork{
		ChainID:        chainID,
		Name:           name,
		NativeCurrency: ether,
		RPCURLs:        []string{rpcURL},
	}
	if explorerURL != "" {
		n.ExplorerURLs = []string{explorerURL}
	}
	return n
}

// TxURL returns the explorer page of a transaction, or an empty string when
// the network has no explorer.
func (n EvmNetwork) TxURL(hash string) string {
	if len(n.ExplorerURLs) == 0 {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", strings.TrimRight(n.ExplorerURLs[0], "/"), hash)
}

// AddressURL returns the explorer page of an address.
func (n EvmNetwork) AddressURL(address string) string {
	if len(n.ExplorerURLs) == 0 {
		return ""
	}
	return fmt.Sprintf("%s/address/%s", strings.TrimRight(n.ExplorerURLs[0], "/"), address)
}

var ether = NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18}

// KnownEvmNetworks are the networks the EVM adapter can register without
// further configuration.
var KnownEvmNetworks = map[uint64]EvmNetwork{
	BaseMainnetChainID: {
		ChainID:        BaseMainnetChainID,
		Name:           "Base",
		NativeCurrency: ether,
		RPCURLs:        []string{"https://mainnet.base.org"},
		ExplorerURLs:   []string{"https://basescan.org"},
	},
	BaseSepoliaChainID: {
		ChainID:        BaseSepoliaChainID,
		Name:           "Base Sepolia",
		NativeCurrency: ether,
		RPCURLs:        []string{"https://sepolia.base.org"},
		ExplorerURLs:   []string{"https://sepolia.basescan.org"},
	},
}
