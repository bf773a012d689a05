package svc

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mantelijo/multichain-wallet/internal/chain"
	"github.com/Mantelijo/multichain-wallet/internal/clarity"
	"github.com/Mantelijo/multichain-wallet/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stacksDeployer = "ST2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKQYAC0RQ"
	baseContract   = "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"
	baseHolder     = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	witnessABI = `[
		{"type":"function","name":"balanceOf","stateMutability":"view",
		 "inputs":[{"name":"owner","type":"address"}],
		 "outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"witnessAt","stateMutability":"view",
		 "inputs":[{"name":"index","type":"uint8"},{"name":"hash","type":"bytes32"}],
		 "outputs":[{"name":"","type":"bool"}]}
	]`
)

func TestBaseNetworks(t *testing.T) {
	tests := []struct {
		name     string
		settings func(s *config.Settings)
		want     chain.EvmNetwork
		wantErr  string
	}{
		{
			name: "known chain advertises configured rpc",
			settings: func(s *config.Settings) {
				s.BaseChainID = chain.BaseMainnetChainID
				s.BaseRPCURL = "https://base.example.org"
			},
			want: chain.EvmNetwork{
				ChainID:        chain.BaseMainnetChainID,
				Name:           "Base",
				NativeCurrency: chain.KnownEvmNetworks[chain.BaseMainnetChainID].NativeCurrency,
				RPCURLs:        []string{"https://base.example.org"},
				ExplorerURLs:   []string{"https://basescan.org"},
			},
		},
		{
			name: "custom chain",
			settings: func(s *config.Settings) {
				s.BaseChainID = 31337
				s.BaseRPCURL = "http://127.0.0.1:8545"
				s.BaseChainName = "Devnet"
				s.BaseExplorerURL = "http://127.0.0.1:4000"
			},
			want: chain.CustomEvmNetwork(31337, "Devnet", "http://127.0.0.1:8545", "http://127.0.0.1:4000"),
		},
		{
			name: "custom chain without name",
			settings: func(s *config.Settings) {
				s.BaseChainID = 31337
			},
			wantErr: config.BASE_CHAIN_NAME,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings(t)
			tt.settings(&s)

			networks, err := baseNetworks(s)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, networks[s.BaseChainID])
		})
	}

	assert.Equal(t, []string{"https://mainnet.base.org"}, chain.KnownEvmNetworks[chain.BaseMainnetChainID].RPCURLs)
}

func TestReadStacksContract(t *testing.T) {
	arg, err := clarity.ToHex(clarity.Uint(7))
	require.NoError(t, err)
	result, err := clarity.ToHex(clarity.Ok(clarity.Bool(true)))
	require.NoError(t, err)

	w := stacksWallets(t, func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/contracts/call-read/"+stacksDeployer+"/witnesschain/is-witnessed", r.URL.Path)

		var body struct {
			Arguments []string `json:"arguments"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{arg}, body.Arguments)

		json.NewEncoder(rw).Encode(map[string]any{"okay": true, "result": result})
	})
	w.Settings.StacksContractAddress = stacksDeployer
	w.Settings.StacksContractName = "witnesschain"

	v, err := ReadStacksContract(context.Background(), w, "is-witnessed", []string{arg})
	require.NoError(t, err)
	assert.Equal(t, true, clarity.Native(v))

	_, err = ReadStacksContract(context.Background(), w, "is-witnessed", []string{"0xzz"})
	assert.ErrorContains(t, err, "argument 0")

	w.Settings.StacksContractAddress = ""
	_, err = ReadStacksContract(context.Background(), w, "is-witnessed", nil)
	assert.ErrorIs(t, err, ErrContractNotConfigured)
}

// rpcServer answers eth_call with result and sends the call data on calls.
func rpcServer(t *testing.T, result []byte, calls chan<- string) *ethclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "eth_call", req.Method)

		var msg struct {
			To    string `json:"to"`
			Input string `json:"input"`
			Data  string `json:"data"`
		}
		if !assert.NoError(t, json.Unmarshal(req.Params[0], &msg)) {
			return
		}
		assert.True(t, strings.EqualFold(baseContract, msg.To))
		input := msg.Input
		if input == "" {
			input = msg.Data
		}
		calls <- input

		rw.Header().Set("Content-Type", "application/json")
		json.NewEncoder(rw).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  hexutil.Encode(result),
		})
	}))
	t.Cleanup(srv.Close)

	client, err := ethclient.Dial(srv.URL)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestReadBaseContract(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(witnessABI))
	require.NoError(t, err)
	result, err := parsed.Methods["balanceOf"].Outputs.Pack(big.NewInt(42))
	require.NoError(t, err)

	abiPath := filepath.Join(t.TempDir(), "witness.json")
	require.NoError(t, os.WriteFile(abiPath, []byte(witnessABI), 0o600))

	calls := make(chan string, 4)
	s := testSettings(t)
	s.BaseContractAddress = baseContract
	s.BaseContractABI = abiPath
	w := &Wallets{
		Settings: s,
		Base: chain.NewEvmAdapter(nil, s.BaseChainID,
			chain.WithChainReader{Reader: rpcServer(t, result, calls)},
		),
	}

	got, err := ReadBaseContract(context.Background(), w, "balanceOf", []string{baseHolder})
	require.NoError(t, err)
	assert.Equal(t, []any{big.NewInt(42)}, got)

	want, err := parsed.Pack("balanceOf", common.HexToAddress(baseHolder))
	require.NoError(t, err)
	assert.Equal(t, hexutil.Encode(want), <-calls)

	_, err = ReadBaseContract(context.Background(), w, "ownerOf", []string{"1"})
	assert.ErrorContains(t, err, "not found")

	_, err = ReadBaseContract(context.Background(), w, "balanceOf", nil)
	assert.ErrorContains(t, err, "takes 1 arguments")

	w.Settings.BaseContractABI = ""
	_, err = ReadBaseContract(context.Background(), w, "balanceOf", []string{baseHolder})
	assert.ErrorIs(t, err, ErrContractNotConfigured)
}

func TestABIArg(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(witnessABI))
	require.NoError(t, err)
	owner := parsed.Methods["balanceOf"].Inputs[0].Type
	index := parsed.Methods["witnessAt"].Inputs[0].Type
	hash := parsed.Methods["witnessAt"].Inputs[1].Type
	uint256, err := abi.NewType("uint256", "", nil)
	require.NoError(t, err)
	flag, err := abi.NewType("bool", "", nil)
	require.NoError(t, err)

	var wantHash [32]byte
	wantHash[31] = 1

	tests := []struct {
		name    string
		typ     abi.Type
		arg     string
		want    any
		wantErr string
	}{
		{name: "address", typ: owner, arg: baseHolder, want: common.HexToAddress(baseHolder)},
		{name: "bad address", typ: owner, arg: "0x1234", wantErr: "invalid address"},
		{name: "small uint", typ: index, arg: "7", want: uint8(7)},
		{name: "small uint overflow", typ: index, arg: "256", wantErr: "overflows"},
		{name: "big uint hex", typ: uint256, arg: "0x2a", want: big.NewInt(42)},
		{name: "negative uint", typ: uint256, arg: "-1", wantErr: "negative"},
		{name: "not a number", typ: uint256, arg: "lots", wantErr: "invalid integer"},
		{name: "bool", typ: flag, arg: "true", want: true},
		{name: "fixed bytes", typ: hash, arg: hexutil.Encode(wantHash[:]), want: wantHash},
		{name: "fixed bytes length", typ: hash, arg: "0x01", wantErr: "want 32 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := abiArg(tt.typ, tt.arg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
