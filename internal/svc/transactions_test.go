package svc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mantelijo/multichain-wallet/internal/chain"
	"github.com/Mantelijo/multichain-wallet/internal/config"
	"github.com/Mantelijo/multichain-wallet/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const txID = "0x5a1c4bd2f9e7a2e3c44c1bcd6a43c1e6f5e1cd0a1aaf7f1c1e2dbd8bd0b4c3a1"

func testSettings(t *testing.T) config.Settings {
	return config.Settings{
		BaseChainID:       chain.BaseSepoliaChainID,
		BaseRPCURL:        "http://127.0.0.1:1",
		StacksNetwork:     "testnet",
		StacksSessionFile: filepath.Join(t.TempDir(), "session.json"),
		AppName:           "test",
		TxMaxAttempts:     3,
		TxPollInterval:    time.Millisecond,
	}
}

func stacksWallets(t *testing.T, handler http.HandlerFunc) *Wallets {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil

	return &Wallets{
		Settings: testSettings(t),
		Stacks: chain.NewStacksAdapter(
			nil,
			wallet.NewMemorySessionStore(),
			wallet.AppDetails{Name: "test"},
			chain.StacksTestnet.WithAPIURL(srv.URL),
			chain.WithStacksHTTPClient{Client: client},
		),
	}
}

func TestNewWallets(t *testing.T) {
	s := testSettings(t)
	w, err := NewWallets(context.Background(), s, nil)
	require.NoError(t, err)
	defer w.Close()

	assert.Nil(t, w.Provider)
	assert.Equal(t, chain.BaseSepoliaChainID, w.Base.TargetChainID())
	n, ok := w.Base.Network()
	require.True(t, ok)
	assert.Equal(t, []string{s.BaseRPCURL}, n.RPCURLs)
	assert.Equal(t, chain.StacksTestnet.Name, w.Stacks.Network().Name)

	_, err = w.Orchestrator.ConnectBase(context.Background())
	assert.ErrorIs(t, err, chain.ErrNoProvider)

	_, err = w.Orchestrator.ConnectStacks(context.Background())
	assert.ErrorIs(t, err, chain.ErrNoWalletDetected)

	s.StacksNetwork = "devnet"
	_, err = NewWallets(context.Background(), s, nil)
	assert.Error(t, err)
}

func TestWaitForStacksTransaction(t *testing.T) {
	var calls atomic.Int32
	w := stacksWallets(t, func(rw http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			rw.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(rw, `{"tx_id":%q,"tx_status":"success"}`, txID)
	})

	res, err := WaitForTransaction(context.Background(), w, chain.Stacks, txID)
	require.NoError(t, err)
	assert.Equal(t, TxResult{
		Chain:    chain.Stacks,
		ID:       txID,
		Status:   chain.StacksTxSuccess,
		Explorer: "https://explorer.hiro.so/txid/" + txID + "?chain=testnet",
	}, res)
	assert.EqualValues(t, 2, calls.Load())
}

func TestWaitForStacksTransactionFailed(t *testing.T) {
	w := stacksWallets(t, func(rw http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(rw, `{"tx_id":%q,"tx_status":"abort_by_post_condition"}`, txID)
	})

	_, err := WaitForTransaction(context.Background(), w, chain.Stacks, txID)
	var failed *chain.TransactionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, chain.StacksTxAbortByPostCondition, failed.Reason)
}

func TestStacksTransactionStatus(t *testing.T) {
	w := stacksWallets(t, func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extended/v1/tx/"+txID, r.URL.Path)
		rw.WriteHeader(http.StatusNotFound)
	})

	res, err := StacksTransactionStatus(context.Background(), w, txID)
	require.NoError(t, err)
	assert.Equal(t, chain.StacksTxPending, res.Status)
}

func TestWaitForTransactionUnknownChain(t *testing.T) {
	w := &Wallets{Settings: testSettings(t)}
	_, err := WaitForTransaction(context.Background(), w, chain.ChainName("solana"), txID)
	assert.ErrorContains(t, err, "unknown chain")
}

func TestParseTxHash(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    common.Hash
		wantErr bool
	}{
		{name: "valid", id: txID, want: common.HexToHash(txID)},
		{name: "missing prefix", id: txID[2:], wantErr: true},
		{name: "short", id: "0x1234", wantErr: true},
		{name: "not hex", id: "0xzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTxHash(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
