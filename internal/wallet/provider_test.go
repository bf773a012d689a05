package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walletService mimics the eth namespace of a JSON-RPC wallet.
type walletService struct{}

func (walletService) ChainId() hexutil.Uint64 {
	return hexutil.Uint64(8453)
}

func (walletService) RequestAccounts() []string {
	return []string{"0x9642b23Ed1E01Df1092B92641051881a322F5D4E"}
}

func (walletService) SwitchChain(id hexutil.Uint64) error {
	return &ProviderError{Code: CodeUnrecognizedChain, Message: "unrecognized chain"}
}

func (walletService) AccountsChanged(ctx context.Context) (*rpc.Subscription, error) {
	notifier, ok := rpc.NotifierFromContext(ctx)
	if !ok {
		return nil, rpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()
	go notifier.Notify(sub.ID, []string{})
	return sub, nil
}

func (walletService) ChainChanged(ctx context.Context) (*rpc.Subscription, error) {
	notifier, ok := rpc.NotifierFromContext(ctx)
	if !ok {
		return nil, rpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()
	go notifier.Notify(sub.ID, hexutil.Uint64(84532))
	return sub, nil
}

func newInProcProvider(t *testing.T) *RPCProvider {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", walletService{}))
	t.Cleanup(server.Stop)

	p := NewRPCProvider(rpc.DialInProc(server))
	t.Cleanup(p.Close)
	return p
}

type recordingListener struct {
	mu       sync.Mutex
	accounts [][]string
	chains   []uint64
	errs     []error
}

func (r *recordingListener) AccountsChanged(accounts []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = append(r.accounts, accounts)
}

func (r *recordingListener) ChainChanged(chainID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains = append(r.chains, chainID)
}

func (r *recordingListener) Disconnected(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingListener) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts), len(r.chains)
}

func TestRPCProviderRequest(t *testing.T) {
	p := newInProcProvider(t)
	ctx := context.Background()

	var chainID hexutil.Uint64
	require.NoError(t, p.Request(ctx, &chainID, "eth_chainId"))
	assert.Equal(t, hexutil.Uint64(8453), chainID)

	var accounts []string
	require.NoError(t, p.Request(ctx, &accounts, "eth_requestAccounts"))
	assert.Equal(t, []string{"0x9642b23Ed1E01Df1092B92641051881a322F5D4E"}, accounts)

	err := p.Request(ctx, nil, "eth_switchChain", hexutil.Uint64(1))
	assert.True(t, HasCode(err, CodeUnrecognizedChain))
	assert.False(t, HasCode(err, CodeUserRejected))
}

func TestErrorCode(t *testing.T) {
	_, ok := ErrorCode(errors.New("plain"))
	assert.False(t, ok)

	code, ok := ErrorCode(errors.Join(errors.New("ctx"), &ProviderError{Code: CodeUserRejected}))
	assert.True(t, ok)
	assert.Equal(t, CodeUserRejected, code)
}

func TestRPCProviderListeners(t *testing.T) {
	p := newInProcProvider(t)
	l := &recordingListener{}

	p.On(l)
	p.On(l)
	assert.Len(t, p.snapshot(), 1)

	p.RemoveListener(l)
	p.RemoveListener(l)
	assert.Len(t, p.snapshot(), 0)
}

func TestRPCProviderWatch(t *testing.T) {
	p := newInProcProvider(t)
	l := &recordingListener{}
	p.On(l)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- p.Watch(ctx)
	}()

	assert.Eventually(t, func() bool {
		a, c := l.counts()
		return a == 1 && c == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Equal(t, [][]string{{}}, l.accounts)
	assert.Equal(t, []uint64{84532}, l.chains)
	assert.Empty(t, l.errs)
}
