package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// EIP-1193 provider error codes
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupported       = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
)

// Provider is an injected EVM wallet provider. Errors carrying a provider
// error code must implement rpc.Error.
type Provider interface {
	// Request performs a JSON-RPC request and decodes the result into result.
	Request(ctx context.Context, result any, method string, params ...any) error

	// On registers a listener for account, chain and disconnect
	// notifications. Registering the same listener twice has no effect.
	On(l ProviderListener)

	// RemoveListener removes a listener registered with On.
	RemoveListener(l ProviderListener)
}

// ProviderListener receives notifications which originate in the wallet.
type ProviderListener interface {
	AccountsChanged(accounts []string)
	ChainChanged(chainID uint64)
	Disconnected(err error)
}

// ProviderError is a JSON-RPC error with an EIP-1193 code.
type ProviderError struct {
	Code    int
	Message string
}

var _ rpc.Error = (*ProviderError)(nil)

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func (e *ProviderError) ErrorCode() int {
	return e.Code
}

// ErrorCode extracts the provider error code from err.
func ErrorCode(err error) (int, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}

// HasCode reports whether err carries the given provider error code.
func HasCode(err error, code int) bool {
	c, ok := ErrorCode(err)
	return ok && c == code
}

func NewRPCProvider(c *rpc.Client) *RPCProvider {
	return &RPCProvider{c: c}
}

// DialProvider connects to a wallet exposing the provider API over JSON-RPC,
// e.g. a desktop wallet listening on a local websocket.
func DialProvider(ctx context.Context, url string, opts ...rpc.ClientOption) (*RPCProvider, error) {
	c, err := rpc.DialOptions(ctx, url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial provider: %w", err)
	}
	slog.Info("connected to wallet provider", slog.String("url", url))
	return NewRPCProvider(c), nil
}

var _ Provider = (*RPCProvider)(nil)

// RPCProvider adapts a go-ethereum rpc.Client to Provider.
type RPCProvider struct {
	c *rpc.Client

	listeners []ProviderListener
	// listeners mutex
	mu sync.RWMutex
}

func (p *RPCProvider) Request(ctx context.Context, result any, method string, params ...any) error {
	return p.c.CallContext(ctx, result, method, params...)
}

func (p *RPCProvider) On(l ProviderListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.listeners {
		if existing == l {
			return
		}
	}
	p.listeners = append(p.listeners, l)
}

func (p *RPCProvider) RemoveListener(l ProviderListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.listeners {
		if existing == l {
			p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
			return
		}
	}
}

func (p *RPCProvider) snapshot() []ProviderListener {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ProviderListener, len(p.listeners))
	copy(out, p.listeners)
	return out
}

// Watch subscribes to the wallet's accountsChanged and chainChanged
// notifications and forwards them to registered listeners until ctx is done
// or the subscription fails. A failed subscription is reported to listeners
// as a disconnect. Only transports with notification support (websocket,
// ipc) can be watched.
func (p *RPCProvider) Watch(ctx context.Context) error {
	accounts := make(chan []string)
	accountsSub, err := p.c.Subscribe(ctx, "eth", accounts, "accountsChanged")
	if err != nil {
		return fmt.Errorf("failed to subscribe to accountsChanged: %w", err)
	}
	defer accountsSub.Unsubscribe()

	chains := make(chan hexutil.Uint64)
	chainSub, err := p.c.Subscribe(ctx, "eth", chains, "chainChanged")
	if err != nil {
		return fmt.Errorf("failed to subscribe to chainChanged: %w", err)
	}
	defer chainSub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a := <-accounts:
			for _, l := range p.snapshot() {
				l.AccountsChanged(a)
			}
		case id := <-chains:
			for _, l := range p.snapshot() {
				l.ChainChanged(uint64(id))
			}
		case err := <-accountsSub.Err():
			return p.lost(err)
		case err := <-chainSub.Err():
			return p.lost(err)
		}
	}
}

func (p *RPCProvider) lost(err error) error {
	slog.Error("provider subscription error", slog.Any("error", err))
	for _, l := range p.snapshot() {
		l.Disconnected(err)
	}
	return fmt.Errorf("provider subscription lost: %w", err)
}

func (p *RPCProvider) Close() {
	p.c.Close()
}
