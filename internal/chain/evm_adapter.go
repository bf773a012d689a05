package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/Mantelijo/multichain-wallet/internal/eventbus"
	"github.com/Mantelijo/multichain-wallet/internal/wallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainReader is a passive network handle used for reads and receipts. An
// *ethclient.Client satisfies it.
type ChainReader interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type evmStatus int

const (
	evmDisconnected evmStatus = iota
	evmConnecting
	evmConnected
)

func NewEvmAdapter(provider wallet.Provider, targetChainID uint64, opts ...EvmAdapterOption) *EvmAdapter {
	e := &EvmAdapter{
		provider:        provider,
		targetChainID:   targetChainID,
		networks:        KnownEvmNetworks,
		tracker:         NewTracker(),
		receiptAttempts: DefaultMaxAttempts,
		receiptInterval: DefaultPollInterval,
		bus:             eventbus.New(),
	}
	e.listener = &evmListener{e: e}

	for _, opt := range opts {
		opt.Apply(e)
	}

	return e
}

var _ EvmWallet = (*EvmAdapter)(nil)

// EvmAdapter connects to an EVM chain through an injected wallet provider.
// It is safe for concurrent use.
type EvmAdapter struct {
	provider      wallet.Provider
	targetChainID uint64
	networks      map[uint64]EvmNetwork

	tracker         *Tracker
	receiptAttempts int
	receiptInterval time.Duration

	bus *eventbus.Bus
	// Registered on the provider while connected. Kept for the lifetime of
	// the adapter so RemoveListener gets the same value On got.
	listener     *evmListener
	connectGroup sharedGroup

	status  evmStatus
	address common.Address
	chainID uint64
	reader  ChainReader
	// status, address, chainID and reader mutex
	mu sync.RWMutex
}

func (e *EvmAdapter) Name() ChainName {
	return Base
}

// Connect requests account access from the wallet. Concurrent calls share a
// single provider request.
func (e *EvmAdapter) Connect(ctx context.Context) (string, error) {
	if e.provider == nil {
		return "", ErrNoProvider
	}

	e.mu.RLock()
	if e.status == evmConnected {
		addr := e.address.Hex()
		e.mu.RUnlock()
		return addr, nil
	}
	e.mu.RUnlock()

	v, err := e.connectGroup.Do(ctx, "connect", func(ctx context.Context) (any, error) {
		return e.connect(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (e *EvmAdapter) connect(ctx context.Context) (string, error) {
	e.mu.Lock()
	if e.status == evmConnected {
		addr := e.address.Hex()
		e.mu.Unlock()
		return addr, nil
	}
	e.status = evmConnecting
	e.mu.Unlock()

	var accounts []string
	if err := e.provider.Request(ctx, &accounts, "eth_requestAccounts"); err != nil {
		e.setStatus(evmDisconnected)
		return "", fmt.Errorf("failed to request accounts: %w", normalizeProviderError(err))
	}
	if len(accounts) == 0 {
		e.setStatus(evmDisconnected)
		return "", ErrNoAccounts
	}
	address, err := validateEvmWallet(accounts[0])
	if err != nil {
		e.setStatus(evmDisconnected)
		return "", err
	}

	var chainID hexutil.Uint64
	if err := e.provider.Request(ctx, &chainID, "eth_chainId"); err != nil {
		e.setStatus(evmDisconnected)
		return "", fmt.Errorf("failed to get chain id: %w", normalizeProviderError(err))
	}

	e.mu.Lock()
	e.status = evmConnected
	e.address = address
	e.chainID = uint64(chainID)
	if e.reader == nil {
		e.reader = &providerReader{p: e.provider}
	}
	e.mu.Unlock()

	e.provider.On(e.listener)

	// A disconnect between publishing the session and registering the
	// listener already ran RemoveListener
	e.mu.RLock()
	lost := e.status != evmConnected || e.address != address
	e.mu.RUnlock()
	if lost {
		e.provider.RemoveListener(e.listener)
		return "", fmt.Errorf("wallet disconnected while connecting: %w", ErrNotConnected)
	}

	slog.Info("evm wallet connected",
		slog.String("address", address.Hex()),
		slog.Uint64("chain_id", uint64(chainID)),
	)
	e.bus.Emit(EventConnect, address.Hex())

	return address.Hex(), nil
}

// Disconnect clears the session. Wallets offer no programmatic disconnect,
// so only local state and the provider listener are removed.
func (e *EvmAdapter) Disconnect(ctx context.Context) error {
	e.reset("disconnect requested")
	return nil
}

func (e *EvmAdapter) reset(reason string) {
	e.mu.Lock()
	had := e.status == evmConnected
	e.status = evmDisconnected
	e.address = common.Address{}
	e.chainID = 0
	e.mu.Unlock()

	if e.provider != nil {
		e.provider.RemoveListener(e.listener)
	}

	if had {
		slog.Info("evm wallet disconnected", slog.String("reason", reason))
		e.bus.Emit(EventDisconnect)
	}
}

func (e *EvmAdapter) setStatus(s evmStatus) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

func (e *EvmAdapter) State() ConnectionState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.status != evmConnected {
		return ConnectionState{}
	}
	return ConnectionState{
		Address:   e.address.Hex(),
		ChainID:   e.chainID,
		Connected: true,
	}
}

func (e *EvmAdapter) IsConnected() bool {
	return e.State().Connected
}

type switchEthereumChainParams struct {
	ChainID hexutil.Uint64 `json:"chainId"`
}

// SwitchNetwork asks the wallet to switch to chainID. When the wallet does
// not know the network, its descriptor is registered and the switch retried
// once.
func (e *EvmAdapter) SwitchNetwork(ctx context.Context, chainID uint64) error {
	if e.provider == nil {
		return ErrNoProvider
	}

	err := e.provider.Request(ctx, nil, "wallet_switchEthereumChain", switchEthereumChainParams{ChainID: hexutil.Uint64(chainID)})
	if err == nil {
		return nil
	}
	if !wallet.HasCode(err, wallet.CodeUnrecognizedChain) {
		return &NetworkSwitchError{ChainID: chainID, Err: normalizeProviderError(err)}
	}

	network, ok := e.networks[chainID]
	if !ok {
		return &NetworkSwitchError{ChainID: chainID, Err: fmt.Errorf("no descriptor to register network: %w", err)}
	}

	slog.Info("registering network with wallet",
		slog.Uint64("chain_id", chainID),
		slog.String("name", network.Name),
	)
	if err := e.provider.Request(ctx, nil, "wallet_addEthereumChain", network.addParams()); err != nil {
		return &NetworkSwitchError{ChainID: chainID, Err: fmt.Errorf("failed to register network: %w", normalizeProviderError(err))}
	}

	if err := e.provider.Request(ctx, nil, "wallet_switchEthereumChain", switchEthereumChainParams{ChainID: hexutil.Uint64(chainID)}); err != nil {
		return &NetworkSwitchError{ChainID: chainID, Err: normalizeProviderError(err)}
	}
	return nil
}

func (e *EvmAdapter) SwitchToTarget(ctx context.Context) error {
	return e.SwitchNetwork(ctx, e.targetChainID)
}

// TargetChainID returns the network the adapter is configured for.
func (e *EvmAdapter) TargetChainID() uint64 {
	return e.targetChainID
}

// Network returns the descriptor of the target network.
func (e *EvmAdapter) Network() (EvmNetwork, bool) {
	n, ok := e.networks[e.targetChainID]
	return n, ok
}

func (e *EvmAdapter) RefreshChainID(ctx context.Context) (uint64, error) {
	if e.provider == nil {
		return 0, ErrNoProvider
	}

	var chainID hexutil.Uint64
	if err := e.provider.Request(ctx, &chainID, "eth_chainId"); err != nil {
		return 0, fmt.Errorf("failed to get chain id: %w", normalizeProviderError(err))
	}

	e.mu.Lock()
	if e.status == evmConnected {
		e.chainID = uint64(chainID)
	}
	e.mu.Unlock()

	return uint64(chainID), nil
}

type sendTransactionArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

// SubmitTransaction asks the wallet to sign and broadcast a transaction. It
// returns once the wallet reports the hash and does not wait for inclusion.
func (e *EvmAdapter) SubmitTransaction(ctx context.Context, to string, value *big.Int, data []byte) (common.Hash, error) {
	e.mu.RLock()
	connected, from := e.status == evmConnected, e.address
	e.mu.RUnlock()
	if !connected {
		return common.Hash{}, ErrNotConnected
	}

	toAddr, err := validateEvmWallet(to)
	if err != nil {
		return common.Hash{}, err
	}

	args := sendTransactionArgs{From: from, To: &toAddr, Data: data}
	if value != nil {
		args.Value = (*hexutil.Big)(value)
	}

	var hash common.Hash
	if err := e.provider.Request(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", normalizeProviderError(err))
	}

	slog.Info("evm transaction sent",
		slog.String("tx_hash", hash.Hex()),
		slog.String("to", toAddr.Hex()),
	)
	e.bus.Emit(EventTransactionSent, hash.Hex())

	return hash, nil
}

// CallContract sends a state changing contract call and waits for its
// receipt.
func (e *EvmAdapter) CallContract(
	ctx context.Context,
	address string,
	contractABI abi.ABI,
	method string,
	args []any,
	value *big.Int,
) (*types.Receipt, error) {
	if !e.IsConnected() {
		return nil, ErrNotConnected
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	hash, err := e.SubmitTransaction(ctx, address, value, data)
	if err != nil {
		return nil, err
	}

	receipt, err := e.WaitForTransaction(ctx, hash, e.receiptAttempts, e.receiptInterval)
	if err != nil {
		return nil, err
	}

	e.bus.Emit(EventTransactionConfirmed, receipt)
	return receipt, nil
}

// ReadContract performs an eth_call and unpacks the outputs of method.
func (e *EvmAdapter) ReadContract(
	ctx context.Context,
	address string,
	contractABI abi.ABI,
	method string,
	args ...any,
) ([]any, error) {
	reader := e.chainReader()
	if reader == nil {
		return nil, ErrProviderUninitialized
	}

	to, err := validateEvmWallet(address)
	if err != nil {
		return nil, err
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, &ReadCallError{Method: method, Reason: "invalid arguments", Err: err}
	}

	out, err := reader.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, &ReadCallError{Method: method, Reason: err.Error(), Err: err}
	}

	values, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, &ReadCallError{Method: method, Reason: "failed to unpack result", Err: err}
	}
	return values, nil
}

// WaitForTransaction polls for the receipt of hash. A missing receipt counts
// as pending, a receipt with failed status as a failure.
func (e *EvmAdapter) WaitForTransaction(ctx context.Context, hash common.Hash, maxAttempts int, interval time.Duration) (*types.Receipt, error) {
	reader := e.chainReader()
	if reader == nil {
		return nil, ErrProviderUninitialized
	}

	lookup := func(ctx context.Context, txID string) (*types.Receipt, error) {
		receipt, err := reader.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return receipt, err
	}

	return WaitFor(ctx, e.tracker, hash.Hex(), lookup, classifyReceipt, WaitOptions{
		MaxAttempts: maxAttempts,
		Interval:    interval,
	})
}

func classifyReceipt(r *types.Receipt) Verdict {
	switch {
	case r == nil:
		return Verdict{State: TxPending}
	case r.Status == types.ReceiptStatusSuccessful:
		return Verdict{State: TxConfirmed}
	}
	return Verdict{State: TxFailed, Reason: "execution reverted"}
}

func (e *EvmAdapter) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	hash, err := e.SubmitTransaction(ctx, req.To, req.Amount, req.Data)
	if err != nil {
		return "", err
	}
	return hash.Hex(), nil
}

func (e *EvmAdapter) Read(ctx context.Context, req ReadRequest) (any, error) {
	return e.ReadContract(ctx, req.Contract, req.ABI, req.Method, req.Args...)
}

func (e *EvmAdapter) On(event eventbus.Event, h *eventbus.Handler) {
	e.bus.On(event, h)
}

func (e *EvmAdapter) Off(event eventbus.Event, h *eventbus.Handler) {
	e.bus.Off(event, h)
}

func (e *EvmAdapter) ListenerCount(event eventbus.Event) int {
	return e.bus.Count(event)
}

func (e *EvmAdapter) chainReader() ChainReader {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reader
}

// evmListener forwards provider notifications to the adapter.
type evmListener struct {
	e *EvmAdapter
}

func (l *evmListener) AccountsChanged(accounts []string) {
	if len(accounts) == 0 {
		l.e.reset("wallet reported no accounts")
		return
	}

	address, err := validateEvmWallet(accounts[0])
	if err != nil {
		slog.Warn("ignoring invalid account from wallet", slog.String("account", accounts[0]))
		return
	}

	l.e.mu.Lock()
	if l.e.status != evmConnected {
		l.e.mu.Unlock()
		return
	}
	l.e.address = address
	l.e.mu.Unlock()

	l.e.bus.Emit(EventAccountChanged, address.Hex())
}

// ChainChanged records the new id. Reads in flight while the network
// changes may return data of the previous network.
func (l *evmListener) ChainChanged(chainID uint64) {
	l.e.mu.Lock()
	if l.e.status != evmConnected {
		l.e.mu.Unlock()
		return
	}
	l.e.chainID = chainID
	l.e.mu.Unlock()

	l.e.bus.Emit(EventChainChanged, chainID)
}

func (l *evmListener) Disconnected(err error) {
	slog.Warn("wallet provider disconnected", slog.Any("error", err))
	l.e.reset("provider disconnected")
}

// providerReader serves reads through the wallet provider when no dedicated
// node connection was configured.
type providerReader struct {
	p wallet.Provider
}

type callArgs struct {
	To   *common.Address `json:"to"`
	Data hexutil.Bytes   `json:"data"`
}

func (r *providerReader) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	block := "latest"
	if blockNumber != nil {
		block = hexutil.EncodeBig(blockNumber)
	}

	var out hexutil.Bytes
	if err := r.p.Request(ctx, &out, "eth_call", callArgs{To: msg.To, Data: msg.Data}, block); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *providerReader) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	if err := r.p.Request(ctx, &receipt, "eth_getTransactionReceipt", txHash); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

// normalizeProviderError maps a user rejection to ErrUserCancelled and keeps
// the provider error in the chain.
func normalizeProviderError(err error) error {
	if wallet.HasCode(err, wallet.CodeUserRejected) {
		return fmt.Errorf("%w: %w", ErrUserCancelled, err)
	}
	return err
}

func validateEvmWallet(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("%w: %q is not an evm address", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address), nil
}

type EvmAdapterOption interface {
	Apply(*EvmAdapter)
}

// WithChainReader sets the passive network handle used for reads, e.g. an
// ethclient connected to the configured rpc url. Without it, reads are
// served by the provider once connected.
type WithChainReader struct {
	Reader ChainReader
}

func (w WithChainReader) Apply(e *EvmAdapter) {
	e.reader = w.Reader
}

// WithTracker shares a transaction tracker between adapters.
type WithTracker struct {
	Tracker *Tracker
}

func (w WithTracker) Apply(e *EvmAdapter) {
	e.tracker = w.Tracker
}

// WithNetworks replaces the descriptors used for network registration.
type WithNetworks struct {
	Networks map[uint64]EvmNetwork
}

func (w WithNetworks) Apply(e *EvmAdapter) {
	e.networks = w.Networks
}

// WithReceiptPolling bounds the receipt wait of CallContract.
type WithReceiptPolling struct {
	Attempts int
	Interval time.Duration
}

func (w WithReceiptPolling) Apply(e *EvmAdapter) {
	e.receiptAttempts = w.Attempts
	e.receiptInterval = w.Interval
}
