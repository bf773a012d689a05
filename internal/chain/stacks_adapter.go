package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/Mantelijo/multichain-wallet/internal/c32"
	"github.com/Mantelijo/multichain-wallet/internal/clarity"
	"github.com/Mantelijo/multichain-wallet/internal/eventbus"
	"github.com/Mantelijo/multichain-wallet/internal/wallet"
	"github.com/hashicorp/go-retryablehttp"
)

// maxMemoBytes is the size of the memo field of a token transfer.
const maxMemoBytes = 34

type StacksStatus int

const (
	StacksSignedOut StacksStatus = iota
	StacksAwaitingUserAction
	StacksSignedIn
)

func (s StacksStatus) String() string {
	switch s {
	case StacksAwaitingUserAction:
		return "awaiting_user_action"
	case StacksSignedIn:
		return "signed_in"
	}
	return "signed_out"
}

// ContractCall is a state changing Stacks contract call. PostConditionMode
// defaults to deny.
type ContractCall struct {
	ContractAddress   string
	ContractName      string
	FunctionName      string
	FunctionArgs      []clarity.Value
	PostConditionMode wallet.PostConditionMode
	PostConditions    []wallet.PostCondition
}

func NewStacksAdapter(
	prompter wallet.Prompter,
	store wallet.SessionStore,
	app wallet.AppDetails,
	network StacksNetwork,
	opts ...StacksAdapterOption,
) *StacksAdapter {
	a := &StacksAdapter{
		prompter: prompter,
		store:    store,
		app:      app,
		api:      &stacksAPI{client: NewStacksHTTPClient()},
		tracker:  NewTracker(),
		bus:      eventbus.New(),
		network:  network,
		networks: map[string]StacksNetwork{
			StacksMainnet.Name: StacksMainnet,
			StacksTestnet.Name: StacksTestnet,
		},
	}
	a.networks[network.Name] = network

	for _, opt := range opts {
		opt.Apply(a)
	}

	return a
}

var _ ChainAdapter = (*StacksAdapter)(nil)

// StacksAdapter signs through a callback based wallet prompt and reads
// through the public Stacks API. Signed-in status is derived from the
// persisted session.
type StacksAdapter struct {
	prompter wallet.Prompter
	store    wallet.SessionStore
	app      wallet.AppDetails
	api      *stacksAPI
	tracker  *Tracker

	bus          *eventbus.Bus
	connectGroup sharedGroup
	// held while a prompt is open
	promptMu sync.Mutex

	network  StacksNetwork
	networks map[string]StacksNetwork
	awaiting bool
	// network, networks and awaiting mutex
	mu sync.RWMutex
}

func (a *StacksAdapter) Name() ChainName {
	return Stacks
}

// Network returns the network the adapter currently targets.
func (a *StacksAdapter) Network() StacksNetwork {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.network
}

// Connect returns the address of the persisted session, or prompts the user
// to sign in. Concurrent calls share a single prompt, which stays open until
// it settles or every caller has given up.
func (a *StacksAdapter) Connect(ctx context.Context) (string, error) {
	s, err := a.store.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if s != nil {
		return a.addressOf(s), nil
	}
	if a.prompter == nil {
		return "", ErrNoWalletDetected
	}

	v, err := a.connectGroup.Do(ctx, "connect", func(ctx context.Context) (any, error) {
		return a.connect(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *StacksAdapter) connect(ctx context.Context) (string, error) {
	a.promptMu.Lock()
	defer a.promptMu.Unlock()

	// A prompt finished while we waited for the lock
	if s, err := a.store.Load(); err == nil && s != nil {
		return a.addressOf(s), nil
	}

	a.setAwaiting(true)
	defer a.setAwaiting(false)

	userData, err := awaitPrompt(ctx, func(onFinish func(wallet.UserData), onCancel func()) {
		a.prompter.ShowConnect(ctx, a.app, onFinish, onCancel)
	})
	if err != nil {
		return "", fmt.Errorf("stacks sign in: %w", err)
	}

	s, err := sessionFromUserData(userData)
	if err != nil {
		return "", err
	}
	if err := a.store.Save(s); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	addr := a.addressOf(s)
	slog.Info("stacks wallet connected",
		slog.String("address", addr),
		slog.String("network", a.Network().Name),
	)
	a.bus.Emit(EventConnect, addr)

	return addr, nil
}

func sessionFromUserData(u wallet.UserData) (*wallet.Session, error) {
	s := &wallet.Session{
		MainnetAddress: u.MainnetAddress,
		TestnetAddress: u.TestnetAddress,
		SignedInAt:     time.Now().UTC(),
	}

	if len(u.PublicKey) > 0 {
		var err error
		if s.MainnetAddress == "" {
			if s.MainnetAddress, err = c32.AddressFromPublicKey(u.PublicKey, c32.MainnetSingleSig); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
			}
		}
		if s.TestnetAddress == "" {
			if s.TestnetAddress, err = c32.AddressFromPublicKey(u.PublicKey, c32.TestnetSingleSig); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
			}
		}
	}

	if !c32.IsValidAddress(s.MainnetAddress) || !c32.IsValidAddress(s.TestnetAddress) {
		return nil, fmt.Errorf("%w: wallet returned %q and %q", ErrInvalidAddress, s.MainnetAddress, s.TestnetAddress)
	}
	return s, nil
}

// awaitPrompt opens a callback based prompt and blocks until it settles.
// Only the first callback invocation counts.
func awaitPrompt[T any](ctx context.Context, open func(onFinish func(T), onCancel func())) (T, error) {
	type outcome struct {
		v         T
		cancelled bool
	}

	done := make(chan outcome, 1)
	var once sync.Once
	settle := func(o outcome) {
		once.Do(func() { done <- o })
	}

	open(
		func(v T) { settle(outcome{v: v}) },
		func() { settle(outcome{cancelled: true}) },
	)

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case o := <-done:
		if o.cancelled {
			return zero, ErrUserCancelled
		}
		return o.v, nil
	}
}

// Disconnect signs the user out by clearing the persisted session.
func (a *StacksAdapter) Disconnect(ctx context.Context) error {
	s, err := a.store.Load()
	if err != nil {
		slog.Warn("failed to load stacks session", slog.Any("error", err))
	}
	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if s != nil {
		slog.Info("stacks wallet disconnected")
		a.bus.Emit(EventDisconnect)
	}
	return nil
}

func (a *StacksAdapter) session() *wallet.Session {
	s, err := a.store.Load()
	if err != nil {
		slog.Warn("failed to load stacks session", slog.Any("error", err))
		return nil
	}
	return s
}

func (a *StacksAdapter) addressOf(s *wallet.Session) string {
	if a.Network().Name == StacksTestnet.Name {
		return s.TestnetAddress
	}
	return s.MainnetAddress
}

func (a *StacksAdapter) State() ConnectionState {
	s := a.session()
	if s == nil {
		return ConnectionState{}
	}
	return ConnectionState{
		Address:   a.addressOf(s),
		ChainID:   uint64(a.Network().ChainID),
		Connected: true,
	}
}

func (a *StacksAdapter) IsConnected() bool {
	return a.session() != nil
}

// Status reports the sign-in state machine position.
func (a *StacksAdapter) Status() StacksStatus {
	a.mu.RLock()
	awaiting := a.awaiting
	a.mu.RUnlock()

	switch {
	case a.IsConnected():
		return StacksSignedIn
	case awaiting:
		return StacksAwaitingUserAction
	}
	return StacksSignedOut
}

func (a *StacksAdapter) setAwaiting(v bool) {
	a.mu.Lock()
	a.awaiting = v
	a.mu.Unlock()
}

// CallContract opens a contract call approval prompt and returns the id of
// the broadcast transaction.
func (a *StacksAdapter) CallContract(ctx context.Context, call ContractCall) (string, error) {
	if !a.IsConnected() {
		return "", ErrNotConnected
	}
	if a.prompter == nil {
		return "", ErrNoWalletDetected
	}
	if !c32.IsValidAddress(call.ContractAddress) {
		return "", fmt.Errorf("%w: contract %q", ErrInvalidAddress, call.ContractAddress)
	}

	req := wallet.ContractCallRequest{
		Network:           a.Network().wallet(),
		ContractAddress:   call.ContractAddress,
		ContractName:      call.ContractName,
		FunctionName:      call.FunctionName,
		FunctionArgs:      call.FunctionArgs,
		PostConditionMode: call.PostConditionMode,
		PostConditions:    call.PostConditions,
	}

	return a.prompt(ctx, func(onFinish func(wallet.FinishedTx), onCancel func()) {
		a.prompter.OpenContractCall(ctx, req, onFinish, onCancel)
	})
}

// TransferSTX opens a transfer approval prompt. Amount is in micro-STX.
func (a *StacksAdapter) TransferSTX(ctx context.Context, recipient string, amount *big.Int, memo string) (string, error) {
	if !a.IsConnected() {
		return "", ErrNotConnected
	}
	if a.prompter == nil {
		return "", ErrNoWalletDetected
	}

	network := a.Network()
	if err := network.ValidateStacksAddress(recipient); err != nil {
		return "", err
	}
	if amount == nil || amount.Sign() <= 0 {
		return "", fmt.Errorf("transfer amount must be positive, got %v", amount)
	}
	if len(memo) > maxMemoBytes {
		return "", fmt.Errorf("memo exceeds %d bytes", maxMemoBytes)
	}

	req := wallet.STXTransferRequest{
		Network:   network.wallet(),
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
		Memo:      memo,
	}

	return a.prompt(ctx, func(onFinish func(wallet.FinishedTx), onCancel func()) {
		a.prompter.OpenSTXTransfer(ctx, req, onFinish, onCancel)
	})
}

func (a *StacksAdapter) prompt(ctx context.Context, open func(onFinish func(wallet.FinishedTx), onCancel func())) (string, error) {
	a.promptMu.Lock()
	defer a.promptMu.Unlock()

	a.setAwaiting(true)
	defer a.setAwaiting(false)

	tx, err := awaitPrompt(ctx, open)
	if err != nil {
		return "", fmt.Errorf("stacks transaction: %w", err)
	}

	slog.Info("stacks transaction sent", slog.String("tx_id", tx.TxID))
	a.bus.Emit(EventTransactionSent, tx.TxID)

	return tx.TxID, nil
}

// ReadContract calls a read-only function through the public API. Without
// a session the network's zero address is used as sender.
func (a *StacksAdapter) ReadContract(
	ctx context.Context,
	contractAddress, contractName, function string,
	args ...clarity.Value,
) (clarity.Value, error) {
	if !c32.IsValidAddress(contractAddress) {
		return nil, fmt.Errorf("%w: contract %q", ErrInvalidAddress, contractAddress)
	}

	network := a.Network()
	sender := network.ZeroAddress
	if s := a.session(); s != nil {
		sender = a.addressOf(s)
	}

	return a.api.callReadOnly(ctx, network, sender, contractAddress, contractName, function, args)
}

func (a *StacksAdapter) GetTransactionStatus(ctx context.Context, txID string) (StacksTxStatus, error) {
	return a.api.transactionStatus(ctx, a.Network(), txID)
}

// WaitForTransaction polls the status of txID until it succeeds, fails or
// maxAttempts lookups were made. Concurrent waits for the same txID share one
// poller and one transactionConfirmed event.
func (a *StacksAdapter) WaitForTransaction(ctx context.Context, txID string, maxAttempts int, interval time.Duration) (StacksTxStatus, error) {
	lookup := func(ctx context.Context, txID string) (StacksTxStatus, error) {
		status, err := a.GetTransactionStatus(ctx, txID)
		// Runs in the single poller of txID
		if err == nil && classifyStacksTx(status).State == TxConfirmed {
			a.bus.Emit(EventTransactionConfirmed, status)
		}
		return status, err
	}

	status, err := WaitFor(ctx, a.tracker, txID, lookup, classifyStacksTx, WaitOptions{
		MaxAttempts: maxAttempts,
		Interval:    interval,
	})
	if err != nil {
		var failed *TransactionFailedError
		if errors.As(err, &failed) {
			slog.Warn("stacks transaction failed",
				slog.String("tx_id", txID),
				slog.String("reason", failed.Reason),
			)
		}
		return StacksTxStatus{}, err
	}
	return status, nil
}

// SwitchNetwork retargets the adapter. The session is kept.
func (a *StacksAdapter) SwitchNetwork(name string) error {
	a.mu.Lock()
	network, ok := a.networks[name]
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("unknown stacks network %q", name)
	}
	a.network = network
	a.mu.Unlock()

	slog.Info("stacks network switched", slog.String("network", name))
	a.bus.Emit(EventNetworkChanged, name)
	return nil
}

func (a *StacksAdapter) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	return a.TransferSTX(ctx, req.To, req.Amount, req.Memo)
}

func (a *StacksAdapter) Read(ctx context.Context, req ReadRequest) (any, error) {
	args, err := clarityArgs(req.Args)
	if err != nil {
		return nil, err
	}
	return a.ReadContract(ctx, req.Contract, req.ContractName, req.Method, args...)
}

func (a *StacksAdapter) On(event eventbus.Event, h *eventbus.Handler) {
	a.bus.On(event, h)
}

func (a *StacksAdapter) Off(event eventbus.Event, h *eventbus.Handler) {
	a.bus.Off(event, h)
}

func (a *StacksAdapter) ListenerCount(event eventbus.Event) int {
	return a.bus.Count(event)
}

type StacksAdapterOption interface {
	Apply(*StacksAdapter)
}

// WithStacksHTTPClient replaces the client used for the Stacks API.
type WithStacksHTTPClient struct {
	Client *retryablehttp.Client
}

func (w WithStacksHTTPClient) Apply(a *StacksAdapter) {
	a.api = &stacksAPI{client: w.Client}
}

// WithStacksTracker shares a transaction tracker between adapters.
type WithStacksTracker struct {
	Tracker *Tracker
}

func (w WithStacksTracker) Apply(a *StacksAdapter) {
	a.tracker = w.Tracker
}
