package chain

import (
	"context"
	"math/big"

	"github.com/Mantelijo/multichain-wallet/internal/clarity"
	"github.com/Mantelijo/multichain-wallet/internal/eventbus"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ChainAdapter is the capability contract every wallet adapter implements.
type ChainAdapter interface {
	// Name returns the chain name of the adapter.
	Name() ChainName

	// Connect establishes a wallet session and returns the connected
	// address. Connecting an already connected adapter returns the current
	// address without prompting the user again.
	Connect(ctx context.Context) (string, error)

	// Disconnect ends the session. It never fails when no session exists.
	Disconnect(ctx context.Context) error

	// State returns a consistent snapshot of the connection.
	State() ConnectionState

	IsConnected() bool

	// Transfer submits a native value transfer and returns its transaction
	// id. It does not wait for confirmation.
	Transfer(ctx context.Context, req TransferRequest) (string, error)

	// Read performs a read-only contract call.
	Read(ctx context.Context, req ReadRequest) (any, error)

	// On registers h for event, Off removes that same handler.
	On(event eventbus.Event, h *eventbus.Handler)
	Off(event eventbus.Event, h *eventbus.Handler)

	// ListenerCount returns the number of handlers registered for event.
	ListenerCount(event eventbus.Event) int
}

// EvmWallet is a ChainAdapter which can move its wallet between networks.
type EvmWallet interface {
	ChainAdapter

	// SwitchToTarget switches the wallet to the configured target network.
	SwitchToTarget(ctx context.Context) error

	// RefreshChainID queries the wallet's active network id.
	RefreshChainID(ctx context.Context) (uint64, error)
}

type ChainName string

const (
	Base   ChainName = "base"
	Stacks ChainName = "stacks"
)

// Adapter events
const (
	EventConnect              eventbus.Event = "connect"
	EventDisconnect           eventbus.Event = "disconnect"
	EventAccountChanged       eventbus.Event = "accountChanged"
	EventChainChanged         eventbus.Event = "chainChanged"
	EventNetworkChanged       eventbus.Event = "networkChanged"
	EventTransactionSent      eventbus.Event = "transactionSent"
	EventTransactionConfirmed eventbus.Event = "transactionConfirmed"
)

// ConnectionState of a single adapter. Address is empty exactly when
// Connected is false.
type ConnectionState struct {
	Address   string
	ChainID   uint64
	Connected bool
}

// TransferRequest moves native currency. Data is only used by EVM chains and
// Memo only by Stacks.
type TransferRequest struct {
	To     string
	Amount *big.Int
	Data   []byte
	Memo   string
}

// ReadRequest describes a read-only contract call. EVM chains use ABI and
// expect Go values in Args, Stacks uses ContractName and expects
// clarity.Value args.
type ReadRequest struct {
	Contract     string
	ContractName string
	ABI          abi.ABI
	Method       string
	Args         []any
}

func clarityArgs(args []any) ([]clarity.Value, error) {
	out := make([]clarity.Value, len(args))
	for i, a := range args {
		v, ok := a.(clarity.Value)
		if !ok {
			return nil, &ArgumentError{Index: i, Got: a}
		}
		out[i] = v
	}
	return out, nil
}
