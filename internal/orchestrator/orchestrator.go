package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Mantelijo/multichain-wallet/internal/chain"
	"github.com/Mantelijo/multichain-wallet/internal/eventbus"
)

// EventStateChanged is emitted on the orchestrator bus with the new State
// after every change.
const EventStateChanged eventbus.Event = "stateChanged"

// State is the combined wallet state presented to consumers.
type State struct {
	BaseAddress   string
	BaseChainID   uint64
	StacksAddress string
	IsConnecting  bool
	Error         string
}

// New composes the Base and Stacks wallets. Adapter handlers are created
// here once, so Mount and Unmount always register and remove the same
// values.
func New(base chain.EvmWallet, stacks chain.ChainAdapter) *Orchestrator {
	o := &Orchestrator{
		base:   base,
		stacks: stacks,
		bus:    eventbus.New(),
	}

	o.baseHandlers = map[eventbus.Event]*eventbus.Handler{
		chain.EventConnect: eventbus.NewHandler(func(args ...any) {
			addr := stringArg(args)
			chainID := o.base.State().ChainID
			o.update(func(s *State) {
				s.BaseAddress = addr
				s.BaseChainID = chainID
				s.Error = ""
			})
		}),
		chain.EventDisconnect: eventbus.NewHandler(func(args ...any) {
			o.update(func(s *State) {
				s.BaseAddress = ""
				s.BaseChainID = 0
			})
		}),
		chain.EventAccountChanged: eventbus.NewHandler(func(args ...any) {
			addr := stringArg(args)
			o.update(func(s *State) { s.BaseAddress = addr })
		}),
		chain.EventChainChanged: eventbus.NewHandler(func(args ...any) {
			if len(args) == 0 {
				return
			}
			if id, ok := args[0].(uint64); ok {
				o.update(func(s *State) { s.BaseChainID = id })
			}
		}),
	}

	o.stacksHandlers = map[eventbus.Event]*eventbus.Handler{
		chain.EventConnect: eventbus.NewHandler(func(args ...any) {
			addr := stringArg(args)
			o.update(func(s *State) {
				s.StacksAddress = addr
				s.Error = ""
			})
		}),
		chain.EventDisconnect: eventbus.NewHandler(func(args ...any) {
			o.update(func(s *State) { s.StacksAddress = "" })
		}),
		chain.EventNetworkChanged: eventbus.NewHandler(func(args ...any) {
			addr := o.stacks.State().Address
			o.update(func(s *State) { s.StacksAddress = addr })
		}),
	}

	return o
}

type Orchestrator struct {
	base   chain.EvmWallet
	stacks chain.ChainAdapter
	bus    *eventbus.Bus

	baseHandlers   map[eventbus.Event]*eventbus.Handler
	stacksHandlers map[eventbus.Event]*eventbus.Handler

	mounted    bool
	state      State
	connecting int
	// mounted, state and connecting mutex
	mu sync.RWMutex
}

func (o *Orchestrator) Base() chain.EvmWallet {
	return o.base
}

func (o *Orchestrator) Stacks() chain.ChainAdapter {
	return o.stacks
}

// Mount subscribes to adapter events and restores the state of sessions
// which are already connected. Mounting twice has no effect.
func (o *Orchestrator) Mount() {
	o.mu.Lock()
	if o.mounted {
		o.mu.Unlock()
		return
	}
	o.mounted = true
	o.mu.Unlock()

	for ev, h := range o.baseHandlers {
		o.base.On(ev, h)
	}
	for ev, h := range o.stacksHandlers {
		o.stacks.On(ev, h)
	}

	baseState := o.base.State()
	stacksState := o.stacks.State()
	o.update(func(s *State) {
		s.BaseAddress = baseState.Address
		s.BaseChainID = baseState.ChainID
		s.StacksAddress = stacksState.Address
	})
}

// Unmount removes exactly the handlers Mount registered.
func (o *Orchestrator) Unmount() {
	o.mu.Lock()
	if !o.mounted {
		o.mu.Unlock()
		return
	}
	o.mounted = false
	o.mu.Unlock()

	for ev, h := range o.baseHandlers {
		o.base.Off(ev, h)
	}
	for ev, h := range o.stacksHandlers {
		o.stacks.Off(ev, h)
	}
}

// ConnectBase connects the EVM wallet and then tries to move it to the
// target network. A failed switch leaves the wallet connected.
func (o *Orchestrator) ConnectBase(ctx context.Context) (string, error) {
	o.beginConnect()
	defer o.endConnect()

	addr, err := o.base.Connect(ctx)
	if err != nil {
		o.fail("failed to connect base wallet", err)
		return "", err
	}
	o.update(func(s *State) { s.BaseAddress = addr })

	if err := o.base.SwitchToTarget(ctx); err != nil {
		slog.Warn("could not switch to base network", slog.Any("error", err))
		return addr, nil
	}
	if id, err := o.base.RefreshChainID(ctx); err != nil {
		slog.Warn("could not refresh chain id", slog.Any("error", err))
	} else {
		o.update(func(s *State) { s.BaseChainID = id })
	}

	return addr, nil
}

func (o *Orchestrator) DisconnectBase(ctx context.Context) error {
	if err := o.base.Disconnect(ctx); err != nil {
		o.fail("failed to disconnect base wallet", err)
		return err
	}
	o.update(func(s *State) {
		s.BaseAddress = ""
		s.BaseChainID = 0
	})
	return nil
}

// SwitchToBase switches the EVM wallet to the target network and refreshes
// the recorded chain id.
func (o *Orchestrator) SwitchToBase(ctx context.Context) error {
	if err := o.base.SwitchToTarget(ctx); err != nil {
		o.fail("failed to switch to base network", err)
		return err
	}
	id, err := o.base.RefreshChainID(ctx)
	if err != nil {
		o.fail("failed to switch to base network", err)
		return err
	}
	o.update(func(s *State) { s.BaseChainID = id })
	return nil
}

func (o *Orchestrator) ConnectStacks(ctx context.Context) (string, error) {
	o.beginConnect()
	defer o.endConnect()

	addr, err := o.stacks.Connect(ctx)
	if err != nil {
		o.fail("failed to connect stacks wallet", err)
		return "", err
	}
	o.update(func(s *State) { s.StacksAddress = addr })
	return addr, nil
}

func (o *Orchestrator) DisconnectStacks(ctx context.Context) error {
	if err := o.stacks.Disconnect(ctx); err != nil {
		o.fail("failed to disconnect stacks wallet", err)
		return err
	}
	o.update(func(s *State) { s.StacksAddress = "" })
	return nil
}

func (o *Orchestrator) ClearError() {
	o.update(func(s *State) { s.Error = "" })
}

// State returns a snapshot of the combined state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// OnStateChange registers h to receive every new State.
func (o *Orchestrator) OnStateChange(h *eventbus.Handler) {
	o.bus.On(EventStateChanged, h)
}

func (o *Orchestrator) OffStateChange(h *eventbus.Handler) {
	o.bus.Off(EventStateChanged, h)
}

// beginConnect starts a connect; the connecting flag stays set until every
// overlapping connect has finished.
func (o *Orchestrator) beginConnect() {
	o.update(func(s *State) {
		o.connecting++
		s.IsConnecting = true
		s.Error = ""
	})
}

func (o *Orchestrator) endConnect() {
	o.update(func(s *State) {
		o.connecting--
		s.IsConnecting = o.connecting > 0
	})
}

func (o *Orchestrator) fail(msg string, err error) {
	slog.Error(msg, slog.Any("error", err))
	o.update(func(s *State) { s.Error = fmt.Sprintf("%s: %v", msg, err) })
}

// update applies fn under the lock and publishes the result outside of it.
func (o *Orchestrator) update(fn func(s *State)) {
	o.mu.Lock()
	fn(&o.state)
	snapshot := o.state
	o.mu.Unlock()

	o.bus.Emit(EventStateChanged, snapshot)
}

func stringArg(args []any) string {
	if len(args) == 0 {
		return ""
	}
	s, _ := args[0].(string)
	return s
}
