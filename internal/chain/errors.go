package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProvider is returned when no injected EVM provider is available.
	ErrNoProvider = errors.New("no ethereum wallet detected, install a web3 wallet")
	// ErrNoWalletDetected is returned when no Stacks signing prompt is available.
	ErrNoWalletDetected = errors.New("no stacks wallet detected")
	// ErrNoAccounts is returned when the wallet is locked or has no accounts.
	ErrNoAccounts = errors.New("no accounts found, unlock your wallet")
	// ErrUserCancelled is returned when the user rejects a prompt. It is
	// never retried.
	ErrUserCancelled = errors.New("user cancelled")
	// ErrNotConnected is returned when an operation needs an active session.
	ErrNotConnected = errors.New("wallet not connected")
	// ErrProviderUninitialized is returned by reads without a network handle.
	ErrProviderUninitialized = errors.New("provider not initialized")
	// ErrInvalidAddress is returned for malformed addresses at the boundary.
	ErrInvalidAddress = errors.New("invalid address")
)

// NetworkSwitchError is returned when the wallet could not switch to, or
// register, a network.
type NetworkSwitchError struct {
	ChainID uint64
	Err     error
}

func (e *NetworkSwitchError) Error() string {
	return fmt.Sprintf("failed to switch to network %d: %v", e.ChainID, e.Err)
}

func (e *NetworkSwitchError) Unwrap() error {
	return e.Err
}

// ReadCallError is a failed read-only call. Status is the HTTP status of the
// endpoint when the call went over HTTP.
type ReadCallError struct {
	Method string
	Status int
	Reason string
	Err    error
}

func (e *ReadCallError) Error() string {
	msg := fmt.Sprintf("contract read %s failed", e.Method)
	if e.Status != 0 {
		msg += fmt.Sprintf(" with status %d", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ReadCallError) Unwrap() error {
	return e.Err
}

// TransactionFailedError is returned when the chain reports a definitive
// failure for a transaction.
type TransactionFailedError struct {
	TxID   string
	Reason string
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.TxID, e.Reason)
}

// TransactionTimeoutError is returned when a transaction did not reach a
// terminal state within the allowed attempts.
type TransactionTimeoutError struct {
	TxID     string
	Attempts int
}

func (e *TransactionTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s confirmation timeout after %d attempts", e.TxID, e.Attempts)
}

// ArgumentError is returned when a call argument has the wrong type for the
// target chain.
type ArgumentError struct {
	Index int
	Got   any
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %d has unsupported type %T", e.Index, e.Got)
}
