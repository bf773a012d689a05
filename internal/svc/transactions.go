package svc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mantelijo/multichain-wallet/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxResult describes a finished transaction wait.
type TxResult struct {
	Chain    chain.ChainName
	ID       string
	Status   string
	Explorer string
}

// WaitForTransaction polls the chain named chainName until the transaction
// id is final, using the configured attempts and interval.
func WaitForTransaction(ctx context.Context, w *Wallets, chainName chain.ChainName, id string) (TxResult, error) {
	attempts, interval := w.Settings.TxMaxAttempts, w.Settings.TxPollInterval
	slog.Info("waiting for transaction",
		slog.String("chain", string(chainName)),
		slog.String("id", id),
		slog.Int("max_attempts", attempts),
		slog.Duration("interval", interval),
	)

	switch chainName {
	case chain.Base:
		hash, err := parseTxHash(id)
		if err != nil {
			return TxResult{}, err
		}
		receipt, err := w.Base.WaitForTransaction(ctx, hash, attempts, interval)
		if err != nil {
			return TxResult{}, err
		}
		res := TxResult{Chain: chain.Base, ID: hash.Hex(), Status: "success"}
		if n, ok := w.Base.Network(); ok {
			res.Explorer = n.TxURL(hash.Hex())
		}
		slog.Info("transaction confirmed",
			slog.String("id", res.ID),
			slog.Uint64("block", receipt.BlockNumber.Uint64()),
		)
		return res, nil

	case chain.Stacks:
		status, err := w.Stacks.WaitForTransaction(ctx, id, attempts, interval)
		if err != nil {
			return TxResult{}, err
		}
		return TxResult{
			Chain:    chain.Stacks,
			ID:       id,
			Status:   status.TxStatus,
			Explorer: w.Stacks.Network().TxURL(id),
		}, nil
	}

	return TxResult{}, fmt.Errorf("unknown chain %q", chainName)
}

// StacksTransactionStatus returns the current status of a Stacks
// transaction without waiting.
func StacksTransactionStatus(ctx context.Context, w *Wallets, txID string) (TxResult, error) {
	status, err := w.Stacks.GetTransactionStatus(ctx, txID)
	if err != nil {
		return TxResult{}, err
	}
	return TxResult{
		Chain:    chain.Stacks,
		ID:       txID,
		Status:   status.TxStatus,
		Explorer: w.Stacks.Network().TxURL(txID),
	}, nil
}

func parseTxHash(id string) (common.Hash, error) {
	b, err := hexutil.Decode(id)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid transaction hash %q", id)
	}
	return common.BytesToHash(b), nil
}
