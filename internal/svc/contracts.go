package svc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"reflect"
	"strconv"

	"github.com/Mantelijo/multichain-wallet/internal/clarity"
	"github.com/Mantelijo/multichain-wallet/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrContractNotConfigured = errors.New("contract not configured")

// ReadStacksContract calls a read-only function of the configured Stacks
// contract. args are hex encoded clarity values.
func ReadStacksContract(ctx context.Context, w *Wallets, function string, args []string) (clarity.Value, error) {
	address, name := w.Settings.StacksContractAddress, w.Settings.StacksContractName
	if address == "" || name == "" {
		return nil, fmt.Errorf("%w: set %s and %s", ErrContractNotConfigured, config.STACKS_CONTRACT_ADDRESS, config.STACKS_CONTRACT_NAME)
	}

	values := make([]clarity.Value, len(args))
	for i, arg := range args {
		v, err := clarity.FromHex(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		values[i] = v
	}

	slog.Debug("reading stacks contract",
		slog.String("contract", address+"."+name),
		slog.String("function", function),
	)
	return w.Stacks.ReadContract(ctx, address, name, function, values...)
}

// ReadBaseContract calls a view method of the configured Base contract.
// args are converted to the method input types.
func ReadBaseContract(ctx context.Context, w *Wallets, method string, args []string) ([]any, error) {
	address, abiPath := w.Settings.BaseContractAddress, w.Settings.BaseContractABI
	if address == "" || abiPath == "" {
		return nil, fmt.Errorf("%w: set %s and %s", ErrContractNotConfigured, config.BASE_CONTRACT_ADDRESS, config.BASE_CONTRACT_ABI)
	}

	contractABI, err := loadABI(abiPath)
	if err != nil {
		return nil, err
	}

	m, ok := contractABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("method %q not found in %s", method, abiPath)
	}
	if len(args) != len(m.Inputs) {
		return nil, fmt.Errorf("method %s takes %d arguments, got %d", method, len(m.Inputs), len(args))
	}

	values := make([]any, len(args))
	for i, arg := range args {
		v, err := abiArg(m.Inputs[i].Type, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, m.Inputs[i].Type, err)
		}
		values[i] = v
	}

	slog.Debug("reading base contract",
		slog.String("contract", address),
		slog.String("method", method),
	)
	return w.Base.ReadContract(ctx, address, contractABI, method, values...)
}

func loadABI(path string) (abi.ABI, error) {
	f, err := os.Open(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to open abi: %w", err)
	}
	defer f.Close()

	parsed, err := abi.JSON(f)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse abi %s: %w", path, err)
	}
	return parsed, nil
}

// abiArg converts a command line argument into the Go value abi.Pack
// expects for t.
func abiArg(t abi.Type, arg string) (any, error) {
	switch t.T {
	case abi.StringTy:
		return arg, nil

	case abi.BoolTy:
		return strconv.ParseBool(arg)

	case abi.AddressTy:
		if !common.IsHexAddress(arg) {
			return nil, fmt.Errorf("invalid address %q", arg)
		}
		return common.HexToAddress(arg), nil

	case abi.IntTy, abi.UintTy:
		n, ok := new(big.Int).SetString(arg, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", arg)
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %q", arg)
		}
		goType := t.GetType()
		if goType == reflect.TypeOf(&big.Int{}) {
			return n, nil
		}
		v := reflect.New(goType).Elem()
		if t.T == abi.UintTy {
			if !n.IsUint64() || v.OverflowUint(n.Uint64()) {
				return nil, fmt.Errorf("%q overflows %s", arg, t)
			}
			v.SetUint(n.Uint64())
		} else {
			if !n.IsInt64() || v.OverflowInt(n.Int64()) {
				return nil, fmt.Errorf("%q overflows %s", arg, t)
			}
			v.SetInt(n.Int64())
		}
		return v.Interface(), nil

	case abi.BytesTy:
		return hexutil.Decode(arg)

	case abi.FixedBytesTy:
		b, err := hexutil.Decode(arg)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("want %d bytes, got %d", t.Size, len(b))
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v.Interface(), nil
	}

	return nil, fmt.Errorf("unsupported argument type %s", t)
}
