package wallet

import (
	"context"
	"math/big"

	"github.com/Mantelijo/multichain-wallet/internal/clarity"
)

// Prompter opens user facing signing prompts of a Stacks wallet. Every
// prompt eventually invokes exactly one of its callbacks; implementations
// should invoke onCancel when ctx is done.
type Prompter interface {
	// ShowConnect asks the user to authenticate app.
	ShowConnect(ctx context.Context, app AppDetails, onFinish func(UserData), onCancel func())

	// OpenContractCall asks the user to sign and broadcast a contract call.
	OpenContractCall(ctx context.Context, req ContractCallRequest, onFinish func(FinishedTx), onCancel func())

	// OpenSTXTransfer asks the user to sign and broadcast a STX transfer.
	OpenSTXTransfer(ctx context.Context, req STXTransferRequest, onFinish func(FinishedTx), onCancel func())
}

// AppDetails describes the application requesting authentication.
type AppDetails struct {
	Name    string
	IconURL string
}

// UserData is returned by a completed connect prompt. Wallets which do not
// report addresses must report the public key they authenticated with.
type UserData struct {
	MainnetAddress string
	TestnetAddress string
	PublicKey      []byte
}

type PostConditionMode int

const (
	// PostConditionDeny rejects any asset transfer not covered by a post
	// condition.
	PostConditionDeny PostConditionMode = iota
	PostConditionAllow
)

func (m PostConditionMode) String() string {
	if m == PostConditionAllow {
		return "allow"
	}
	return "deny"
}

type ConditionCode string

const (
	ConditionEqual        ConditionCode = "eq"
	ConditionGreater      ConditionCode = "gt"
	ConditionGreaterEqual ConditionCode = "gte"
	ConditionLess         ConditionCode = "lt"
	ConditionLessEqual    ConditionCode = "lte"
)

// PostCondition constrains the amount of an asset a principal may send.
// Empty Asset means STX.
type PostCondition struct {
	Principal string
	Code      ConditionCode
	Amount    *big.Int
	Asset     string
}

// Network identifies the Stacks network a prompt signs for.
type Network struct {
	Name       string
	CoreAPIURL string
	ChainID    uint32
}

type ContractCallRequest struct {
	Network           Network
	ContractAddress   string
	ContractName      string
	FunctionName      string
	FunctionArgs      []clarity.Value
	PostConditionMode PostConditionMode
	PostConditions    []PostCondition
}

type STXTransferRequest struct {
	Network   Network
	Recipient string
	// Amount in micro-STX
	Amount *big.Int
	Memo   string
}

// FinishedTx is reported by a completed transaction prompt.
type FinishedTx struct {
	TxID  string
	TxRaw string
}
