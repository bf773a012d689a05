// Package clarity models Clarity values and their consensus serialization,
// which is the argument and result encoding of Stacks read-only calls.
package clarity

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/Mantelijo/multichain-wallet/internal/c32"
)

type TypeID byte

const (
	TypeInt               TypeID = 0x00
	TypeUInt              TypeID = 0x01
	TypeBuffer            TypeID = 0x02
	TypeBoolTrue          TypeID = 0x03
	TypeBoolFalse         TypeID = 0x04
	TypePrincipalStandard TypeID = 0x05
	TypePrincipalContract TypeID = 0x06
	TypeResponseOk        TypeID = 0x07
	TypeResponseErr       TypeID = 0x08
	TypeOptionalNone      TypeID = 0x09
	TypeOptionalSome      TypeID = 0x0a
	TypeList              TypeID = 0x0b
	TypeTuple             TypeID = 0x0c
	TypeStringASCII       TypeID = 0x0d
	TypeStringUTF8        TypeID = 0x0e
)

// Value is a Clarity value.
type Value interface {
	Type() TypeID
}

type (
	IntValue  struct{ V *big.Int }
	UIntValue struct{ V *big.Int }
	BoolValue bool
	// BufferValue is a raw byte buffer
	BufferValue       []byte
	StringASCIIValue  string
	StringUTF8Value   string
	NoneValue         struct{}
	SomeValue         struct{ V Value }
	ResponseOkValue   struct{ V Value }
	ResponseErrValue  struct{ V Value }
	ListValue         []Value
	TupleValue        map[string]Value
	StandardPrincipal struct {
		Version byte
		Hash160 [20]byte
	}
	ContractPrincipal struct {
		StandardPrincipal
		Name string
	}
)

func (IntValue) Type() TypeID         { return TypeInt }
func (UIntValue) Type() TypeID        { return TypeUInt }
func (BufferValue) Type() TypeID      { return TypeBuffer }
func (StringASCIIValue) Type() TypeID { return TypeStringASCII }
func (StringUTF8Value) Type() TypeID  { return TypeStringUTF8 }
func (NoneValue) Type() TypeID        { return TypeOptionalNone }
func (SomeValue) Type() TypeID        { return TypeOptionalSome }
func (ResponseOkValue) Type() TypeID  { return TypeResponseOk }
func (ResponseErrValue) Type() TypeID { return TypeResponseErr }
func (ListValue) Type() TypeID        { return TypeList }
func (TupleValue) Type() TypeID       { return TypeTuple }
func (StandardPrincipal) Type() TypeID {
	return TypePrincipalStandard
}
func (ContractPrincipal) Type() TypeID {
	return TypePrincipalContract
}

func (b BoolValue) Type() TypeID {
	if b {
		return TypeBoolTrue
	}
	return TypeBoolFalse
}

func Uint(v uint64) UIntValue               { return UIntValue{V: new(big.Int).SetUint64(v)} }
func Int(v int64) IntValue                  { return IntValue{V: big.NewInt(v)} }
func Bool(v bool) BoolValue                 { return BoolValue(v) }
func Buffer(b []byte) BufferValue           { return BufferValue(b) }
func StringASCII(s string) StringASCIIValue { return StringASCIIValue(s) }
func StringUTF8(s string) StringUTF8Value   { return StringUTF8Value(s) }
func None() NoneValue                       { return NoneValue{} }
func Some(v Value) SomeValue                { return SomeValue{V: v} }
func Ok(v Value) ResponseOkValue            { return ResponseOkValue{V: v} }
func Err(v Value) ResponseErrValue          { return ResponseErrValue{V: v} }
func List(vs ...Value) ListValue            { return ListValue(vs) }

// Principal parses a standard ("SP...") or contract ("SP....name") principal.
func Principal(s string) (Value, error) {
	addr, name, isContract := strings.Cut(s, ".")
	version, hash, err := c32.ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	std := StandardPrincipal{Version: version, Hash160: hash}
	if !isContract {
		return std, nil
	}
	if name == "" || len(name) > 128 {
		return nil, fmt.Errorf("invalid contract name %q", name)
	}
	return ContractPrincipal{StandardPrincipal: std, Name: name}, nil
}

// String renders the principal in its address form.
func (p StandardPrincipal) String() string {
	addr, err := c32.Address(p.Version, p.Hash160)
	if err != nil {
		return fmt.Sprintf("<invalid principal version %d>", p.Version)
	}
	return addr
}

func (p ContractPrincipal) String() string {
	return p.StandardPrincipal.String() + "." + p.Name
}

// sortedKeys returns tuple keys in the order they are serialized.
func (t TupleValue) sortedKeys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Native converts v into plain Go values: *big.Int for integers, bool,
// []byte, string, nil for none, []any for lists and map[string]any for
// tuples. Responses and optionals are unwrapped.
func Native(v Value) any {
	switch t := v.(type) {
	case IntValue:
		return t.V
	case UIntValue:
		return t.V
	case BoolValue:
		return bool(t)
	case BufferValue:
		return []byte(t)
	case StringASCIIValue:
		return string(t)
	case StringUTF8Value:
		return string(t)
	case NoneValue:
		return nil
	case SomeValue:
		return Native(t.V)
	case ResponseOkValue:
		return Native(t.V)
	case ResponseErrValue:
		return Native(t.V)
	case StandardPrincipal:
		return t.String()
	case ContractPrincipal:
		return t.String()
	case ListValue:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Native(item)
		}
		return out
	case TupleValue:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Native(item)
		}
		return out
	}
	return nil
}
