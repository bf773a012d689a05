package clarity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const maxDepth = 32

var (
	ErrTruncated = errors.New("clarity: truncated value")

	two128     = new(big.Int).Lsh(big.NewInt(1), 128)
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxUInt128 = new(big.Int).Sub(two128, big.NewInt(1))
)

// Serialize encodes v with the Clarity consensus serialization.
func Serialize(v Value) ([]byte, error) {
	return appendValue(nil, v, 0)
}

// ToHex returns the 0x-prefixed hex serialization of v, the form expected by
// the read-only call endpoint.
func ToHex(v Value) (string, error) {
	b, err := Serialize(v)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(b), nil
}

func appendValue(buf []byte, v Value, depth int) ([]byte, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("clarity: value nested deeper than %d", maxDepth)
	}
	if v == nil {
		return nil, errors.New("clarity: nil value")
	}
	buf = append(buf, byte(v.Type()))

	switch t := v.(type) {
	case IntValue:
		if t.V == nil || t.V.Cmp(minInt128) < 0 || t.V.Cmp(maxInt128) > 0 {
			return nil, fmt.Errorf("clarity: int out of 128 bit range")
		}
		n := new(big.Int).Set(t.V)
		if n.Sign() < 0 {
			n.Add(n, two128)
		}
		return append(buf, n.FillBytes(make([]byte, 16))...), nil
	case UIntValue:
		if t.V == nil || t.V.Sign() < 0 || t.V.Cmp(maxUInt128) > 0 {
			return nil, fmt.Errorf("clarity: uint out of 128 bit range")
		}
		return append(buf, t.V.FillBytes(make([]byte, 16))...), nil
	case BoolValue, NoneValue:
		return buf, nil
	case BufferValue:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(t)))
		return append(buf, t...), nil
	case StringASCIIValue:
		for i := 0; i < len(t); i++ {
			if t[i] > 0x7e || t[i] < 0x20 && t[i] != '\n' && t[i] != '\t' && t[i] != '\r' {
				return nil, fmt.Errorf("clarity: non ascii character in string-ascii")
			}
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(t)))
		return append(buf, t...), nil
	case StringUTF8Value:
		if !utf8.ValidString(string(t)) {
			return nil, fmt.Errorf("clarity: invalid utf8 in string-utf8")
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(t)))
		return append(buf, t...), nil
	case StandardPrincipal:
		buf = append(buf, t.Version)
		return append(buf, t.Hash160[:]...), nil
	case ContractPrincipal:
		if len(t.Name) == 0 || len(t.Name) > 128 {
			return nil, fmt.Errorf("clarity: invalid contract name %q", t.Name)
		}
		buf = append(buf, t.Version)
		buf = append(buf, t.Hash160[:]...)
		buf = append(buf, byte(len(t.Name)))
		return append(buf, t.Name...), nil
	case SomeValue:
		return appendValue(buf, t.V, depth+1)
	case ResponseOkValue:
		return appendValue(buf, t.V, depth+1)
	case ResponseErrValue:
		return appendValue(buf, t.V, depth+1)
	case ListValue:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(t)))
		var err error
		for _, item := range t {
			if buf, err = appendValue(buf, item, depth+1); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case TupleValue:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(t)))
		var err error
		for _, k := range t.sortedKeys() {
			if len(k) == 0 || len(k) > 128 {
				return nil, fmt.Errorf("clarity: invalid tuple key %q", k)
			}
			buf = append(buf, byte(len(k)))
			buf = append(buf, k...)
			if buf, err = appendValue(buf, t[k], depth+1); err != nil {
				return nil, err
			}
		}
		return buf, nil
	}
	return nil, fmt.Errorf("clarity: unsupported value %T", v)
}

// Deserialize decodes a single serialized value. Trailing bytes are an error.
func Deserialize(b []byte) (Value, error) {
	d := &decoder{b: b}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.b) {
		return nil, fmt.Errorf("clarity: %d trailing bytes", len(d.b)-d.pos)
	}
	return v, nil
}

// FromHex decodes a 0x-prefixed serialized value.
func FromHex(s string) (Value, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("clarity: decoding hex: %w", err)
	}
	return Deserialize(b)
}

type decoder struct {
	b   []byte
	pos int
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.b) {
		return nil, ErrTruncated
	}
	out := d.b[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}

func (d *decoder) u32() (int, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	n := binary.BigEndian.Uint32(b)
	// Every element occupies at least one byte
	if int64(n) > int64(len(d.b)-d.pos) {
		return 0, ErrTruncated
	}
	return int(n), nil
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("clarity: value nested deeper than %d", maxDepth)
	}
	tb, err := d.take(1)
	if err != nil {
		return nil, err
	}

	switch TypeID(tb[0]) {
	case TypeInt:
		b, err := d.take(16)
		if err != nil {
			return nil, err
		}
		n := new(big.Int).SetBytes(b)
		if b[0]&0x80 != 0 {
			n.Sub(n, two128)
		}
		return IntValue{V: n}, nil
	case TypeUInt:
		b, err := d.take(16)
		if err != nil {
			return nil, err
		}
		return UIntValue{V: new(big.Int).SetBytes(b)}, nil
	case TypeBoolTrue:
		return BoolValue(true), nil
	case TypeBoolFalse:
		return BoolValue(false), nil
	case TypeOptionalNone:
		return NoneValue{}, nil
	case TypeBuffer, TypeStringASCII, TypeStringUTF8:
		n, err := d.u32()
		if err != nil {
			return nil, err
		}
		b, err := d.take(n)
		if err != nil {
			return nil, err
		}
		switch TypeID(tb[0]) {
		case TypeStringASCII:
			return StringASCIIValue(b), nil
		case TypeStringUTF8:
			return StringUTF8Value(b), nil
		}
		return BufferValue(append([]byte{}, b...)), nil
	case TypePrincipalStandard, TypePrincipalContract:
		b, err := d.take(21)
		if err != nil {
			return nil, err
		}
		p := StandardPrincipal{Version: b[0]}
		copy(p.Hash160[:], b[1:])
		if TypeID(tb[0]) == TypePrincipalStandard {
			return p, nil
		}
		nl, err := d.take(1)
		if err != nil {
			return nil, err
		}
		name, err := d.take(int(nl[0]))
		if err != nil {
			return nil, err
		}
		return ContractPrincipal{StandardPrincipal: p, Name: string(name)}, nil
	case TypeOptionalSome, TypeResponseOk, TypeResponseErr:
		inner, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		switch TypeID(tb[0]) {
		case TypeResponseOk:
			return ResponseOkValue{V: inner}, nil
		case TypeResponseErr:
			return ResponseErrValue{V: inner}, nil
		}
		return SomeValue{V: inner}, nil
	case TypeList:
		n, err := d.u32()
		if err != nil {
			return nil, err
		}
		list := make(ListValue, 0, n)
		for i := 0; i < n; i++ {
			item, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case TypeTuple:
		n, err := d.u32()
		if err != nil {
			return nil, err
		}
		tuple := make(TupleValue, n)
		for i := 0; i < n; i++ {
			kl, err := d.take(1)
			if err != nil {
				return nil, err
			}
			key, err := d.take(int(kl[0]))
			if err != nil {
				return nil, err
			}
			item, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			tuple[string(key)] = item
		}
		return tuple, nil
	}
	return nil, fmt.Errorf("clarity: unknown type id 0x%02x", tb[0])
}
