// Package c32 implements the Crockford base32 "c32check" encoding used by
// Stacks addresses.
package c32

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// Address versions
const (
	MainnetSingleSig byte = 22 // SP
	MainnetMultiSig  byte = 20 // SM
	TestnetSingleSig byte = 26 // ST
	TestnetMultiSig  byte = 21 // SN
)

var (
	ErrInvalidCharacter = errors.New("invalid c32 character")
	ErrInvalidChecksum  = errors.New("invalid c32check checksum")
	ErrInvalidAddress   = errors.New("invalid stacks address")
)

var thirtyTwo = big.NewInt(32)

// Encode encodes data as c32. Every leading zero byte becomes one leading
// '0' character.
func Encode(data []byte) string {
	zeros := 0
	for zeros < len(data) && data[zeros] == 0 {
		zeros++
	}

	n := new(big.Int).SetBytes(data)
	var digits []byte
	mod := new(big.Int)
	for n.Sign() > 0 {
		n.DivMod(n, thirtyTwo, mod)
		digits = append(digits, alphabet[mod.Int64()])
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat("0", zeros))
	for i := len(digits) - 1; i >= 0; i-- {
		sb.WriteByte(digits[i])
	}
	return sb.String()
}

// Decode reverses Encode. Input is normalized first: lowercase is accepted,
// 'O' reads as '0' and 'I'/'L' read as '1'.
func Decode(s string) ([]byte, error) {
	s = normalize(s)

	zeros := 0
	for zeros < len(s) && s[zeros] == '0' {
		zeros++
	}

	n := new(big.Int)
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(alphabet, s[i])
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCharacter, s[i])
		}
		n.Mul(n, thirtyTwo)
		n.Add(n, big.NewInt(int64(idx)))
	}

	out := make([]byte, zeros, zeros+len(n.Bytes()))
	return append(out, n.Bytes()...), nil
}

func normalize(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "O", "0")
	s = strings.ReplaceAll(s, "L", "1")
	return strings.ReplaceAll(s, "I", "1")
}

func checksum(version byte, data []byte) []byte {
	payload := append([]byte{version}, data...)
	return chainhash.DoubleHashB(payload)[:4]
}

// CheckEncode encodes data with a version character prefix and a 4 byte
// double-sha256 checksum.
func CheckEncode(version byte, data []byte) (string, error) {
	if version >= 32 {
		return "", fmt.Errorf("invalid c32 version %d", version)
	}
	payload := append(append([]byte{}, data...), checksum(version, data)...)
	return string(alphabet[version]) + Encode(payload), nil
}

// CheckDecode reverses CheckEncode and verifies the checksum.
func CheckDecode(s string) (byte, []byte, error) {
	if len(s) < 2 {
		return 0, nil, fmt.Errorf("%w: too short", ErrInvalidAddress)
	}
	s = normalize(s)
	version := strings.IndexByte(alphabet, s[0])
	if version < 0 {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidCharacter, s[0])
	}
	raw, err := Decode(s[1:])
	if err != nil {
		return 0, nil, err
	}
	if len(raw) < 4 {
		return 0, nil, fmt.Errorf("%w: payload too short", ErrInvalidAddress)
	}
	data, sum := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.Equal(sum, checksum(byte(version), data)) {
		return 0, nil, ErrInvalidChecksum
	}
	return byte(version), data, nil
}

// Address builds an "S"-prefixed Stacks address from a version and a
// hash160.
func Address(version byte, hash160 [20]byte) (string, error) {
	enc, err := CheckEncode(version, hash160[:])
	if err != nil {
		return "", err
	}
	return "S" + enc, nil
}

// ParseAddress validates a Stacks address and returns its version and
// hash160.
func ParseAddress(addr string) (byte, [20]byte, error) {
	var hash [20]byte
	if len(addr) < 5 || (addr[0] != 'S' && addr[0] != 's') {
		return 0, hash, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	version, data, err := CheckDecode(addr[1:])
	if err != nil {
		return 0, hash, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(data) != len(hash) {
		return 0, hash, fmt.Errorf("%w: hash160 has %d bytes", ErrInvalidAddress, len(data))
	}
	copy(hash[:], data)
	return version, hash, nil
}

// IsValidAddress reports whether addr is a well-formed Stacks address.
func IsValidAddress(addr string) bool {
	_, _, err := ParseAddress(addr)
	return err == nil
}

// AddressFromPublicKey derives the single-sig address of a secp256k1 public
// key.
func AddressFromPublicKey(pubKey []byte, version byte) (string, error) {
	key, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return "", fmt.Errorf("parsing public key: %w", err)
	}
	var hash [20]byte
	copy(hash[:], btcutil.Hash160(key.SerializeCompressed()))
	return Address(version, hash)
}
