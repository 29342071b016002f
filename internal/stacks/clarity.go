package stacks

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// SIP-005 Clarity value type prefixes.
const (
	clarityTypeInt               = 0x00
	clarityTypeUint              = 0x01
	clarityTypeBuffer            = 0x02
	clarityTypeBoolTrue          = 0x03
	clarityTypeBoolFalse         = 0x04
	clarityTypePrincipalStandard = 0x05
	clarityTypePrincipalContract = 0x06
	clarityTypeResponseOk        = 0x07
	clarityTypeResponseErr       = 0x08
	clarityTypeOptionalNone      = 0x09
	clarityTypeOptionalSome      = 0x0a
	clarityTypeList              = 0x0b
	clarityTypeTuple             = 0x0c
)

// maxClarityNameLen bounds tuple keys and contract/function names.
const maxClarityNameLen = 128

// UintCV serializes v as a Clarity uint (type prefix plus 16-byte
// big-endian value).
func UintCV(v uint64) []byte {
	out := make([]byte, 17)
	out[0] = clarityTypeUint
	binary.BigEndian.PutUint64(out[9:], v)
	return out
}

// StandardPrincipalCV serializes a standard principal from its c32 address.
func StandardPrincipalCV(address string) ([]byte, error) {
	version, h, err := DecodeAddress(address)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 22)
	out = append(out, clarityTypePrincipalStandard, version)
	out = append(out, h[:]...)
	return out, nil
}

// ContractPrincipalCV serializes a contract principal from its c32 address
// and contract name.
func ContractPrincipalCV(address, name string) ([]byte, error) {
	version, h, err := DecodeAddress(address)
	if err != nil {
		return nil, err
	}
	if err := checkClarityName(name); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 23+len(name))
	out = append(out, clarityTypePrincipalContract, version)
	out = append(out, h[:]...)
	out = append(out, byte(len(name)))
	out = append(out, name...)
	return out, nil
}

// TupleEntry is one named field of a Clarity tuple.
type TupleEntry struct {
	Name  string
	Value []byte
}

// TupleCV serializes a Clarity tuple. Entries are sorted lexicographically
// by name, as the canonical encoding requires.
func TupleCV(entries ...TupleEntry) ([]byte, error) {
	sorted := make([]TupleEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out := []byte{clarityTypeTuple}
	out = binary.BigEndian.AppendUint32(out, uint32(len(sorted)))
	for _, e := range sorted {
		if err := checkClarityName(e.Name); err != nil {
			return nil, err
		}
		out = append(out, byte(len(e.Name)))
		out = append(out, e.Name...)
		out = append(out, e.Value...)
	}
	return out, nil
}

// ToHex renders a serialized Clarity value the way the call-read API
// expects its arguments: 0x-prefixed hex.
func ToHex(cv []byte) string {
	return "0x" + hex.EncodeToString(cv)
}

// DeserializeUint decodes a hex-encoded Clarity value into a uint. A
// response-ok wrapper is unwrapped transparently; a response-err is an
// error. Values above 64 bits are rejected (pool amounts never approach
// them).
func DeserializeUint(hexStr string) (uint64, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
	if err != nil {
		return 0, fmt.Errorf("stacks: decode clarity hex: %w", err)
	}
	if len(raw) == 0 {
		return 0, fmt.Errorf("stacks: empty clarity value")
	}

	switch raw[0] {
	case clarityTypeResponseOk:
		raw = raw[1:]
	case clarityTypeResponseErr:
		return 0, fmt.Errorf("stacks: clarity response err: 0x%s", hex.EncodeToString(raw[1:]))
	}

	if len(raw) != 17 || raw[0] != clarityTypeUint {
		return 0, fmt.Errorf("stacks: expected clarity uint, got 0x%s", hex.EncodeToString(raw))
	}

	v := new(big.Int).SetBytes(raw[1:])
	if !v.IsUint64() {
		return 0, fmt.Errorf("stacks: clarity uint overflows uint64: %s", v)
	}
	return v.Uint64(), nil
}

func checkClarityName(name string) error {
	if name == "" || len(name) > maxClarityNameLen {
		return fmt.Errorf("stacks: invalid clarity name %q", name)
	}
	return nil
}
