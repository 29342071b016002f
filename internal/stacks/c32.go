// Package stacks implements the minimal Stacks wire layer the relay needs:
// c32check address encoding, SIP-005 Clarity value serialization, and
// single-signature contract-call transaction construction and signing.
package stacks

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
)

// c32Alphabet is the Crockford-style base32 alphabet used by Stacks
// addresses (no I, L, O, U).
const c32Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// Address version bytes.
const (
	VersionMainnetP2PKH byte = 22 // "SP" addresses
	VersionMainnetP2SH  byte = 20 // "SM" addresses
	VersionTestnetP2PKH byte = 26 // "ST" addresses
	VersionTestnetP2SH  byte = 21 // "SN" addresses
)

// c32Value maps an alphabet character back to its 5-bit value.
var c32Value = func() map[byte]int {
	m := make(map[byte]int, 32)
	for i := 0; i < len(c32Alphabet); i++ {
		m[c32Alphabet[i]] = i
	}
	return m
}()

// DecodeAddress parses a c32check Stacks address ("SP...", "SM...", ...)
// into its version byte and 20-byte hash160, verifying the 4-byte
// double-sha256 checksum.
func DecodeAddress(addr string) (byte, [20]byte, error) {
	var h [20]byte

	addr = strings.ToUpper(strings.TrimSpace(addr))
	if len(addr) < 7 || addr[0] != 'S' {
		return 0, h, fmt.Errorf("stacks: malformed address %q", addr)
	}

	version, ok := c32Value[addr[1]]
	if !ok {
		return 0, h, fmt.Errorf("stacks: invalid version char %q in address", addr[1])
	}

	n := big.NewInt(0)
	for i := 2; i < len(addr); i++ {
		v, ok := c32Value[addr[i]]
		if !ok {
			return 0, h, fmt.Errorf("stacks: invalid c32 char %q in address", addr[i])
		}
		n.Lsh(n, 5)
		n.Or(n, big.NewInt(int64(v)))
	}

	// hash160 (20 bytes) plus checksum (4 bytes).
	if n.BitLen() > 24*8 {
		return 0, h, fmt.Errorf("stacks: address payload too long in %q", addr)
	}
	payload := make([]byte, 24)
	n.FillBytes(payload)

	want := c32Checksum(byte(version), payload[:20])
	got := payload[20:]
	for i := range want {
		if want[i] != got[i] {
			return 0, h, fmt.Errorf("stacks: bad checksum in address %q", addr)
		}
	}

	copy(h[:], payload[:20])
	return byte(version), h, nil
}

// EncodeAddress renders a version byte and hash160 as a c32check address.
func EncodeAddress(version byte, hash160 [20]byte) string {
	payload := make([]byte, 0, 24)
	payload = append(payload, hash160[:]...)
	payload = append(payload, c32Checksum(version, hash160[:])...)

	n := new(big.Int).SetBytes(payload)
	var digits []byte
	zero := big.NewInt(0)
	mask := big.NewInt(31)
	for n.Cmp(zero) > 0 {
		d := new(big.Int).And(n, mask).Int64()
		digits = append(digits, c32Alphabet[d])
		n.Rsh(n, 5)
	}
	// Leading zero bytes of the payload are preserved as '0' digits.
	for _, b := range payload {
		if b != 0 {
			break
		}
		digits = append(digits, '0')
	}

	var sb strings.Builder
	sb.WriteByte('S')
	sb.WriteByte(c32Alphabet[version])
	for i := len(digits) - 1; i >= 0; i-- {
		sb.WriteByte(digits[i])
	}
	return sb.String()
}

// c32Checksum returns the first 4 bytes of sha256(sha256(version || data)).
func c32Checksum(version byte, data []byte) []byte {
	first := sha256.Sum256(append([]byte{version}, data...))
	second := sha256.Sum256(first[:])
	return second[:4]
}
