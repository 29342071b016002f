package stacks

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 is defined over RIPEMD-160
)

// Signer holds the server's secp256k1 key and derives the Stacks account
// it spends from.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	pubKey     []byte // compressed SEC1, 33 bytes
	hash160    [20]byte
	network    Network
}

// NormalizePrivateKey strips an optional 0x prefix and, for 33-byte hex
// keys, the trailing 01 compression marker that Stacks wallets append.
func NormalizePrivateKey(raw string) string {
	key := strings.TrimSpace(raw)
	key = strings.TrimPrefix(key, "0x")
	if len(key) == 66 && strings.HasSuffix(key, "01") {
		key = key[:64]
	}
	return key
}

// NewSigner creates a Signer from a hex-encoded secp256k1 private key.
func NewSigner(privateKeyHex string, network Network) (*Signer, error) {
	pk, err := ethcrypto.HexToECDSA(NormalizePrivateKey(privateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("stacks: invalid private key: %w", err)
	}

	pub := ethcrypto.CompressPubkey(&pk.PublicKey)

	s := &Signer{
		privateKey: pk,
		pubKey:     pub,
		network:    network,
	}
	s.hash160 = hash160(pub)
	return s, nil
}

// Address returns the signer's c32check address on its network.
func (s *Signer) Address() string {
	return EncodeAddress(s.network.AddressVersion, s.hash160)
}

// Network returns the network the signer was created for.
func (s *Signer) Network() Network {
	return s.network
}

// hash160 is ripemd160(sha256(data)), the digest Stacks addresses commit to.
func hash160(data []byte) [20]byte {
	sum := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sum[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}
