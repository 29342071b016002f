package stacks

import (
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Network identifies the chain a transaction targets.
type Network struct {
	TransactionVersion byte
	ChainID            uint32
	AddressVersion     byte
}

var (
	Mainnet = Network{TransactionVersion: 0x00, ChainID: 0x00000001, AddressVersion: VersionMainnetP2PKH}
	Testnet = Network{TransactionVersion: 0x80, ChainID: 0x80000000, AddressVersion: VersionTestnetP2PKH}
)

// Transaction wire constants (SIP-005).
const (
	authTypeStandard        = 0x04
	hashModeP2PKH           = 0x00
	keyEncodingCompressed   = 0x00
	anchorModeAny           = 0x03
	postConditionModeAllow  = 0x01
	payloadTypeContractCall = 0x02
)

// ContractCall describes the single payload kind the relay emits.
type ContractCall struct {
	ContractAddress string   // c32 address of the deployer
	ContractName    string   // e.g. "stableswap-swap-helper-v-1-4"
	FunctionName    string   // e.g. "swap-helper-a"
	FunctionArgs    [][]byte // serialized Clarity values, in call order
}

// TxOptions carries everything SignContractCall needs beyond the key. Post
// conditions are deliberately absent: the relay broadcasts with
// post-condition mode Allow and trusts the pool contract's own checks.
type TxOptions struct {
	Fee   uint64 // micro-STX
	Nonce uint64
	Call  ContractCall
}

// SignedTransaction is a fully serialized single-signature transaction
// ready for the broadcast endpoint.
type SignedTransaction struct {
	Raw  []byte
	TxID string
}

// SignContractCall builds a standard single-sig P2PKH contract-call
// transaction, computes the SIP-005 sighash, signs it, and returns the
// serialized result.
//
// The sighash is computed over the transaction with fee, nonce, and
// signature zeroed, then folded together with the auth type and the real
// fee and nonce before signing.
func (s *Signer) SignContractCall(opts TxOptions) (*SignedTransaction, error) {
	payload, err := serializeContractCall(opts.Call)
	if err != nil {
		return nil, err
	}

	var emptySig [65]byte
	cleared := serializeTransaction(s.network, s.hash160, 0, 0, emptySig, payload)
	initialSigHash := sha512.Sum512_256(cleared)

	presign := make([]byte, 0, 32+1+8+8)
	presign = append(presign, initialSigHash[:]...)
	presign = append(presign, authTypeStandard)
	presign = binary.BigEndian.AppendUint64(presign, opts.Fee)
	presign = binary.BigEndian.AppendUint64(presign, opts.Nonce)
	digest := sha512.Sum512_256(presign)

	sig, err := ethcrypto.Sign(digest[:], s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("stacks: sign transaction: %w", err)
	}

	// go-ethereum emits r || s || v; Stacks stores v || r || s.
	var stacksSig [65]byte
	stacksSig[0] = sig[64]
	copy(stacksSig[1:], sig[:64])

	raw := serializeTransaction(s.network, s.hash160, opts.Fee, opts.Nonce, stacksSig, payload)
	txid := sha512.Sum512_256(raw)

	return &SignedTransaction{
		Raw:  raw,
		TxID: hex.EncodeToString(txid[:]),
	}, nil
}

// serializeTransaction lays out the full transaction wire format around a
// pre-serialized payload.
func serializeTransaction(network Network, signer [20]byte, fee, nonce uint64, sig [65]byte, payload []byte) []byte {
	out := make([]byte, 0, 128+len(payload))

	out = append(out, network.TransactionVersion)
	out = binary.BigEndian.AppendUint32(out, network.ChainID)

	// Standard authorization with a single-sig spending condition.
	out = append(out, authTypeStandard)
	out = append(out, hashModeP2PKH)
	out = append(out, signer[:]...)
	out = binary.BigEndian.AppendUint64(out, nonce)
	out = binary.BigEndian.AppendUint64(out, fee)
	out = append(out, keyEncodingCompressed)
	out = append(out, sig[:]...)

	out = append(out, anchorModeAny)
	out = append(out, postConditionModeAllow)
	out = binary.BigEndian.AppendUint32(out, 0) // no post conditions

	out = append(out, payload...)
	return out
}

// serializeContractCall encodes the contract-call payload.
func serializeContractCall(call ContractCall) ([]byte, error) {
	version, h, err := DecodeAddress(call.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("stacks: contract address: %w", err)
	}
	if err := checkClarityName(call.ContractName); err != nil {
		return nil, err
	}
	if err := checkClarityName(call.FunctionName); err != nil {
		return nil, err
	}

	out := []byte{payloadTypeContractCall, version}
	out = append(out, h[:]...)
	out = append(out, byte(len(call.ContractName)))
	out = append(out, call.ContractName...)
	out = append(out, byte(len(call.FunctionName)))
	out = append(out, call.FunctionName...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(call.FunctionArgs)))
	for _, arg := range call.FunctionArgs {
		out = append(out, arg...)
	}
	return out, nil
}
