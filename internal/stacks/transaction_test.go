package stacks

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKey = "b244296d5907de9864c0b0d51f98a13c52890be0404e83f273144cd5b9960eed"

func testContractCall(t *testing.T) ContractCall {
	t.Helper()
	tokenA, err := ContractPrincipalCV("SM1793C4R5PZ4NS4VQ4WMP7SKKYVH8JZEWSZ9HCCR", "token-stx-v-1-2")
	require.NoError(t, err)
	tokenB, err := ContractPrincipalCV("SP4SZE494VC2YC5JYG7AYFQ44F5Q4PYV7DVMDPBG", "ststx-token")
	require.NoError(t, err)
	tokens, err := TupleCV(TupleEntry{Name: "a", Value: tokenA}, TupleEntry{Name: "b", Value: tokenB})
	require.NoError(t, err)

	return ContractCall{
		ContractAddress: "SM1793C4R5PZ4NS4VQ4WMP7SKKYVH8JZEWSZ9HCCR",
		ContractName:    "stableswap-swap-helper-v-1-4",
		FunctionName:    "swap-helper-a",
		FunctionArgs:    [][]byte{UintCV(100_000_000), UintCV(99_000_000), tokens},
	}
}

func TestNewSigner_KeyNormalization(t *testing.T) {
	plain, err := NewSigner(testPrivateKey, Mainnet)
	require.NoError(t, err)
	prefixed, err := NewSigner("0x"+testPrivateKey, Mainnet)
	require.NoError(t, err)
	compressed, err := NewSigner(testPrivateKey+"01", Mainnet)
	require.NoError(t, err)

	assert.Equal(t, plain.Address(), prefixed.Address())
	assert.Equal(t, plain.Address(), compressed.Address())
}

func TestSignerAddress_DecodesOnItsNetwork(t *testing.T) {
	s, err := NewSigner(testPrivateKey, Mainnet)
	require.NoError(t, err)

	version, _, err := DecodeAddress(s.Address())
	require.NoError(t, err)
	assert.Equal(t, VersionMainnetP2PKH, version)

	st, err := NewSigner(testPrivateKey, Testnet)
	require.NoError(t, err)
	version, _, err = DecodeAddress(st.Address())
	require.NoError(t, err)
	assert.Equal(t, VersionTestnetP2PKH, version)
}

func TestSignContractCall_WireLayout(t *testing.T) {
	s, err := NewSigner(testPrivateKey, Mainnet)
	require.NoError(t, err)

	tx, err := s.SignContractCall(TxOptions{
		Fee:   3000,
		Nonce: 7,
		Call:  testContractCall(t),
	})
	require.NoError(t, err)

	raw := tx.Raw
	assert.Equal(t, byte(0x00), raw[0], "mainnet version")
	assert.Equal(t, uint32(1), binary.BigEndian.Uint32(raw[1:5]), "mainnet chain id")
	assert.Equal(t, byte(authTypeStandard), raw[5])
	assert.Equal(t, byte(hashModeP2PKH), raw[6])

	// hash mode is followed by signer(20), nonce(8), fee(8).
	assert.Equal(t, uint64(7), binary.BigEndian.Uint64(raw[27:35]), "nonce")
	assert.Equal(t, uint64(3000), binary.BigEndian.Uint64(raw[35:43]), "fee")
	assert.Equal(t, byte(keyEncodingCompressed), raw[43])

	sig := raw[44:109]
	assert.NotEqual(t, make([]byte, 65), sig, "signature must be present")
	assert.LessOrEqual(t, sig[0], byte(1), "recovery id")

	assert.Equal(t, byte(anchorModeAny), raw[109])
	assert.Equal(t, byte(postConditionModeAllow), raw[110])
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(raw[111:115]), "no post conditions")
	assert.Equal(t, byte(payloadTypeContractCall), raw[115])

	assert.Len(t, tx.TxID, 64)
}

func TestSignContractCall_Deterministic(t *testing.T) {
	s, err := NewSigner(testPrivateKey, Mainnet)
	require.NoError(t, err)

	opts := TxOptions{Fee: 1, Nonce: 0, Call: testContractCall(t)}
	a, err := s.SignContractCall(opts)
	require.NoError(t, err)
	b, err := s.SignContractCall(opts)
	require.NoError(t, err)
	assert.Equal(t, a.TxID, b.TxID)

	// A different fee must change the signature and the txid.
	c, err := s.SignContractCall(TxOptions{Fee: 2, Nonce: 0, Call: testContractCall(t)})
	require.NoError(t, err)
	assert.NotEqual(t, a.TxID, c.TxID)
}

func TestSignContractCall_BadContractAddress(t *testing.T) {
	s, err := NewSigner(testPrivateKey, Mainnet)
	require.NoError(t, err)

	_, err = s.SignContractCall(TxOptions{
		Fee:   1,
		Nonce: 0,
		Call: ContractCall{
			ContractAddress: "bogus",
			ContractName:    "c",
			FunctionName:    "f",
		},
	})
	assert.Error(t, err)
}
