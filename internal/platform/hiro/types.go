package hiro

import "strings"

// callReadRequest is the body of a /v2/contracts/call-read call.
type callReadRequest struct {
	Sender    string   `json:"sender"`
	Arguments []string `json:"arguments"`
}

// callReadResponse is the node's answer to a read-only contract call.
type callReadResponse struct {
	Okay   bool   `json:"okay"`
	Result string `json:"result"`
	Cause  string `json:"cause"`
}

// nonceResponse is the extended API's nonce summary for an address.
type nonceResponse struct {
	LastExecutedTxNonce *uint64 `json:"last_executed_tx_nonce"`
	LastMempoolTxNonce  *uint64 `json:"last_mempool_tx_nonce"`
	PossibleNextNonce   uint64  `json:"possible_next_nonce"`
}

// TransactionStatus is the subset of the extended tx payload the
// reconciler needs.
type TransactionStatus struct {
	TxID     string `json:"tx_id"`
	TxStatus string `json:"tx_status"`
	FeeRate  string `json:"fee_rate"`
}

// Terminal tx_status values. Anything else means the transaction is still
// pending in the mempool.
const (
	TxStatusSuccess = "success"
	txStatusPrefixAbort   = "abort"
	txStatusPrefixDropped = "drop"
)

// Terminal reports whether status will never change again.
func (t TransactionStatus) Terminal() bool {
	s := t.TxStatus
	return s == TxStatusSuccess || strings.HasPrefix(s, txStatusPrefixAbort) || strings.HasPrefix(s, txStatusPrefixDropped)
}

// Succeeded reports whether the transaction executed successfully.
func (t TransactionStatus) Succeeded() bool {
	return t.TxStatus == TxStatusSuccess
}

