package handler

import (
	"encoding/json"
	"net/http"
)

// failureBody is the relay's standard error envelope. Reason carries the
// flat machine-readable reason string.
type failureBody struct {
	Ok     bool   `json:"ok"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"ok":false,"status":"failed","reason":"encode_failed"}`, http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

// writeRaw writes a pre-encoded JSON body.
func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// writeFailure sends the standard failure envelope.
func writeFailure(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, failureBody{Ok: false, Status: "failed", Reason: reason})
}
