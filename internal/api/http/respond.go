package http

import (
	"encoding/json"
	"net/http"
)

// xssiPrefix makes the envelope unusable as a cross-site <script> include.
// Clients strip it before decoding.
const xssiPrefix = ")]}'\n"

// envelope is the response body of the answer-style endpoints:
// {status, message, payload}. status mirrors the HTTP status; on non-200 the
// message is meant for display to the user.
type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Payload interface{} `json:"payload,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, message string, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(xssiPrefix))
	_ = json.NewEncoder(w).Encode(envelope{Status: status, Message: message, Payload: payload})
}
