// Package webhook signs, verifies and delivers JSON webhook calls.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	EventHeader     = "X-Webhook-Event"
	TimestampHeader = "X-Webhook-Timestamp"
	IDHeader        = "X-Webhook-ID"

	signaturePrefix = "sha256="
)

// SignPayload computes an HMAC-SHA256 signature of the payload using the given secret,
// returning the hex-encoded result.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeaderValue returns the X-Webhook-Signature value for payload.
func SignatureHeaderValue(payload []byte, secret string) string {
	return signaturePrefix + SignPayload(payload, secret)
}

// VerifySignature returns true when the hex-encoded signature matches the HMAC-SHA256
// of payload under the given secret.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyHeader checks a "sha256=<hex>" header value. An empty secret never
// verifies.
func VerifyHeader(payload []byte, secret, header string) bool {
	if secret == "" || !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	return VerifySignature(payload, secret, strings.TrimPrefix(header, signaturePrefix))
}
