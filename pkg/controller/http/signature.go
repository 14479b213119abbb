package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// GitHubSignatureHeader carries the signature of GitHub webhooks
	GitHubSignatureHeader = "X-Hub-Signature-256"
	// APISignatureHeader carries the signature of /api/v1 requests
	APISignatureHeader = "X-Herald-Signature-256"
)

// Sign returns the "sha256=<hex>" HMAC of payload
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// verifySignature checks an HMAC-SHA256 signature with or without the
// "sha256=" prefix
func verifySignature(secret string, payload []byte, signature string) bool {
	if signature == "" || secret == "" {
		return false
	}

	signature = strings.TrimPrefix(signature, "sha256=")
	expected := strings.TrimPrefix(Sign(secret, payload), "sha256=")

	return hmac.Equal([]byte(signature), []byte(expected))
}
