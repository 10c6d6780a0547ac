package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Headers set on every delivery. Receivers recompute the HMAC over the raw
// body with the shared secret and compare it to SignatureHeader.
const (
	SignatureHeader = "X-Neotriage-Signature"
	EventHeader     = "X-Neotriage-Event"

	signaturePrefix = "sha256="
)

// Sign returns "sha256=<hex hmac>" of payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a SignatureHeader value in constant time.
func Verify(secret string, payload []byte, signature string) bool {
	if !strings.HasPrefix(signature, signaturePrefix) {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(Sign(secret, payload)))
}
