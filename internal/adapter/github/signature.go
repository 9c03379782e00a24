package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature reports whether the X-Hub-Signature-256 header matches
// the HMAC-SHA256 of the exact raw payload bytes under the shared secret.
// The comparison is constant-time. It returns false (never an error) on a
// missing secret, a malformed header, or a digest mismatch; callers must
// reject the request and do no further processing.
func VerifySignature(payload []byte, signatureHeader, secret string) bool {
	if secret == "" || signatureHeader == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}
