package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

const (
	SignatureHeader          = "X-Zendesk-Webhook-Signature"
	SignatureTimestampHeader = "X-Zendesk-Webhook-Signature-Timestamp"
)

// Sign returns the base64 HMAC-SHA256 of timestamp+body, the way Zendesk signs deliveries.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the delivery. Missing headers or
// an empty secret never verify.
func VerifySignature(secret, signature, timestamp string, body []byte) bool {
	if secret == "" || signature == "" || timestamp == "" {
		return false
	}
	expected := Sign(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
