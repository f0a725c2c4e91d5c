package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the LINE request signature.
const SignatureHeader = "X-Line-Signature"

// Sign computes the LINE webhook signature of body: base64(HMAC-SHA256(secret, body)).
func Sign(channelSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
