package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// VerifyPaystackSignature checks the x-paystack-signature header
// against an HMAC-SHA512 of the raw request body keyed with the
// secret key. Comparison is constant time.
func VerifyPaystackSignature(body []byte, signature, secretKey string) bool {
	if signature == "" || secretKey == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyFlutterwaveSignature checks the verif-hash header against the
// configured secret hash. Flutterwave sends a static shared secret
// rather than a body digest. Comparison is constant time.
func VerifyFlutterwaveSignature(header, secretHash string) bool {
	if header == "" || secretHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(secretHash)) == 1
}
