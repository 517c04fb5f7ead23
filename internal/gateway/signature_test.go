package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"
)

func signBody(body []byte, key string) string {
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaystackSignature(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	key := "sk_test_abc123"

	tests := []struct {
		name      string
		body      []byte
		signature string
		key       string
		want      bool
	}{
		{"valid signature", body, signBody(body, key), key, true},
		{"wrong key", body, signBody(body, "sk_other"), key, false},
		{"tampered body", []byte(`{"event":"charge.failed"}`), signBody(body, key), key, false},
		{"empty signature", body, "", key, false},
		{"empty key", body, signBody(body, key), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPaystackSignature(tt.body, tt.signature, tt.key); got != tt.want {
				t.Errorf("VerifyPaystackSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyFlutterwaveSignature(t *testing.T) {
	tests := []struct {
		name   string
		header string
		secret string
		want   bool
	}{
		{"match", "flw-secret-hash", "flw-secret-hash", true},
		{"mismatch", "wrong-hash", "flw-secret-hash", false},
		{"empty header", "", "flw-secret-hash", false},
		{"empty secret", "flw-secret-hash", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyFlutterwaveSignature(tt.header, tt.secret); got != tt.want {
				t.Errorf("VerifyFlutterwaveSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}
