// Package token provides compact, signed tokens for embedding JSON payloads.
//
// Tokens use HMAC-SHA256 with truncated 8-byte signatures for a balance of
// security and compactness. Suitable for magic links and tour invites; not
// recommended for high-value or long-lived credentials.
//
// Token format: base64url(payload).base64url(signature)
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Generate creates a token by JSON encoding the payload and appending an
// 8-byte truncated HMAC-SHA256 signature.
func Generate[T any](payload T, secret string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	sig := h.Sum(nil)[:8]

	return base64.RawURLEncoding.EncodeToString(data) + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Parse verifies the token's signature and decodes the JSON payload into the
// generic type.
func Parse[T any](token string, secret string) (T, error) {
	var payload T

	payloadEnc, sigEnc, ok := strings.Cut(token, ".")
	if !ok {
		return payload, ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(payloadEnc)
	if err != nil {
		return payload, ErrInvalidToken
	}

	sig, err := base64.RawURLEncoding.DecodeString(sigEnc)
	if err != nil {
		return payload, ErrInvalidToken
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	expected := h.Sum(nil)[:8]

	if subtle.ConstantTimeCompare(sig, expected) != 1 {
		return payload, ErrSignatureInvalid
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, ErrInvalidToken
	}

	return payload, nil
}
