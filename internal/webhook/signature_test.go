package webhook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		payload []byte
	}{
		{
			name:    "video analyzed payload",
			secret:  "nicu-annotation-store",
			payload: []byte(`{"type":"video.analyzed","data":{"video_id":"abc"}}`),
		},
		{
			name:    "empty secret",
			secret:  "",
			payload: []byte(`{}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signature := Sign(tt.secret, tt.payload)
			assert.True(t, strings.HasPrefix(signature, "sha256="))
			assert.Len(t, signature, len("sha256=")+64)
			assert.Equal(t, signature, Sign(tt.secret, tt.payload), "signing is deterministic")
			assert.True(t, Verify(tt.secret, tt.payload, signature), "signature should be valid")
		})
	}
}

func TestVerify(t *testing.T) {
	secret := "test-secret"
	payload := []byte(`{"test":"data"}`)
	validSignature := Sign(secret, payload)

	tests := []struct {
		name      string
		secret    string
		payload   []byte
		signature string
		expected  bool
	}{
		{
			name:      "valid signature",
			secret:    secret,
			payload:   payload,
			signature: validSignature,
			expected:  true,
		},
		{
			name:      "invalid signature",
			secret:    secret,
			payload:   payload,
			signature: "sha256=invalid",
			expected:  false,
		},
		{
			name:      "wrong secret",
			secret:    "wrong-secret",
			payload:   payload,
			signature: validSignature,
			expected:  false,
		},
		{
			name:      "missing prefix",
			secret:    secret,
			payload:   payload,
			signature: validSignature[len("sha256="):],
			expected:  false,
		},
		{
			name:      "modified payload",
			secret:    secret,
			payload:   []byte(`{"test":"modified"}`),
			signature: validSignature,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Verify(tt.secret, tt.payload, tt.signature)
			assert.Equal(t, tt.expected, result)
		})
	}
}
