package redis

import (
	"testing"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment should use prod prefix",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment should use staging prefix",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment should use staging prefix",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Unknown environment should default to prod prefix",
			environment:    "unknown",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			if kb.GetPrefix() != tt.expectedPrefix {
				t.Errorf("NewKeyBuilder(%s).GetPrefix() = %s, want %s",
					tt.environment, kb.GetPrefix(), tt.expectedPrefix)
			}
		})
	}
}

func TestKeyBuilder_KeyGeneration(t *testing.T) {
	kb := NewKeyBuilder("production")

	tests := []struct {
		name     string
		method   func() string
		expected string
	}{
		{
			name:     "WalletSnapshot key",
			method:   func() string { return kb.KeyWalletSnapshot("0xabc") },
			expected: "prod:wallet:0xabc:snapshot",
		},
		{
			name:     "WalletRevision key",
			method:   func() string { return kb.KeyWalletRevision("0xabc") },
			expected: "prod:wallet:0xabc:rev",
		},
		{
			name:     "VoucherNonce key",
			method:   func() string { return kb.KeyVoucherNonce("n-123") },
			expected: "prod:voucher:nonce:n-123",
		},
		{
			name:     "BoardTokens key",
			method:   kb.KeyBoardTokens,
			expected: "prod:board:tokens",
		},
		{
			name:     "Stats key",
			method:   kb.KeyStats,
			expected: "prod:stats:summary",
		},
		{
			name:     "Idempotency key",
			method:   func() string { return kb.KeyIdempotency("redeem:0xabc:5") },
			expected: "prod:idem:redeem:0xabc:5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.method(); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}
