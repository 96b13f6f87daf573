package redis

import "fmt"

// Cache key templates
const (
	KeyWalletSnapshot = "wallet:%s:snapshot" // persisted wallet state, JSON
	KeyWalletRevision = "wallet:%s:rev"      // monotonic revision counter
	KeyVoucherNonce   = "voucher:nonce:%s"   // single-use voucher nonce lock
	KeyBoardTokens    = "board:tokens"       // leaderboard ZSET, score = balance
	KeyBoardNames     = "board:names"        // address -> display name hash
	KeyStats          = "stats:summary"      // cached platform stats, JSON
	KeyActivitiesAll  = "catalog:activities" // cached activity list, JSON
	KeyIdempotency    = "idem:%s"            // generic idempotency locks
)

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

func (kb *KeyBuilder) KeyWalletSnapshot(address string) string {
	return kb.BuildKey(fmt.Sprintf(KeyWalletSnapshot, address))
}

func (kb *KeyBuilder) KeyWalletRevision(address string) string {
	return kb.BuildKey(fmt.Sprintf(KeyWalletRevision, address))
}

func (kb *KeyBuilder) KeyVoucherNonce(nonce string) string {
	return kb.BuildKey(fmt.Sprintf(KeyVoucherNonce, nonce))
}

func (kb *KeyBuilder) KeyBoardTokens() string {
	return kb.BuildKey(KeyBoardTokens)
}

func (kb *KeyBuilder) KeyBoardNames() string {
	return kb.BuildKey(KeyBoardNames)
}

func (kb *KeyBuilder) KeyStats() string {
	return kb.BuildKey(KeyStats)
}

func (kb *KeyBuilder) KeyActivitiesAll() string {
	return kb.BuildKey(KeyActivitiesAll)
}

func (kb *KeyBuilder) KeyIdempotency(key string) string {
	return kb.BuildKey(fmt.Sprintf(KeyIdempotency, key))
}
