package service

import (
	"context"
	"testing"
	"time"

	"chonta-api/internal/domain"
	apperrors "chonta-api/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyCode = "CHT124567890"

func TestVoucherService_RedeemLegacyCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.connect(t, walletAddr)

	resp, err := env.vouchers.Redeem(ctx, session, legacyCode)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ActivityID)
	assert.Equal(t, 15, resp.TokensEarned)
	assert.Equal(t, 15, resp.NewBalance)
	assert.Equal(t, 15, env.balance(t, walletAddr))

	// The implicit enroll-then-complete left a completed record.
	completed, err := env.wallets.CompletedActivities(ctx, walletAddr)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, 1, completed[0].ActivityID)
	assert.True(t, completed[0].Completed)
}

func TestVoucherService_ReplayRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.connect(t, walletAddr)

	_, err := env.vouchers.Redeem(ctx, session, legacyCode)
	require.NoError(t, err)

	_, err = env.vouchers.Redeem(ctx, session, legacyCode)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAlreadyCompleted))
	assert.Equal(t, 15, env.balance(t, walletAddr))
}

func TestVoucherService_RedeemWithPriorEnrollment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.connect(t, walletAddr)

	_, err := env.participation.Enroll(ctx, session, 1)
	require.NoError(t, err)

	resp, err := env.vouchers.Redeem(ctx, session, legacyCode)
	require.NoError(t, err)
	assert.Equal(t, 15, resp.NewBalance)

	// The existing enrollment was completed, not duplicated.
	snap, err := env.wallets.Load(ctx, walletAddr)
	require.NoError(t, err)
	require.Len(t, snap.State.Activities, 1)
	assert.True(t, snap.State.Activities[0].Completed)
}

func TestVoucherService_ExpiredCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.connect(t, walletAddr)

	_, err := env.vouchers.Redeem(ctx, session, "CHT100000001")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCodeExpired))
	assert.Equal(t, 0, env.balance(t, walletAddr))
}

func TestVoucherService_LegacyCodePastExpiry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.connect(t, walletAddr)

	// Push the clock past the batch expiry; the same code now fails.
	env.atTime(time.Date(2028, 6, 1, 0, 0, 0, 0, time.UTC))
	_, err := env.vouchers.Redeem(ctx, session, legacyCode)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCodeExpired))
	assert.Equal(t, 0, env.balance(t, walletAddr))
}

func TestVoucherService_UnknownCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.connect(t, walletAddr)

	_, err := env.vouchers.Redeem(ctx, session, "CHT999999999")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCodeUnknown))
	assert.Equal(t, 0, env.balance(t, walletAddr))

	// No state mutation of any kind.
	snap, err := env.wallets.Load(ctx, walletAddr)
	require.NoError(t, err)
	assert.Empty(t, snap.State.Activities)
}

func TestVoucherService_RequiresConnection(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.vouchers.Redeem(ctx, &domain.Session{}, legacyCode)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotConnected))
}

func TestVoucherService_MintAndRedeemSigned(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.connect(t, walletAddr)

	minted, err := env.vouchers.Mint(ctx, session, &domain.MintVoucherRequest{
		ActivityID: 4,
		TTLMinutes: 60,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, minted.Code)

	resp, err := env.vouchers.Redeem(ctx, session, minted.Code)
	require.NoError(t, err)
	// Tokens default to the activity's configured reward.
	assert.Equal(t, 10, resp.TokensEarned)
	assert.Equal(t, 10, env.balance(t, walletAddr))
}

func TestVoucherService_SignedNonceIsSingleUse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sessionA := env.connect(t, walletAddr)
	sessionB := env.connect(t, walletAddr2)

	minted, err := env.vouchers.Mint(ctx, sessionA, &domain.MintVoucherRequest{ActivityID: 4})
	require.NoError(t, err)

	_, err = env.vouchers.Redeem(ctx, sessionA, minted.Code)
	require.NoError(t, err)

	// A different wallet replaying the same signed code is rejected.
	_, err = env.vouchers.Redeem(ctx, sessionB, minted.Code)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAlreadyCompleted))
	assert.Equal(t, 0, env.balance(t, walletAddr2))
}

func TestVoucherService_FailedRedeemKeepsVoucherRedeemable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.connect(t, walletAddr)

	// Activity 2 is seeded at capacity, so the saga fails after the nonce
	// claim.
	minted, err := env.vouchers.Mint(ctx, session, &domain.MintVoucherRequest{ActivityID: 2})
	require.NoError(t, err)

	_, err = env.vouchers.Redeem(ctx, session, minted.Code)
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeActivityFull))

	// The failed attempt released its nonce claim: a retry reports the real
	// condition again instead of a phantom completion.
	_, err = env.vouchers.Redeem(ctx, session, minted.Code)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeActivityFull))
	assert.Equal(t, 0, env.balance(t, walletAddr))

	var claims domain.VoucherClaims
	_, err = jwt.ParseWithClaims(minted.Code, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	exists, err := env.redis.Exists(ctx, env.redis.KeyBuilder.KeyVoucherNonce(claims.Nonce))
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}

func TestVoucherService_BadSignatureRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.connect(t, walletAddr)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, domain.VoucherClaims{
		ActivityID: 1,
		Tokens:     1000,
		Nonce:      "forged-nonce",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = env.vouchers.Redeem(ctx, session, forged)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCodeUnknown))
	assert.Equal(t, 0, env.balance(t, walletAddr))
}

func TestVoucherService_ExpiredSignedVoucher(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.connect(t, walletAddr)

	minted, err := env.vouchers.Mint(ctx, session, &domain.MintVoucherRequest{
		ActivityID: 4,
		TTLMinutes: 1,
	})
	require.NoError(t, err)

	env.atTime(time.Now().Add(time.Hour))
	_, err = env.vouchers.Redeem(ctx, session, minted.Code)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCodeExpired))
	assert.Equal(t, 0, env.balance(t, walletAddr))
}
