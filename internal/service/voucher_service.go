package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"chonta-api/internal/domain"
	"chonta-api/internal/repository"
	"chonta-api/internal/statestore"
	apperrors "chonta-api/pkg/errors"
	"chonta-api/pkg/logger"
	"chonta-api/pkg/redis"

	"github.com/golang-jwt/jwt/v5"
)

// VoucherService validates redemption codes and runs the enroll-and-complete
// saga for a valid one. Codes are either HMAC-signed tokens or entries in the
// legacy printed codebook.
type VoucherService struct {
	catalog       repository.CatalogStore
	wallets       *statestore.Store
	participation *ParticipationService
	codebook      *Codebook
	redis         *redis.Client
	secret        []byte
	log           *logger.Logger
	now           func() time.Time
}

func NewVoucherService(catalog repository.CatalogStore, wallets *statestore.Store, participation *ParticipationService, codebook *Codebook, redisClient *redis.Client, voucherSecret string, log *logger.Logger) *VoucherService {
	return &VoucherService{
		catalog:       catalog,
		wallets:       wallets,
		participation: participation,
		codebook:      codebook,
		redis:         redisClient,
		secret:        []byte(voucherSecret),
		log:           log,
		now:           time.Now,
	}
}

// resolvedVoucher is the common shape of a validated code, whichever class
// it came from.
type resolvedVoucher struct {
	ActivityID   int
	ActivityName string
	Tokens       int
	Nonce        string // empty for legacy codes
}

// Redeem validates a code and completes the target activity, crediting the
// voucher's token amount. Validation order: unknown, expired, already
// completed. A failed validation mutates nothing.
func (s *VoucherService) Redeem(ctx context.Context, session *domain.Session, code string) (*domain.RedeemVoucherResponse, error) {
	if !session.Connected() {
		return nil, apperrors.NewNotConnectedError()
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewCodeUnknownError()
	}

	voucher, err := s.resolve(code)
	if err != nil {
		return nil, err
	}

	// A completed wallet record blocks replay before any mutation.
	snap, err := s.wallets.Load(ctx, session.Address)
	if err != nil {
		return nil, err
	}
	for _, rec := range snap.State.Activities {
		if rec.ActivityID == voucher.ActivityID && rec.Completed {
			return nil, apperrors.NewAlreadyCompletedError(voucher.ActivityID)
		}
	}

	// Signed vouchers are single-use across all wallets. The claim is
	// released again if the saga below fails, so a voucher that hit a full
	// activity or a transient store error stays redeemable.
	nonceKey := ""
	if voucher.Nonce != "" && s.redis != nil {
		nonceKey = s.redis.KeyBuilder.KeyVoucherNonce(voucher.Nonce)
		acquired, err := s.redis.SetNX(ctx, nonceKey, session.Address, redis.TTLVoucherNonce)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to claim voucher nonce", err)
		}
		if !acquired {
			return nil, apperrors.NewAlreadyCompletedError(voucher.ActivityID)
		}
	}

	response, err := s.redeemActivity(ctx, session, voucher)
	if err != nil {
		s.releaseNonce(ctx, nonceKey)
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"address":     session.Address,
		"activity_id": voucher.ActivityID,
		"tokens":      voucher.Tokens,
	}).Info("voucher redeemed")

	return &domain.RedeemVoucherResponse{
		ActivityID:   voucher.ActivityID,
		ActivityName: voucher.ActivityName,
		TokensEarned: response.TokensEarned,
		NewBalance:   response.NewBalance,
		Tier:         response.Tier,
		CompletedAt:  response.CompletedAt,
		Message:      "voucher redeemed",
	}, nil
}

// redeemActivity runs the enroll-then-complete saga for a validated voucher.
// An enrollment may already exist from the regular flow; otherwise it is
// created here first.
func (s *VoucherService) redeemActivity(ctx context.Context, session *domain.Session, voucher *resolvedVoucher) (*domain.CompleteResponse, error) {
	participation, err := s.catalog.GetParticipation(ctx, session.Address, voucher.ActivityID)
	if err != nil {
		return nil, err
	}
	if participation != nil && participation.Status == domain.ParticipationCompleted {
		return nil, apperrors.NewAlreadyCompletedError(voucher.ActivityID)
	}

	participationID := ""
	if participation != nil {
		participationID = participation.ID
	} else {
		result, err := s.catalog.EnrollInActivity(ctx, voucher.ActivityID, session.Address)
		if err != nil {
			return nil, err
		}
		if !result.Success {
			// Raced with a concurrent enroll; pick up its record.
			existing, err := s.catalog.GetParticipation(ctx, session.Address, voucher.ActivityID)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				return nil, apperrors.NewInternalError("enrollment race lost with no record", nil)
			}
			participationID = existing.ID
		} else {
			participationID = result.ParticipationID
		}
		if _, err := s.wallets.UpsertEnrollment(ctx, session.Address, domain.WalletEnrollment{
			ActivityID: voucher.ActivityID,
			Name:       voucher.ActivityName,
		}); err != nil {
			return nil, err
		}
	}

	return s.participation.completeParticipation(ctx, session, participationID, voucher.ActivityID, voucher.Tokens)
}

// releaseNonce gives a claimed nonce back after a failed redemption.
func (s *VoucherService) releaseNonce(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.redis.Delete(ctx, key); err != nil {
		// The claim expires on its own TTL; the voucher is blocked until
		// then, not lost.
		s.log.WithError(err).WithField("key", key).Warn("failed to release voucher nonce")
	}
}

// resolve classifies and validates a raw code without touching any state.
func (s *VoucherService) resolve(code string) (*resolvedVoucher, error) {
	if legacy, ok := s.codebook.Lookup(code); ok {
		if s.now().After(legacy.ExpiresAt) {
			return nil, apperrors.NewCodeExpiredError()
		}
		return &resolvedVoucher{
			ActivityID:   legacy.ActivityID,
			ActivityName: legacy.ActivityName,
			Tokens:       legacy.Tokens,
		}, nil
	}

	// Signed tokens are the only other accepted form.
	if strings.Count(code, ".") != 2 {
		return nil, apperrors.NewCodeUnknownError()
	}

	var claims domain.VoucherClaims
	parsed, err := jwt.ParseWithClaims(code, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewCodeExpiredError()
		}
		return nil, apperrors.NewCodeUnknownError()
	}
	if !parsed.Valid || claims.ActivityID == 0 || claims.Nonce == "" {
		return nil, apperrors.NewCodeUnknownError()
	}

	return &resolvedVoucher{
		ActivityID:   claims.ActivityID,
		ActivityName: "",
		Tokens:       claims.Tokens,
		Nonce:        claims.Nonce,
	}, nil
}

// Mint signs a fresh single-use voucher for an activity. Tokens defaults to
// the activity's configured reward.
func (s *VoucherService) Mint(ctx context.Context, session *domain.Session, req *domain.MintVoucherRequest) (*domain.MintVoucherResponse, error) {
	if !session.Connected() {
		return nil, apperrors.NewNotConnectedError()
	}

	activity, err := s.catalog.GetActivity(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, apperrors.NewNotFoundError("activity not found")
	}

	tokens := req.Tokens
	if tokens <= 0 {
		tokens = activity.TokensReward
	}
	ttl := time.Duration(req.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := domain.VoucherClaims{
		ActivityID: req.ActivityID,
		Tokens:     tokens,
		Nonce:      newNonce(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	code, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to sign voucher", err)
	}

	s.log.WithFields(map[string]interface{}{
		"address":     session.Address,
		"activity_id": req.ActivityID,
		"tokens":      tokens,
	}).Info("voucher minted")

	return &domain.MintVoucherResponse{Code: code, ExpiresAt: expiresAt}, nil
}

func newNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
