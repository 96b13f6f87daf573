package service

import (
	"context"
	"time"

	"chonta-api/internal/domain"
	"chonta-api/internal/repository"
	"chonta-api/internal/statestore"
	apperrors "chonta-api/pkg/errors"
	"chonta-api/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 7 * 24 * time.Hour

// sessionClaims are the wallet session token contents.
type sessionClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// WalletService owns wallet identity: connect/disconnect, session tokens,
// and the profile view.
type WalletService struct {
	catalog repository.CatalogStore
	wallets *statestore.Store
	board   *LeaderboardService
	secret  []byte
	log     *logger.Logger
}

func NewWalletService(catalog repository.CatalogStore, wallets *statestore.Store, board *LeaderboardService, sessionSecret string, log *logger.Logger) *WalletService {
	return &WalletService{
		catalog: catalog,
		wallets: wallets,
		board:   board,
		secret:  []byte(sessionSecret),
		log:     log,
	}
}

// Connect creates or reloads the user for a wallet address and issues a
// session token. First connect stamps the join time.
func (s *WalletService) Connect(ctx context.Context, req *domain.ConnectRequest) (*domain.ConnectResponse, error) {
	if req.Address == "" {
		return nil, apperrors.NewValidationError("address is required", nil)
	}

	user, err := s.catalog.GetUser(ctx, req.Address)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if user == nil {
		name := req.Name
		if name == "" {
			name = shortAddress(req.Address)
		}
		user = &domain.User{
			Address:  req.Address,
			Name:     name,
			Balance:  0,
			Tier:     domain.TierNuevo,
			JoinedAt: now,
		}
		if err := s.catalog.UpsertUser(ctx, user); err != nil {
			return nil, err
		}
		s.log.WithField("address", req.Address).Info("new wallet joined")
	}

	snap, err := s.wallets.SetUser(ctx, req.Address, &domain.WalletUser{
		Address:  user.Address,
		Name:     user.Name,
		Tier:     user.Tier,
		JoinedAt: user.JoinedAt,
	})
	if err != nil {
		return nil, err
	}
	user.Balance = snap.State.Tokens
	user.Tier = domain.TierForBalance(user.Balance)

	token, err := s.IssueSession(user.Address, user.Name)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue session", err)
	}

	return &domain.ConnectResponse{
		Token:   token,
		User:    user,
		Message: "wallet connected",
	}, nil
}

// Disconnect clears the wallet snapshot. The session token stays valid until
// expiry but points at an empty wallet.
func (s *WalletService) Disconnect(ctx context.Context, session *domain.Session) error {
	if !session.Connected() {
		return apperrors.NewNotConnectedError()
	}
	if _, err := s.wallets.Clear(ctx, session.Address); err != nil {
		return err
	}
	s.log.WithField("address", session.Address).Info("wallet disconnected")
	return nil
}

// Profile returns the wallet's identity plus derived progress.
func (s *WalletService) Profile(ctx context.Context, session *domain.Session) (*domain.Profile, error) {
	if !session.Connected() {
		return nil, apperrors.NewNotConnectedError()
	}

	snap, err := s.wallets.Load(ctx, session.Address)
	if err != nil {
		return nil, err
	}

	user, err := s.catalog.GetUser(ctx, session.Address)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &domain.User{
			Address: session.Address,
			Name:    session.Name,
		}
	}
	user.Balance = snap.State.Tokens
	user.Tier = domain.TierForBalance(user.Balance)

	profile := &domain.Profile{
		User:    user,
		Balance: snap.State.Tokens,
		Tier:    user.Tier,
	}
	if s.board != nil {
		rank, err := s.board.Rank(ctx, session.Address)
		if err != nil {
			s.log.WithError(err).WithField("address", session.Address).Warn("failed to read leaderboard rank")
		} else {
			profile.Rank = rank
		}
	}
	for _, rec := range snap.State.Activities {
		if rec.Completed {
			profile.CompletedCount++
		} else {
			profile.EnrolledCount++
		}
	}
	return profile, nil
}

// IssueSession signs a session token for the wallet address.
func (s *WalletService) IssueSession(address, name string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateSession verifies a session token and returns the wallet session.
func (s *WalletService) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, apperrors.NewAuthenticationError("invalid or expired session")
	}
	return &domain.Session{Address: claims.Subject, Name: claims.Name}, nil
}

// syncBalance pushes the wallet balance into the catalog user row and the
// leaderboard. Failures are logged, not surfaced: the snapshot already holds
// the authoritative balance.
func syncBalance(ctx context.Context, catalog repository.CatalogStore, board *LeaderboardService, log *logger.Logger, session *domain.Session, balance int) {
	user, err := catalog.GetUser(ctx, session.Address)
	if err == nil {
		if user == nil {
			user = &domain.User{Address: session.Address, Name: session.Name}
		}
		user.Balance = balance
		user.Tier = domain.TierForBalance(balance)
		err = catalog.UpsertUser(ctx, user)
	}
	if err != nil {
		log.WithError(err).WithField("address", session.Address).Warn("failed to sync balance to catalog")
	}

	if board != nil {
		if err := board.SetScore(ctx, session.Address, session.Name, balance); err != nil {
			log.WithError(err).WithField("address", session.Address).Warn("failed to update leaderboard")
		}
	}
}

func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}
