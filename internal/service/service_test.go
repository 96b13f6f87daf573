package service

import (
	"context"
	"testing"
	"time"

	"chonta-api/internal/domain"
	"chonta-api/internal/repository"
	"chonta-api/internal/statestore"
	"chonta-api/pkg/logger"
	"chonta-api/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret"
	walletAddr  = "0x1111111111111111111111111111111111111111"
	walletAddr2 = "0x2222222222222222222222222222222222222222"
)

type testEnv struct {
	mini          *miniredis.Miniredis
	redis         *redis.Client
	catalog       *repository.FixtureStore
	wallets       *statestore.Store
	board         *LeaderboardService
	activities    *ActivityService
	participation *ParticipationService
	vouchers      *VoucherService
	rewards       *RewardService
	walletSvc     *WalletService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	log := logger.NewNop()
	client := redis.NewClientFromAddr(mr.Addr(), "staging", log.Logger)
	t.Cleanup(func() { _ = client.Close() })

	catalog := repository.NewFixtureStore()
	wallets := statestore.New(client)
	board := NewLeaderboardService(catalog, client, log)
	participation := NewParticipationService(catalog, wallets, board, log)
	vouchers := NewVoucherService(catalog, wallets, participation, DefaultCodebook(), client, testSecret, log)
	rewards := NewRewardService(catalog, wallets, board, log)
	walletSvc := NewWalletService(catalog, wallets, board, testSecret, log)

	return &testEnv{
		mini:          mr,
		redis:         client,
		catalog:       catalog,
		wallets:       wallets,
		board:         board,
		activities:    NewActivityService(catalog, client, log),
		participation: participation,
		vouchers:      vouchers,
		rewards:       rewards,
		walletSvc:     walletSvc,
	}
}

// connect establishes a wallet session and returns it.
func (e *testEnv) connect(t *testing.T, address string) *domain.Session {
	t.Helper()
	resp, err := e.walletSvc.Connect(context.Background(), &domain.ConnectRequest{
		Address: address,
		Name:    "Tester",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	return &domain.Session{Address: address, Name: "Tester"}
}

// balance reads the wallet's current token balance.
func (e *testEnv) balance(t *testing.T, address string) int {
	t.Helper()
	snap, err := e.wallets.Load(context.Background(), address)
	require.NoError(t, err)
	return snap.State.Tokens
}

// fundWallet credits tokens directly through the store.
func (e *testEnv) fundWallet(t *testing.T, address string, amount int) {
	t.Helper()
	_, err := e.wallets.AddTokens(context.Background(), address, amount)
	require.NoError(t, err)
}

// atTime pins the voucher service clock.
func (e *testEnv) atTime(ts time.Time) {
	e.vouchers.now = func() time.Time { return ts }
}
