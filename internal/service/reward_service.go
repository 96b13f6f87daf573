package service

import (
	"context"

	"chonta-api/internal/domain"
	"chonta-api/internal/repository"
	"chonta-api/internal/statestore"
	apperrors "chonta-api/pkg/errors"
	"chonta-api/pkg/logger"
)

// RewardService spends wallet balance against the reward catalog.
type RewardService struct {
	catalog repository.CatalogStore
	wallets *statestore.Store
	board   *LeaderboardService
	log     *logger.Logger
}

func NewRewardService(catalog repository.CatalogStore, wallets *statestore.Store, board *LeaderboardService, log *logger.Logger) *RewardService {
	return &RewardService{
		catalog: catalog,
		wallets: wallets,
		board:   board,
		log:     log,
	}
}

// List returns the reward catalog.
func (s *RewardService) List(ctx context.Context) ([]domain.Reward, error) {
	return s.catalog.GetRewards(ctx)
}

// Redeem spends tokens on a reward. A cost above the current balance fails
// with InsufficientBalance and leaves the balance untouched.
func (s *RewardService) Redeem(ctx context.Context, session *domain.Session, rewardID int) (*domain.RedeemRewardResponse, error) {
	if !session.Connected() {
		return nil, apperrors.NewNotConnectedError()
	}

	reward, err := s.catalog.GetReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, apperrors.NewNotFoundError("reward not found")
	}
	if !reward.Available {
		return nil, apperrors.NewRewardUnavailableError(rewardID)
	}

	// Debit inside Mutate so the balance check and the subtraction land in
	// one compare-and-swapped write.
	snap, err := s.wallets.Mutate(ctx, session.Address, func(st *domain.WalletState) error {
		if st.Tokens < reward.Cost {
			return apperrors.NewInsufficientBalanceError(reward.Cost, st.Tokens)
		}
		st.Tokens -= reward.Cost
		if st.User != nil {
			st.User.Tier = domain.TierForBalance(st.Tokens)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	redemption, err := s.catalog.RedeemReward(ctx, rewardID, session.Address)
	if err != nil {
		// Compensate the debit; the catalog never recorded the spend.
		if _, crediterr := s.wallets.AddTokens(ctx, session.Address, reward.Cost); crediterr != nil {
			s.log.WithError(crediterr).WithField("address", session.Address).Error("failed to refund after redemption failure")
		}
		return nil, err
	}

	syncBalance(ctx, s.catalog, s.board, s.log, session, snap.State.Tokens)

	s.log.WithFields(map[string]interface{}{
		"address":   session.Address,
		"reward_id": rewardID,
		"cost":      reward.Cost,
	}).Info("reward redeemed")

	return &domain.RedeemRewardResponse{
		RedemptionID: redemption.ID,
		RewardID:     rewardID,
		RewardName:   reward.Name,
		Cost:         reward.Cost,
		NewBalance:   snap.State.Tokens,
		RedeemedAt:   redemption.RedeemedAt,
		Message:      "reward redeemed",
	}, nil
}
