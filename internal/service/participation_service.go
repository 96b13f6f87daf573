package service

import (
	"context"
	"errors"
	"time"

	"chonta-api/internal/domain"
	"chonta-api/internal/repository"
	"chonta-api/internal/statestore"
	apperrors "chonta-api/pkg/errors"
	"chonta-api/pkg/logger"
)

// ParticipationService composes catalog mutations with wallet snapshot
// mutations behind a single enroll/complete/unenroll surface.
type ParticipationService struct {
	catalog repository.CatalogStore
	wallets *statestore.Store
	board   *LeaderboardService
	log     *logger.Logger
}

func NewParticipationService(catalog repository.CatalogStore, wallets *statestore.Store, board *LeaderboardService, log *logger.Logger) *ParticipationService {
	return &ParticipationService{
		catalog: catalog,
		wallets: wallets,
		board:   board,
		log:     log,
	}
}

// Enroll enrolls the session's wallet in an activity. Duplicate enrollment
// fails with AlreadyEnrolled and never creates a second record.
func (s *ParticipationService) Enroll(ctx context.Context, session *domain.Session, activityID int) (*domain.EnrollResponse, error) {
	if !session.Connected() {
		return nil, apperrors.NewNotConnectedError()
	}

	activity, err := s.catalog.GetActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, apperrors.NewNotFoundError("activity not found")
	}

	// The wallet enrollment list is checked before touching the catalog:
	// a completed activity still blocks re-enrollment.
	enrolled, err := s.wallets.IsEnrolled(ctx, session.Address, activityID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, apperrors.NewAlreadyEnrolledError(activityID)
	}

	result, err := s.catalog.EnrollInActivity(ctx, activityID, session.Address)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, apperrors.NewAlreadyEnrolledError(activityID)
	}

	snap, err := s.wallets.UpsertEnrollment(ctx, session.Address, domain.WalletEnrollment{
		ActivityID: activityID,
		Name:       activity.Name,
	})
	if err != nil {
		return nil, err
	}

	// Both legs landed; settle the catalog record. A failure here leaves it
	// in enrolling, which the reconcile worker promotes.
	if err := s.catalog.SetParticipationStatus(ctx, result.ParticipationID, domain.ParticipationEnrolled); err != nil {
		s.log.WithError(err).WithField("participation_id", result.ParticipationID).Warn("failed to settle enrollment")
	}

	var enrolledAt time.Time
	for _, rec := range snap.State.Activities {
		if rec.ActivityID == activityID {
			enrolledAt = rec.EnrolledAt
		}
	}

	s.log.WithFields(map[string]interface{}{
		"address":     session.Address,
		"activity_id": activityID,
	}).Info("enrolled in activity")

	return &domain.EnrollResponse{
		ParticipationID: result.ParticipationID,
		ActivityID:      activityID,
		ActivityName:    activity.Name,
		EnrolledAt:      enrolledAt,
		Message:         "enrolled",
	}, nil
}

// Status returns the wallet's participation record for an activity, nil when
// it has none.
func (s *ParticipationService) Status(ctx context.Context, address string, activityID int) (*domain.Participation, error) {
	return s.catalog.GetParticipation(ctx, address, activityID)
}

// Complete marks the activity completed and credits the activity's declared
// reward. The credit and the completion flag land in one snapshot write.
func (s *ParticipationService) Complete(ctx context.Context, session *domain.Session, activityID int) (*domain.CompleteResponse, error) {
	if !session.Connected() {
		return nil, apperrors.NewNotConnectedError()
	}

	participation, err := s.catalog.GetParticipation(ctx, session.Address, activityID)
	if err != nil {
		return nil, err
	}
	if participation == nil {
		return nil, apperrors.NewNotFoundError("not enrolled in this activity")
	}
	if participation.Status == domain.ParticipationCompleted {
		return nil, apperrors.NewAlreadyCompletedError(activityID)
	}

	return s.completeParticipation(ctx, session, participation.ID, activityID, 0)
}

// completeParticipation runs the completion leg of the saga: the catalog
// record passes through `completing` before `completed`, so a crash between
// the catalog write and the wallet credit leaves a record the reconcile
// worker can finish. tokensOverride, when non-zero, wins over the activity's
// configured reward (the voucher path pays the voucher's amount).
func (s *ParticipationService) completeParticipation(ctx context.Context, session *domain.Session, participationID string, activityID int, tokensOverride int) (*domain.CompleteResponse, error) {
	if err := s.catalog.SetParticipationStatus(ctx, participationID, domain.ParticipationCompleting); err != nil {
		return nil, err
	}

	result, err := s.catalog.CompleteActivity(ctx, participationID)
	if err != nil {
		return nil, err
	}

	tokens := result.TokensEarned
	if tokensOverride > 0 {
		tokens = tokensOverride
	}

	snap, err := s.wallets.CompleteEnrollment(ctx, session.Address, activityID, tokens)
	if err != nil {
		if errors.Is(err, statestore.ErrNotEnrolled) {
			// Catalog record exists without a wallet record (older
			// client). Recreate and credit.
			if _, uerr := s.wallets.UpsertEnrollment(ctx, session.Address, domain.WalletEnrollment{ActivityID: activityID}); uerr != nil {
				return nil, uerr
			}
			snap, err = s.wallets.CompleteEnrollment(ctx, session.Address, activityID, tokens)
		}
		if err != nil {
			return nil, err
		}
	}

	syncBalance(ctx, s.catalog, s.board, s.log, session, snap.State.Tokens)

	var completedAt time.Time
	for _, rec := range snap.State.Activities {
		if rec.ActivityID == activityID && rec.CompletedAt != nil {
			completedAt = *rec.CompletedAt
		}
	}

	s.log.WithFields(map[string]interface{}{
		"address":     session.Address,
		"activity_id": activityID,
		"tokens":      tokens,
	}).Info("activity completed")

	return &domain.CompleteResponse{
		ActivityID:   activityID,
		TokensEarned: tokens,
		NewBalance:   snap.State.Tokens,
		Tier:         domain.TierForBalance(snap.State.Tokens),
		CompletedAt:  completedAt,
		Message:      "activity completed",
	}, nil
}

// Unenroll removes the wallet record and releases the catalog slot.
// Completed activities cannot be unenrolled; the earned tokens stay.
func (s *ParticipationService) Unenroll(ctx context.Context, session *domain.Session, activityID int) error {
	if !session.Connected() {
		return apperrors.NewNotConnectedError()
	}

	snap, err := s.wallets.Load(ctx, session.Address)
	if err != nil {
		return err
	}
	for _, rec := range snap.State.Activities {
		if rec.ActivityID == activityID && rec.Completed {
			return apperrors.NewAlreadyCompletedError(activityID)
		}
	}

	if err := s.catalog.Unenroll(ctx, session.Address, activityID); err != nil {
		// A missing catalog record is fine when a wallet record exists
		// (fixture fallback may have lost it); keep going so the wallet
		// side is cleaned up.
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return err
		}
	}

	if _, err := s.wallets.RemoveEnrollment(ctx, session.Address, activityID); err != nil {
		if errors.Is(err, statestore.ErrNotEnrolled) {
			return apperrors.NewNotFoundError("not enrolled in this activity")
		}
		return err
	}

	s.log.WithFields(map[string]interface{}{
		"address":     session.Address,
		"activity_id": activityID,
	}).Info("unenrolled from activity")
	return nil
}
