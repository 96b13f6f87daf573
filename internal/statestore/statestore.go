// Package statestore persists per-wallet state ({user, tokens, activities})
// as a single JSON snapshot per wallet, versioned by a monotonic revision
// counter. Every save is a compare-and-swap on that counter, so a stale
// writer loses with ErrRevisionConflict instead of clobbering the snapshot.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chonta-api/internal/domain"
	apperrors "chonta-api/pkg/errors"
	"chonta-api/pkg/redis"
)

// ErrRevisionConflict is returned when a save raced with another writer.
// Callers retry through Mutate.
var ErrRevisionConflict = errors.New("wallet snapshot revision conflict")

// ErrNotEnrolled is returned by record mutations that target a missing
// enrollment.
var ErrNotEnrolled = errors.New("not enrolled in activity")

const mutateAttempts = 3

// casScript installs the snapshot only when the revision counter still holds
// the value the writer loaded. KEYS[1] snapshot, KEYS[2] revision;
// ARGV[1] expected revision, ARGV[2] payload.
const casScript = `
local rev = redis.call('GET', KEYS[2])
if not rev then
	rev = '0'
end
if rev ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('INCR', KEYS[2])
return 1
`

// Store reads and writes wallet snapshots.
type Store struct {
	redis *redis.Client
	now   func() time.Time
}

func New(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient, now: time.Now}
}

// NewAt injects a clock for tests.
func NewAt(redisClient *redis.Client, now func() time.Time) *Store {
	return &Store{redis: redisClient, now: now}
}

// Load returns the wallet snapshot, or an empty version-0 snapshot when the
// wallet has never been written.
func (s *Store) Load(ctx context.Context, address string) (*domain.WalletSnapshot, error) {
	raw, err := s.redis.Get(ctx, s.redis.KeyBuilder.KeyWalletSnapshot(address))
	if err == redis.Nil {
		return &domain.WalletSnapshot{State: domain.WalletState{Activities: []domain.WalletEnrollment{}}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet snapshot: %w", err)
	}

	var snap domain.WalletSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode wallet snapshot: %w", err)
	}
	if snap.State.Activities == nil {
		snap.State.Activities = []domain.WalletEnrollment{}
	}
	return &snap, nil
}

// Save compare-and-swaps the snapshot against its loaded version. On success
// the snapshot's Version is advanced to the stored revision.
func (s *Store) Save(ctx context.Context, address string, snap *domain.WalletSnapshot) error {
	next := domain.WalletSnapshot{State: snap.State, Version: snap.Version + 1}
	payload, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to encode wallet snapshot: %w", err)
	}

	res, err := s.redis.Eval(ctx, casScript,
		[]string{
			s.redis.KeyBuilder.KeyWalletSnapshot(address),
			s.redis.KeyBuilder.KeyWalletRevision(address),
		},
		fmt.Sprintf("%d", snap.Version), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save wallet snapshot: %w", err)
	}
	if ok, _ := res.(int64); ok != 1 {
		return ErrRevisionConflict
	}

	snap.Version = next.Version
	return nil
}

// Mutate runs fn against a freshly loaded state and saves the result,
// retrying a bounded number of times on revision conflicts. Exhausting the
// retries surfaces as a conflict error, not an internal one: the wallet is
// under contention and the caller can simply try again.
func (s *Store) Mutate(ctx context.Context, address string, fn func(*domain.WalletState) error) (*domain.WalletSnapshot, error) {
	var lastErr error
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		snap, err := s.Load(ctx, address)
		if err != nil {
			return nil, err
		}
		if err := fn(&snap.State); err != nil {
			return nil, err
		}
		if err := s.Save(ctx, address, snap); err != nil {
			if errors.Is(err, ErrRevisionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return snap, nil
	}
	return nil, apperrors.NewConflictError("wallet state is under contention", lastErr)
}

// SetUser replaces the user block only when the address differs from the
// current one; a matching address is a no-op and performs no write.
func (s *Store) SetUser(ctx context.Context, address string, user *domain.WalletUser) (*domain.WalletSnapshot, error) {
	snap, err := s.Load(ctx, address)
	if err != nil {
		return nil, err
	}
	if snap.State.User != nil && user != nil && snap.State.User.Address == user.Address {
		return snap, nil
	}
	return s.Mutate(ctx, address, func(st *domain.WalletState) error {
		st.User = user
		return nil
	})
}

// UpsertEnrollment upserts an activity record by id: an existing record is
// merged and stamped, a new one is appended with enrollment defaults.
func (s *Store) UpsertEnrollment(ctx context.Context, address string, record domain.WalletEnrollment) (*domain.WalletSnapshot, error) {
	return s.Mutate(ctx, address, func(st *domain.WalletState) error {
		now := s.now()
		for i := range st.Activities {
			if st.Activities[i].ActivityID == record.ActivityID {
				merged := &st.Activities[i]
				if record.Name != "" {
					merged.Name = record.Name
				}
				if record.Status != "" {
					merged.Status = record.Status
				}
				if record.Completed {
					merged.Completed = true
				}
				if record.TokensEarned != 0 {
					merged.TokensEarned = record.TokensEarned
				}
				if record.CompletedAt != nil {
					merged.CompletedAt = record.CompletedAt
				}
				merged.UpdatedAt = now
				return nil
			}
		}

		if record.Status == "" {
			record.Status = domain.WalletEnrolled
		}
		if record.EnrolledAt.IsZero() {
			record.EnrolledAt = now
		}
		record.UpdatedAt = now
		st.Activities = append(st.Activities, record)
		return nil
	})
}

// UpdateEnrollment applies patch to the record with the given activity id.
func (s *Store) UpdateEnrollment(ctx context.Context, address string, activityID int, patch func(*domain.WalletEnrollment)) (*domain.WalletSnapshot, error) {
	return s.Mutate(ctx, address, func(st *domain.WalletState) error {
		for i := range st.Activities {
			if st.Activities[i].ActivityID == activityID {
				patch(&st.Activities[i])
				st.Activities[i].UpdatedAt = s.now()
				return nil
			}
		}
		return ErrNotEnrolled
	})
}

// CompleteEnrollment flags the record completed and credits the balance by
// tokensEarned in the same snapshot write.
func (s *Store) CompleteEnrollment(ctx context.Context, address string, activityID int, tokensEarned int) (*domain.WalletSnapshot, error) {
	return s.Mutate(ctx, address, func(st *domain.WalletState) error {
		for i := range st.Activities {
			if st.Activities[i].ActivityID != activityID {
				continue
			}
			now := s.now()
			rec := &st.Activities[i]
			rec.Completed = true
			rec.Status = domain.WalletCompleted
			rec.TokensEarned = tokensEarned
			rec.CompletedAt = &now
			rec.UpdatedAt = now
			st.Tokens += tokensEarned
			if st.User != nil {
				st.User.Tier = domain.TierForBalance(st.Tokens)
			}
			return nil
		}
		return ErrNotEnrolled
	})
}

// RemoveEnrollment deletes the record with the given activity id.
func (s *Store) RemoveEnrollment(ctx context.Context, address string, activityID int) (*domain.WalletSnapshot, error) {
	return s.Mutate(ctx, address, func(st *domain.WalletState) error {
		for i := range st.Activities {
			if st.Activities[i].ActivityID == activityID {
				st.Activities = append(st.Activities[:i], st.Activities[i+1:]...)
				return nil
			}
		}
		return ErrNotEnrolled
	})
}

// IsEnrolled is an existence predicate over the activity list. It reports
// true for completed records too; voucher redemption relies on this to block
// replay, so the conflation is deliberate.
func (s *Store) IsEnrolled(ctx context.Context, address string, activityID int) (bool, error) {
	snap, err := s.Load(ctx, address)
	if err != nil {
		return false, err
	}
	for _, rec := range snap.State.Activities {
		if rec.ActivityID == activityID {
			return true, nil
		}
	}
	return false, nil
}

// EnrolledActivities returns records not yet completed.
func (s *Store) EnrolledActivities(ctx context.Context, address string) ([]domain.WalletEnrollment, error) {
	return s.filtered(ctx, address, false)
}

// CompletedActivities returns completed records.
func (s *Store) CompletedActivities(ctx context.Context, address string) ([]domain.WalletEnrollment, error) {
	return s.filtered(ctx, address, true)
}

func (s *Store) filtered(ctx context.Context, address string, completed bool) ([]domain.WalletEnrollment, error) {
	snap, err := s.Load(ctx, address)
	if err != nil {
		return nil, err
	}
	out := []domain.WalletEnrollment{}
	for _, rec := range snap.State.Activities {
		if rec.Completed == completed {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Clear resets the wallet to its zero state.
func (s *Store) Clear(ctx context.Context, address string) (*domain.WalletSnapshot, error) {
	return s.Mutate(ctx, address, func(st *domain.WalletState) error {
		st.User = nil
		st.Tokens = 0
		st.Activities = []domain.WalletEnrollment{}
		return nil
	})
}

// AddTokens credits the balance and returns the snapshot as saved.
func (s *Store) AddTokens(ctx context.Context, address string, amount int) (*domain.WalletSnapshot, error) {
	return s.Mutate(ctx, address, func(st *domain.WalletState) error {
		st.Tokens += amount
		if st.User != nil {
			st.User.Tier = domain.TierForBalance(st.Tokens)
		}
		return nil
	})
}

// SubtractTokens debits the balance, flooring at zero.
func (s *Store) SubtractTokens(ctx context.Context, address string, amount int) (*domain.WalletSnapshot, error) {
	return s.Mutate(ctx, address, func(st *domain.WalletState) error {
		st.Tokens -= amount
		if st.Tokens < 0 {
			st.Tokens = 0
		}
		if st.User != nil {
			st.User.Tier = domain.TierForBalance(st.Tokens)
		}
		return nil
	})
}

// SetTokens overwrites the balance.
func (s *Store) SetTokens(ctx context.Context, address string, amount int) (*domain.WalletSnapshot, error) {
	return s.Mutate(ctx, address, func(st *domain.WalletState) error {
		if amount < 0 {
			amount = 0
		}
		st.Tokens = amount
		if st.User != nil {
			st.User.Tier = domain.TierForBalance(st.Tokens)
		}
		return nil
	})
}
