package repository

import (
	"context"
	"fmt"
	"time"

	"chonta-api/internal/domain"
	"chonta-api/pkg/database"
	apperrors "chonta-api/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PostgresStore is the authoritative CatalogStore.
type PostgresStore struct {
	db *database.PostgresDB
}

func NewPostgresStore(db *database.PostgresDB) *PostgresStore {
	return &PostgresStore{db: db}
}

const activityColumns = `id, name, category, date, location, max_participants,
	current_participants, tokens_reward, status, organizer, created_at, updated_at`

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(
		&a.ID, &a.Name, &a.Category, &a.Date, &a.Location, &a.MaxParticipants,
		&a.CurrentParticipants, &a.TokensReward, &a.Status, &a.Organizer,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresStore) GetActivities(ctx context.Context) ([]domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities ORDER BY id`, activityColumns)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (r *PostgresStore) GetActivity(ctx context.Context, id int) (*domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE id = $1`, activityColumns)

	a, err := scanActivity(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

func (r *PostgresStore) GetUpcomingActivities(ctx context.Context, after time.Time) ([]domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE date >= $1 ORDER BY date`, activityColumns)

	rows, err := r.db.Pool.Query(ctx, query, after)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

const userColumns = `address, name, balance, tier, joined_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.Address, &u.Name, &u.Balance, &u.Tier, &u.JoinedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresStore) GetUsers(ctx context.Context) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY address`, userColumns)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PostgresStore) GetUser(ctx context.Context, address string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE address = $1`, userColumns)

	u, err := scanUser(r.db.Pool.QueryRow(ctx, query, address))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *PostgresStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (address, name, balance, tier, joined_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (address) DO UPDATE
		SET name = EXCLUDED.name,
		    balance = EXCLUDED.balance,
		    tier = EXCLUDED.tier,
		    updated_at = NOW()
	`

	joined := user.JoinedAt
	if joined.IsZero() {
		joined = time.Now()
	}

	if _, err := r.db.Pool.Exec(ctx, query, user.Address, user.Name, user.Balance, user.Tier, joined); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *PostgresStore) GetTopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY balance DESC, address LIMIT $1`, userColumns)

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// EnrollInActivity inserts the participation and claims a capacity slot in
// one transaction. The UPDATE's capacity guard is what enforces
// current_participants <= max_participants under concurrent enrollment. The
// record starts as enrolling; the caller promotes it to enrolled once the
// wallet-side leg has landed, and the reconcile worker settles any record
// left behind by a crash in between.
func (r *PostgresStore) EnrollInActivity(ctx context.Context, activityID int, address string) (*domain.EnrollResult, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin enroll tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var existing string
	err = tx.QueryRow(ctx,
		`SELECT id FROM participations WHERE activity_id = $1 AND user_address = $2`,
		activityID, address,
	).Scan(&existing)
	if err == nil {
		return &domain.EnrollResult{
			Success: false,
			Message: "already enrolled in this activity",
		}, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing participation: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE activities
		SET current_participants = current_participants + 1,
		    status = CASE WHEN current_participants + 1 >= max_participants THEN 'full' ELSE 'available' END,
		    updated_at = NOW()
		WHERE id = $1 AND current_participants < max_participants
	`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim activity slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := r.activityExists(ctx, tx, activityID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NewNotFoundError("activity not found")
		}
		return nil, apperrors.NewActivityFullError(activityID)
	}

	participationID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO participations (id, activity_id, user_address, status, tokens_earned, enrolled_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
	`, participationID, activityID, address, domain.ParticipationEnrolling)
	if err != nil {
		return nil, fmt.Errorf("failed to insert participation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit enroll tx: %w", err)
	}

	return &domain.EnrollResult{
		Success:         true,
		ParticipationID: participationID,
		TokensEarned:    0,
		Message:         "enrolled",
	}, nil
}

func (r *PostgresStore) activityExists(ctx context.Context, tx pgx.Tx, activityID int) (bool, error) {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM activities WHERE id = $1`, activityID).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check activity: %w", err)
	}
	return true, nil
}

const participationColumns = `id, activity_id, user_address, status, tokens_earned, enrolled_at, completed_at, updated_at`

func scanParticipation(row pgx.Row) (*domain.Participation, error) {
	var p domain.Participation
	err := row.Scan(&p.ID, &p.ActivityID, &p.UserAddress, &p.Status, &p.TokensEarned,
		&p.EnrolledAt, &p.CompletedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresStore) GetParticipation(ctx context.Context, address string, activityID int) (*domain.Participation, error) {
	query := fmt.Sprintf(`SELECT %s FROM participations WHERE user_address = $1 AND activity_id = $2`, participationColumns)

	p, err := scanParticipation(r.db.Pool.QueryRow(ctx, query, address, activityID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return p, nil
}

func (r *PostgresStore) SetParticipationStatus(ctx context.Context, participationID string, status domain.ParticipationStatus) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE participations SET status = $2, updated_at = NOW() WHERE id = $1`,
		participationID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to set participation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("participation not found")
	}
	return nil
}

// CompleteActivity pays the activity's configured reward. The status guard in
// the UPDATE makes completion exactly-once under concurrent redemption.
func (r *PostgresStore) CompleteActivity(ctx context.Context, participationID string) (*domain.CompleteResult, error) {
	var tokens int
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE participations p
		SET status = 'completed',
		    tokens_earned = a.tokens_reward,
		    completed_at = NOW(),
		    updated_at = NOW()
		FROM activities a
		WHERE p.id = $1 AND a.id = p.activity_id AND p.status <> 'completed'
		RETURNING a.tokens_reward
	`, participationID).Scan(&tokens)

	if err == pgx.ErrNoRows {
		// Either the record is missing or it is already completed.
		var activityID int
		lookupErr := r.db.Pool.QueryRow(ctx,
			`SELECT activity_id FROM participations WHERE id = $1 AND status = 'completed'`,
			participationID,
		).Scan(&activityID)
		if lookupErr == nil {
			return nil, apperrors.NewAlreadyCompletedError(activityID)
		}
		return nil, apperrors.NewNotFoundError("participation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete participation: %w", err)
	}

	return &domain.CompleteResult{
		Success:      true,
		TokensEarned: tokens,
		Message:      "activity completed",
	}, nil
}

func (r *PostgresStore) Unenroll(ctx context.Context, address string, activityID int) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin unenroll tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM participations WHERE user_address = $1 AND activity_id = $2`,
		address, activityID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete participation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("participation not found")
	}

	_, err = tx.Exec(ctx, `
		UPDATE activities
		SET current_participants = GREATEST(current_participants - 1, 0),
		    status = CASE WHEN GREATEST(current_participants - 1, 0) >= max_participants THEN 'full' ELSE 'available' END,
		    updated_at = NOW()
		WHERE id = $1
	`, activityID)
	if err != nil {
		return fmt.Errorf("failed to release activity slot: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresStore) GetStuckParticipations(ctx context.Context, olderThan time.Time) ([]domain.Participation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM participations
		WHERE status IN ('enrolling', 'completing') AND updated_at < $1
		ORDER BY updated_at
	`, participationColumns)

	rows, err := r.db.Pool.Query(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to get stuck participations: %w", err)
	}
	defer rows.Close()

	var out []domain.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

const rewardColumns = `id, name, description, cost, category, available, created_at, updated_at`

func scanReward(row pgx.Row) (*domain.Reward, error) {
	var rw domain.Reward
	err := row.Scan(&rw.ID, &rw.Name, &rw.Description, &rw.Cost, &rw.Category,
		&rw.Available, &rw.CreatedAt, &rw.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rw, nil
}

func (r *PostgresStore) GetRewards(ctx context.Context) ([]domain.Reward, error) {
	query := fmt.Sprintf(`SELECT %s FROM rewards ORDER BY id`, rewardColumns)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get rewards: %w", err)
	}
	defer rows.Close()

	var rewards []domain.Reward
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, *rw)
	}
	return rewards, rows.Err()
}

func (r *PostgresStore) GetReward(ctx context.Context, id int) (*domain.Reward, error) {
	query := fmt.Sprintf(`SELECT %s FROM rewards WHERE id = $1`, rewardColumns)

	rw, err := scanReward(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return rw, nil
}

func (r *PostgresStore) RedeemReward(ctx context.Context, rewardID int, address string) (*domain.Redemption, error) {
	reward, err := r.GetReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, apperrors.NewNotFoundError("reward not found")
	}
	if !reward.Available {
		return nil, apperrors.NewRewardUnavailableError(rewardID)
	}

	redemption := &domain.Redemption{
		ID:          uuid.NewString(),
		RewardID:    rewardID,
		UserAddress: address,
		Cost:        reward.Cost,
	}

	err = r.db.Pool.QueryRow(ctx, `
		INSERT INTO redemptions (id, reward_id, user_address, cost, redeemed_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING redeemed_at
	`, redemption.ID, rewardID, address, reward.Cost).Scan(&redemption.RedeemedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record redemption: %w", err)
	}

	return redemption, nil
}

func (r *PostgresStore) GetStats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{LastUpdate: time.Now()}

	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM activities),
			(SELECT COUNT(*) FROM participations),
			(SELECT COUNT(*) FROM participations WHERE status = 'completed'),
			(SELECT COALESCE(SUM(tokens_earned), 0) FROM participations WHERE status = 'completed')
	`).Scan(&stats.TotalUsers, &stats.TotalActivities, &stats.TotalParticipations,
		&stats.CompletedCount, &stats.TokensDistributed)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats, nil
}

func (r *PostgresStore) ReconcileActivities(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE activities a
		SET current_participants = LEAST(sub.cnt, a.max_participants),
		    status = CASE WHEN sub.cnt >= a.max_participants THEN 'full' ELSE 'available' END,
		    updated_at = NOW()
		FROM (
			SELECT activity_id, COUNT(*) AS cnt
			FROM participations
			GROUP BY activity_id
		) sub
		WHERE a.id = sub.activity_id
		  AND a.current_participants <> LEAST(sub.cnt, a.max_participants)
	`)
	if err != nil {
		return fmt.Errorf("failed to reconcile activities: %w", err)
	}
	return nil
}
