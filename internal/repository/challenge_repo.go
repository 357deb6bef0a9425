package repository

import (
	"context"
	"errors"
	"fmt"

	"focus/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrChallengeFull is returned when a join would exceed max_participants.
var ErrChallengeFull = errors.New("challenge_full")

// ErrAlreadyJoined is returned when a user joins a challenge twice.
var ErrAlreadyJoined = errors.New("already_joined")

// ChallengeRepository persists challenges and their participants.
type ChallengeRepository interface {
	Create(ctx context.Context, c *model.Challenge) error
	GetByID(ctx context.Context, id int64) (*model.Challenge, error)
	GetByInvitationCode(ctx context.Context, code string) (*model.Challenge, error)
	ListPublic(ctx context.Context, statuses []model.ChallengeStatus, limit, offset int) ([]model.Challenge, error)
	ListByParticipant(ctx context.Context, userID int64) ([]model.Challenge, error)
	ListByStatus(ctx context.Context, status model.ChallengeStatus) ([]model.Challenge, error)
	UpdateStatus(ctx context.Context, id int64, status model.ChallengeStatus, winnerID *int64) error

	// Join atomically checks capacity and inserts the participant row.
	Join(ctx context.Context, challengeID, userID int64) (*model.ChallengeParticipant, error)
	Leave(ctx context.Context, challengeID, userID int64) error
	GetParticipant(ctx context.Context, challengeID, userID int64) (*model.ChallengeParticipant, error)
	ListParticipants(ctx context.Context, challengeID int64) ([]model.ChallengeParticipant, error)
	UpdateParticipantScore(ctx context.Context, p *model.ChallengeParticipant) error
	Leaderboard(ctx context.Context, challengeID int64, limit int) ([]model.LeaderboardEntry, error)
}

type challengeRepo struct {
	pool *pgxpool.Pool
}

// NewChallengeRepo creates a new ChallengeRepository.
func NewChallengeRepo(pool *pgxpool.Pool) ChallengeRepository {
	return &challengeRepo{pool: pool}
}

const challengeColumns = `id, creator_id, title, description, challenge_type,
	status, target_minutes, start_date, end_date, max_participants, is_private,
	invitation_code, winner_id, created_at, updated_at`

func scanChallenge(row pgx.Row) (*model.Challenge, error) {
	var c model.Challenge
	err := row.Scan(&c.ID, &c.CreatorID, &c.Title, &c.Description, &c.Type,
		&c.Status, &c.TargetMinutes, &c.StartDate, &c.EndDate,
		&c.MaxParticipants, &c.IsPrivate, &c.InvitationCode, &c.WinnerID,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func collectChallenges(rows pgx.Rows) ([]model.Challenge, error) {
	var challenges []model.Challenge
	for rows.Next() {
		var c model.Challenge
		if err := rows.Scan(&c.ID, &c.CreatorID, &c.Title, &c.Description,
			&c.Type, &c.Status, &c.TargetMinutes, &c.StartDate, &c.EndDate,
			&c.MaxParticipants, &c.IsPrivate, &c.InvitationCode, &c.WinnerID,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning challenge row: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (r *challengeRepo) Create(ctx context.Context, c *model.Challenge) error {
	const q = `
		INSERT INTO challenges (creator_id, title, description, challenge_type,
			status, target_minutes, start_date, end_date, max_participants,
			is_private, invitation_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, q, c.CreatorID, c.Title, c.Description, c.Type,
		c.Status, c.TargetMinutes, c.StartDate, c.EndDate, c.MaxParticipants,
		c.IsPrivate, c.InvitationCode).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating challenge %q: %w", c.Title, err)
	}
	return nil
}

func (r *challengeRepo) GetByID(ctx context.Context, id int64) (*model.Challenge, error) {
	q := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`
	return scanChallenge(r.pool.QueryRow(ctx, q, id))
}

func (r *challengeRepo) GetByInvitationCode(ctx context.Context, code string) (*model.Challenge, error) {
	q := `SELECT ` + challengeColumns + ` FROM challenges WHERE invitation_code = $1 AND invitation_code <> ''`
	return scanChallenge(r.pool.QueryRow(ctx, q, code))
}

func (r *challengeRepo) ListPublic(ctx context.Context, statuses []model.ChallengeStatus, limit, offset int) ([]model.Challenge, error) {
	q := `SELECT ` + challengeColumns + ` FROM challenges
		WHERE NOT is_private AND status = ANY($1)
		ORDER BY start_date DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, statuses, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing public challenges: %w", err)
	}
	defer rows.Close()
	return collectChallenges(rows)
}

func (r *challengeRepo) ListByParticipant(ctx context.Context, userID int64) ([]model.Challenge, error) {
	q := `SELECT ` + challengeColumns + ` FROM challenges c
		WHERE EXISTS (
			SELECT 1 FROM challenge_participants p
			WHERE p.challenge_id = c.id AND p.user_id = $1 AND p.is_active
		)
		ORDER BY c.start_date DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing challenges for user %d: %w", userID, err)
	}
	defer rows.Close()
	return collectChallenges(rows)
}

func (r *challengeRepo) ListByStatus(ctx context.Context, status model.ChallengeStatus) ([]model.Challenge, error) {
	q := `SELECT ` + challengeColumns + ` FROM challenges WHERE status = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, q, status)
	if err != nil {
		return nil, fmt.Errorf("listing %s challenges: %w", status, err)
	}
	defer rows.Close()
	return collectChallenges(rows)
}

func (r *challengeRepo) UpdateStatus(ctx context.Context, id int64, status model.ChallengeStatus, winnerID *int64) error {
	const q = `UPDATE challenges SET status = $2, winner_id = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, status, winnerID); err != nil {
		return fmt.Errorf("updating challenge %d status to %s: %w", id, status, err)
	}
	return nil
}

func (r *challengeRepo) Join(ctx context.Context, challengeID, userID int64) (*model.ChallengeParticipant, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("starting transaction for challenge join: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var exists bool
	const dupQ = `SELECT EXISTS (
		SELECT 1 FROM challenge_participants
		WHERE challenge_id = $1 AND user_id = $2 AND is_active)`
	if err := tx.QueryRow(ctx, dupQ, challengeID, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking membership for challenge %d: %w", challengeID, err)
	}
	if exists {
		return nil, ErrAlreadyJoined
	}

	var count, maxParticipants int
	const capQ = `
		SELECT (SELECT COUNT(*) FROM challenge_participants
			WHERE challenge_id = $1 AND is_active),
		       max_participants
		FROM challenges WHERE id = $1
	`
	if err := tx.QueryRow(ctx, capQ, challengeID).Scan(&count, &maxParticipants); err != nil {
		return nil, fmt.Errorf("checking capacity for challenge %d: %w", challengeID, err)
	}
	if maxParticipants > 0 && count >= maxParticipants {
		return nil, ErrChallengeFull
	}

	p := &model.ChallengeParticipant{ChallengeID: challengeID, UserID: userID, IsActive: true}
	const insertQ = `
		INSERT INTO challenge_participants (challenge_id, user_id, is_active)
		VALUES ($1, $2, true)
		RETURNING id, joined_at
	`
	if err := tx.QueryRow(ctx, insertQ, challengeID, userID).Scan(&p.ID, &p.JoinedAt); err != nil {
		return nil, fmt.Errorf("joining challenge %d: %w", challengeID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing challenge join: %w", err)
	}
	return p, nil
}

func (r *challengeRepo) Leave(ctx context.Context, challengeID, userID int64) error {
	const q = `UPDATE challenge_participants SET is_active = false
		WHERE challenge_id = $1 AND user_id = $2`
	if _, err := r.pool.Exec(ctx, q, challengeID, userID); err != nil {
		return fmt.Errorf("leaving challenge %d: %w", challengeID, err)
	}
	return nil
}

func (r *challengeRepo) GetParticipant(ctx context.Context, challengeID, userID int64) (*model.ChallengeParticipant, error) {
	var p model.ChallengeParticipant
	const q = `
		SELECT id, challenge_id, user_id, total_time_minutes, daily_average,
			goal_achieved, score, rank, joined_at, is_active
		FROM challenge_participants
		WHERE challenge_id = $1 AND user_id = $2
	`
	err := r.pool.QueryRow(ctx, q, challengeID, userID).Scan(&p.ID,
		&p.ChallengeID, &p.UserID, &p.TotalTimeMinutes, &p.DailyAverage,
		&p.GoalAchieved, &p.Score, &p.Rank, &p.JoinedAt, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *challengeRepo) ListParticipants(ctx context.Context, challengeID int64) ([]model.ChallengeParticipant, error) {
	const q = `
		SELECT id, challenge_id, user_id, total_time_minutes, daily_average,
			goal_achieved, score, rank, joined_at, is_active
		FROM challenge_participants
		WHERE challenge_id = $1 AND is_active
		ORDER BY score DESC, joined_at
	`
	rows, err := r.pool.Query(ctx, q, challengeID)
	if err != nil {
		return nil, fmt.Errorf("listing participants for challenge %d: %w", challengeID, err)
	}
	defer rows.Close()

	var participants []model.ChallengeParticipant
	for rows.Next() {
		var p model.ChallengeParticipant
		if err := rows.Scan(&p.ID, &p.ChallengeID, &p.UserID,
			&p.TotalTimeMinutes, &p.DailyAverage, &p.GoalAchieved, &p.Score,
			&p.Rank, &p.JoinedAt, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scanning participant row: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *challengeRepo) UpdateParticipantScore(ctx context.Context, p *model.ChallengeParticipant) error {
	const q = `
		UPDATE challenge_participants SET
			total_time_minutes = $2, daily_average = $3, goal_achieved = $4,
			score = $5, rank = $6
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, q, p.ID, p.TotalTimeMinutes, p.DailyAverage,
		p.GoalAchieved, p.Score, p.Rank); err != nil {
		return fmt.Errorf("updating participant %d score: %w", p.ID, err)
	}
	return nil
}

func (r *challengeRepo) Leaderboard(ctx context.Context, challengeID int64, limit int) ([]model.LeaderboardEntry, error) {
	const q = `
		SELECT RANK() OVER (ORDER BY p.score DESC) AS rank,
		       p.user_id, u.username, p.score, p.total_time_minutes, p.goal_achieved
		FROM challenge_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.challenge_id = $1 AND p.is_active
		ORDER BY rank
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, q, challengeID, limit)
	if err != nil {
		return nil, fmt.Errorf("building leaderboard for challenge %d: %w", challengeID, err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.Username, &e.Score,
			&e.TotalTimeMinutes, &e.GoalAchieved); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
