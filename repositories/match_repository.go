package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fedeportes/torneo-engine/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchNumberConflict  = errors.New("match number already used in this phase")
	ErrMatchPhaseInvalid    = errors.New("match phase conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// GetByIDForUpdate acquires a row lock on the match so the caller can
	// re-check participations before inserting into a contended slot.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByPhase(ctx context.Context, exec SQLExecutor, phaseID int) ([]*models.Match, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, winnerRef *int64, score1, score2 *int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	SetWalkover(ctx context.Context, exec SQLExecutor, id int, reason string) error
	CountByPhase(ctx context.Context, exec SQLExecutor, phaseID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, phase_id, match_number, round, status, score1, score2,
       winner_registration_ref, walkover, walkover_reason, created_at, deleted_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(phase_id, match_number, round, status, score1, score2,
			 winner_registration_ref, walkover, walkover_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.PhaseID,
		match.MatchNumber,
		match.Round,
		match.Status,
		match.Score1,
		match.Score2,
		match.WinnerRegistrationRef,
		match.Walkover,
		match.WalkoverReason,
	).Scan(&match.ID, &match.CreatedAt)

	return r.translateError(err)
}

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := rowScanner.Scan(
		&m.ID, &m.PhaseID, &m.MatchNumber, &m.Round, &m.Status,
		&m.Score1, &m.Score2, &m.WinnerRegistrationRef,
		&m.Walkover, &m.WalkoverReason, &m.CreatedAt, &m.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 AND deleted_at IS NULL`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByPhase(ctx context.Context, exec SQLExecutor, phaseID int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE phase_id = $1 AND deleted_at IS NULL
		ORDER BY match_number ASC`

	rows, err := executor.QueryContext(ctx, query, phaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for phase %d: %w", phaseID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, winnerRef *int64, score1, score2 *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET status = $1, winner_registration_ref = $2,
		    score1 = COALESCE($3, score1), score2 = COALESCE($4, score2)
		WHERE id = $5 AND deleted_at IS NULL`

	result, err := executor.ExecContext(ctx, query, status, winnerRef, score1, score2, id)
	if err != nil {
		return r.translateError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET status = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.translateError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetWalkover(ctx context.Context, exec SQLExecutor, id int, reason string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET walkover = TRUE, walkover_reason = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := executor.ExecContext(ctx, query, reason, id)
	if err != nil {
		return r.translateError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CountByPhase(ctx context.Context, exec SQLExecutor, phaseID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(*) FROM matches WHERE phase_id = $1 AND deleted_at IS NULL`

	var count int
	if err := executor.QueryRowContext(ctx, query, phaseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches for phase %d: %w", phaseID, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return ErrMatchNumberConflict
		case "foreign_key_violation":
			return ErrMatchPhaseInvalid
		}
	}
	return err
}
