package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fedeportes/torneo-engine/models"
	"github.com/lib/pq"
)

var (
	ErrStandingNotFound = errors.New("standing not found")
	ErrStandingConflict = errors.New("standing already exists for this registration")
)

type StandingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error
	ListByPhase(ctx context.Context, exec SQLExecutor, phaseID int) ([]*models.Standing, error)
	// UpdateComputed overwrites the recomputed counters and rank. The manual
	// rank column is deliberately not in the statement.
	UpdateComputed(ctx context.Context, exec SQLExecutor, standing *models.Standing) error
	SetManualRank(ctx context.Context, exec SQLExecutor, phaseID int, registrationRef int64, position *int) error
	ClearManualRanks(ctx context.Context, exec SQLExecutor, phaseID int) error
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error {
	if len(standings) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO standings
			(phase_id, registration_ref, matches_played, wins, draws, losses,
			 points, score_for, score_against, score_diff, rank_position, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	for _, standing := range standings {
		if standing.UpdatedAt.IsZero() {
			standing.UpdatedAt = time.Now()
		}
		err := executor.QueryRowContext(ctx, query,
			standing.PhaseID, standing.RegistrationRef, standing.MatchesPlayed,
			standing.Wins, standing.Draws, standing.Losses, standing.Points,
			standing.ScoreFor, standing.ScoreAgainst, standing.ScoreDiff,
			standing.RankPosition, standing.UpdatedAt,
		).Scan(&standing.ID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return ErrStandingConflict
			}
			return fmt.Errorf("failed to create standing for registration %d: %w", standing.RegistrationRef, err)
		}
	}
	return nil
}

func (r *postgresStandingRepository) scanStanding(rowScanner interface{ Scan(...interface{}) error }) (*models.Standing, error) {
	var s models.Standing
	err := rowScanner.Scan(
		&s.ID, &s.PhaseID, &s.RegistrationRef, &s.MatchesPlayed,
		&s.Wins, &s.Draws, &s.Losses, &s.Points,
		&s.ScoreFor, &s.ScoreAgainst, &s.ScoreDiff,
		&s.RankPosition, &s.ManualRankPosition, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresStandingRepository) ListByPhase(ctx context.Context, exec SQLExecutor, phaseID int) ([]*models.Standing, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, phase_id, registration_ref, matches_played, wins, draws, losses,
		       points, score_for, score_against, score_diff,
		       rank_position, manual_rank_position, updated_at
		FROM standings
		WHERE phase_id = $1
		ORDER BY id ASC`

	rows, err := executor.QueryContext(ctx, query, phaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for phase %d: %w", phaseID, err)
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, scanErr := r.scanStanding(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}

func (r *postgresStandingRepository) UpdateComputed(ctx context.Context, exec SQLExecutor, standing *models.Standing) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE standings SET
			matches_played = $1, wins = $2, draws = $3, losses = $4,
			points = $5, score_for = $6, score_against = $7, score_diff = $8,
			rank_position = $9, updated_at = NOW()
		WHERE id = $10`

	result, err := executor.ExecContext(ctx, query,
		standing.MatchesPlayed, standing.Wins, standing.Draws, standing.Losses,
		standing.Points, standing.ScoreFor, standing.ScoreAgainst, standing.ScoreDiff,
		standing.RankPosition, standing.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) SetManualRank(ctx context.Context, exec SQLExecutor, phaseID int, registrationRef int64, position *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE standings SET manual_rank_position = $1, updated_at = NOW()
		WHERE phase_id = $2 AND registration_ref = $3`

	result, err := executor.ExecContext(ctx, query, position, phaseID, registrationRef)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) ClearManualRanks(ctx context.Context, exec SQLExecutor, phaseID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE standings SET manual_rank_position = NULL, updated_at = NOW() WHERE phase_id = $1`
	_, err := executor.ExecContext(ctx, query, phaseID)
	return err
}
