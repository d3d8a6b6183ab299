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
	ErrParticipationNotFound     = errors.New("participation not found")
	ErrParticipationMatchInvalid = errors.New("participation match conflict or invalid")
)

type ParticipationRepository interface {
	// CreateIfAbsent inserts a participation unless the registration already
	// occupies a slot in the match. Returns true when a row was inserted.
	// Insert-on-absent is backed by the unique (match_id, registration_ref)
	// constraint, so concurrent writers cannot double-fill a slot.
	CreateIfAbsent(ctx context.Context, exec SQLExecutor, participation *models.Participation) (bool, error)
	// DeleteByMatchAndRef removes one registration's slot in a match. Used
	// when a corrected result displaces a previously advanced participant.
	DeleteByMatchAndRef(ctx context.Context, exec SQLExecutor, matchID int, registrationRef int64) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]models.Participation, error)
	ListByMatchIDs(ctx context.Context, exec SQLExecutor, matchIDs []int) (map[int][]models.Participation, error)
}

type postgresParticipationRepository struct {
	db *sql.DB
}

func NewPostgresParticipationRepository(db *sql.DB) ParticipationRepository {
	return &postgresParticipationRepository{db: db}
}

func (r *postgresParticipationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipationRepository) CreateIfAbsent(ctx context.Context, exec SQLExecutor, participation *models.Participation) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participations (match_id, registration_ref, corner)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_id, registration_ref) DO NOTHING
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		participation.MatchID,
		participation.RegistrationRef,
		participation.Corner,
	).Scan(&participation.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict: the registration already has a slot in this match.
			return false, nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return false, ErrParticipationMatchInvalid
		}
		return false, fmt.Errorf("failed to insert participation: %w", err)
	}
	return true, nil
}

func (r *postgresParticipationRepository) DeleteByMatchAndRef(ctx context.Context, exec SQLExecutor, matchID int, registrationRef int64) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM participations WHERE match_id = $1 AND registration_ref = $2`

	result, err := executor.ExecContext(ctx, query, matchID, registrationRef)
	if err != nil {
		return fmt.Errorf("failed to delete participation of registration %d in match %d: %w", registrationRef, matchID, err)
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}

func (r *postgresParticipationRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]models.Participation, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, registration_ref, corner
		FROM participations
		WHERE match_id = $1
		ORDER BY id ASC`

	rows, err := executor.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participations for match %d: %w", matchID, err)
	}
	defer rows.Close()

	return scanParticipations(rows)
}

func (r *postgresParticipationRepository) ListByMatchIDs(ctx context.Context, exec SQLExecutor, matchIDs []int) (map[int][]models.Participation, error) {
	result := make(map[int][]models.Participation, len(matchIDs))
	if len(matchIDs) == 0 {
		return result, nil
	}

	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, registration_ref, corner
		FROM participations
		WHERE match_id = ANY($1)
		ORDER BY match_id ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, pq.Array(matchIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query participations for %d matches: %w", len(matchIDs), err)
	}
	defer rows.Close()

	participations, err := scanParticipations(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range participations {
		result[p.MatchID] = append(result[p.MatchID], p)
	}
	return result, nil
}

func scanParticipations(rows *sql.Rows) ([]models.Participation, error) {
	participations := make([]models.Participation, 0)
	for rows.Next() {
		var p models.Participation
		if err := rows.Scan(&p.ID, &p.MatchID, &p.RegistrationRef, &p.Corner); err != nil {
			return nil, fmt.Errorf("failed to scan participation row: %w", err)
		}
		participations = append(participations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participation rows iteration: %w", err)
	}
	return participations, nil
}
