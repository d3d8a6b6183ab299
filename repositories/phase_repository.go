package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fedeportes/torneo-engine/models"
)

var ErrPhaseNotFound = errors.New("phase not found")

// PhaseRepository reads phases. Phases are owned by the surrounding CRUD
// layer; the engine only looks them up to guard operation preconditions.
type PhaseRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Phase, error)
}

type postgresPhaseRepository struct {
	db *sql.DB
}

func NewPostgresPhaseRepository(db *sql.DB) PhaseRepository {
	return &postgresPhaseRepository{db: db}
}

func (r *postgresPhaseRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPhaseRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Phase, error) {
	executor := r.getExecutor(exec)
	query := `SELECT id, type, display_order FROM phases WHERE id = $1`

	var phase models.Phase
	err := executor.QueryRowContext(ctx, query, id).Scan(&phase.ID, &phase.Type, &phase.DisplayOrder)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPhaseNotFound
		}
		return nil, fmt.Errorf("failed to scan phase %d: %w", id, err)
	}
	return &phase, nil
}
