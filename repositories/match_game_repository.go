package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fedeportes/torneo-engine/models"
	"github.com/lib/pq"
)

// MatchGameRepository reads the per-set sub-scores written by score-entry
// collaborators. The engine never writes these rows.
type MatchGameRepository interface {
	ListByMatchIDs(ctx context.Context, exec SQLExecutor, matchIDs []int) (map[int][]models.MatchGame, error)
}

type postgresMatchGameRepository struct {
	db *sql.DB
}

func NewPostgresMatchGameRepository(db *sql.DB) MatchGameRepository {
	return &postgresMatchGameRepository{db: db}
}

func (r *postgresMatchGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchGameRepository) ListByMatchIDs(ctx context.Context, exec SQLExecutor, matchIDs []int) (map[int][]models.MatchGame, error) {
	result := make(map[int][]models.MatchGame, len(matchIDs))
	if len(matchIDs) == 0 {
		return result, nil
	}

	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, game_number, score_a, score_b
		FROM match_games
		WHERE match_id = ANY($1)
		ORDER BY match_id ASC, game_number ASC`

	rows, err := executor.QueryContext(ctx, query, pq.Array(matchIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query match games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g models.MatchGame
		if scanErr := rows.Scan(&g.ID, &g.MatchID, &g.GameNumber, &g.ScoreA, &g.ScoreB); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match game row: %w", scanErr)
		}
		result[g.MatchID] = append(result[g.MatchID], g)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
