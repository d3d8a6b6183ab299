package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fedeportes/torneo-engine/brackets"
	"github.com/fedeportes/torneo-engine/models"
	"github.com/fedeportes/torneo-engine/repositories"
)

// PhaseNotifier pushes engine events to live subscribers. *brackets.Hub
// satisfies it; services tolerate a nil notifier.
type PhaseNotifier interface {
	BroadcastToPhase(phaseID string, event brackets.Event)
}

func notifyPhase(n PhaseNotifier, phaseID int, eventType string, payload interface{}) {
	if n == nil {
		return
	}
	n.BroadcastToPhase(strconv.Itoa(phaseID), brackets.Event{Type: eventType, Payload: payload})
}

// requirePhase loads a phase and checks its type against the operation.
func requirePhase(ctx context.Context, exec repositories.SQLExecutor, phaseRepo repositories.PhaseRepository, phaseID int, wantType models.PhaseType) (*models.Phase, error) {
	phase, err := phaseRepo.GetByID(ctx, exec, phaseID)
	if err != nil {
		if errors.Is(err, repositories.ErrPhaseNotFound) {
			return nil, ErrPhaseNotFound
		}
		return nil, fmt.Errorf("failed to load phase %d: %w", phaseID, err)
	}
	if phase.Type != wantType {
		return nil, ErrWrongPhaseType
	}
	return phase, nil
}

// validateDistinctRefs rejects duplicate registrations in a seeding list.
func validateDistinctRefs(refs []int64) error {
	seen := make(map[int64]struct{}, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			return ErrDuplicateRegistration
		}
		seen[ref] = struct{}{}
	}
	return nil
}

// attachParticipations loads all participations for the given matches in one
// query and hangs them off each match.
func attachParticipations(ctx context.Context, exec repositories.SQLExecutor, participationRepo repositories.ParticipationRepository, matches []*models.Match) error {
	ids := make([]int, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	byMatch, err := participationRepo.ListByMatchIDs(ctx, exec, ids)
	if err != nil {
		return fmt.Errorf("failed to load participations: %w", err)
	}
	for _, m := range matches {
		m.Participations = byMatch[m.ID]
	}
	return nil
}

// groupByRound splits matches into per-round lists keyed by round name.
// Input order (match_number ascending) is preserved within each round.
func groupByRound(matches []*models.Match) map[string][]*models.Match {
	grouped := make(map[string][]*models.Match)
	for _, m := range matches {
		grouped[m.Round] = append(grouped[m.Round], m)
	}
	return grouped
}
