package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fedeportes/torneo-engine/brackets"
	"github.com/fedeportes/torneo-engine/models"
	"github.com/fedeportes/torneo-engine/repositories"
)

// AdvanceResult reports what a finished match set in motion: the updated
// match itself, the next-round match the winner was placed into (nil for the
// final), the third-place match the loser was placed into (semifinals only),
// and a human-readable status line.
type AdvanceResult struct {
	Match           *models.Match `json:"match"`
	NextMatch       *models.Match `json:"next_match,omitempty"`
	ThirdPlaceMatch *models.Match `json:"third_place_match,omitempty"`
	Message         string        `json:"message"`
}

type ProgressionService interface {
	AdvanceWinner(ctx context.Context, matchID int, winnerRef int64, score1, score2 *int) (*AdvanceResult, error)
	// ProcessPhaseByes sweeps the phase for matches left with a single
	// participant and resolves them as walkovers, cascading round by round.
	// Safe to call repeatedly: a second call finds nothing to process.
	ProcessPhaseByes(ctx context.Context, phaseID int) (int, error)
}

type progressionService struct {
	txm               repositories.TxManager
	matchRepo         repositories.MatchRepository
	participationRepo repositories.ParticipationRepository
	notifier          PhaseNotifier
	logger            *slog.Logger
}

func NewProgressionService(
	txm repositories.TxManager,
	matchRepo repositories.MatchRepository,
	participationRepo repositories.ParticipationRepository,
	notifier PhaseNotifier,
	logger *slog.Logger,
) ProgressionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &progressionService{
		txm:               txm,
		matchRepo:         matchRepo,
		participationRepo: participationRepo,
		notifier:          notifier,
		logger:            logger,
	}
}

func (s *progressionService) AdvanceWinner(ctx context.Context, matchID int, winnerRef int64, score1, score2 *int) (*AdvanceResult, error) {
	var result *AdvanceResult

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if match.Walkover && match.Status == models.StatusFinished {
			return ErrMatchAlreadyResolved
		}

		participations, err := s.participationRepo.ListByMatch(ctx, exec, match.ID)
		if err != nil {
			return err
		}
		match.Participations = participations
		if match.ParticipationByRef(winnerRef) == nil {
			return ErrWinnerNotInMatch
		}

		if err := s.matchRepo.UpdateResult(ctx, exec, match.ID, models.StatusFinished, &winnerRef, score1, score2); err != nil {
			return err
		}
		match.Status = models.StatusFinished
		match.WinnerRegistrationRef = &winnerRef
		if score1 != nil {
			match.Score1 = score1
		}
		if score2 != nil {
			match.Score2 = score2
		}

		nextMatch, thirdPlaceMatch, err := s.propagate(ctx, exec, match, winnerRef)
		if err != nil {
			return err
		}

		message := fmt.Sprintf("winner advanced to %s", nextRoundName(match.Round))
		if match.Round == brackets.RoundFinal {
			message = "champion determined"
		} else if match.Round == brackets.RoundThirdPlace {
			message = "third place determined"
		} else if nextMatch == nil {
			message = "match finished"
		}

		result = &AdvanceResult{
			Match:           match,
			NextMatch:       nextMatch,
			ThirdPlaceMatch: thirdPlaceMatch,
			Message:         message,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("winner advanced",
		slog.Int("match_id", matchID),
		slog.Int64("winner_ref", winnerRef),
		slog.String("round", result.Match.Round),
	)
	notifyPhase(s.notifier, result.Match.PhaseID, brackets.EventMatchUpdated, result)
	return result, nil
}

func nextRoundName(round string) string {
	if next := brackets.NextRound(round); next != "" {
		return next
	}
	return round
}

// propagate places the winner of a finished match into its next-round slot
// and, for semifinals, the loser into the third-place match. Both inserts
// are idempotent: the target row is locked, the current occupancy decides
// the corner, and the unique constraint makes the insert race-safe. When a
// reopened match is re-advanced with a different winner, the stale
// participant this match had sent downstream is replaced, so a target match
// never holds more than two slots.
func (s *progressionService) propagate(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, winnerRef int64) (*models.Match, *models.Match, error) {
	var nextMatch, thirdPlaceMatch *models.Match

	phaseMatches, err := s.matchRepo.ListByPhase(ctx, exec, match.PhaseID)
	if err != nil {
		return nil, nil, err
	}
	grouped := groupByRound(phaseMatches)

	sourceRefs := make([]int64, len(match.Participations))
	for i, p := range match.Participations {
		sourceRefs[i] = p.RegistrationRef
	}

	if target := locateNextMatch(grouped, match); target != nil {
		placed, err := s.placeIntoMatch(ctx, exec, target.ID, winnerRef, sourceRefs)
		if err != nil {
			return nil, nil, err
		}
		nextMatch = placed
	}

	if match.Round == brackets.RoundSemifinal {
		if loser := match.OpponentOf(winnerRef); loser != nil {
			if tpMatches, ok := grouped[brackets.RoundThirdPlace]; ok {
				placed, err := s.placeIntoMatch(ctx, exec, tpMatches[0].ID, *loser, sourceRefs)
				if err != nil {
					return nil, nil, err
				}
				thirdPlaceMatch = placed
			}
		}
	}

	return nextMatch, thirdPlaceMatch, nil
}

// locateNextMatch finds the winner's destination: position p of the current
// match within its round maps to index p/2 in the successor round.
func locateNextMatch(grouped map[string][]*models.Match, match *models.Match) *models.Match {
	nextRound := brackets.NextRound(match.Round)
	if nextRound == "" {
		return nil
	}
	currentRound := grouped[match.Round]
	position := -1
	for i, m := range currentRound {
		if m.ID == match.ID {
			position = i
			break
		}
	}
	if position < 0 {
		return nil
	}
	nextMatches, ok := grouped[nextRound]
	if !ok {
		return nil
	}
	targetIdx := position / 2
	if targetIdx >= len(nextMatches) {
		return nil
	}
	return nextMatches[targetIdx]
}

// placeIntoMatch locks the target match, re-reads its occupancy, and inserts
// the registration unless it is already there. The slot this match feeds can
// only ever hold one of sourceRefs: an occupant from that set with a
// different ref is a stale earlier result and is evicted, handing its corner
// to the replacement. Otherwise the corner is BLUE for an empty match, WHITE
// for a half-filled one.
func (s *progressionService) placeIntoMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int, ref int64, sourceRefs []int64) (*models.Match, error) {
	target, err := s.matchRepo.GetByIDForUpdate(ctx, exec, matchID)
	if err != nil {
		return nil, err
	}
	occupants, err := s.participationRepo.ListByMatch(ctx, exec, target.ID)
	if err != nil {
		return nil, err
	}

	fromSource := make(map[int64]bool, len(sourceRefs))
	for _, r := range sourceRefs {
		fromSource[r] = true
	}

	var freedCorner models.Corner
	kept := make([]models.Participation, 0, len(occupants))
	for _, p := range occupants {
		if p.RegistrationRef != ref && fromSource[p.RegistrationRef] {
			if err := s.participationRepo.DeleteByMatchAndRef(ctx, exec, target.ID, p.RegistrationRef); err != nil {
				return nil, fmt.Errorf("failed to evict stale registration %d from match %d: %w", p.RegistrationRef, target.ID, err)
			}
			freedCorner = p.Corner
			continue
		}
		kept = append(kept, p)
	}
	occupants = kept

	already := false
	for _, p := range occupants {
		if p.RegistrationRef == ref {
			already = true
			break
		}
	}
	if !already {
		corner := freedCorner
		if corner == "" {
			corner = models.CornerWhite
			if len(occupants) == 0 {
				corner = models.CornerBlue
			}
		}
		participation := &models.Participation{MatchID: target.ID, RegistrationRef: ref, Corner: corner}
		inserted, err := s.participationRepo.CreateIfAbsent(ctx, exec, participation)
		if err != nil {
			return nil, fmt.Errorf("failed to place registration %d in match %d: %w", ref, target.ID, err)
		}
		if inserted {
			occupants = append(occupants, *participation)
		}
	}

	target.Participations = occupants
	return target, nil
}

func (s *progressionService) ProcessPhaseByes(ctx context.Context, phaseID int) (int, error) {
	processed := 0

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		phaseMatches, err := s.matchRepo.ListByPhase(ctx, exec, phaseID)
		if err != nil {
			return err
		}

		// Walk in match-number order so a winner propagated into a later
		// round is visible by the time the sweep reaches that match.
		for _, listed := range phaseMatches {
			match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, listed.ID)
			if err != nil {
				return err
			}
			if match.Status == models.StatusFinished || match.WinnerRegistrationRef != nil {
				continue
			}

			participations, err := s.participationRepo.ListByMatch(ctx, exec, match.ID)
			if err != nil {
				return err
			}
			if len(participations) != 1 {
				continue
			}
			match.Participations = participations

			winnerRef := participations[0].RegistrationRef
			if err := s.matchRepo.UpdateResult(ctx, exec, match.ID, models.StatusFinished, &winnerRef, nil, nil); err != nil {
				return err
			}
			if err := s.matchRepo.SetWalkover(ctx, exec, match.ID, "bye"); err != nil {
				return err
			}
			match.Status = models.StatusFinished
			match.WinnerRegistrationRef = &winnerRef

			if _, _, err := s.propagate(ctx, exec, match, winnerRef); err != nil {
				return err
			}
			processed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if processed > 0 {
		s.logger.Info("byes processed", slog.Int("phase_id", phaseID), slog.Int("count", processed))
		notifyPhase(s.notifier, phaseID, brackets.EventBracketUpdated, map[string]int{"processed_count": processed})
	}
	return processed, nil
}
