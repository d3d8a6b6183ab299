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

const seriesLength = 3
const seriesWinsNeeded = 2

// SeriesResult reports a recorded series match and, once one side reaches
// two wins, the decided series.
type SeriesResult struct {
	Match          *models.Match `json:"match"`
	SeriesComplete bool          `json:"series_complete"`
	Winner         *int64        `json:"winner,omitempty"`
}

type SeriesService interface {
	InitBestOf3(ctx context.Context, phaseID int, refs []int64) ([]*models.Match, error)
	RecordSeriesResult(ctx context.Context, matchID int, winnerRef int64) (*SeriesResult, error)
}

type seriesService struct {
	txm               repositories.TxManager
	phaseRepo         repositories.PhaseRepository
	matchRepo         repositories.MatchRepository
	participationRepo repositories.ParticipationRepository
	notifier          PhaseNotifier
	logger            *slog.Logger
}

func NewSeriesService(
	txm repositories.TxManager,
	phaseRepo repositories.PhaseRepository,
	matchRepo repositories.MatchRepository,
	participationRepo repositories.ParticipationRepository,
	notifier PhaseNotifier,
	logger *slog.Logger,
) SeriesService {
	if logger == nil {
		logger = slog.Default()
	}
	return &seriesService{
		txm:               txm,
		phaseRepo:         phaseRepo,
		matchRepo:         matchRepo,
		participationRepo: participationRepo,
		notifier:          notifier,
		logger:            logger,
	}
}

func (s *seriesService) InitBestOf3(ctx context.Context, phaseID int, refs []int64) ([]*models.Match, error) {
	if len(refs) != 2 {
		return nil, ErrSeriesNeedsTwo
	}
	if refs[0] == refs[1] {
		return nil, ErrDuplicateRegistration
	}

	matches := make([]*models.Match, 0, seriesLength)

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := requirePhase(ctx, exec, s.phaseRepo, phaseID, models.PhaseBestOfThree); err != nil {
			return err
		}
		count, err := s.matchRepo.CountByPhase(ctx, exec, phaseID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrPhaseAlreadyPopulated
		}

		for i := 1; i <= seriesLength; i++ {
			match := &models.Match{
				PhaseID:     phaseID,
				MatchNumber: i,
				Round:       fmt.Sprintf("Partido %d de %d", i, seriesLength),
				Status:      models.StatusScheduled,
			}
			if err := s.matchRepo.Create(ctx, exec, match); err != nil {
				return fmt.Errorf("failed to create series match %d: %w", i, err)
			}

			// Same two participants in every match, fixed corners.
			corners := []models.Corner{models.CornerA, models.CornerB}
			for j, ref := range refs {
				participation := &models.Participation{MatchID: match.ID, RegistrationRef: ref, Corner: corners[j]}
				if _, err := s.participationRepo.CreateIfAbsent(ctx, exec, participation); err != nil {
					return fmt.Errorf("failed to place registration %d in series match %d: %w", ref, i, err)
				}
				match.Participations = append(match.Participations, *participation)
			}
			matches = append(matches, match)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("best-of-3 series initialized", slog.Int("phase_id", phaseID))
	notifyPhase(s.notifier, phaseID, brackets.EventSeriesUpdated, matches)
	return matches, nil
}

func (s *seriesService) RecordSeriesResult(ctx context.Context, matchID int, winnerRef int64) (*SeriesResult, error) {
	var result *SeriesResult

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if match.Status == models.StatusCancelled {
			return ErrMatchCancelled
		}

		participations, err := s.participationRepo.ListByMatch(ctx, exec, match.ID)
		if err != nil {
			return err
		}
		match.Participations = participations
		if match.ParticipationByRef(winnerRef) == nil {
			return ErrWinnerNotInMatch
		}

		if err := s.matchRepo.UpdateResult(ctx, exec, match.ID, models.StatusFinished, &winnerRef, nil, nil); err != nil {
			return err
		}
		match.Status = models.StatusFinished
		match.WinnerRegistrationRef = &winnerRef

		phaseMatches, err := s.matchRepo.ListByPhase(ctx, exec, match.PhaseID)
		if err != nil {
			return err
		}

		wins := make(map[int64]int)
		for _, m := range phaseMatches {
			if m.ID == match.ID {
				// The row just updated; the listed copy may predate it.
				wins[winnerRef]++
				continue
			}
			if m.Status == models.StatusFinished && m.WinnerRegistrationRef != nil {
				wins[*m.WinnerRegistrationRef]++
			}
		}

		result = &SeriesResult{Match: match}
		for ref, w := range wins {
			if w >= seriesWinsNeeded {
				seriesWinner := ref
				result.SeriesComplete = true
				result.Winner = &seriesWinner
				break
			}
		}

		if result.SeriesComplete {
			for _, m := range phaseMatches {
				if m.ID != match.ID && m.Status == models.StatusScheduled {
					if err := s.matchRepo.UpdateStatus(ctx, exec, m.ID, models.StatusCancelled); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("series result recorded",
		slog.Int("match_id", matchID),
		slog.Int64("winner_ref", winnerRef),
		slog.Bool("series_complete", result.SeriesComplete),
	)
	notifyPhase(s.notifier, result.Match.PhaseID, brackets.EventSeriesUpdated, result)
	return result, nil
}
