package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/fedeportes/torneo-engine/brackets"
	"github.com/fedeportes/torneo-engine/models"
	"github.com/fedeportes/torneo-engine/repositories"
	"golang.org/x/sync/errgroup"
)

// BracketBuildResult is the output of BuildBracket: the persisted match
// list in match-number order, the optional third-place match, and the
// derived bracket geometry.
type BracketBuildResult struct {
	Matches         []*models.Match    `json:"matches"`
	ThirdPlaceMatch *models.Match      `json:"third_place_match,omitempty"`
	Info            models.BracketInfo `json:"bracket_info"`
}

// RoundGroup is one round of the bracket in play order.
type RoundGroup struct {
	Round   string          `json:"round"`
	Matches []*models.Match `json:"matches"`
}

type BracketStats struct {
	TotalMatches    int  `json:"total_matches"`
	FinishedMatches int  `json:"finished_matches"`
	PendingMatches  int  `json:"pending_matches"`
	Complete        bool `json:"complete"`
}

type BracketStructure struct {
	ByRound         []RoundGroup       `json:"by_round"`
	ThirdPlaceMatch *models.Match      `json:"third_place_match,omitempty"`
	Stats           BracketStats       `json:"stats"`
	Info            models.BracketInfo `json:"bracket_info"`
}

type BracketService interface {
	BuildBracket(ctx context.Context, phaseID int, orderedRefs []int64, includeThirdPlace bool) (*BracketBuildResult, error)
	GetBracketStructure(ctx context.Context, phaseID int) (*BracketStructure, error)
	IsBracketComplete(ctx context.Context, phaseID int) (bool, error)
	GetChampion(ctx context.Context, phaseID int) (int64, error)
	GetThirdPlace(ctx context.Context, phaseID int) (int64, error)
}

type bracketService struct {
	txm               repositories.TxManager
	phaseRepo         repositories.PhaseRepository
	matchRepo         repositories.MatchRepository
	participationRepo repositories.ParticipationRepository
	notifier          PhaseNotifier
	logger            *slog.Logger
}

func NewBracketService(
	txm repositories.TxManager,
	phaseRepo repositories.PhaseRepository,
	matchRepo repositories.MatchRepository,
	participationRepo repositories.ParticipationRepository,
	notifier PhaseNotifier,
	logger *slog.Logger,
) BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		txm:               txm,
		phaseRepo:         phaseRepo,
		matchRepo:         matchRepo,
		participationRepo: participationRepo,
		notifier:          notifier,
		logger:            logger,
	}
}

func (s *bracketService) BuildBracket(ctx context.Context, phaseID int, orderedRefs []int64, includeThirdPlace bool) (*BracketBuildResult, error) {
	if len(orderedRefs) < 2 {
		return nil, ErrNotEnoughParticipants
	}
	if err := validateDistinctRefs(orderedRefs); err != nil {
		return nil, err
	}

	plan, err := brackets.PlanSingleElimination(orderedRefs)
	if err != nil {
		return nil, fmt.Errorf("failed to plan bracket for phase %d: %w", phaseID, err)
	}
	plan.Info.HasThirdPlace = includeThirdPlace

	result := &BracketBuildResult{Info: plan.Info}

	err = s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := requirePhase(ctx, exec, s.phaseRepo, phaseID, models.PhaseElimination); err != nil {
			return err
		}
		count, err := s.matchRepo.CountByPhase(ctx, exec, phaseID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrPhaseAlreadyPopulated
		}

		for _, pm := range plan.Matches {
			match := &models.Match{
				PhaseID:               phaseID,
				MatchNumber:           pm.MatchNumber,
				Round:                 pm.Round,
				Status:                pm.Status,
				WinnerRegistrationRef: pm.Winner,
				Walkover:              pm.Walkover,
			}
			if pm.Walkover {
				reason := "bye"
				match.WalkoverReason = &reason
			}
			if err := s.matchRepo.Create(ctx, exec, match); err != nil {
				return fmt.Errorf("failed to create match %d: %w", pm.MatchNumber, err)
			}

			for _, pp := range pm.Participants {
				participation := &models.Participation{
					MatchID:         match.ID,
					RegistrationRef: pp.Ref,
					Corner:          pp.Corner,
				}
				if _, err := s.participationRepo.CreateIfAbsent(ctx, exec, participation); err != nil {
					return fmt.Errorf("failed to place registration %d in match %d: %w", pp.Ref, pm.MatchNumber, err)
				}
				match.Participations = append(match.Participations, *participation)
			}
			result.Matches = append(result.Matches, match)
		}

		if includeThirdPlace {
			thirdPlace := &models.Match{
				PhaseID:     phaseID,
				MatchNumber: models.ThirdPlaceMatchNumber,
				Round:       brackets.RoundThirdPlace,
				Status:      models.StatusScheduled,
			}
			if err := s.matchRepo.Create(ctx, exec, thirdPlace); err != nil {
				return fmt.Errorf("failed to create third place match: %w", err)
			}
			result.ThirdPlaceMatch = thirdPlace
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bracket built",
		slog.Int("phase_id", phaseID),
		slog.Int("participants", plan.Info.TotalParticipants),
		slog.Int("slots", plan.Info.TotalSlots),
		slog.Int("byes", plan.Info.ByeCount),
	)
	notifyPhase(s.notifier, phaseID, brackets.EventBracketUpdated, result)
	return result, nil
}

func (s *bracketService) GetBracketStructure(ctx context.Context, phaseID int) (*BracketStructure, error) {
	var (
		phase   *models.Phase
		matches []*models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.phaseRepo.GetByID(gCtx, nil, phaseID)
		if err != nil {
			if errors.Is(err, repositories.ErrPhaseNotFound) {
				return ErrPhaseNotFound
			}
			return err
		}
		phase = p
		return nil
	})
	g.Go(func() error {
		list, err := s.matchRepo.ListByPhase(gCtx, nil, phaseID)
		if err != nil {
			return err
		}
		matches = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if phase.Type != models.PhaseElimination {
		return nil, ErrWrongPhaseType
	}
	if err := attachParticipations(ctx, nil, s.participationRepo, matches); err != nil {
		return nil, err
	}

	structure := &BracketStructure{Info: deriveBracketInfo(matches)}

	grouped := groupByRound(matches)
	for round, roundMatches := range grouped {
		if round == brackets.RoundThirdPlace {
			structure.ThirdPlaceMatch = roundMatches[0]
			continue
		}
		structure.ByRound = append(structure.ByRound, RoundGroup{Round: round, Matches: roundMatches})
	}
	sort.Slice(structure.ByRound, func(i, j int) bool {
		return brackets.RoundOrderIndex(structure.ByRound[i].Round) < brackets.RoundOrderIndex(structure.ByRound[j].Round)
	})

	for _, m := range matches {
		if m.IsThirdPlace() {
			continue
		}
		structure.Stats.TotalMatches++
		if m.Status == models.StatusFinished {
			structure.Stats.FinishedMatches++
		} else {
			structure.Stats.PendingMatches++
		}
	}
	structure.Stats.Complete = bracketComplete(matches)
	return structure, nil
}

func (s *bracketService) IsBracketComplete(ctx context.Context, phaseID int) (bool, error) {
	matches, err := s.matchRepo.ListByPhase(ctx, nil, phaseID)
	if err != nil {
		return false, err
	}
	return bracketComplete(matches), nil
}

func (s *bracketService) GetChampion(ctx context.Context, phaseID int) (int64, error) {
	return s.winnerOfRound(ctx, phaseID, brackets.RoundFinal)
}

func (s *bracketService) GetThirdPlace(ctx context.Context, phaseID int) (int64, error) {
	return s.winnerOfRound(ctx, phaseID, brackets.RoundThirdPlace)
}

func (s *bracketService) winnerOfRound(ctx context.Context, phaseID int, round string) (int64, error) {
	matches, err := s.matchRepo.ListByPhase(ctx, nil, phaseID)
	if err != nil {
		return 0, err
	}
	for _, m := range matches {
		if m.Round != round {
			continue
		}
		if m.Status == models.StatusFinished && m.WinnerRegistrationRef != nil {
			return *m.WinnerRegistrationRef, nil
		}
		return 0, ErrBracketNotComplete
	}
	return 0, ErrNoFinalMatch
}

func bracketComplete(matches []*models.Match) bool {
	for _, m := range matches {
		if m.Round == brackets.RoundFinal {
			return m.Status == models.StatusFinished && m.WinnerRegistrationRef != nil
		}
	}
	return false
}

// deriveBracketInfo recomputes the bracket geometry from the persisted match
// set: slot count from the size of the earliest round, participant count from
// the distinct registrations placed anywhere in the bracket.
func deriveBracketInfo(matches []*models.Match) models.BracketInfo {
	info := models.BracketInfo{}
	firstRoundSize := 0
	firstRoundIdx := math.MaxInt

	refs := make(map[int64]struct{})
	rounds := make(map[string]struct{})
	for _, m := range matches {
		if m.IsThirdPlace() {
			info.HasThirdPlace = true
			continue
		}
		rounds[m.Round] = struct{}{}
		for _, p := range m.Participations {
			refs[p.RegistrationRef] = struct{}{}
		}
		if idx := brackets.RoundOrderIndex(m.Round); idx < firstRoundIdx {
			firstRoundIdx = idx
			firstRoundSize = 0
		}
		if brackets.RoundOrderIndex(m.Round) == firstRoundIdx {
			firstRoundSize++
		}
	}

	info.TotalParticipants = len(refs)
	info.TotalSlots = firstRoundSize * 2
	info.TotalRounds = len(rounds)
	info.ByeCount = info.TotalSlots - info.TotalParticipants
	return info
}
