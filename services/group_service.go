package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/fedeportes/torneo-engine/brackets"
	"github.com/fedeportes/torneo-engine/models"
	"github.com/fedeportes/torneo-engine/repositories"
)

const pointsPerWin = 3

type GroupService interface {
	// InitRoundRobin creates the zeroed standings table and the full
	// circle-method schedule for a group phase in one transaction.
	InitRoundRobin(ctx context.Context, phaseID int, orderedRefs []int64) ([]*models.Standing, error)
	// RecomputeStandings rebuilds every standing of the phase from the
	// finished matches. Pure function of the match set: recomputing without
	// new results yields identical standings. Manual rank overrides are
	// never read, computed, or cleared here.
	RecomputeStandings(ctx context.Context, phaseID int) ([]*models.Standing, error)
	ListStandings(ctx context.Context, phaseID int) ([]*models.Standing, error)
	SetManualRank(ctx context.Context, phaseID int, registrationRef int64, position *int) error
	ClearManualRanks(ctx context.Context, phaseID int) error
}

type groupService struct {
	txm               repositories.TxManager
	phaseRepo         repositories.PhaseRepository
	matchRepo         repositories.MatchRepository
	participationRepo repositories.ParticipationRepository
	standingRepo      repositories.StandingRepository
	matchGameRepo     repositories.MatchGameRepository
	notifier          PhaseNotifier
	logger            *slog.Logger
}

func NewGroupService(
	txm repositories.TxManager,
	phaseRepo repositories.PhaseRepository,
	matchRepo repositories.MatchRepository,
	participationRepo repositories.ParticipationRepository,
	standingRepo repositories.StandingRepository,
	matchGameRepo repositories.MatchGameRepository,
	notifier PhaseNotifier,
	logger *slog.Logger,
) GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &groupService{
		txm:               txm,
		phaseRepo:         phaseRepo,
		matchRepo:         matchRepo,
		participationRepo: participationRepo,
		standingRepo:      standingRepo,
		matchGameRepo:     matchGameRepo,
		notifier:          notifier,
		logger:            logger,
	}
}

func (s *groupService) InitRoundRobin(ctx context.Context, phaseID int, orderedRefs []int64) ([]*models.Standing, error) {
	if len(orderedRefs) < 2 {
		return nil, ErrNotEnoughParticipants
	}
	if err := validateDistinctRefs(orderedRefs); err != nil {
		return nil, err
	}

	pairings, err := brackets.PlanRoundRobin(orderedRefs)
	if err != nil {
		return nil, fmt.Errorf("failed to plan round robin for phase %d: %w", phaseID, err)
	}

	standings := make([]*models.Standing, 0, len(orderedRefs))

	err = s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := requirePhase(ctx, exec, s.phaseRepo, phaseID, models.PhaseGroup); err != nil {
			return err
		}
		count, err := s.matchRepo.CountByPhase(ctx, exec, phaseID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrPhaseAlreadyPopulated
		}

		// Standings first, all counters zeroed, one row per real participant.
		for _, ref := range orderedRefs {
			standings = append(standings, &models.Standing{PhaseID: phaseID, RegistrationRef: ref})
		}
		if err := s.standingRepo.BatchCreate(ctx, exec, standings); err != nil {
			if errors.Is(err, repositories.ErrStandingConflict) {
				return ErrDuplicateRegistration
			}
			return err
		}

		matchNumber := 0
		for _, pairing := range pairings {
			matchNumber++
			match := &models.Match{
				PhaseID:     phaseID,
				MatchNumber: matchNumber,
				Round:       strconv.Itoa(pairing.Round),
				Status:      models.StatusScheduled,
			}
			if err := s.matchRepo.Create(ctx, exec, match); err != nil {
				return fmt.Errorf("failed to create round robin match %d: %w", matchNumber, err)
			}

			sides := []struct {
				ref    int64
				corner models.Corner
			}{
				{pairing.SideA, models.CornerA},
				{pairing.SideB, models.CornerB},
			}
			for _, side := range sides {
				participation := &models.Participation{MatchID: match.ID, RegistrationRef: side.ref, Corner: side.corner}
				if _, err := s.participationRepo.CreateIfAbsent(ctx, exec, participation); err != nil {
					return fmt.Errorf("failed to place registration %d in match %d: %w", side.ref, matchNumber, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("round robin initialized",
		slog.Int("phase_id", phaseID),
		slog.Int("participants", len(orderedRefs)),
		slog.Int("matches", len(pairings)),
		slog.Int("rounds", brackets.NumRoundRobinRounds(len(orderedRefs))),
	)
	notifyPhase(s.notifier, phaseID, brackets.EventStandingsUpdated, standings)
	return standings, nil
}

func (s *groupService) RecomputeStandings(ctx context.Context, phaseID int) ([]*models.Standing, error) {
	var sorted []*models.Standing

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := requirePhase(ctx, exec, s.phaseRepo, phaseID, models.PhaseGroup); err != nil {
			return err
		}

		standings, err := s.standingRepo.ListByPhase(ctx, exec, phaseID)
		if err != nil {
			return err
		}
		byRef := make(map[int64]*models.Standing, len(standings))
		for _, st := range standings {
			st.MatchesPlayed = 0
			st.Wins = 0
			st.Draws = 0
			st.Losses = 0
			st.Points = 0
			st.ScoreFor = 0
			st.ScoreAgainst = 0
			st.ScoreDiff = 0
			byRef[st.RegistrationRef] = st
		}

		matches, err := s.matchRepo.ListByPhase(ctx, exec, phaseID)
		if err != nil {
			return err
		}
		if err := attachParticipations(ctx, exec, s.participationRepo, matches); err != nil {
			return err
		}
		matchIDs := make([]int, len(matches))
		for i, m := range matches {
			matchIDs[i] = m.ID
		}
		gamesByMatch, err := s.matchGameRepo.ListByMatchIDs(ctx, exec, matchIDs)
		if err != nil {
			return err
		}

		for _, match := range matches {
			if match.Status != models.StatusFinished || match.WinnerRegistrationRef == nil {
				continue
			}
			if len(match.Participations) != 2 {
				continue
			}
			sideA, sideB := orderSides(match.Participations)
			stA := byRef[sideA.RegistrationRef]
			stB := byRef[sideB.RegistrationRef]
			if stA == nil || stB == nil {
				continue
			}

			stA.MatchesPlayed++
			stB.MatchesPlayed++
			if *match.WinnerRegistrationRef == sideA.RegistrationRef {
				stA.Wins++
				stA.Points += pointsPerWin
				stB.Losses++
			} else {
				stB.Wins++
				stB.Points += pointsPerWin
				stA.Losses++
			}

			for _, game := range gamesByMatch[match.ID] {
				stA.ScoreFor += game.ScoreA
				stA.ScoreAgainst += game.ScoreB
				stB.ScoreFor += game.ScoreB
				stB.ScoreAgainst += game.ScoreA
			}
		}

		for _, st := range standings {
			st.ScoreDiff = st.ScoreFor - st.ScoreAgainst
		}

		// Stable sort keeps the pre-sort (insertion) order for full ties.
		sort.SliceStable(standings, func(i, j int) bool {
			if standings[i].Points != standings[j].Points {
				return standings[i].Points > standings[j].Points
			}
			if standings[i].ScoreDiff != standings[j].ScoreDiff {
				return standings[i].ScoreDiff > standings[j].ScoreDiff
			}
			return standings[i].ScoreFor > standings[j].ScoreFor
		})

		for i, st := range standings {
			st.RankPosition = i + 1
			if err := s.standingRepo.UpdateComputed(ctx, exec, st); err != nil {
				return err
			}
		}
		sorted = standings
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyPhase(s.notifier, phaseID, brackets.EventStandingsUpdated, sorted)
	return sorted, nil
}

// orderSides returns the participations as (A, B): corner A (or BLUE) first,
// falling back to insertion order when corners are unset.
func orderSides(participations []models.Participation) (models.Participation, models.Participation) {
	a, b := participations[0], participations[1]
	if b.Corner == models.CornerA || b.Corner == models.CornerBlue {
		return b, a
	}
	return a, b
}

func (s *groupService) ListStandings(ctx context.Context, phaseID int) ([]*models.Standing, error) {
	standings, err := s.standingRepo.ListByPhase(ctx, nil, phaseID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].RankPosition < standings[j].RankPosition
	})
	return standings, nil
}

func (s *groupService) SetManualRank(ctx context.Context, phaseID int, registrationRef int64, position *int) error {
	if position != nil && *position < 1 {
		return ErrInvalidRankPosition
	}
	err := s.standingRepo.SetManualRank(ctx, nil, phaseID, registrationRef, position)
	if err != nil {
		if errors.Is(err, repositories.ErrStandingNotFound) {
			return ErrStandingNotFound
		}
		return err
	}
	notifyPhase(s.notifier, phaseID, brackets.EventStandingsUpdated, nil)
	return nil
}

func (s *groupService) ClearManualRanks(ctx context.Context, phaseID int) error {
	if err := s.standingRepo.ClearManualRanks(ctx, nil, phaseID); err != nil {
		return err
	}
	notifyPhase(s.notifier, phaseID, brackets.EventStandingsUpdated, nil)
	return nil
}
