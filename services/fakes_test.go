package services

import (
	"context"
	"sort"
	"time"

	"github.com/fedeportes/torneo-engine/brackets"
	"github.com/fedeportes/torneo-engine/models"
	"github.com/fedeportes/torneo-engine/repositories"
)

// memStore is a shared in-memory backing store for the repository fakes. It
// mirrors the ordering and uniqueness guarantees of the Postgres layer so
// service tests exercise the same contracts without a database.
type memStore struct {
	phases         map[int]models.Phase
	matches        []*models.Match
	participations []models.Participation
	standings      []*models.Standing
	games          map[int][]models.MatchGame

	nextMatchID         int
	nextParticipationID int
	nextStandingID      int
}

func newMemStore() *memStore {
	return &memStore{
		phases: make(map[int]models.Phase),
		games:  make(map[int][]models.MatchGame),
	}
}

func (s *memStore) addPhase(id int, phaseType models.PhaseType) {
	s.phases[id] = models.Phase{ID: id, Type: phaseType}
}

func (s *memStore) addMatch(phaseID, matchNumber int, round string, status models.MatchStatus) *models.Match {
	s.nextMatchID++
	m := &models.Match{
		ID:          s.nextMatchID,
		PhaseID:     phaseID,
		MatchNumber: matchNumber,
		Round:       round,
		Status:      status,
		CreatedAt:   time.Now(),
	}
	s.matches = append(s.matches, m)
	return m
}

func (s *memStore) addParticipation(matchID int, ref int64, corner models.Corner) {
	s.nextParticipationID++
	s.participations = append(s.participations, models.Participation{
		ID:              s.nextParticipationID,
		MatchID:         matchID,
		RegistrationRef: ref,
		Corner:          corner,
	})
}

func (s *memStore) addGame(matchID, gameNumber, scoreA, scoreB int) {
	s.games[matchID] = append(s.games[matchID], models.MatchGame{
		ID:         len(s.games[matchID]) + 1,
		MatchID:    matchID,
		GameNumber: gameNumber,
		ScoreA:     scoreA,
		ScoreB:     scoreB,
	})
}

func (s *memStore) matchByID(id int) *models.Match {
	for _, m := range s.matches {
		if m.ID == id && m.DeletedAt == nil {
			return m
		}
	}
	return nil
}

func (s *memStore) matchParticipations(matchID int) []models.Participation {
	var out []models.Participation
	for _, p := range s.participations {
		if p.MatchID == matchID {
			out = append(out, p)
		}
	}
	return out
}

// fakeTxManager runs the function directly. Tests rely on services checking
// all preconditions before their first write, so there is nothing to roll
// back on the error paths they exercise.
type fakeTxManager struct{}

func (fakeTxManager) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakePhaseRepo struct{ store *memStore }

func (r *fakePhaseRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Phase, error) {
	phase, ok := r.store.phases[id]
	if !ok {
		return nil, repositories.ErrPhaseNotFound
	}
	p := phase
	return &p, nil
}

type fakeMatchRepo struct{ store *memStore }

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	for _, m := range r.store.matches {
		if m.PhaseID == match.PhaseID && m.MatchNumber == match.MatchNumber && m.DeletedAt == nil {
			return repositories.ErrMatchNumberConflict
		}
	}
	r.store.nextMatchID++
	stored := *match
	stored.ID = r.store.nextMatchID
	stored.CreatedAt = time.Now()
	stored.Participations = nil
	r.store.matches = append(r.store.matches, &stored)
	match.ID = stored.ID
	match.CreatedAt = stored.CreatedAt
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	m := r.store.matchByID(id)
	if m == nil {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	copied.Participations = nil
	return &copied, nil
}

func (r *fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeMatchRepo) ListByPhase(_ context.Context, _ repositories.SQLExecutor, phaseID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.store.matches {
		if m.PhaseID == phaseID && m.DeletedAt == nil {
			copied := *m
			copied.Participations = nil
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchNumber < out[j].MatchNumber })
	return out, nil
}

func (r *fakeMatchRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, id int, status models.MatchStatus, winnerRef *int64, score1, score2 *int) error {
	m := r.store.matchByID(id)
	if m == nil {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	m.WinnerRegistrationRef = winnerRef
	if score1 != nil {
		m.Score1 = score1
	}
	if score2 != nil {
		m.Score2 = score2
	}
	return nil
}

func (r *fakeMatchRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.MatchStatus) error {
	m := r.store.matchByID(id)
	if m == nil {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	return nil
}

func (r *fakeMatchRepo) SetWalkover(_ context.Context, _ repositories.SQLExecutor, id int, reason string) error {
	m := r.store.matchByID(id)
	if m == nil {
		return repositories.ErrMatchNotFound
	}
	m.Walkover = true
	m.WalkoverReason = &reason
	return nil
}

func (r *fakeMatchRepo) CountByPhase(_ context.Context, _ repositories.SQLExecutor, phaseID int) (int, error) {
	count := 0
	for _, m := range r.store.matches {
		if m.PhaseID == phaseID && m.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

type fakeParticipationRepo struct{ store *memStore }

func (r *fakeParticipationRepo) CreateIfAbsent(_ context.Context, _ repositories.SQLExecutor, participation *models.Participation) (bool, error) {
	for _, p := range r.store.participations {
		if p.MatchID == participation.MatchID && p.RegistrationRef == participation.RegistrationRef {
			return false, nil
		}
	}
	r.store.nextParticipationID++
	participation.ID = r.store.nextParticipationID
	r.store.participations = append(r.store.participations, *participation)
	return true, nil
}

func (r *fakeParticipationRepo) DeleteByMatchAndRef(_ context.Context, _ repositories.SQLExecutor, matchID int, registrationRef int64) error {
	for i, p := range r.store.participations {
		if p.MatchID == matchID && p.RegistrationRef == registrationRef {
			r.store.participations = append(r.store.participations[:i], r.store.participations[i+1:]...)
			return nil
		}
	}
	return repositories.ErrParticipationNotFound
}

func (r *fakeParticipationRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) ([]models.Participation, error) {
	return r.store.matchParticipations(matchID), nil
}

func (r *fakeParticipationRepo) ListByMatchIDs(_ context.Context, _ repositories.SQLExecutor, matchIDs []int) (map[int][]models.Participation, error) {
	out := make(map[int][]models.Participation)
	for _, id := range matchIDs {
		if list := r.store.matchParticipations(id); len(list) > 0 {
			out[id] = list
		}
	}
	return out, nil
}

type fakeStandingRepo struct{ store *memStore }

func (r *fakeStandingRepo) BatchCreate(_ context.Context, _ repositories.SQLExecutor, standings []*models.Standing) error {
	for _, st := range standings {
		for _, existing := range r.store.standings {
			if existing.PhaseID == st.PhaseID && existing.RegistrationRef == st.RegistrationRef {
				return repositories.ErrStandingConflict
			}
		}
		r.store.nextStandingID++
		st.ID = r.store.nextStandingID
		st.UpdatedAt = time.Now()
		stored := *st
		r.store.standings = append(r.store.standings, &stored)
	}
	return nil
}

func (r *fakeStandingRepo) ListByPhase(_ context.Context, _ repositories.SQLExecutor, phaseID int) ([]*models.Standing, error) {
	var out []*models.Standing
	for _, st := range r.store.standings {
		if st.PhaseID == phaseID {
			copied := *st
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeStandingRepo) UpdateComputed(_ context.Context, _ repositories.SQLExecutor, standing *models.Standing) error {
	for _, st := range r.store.standings {
		if st.ID == standing.ID {
			manual := st.ManualRankPosition
			*st = *standing
			st.ManualRankPosition = manual
			st.UpdatedAt = time.Now()
			return nil
		}
	}
	return repositories.ErrStandingNotFound
}

func (r *fakeStandingRepo) SetManualRank(_ context.Context, _ repositories.SQLExecutor, phaseID int, registrationRef int64, position *int) error {
	for _, st := range r.store.standings {
		if st.PhaseID == phaseID && st.RegistrationRef == registrationRef {
			st.ManualRankPosition = position
			st.UpdatedAt = time.Now()
			return nil
		}
	}
	return repositories.ErrStandingNotFound
}

func (r *fakeStandingRepo) ClearManualRanks(_ context.Context, _ repositories.SQLExecutor, phaseID int) error {
	for _, st := range r.store.standings {
		if st.PhaseID == phaseID {
			st.ManualRankPosition = nil
		}
	}
	return nil
}

type fakeMatchGameRepo struct{ store *memStore }

func (r *fakeMatchGameRepo) ListByMatchIDs(_ context.Context, _ repositories.SQLExecutor, matchIDs []int) (map[int][]models.MatchGame, error) {
	out := make(map[int][]models.MatchGame)
	for _, id := range matchIDs {
		if games, ok := r.store.games[id]; ok {
			out[id] = games
		}
	}
	return out, nil
}

// recordingNotifier captures broadcasts for assertion.
type recordingNotifier struct {
	events []brackets.Event
}

func (n *recordingNotifier) BroadcastToPhase(_ string, event brackets.Event) {
	n.events = append(n.events, event)
}

// testEnv bundles the fakes wired into every service under test.
type testEnv struct {
	store       *memStore
	notifier    *recordingNotifier
	bracket     BracketService
	progression ProgressionService
	group       GroupService
	series      SeriesService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	notifier := &recordingNotifier{}

	txm := fakeTxManager{}
	phaseRepo := &fakePhaseRepo{store: store}
	matchRepo := &fakeMatchRepo{store: store}
	participationRepo := &fakeParticipationRepo{store: store}
	standingRepo := &fakeStandingRepo{store: store}
	matchGameRepo := &fakeMatchGameRepo{store: store}

	return &testEnv{
		store:       store,
		notifier:    notifier,
		bracket:     NewBracketService(txm, phaseRepo, matchRepo, participationRepo, notifier, nil),
		progression: NewProgressionService(txm, matchRepo, participationRepo, notifier, nil),
		group:       NewGroupService(txm, phaseRepo, matchRepo, participationRepo, standingRepo, matchGameRepo, notifier, nil),
		series:      NewSeriesService(txm, phaseRepo, matchRepo, participationRepo, notifier, nil),
	}
}
