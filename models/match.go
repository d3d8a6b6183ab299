package models

import "time"

type MatchStatus string

const (
	StatusScheduled  MatchStatus = "scheduled"
	StatusInProgress MatchStatus = "in_progress"
	StatusFinished   MatchStatus = "finished"
	StatusCancelled  MatchStatus = "cancelled"
)

// ThirdPlaceMatchNumber is the reserved match number for the third-place
// match. It sits outside the dense sequence so the positional arithmetic of
// winner advancement never picks it up as a regular slot.
const ThirdPlaceMatchNumber = 9999

type Match struct {
	ID          int         `json:"id" db:"id"`
	PhaseID     int         `json:"phase_id" db:"phase_id"`
	MatchNumber int         `json:"match_number" db:"match_number"`
	Round       string      `json:"round" db:"round"`
	Status      MatchStatus `json:"status" db:"status"`
	Score1      *int        `json:"score1,omitempty" db:"score1"`
	Score2      *int        `json:"score2,omitempty" db:"score2"`

	// WinnerRegistrationRef is the opaque registration identifier of the
	// winner. The engine never dereferences it.
	WinnerRegistrationRef *int64 `json:"winner_registration_ref,omitempty" db:"winner_registration_ref"`

	Walkover       bool    `json:"walkover" db:"walkover"`
	WalkoverReason *string `json:"walkover_reason,omitempty" db:"walkover_reason"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`

	// Populated by services when listing, not a table column.
	Participations []Participation `json:"participations,omitempty" db:"-"`
}

func (m *Match) IsThirdPlace() bool {
	return m.MatchNumber == ThirdPlaceMatchNumber
}

// ParticipationByRef returns the participation holding the given registration
// reference, or nil.
func (m *Match) ParticipationByRef(ref int64) *Participation {
	for i := range m.Participations {
		if m.Participations[i].RegistrationRef == ref {
			return &m.Participations[i]
		}
	}
	return nil
}

// OpponentOf returns the registration reference of the other participant in
// a two-sided match, or nil when the match has no other participation.
func (m *Match) OpponentOf(ref int64) *int64 {
	for i := range m.Participations {
		if m.Participations[i].RegistrationRef != ref {
			r := m.Participations[i].RegistrationRef
			return &r
		}
	}
	return nil
}
