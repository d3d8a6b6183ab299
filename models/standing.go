package models

import "time"

// Standing is one row per (phase, registration) in a group phase.
// RankPosition is always recomputed; ManualRankPosition is advisory data set
// through the override operation and never touched by recomputation.
type Standing struct {
	ID              int   `json:"id" db:"id"`
	PhaseID         int   `json:"phase_id" db:"phase_id"`
	RegistrationRef int64 `json:"registration_ref" db:"registration_ref"`

	MatchesPlayed int `json:"matches_played" db:"matches_played"`
	Wins          int `json:"wins" db:"wins"`
	Draws         int `json:"draws" db:"draws"`
	Losses        int `json:"losses" db:"losses"`
	Points        int `json:"points" db:"points"`
	ScoreFor      int `json:"score_for" db:"score_for"`
	ScoreAgainst  int `json:"score_against" db:"score_against"`
	ScoreDiff     int `json:"score_diff" db:"score_diff"`

	RankPosition       int  `json:"rank_position" db:"rank_position"`
	ManualRankPosition *int `json:"manual_rank_position,omitempty" db:"manual_rank_position"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
