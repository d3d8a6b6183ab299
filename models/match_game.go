package models

// MatchGame is one sub-game (set) of a match, written by the sport-specific
// score-entry collaborators (table-tennis style multi-set scoring). The
// engine only reads these rows when recomputing standings: ScoreA belongs to
// the participation in corner A/BLUE, ScoreB to corner B/WHITE.
type MatchGame struct {
	ID         int `json:"id" db:"id"`
	MatchID    int `json:"match_id" db:"match_id"`
	GameNumber int `json:"game_number" db:"game_number"`
	ScoreA     int `json:"score_a" db:"score_a"`
	ScoreB     int `json:"score_b" db:"score_b"`
}
