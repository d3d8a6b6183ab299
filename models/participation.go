package models

type Corner string

const (
	// Elimination corners.
	CornerBlue  Corner = "BLUE"
	CornerWhite Corner = "WHITE"
	// Group / best-of-3 sides.
	CornerA Corner = "A"
	CornerB Corner = "B"
)

// Participation binds one registration to a match. At most two per match;
// (match_id, registration_ref) is unique at the storage layer, which is what
// makes concurrent slot assignment race-safe.
type Participation struct {
	ID              int    `json:"id" db:"id"`
	MatchID         int    `json:"match_id" db:"match_id"`
	RegistrationRef int64  `json:"registration_ref" db:"registration_ref"`
	Corner          Corner `json:"corner" db:"corner"`
}
