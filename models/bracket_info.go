package models

// BracketInfo is derived from a match set on demand, never persisted.
type BracketInfo struct {
	TotalParticipants int  `json:"total_participants"`
	TotalSlots        int  `json:"total_slots"`
	TotalRounds       int  `json:"total_rounds"`
	ByeCount          int  `json:"bye_count"`
	HasThirdPlace     bool `json:"has_third_place"`
}
