package models

type PhaseType string

const (
	PhaseElimination PhaseType = "elimination"
	PhaseGroup       PhaseType = "group"
	PhaseBestOfThree PhaseType = "best_of_3"
)

// Phase is a stage of a category's competition. Phases are created and owned
// by the surrounding CRUD layer; the engine only reads them and guards that
// the phase type matches the operation being invoked. The type is immutable
// once matches exist for the phase.
type Phase struct {
	ID           int       `json:"id" db:"id"`
	Type         PhaseType `json:"type" db:"type"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
}
