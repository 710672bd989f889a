package roster

import (
	"errors"

	"github.com/volatiletech/null/v8"
)

var ErrNotFound = errors.New("student record not found")

// StudentRecord is one enrollment row of a group roster. The seven raw
// component fields are the authoritative inputs; NP and NF are derived and
// always recomputed locally, never trusted from storage.
type StudentRecord struct {
	EnrollmentID int    `json:"idinscripcion"`
	GroupID      int    `json:"idgrupo"`
	FirstName    string `json:"nombres"`
	LastName     string `json:"apellidos"`
	Code         string `json:"carnet"`

	P1  float64 `json:"p1"`
	P2  float64 `json:"p2"`
	PL1 float64 `json:"pl1"`
	PL2 float64 `json:"pl2"`
	PL3 float64 `json:"pl3"`
	P3  float64 `json:"p3"`
	// ER is the remedial retake of the final exam; absent for most students.
	ER null.Float64 `json:"er,omitempty"`

	NP float64 `json:"np"`
	NF float64 `json:"NF"`
}
