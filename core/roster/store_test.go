package roster

import (
	"testing"

	"github.com/volatiletech/null/v8"
)

func TestStore_roster(t *testing.T) {
	s := NewStore()

	if _, _, ok := s.Roster(); ok {
		t.Error("Roster() ok on an empty store")
	}

	recs := []StudentRecord{{EnrollmentID: 11, FirstName: "Ana"}}
	s.SetRoster(7, recs)
	s.SetNMA(null.Float64From(7.5))

	got, groupID, ok := s.Roster()
	if !ok || groupID != 7 || len(got) != 1 {
		t.Fatalf("Roster() = %v, %d, %v", got, groupID, ok)
	}

	// callers get a copy, not the backing slice
	got[0].FirstName = "mutated"
	if again, _, _ := s.Roster(); again[0].FirstName != "Ana" {
		t.Error("Roster() exposed its backing slice")
	}

	if nma := s.NMA(); !nma.Valid || nma.Float64 != 7.5 {
		t.Errorf("NMA() = %+v, want valid 7.5", nma)
	}

	s.ClearRoster()
	if _, _, ok := s.Roster(); ok {
		t.Error("Roster() ok after ClearRoster")
	}
	if s.NMA().Valid {
		t.Error("NMA() still valid after ClearRoster")
	}
}

func TestStore_reportCollections(t *testing.T) {
	s := NewStore()

	s.SetReportStudents([]StudentRecord{{EnrollmentID: 1}, {EnrollmentID: 2}})
	s.SetAllStudents([]StudentRecord{{EnrollmentID: 3}})

	if got := s.ReportStudents(); len(got) != 2 {
		t.Errorf("ReportStudents() len = %d, want 2", len(got))
	}
	if got := s.AllStudents(); len(got) != 1 {
		t.Errorf("AllStudents() len = %d, want 1", len(got))
	}
}
