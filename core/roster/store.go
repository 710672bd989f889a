package roster

import (
	"sync"

	"github.com/volatiletech/null/v8"
)

// Store holds the per-group grading roster, the separately-fetched report
// student collection, the all-groups aggregate, and the NMA reference value.
type Store struct {
	mu             sync.RWMutex
	roster         []StudentRecord
	rosterGroupID  int
	hasRoster      bool
	reportStudents []StudentRecord
	allStudents    []StudentRecord
	nma            null.Float64
}

func NewStore() *Store {
	return &Store{}
}

// SetRoster installs the grading roster for a group, replacing any previous
// one. Callers must only install records whose NP/NF were just recomputed.
func (s *Store) SetRoster(groupID int, recs []StudentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosterGroupID = groupID
	s.roster = recs
	s.hasRoster = true
}

func (s *Store) Roster() ([]StudentRecord, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasRoster {
		return nil, 0, false
	}
	out := make([]StudentRecord, len(s.roster))
	copy(out, s.roster)
	return out, s.rosterGroupID, true
}

func (s *Store) ClearRoster() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = nil
	s.rosterGroupID = 0
	s.hasRoster = false
	s.nma = null.Float64{}
}

func (s *Store) SetNMA(nma null.Float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nma = nma
}

// NMA returns the externally supplied reference value; invalid when the
// upstream supplied none, which is distinct from a reference of 0.
func (s *Store) NMA() null.Float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nma
}

func (s *Store) SetReportStudents(recs []StudentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportStudents = recs
}

func (s *Store) ReportStudents() []StudentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StudentRecord, len(s.reportStudents))
	copy(out, s.reportStudents)
	return out
}

func (s *Store) SetAllStudents(recs []StudentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allStudents = recs
}

func (s *Store) AllStudents() []StudentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StudentRecord, len(s.allStudents))
	copy(out, s.allStudents)
	return out
}
