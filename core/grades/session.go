package grades

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/roster"
)

// Session state.
type State int

const (
	StateEditing State = iota
	StateSaving
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSaving:
		return "saving"
	case StateClosed:
		return "closed"
	}
	return "editing"
}

var (
	ErrNotEditing    = errors.New("edit session is not active")
	ErrSaveInFlight  = errors.New("a save for this session is already in progress")
	ErrUnknownField  = errors.New("unknown grade field")
	ErrRecordMissing = errors.New("record not in edit session")
)

type (
	// Client covers the upstream operations an edit session needs: the bulk
	// grade save and the post-save authoritative roster refresh.
	Client interface {
		SaveGrades(ctx context.Context, groupID int, recs []roster.StudentRecord) ([]SaveResult, error)
		Roster(ctx context.Context, groupID int) ([]roster.StudentRecord, null.Float64, error)
	}

	// SaveResult is the per-row outcome reported by the bulk save endpoint.
	SaveResult struct {
		EnrollmentID int    `json:"idinscripcion"`
		Success      bool   `json:"success"`
		Message      string `json:"message,omitempty"`
	}

	// SaveOutcome classifies a completed bulk save.
	SaveOutcome struct {
		Attempted int  `json:"attempted"`
		Saved     int  `json:"saved"`
		Partial   bool `json:"partial"`    // some but not all rows accepted
		NoChanges bool `json:"no_changes"` // zero rows accepted
	}

	// Session is the transient working copy of a roster while edit mode is
	// active. It is discarded on cancel and replaced by a freshly fetched,
	// freshly recomputed roster after a save; local NP/NF never survive as
	// baseline without passing through Recompute.
	Session struct {
		mu      sync.Mutex
		id      uuid.UUID
		state   State
		groupID int
		records []roster.StudentRecord
		index   map[int]int // enrollment id -> records position
		pond    Ponderation
		client  Client
		store   *roster.Store
		logger  core.Logger
	}
)

// Open starts an edit session over a detached copy of the given roster,
// seeding NP/NF by recomputing every record once. Permission to edit must be
// established by the caller before opening.
func Open(groupID int, recs []roster.StudentRecord, pond Ponderation, client Client, store *roster.Store, logger core.Logger) *Session {
	s := &Session{
		id:      uuid.New(),
		groupID: groupID,
		records: make([]roster.StudentRecord, len(recs)),
		index:   make(map[int]int, len(recs)),
		pond:    pond,
		client:  client,
		store:   store,
		logger:  logger,
	}
	for i, rec := range recs {
		rec.GroupID = groupID
		s.records[i] = Recompute(rec, pond)
		s.index[rec.EnrollmentID] = i
	}
	return s
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) GroupID() int { return s.groupID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Records() []roster.StudentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]roster.StudentRecord, len(s.records))
	copy(out, s.records)
	return out
}

// EditField updates exactly one component field of exactly one record,
// clamped to [0,10] at one decimal, and immediately recomputes that record.
// Edits are applied in the order received.
func (s *Session) EditField(enrollmentID int, field string, value float64) (roster.StudentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return roster.StudentRecord{}, ErrNotEditing
	}
	i, ok := s.index[enrollmentID]
	if !ok {
		return roster.StudentRecord{}, ErrRecordMissing
	}

	value = ClampScore(value)
	rec := s.records[i]
	switch field {
	case "p1":
		rec.P1 = value
	case "p2":
		rec.P2 = value
	case "pl1":
		rec.PL1 = value
	case "pl2":
		rec.PL2 = value
	case "pl3":
		rec.PL3 = value
	case "p3":
		rec.P3 = value
	case "er":
		rec.ER = null.Float64From(value)
	default:
		return roster.StudentRecord{}, core.NewValidationError(ErrUnknownField, core.FieldError{Field: field, Error: ErrUnknownField.Error()})
	}

	rec = Recompute(rec, s.pond)
	s.records[i] = rec
	return rec, nil
}

// SetPonderation switches the session-wide weights and recomputes every
// record in the session.
func (s *Session) SetPonderation(p Ponderation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrNotEditing
	}
	s.pond = p
	for i := range s.records {
		s.records[i] = Recompute(s.records[i], p)
	}
	return nil
}

// Save submits every record as one bulk payload and reconciles against the
// server's authoritative post-save roster. Saves are serialized per session:
// a second Save while one is outstanding fails with ErrSaveInFlight. On total
// failure the session stays editing with all local edits intact. On success
// (full or partial) the local copy is discarded, the roster is re-fetched and
// recomputed, and the session closes; if only the refresh fails, the save
// stands, the session still closes and the error is returned for surfacing.
func (s *Session) Save(ctx context.Context) (SaveOutcome, error) {
	s.mu.Lock()
	switch s.state {
	case StateSaving:
		s.mu.Unlock()
		return SaveOutcome{}, ErrSaveInFlight
	case StateClosed:
		s.mu.Unlock()
		return SaveOutcome{}, ErrNotEditing
	}
	s.state = StateSaving
	payload := make([]roster.StudentRecord, len(s.records))
	copy(payload, s.records)
	s.mu.Unlock()

	results, err := s.client.SaveGrades(ctx, s.groupID, payload)
	if err != nil {
		s.mu.Lock()
		s.state = StateEditing
		s.mu.Unlock()
		return SaveOutcome{}, errors.Wrap(err, "saving grades")
	}

	outcome := SaveOutcome{Attempted: len(payload)}
	for _, res := range results {
		if res.Success {
			outcome.Saved++
		}
	}
	outcome.NoChanges = outcome.Saved == 0
	outcome.Partial = outcome.Saved > 0 && outcome.Saved < len(results)
	if outcome.Partial {
		s.logger.Warn("bulk grade save partially rejected", outcome)
	}

	err = s.refresh(ctx)

	s.mu.Lock()
	s.state = StateClosed
	s.records = nil
	s.mu.Unlock()
	return outcome, err
}

// refresh discards the local copy and installs the server-confirmed roster,
// recomputed with the session's ponderation (server NP/NF are never trusted).
func (s *Session) refresh(ctx context.Context) error {
	recs, nma, err := s.client.Roster(ctx, s.groupID)
	if err != nil {
		return errors.Wrap(err, "refreshing roster after save")
	}
	for i := range recs {
		recs[i].GroupID = s.groupID
		recs[i] = Recompute(recs[i], s.pond)
	}
	s.store.SetRoster(s.groupID, recs)
	s.store.SetNMA(nma)
	return nil
}

// Cancel discards the local edited copy unconditionally, without any network
// call.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	s.records = nil
}
