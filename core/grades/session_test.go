package grades

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Fernando88323/PortalDocente-sub001/core/roster"
)

type fakeClient struct {
	saveResults []SaveResult
	saveErr     error
	savedRecs   []roster.StudentRecord
	saveEntered chan struct{} // closed when SaveGrades is entered, if set
	saveRelease chan struct{} // SaveGrades blocks on it, if set

	rosterRecs []roster.StudentRecord
	rosterNMA  null.Float64
	rosterErr  error
}

func (c *fakeClient) SaveGrades(ctx context.Context, groupID int, recs []roster.StudentRecord) ([]SaveResult, error) {
	c.savedRecs = recs
	if c.saveEntered != nil {
		close(c.saveEntered)
	}
	if c.saveRelease != nil {
		<-c.saveRelease
	}
	if c.saveErr != nil {
		return nil, c.saveErr
	}
	if c.saveResults != nil {
		return c.saveResults, nil
	}
	results := make([]SaveResult, len(recs))
	for i, rec := range recs {
		results[i] = SaveResult{EnrollmentID: rec.EnrollmentID, Success: true}
	}
	return results, nil
}

func (c *fakeClient) Roster(ctx context.Context, groupID int) ([]roster.StudentRecord, null.Float64, error) {
	if c.rosterErr != nil {
		return nil, null.Float64{}, c.rosterErr
	}
	return c.rosterRecs, c.rosterNMA, nil
}

func testRoster() []roster.StudentRecord {
	return []roster.StudentRecord{
		{EnrollmentID: 11, FirstName: "Ana", P1: 7.5, P2: 7.5, P3: 6},
		{EnrollmentID: 22, FirstName: "Berta", P1: 5, P2: 5, P3: 4},
	}
}

func TestSession_openSeedsRecomputedCopy(t *testing.T) {
	s := Open(7, testRoster(), DefaultPonderation(), &fakeClient{}, roster.NewStore(), testLogger{})

	recs := s.Records()
	if len(recs) != 2 {
		t.Fatalf("Records() len = %d, want 2", len(recs))
	}
	if recs[0].NP != 4.5 || recs[0].NF != 6.9 {
		t.Errorf("seed NP/NF = %v/%v, want 4.5/6.9", recs[0].NP, recs[0].NF)
	}
	if recs[0].GroupID != 7 {
		t.Errorf("seed GroupID = %d, want 7", recs[0].GroupID)
	}
	if s.State() != StateEditing {
		t.Errorf("State() = %v, want editing", s.State())
	}
}

func TestSession_EditField(t *testing.T) {
	s := Open(7, testRoster(), DefaultPonderation(), &fakeClient{}, roster.NewStore(), testLogger{})

	rec, err := s.EditField(11, "p1", 10)
	if err != nil {
		t.Fatalf("EditField() error = %v", err)
	}
	if rec.P1 != 10 {
		t.Errorf("EditField() P1 = %v, want 10", rec.P1)
	}
	if rec.NP != 5.25 {
		t.Errorf("EditField() NP = %v, want 5.25", rec.NP)
	}

	// out-of-range input is clamped, not rejected
	if rec, err = s.EditField(11, "p2", 12.34); err != nil {
		t.Fatalf("EditField() error = %v", err)
	}
	if rec.P2 != 10 {
		t.Errorf("EditField() clamped P2 = %v, want 10", rec.P2)
	}

	// a remedial edit makes ER present
	if rec, err = s.EditField(11, "er", 9); err != nil {
		t.Fatalf("EditField() error = %v", err)
	}
	if !rec.ER.Valid || rec.ER.Float64 != 9 {
		t.Errorf("EditField() ER = %+v, want valid 9", rec.ER)
	}

	// only the targeted record changes
	recs := s.Records()
	if recs[1].P1 != 5 {
		t.Errorf("EditField() touched another record: P1 = %v", recs[1].P1)
	}

	if _, err = s.EditField(11, "nf", 10); err == nil {
		t.Error("EditField(nf) expected an error, derived fields are not editable")
	}
	if _, err = s.EditField(99, "p1", 10); err != ErrRecordMissing {
		t.Errorf("EditField() error = %v, want ErrRecordMissing", err)
	}
}

func TestSession_SetPonderation(t *testing.T) {
	s := Open(7, testRoster(), DefaultPonderation(), &fakeClient{}, roster.NewStore(), testLogger{})

	if err := s.SetPonderation(Ponderation{P1: 60}); err != nil {
		t.Fatalf("SetPonderation() error = %v", err)
	}
	recs := s.Records()
	if recs[0].NP != 4.5 { // 7.5 * 60 / 100
		t.Errorf("SetPonderation() NP = %v, want 4.5", recs[0].NP)
	}
	if recs[1].NP != 3 { // 5 * 60 / 100
		t.Errorf("SetPonderation() NP = %v, want 3", recs[1].NP)
	}
}

func TestSession_saveReconciles(t *testing.T) {
	// the server echoes back raw scores plus garbage NP/NF that must be ignored
	client := &fakeClient{
		rosterRecs: []roster.StudentRecord{
			{EnrollmentID: 11, P1: 10, P2: 7.5, P3: 6, NP: 999, NF: 999},
			{EnrollmentID: 22, P1: 5, P2: 5, P3: 4, NP: 999, NF: 999},
		},
		rosterNMA: null.Float64From(7),
	}
	store := roster.NewStore()
	s := Open(7, testRoster(), DefaultPonderation(), client, store, testLogger{})

	if _, err := s.EditField(11, "p1", 10); err != nil {
		t.Fatalf("EditField() error = %v", err)
	}

	outcome, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if outcome.Attempted != 2 || outcome.Saved != 2 || outcome.Partial || outcome.NoChanges {
		t.Errorf("Save() outcome = %+v", outcome)
	}
	if s.State() != StateClosed {
		t.Errorf("State() = %v, want closed", s.State())
	}

	// the edited value went out in the bulk payload
	if client.savedRecs[0].P1 != 10 {
		t.Errorf("saved P1 = %v, want 10", client.savedRecs[0].P1)
	}

	// the store now holds the server roster, recomputed locally
	recs, groupID, ok := store.Roster()
	if !ok || groupID != 7 {
		t.Fatalf("store.Roster() groupID = %d ok = %v", groupID, ok)
	}
	if recs[0].NP != 5.25 || recs[0].NF != 7.65 {
		t.Errorf("refreshed NP/NF = %v/%v, want 5.25/7.65", recs[0].NP, recs[0].NF)
	}
	if nma := store.NMA(); !nma.Valid || nma.Float64 != 7 {
		t.Errorf("store.NMA() = %+v, want valid 7", nma)
	}
}

func TestSession_totalFailureKeepsEdits(t *testing.T) {
	client := &fakeClient{saveErr: errors.New("boom")}
	s := Open(7, testRoster(), DefaultPonderation(), client, roster.NewStore(), testLogger{})

	if _, err := s.EditField(11, "p1", 10); err != nil {
		t.Fatalf("EditField() error = %v", err)
	}
	if _, err := s.Save(context.Background()); err == nil {
		t.Fatal("Save() expected an error")
	}

	// still editing, edits intact
	if s.State() != StateEditing {
		t.Errorf("State() = %v, want editing", s.State())
	}
	if recs := s.Records(); recs[0].P1 != 10 {
		t.Errorf("Records() P1 = %v, want the local edit kept", recs[0].P1)
	}
}

func TestSession_partialAndNoChangesOutcomes(t *testing.T) {
	client := &fakeClient{
		saveResults: []SaveResult{
			{EnrollmentID: 11, Success: true},
			{EnrollmentID: 22, Success: false, Message: "row rejected"},
		},
	}
	s := Open(7, testRoster(), DefaultPonderation(), client, roster.NewStore(), testLogger{})

	outcome, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !outcome.Partial || outcome.Saved != 1 || outcome.NoChanges {
		t.Errorf("Save() outcome = %+v, want partial", outcome)
	}

	client = &fakeClient{saveResults: []SaveResult{}}
	s = Open(7, testRoster(), DefaultPonderation(), client, roster.NewStore(), testLogger{})
	if outcome, err = s.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !outcome.NoChanges || outcome.Partial {
		t.Errorf("Save() outcome = %+v, want no changes", outcome)
	}
}

func TestSession_saveInFlightIsRejected(t *testing.T) {
	client := &fakeClient{
		saveEntered: make(chan struct{}),
		saveRelease: make(chan struct{}),
	}
	s := Open(7, testRoster(), DefaultPonderation(), client, roster.NewStore(), testLogger{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Save(context.Background())
		done <- err
	}()

	<-client.saveEntered
	if _, err := s.Save(context.Background()); err != ErrSaveInFlight {
		t.Errorf("Save() error = %v, want ErrSaveInFlight", err)
	}
	close(client.saveRelease)

	if err := <-done; err != nil {
		t.Errorf("first Save() error = %v", err)
	}
}

func TestSession_refreshFailureStillClosesSession(t *testing.T) {
	client := &fakeClient{rosterErr: errors.New("refresh boom")}
	s := Open(7, testRoster(), DefaultPonderation(), client, roster.NewStore(), testLogger{})

	outcome, err := s.Save(context.Background())
	if err == nil {
		t.Fatal("Save() expected the refresh error to surface")
	}
	if outcome.Saved != 2 {
		t.Errorf("Save() outcome = %+v, the save itself stood", outcome)
	}
	if s.State() != StateClosed {
		t.Errorf("State() = %v, want closed", s.State())
	}
}

func TestSession_cancelDiscardsWithoutNetwork(t *testing.T) {
	s := Open(7, testRoster(), DefaultPonderation(), &fakeClient{}, roster.NewStore(), testLogger{})

	s.Cancel()
	if s.State() != StateClosed {
		t.Errorf("State() = %v, want closed", s.State())
	}
	if _, err := s.EditField(11, "p1", 10); err != ErrNotEditing {
		t.Errorf("EditField() after cancel error = %v, want ErrNotEditing", err)
	}
	if _, err := s.Save(context.Background()); err != ErrNotEditing {
		t.Errorf("Save() after cancel error = %v, want ErrNotEditing", err)
	}
}

func TestManager(t *testing.T) {
	m := NewManager(&fakeClient{}, roster.NewStore(), testLogger{})

	s1 := m.Open(7, testRoster(), DefaultPonderation())
	if got, err := m.Get(s1.ID()); err != nil || got != s1 {
		t.Fatalf("Get() = %v, %v", got, err)
	}

	// a new session for the same group displaces the old one
	s2 := m.Open(7, testRoster(), DefaultPonderation())
	if s1.State() != StateClosed {
		t.Errorf("displaced session State() = %v, want closed", s1.State())
	}
	if _, err := m.Get(s1.ID()); err != ErrSessionNotFound {
		t.Errorf("Get() displaced error = %v, want ErrSessionNotFound", err)
	}

	m.Release(s2.ID())
	if _, err := m.Get(s2.ID()); err != ErrSessionNotFound {
		t.Errorf("Get() released error = %v, want ErrSessionNotFound", err)
	}
}
