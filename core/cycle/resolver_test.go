package cycle

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type fakeSource struct {
	cycle string
	err   error
	calls int
}

func (s *fakeSource) CurrentCycle(ctx context.Context) (string, error) {
	s.calls++
	return s.cycle, s.err
}

type fakeCatalog struct {
	cycle Cycle
	ok    bool
}

func (c *fakeCatalog) DeriveCycle() (Cycle, bool) { return c.cycle, c.ok }

func TestResolver_primarySource(t *testing.T) {
	src := &fakeSource{cycle: "01/2025"}
	r := NewResolver(src, nil, testLogger{})

	if r.Status() != StatusIdle {
		t.Fatalf("Status() = %v, want idle", r.Status())
	}

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "01/25" {
		t.Errorf("Resolve() = %v, want 01/25", got)
	}
	if r.Status() != StatusResolved {
		t.Errorf("Status() = %v, want resolved", r.Status())
	}
	if r.Fallback() {
		t.Error("Fallback() = true for a primary resolution")
	}
	if v, ok := r.Value(); !ok || v != "01/25" {
		t.Errorf("Value() = %v, %v", v, ok)
	}
}

func TestResolver_catalogFallback(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	catalog := &fakeCatalog{cycle: "02/25", ok: true}
	r := NewResolver(src, catalog, testLogger{})

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "02/25" {
		t.Errorf("Resolve() = %v, want 02/25", got)
	}
	if !r.Fallback() {
		t.Error("Fallback() = false for a catalog-derived value")
	}
}

func TestResolver_malformedPrimaryFallsBack(t *testing.T) {
	src := &fakeSource{cycle: "lol"}
	catalog := &fakeCatalog{cycle: "01/25", ok: true}
	r := NewResolver(src, catalog, testLogger{})

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "01/25" || !r.Fallback() {
		t.Errorf("Resolve() = %v fallback %v, want catalog fallback", got, r.Fallback())
	}
}

func TestResolver_failsWithoutFallback(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	r := NewResolver(src, &fakeCatalog{}, testLogger{})

	if _, err := r.Resolve(context.Background()); err == nil {
		t.Fatal("Resolve() expected an error")
	}
	if r.Status() != StatusFailed {
		t.Errorf("Status() = %v, want failed", r.Status())
	}
	if r.Err() == nil {
		t.Error("Err() = nil after failure")
	}
	if _, ok := r.Value(); ok {
		t.Error("Value() ok after failure")
	}
}

func TestResolver_manualOverrideAndRearm(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	r := NewResolver(src, nil, testLogger{})
	_, _ = r.Resolve(context.Background())

	r.Set("02/25")
	if v, ok := r.Value(); !ok || v != "02/25" {
		t.Errorf("Value() = %v, %v after Set", v, ok)
	}
	if !r.Fallback() {
		t.Error("Fallback() = false for a manual override")
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v after Set, want nil", r.Err())
	}

	r.Rearm()
	if r.Status() != StatusIdle {
		t.Errorf("Status() = %v after Rearm, want idle", r.Status())
	}
	if _, ok := r.Value(); ok {
		t.Error("Value() ok after Rearm")
	}
}

func TestResolver_ensureResolved(t *testing.T) {
	src := &fakeSource{cycle: "01/25"}
	r := NewResolver(src, nil, testLogger{})

	// resolution already happened: the safety net must not re-resolve
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	stop := r.EnsureResolved(context.Background(), time.Millisecond)
	defer stop()
	time.Sleep(20 * time.Millisecond)
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}

	// nothing resolved yet: the safety net fires once
	src2 := &fakeSource{cycle: "01/25"}
	r2 := NewResolver(src2, nil, testLogger{})
	stop2 := r2.EnsureResolved(context.Background(), time.Millisecond)
	defer stop2()
	time.Sleep(20 * time.Millisecond)
	if src2.calls != 1 {
		t.Errorf("deferred source calls = %d, want 1", src2.calls)
	}
	if r2.Status() != StatusResolved {
		t.Errorf("Status() = %v, want resolved", r2.Status())
	}

	// a stopped timer never fires
	src3 := &fakeSource{cycle: "01/25"}
	r3 := NewResolver(src3, nil, testLogger{})
	stop3 := r3.EnsureResolved(context.Background(), 10*time.Millisecond)
	stop3()
	time.Sleep(30 * time.Millisecond)
	if src3.calls != 0 {
		t.Errorf("stopped source calls = %d, want 0", src3.calls)
	}
}
