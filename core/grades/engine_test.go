package grades

import (
	"math"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/Fernando88323/PortalDocente-sub001/core/roster"
)

func TestRecompute(t *testing.T) {
	pond := DefaultPonderation() // p1: 30, p2: 30

	tests := []struct {
		name   string
		rec    roster.StudentRecord
		pond   Ponderation
		wantNP float64
		wantNF float64
	}{
		{
			name:   "no remedial",
			rec:    roster.StudentRecord{P1: 7.5, P2: 7.5, P3: 6},
			pond:   pond,
			wantNP: 4.5,
			wantNF: 6.9,
		},
		{
			name:   "remedial better than final replaces it",
			rec:    roster.StudentRecord{P1: 7.5, P2: 7.5, P3: 6, ER: null.Float64From(9)},
			pond:   pond,
			wantNP: 4.5,
			wantNF: 8.1,
		},
		{
			name:   "remedial worse than final is ignored",
			rec:    roster.StudentRecord{P1: 7.5, P2: 7.5, P3: 6, ER: null.Float64From(5)},
			pond:   pond,
			wantNP: 4.5,
			wantNF: 6.9,
		},
		{
			name:   "remedial equal to final is ignored",
			rec:    roster.StudentRecord{P1: 7.5, P2: 7.5, P3: 6, ER: null.Float64From(6)},
			pond:   pond,
			wantNP: 4.5,
			wantNF: 6.9,
		},
		{
			name:   "zero remedial is ignored even against a zero final",
			rec:    roster.StudentRecord{P1: 7.5, P2: 7.5, P3: 0, ER: null.Float64From(0)},
			pond:   pond,
			wantNP: 4.5,
			wantNF: 4.5,
		},
		{
			name:   "absent remedial is distinct from zero",
			rec:    roster.StudentRecord{P1: 7.5, P2: 7.5, P3: 6},
			pond:   pond,
			wantNP: 4.5,
			wantNF: 6.9,
		},
		{
			name:   "all five components weighted",
			rec:    roster.StudentRecord{P1: 10, P2: 8, PL1: 6, PL2: 4, PL3: 2, P3: 5},
			pond:   Ponderation{P1: 20, P2: 15, PL1: 10, PL2: 10, PL3: 5},
			wantNP: 4.3,
			wantNF: 6.3,
		},
		{
			name:   "rounding to two decimals",
			rec:    roster.StudentRecord{P1: 3.3, P2: 3.3, P3: 3.3},
			pond:   pond,
			wantNP: 1.98,
			wantNF: 3.3,
		},
		{
			name:   "zero ponderation yields final-only grade",
			rec:    roster.StudentRecord{P1: 10, P2: 10, P3: 10},
			pond:   Ponderation{},
			wantNP: 0,
			wantNF: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recompute(tt.rec, tt.pond)
			if got.NP != tt.wantNP {
				t.Errorf("Recompute() NP = %v, want %v", got.NP, tt.wantNP)
			}
			if got.NF != tt.wantNF {
				t.Errorf("Recompute() NF = %v, want %v", got.NF, tt.wantNF)
			}
		})
	}
}

func TestRecompute_pure(t *testing.T) {
	pond := DefaultPonderation()
	rec := roster.StudentRecord{EnrollmentID: 1, P1: 7.5, P2: 7.5, P3: 6, NP: 999, NF: 999}

	// stale NP/NF inputs never leak into the outputs
	got := Recompute(rec, pond)
	if got.NP != 4.5 || got.NF != 6.9 {
		t.Errorf("Recompute() = NP %v NF %v, want NP 4.5 NF 6.9", got.NP, got.NF)
	}

	// idempotent: recomputing the output changes nothing
	again := Recompute(got, pond)
	if again != got {
		t.Errorf("Recompute() not idempotent: %+v != %+v", again, got)
	}

	// the input record is untouched
	if rec.NP != 999 || rec.NF != 999 {
		t.Error("Recompute() mutated its input")
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: -1, want: 0},
		{in: 0, want: 0},
		{in: math.NaN(), want: 0},
		{in: 5.25, want: 5.3},
		{in: 5.24, want: 5.2},
		{in: 10, want: 10},
		{in: 10.1, want: 10},
		{in: 999, want: 10},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
