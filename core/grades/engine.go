package grades

import (
	"math"

	"github.com/Fernando88323/PortalDocente-sub001/core/roster"
)

// Recompute derives NP and NF from the raw component scores and the active
// ponderation. It is pure, deterministic and idempotent: NP/NF are outputs
// only, never inputs.
//
//   np = (p1*w1 + p2*w2 + pl1*w3 + pl2*w4 + pl3*w5) / 100, 2 decimals
//   nf = np + final*40/100, 2 decimals
//
// where final is p3, replaced by the remedial score only when the remedial
// is present, positive and strictly greater than p3 (it only ever improves
// the outcome, it is never averaged in).
func Recompute(rec roster.StudentRecord, p Ponderation) roster.StudentRecord {
	np := round2((rec.P1*p.P1 + rec.P2*p.P2 + rec.PL1*p.PL1 + rec.PL2*p.PL2 + rec.PL3*p.PL3) / 100)

	final := rec.P3
	if er := rec.ER; er.Valid && er.Float64 > 0 && er.Float64 > rec.P3 {
		final = er.Float64
	}

	rec.NP = np
	rec.NF = round2(np + final*FinalWeight/100)
	return rec
}

// ClampScore clamps a raw component score to [0,10] at one decimal of
// precision; NaN becomes 0.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v*10) / 10
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
