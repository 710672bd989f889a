package report

import (
	"errors"
	"math"
	"sort"

	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/cycle"
)

// Report kinds.
type Kind string

const (
	KindApproval Kind = "aprobacion"
	KindSolvency Kind = "solvencia"
)

// DefaultPassMark is the approval threshold used when the upstream supplies
// no NMA reference value.
const DefaultPassMark = 6.0

var (
	ErrUnknownKind  = errors.New("unknown report kind")
	ErrCycleMissing = errors.New("a cycle must be selected")
	ErrCuotaMissing = errors.New("a cuota must be selected for the solvency report")
)

type (
	// ApprovalSource is one per-student row of the approval-rate payload.
	ApprovalSource struct {
		GroupID int     `json:"idgrupo"`
		Subject string  `json:"materia"`
		NF      float64 `json:"NF"`
	}

	// SolvencySource is one per-student row of the payment-solvency payload.
	SolvencySource struct {
		Cuota    string `json:"cuota"`
		Solvente bool   `json:"solvente"`
	}

	// ApprovalRow is one exportable approval-rate summary row.
	ApprovalRow struct {
		GroupID      int     `json:"idgrupo"`
		Subject      string  `json:"materia"`
		Evaluated    int     `json:"evaluados"`
		Approved     int     `json:"aprobados"`
		Failed       int     `json:"reprobados"`
		ApprovalRate float64 `json:"porcentaje"`
	}

	// SolvencyRow is one exportable payment-solvency summary row.
	SolvencyRow struct {
		Cuota        string  `json:"cuota"`
		Solvent      int     `json:"solventes"`
		Insolvent    int     `json:"insolventes"`
		SolvencyRate float64 `json:"porcentaje"`
	}

	// Filters select what to report on. Exports refuse to run until every
	// filter the report kind requires is present.
	Filters struct {
		Kind    Kind        `json:"tipo"`
		Cycle   cycle.Cycle `json:"ciclo"`
		GroupID int         `json:"idgrupo,omitempty"`
		Cuota   string      `json:"cuota,omitempty"`
	}
)

func (f Filters) Validate() error {
	if f.Cycle.IsZero() {
		return core.NewValidationError(ErrCycleMissing, core.FieldError{Field: "ciclo", Error: ErrCycleMissing.Error()})
	}
	switch f.Kind {
	case KindApproval:
	case KindSolvency:
		if f.Cuota == "" {
			return core.NewValidationError(ErrCuotaMissing, core.FieldError{Field: "cuota", Error: ErrCuotaMissing.Error()})
		}
	default:
		return core.NewValidationError(ErrUnknownKind, core.FieldError{Field: "tipo", Error: ErrUnknownKind.Error()})
	}
	return nil
}

// BuildApproval folds per-student rows into one summary row per group.
// Rows come back sorted by group id for stable exports.
func BuildApproval(rows []ApprovalSource, passMark float64) []ApprovalRow {
	byGroup := make(map[int]*ApprovalRow)
	for _, row := range rows {
		agg, ok := byGroup[row.GroupID]
		if !ok {
			agg = &ApprovalRow{GroupID: row.GroupID, Subject: row.Subject}
			byGroup[row.GroupID] = agg
		}
		agg.Evaluated++
		if row.NF >= passMark {
			agg.Approved++
		} else {
			agg.Failed++
		}
	}

	out := make([]ApprovalRow, 0, len(byGroup))
	for _, agg := range byGroup {
		if agg.Evaluated > 0 {
			agg.ApprovalRate = round2(float64(agg.Approved) / float64(agg.Evaluated) * 100)
		}
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out
}

// BuildSolvency folds per-student rows into one summary row per cuota.
func BuildSolvency(rows []SolvencySource) []SolvencyRow {
	byCuota := make(map[string]*SolvencyRow)
	for _, row := range rows {
		agg, ok := byCuota[row.Cuota]
		if !ok {
			agg = &SolvencyRow{Cuota: row.Cuota}
			byCuota[row.Cuota] = agg
		}
		if row.Solvente {
			agg.Solvent++
		} else {
			agg.Insolvent++
		}
	}

	out := make([]SolvencyRow, 0, len(byCuota))
	for _, agg := range byCuota {
		if total := agg.Solvent + agg.Insolvent; total > 0 {
			agg.SolvencyRate = round2(float64(agg.Solvent) / float64(total) * 100)
		}
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cuota < out[j].Cuota })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
