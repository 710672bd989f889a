package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/Fernando88323/PortalDocente-sub001/core"
)

// ApprovalCSV renders approval-rate rows as a CSV attachment. The binary
// spreadsheet/PDF layout is left to the consumer; CSV is the export carrier.
func ApprovalCSV(cyc string, rows []ApprovalRow) (core.Attachment, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	records := [][]string{{"idgrupo", "materia", "evaluados", "aprobados", "reprobados", "porcentaje"}}
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.GroupID),
			r.Subject,
			strconv.Itoa(r.Evaluated),
			strconv.Itoa(r.Approved),
			strconv.Itoa(r.Failed),
			formatPct(r.ApprovalRate),
		})
	}
	if err := w.WriteAll(records); err != nil {
		return core.Attachment{}, errors.Wrap(err, "writing approval csv")
	}

	return core.Attachment{
		Content:     buf,
		ContentType: "text/csv",
		Filename:    fmt.Sprintf("aprobacion_%s.csv", sanitizeCycle(cyc)),
	}, nil
}

// SolvencyCSV renders payment-solvency rows as a CSV attachment.
func SolvencyCSV(cyc string, rows []SolvencyRow) (core.Attachment, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	records := [][]string{{"cuota", "solventes", "insolventes", "porcentaje"}}
	for _, r := range rows {
		records = append(records, []string{
			r.Cuota,
			strconv.Itoa(r.Solvent),
			strconv.Itoa(r.Insolvent),
			formatPct(r.SolvencyRate),
		})
	}
	if err := w.WriteAll(records); err != nil {
		return core.Attachment{}, errors.Wrap(err, "writing solvency csv")
	}

	return core.Attachment{
		Content:     buf,
		ContentType: "text/csv",
		Filename:    fmt.Sprintf("solvencia_%s.csv", sanitizeCycle(cyc)),
	}, nil
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func sanitizeCycle(cyc string) string {
	out := []rune(cyc)
	for i, r := range out {
		if r == '/' {
			out[i] = '-'
		}
	}
	return string(out)
}
