package handlers

import (
	"net/http"
	"net/mail"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/cycle"
	"github.com/Fernando88323/PortalDocente-sub001/core/grades"
	"github.com/Fernando88323/PortalDocente-sub001/core/report"
	"github.com/Fernando88323/PortalDocente-sub001/core/roster"
)

func registerReportAPI(g *echo.Group, api *portalApi) {
	g.GET("/reports/aprobacion", api.reportApproval)
	g.GET("/reports/solvencia", api.reportSolvency)
	g.GET("/reports/estudiantes", api.reportStudents)
	g.POST("/reports/export", api.reportExport)
}

// reportStudents lists one group's students for reporting, without touching
// the grading roster.
func (api *portalApi) reportStudents(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(ctx.QueryParam("idgrupo"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "idgrupo", Error: "a group must be selected"})
	}
	grp, err := p.catalog.Get(id)
	if err != nil {
		return err
	}

	pond := p.pond.Current()
	recs, err := p.roster.LoadForReport(ctx.Request().Context(), grp.ID, func(rec roster.StudentRecord) roster.StudentRecord {
		return grades.Recompute(rec, pond)
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, StudentsResponse{Students: recs})
}

func (api *portalApi) reportApproval(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	f, err := bindFilters(ctx, report.KindApproval)
	if err != nil {
		return err
	}

	rows, err := p.reports.Approval(ctx.Request().Context(), f, passMark(p))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *portalApi) reportSolvency(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	f, err := bindFilters(ctx, report.KindSolvency)
	if err != nil {
		return err
	}

	rows, err := p.reports.Solvency(ctx.Request().Context(), f)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *portalApi) reportExport(ctx echo.Context) error {
	usr, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	data := new(ExportRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cyc, err := cycle.Parse(data.Cycle)
	if err != nil {
		return err
	}
	f := report.Filters{
		Kind:    report.Kind(data.Kind),
		Cycle:   cyc,
		GroupID: data.GroupID,
		Cuota:   data.Cuota,
	}

	recipients := []mail.Address{{Name: usr.Name, Address: usr.Email}}
	if err := p.reports.Export(ctx.Request().Context(), f, passMark(p), recipients); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusAccepted)
}

// passMark prefers the upstream NMA reference when one was supplied.
func passMark(p *viewerPortal) float64 {
	if nma := p.store.NMA(); nma.Valid {
		return nma.Float64
	}
	return report.DefaultPassMark
}

func bindFilters(ctx echo.Context, kind report.Kind) (report.Filters, error) {
	data := new(FilterRequest)
	if err := ctx.Bind(data); err != nil {
		return report.Filters{}, err
	}
	if err := data.Validate(); err != nil {
		return report.Filters{}, err
	}

	cyc, err := cycle.Parse(data.Cycle)
	if err != nil {
		return report.Filters{}, err
	}
	return report.Filters{Kind: kind, Cycle: cyc, GroupID: data.GroupID, Cuota: data.Cuota}, nil
}

// Bindings

type (
	FilterRequest struct {
		Cycle   string `query:"ciclo" validate:"required"`
		GroupID int    `query:"idgrupo"`
		Cuota   string `query:"cuota"`
	}

	ExportRequest struct {
		Kind    string `json:"tipo" validate:"required,oneof=aprobacion solvencia"`
		Cycle   string `json:"ciclo" validate:"required"`
		GroupID int    `json:"idgrupo"`
		Cuota   string `json:"cuota" validate:"required_if=Kind solvencia"`
	}
)

func (fr *FilterRequest) Validate() error {
	fr.Cycle = core.CleanString(fr.Cycle)
	return core.Validate.Struct(fr)
}

func (er *ExportRequest) Validate() error {
	er.Kind = core.CleanString(er.Kind, true /* lower */)
	er.Cycle = core.CleanString(er.Cycle)
	return core.Validate.Struct(er)
}
