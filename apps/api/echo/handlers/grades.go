package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Fernando88323/PortalDocente-sub001/apps/api/echo/helpers"
	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/grades"
	"github.com/Fernando88323/PortalDocente-sub001/core/group"
	"github.com/Fernando88323/PortalDocente-sub001/core/roster"
)

var rosterNotLoadedErr = "the group roster has not been loaded yet"

func registerGradesAPI(g *echo.Group, api *portalApi) {
	g.GET("/ponderation", api.ponderationRetrieve)
	g.POST("/ponderation/edit", api.ponderationBeginEdit)
	g.PATCH("/ponderation", api.ponderationSetWeight)
	g.PUT("/ponderation", api.ponderationApply)
	g.DELETE("/ponderation/edit", api.ponderationCancelEdit)

	g.POST("/groups/:id/edit-session", api.sessionOpen)
	g.GET("/edit-sessions/:sid", api.sessionRetrieve)
	g.PATCH("/edit-sessions/:sid/fields", api.sessionEditField)
	g.PUT("/edit-sessions/:sid/ponderation", api.sessionSetPonderation)
	g.POST("/edit-sessions/:sid/save", api.sessionSave)
	g.DELETE("/edit-sessions/:sid", api.sessionCancel)
}

// Ponderation configuration handlers

func (api *portalApi) ponderationRetrieve(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p.pond.Current())
}

func (api *portalApi) ponderationBeginEdit(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	p.pond.BeginEdit()
	return ctx.JSON(http.StatusOK, p.pond.Current())
}

func (api *portalApi) ponderationSetWeight(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	data := new(SetWeightRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	pond, err := p.pond.SetWeight(data.Field, grades.ClampWeight(data.Value))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pond)
}

func (api *portalApi) ponderationApply(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	pond, err := p.pond.Apply()
	if err != nil {
		return err
	}

	// the baseline roster always reflects the weights in force
	if recs, groupID, ok := p.store.Roster(); ok {
		for i := range recs {
			recs[i] = grades.Recompute(recs[i], pond)
		}
		p.store.SetRoster(groupID, recs)
	}
	return ctx.JSON(http.StatusOK, pond)
}

func (api *portalApi) ponderationCancelEdit(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p.pond.Cancel())
}

// Edit session handlers

func (api *portalApi) sessionOpen(ctx echo.Context) error {
	usr, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	grp, err := groupParam(ctx, p)
	if err != nil {
		return err
	}

	// fail closed: an unresolved permission denies entry
	if !p.gate.Allowed(usr, grp.ID) {
		return helpers.ErrHttpForbidden
	}

	recs, groupID, ok := p.store.Roster()
	if !ok || groupID != grp.ID {
		return core.NewValidationError(nil, core.FieldError{Field: "idgrupo", Error: rosterNotLoadedErr})
	}

	s := p.sessions.Open(grp.ID, recs, p.pond.Current())
	return ctx.JSON(http.StatusCreated, newSessionResponse(s))
}

func (api *portalApi) sessionRetrieve(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	s, err := sessionParam(ctx, p)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(s))
}

func (api *portalApi) sessionEditField(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	s, err := sessionParam(ctx, p)
	if err != nil {
		return err
	}

	data := new(EditFieldRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := s.EditField(data.EnrollmentID, data.Field, data.Value)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *portalApi) sessionSetPonderation(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	s, err := sessionParam(ctx, p)
	if err != nil {
		return err
	}

	data := new(grades.Ponderation)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := s.SetPonderation(*data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(s))
}

func (api *portalApi) sessionSave(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	s, err := sessionParam(ctx, p)
	if err != nil {
		return err
	}

	outcome, err := s.Save(ctx.Request().Context())
	if err != nil {
		if s.State() != grades.StateClosed {
			// the save itself failed; the session stays editable
			return err
		}
		// the save stood but the post-save refresh failed; surface it
		p.sessions.Release(s.ID())
		return ctx.JSON(http.StatusOK, SaveResponse{Outcome: outcome, Warning: err.Error()})
	}

	p.sessions.Release(s.ID())
	return ctx.JSON(http.StatusOK, SaveResponse{Outcome: outcome})
}

func (api *portalApi) sessionCancel(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	s, err := sessionParam(ctx, p)
	if err != nil {
		return err
	}

	s.Cancel()
	p.sessions.Release(s.ID())
	return ctx.NoContent(http.StatusNoContent)
}

func groupParam(ctx echo.Context, p *viewerPortal) (group.Group, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return group.Group{}, helpers.ErrHttpNotFound
	}
	return p.catalog.Get(id)
}

func sessionParam(ctx echo.Context, p *viewerPortal) (*grades.Session, error) {
	sid, err := uuid.Parse(ctx.Param("sid"))
	if err != nil {
		return nil, helpers.ErrHttpNotFound
	}
	return p.sessions.Get(sid)
}

// Bindings

type (
	SetWeightRequest struct {
		Field string  `json:"campo" validate:"required,oneof=p1 p2 pl1 pl2 pl3"`
		Value float64 `json:"valor"`
	}

	EditFieldRequest struct {
		EnrollmentID int     `json:"idinscripcion" validate:"required"`
		Field        string  `json:"campo" validate:"required"`
		Value        float64 `json:"valor"`
	}

	SessionResponse struct {
		ID       string                 `json:"id"`
		GroupID  int                    `json:"idgrupo"`
		State    string                 `json:"estado"`
		Students []roster.StudentRecord `json:"estudiantes"`
	}

	SaveResponse struct {
		Outcome grades.SaveOutcome `json:"resultado"`
		Warning string             `json:"advertencia,omitempty"`
	}
)

func (sr *SetWeightRequest) Validate() error {
	return core.Validate.Struct(sr)
}

func (er *EditFieldRequest) Validate() error {
	er.Field = core.CleanString(er.Field, true /* lower */)
	return core.Validate.Struct(er)
}

func newSessionResponse(s *grades.Session) SessionResponse {
	return SessionResponse{
		ID:       s.ID().String(),
		GroupID:  s.GroupID(),
		State:    s.State().String(),
		Students: s.Records(),
	}
}
