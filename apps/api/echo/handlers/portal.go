package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Fernando88323/PortalDocente-sub001/apps/api/echo/helpers"
	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/cycle"
	"github.com/Fernando88323/PortalDocente-sub001/core/grades"
	"github.com/Fernando88323/PortalDocente-sub001/core/group"
	"github.com/Fernando88323/PortalDocente-sub001/core/permission"
	"github.com/Fernando88323/PortalDocente-sub001/core/report"
	"github.com/Fernando88323/PortalDocente-sub001/core/roster"
	"github.com/Fernando88323/PortalDocente-sub001/core/user"
	"github.com/Fernando88323/PortalDocente-sub001/services/academia"
)

// cycleGraceDelta is how long a fresh portal waits for an explicit cycle
// resolution before firing one itself.
const cycleGraceDelta = 10 * time.Second

// Upstream is everything the portal needs from the academic-records service.
type Upstream interface {
	cycle.Source
	group.Client
	roster.Client
	grades.Client
	report.Client
	permission.Fetcher
}

type (
	PortalDeps struct {
		Conf     *core.Config
		Logger   core.Logger
		UserSvc  *user.Service
		PondRepo grades.Repository
		MailSvc  core.EmailService

		// NewUpstream overrides the upstream client construction (tests).
		NewUpstream func(core.AcademiaConfig, core.Logger) Upstream
	}

	// viewerPortal is one signed-in viewer's portal state: their own upstream
	// session (cookie jar included), catalog, roster, permission gate,
	// ponderation and edit sessions.
	viewerPortal struct {
		client   Upstream
		resolver *cycle.Resolver
		catalog  *group.Catalog
		groups   *group.Service
		store    *roster.Store
		roster   *roster.Service
		gate     *permission.Gate
		pond     *grades.Config
		sessions *grades.Manager
		reports  *report.Service

		mu        sync.Mutex
		stopGrace func() // cancels the pending deferred cycle resolution
	}

	portalApi struct {
		deps PortalDeps

		mu      sync.Mutex
		portals map[int]*viewerPortal // keyed by user id
	}
)

func RegisterPortalAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps PortalDeps) {
	api := &portalApi{deps: deps, portals: make(map[int]*viewerPortal)}

	pg := g.Group("/portal", jwt, helpers.PortalMiddleware())

	pg.GET("/cycle", api.cycleRetrieve)
	pg.POST("/cycle/resolve", api.cycleResolve)
	pg.PUT("/cycle", api.cycleOverride)
	pg.DELETE("/cycle", api.cycleReset)

	pg.GET("/groups", api.groupQuery)
	pg.POST("/groups/refresh", api.groupRefresh)
	pg.POST("/groups/:id/select", api.groupSelect)

	pg.GET("/roster", api.rosterRetrieve)
	pg.GET("/students", api.studentQueryAll)

	// clients call this when regaining focus; an admin may have toggled
	// grading in another session meanwhile
	pg.POST("/permission/refresh", api.permissionRefresh)

	registerGradesAPI(pg, api)
	registerReportAPI(pg, api)
}

// portal returns (building lazily) the viewer's portal state.
func (api *portalApi) portal(usr user.User) *viewerPortal {
	api.mu.Lock()
	defer api.mu.Unlock()

	if p, ok := api.portals[usr.ID]; ok {
		return p
	}

	newUpstream := api.deps.NewUpstream
	if newUpstream == nil {
		newUpstream = func(conf core.AcademiaConfig, logger core.Logger) Upstream {
			return academia.NewClient(conf, logger)
		}
	}
	client := newUpstream(api.deps.Conf.Academia, api.deps.Logger)
	catalog := group.NewCatalog()
	store := roster.NewStore()

	p := &viewerPortal{
		client:   client,
		catalog:  catalog,
		store:    store,
		resolver: cycle.NewResolver(client, catalog, api.deps.Logger),
		groups:   group.NewService(client, catalog, api.deps.Logger),
		roster:   roster.NewService(client, store, catalog, api.deps.Logger),
		gate:     permission.NewGate(client, api.deps.Conf.NotesEnabled, api.deps.Logger),
		pond:     grades.NewConfig(api.deps.PondRepo, usr.ID, api.deps.Logger),
		sessions: grades.NewManager(client, store, api.deps.Logger),
		reports:  report.NewService(client, api.deps.MailSvc, api.deps.Logger),
	}
	// safety net: if the viewer never triggers a resolution, fire one after
	// the grace period
	p.stopGrace = p.resolver.EnsureResolved(context.Background(), cycleGraceDelta)

	api.portals[usr.ID] = p
	return p
}

// rearmGrace cancels the pending deferred resolution and arms a fresh one.
func (p *viewerPortal) rearmGrace() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopGrace()
	p.stopGrace = p.resolver.EnsureResolved(context.Background(), cycleGraceDelta)
}

func (api *portalApi) viewerPortal(ctx echo.Context) (user.User, *viewerPortal, error) {
	usr, err := helpers.GetContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return user.User{}, nil, err
	}
	return usr, api.portal(usr), nil
}

// Cycle handlers

func (api *portalApi) cycleRetrieve(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newCycleResponse(p.resolver))
}

func (api *portalApi) cycleResolve(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	if _, err := p.resolver.Resolve(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newCycleResponse(p.resolver))
}

func (api *portalApi) cycleOverride(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	data := new(CycleOverrideRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	c, err := cycle.Parse(data.Cycle)
	if err != nil {
		return err
	}
	p.resolver.Set(c)
	return ctx.JSON(http.StatusOK, newCycleResponse(p.resolver))
}

// cycleReset re-arms the resolver so the next navigation resolves afresh.
func (api *portalApi) cycleReset(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	p.resolver.Rearm()
	p.rearmGrace()
	return ctx.JSON(http.StatusOK, newCycleResponse(p.resolver))
}

// Group handlers

func (api *portalApi) groupQuery(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newCatalogResponse(p.catalog))
}

func (api *portalApi) groupRefresh(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	cyc, ok := p.resolver.Value()
	if !ok {
		if cyc, err = p.resolver.Resolve(ctx.Request().Context()); err != nil {
			return err
		}
	}
	if _, err := p.groups.Refresh(ctx.Request().Context(), cyc); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newCatalogResponse(p.catalog))
}

func (api *portalApi) groupSelect(ctx echo.Context) error {
	usr, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return helpers.ErrHttpNotFound
	}

	grp, err := p.catalog.Select(id)
	if err != nil {
		return err
	}
	p.store.ClearRoster()

	// group changed: re-resolve the grading permission for it
	allowed := p.gate.Refresh(ctx.Request().Context(), usr, id)

	pond := p.pond.Current()
	if _, err := p.roster.Load(ctx.Request().Context(), id, func(rec roster.StudentRecord) roster.StudentRecord {
		return grades.Recompute(rec, pond)
	}); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, GroupSelectResponse{Group: grp, EditAllowed: allowed})
}

// Permission handlers

func (api *portalApi) permissionRefresh(ctx echo.Context) error {
	usr, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	sel, ok := p.catalog.Selected()
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "idgrupo", Error: "no group is selected"})
	}
	allowed := p.gate.Refresh(ctx.Request().Context(), usr, sel.ID)
	return ctx.JSON(http.StatusOK, PermissionResponse{GroupID: sel.ID, EditAllowed: allowed})
}

// Roster handlers

func (api *portalApi) rosterRetrieve(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	recs, groupID, ok := p.store.Roster()
	if !ok {
		return helpers.ErrHttpNotFound
	}
	return ctx.JSON(http.StatusOK, RosterResponse{
		GroupID:  groupID,
		NMA:      nmaValue(p.store),
		Students: recs,
	})
}

// studentQueryAll aggregates the rosters of every catalog group into one
// listing.
func (api *portalApi) studentQueryAll(ctx echo.Context) error {
	_, p, err := api.viewerPortal(ctx)
	if err != nil {
		return err
	}

	pond := p.pond.Current()
	recs, err := p.roster.LoadAll(ctx.Request().Context(), func(rec roster.StudentRecord) roster.StudentRecord {
		return grades.Recompute(rec, pond)
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, StudentsResponse{Students: recs})
}

func nmaValue(store *roster.Store) *float64 {
	if nma := store.NMA(); nma.Valid {
		return &nma.Float64
	}
	return nil
}

// Bindings

type (
	CycleResponse struct {
		Status   string `json:"status"`
		Cycle    string `json:"ciclo,omitempty"`
		Fallback bool   `json:"fallback,omitempty"`
		Error    string `json:"error,omitempty"`
	}

	CycleOverrideRequest struct {
		Cycle string `json:"ciclo" validate:"required,ciclo"`
	}

	CatalogResponse struct {
		Cycle  string        `json:"ciclo,omitempty"`
		Groups []group.Group `json:"grupos"`
	}

	GroupSelectResponse struct {
		Group       group.Group `json:"grupo"`
		EditAllowed bool        `json:"edicion_habilitada"`
	}

	RosterResponse struct {
		GroupID  int                    `json:"idgrupo"`
		NMA      *float64               `json:"NMA,omitempty"`
		Students []roster.StudentRecord `json:"estudiantes"`
	}

	StudentsResponse struct {
		Students []roster.StudentRecord `json:"estudiantes"`
	}

	PermissionResponse struct {
		GroupID     int  `json:"idgrupo"`
		EditAllowed bool `json:"edicion_habilitada"`
	}
)

func (cr *CycleOverrideRequest) Validate() error {
	// shape free-typed input through the progressive mask first
	cr.Cycle = cycle.FormatPartial(core.CleanString(cr.Cycle))
	return core.Validate.Struct(cr)
}

func newCycleResponse(r *cycle.Resolver) CycleResponse {
	res := CycleResponse{Status: r.Status().String(), Fallback: r.Fallback()}
	if c, ok := r.Value(); ok {
		res.Cycle = c.String()
	}
	if err := r.Err(); err != nil {
		res.Error = err.Error()
	}
	return res
}

func newCatalogResponse(c *group.Catalog) CatalogResponse {
	return CatalogResponse{Cycle: c.Cycle().String(), Groups: c.Groups()}
}
