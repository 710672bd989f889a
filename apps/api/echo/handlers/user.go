package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fernando88323/PortalDocente-sub001/apps/api/echo/helpers"
	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/user"
)

var noPermsToSetRolesErr = "not enough rights to set these roles"

type userApi struct {
	service *user.Service
}

func RegisterUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := userApi{service: svc}

	ug := g.Group("/users", jwt)
	ug.POST("/register", api.userCreate, helpers.AdminMiddleware())
	ug.GET("/roles", api.userQueryRoles, helpers.AdminMiddleware())
	ug.GET("/me", api.userRetrieveSelf)
}

func (api *userApi) userCreate(ctx echo.Context) error {
	data := new(user.NewUser)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.service); err != nil {
		return err
	}

	// ctxUser cannot set a role > their own max role
	ctxUsr, err := helpers.GetContextUser(ctx, api.service)
	if err != nil {
		return err
	}
	if user.MaxRolePriority(data.Roles) > user.MaxRolePriority(ctxUsr.Roles) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: noPermsToSetRolesErr})
	}

	usr, err := api.service.Create(*data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) userRetrieveSelf(ctx echo.Context) error {
	usr, err := helpers.GetContextUser(ctx, api.service)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) userQueryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}
