package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fernando88323/PortalDocente-sub001/apps/api/echo/helpers"
	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/user"
)

type authApi struct {
	service *user.Service
}

func RegisterAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := authApi{service: svc}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken, jwt)
}

func (api *authApi) login(ctx echo.Context) error {
	data := new(LoginRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := helpers.Authenticate(data.Username, data.Password, api.service)
	if err != nil {
		return err
	}
	token, err := helpers.GenerateToken(claims)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := helpers.RefreshToken(ctx, api.service)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.Validate.Struct(lr)
}
