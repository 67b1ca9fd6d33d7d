package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/bookapp/internal/api/middleware"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

// actorFrom reads the identity injected by the Auth middleware. A missing
// user name means the middleware did not run; reject with 401.
func actorFrom(c echo.Context) (ports.Actor, error) {
	userName, _ := c.Get(middleware.CtxUserName).(string)
	if userName == "" {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	roles, _ := c.Get(middleware.CtxRoles).([]string)
	return ports.Actor{UserName: userName, Roles: roles}, nil
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs the echo validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	if c.Echo().Validator != nil {
		if err := c.Validate(req); err != nil {
			return err
		}
	}
	return nil
}
