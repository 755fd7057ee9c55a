package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func registerDashboardAPI(g *echo.Group, deps ServerDeps) {
	g.GET("", func(ctx echo.Context) error {
		stats, err := deps.DashboardSvc.Stats(ctx.Request().Context())
		if err != nil {
			return errors.Wrap(err, "computing dashboard stats")
		}
		return ctx.JSON(http.StatusOK, stats)
	})
}
