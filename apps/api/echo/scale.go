package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/grading"
)

type scaleApi struct {
	svc  *grading.Service
	deps ServerDeps
}

func registerScaleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := scaleApi{svc: deps.ScaleSvc, deps: deps}

	g.GET("", api.query)
	g.GET("/:id", api.retrieve)

	g.POST("", api.create, jwt)
	g.PUT("/:id", api.replace, jwt)
	g.DELETE("/:id", api.destroy, jwt, adminMiddleware)
}

func (api *scaleApi) query(ctx echo.Context) error {
	if name := core.CleanString(ctx.QueryParam("name")); name != "" {
		gs, err := api.svc.GetScale(ctx.Request().Context(), name)
		if err != nil {
			if errors.Cause(err) == grading.ErrNotFound {
				return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Grade system '%s' not found", name))
			}
			return errors.Wrap(err, "finding grade system by name")
		}
		return ctx.JSON(http.StatusOK, gs)
	}

	scales, err := api.svc.ListScales(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing grade systems")
	}
	return ctx.JSON(http.StatusOK, scales)
}

func (api *scaleApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	gs, err := api.svc.GetScaleByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding grade system by ID")
	}
	return ctx.JSON(http.StatusOK, gs)
}

func (api *scaleApi) create(ctx echo.Context) error {
	var data grading.NewScale
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewScale")
	}
	ranges, err := data.Validate(api.deps.Validate)
	if err != nil {
		return err
	}

	gs, err := api.svc.CreateScale(ctx.Request().Context(), data.Name, ranges)
	if err != nil {
		return errors.Wrap(err, "creating grade system")
	}
	return ctx.JSON(http.StatusCreated, gs)
}

// replace renames a grade system and replaces all its ranges at once.
// Nothing changes when the request fails.
func (api *scaleApi) replace(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data grading.ReplaceScale
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReplaceScale")
	}
	ranges, err := data.Validate(api.deps.Validate)
	if err != nil {
		return err
	}

	gs, err := api.svc.ReplaceRanges(ctx.Request().Context(), id, data.Name, ranges)
	if err != nil {
		return errors.Wrap(err, "replacing grade ranges")
	}
	return ctx.JSON(http.StatusOK, gs)
}

func (api *scaleApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteScale(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting grade system")
	}
	return ctx.NoContent(http.StatusNoContent)
}
