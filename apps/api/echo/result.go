package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/result"
)

type resultApi struct {
	svc  *result.Service
	deps ServerDeps
}

func registerResultAPI(g *echo.Group, deps ServerDeps) {
	api := resultApi{svc: deps.ResultSvc, deps: deps}

	g.POST("", api.record)
	g.GET("", api.query)
}

func (api *resultApi) record(ctx echo.Context) error {
	var data result.RecordMarks
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordMarks")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return err
	}
	entries, err := api.svc.RecordMarks(ctx.Request().Context(), data, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "recording marks")
	}
	return ctx.JSON(http.StatusCreated, entries)
}

func (api *resultApi) query(ctx echo.Context) error {
	var filter result.QueryFilter
	if err := ctx.Bind(&filter); err != nil || filter.StudentID < 1 {
		return core.NewFieldValidationError("studentId", "a valid student id is required")
	}

	res, err := api.svc.StudentResults(ctx.Request().Context(), filter.StudentID)
	if err != nil {
		return errors.Wrap(err, "finding student results")
	}
	return ctx.JSON(http.StatusOK, res)
}
