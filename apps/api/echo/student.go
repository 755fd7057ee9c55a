package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/report"
	"github.com/trezcool/matokeo/core/result"
	"github.com/trezcool/matokeo/core/student"
)

type studentApi struct {
	svc  *student.Service
	deps ServerDeps
}

func registerStudentAPI(g *echo.Group, deps ServerDeps) {
	api := studentApi{svc: deps.StudentSvc, deps: deps}

	g.POST("", api.create)
	g.GET("", api.query)

	dg := g.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware)
	dg.GET("/summary", api.summary)
	dg.GET("/report", api.report)
	dg.POST("/report/send", api.sendReport, adminMiddleware)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.deps.Validate, api.svc); err != nil {
		return err
	}

	std, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.WithSchool{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	detail, err := api.svc.GetDetail(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if _, err = api.svc.GetByID(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "finding student")
	}

	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err = api.svc.ValidateUpdate(&data, id, api.deps.Validate); err != nil {
		return err
	}

	std, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) summary(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	std, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}

	sum, err := api.deps.ResultSvc.Summarize(ctx.Request().Context(), std)
	if errors.Cause(err) == result.ErrEmptyResultSet {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("student %s has no results yet", std.IndexNo))
	} else if err != nil {
		return errors.Wrap(err, "summarizing results")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *studentApi) report(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	slip, err := api.deps.ReportSvc.SlipByStudentID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "building result slip")
	}
	return sendSlip(ctx, slip)
}

func (api *studentApi) sendReport(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	slip, err := api.deps.ReportSvc.SendSlip(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "sending result slip")
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{
		Success: fmt.Sprintf("The results of %s are being sent to %s.", slip.Student.IndexNo, slip.Student.Email),
	})
}

// sendSlip streams slip as a PDF attachment.
func sendSlip(ctx echo.Context, slip report.Slip) error {
	var buf bytes.Buffer
	if err := report.Render(&buf, slip); err != nil {
		return errors.Wrap(err, "rendering result slip")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", slip.Filename()))
	return ctx.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}
