package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/subject"
)

type subjectApi struct {
	svc  *subject.Service
	deps ServerDeps
}

func registerSubjectAPI(subjects, papers *echo.Group, deps ServerDeps) {
	api := subjectApi{svc: deps.SubjectSvc, deps: deps}

	subjects.POST("", api.create)
	subjects.GET("", api.query)
	subjects.GET("/:id", api.retrieve)
	subjects.PATCH("/:id", api.update)
	subjects.DELETE("/:id", api.destroy, adminMiddleware)

	papers.POST("", api.createPaper)
	papers.GET("", api.queryPapers)
	papers.GET("/:id", api.retrievePaper)
	papers.DELETE("/:id", api.destroyPaper, adminMiddleware)
}

func (api *subjectApi) create(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sub, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *subjectApi) query(ctx echo.Context) error {
	var filter subject.QueryFilter
	_ = ctx.Bind(&filter) // ignore bad filters
	filter.Clean()

	subjects, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	sub, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subjectApi) update(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	orig, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding subject")
	}

	var data subject.UpdateSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err = data.Validate(orig, api.deps.Validate); err != nil {
		return err
	}

	sub, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *subjectApi) createPaper(ctx echo.Context) error {
	var data subject.NewPaper
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPaper")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	paper, err := api.svc.CreatePaper(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject paper")
	}
	return ctx.JSON(http.StatusCreated, paper)
}

func (api *subjectApi) queryPapers(ctx echo.Context) error {
	var filter subject.PaperFilter
	_ = ctx.Bind(&filter) // ignore bad filters
	filter.Clean()

	papers, err := api.svc.QueryPapers(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying subject papers")
	}
	return ctx.JSON(http.StatusOK, papers)
}

func (api *subjectApi) retrievePaper(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	paper, err := api.svc.GetPaperByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding subject paper")
	}
	return ctx.JSON(http.StatusOK, paper)
}

func (api *subjectApi) destroyPaper(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeletePaper(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting subject paper")
	}
	return ctx.NoContent(http.StatusNoContent)
}
