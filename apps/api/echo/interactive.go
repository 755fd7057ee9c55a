package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/payment"
)

// interactiveApi serves the public, unauthenticated endpoints students use to look up their results.
type interactiveApi struct {
	deps ServerDeps
}

func registerInteractiveAPI(g *echo.Group, deps ServerDeps) {
	api := interactiveApi{deps: deps}

	g.GET("/student", api.student)
	g.GET("/student/report", api.report)

	pg := g.Group("/payments")
	pg.POST("", api.startPayment)
	pg.POST("/notify", api.notify)
	pg.GET("/:reference", api.payment)
}

func indexParam(ctx echo.Context) (string, error) {
	index := ctx.QueryParam("index")
	if index == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "the index query param is required")
	}
	return index, nil
}

func (api *interactiveApi) student(ctx echo.Context) error {
	index, err := indexParam(ctx)
	if err != nil {
		return err
	}
	std, err := api.deps.StudentSvc.GetByIndexNo(ctx.Request().Context(), index)
	if err != nil {
		return errors.Wrap(err, "finding student by index")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *interactiveApi) report(ctx echo.Context) error {
	index, err := indexParam(ctx)
	if err != nil {
		return err
	}
	slip, err := api.deps.ReportSvc.SlipByIndex(ctx.Request().Context(), index)
	if err != nil {
		return errors.Wrap(err, "building result slip")
	}
	return sendSlip(ctx, slip)
}

func (api *interactiveApi) startPayment(ctx echo.Context) error {
	var data payment.StartPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartPayment")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	p, err := api.deps.PaymentSvc.Start(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "starting payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

// notify receives the payment provider's status updates.
func (api *interactiveApi) notify(ctx echo.Context) error {
	var data payment.Notification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Notification")
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}

	p, err := api.deps.PaymentSvc.HandleNotification(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "handling payment notification")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *interactiveApi) payment(ctx echo.Context) error {
	p, err := api.deps.PaymentSvc.Get(ctx.Request().Context(), ctx.Param("reference"))
	if err != nil {
		return errors.Wrap(err, "finding payment")
	}
	return ctx.JSON(http.StatusOK, p)
}
