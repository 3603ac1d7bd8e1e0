package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grading"
)

type gradingApi struct {
	svc      *grading.Service
	validate *validator.Validate
}

func registerGradingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *grading.Service, validate *validator.Validate) {
	api := gradingApi{svc: svc, validate: validate}

	sg := g.Group("/scales", jwt, staffMiddleware())
	sg.GET("", api.query)
	sg.POST("", api.save, adminMiddleware())
	sg.GET("/:id", api.retrieve)

	cg := g.Group("/classes/:class/scale", jwt, staffMiddleware())
	cg.GET("", api.classScale)
	cg.PUT("", api.setClassScale, adminMiddleware())
}

func (api *gradingApi) query(ctx echo.Context) error {
	scales, err := api.svc.Scales(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying scales")
	}
	return ctx.JSON(http.StatusOK, scales)
}

func (api *gradingApi) retrieve(ctx echo.Context) error {
	scale, err := api.svc.Scale(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding scale")
	}
	return ctx.JSON(http.StatusOK, scale)
}

func (api *gradingApi) save(ctx echo.Context) error {
	var data grading.Scale
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Scale")
	}

	scale, err := api.svc.SaveScale(ctx.Request().Context(), data, api.validate)
	if err != nil {
		return errors.Wrap(err, "saving scale")
	}
	return ctx.JSON(http.StatusCreated, scale)
}

func (api *gradingApi) classScale(ctx echo.Context) error {
	scale, err := api.svc.ClassScale(ctx.Request().Context(), ctx.Param("class"))
	if err != nil {
		return errors.Wrap(err, "getting class scale")
	}
	return ctx.JSON(http.StatusOK, scale)
}

type ClassScaleRequest struct {
	ScaleID string `json:"scale_id" validate:"required"`
}

func (api *gradingApi) setClassScale(ctx echo.Context) error {
	var data ClassScaleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassScaleRequest")
	}
	data.ScaleID = core.CleanString(data.ScaleID, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	scale, err := api.svc.SetClassScale(ctx.Request().Context(), ctx.Param("class"), data.ScaleID)
	if err != nil {
		return errors.Wrap(err, "setting class scale")
	}
	return ctx.JSON(http.StatusOK, scale)
}
