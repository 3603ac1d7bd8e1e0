package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/schedule"
)

type scheduleApi struct {
	svc      *schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *schedule.Service, validate *validator.Validate) {
	api := scheduleApi{svc: svc, validate: validate}

	sg := g.Group("/schedule", jwt, staffMiddleware())
	sg.GET("", api.query)
	sg.POST("", api.create, adminMiddleware())
	sg.POST("/check", api.check)
	sg.GET("/stats", api.stats)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, adminMiddleware())
	sg.DELETE("/:id", api.destroy, adminMiddleware())
	sg.POST("/:id/move", api.move, adminMiddleware())
}

func (api *scheduleApi) bindFilter(ctx echo.Context) (schedule.QueryFilter, error) {
	var filter schedule.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	return filter, nil
}

func (api *scheduleApi) query(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying schedule")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *scheduleApi) stats(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.Stats(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "computing schedule stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding schedule entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *scheduleApi) bindEntry(ctx echo.Context) (schedule.NewEntry, error) {
	var data schedule.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to NewEntry")
	}
	return data, data.Validate(api.validate)
}

type CheckResponse struct {
	HasConflict bool                `json:"has_conflict"`
	Conflicts   []schedule.Conflict `json:"conflicts"`
}

// check reports the conflicts of a candidate entry without saving it; `?exclude=ID` ignores the entry being edited.
func (api *scheduleApi) check(ctx echo.Context) error {
	data, err := api.bindEntry(ctx)
	if err != nil {
		return err
	}
	conflicts, err := api.svc.CheckNew(ctx.Request().Context(), data, ctx.QueryParam("exclude"))
	if err != nil {
		return errors.Wrap(err, "checking conflicts")
	}
	if conflicts == nil {
		conflicts = []schedule.Conflict{}
	}
	return ctx.JSON(http.StatusOK, CheckResponse{HasConflict: len(conflicts) > 0, Conflicts: conflicts})
}

func (api *scheduleApi) create(ctx echo.Context) error {
	data, err := api.bindEntry(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating schedule entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	data, err := api.bindEntry(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating schedule entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *scheduleApi) move(ctx echo.Context) error {
	var data schedule.Move
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Move")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	e, err := api.svc.Move(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "moving schedule entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting schedule entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
