package echoapi

import (
	"bytes"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/attendance"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, validate *validator.Validate) {
	api := attendanceApi{svc: svc, validate: validate}

	ag := g.Group("/attendance", jwt, staffMiddleware())
	ag.GET("", api.roster)
	ag.GET("/export.csv", api.exportRoster)
	ag.PUT("", api.mark)
	ag.DELETE("/:student/:date", api.unmark)
	ag.POST("/bulk", api.bulkUpdate)
	ag.POST("/copy-previous", api.copyPrevious)
}

func (api *attendanceApi) bindRoster(ctx echo.Context) (attendance.Roster, error) {
	var filter attendance.RosterFilter
	if err := ctx.Bind(&filter); err != nil {
		return attendance.Roster{}, errors.Wrap(err, "binding to RosterFilter")
	}
	roster, err := api.svc.Roster(ctx.Request().Context(), filter)
	if err != nil {
		return attendance.Roster{}, errors.Wrap(err, "building roster")
	}
	return roster, nil
}

func (api *attendanceApi) roster(ctx echo.Context) error {
	roster, err := api.bindRoster(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, roster)
}

func (api *attendanceApi) exportRoster(ctx echo.Context) error {
	roster, err := api.bindRoster(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = attendance.WriteCSV(&buf, roster.Rows); err != nil {
		return errors.Wrap(err, "exporting roster")
	}
	filename := "attendance-" + roster.Date.Format(attendance.DateLayout) + ".csv"
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Mark(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) unmark(ctx echo.Context) error {
	day, err := dateParam(ctx.Param("date"), "date")
	if err != nil {
		return err
	}
	if err = api.svc.Unmark(ctx.Request().Context(), ctx.Param("student"), day); err != nil {
		return errors.Wrap(err, "unmarking attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// outcome answers 422 when an atomic bulk operation was rejected as a whole.
func outcome(ctx echo.Context, out attendance.BulkOutcome) error {
	if out.Mode == attendance.ModeAtomic && out.Failed > 0 {
		return ctx.JSON(http.StatusUnprocessableEntity, out)
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *attendanceApi) bulkUpdate(ctx echo.Context) error {
	var data attendance.BulkUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	out, err := api.svc.BulkUpdate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	return outcome(ctx, out)
}

func (api *attendanceApi) copyPrevious(ctx echo.Context) error {
	var data attendance.CopyPrevious
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CopyPrevious")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	out, err := api.svc.CopyPreviousDay(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "copying previous attendance")
	}
	return outcome(ctx, out)
}
