package echoapi

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/gradebook"
	sheetsvc "github.com/trezcool/darasa/services/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type gradebookApi struct {
	svc      *gradebook.Service
	validate *validator.Validate
	logger   core.Logger
}

func registerGradebookAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *gradebook.Service,
	validate *validator.Validate,
	logger core.Logger,
) {
	api := gradebookApi{svc: svc, validate: validate, logger: logger}

	cg := g.Group("/classes/:class", jwt, staffMiddleware())
	cg.GET("/assignments", api.queryAssignments)
	cg.POST("/assignments", api.createAssignment)
	cg.GET("/gradebook", api.classGradebook)
	cg.GET("/gradebook.xlsx", api.exportGradebook)
	cg.POST("/grades/import", api.importGrades)

	ag := g.Group("/assignments/:id", jwt, staffMiddleware())
	ag.GET("", api.retrieveAssignment)
	ag.PUT("", api.updateAssignment)
	ag.DELETE("", api.destroyAssignment)
	ag.PUT("/grades/:student", api.enterGrade)
	ag.DELETE("/grades/:student", api.deleteGrade)
}

func (api *gradebookApi) queryAssignments(ctx echo.Context) error {
	assignments, err := api.svc.Assignments(ctx.Request().Context(), ctx.Param("class"))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *gradebookApi) createAssignment(ctx echo.Context) error {
	var data gradebook.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	data.ClassID = ctx.Param("class")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.CreateAssignment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *gradebookApi) retrieveAssignment(ctx echo.Context) error {
	a, err := api.svc.Assignment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *gradebookApi) updateAssignment(ctx echo.Context) error {
	orig, err := api.svc.Assignment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment")
	}

	var data gradebook.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	data.ClassID = orig.ClassID
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.UpdateAssignment(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *gradebookApi) destroyAssignment(ctx echo.Context) error {
	if err := api.svc.DeleteAssignment(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradebookApi) enterGrade(ctx echo.Context) error {
	var data gradebook.GradeEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeEntry")
	}

	g, err := api.svc.EnterGrade(ctx.Request().Context(), ctx.Param("id"), ctx.Param("student"), data, api.validate)
	if err != nil {
		return errors.Wrap(err, "entering grade")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradebookApi) deleteGrade(ctx echo.Context) error {
	if err := api.svc.DeleteGrade(ctx.Request().Context(), ctx.Param("id"), ctx.Param("student")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradebookApi) classGradebook(ctx echo.Context) error {
	gb, err := api.svc.ClassGradebook(ctx.Request().Context(), ctx.Param("class"))
	if err != nil {
		return errors.Wrap(err, "building gradebook")
	}
	return ctx.JSON(http.StatusOK, gb)
}

func (api *gradebookApi) exportGradebook(ctx echo.Context) error {
	classID := ctx.Param("class")
	gb, err := api.svc.ClassGradebook(ctx.Request().Context(), classID)
	if err != nil {
		return errors.Wrap(err, "building gradebook")
	}

	var buf bytes.Buffer
	if err = sheetsvc.WriteGradebook(&buf, gb); err != nil {
		return errors.Wrap(err, "exporting gradebook")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="gradebook-`+classID+`.xlsx"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

type (
	ImportRequest struct {
		Rows []gradebook.ImportRow `json:"rows"`
	}

	ImportResponse struct {
		Imported int                      `json:"imported"`
		Failed   int                      `json:"failed"`
		Results  []gradebook.ImportResult `json:"results"`
	}
)

// importGrades reads rows from an uploaded workbook (multipart field "file") or from a JSON body.
func (api *gradebookApi) importGrades(ctx echo.Context) error {
	var rows []gradebook.ImportRow
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := ctx.FormFile("file")
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "file", Error: "this field is required"})
		}
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening upload")
		}
		defer func() { _ = f.Close() }()

		rows, err = sheetsvc.ParseGrades(f)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
		}
	} else {
		var data ImportRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to ImportRequest")
		}
		rows = data.Rows
	}

	results, err := api.svc.ImportGrades(ctx.Request().Context(), ctx.Param("class"), rows)
	if err != nil {
		return errors.Wrap(err, "importing grades")
	}

	resp := ImportResponse{Results: results}
	for _, res := range results {
		if res.OK {
			resp.Imported++
		} else {
			resp.Failed++
		}
	}
	if resp.Failed > 0 {
		api.logger.Info("grade import with failed rows", map[string]interface{}{
			"class":    ctx.Param("class"),
			"imported": resp.Imported,
			"failed":   resp.Failed,
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}
