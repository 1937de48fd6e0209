package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
)

var errNoRecordToday = echo.NewHTTPError(http.StatusNotFound, "attendance record for today not found")

type attendanceApi struct {
	svc      attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, svc attendance.Service, validate *validator.Validate) {
	api := attendanceApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/attendance")
	ag.GET("", api.query)
	ag.POST("/mark", api.mark)
	ag.GET("/summary/:id", api.summary)
	ag.GET("/by-student/:studentId", api.queryByStudent)
	ag.PUT("/by-student/:studentId", api.updateToday)
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
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	summary, err := api.svc.Summary(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *attendanceApi) queryByStudent(ctx echo.Context) error {
	recs, err := api.svc.ByStudent(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errStudentNotFound
		}
		return errors.Wrap(err, "querying attendance by student")
	}
	if recs == nil {
		recs = []attendance.StudentRecord{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) updateToday(ctx echo.Context) error {
	var data attendance.UpdateAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.UpdateToday(ctx.Request().Context(), ctx.Param("studentId"), data)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrNotFound:
			return errStudentNotFound
		case attendance.ErrNoRecordToday:
			return errNoRecordToday
		}
		return errors.Wrap(err, "updating attendance")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Attendance updated", "attendance": rec})
}

func (api *attendanceApi) query(ctx echo.Context) error {
	recs, err := api.svc.AllWithNames(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if recs == nil {
		recs = []attendance.NamedRecord{}
	}
	return ctx.JSON(http.StatusOK, recs)
}
