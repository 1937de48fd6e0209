package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
)

var (
	errSchoolNotFound = echo.NewHTTPError(http.StatusNotFound, "school not found")
	errSchoolExists   = echo.NewHTTPError(http.StatusBadRequest, "school already exists")
)

type schoolApi struct {
	svc      school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, svc school.Service, validate *validator.Validate) {
	api := schoolApi{
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/schools")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.PUT("/:id", api.update)
	sg.POST("/:id/archive", api.archive)
	sg.POST("/:id/unarchive", api.unarchive)
}

func (api *schoolApi) query(ctx echo.Context) error {
	schools, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *schoolApi) create(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == school.ErrAlreadyExists {
			return errSchoolExists
		}
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data school.UpdateSchool
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		switch errors.Cause(err) {
		case school.ErrNotFound:
			return errSchoolNotFound
		case school.ErrAlreadyExists:
			return errSchoolExists
		}
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) archive(ctx echo.Context) error {
	return api.setArchived(ctx, true)
}

func (api *schoolApi) unarchive(ctx echo.Context) error {
	return api.setArchived(ctx, false)
}

func (api *schoolApi) setArchived(ctx echo.Context, archived bool) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var sch school.School
	if archived {
		sch, err = api.svc.Archive(ctx.Request().Context(), id)
	} else {
		sch, err = api.svc.Unarchive(ctx.Request().Context(), id)
	}
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errSchoolNotFound
		}
		return errors.Wrap(err, "archiving school")
	}
	return ctx.JSON(http.StatusOK, sch)
}
