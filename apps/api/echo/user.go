package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/user"
)

var (
	errStudentNotFound    = echo.NewHTTPError(http.StatusNotFound, "student not found")
	errInstructorNotFound = echo.NewHTTPError(http.StatusNotFound, "instructor not found")
	errAdminNotFound      = echo.NewHTTPError(http.StatusNotFound, "admin not found")
	errUserNotFound       = echo.NewHTTPError(http.StatusNotFound, "user not found")
	errEmailNotFound      = echo.NewHTTPError(http.StatusUnauthorized, "email not found")
	errInvalidID          = echo.NewHTTPError(http.StatusBadRequest, "invalid id")
)

type userApi struct {
	svc        user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, svc user.Service, validate *validator.Validate, translator ut.Translator) {
	api := userApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/profile", api.profile)
	ag.POST("/set-school", api.setSchool)

	sg := g.Group("/students")
	sg.GET("/pending", api.queryPendingStudents)
	sg.POST("/approve/:id", api.approveStudent)
	sg.GET("/by-id/:studentId", api.retrieveStudentByStudentID)
	sg.GET("/by-instructor/:id", api.queryStudentsByInstructor)

	ig := g.Group("/instructors")
	ig.GET("", api.queryInstructors)
	ig.GET("/pending", api.queryPendingInstructors)
	ig.POST("/approve/:id", api.approveInstructor)

	ug := g.Group("/users")
	ug.GET("", api.query)
	ug.PUT("/:id", api.update)

	adg := g.Group("/admins")
	adg.GET("", api.queryAdmins)
	adg.POST("", api.createAdmin)
	adg.PUT("/:id", api.updateAdmin)
	adg.DELETE("/:id", api.destroyAdmin)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.LoginUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errEmailNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": usr})
}

func (api *userApi) profile(ctx echo.Context) error {
	var data struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding profile request")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	usr, err := api.svc.GetByEmail(ctx.Request().Context(), data.Email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "fetching profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) setSchool(ctx echo.Context) error {
	var data user.SchoolAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SchoolAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.AssignSchool(ctx.Request().Context(), data.Email, data.School); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "assigning school")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "School updated"})
}

func (api *userApi) queryPendingStudents(ctx echo.Context) error {
	return api.queryPending(ctx, user.RoleStudent)
}

func (api *userApi) queryPendingInstructors(ctx echo.Context) error {
	return api.queryPending(ctx, user.RoleInstructor)
}

func (api *userApi) queryPending(ctx echo.Context, role string) error {
	users, err := api.svc.ListPending(ctx.Request().Context(), role)
	if err != nil {
		return errors.Wrap(err, "querying pending users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) approveStudent(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err = api.svc.Approve(ctx.Request().Context(), id, user.RoleStudent); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errStudentNotFound
		}
		return errors.Wrap(err, "approving student")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Student approved"})
}

func (api *userApi) approveInstructor(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err = api.svc.Approve(ctx.Request().Context(), id, user.RoleInstructor); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errInstructorNotFound
		}
		return errors.Wrap(err, "approving instructor")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Instructor approved"})
}

func (api *userApi) retrieveStudentByStudentID(ctx echo.Context) error {
	usr, err := api.svc.GetStudentByStudentID(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errStudentNotFound
		}
		return errors.Wrap(err, "fetching student")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// queryStudentsByInstructor lists students sharing the instructor's school.
// An unknown instructor yields an empty list rather than an error.
func (api *userApi) queryStudentsByInstructor(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	users, err := api.svc.StudentsByInstructor(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying students by instructor")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) queryInstructors(ctx echo.Context) error {
	return api.queryByRole(ctx, user.RoleInstructor)
}

func (api *userApi) queryAdmins(ctx echo.Context) error {
	return api.queryByRole(ctx, user.RoleAdmin)
}

func (api *userApi) queryByRole(ctx echo.Context, role string) error {
	users, err := api.svc.QueryByRole(ctx.Request().Context(), role)
	if err != nil {
		return errors.Wrap(err, "querying users by role")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "fetching user")
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) createAdmin(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	data.Role = user.RoleAdmin
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.CreateAdmin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating admin")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) updateAdmin(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil || !usr.IsAdmin() {
		return errAdminNotFound
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.UpdateAdmin(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errAdminNotFound
		}
		return errors.Wrap(err, "updating admin")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroyAdmin(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteAdmin(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errAdminNotFound
		}
		return errors.Wrap(err, "deleting admin")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"detail": "Admin deleted"})
}

func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}
