package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrStudentIDExists    = errors.New("a user with this student id already exists")
	ErrInstructorIDExists = errors.New("a user with this instructor id already exists")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrPendingApproval    = errors.New("account pending approval")
)

type (
	Repository interface {
		// CheckUniqueness verifies no other user holds the given email, studentID or
		// instructorID. Empty ids are skipped; excludedUsers are left out of the check.
		CheckUniqueness(ctx context.Context, email, studentID, instructorID string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		QueryAllUsers(ctx context.Context, exec ...core.DBExecutor) ([]User, error)
		QueryUsersByRole(ctx context.Context, role string, exec ...core.DBExecutor) ([]User, error)
		// QueryPendingUsers returns users of the given role with is_active=false, in
		// store order; insertion order is not guaranteed stable unless the store preserves it.
		QueryPendingUsers(ctx context.Context, role string, exec ...core.DBExecutor) ([]User, error)
		QueryStudentsBySchool(ctx context.Context, school string, exec ...core.DBExecutor) ([]User, error)
		GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (User, error)
		GetUserByIDAndRole(ctx context.Context, id int, role string, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		GetStudentByStudentID(ctx context.Context, studentID string, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUser(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		CheckUniqueness(email, studentID, instructorID string, excludedUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		Approve(ctx context.Context, id int, role string) (User, error)
		ListPending(ctx context.Context, role string) ([]User, error)
		AssignSchool(ctx context.Context, email, school string) error
		Update(ctx context.Context, id int, uu UpdateUser) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
		QueryByRole(ctx context.Context, role string) ([]User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetStudentByStudentID(ctx context.Context, studentID string) (User, error)
		StudentsByInstructor(ctx context.Context, instructorID int) ([]User, error)
		CreateAdmin(ctx context.Context, nu NewUser) (User, error)
		UpdateAdmin(ctx context.Context, id int, uu UpdateUser) (User, error)
		DeleteAdmin(ctx context.Context, id int) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
	}
}

func (svc *service) CheckUniqueness(email, studentID, instructorID string, excludedUsers ...User) error {
	if err := svc.repo.CheckUniqueness(context.Background(), email, studentID, instructorID, excludedUsers); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrEmailExists:
			field = "email"
		case ErrStudentIDExists:
			field = "studentId"
		case ErrInstructorIDExists:
			field = "instructorId"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

// Register creates a new account. Students and instructors start out inactive and
// must be approved before they can log in; any other role is active immediately.
// A store uniqueness violation slipping past the boundary pre-check is translated
// by the repository into the matching duplicate error, never surfaced raw.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		DOB:       nu.DOB,
		Address:   nu.Address,
		School:    nu.School,
		IsActive:  !(nu.Role == RoleStudent || nu.Role == RoleInstructor),
		CreatedAt: time.Now().UTC(),
	}
	if nu.StudentID != "" {
		usr.StudentID = &nu.StudentID
	}
	if nu.InstructorID != "" {
		usr.InstructorID = &nu.InstructorID
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	if usr.IsPending() {
		svc.sendPendingMail(usr)
	}
	return usr, nil
}

// Authenticate verifies the credentials before revealing any pending-approval state.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email))
	if err != nil {
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if usr.IsPending() {
		return User{}, ErrPendingApproval
	}
	return usr, nil
}

// Approve activates a pending student or instructor. Approving an already-active
// account is a no-op success.
func (svc *service) Approve(ctx context.Context, id int, role string) (User, error) {
	usr, err := svc.repo.GetUserByIDAndRole(ctx, id, role)
	if err != nil {
		return User{}, err
	}
	if usr.IsActive {
		return usr, nil
	}
	usr.IsActive = true
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "approving user")
	}
	svc.sendApprovedMail(usr)
	return usr, nil
}

func (svc *service) ListPending(ctx context.Context, role string) ([]User, error) {
	return svc.repo.QueryPendingUsers(ctx, role)
}

func (svc *service) AssignSchool(ctx context.Context, email, school string) error {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email))
	if err != nil {
		return err
	}
	usr.School = school
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "assigning school")
	}
	return nil
}

func (svc *service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	return svc.applyUpdate(ctx, usr, uu)
}

func (svc *service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *service) QueryByRole(ctx context.Context, role string) ([]User, error) {
	return svc.repo.QueryUsersByRole(ctx, role)
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email))
}

func (svc *service) GetStudentByStudentID(ctx context.Context, studentID string) (User, error) {
	return svc.repo.GetStudentByStudentID(ctx, core.CleanString(studentID))
}

// StudentsByInstructor lists students sharing the instructor's school string.
// An unknown instructor or one with no school yields an empty list, not an error.
func (svc *service) StudentsByInstructor(ctx context.Context, instructorID int) ([]User, error) {
	instructor, err := svc.repo.GetUserByIDAndRole(ctx, instructorID, RoleInstructor)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return []User{}, nil
		}
		return nil, err
	}
	if instructor.School == "" {
		return []User{}, nil
	}
	return svc.repo.QueryStudentsBySchool(ctx, instructor.School)
}

func (svc *service) CreateAdmin(ctx context.Context, nu NewUser) (User, error) {
	nu.Role = RoleAdmin
	return svc.Register(ctx, nu)
}

func (svc *service) UpdateAdmin(ctx context.Context, id int, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByIDAndRole(ctx, id, RoleAdmin)
	if err != nil {
		return User{}, err
	}
	return svc.applyUpdate(ctx, usr, uu)
}

func (svc *service) DeleteAdmin(ctx context.Context, id int) error {
	usr, err := svc.repo.GetUserByIDAndRole(ctx, id, RoleAdmin)
	if err != nil {
		return err
	}
	return svc.repo.DeleteUser(ctx, usr.ID)
}

// applyUpdate merges set fields of uu onto usr and persists the result.
func (svc *service) applyUpdate(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	if uu.Name != "" {
		usr.Name = uu.Name
	}
	if uu.Email != "" {
		usr.Email = uu.Email
	}
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.DOB != nil {
		usr.DOB = *uu.DOB
	}
	if uu.Address != nil {
		usr.Address = *uu.Address
	}
	if uu.School != nil {
		usr.School = *uu.School
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) sendPendingMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your account is pending approval",
		TemplateName: "account-pending",
		TemplateData: usr,
	})
}

func (svc *service) sendApprovedMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your account has been approved",
		TemplateName: "account-approved",
		TemplateData: usr,
	})
}
