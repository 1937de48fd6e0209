package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

// Roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

var AllRoles = []string{RoleStudent, RoleInstructor, RoleAdmin, RoleSuperAdmin}

type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	DOB          string    `json:"dob,omitempty" db:"dob"`
	Address      string    `json:"address,omitempty" db:"address"`
	StudentID    *string   `json:"studentId,omitempty" db:"student_id"`
	InstructorID *string   `json:"instructorId,omitempty" db:"instructor_id"`
	School       string    `json:"school,omitempty" db:"school"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsStudent() bool    { return u.Role == RoleStudent }
func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }
func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin || u.Role == RoleSuperAdmin }

// IsPending reports whether the account is gated behind an approval:
// students and instructors start out inactive until approved.
func (u *User) IsPending() bool {
	return (u.IsStudent() || u.IsInstructor()) && !u.IsActive
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	Role         string `json:"role" validate:"required,role"`
	DOB          string `json:"dob"`
	Address      string `json:"address"`
	StudentID    string `json:"studentId"`
	InstructorID string `json:"instructorId"`
	School       string `json:"school"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email)
	nu.StudentID = core.CleanString(nu.StudentID)
	nu.InstructorID = core.CleanString(nu.InstructorID)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email, nu.StudentID, nu.InstructorID)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Only set fields are applied; the store is never touched with arbitrary keys.
type UpdateUser struct {
	Name     string  `json:"name"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Password string  `json:"password"`
	Role     string  `json:"role" validate:"omitempty,role"`
	DOB      *string `json:"dob"`
	Address  *string `json:"address"`
	School   *string `json:"school"`
	IsActive *bool   `json:"is_active"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	uu.Name = core.CleanString(uu.Name)

	email := core.CleanString(uu.Email)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Email, "", "", origUsr)
}

type LoginUser struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lu *LoginUser) Validate(validate *validator.Validate) error {
	lu.Email = core.CleanString(lu.Email)
	return validate.Struct(lu)
}

type SchoolAssignment struct {
	Email  string `json:"email" validate:"required,email"`
	School string `json:"school" validate:"required"`
}

func (sa *SchoolAssignment) Validate(validate *validator.Validate) error {
	sa.Email = core.CleanString(sa.Email)
	sa.School = core.CleanString(sa.School)
	return validate.Struct(sa)
}
