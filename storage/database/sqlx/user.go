package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const pqUniqueViolation = "23505"

type UserRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(exec core.DBExecutor) *UserRepository {
	return &UserRepository{exec: exec}
}

func (repo UserRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo UserRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// trapDupErr maps a psql unique violation to the matching domain duplicate error so
// a race past the pre-check never surfaces as a raw storage error.
func (repo UserRepository) trapDupErr(err error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
		switch pqErr.Constraint {
		case "users_email_key":
			return user.ErrEmailExists
		case "users_student_id_key":
			return user.ErrStudentIDExists
		case "users_instructor_id_key":
			return user.ErrInstructorIDExists
		}
	}
	return errors.Wrap(err, msg)
}

func (repo UserRepository) exists(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, exec, &exists, query, args...); err != nil {
		return false, err
	}
	return exists, nil
}

func (repo UserRepository) CheckUniqueness(
	ctx context.Context,
	email, studentID, instructorID string,
	excludedUsers []user.User,
	exec ...core.DBExecutor,
) error {
	ex := repo.getExec(exec)

	exclID := 0 // ids are store-assigned starting at 1; 0 never matches
	if len(excludedUsers) > 0 {
		exclID = excludedUsers[0].ID
	}

	if email != "" {
		exists, err := repo.exists(ctx, ex,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, exclID)
		if err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
		if exists {
			return user.ErrEmailExists
		}
	}
	if studentID != "" {
		exists, err := repo.exists(ctx, ex,
			`SELECT EXISTS (SELECT 1 FROM users WHERE student_id = $1 AND id <> $2)`, studentID, exclID)
		if err != nil {
			return errors.Wrap(err, "checking student id uniqueness")
		}
		if exists {
			return user.ErrStudentIDExists
		}
	}
	if instructorID != "" {
		exists, err := repo.exists(ctx, ex,
			`SELECT EXISTS (SELECT 1 FROM users WHERE instructor_id = $1 AND id <> $2)`, instructorID, exclID)
		if err != nil {
			return errors.Wrap(err, "checking instructor id uniqueness")
		}
		if exists {
			return user.ErrInstructorIDExists
		}
	}
	return nil
}

func (repo UserRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	err := sqlx.GetContext(ctx, repo.getExec(exec), &usr, `
		INSERT INTO users (name, email, password_hash, role, dob, address, student_id, instructor_id, school, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING *`,
		usr.Name, usr.Email, usr.PasswordHash, usr.Role, usr.DOB, usr.Address,
		usr.StudentID, usr.InstructorID, usr.School, usr.IsActive, usr.CreatedAt,
	)
	if err != nil {
		return user.User{}, repo.trapDupErr(err, "inserting user")
	}
	return usr, nil
}

func (repo UserRepository) QueryAllUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	var users []user.User
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &users, `SELECT * FROM users`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo UserRepository) QueryUsersByRole(ctx context.Context, role string, exec ...core.DBExecutor) ([]user.User, error) {
	var users []user.User
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &users, `SELECT * FROM users WHERE role = $1`, role)
	if err != nil {
		return nil, errors.Wrap(err, "querying users by role")
	}
	return users, nil
}

func (repo UserRepository) QueryPendingUsers(ctx context.Context, role string, exec ...core.DBExecutor) ([]user.User, error) {
	var users []user.User
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &users,
		`SELECT * FROM users WHERE role = $1 AND is_active = FALSE`, role)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending users")
	}
	return users, nil
}

func (repo UserRepository) QueryStudentsBySchool(ctx context.Context, school string, exec ...core.DBExecutor) ([]user.User, error) {
	var users []user.User
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &users,
		`SELECT * FROM users WHERE role = $1 AND school = $2`, user.RoleStudent, school)
	if err != nil {
		return nil, errors.Wrap(err, "querying students by school")
	}
	return users, nil
}

func (repo UserRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	var usr user.User
	err := sqlx.GetContext(ctx, repo.getExec(exec), &usr, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by id")
	}
	return usr, nil
}

func (repo UserRepository) GetUserByIDAndRole(ctx context.Context, id int, role string, exec ...core.DBExecutor) (user.User, error) {
	var usr user.User
	err := sqlx.GetContext(ctx, repo.getExec(exec), &usr,
		`SELECT * FROM users WHERE id = $1 AND role = $2`, id, role)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by id and role")
	}
	return usr, nil
}

func (repo UserRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	var usr user.User
	err := sqlx.GetContext(ctx, repo.getExec(exec), &usr, `SELECT * FROM users WHERE email = $1`, email)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by email")
	}
	return usr, nil
}

func (repo UserRepository) GetStudentByStudentID(ctx context.Context, studentID string, exec ...core.DBExecutor) (user.User, error) {
	var usr user.User
	err := sqlx.GetContext(ctx, repo.getExec(exec), &usr,
		`SELECT * FROM users WHERE student_id = $1 AND role = $2`, studentID, user.RoleStudent)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting student by student id")
	}
	return usr, nil
}

func (repo UserRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	err := sqlx.GetContext(ctx, repo.getExec(exec), &usr, `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, role = $4, dob = $5, address = $6,
		    student_id = $7, instructor_id = $8, school = $9, is_active = $10
		WHERE id = $11
		RETURNING *`,
		usr.Name, usr.Email, usr.PasswordHash, usr.Role, usr.DOB, usr.Address,
		usr.StudentID, usr.InstructorID, usr.School, usr.IsActive, usr.ID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, repo.trapDupErr(err, "updating user")
	}
	return usr, nil
}

func (repo UserRepository) DeleteUser(ctx context.Context, id int, exec ...core.DBExecutor) error {
	if _, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return nil
}
