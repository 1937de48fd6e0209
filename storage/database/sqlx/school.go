package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type SchoolRepository struct {
	exec core.DBExecutor
}

var _ school.Repository = (*SchoolRepository)(nil)

func NewSchoolRepository(exec core.DBExecutor) *SchoolRepository {
	return &SchoolRepository{exec: exec}
}

func (repo SchoolRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo SchoolRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo SchoolRepository) trapDupErr(err error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
		return school.ErrAlreadyExists
	}
	return errors.Wrap(err, msg)
}

func (repo SchoolRepository) CreateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	err := sqlx.GetContext(ctx, repo.getExec(exec), &sch,
		`INSERT INTO schools (name, archived) VALUES ($1, $2) RETURNING *`, sch.Name, sch.Archived)
	if err != nil {
		return school.School{}, repo.trapDupErr(err, "inserting school")
	}
	return sch, nil
}

func (repo SchoolRepository) QueryAllSchools(ctx context.Context, exec ...core.DBExecutor) ([]school.School, error) {
	var schools []school.School
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &schools, `SELECT * FROM schools`); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	return schools, nil
}

func (repo SchoolRepository) GetSchoolByID(ctx context.Context, id int, exec ...core.DBExecutor) (school.School, error) {
	var sch school.School
	err := sqlx.GetContext(ctx, repo.getExec(exec), &sch, `SELECT * FROM schools WHERE id = $1`, id)
	if err != nil {
		return school.School{}, repo.trapNoRowsErr(err, "getting school by id")
	}
	return sch, nil
}

func (repo SchoolRepository) GetSchoolByName(ctx context.Context, name string, exec ...core.DBExecutor) (school.School, error) {
	var sch school.School
	err := sqlx.GetContext(ctx, repo.getExec(exec), &sch, `SELECT * FROM schools WHERE name = $1`, name)
	if err != nil {
		return school.School{}, repo.trapNoRowsErr(err, "getting school by name")
	}
	return sch, nil
}

func (repo SchoolRepository) UpdateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	err := sqlx.GetContext(ctx, repo.getExec(exec), &sch,
		`UPDATE schools SET name = $1, archived = $2 WHERE id = $3 RETURNING *`,
		sch.Name, sch.Archived, sch.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, repo.trapDupErr(err, "updating school")
	}
	return sch, nil
}
