package school

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound      = errors.New("school not found")
	ErrAlreadyExists = errors.New("school already exists")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School, exec ...core.DBExecutor) (School, error)
		QueryAllSchools(ctx context.Context, exec ...core.DBExecutor) ([]School, error)
		GetSchoolByID(ctx context.Context, id int, exec ...core.DBExecutor) (School, error)
		GetSchoolByName(ctx context.Context, name string, exec ...core.DBExecutor) (School, error)
		UpdateSchool(ctx context.Context, sch School, exec ...core.DBExecutor) (School, error)
	}

	Service interface {
		Create(ctx context.Context, ns NewSchool) (School, error)
		QueryAll(ctx context.Context) ([]School, error)
		GetByID(ctx context.Context, id int) (School, error)
		Update(ctx context.Context, id int, us UpdateSchool) (School, error)
		Archive(ctx context.Context, id int) (School, error)
		Unarchive(ctx context.Context, id int) (School, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Create adds a new school. A name collision, whether caught by the pre-check or by
// the store constraint on a race, comes back as ErrAlreadyExists.
func (svc *service) Create(ctx context.Context, ns NewSchool) (School, error) {
	if _, err := svc.repo.GetSchoolByName(ctx, ns.Name); err == nil {
		return School{}, ErrAlreadyExists
	} else if errors.Cause(err) != ErrNotFound {
		return School{}, err
	}
	return svc.repo.CreateSchool(ctx, School{Name: ns.Name})
}

func (svc *service) QueryAll(ctx context.Context) ([]School, error) {
	return svc.repo.QueryAllSchools(ctx)
}

func (svc *service) GetByID(ctx context.Context, id int) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, us UpdateSchool) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	sch.Name = us.Name
	if us.Archived != nil {
		sch.Archived = *us.Archived
	}
	return svc.repo.UpdateSchool(ctx, sch)
}

// Archive and Unarchive are idempotent toggles; archiving a school does not touch
// users referencing its name, which is a plain string copy.

func (svc *service) Archive(ctx context.Context, id int) (School, error) {
	return svc.setArchived(ctx, id, true)
}

func (svc *service) Unarchive(ctx context.Context, id int) (School, error) {
	return svc.setArchived(ctx, id, false)
}

func (svc *service) setArchived(ctx context.Context, id int, archived bool) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	if sch.Archived == archived {
		return sch, nil
	}
	sch.Archived = archived
	return svc.repo.UpdateSchool(ctx, sch)
}
