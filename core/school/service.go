package school

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
)

var (
	// errors
	ErrNotFound    = errors.New("school not found")
	ErrHasStudents = errors.New("this school still has students")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School, exec ...core.DBExecutor) (School, error)
		QuerySchools(ctx context.Context, exec ...core.DBExecutor) ([]School, error)
		GetSchoolByID(ctx context.Context, id int, exec ...core.DBExecutor) (School, error)
		UpdateSchool(ctx context.Context, sch School, exec ...core.DBExecutor) (School, error)
		DeleteSchool(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	return svc.repo.CreateSchool(ctx, ns.School())
}

func (svc *Service) Query(ctx context.Context) ([]School, error) {
	return svc.repo.QuerySchools(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int, ns NewSchool) (School, error) {
	return svc.repo.UpdateSchool(ctx, ns.School(id))
}

// Delete deletes a School. Schools with students cannot be deleted.
func (svc *Service) Delete(ctx context.Context, id int) error {
	err := svc.repo.DeleteSchool(ctx, id)
	if errors.Cause(err) == ErrHasStudents {
		return core.NewValidationError(ErrHasStudents)
	}
	return err
}
