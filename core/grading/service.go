package grading

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
)

var (
	// errors
	ErrNotFound   = errors.New("grade system not found")
	ErrNameExists = errors.New("a grade system with this name already exists")
)

type (
	// Repository persists GradeSystems and their GradeRanges.
	// exec, when provided, is the transaction the operation must run in.
	Repository interface {
		CreateScale(ctx context.Context, name string, ranges []GradeRange, exec ...core.DBExecutor) (GradeSystem, error)
		ListScales(ctx context.Context, exec ...core.DBExecutor) ([]GradeSystem, error)
		GetScaleByID(ctx context.Context, id int, exec ...core.DBExecutor) (GradeSystem, error)
		GetScaleByName(ctx context.Context, name string, exec ...core.DBExecutor) (GradeSystem, error)
		RenameScale(ctx context.Context, id int, name string, exec ...core.DBExecutor) error
		DeleteRanges(ctx context.Context, scaleID int, exec ...core.DBExecutor) error
		CreateRanges(ctx context.Context, scaleID int, ranges []GradeRange, exec ...core.DBExecutor) error
		DeleteScale(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

func (svc *Service) ListScales(ctx context.Context) ([]GradeSystem, error) {
	return svc.repo.ListScales(ctx)
}

func (svc *Service) GetScale(ctx context.Context, name string) (GradeSystem, error) {
	return svc.repo.GetScaleByName(ctx, core.CleanString(name))
}

func (svc *Service) GetScaleByID(ctx context.Context, id int) (GradeSystem, error) {
	return svc.repo.GetScaleByID(ctx, id)
}

// CreateScale creates a GradeSystem, rejecting invalid ranges.
func (svc *Service) CreateScale(ctx context.Context, name string, ranges []GradeRange) (GradeSystem, error) {
	if err := ValidateRanges(ranges); err != nil {
		return GradeSystem{}, err
	}
	var gs GradeSystem
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if _, err = svc.repo.GetScaleByName(ctx, name, tx); err == nil {
			return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
		} else if err != ErrNotFound {
			return errors.Wrap(err, "checking grade system name")
		}
		gs, err = svc.repo.CreateScale(ctx, name, ranges, tx)
		return errors.Wrap(err, "creating grade system")
	})
	return gs, err
}

// ReplaceRanges renames the GradeSystem `id` and replaces its whole set of ranges, atomically:
// either the name and the ranges are all updated, or nothing is.
// Invalid ranges are rejected before anything is written.
func (svc *Service) ReplaceRanges(ctx context.Context, id int, name string, ranges []GradeRange) (GradeSystem, error) {
	if err := ValidateRanges(ranges); err != nil {
		return GradeSystem{}, err
	}
	var gs GradeSystem
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetScaleByID(ctx, id, tx); err != nil {
			return err
		}
		if other, err := svc.repo.GetScaleByName(ctx, name, tx); err == nil && other.ID != id {
			return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
		} else if err != nil && err != ErrNotFound {
			return errors.Wrap(err, "checking grade system name")
		}

		if err := svc.repo.RenameScale(ctx, id, name, tx); err != nil {
			return errors.Wrap(err, "updating grade system name")
		}
		if err := svc.repo.DeleteRanges(ctx, id, tx); err != nil {
			return errors.Wrap(err, "deleting grade ranges")
		}
		if err := svc.repo.CreateRanges(ctx, id, ranges, tx); err != nil {
			return errors.Wrap(err, "creating grade ranges")
		}

		var err error
		gs, err = svc.repo.GetScaleByID(ctx, id, tx)
		return errors.Wrap(err, "reloading grade system")
	})
	return gs, err
}

func (svc *Service) DeleteScale(ctx context.Context, id int) error {
	return svc.repo.DeleteScale(ctx, id)
}

// Seed creates the default scales that do not exist yet and returns the names of the created ones.
func (svc *Service) Seed(ctx context.Context) ([]string, error) {
	var created []string
	for _, ns := range DefaultScales() {
		if _, err := svc.repo.GetScaleByName(ctx, ns.Name); err == nil {
			continue
		} else if err != ErrNotFound {
			return created, errors.Wrapf(err, "finding grade system %q", ns.Name)
		}
		if _, err := svc.CreateScale(ctx, ns.Name, cleanRanges(ns.GradeRanges)); err != nil {
			return created, errors.Wrapf(err, "creating grade system %q", ns.Name)
		}
		created = append(created, ns.Name)
	}
	return created, nil
}

func intPtr(i int) *int { return &i }

func rng(grade string, lo, hi int) RangeInput {
	return RangeInput{Grade: grade, Min: intPtr(lo), Max: intPtr(hi)}
}

// DefaultScales returns the Uganda O-Level and A-Level grading scales.
func DefaultScales() []NewScale {
	return []NewScale{
		{
			Name: "O-Level",
			GradeRanges: []RangeInput{
				rng("A", 80, 100),
				rng("B", 70, 79),
				rng("C", 60, 69),
				rng("D", 50, 59),
				rng("E", 0, 49),
			},
		},
		{
			Name: "A-Level",
			GradeRanges: []RangeInput{
				rng("A", 80, 100),
				rng("B", 70, 79),
				rng("C", 60, 69),
				rng("D", 50, 59),
				rng("E", 40, 49),
				rng("O", 35, 39),
				rng("F", 0, 34),
			},
		},
	}
}
