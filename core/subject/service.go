package subject

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
)

var (
	// errors
	ErrNotFound      = errors.New("subject not found")
	ErrPaperNotFound = errors.New("subject paper not found")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		QuerySubjects(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id int, exec ...core.DBExecutor) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		DeleteSubject(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreatePaper(ctx context.Context, paper Paper, exec ...core.DBExecutor) (Paper, error)
		QueryPapers(ctx context.Context, filter PaperFilter, exec ...core.DBExecutor) ([]Paper, error)
		GetPaperByID(ctx context.Context, id int, exec ...core.DBExecutor) (Paper, error)
		GetPaperDetails(ctx context.Context, ids []int, exec ...core.DBExecutor) (map[int]PaperDetail, error)
		DeletePaper(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

// Create creates a Subject and its papers in one transaction.
func (svc *Service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	sub := Subject{
		Name:  ns.Name,
		Code:  ns.Code,
		Class: ns.Class,
	}
	if ns.Description != "" {
		sub.Description = &ns.Description
	}

	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if sub, err = svc.repo.CreateSubject(ctx, sub, tx); err != nil {
			return errors.Wrap(err, "creating subject")
		}
		sub.Papers = make([]Paper, 0, len(ns.Papers))
		for _, np := range ns.Papers {
			paper, err := svc.repo.CreatePaper(ctx, Paper{SubjectID: sub.ID, Paper: np.Paper}, tx)
			if err != nil {
				return errors.Wrap(err, "creating subject paper")
			}
			sub.Papers = append(sub.Papers, paper)
		}
		return nil
	})
	return sub, err
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateSubject) (Subject, error) {
	return svc.repo.UpdateSubject(ctx, Subject{
		ID:          id,
		Name:        us.Name,
		Code:        us.Code,
		Class:       us.Class,
		Description: us.Description,
	})
}

// Delete deletes a Subject along with its papers and their results.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteSubject(ctx, id)
}

func (svc *Service) CreatePaper(ctx context.Context, np NewPaper) (Paper, error) {
	if _, err := svc.repo.GetSubjectByID(ctx, np.SubjectID); err != nil {
		if err == ErrNotFound {
			return Paper{}, core.NewFieldValidationError("subjectId", "subject %d does not exist", np.SubjectID)
		}
		return Paper{}, errors.Wrap(err, "finding subject")
	}
	return svc.repo.CreatePaper(ctx, Paper{SubjectID: np.SubjectID, Paper: np.Paper})
}

func (svc *Service) QueryPapers(ctx context.Context, filter PaperFilter) ([]Paper, error) {
	return svc.repo.QueryPapers(ctx, filter)
}

func (svc *Service) GetPaperByID(ctx context.Context, id int) (Paper, error) {
	return svc.repo.GetPaperByID(ctx, id)
}

// GetPaperDetails returns the papers with the given ids, along with their subject, keyed by paper id.
// Unknown ids are left out.
func (svc *Service) GetPaperDetails(ctx context.Context, ids []int, exec ...core.DBExecutor) (map[int]PaperDetail, error) {
	return svc.repo.GetPaperDetails(ctx, ids, exec...)
}

func (svc *Service) DeletePaper(ctx context.Context, id int) error {
	return svc.repo.DeletePaper(ctx, id)
}
