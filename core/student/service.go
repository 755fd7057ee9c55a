package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/school"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound      = errors.New("student not found")
	ErrIndexNoExists = errors.New("a student with this index number already exists")
)

type (
	Repository interface {
		CheckIndexNoUniqueness(ctx context.Context, indexNo string, excludedIDs []int, exec ...core.DBExecutor) error
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]WithSchool, error)
		GetStudentByID(ctx context.Context, id int, exec ...core.DBExecutor) (Student, error)
		GetStudentByIndexNo(ctx context.Context, indexNo string, exec ...core.DBExecutor) (Student, error)
		GetResultLines(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]ResultLine, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		SetPaid(ctx context.Context, id int, paid bool, updatedAt time.Time, exec ...core.DBExecutor) error
		DeleteStudent(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service struct {
		repo      Repository
		schoolSvc *school.Service
	}
)

func NewService(repo Repository, schoolSvc *school.Service) *Service {
	return &Service{repo: repo, schoolSvc: schoolSvc}
}

func (svc *Service) checkReferences(indexNo string, schoolID int, excludedIDs ...int) error {
	ctx := context.Background()
	if err := svc.repo.CheckIndexNoUniqueness(ctx, indexNo, excludedIDs); err != nil {
		if err == ErrIndexNoExists {
			return core.NewValidationError(err, core.FieldError{Field: "indexNo", Error: err.Error()})
		}
		return errors.Wrap(err, "checking index number uniqueness")
	}
	if _, err := svc.schoolSvc.GetByID(ctx, schoolID); err != nil {
		if err == school.ErrNotFound {
			return core.NewFieldValidationError("schoolId", "school %d does not exist", schoolID)
		}
		return errors.Wrap(err, "finding school")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := NowFunc().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		FirstName: ns.FirstName,
		LastName:  ns.LastName,
		Email:     ns.Email,
		Phone:     ns.Phone,
		Gender:    ns.Gender,
		IndexNo:   ns.IndexNo,
		Class:     ns.Class,
		SchoolID:  ns.SchoolID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]WithSchool, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id int, exec ...core.DBExecutor) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id, exec...)
}

// GetDetail returns a Student along with their results as {subject, paper, mark} lines, subject and paper being IDs.
func (svc *Service) GetDetail(ctx context.Context, id int) (Detail, error) {
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	lines, err := svc.ResultLines(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Student: std, Results: make([]DetailResult, 0, len(lines))}
	for _, l := range lines {
		detail.Results = append(detail.Results, DetailResult{Subject: l.SubjectID, Paper: l.PaperID, Mark: l.Mark})
	}
	return detail, nil
}

// ResultLines returns the marks of the student with the given ID, ordered by subject then paper.
func (svc *Service) ResultLines(ctx context.Context, id int) ([]ResultLine, error) {
	lines, err := svc.repo.GetResultLines(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "getting result lines")
	}
	return lines, nil
}

// GetByIndexNo looks up a Student and their School by index number.
func (svc *Service) GetByIndexNo(ctx context.Context, indexNo string) (WithSchool, error) {
	std, err := svc.repo.GetStudentByIndexNo(ctx, core.CleanString(indexNo))
	if err != nil {
		return WithSchool{}, err
	}
	sch, err := svc.schoolSvc.GetByID(ctx, std.SchoolID)
	if err != nil {
		return WithSchool{}, errors.Wrap(err, "finding student's school")
	}
	return WithSchool{Student: std, School: sch}, nil
}

// Update fully updates a Student. ns must have been validated against `id`.
func (svc *Service) Update(ctx context.Context, id int, ns NewStudent) (Student, error) {
	orig, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	orig.FirstName = ns.FirstName
	orig.LastName = ns.LastName
	orig.Email = ns.Email
	orig.Phone = ns.Phone
	orig.Gender = ns.Gender
	orig.IndexNo = ns.IndexNo
	orig.Class = ns.Class
	orig.SchoolID = ns.SchoolID
	orig.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, orig)
}

// ValidateUpdate validates ns as the new state of Student `id`.
func (svc *Service) ValidateUpdate(ns *NewStudent, id int, validate structValidator) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.IndexNo = core.CleanString(ns.IndexNo)
	ns.Class = core.CleanString(ns.Class)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkReferences(ns.IndexNo, ns.SchoolID, id)
}

// MarkPaid flags a Student's results as paid for.
func (svc *Service) MarkPaid(ctx context.Context, id int, exec ...core.DBExecutor) error {
	return svc.repo.SetPaid(ctx, id, true, NowFunc().UTC(), exec...)
}

// Delete deletes a Student along with their results and payments.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteStudent(ctx, id)
}
