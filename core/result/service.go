package result

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/grading"
	"github.com/trezcool/matokeo/core/student"
	"github.com/trezcool/matokeo/core/subject"
)

var (
	NowFunc = time.Now // mockable

	errInvalidScores = errors.New("invalid scores")
)

type (
	Repository interface {
		// UpsertEntries creates entries, replacing the mark of an existing (student, paper) entry.
		UpsertEntries(ctx context.Context, entries []Entry, exec ...core.DBExecutor) ([]Entry, error)
		QueryEntries(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Entry, error)
	}

	Service struct {
		db         core.DB
		repo       Repository
		studentSvc *student.Service
		subjectSvc *subject.Service
		gradingSvc *grading.Service
		conf       *core.Config
	}
)

func NewService(
	conf *core.Config,
	db core.DB,
	repo Repository,
	studentSvc *student.Service,
	subjectSvc *subject.Service,
	gradingSvc *grading.Service,
) *Service {
	return &Service{
		db:         db,
		repo:       repo,
		studentSvc: studentSvc,
		subjectSvc: subjectSvc,
		gradingSvc: gradingSvc,
		conf:       conf,
	}
}

func (rm *RecordMarks) Validate(validate interface{ Struct(s interface{}) error }) error {
	if err := validate.Struct(rm); err != nil {
		return err
	}

	var fldErrs []core.FieldError
	seen := make(map[int]int, len(rm.Scores))
	for i, sc := range rm.Scores {
		fld := fmt.Sprintf("scores[%d]", i)
		if m := float64(*sc.Mark); math.IsNaN(m) || m < 0 || m > 100 {
			fldErrs = append(fldErrs, core.FieldError{Field: fld + ".mark", Error: "mark must be between 0 and 100"})
		}
		if j, ok := seen[sc.Paper]; ok {
			fldErrs = append(fldErrs, core.FieldError{
				Field: fld + ".paper",
				Error: fmt.Sprintf("paper %d is already scored by scores[%d]", sc.Paper, j),
			})
		} else {
			seen[sc.Paper] = i
		}
	}
	if len(fldErrs) > 0 {
		return core.NewValidationError(errInvalidScores, fldErrs...)
	}
	return nil
}

// RecordMarks saves the marks of a student in a single transaction. rm must have been validated.
// Recording a mark for a paper the student already has a result on replaces that result.
func (svc *Service) RecordMarks(ctx context.Context, rm RecordMarks, addedBy int) ([]Entry, error) {
	var created []Entry
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.studentSvc.GetByID(ctx, rm.Student.ID, tx); err != nil {
			if err == student.ErrNotFound {
				return core.NewFieldValidationError("student", "student %d does not exist", rm.Student.ID)
			}
			return errors.Wrap(err, "finding student")
		}

		ids := make([]int, 0, len(rm.Scores))
		for _, sc := range rm.Scores {
			ids = append(ids, sc.Paper)
		}
		papers, err := svc.subjectSvc.GetPaperDetails(ctx, ids, tx)
		if err != nil {
			return errors.Wrap(err, "finding subject papers")
		}

		now := NowFunc().UTC()
		entries := make([]Entry, 0, len(rm.Scores))
		var fldErrs []core.FieldError
		for i, sc := range rm.Scores {
			paper, ok := papers[sc.Paper]
			switch {
			case !ok:
				fldErrs = append(fldErrs, core.FieldError{
					Field: fmt.Sprintf("scores[%d].paper", i),
					Error: fmt.Sprintf("subject paper %d does not exist", sc.Paper),
				})
				continue
			case sc.Subject != 0 && paper.Subject.ID != sc.Subject:
				fldErrs = append(fldErrs, core.FieldError{
					Field: fmt.Sprintf("scores[%d].paper", i),
					Error: fmt.Sprintf("subject paper %d does not belong to subject %d", sc.Paper, sc.Subject),
				})
				continue
			}
			entries = append(entries, Entry{
				StudentID:      rm.Student.ID,
				SubjectPaperID: sc.Paper,
				Mark:           float64(*sc.Mark),
				AddedBy:        addedBy,
				CreatedAt:      now,
			})
		}
		if len(fldErrs) > 0 {
			return core.NewValidationError(errInvalidScores, fldErrs...)
		}

		created, err = svc.repo.UpsertEntries(ctx, entries, tx)
		return errors.Wrap(err, "saving results")
	})
	return created, err
}

// StudentResults returns a student along with their results and the paper and subject of each.
func (svc *Service) StudentResults(ctx context.Context, studentID int) (StudentResults, error) {
	std, err := svc.studentSvc.GetByID(ctx, studentID)
	if err != nil {
		return StudentResults{}, err
	}
	entries, err := svc.repo.QueryEntries(ctx, QueryFilter{StudentID: studentID})
	if err != nil {
		return StudentResults{}, errors.Wrap(err, "querying results")
	}

	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.SubjectPaperID)
	}
	papers, err := svc.subjectSvc.GetPaperDetails(ctx, ids)
	if err != nil {
		return StudentResults{}, errors.Wrap(err, "finding subject papers")
	}

	res := StudentResults{Student: std, Result: make([]ResultItem, 0, len(entries))}
	for _, e := range entries {
		res.Result = append(res.Result, ResultItem{
			ID:           e.ID,
			Result:       e.Mark,
			SubjectPaper: papers[e.SubjectPaperID],
		})
	}
	return res, nil
}

// ScaleFor returns the GradeSystem used to grade students of class.
func (svc *Service) ScaleFor(ctx context.Context, class string) (grading.GradeSystem, error) {
	name := svc.conf.Grading.ScaleFor(class)
	gs, err := svc.gradingSvc.GetScale(ctx, name)
	if err != nil {
		return grading.GradeSystem{}, errors.Wrapf(err, "finding grade system %q for class %q", name, class)
	}
	return gs, nil
}

// Summarize grades the results of std with the scale of their class.
func (svc *Service) Summarize(ctx context.Context, std student.Student) (Summary, error) {
	lines, err := svc.studentSvc.ResultLines(ctx, std.ID)
	if err != nil {
		return Summary{}, err
	}
	if len(lines) == 0 {
		return Summary{}, ErrEmptyResultSet
	}
	gs, err := svc.ScaleFor(ctx, std.Class)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(lines, gs.Ranges)
}
