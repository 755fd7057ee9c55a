package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/grading"
)

type (
	scaleRow struct {
		ID   int    `db:"id"`
		Name string `db:"name"`
	}

	gradeRangeRow struct {
		ID            int    `db:"id"`
		Grade         string `db:"grade"`
		Min           int    `db:"min"`
		Max           int    `db:"max"`
		GradeSystemID int    `db:"grade_system_id"`
	}

	scaleRepository struct {
		repository
	}
)

var _ grading.Repository = (*scaleRepository)(nil) // interface compliance check

func NewScaleRepository(exec core.DBExecutor) *scaleRepository {
	return &scaleRepository{repository{exec: exec}}
}

func (row gradeRangeRow) unmarshal() grading.GradeRange {
	return grading.GradeRange{
		ID:            row.ID,
		Grade:         grading.Grade(row.Grade),
		Min:           row.Min,
		Max:           row.Max,
		GradeSystemID: row.GradeSystemID,
	}
}

// withRanges loads the ranges of scales, ordered by min descending.
func (repo scaleRepository) withRanges(ctx context.Context, exec core.DBExecutor, scales []scaleRow) ([]grading.GradeSystem, error) {
	systems := make([]grading.GradeSystem, 0, len(scales))
	if len(scales) == 0 {
		return systems, nil
	}

	ids := make([]int, 0, len(scales))
	for _, s := range scales {
		ids = append(ids, s.ID)
	}
	q, args, err := in(exec, `
		SELECT id, grade, min, max, grade_system_id FROM grade_range
		WHERE grade_system_id IN (?)
		ORDER BY min DESC, id ASC`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building grade ranges query")
	}
	var rows []gradeRangeRow
	if err = exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting grade ranges")
	}

	ranges := make(map[int][]grading.GradeRange, len(scales))
	for _, r := range rows {
		ranges[r.GradeSystemID] = append(ranges[r.GradeSystemID], r.unmarshal())
	}
	for _, s := range scales {
		rs := ranges[s.ID]
		if rs == nil {
			rs = []grading.GradeRange{}
		}
		systems = append(systems, grading.GradeSystem{ID: s.ID, Name: s.Name, Ranges: rs})
	}
	return systems, nil
}

func (repo scaleRepository) nameExistsErr() error {
	return core.NewValidationError(grading.ErrNameExists, core.FieldError{Field: "name", Error: grading.ErrNameExists.Error()})
}

func (repo scaleRepository) CreateScale(ctx context.Context, name string, ranges []grading.GradeRange, exec ...core.DBExecutor) (grading.GradeSystem, error) {
	ex := repo.getExec(exec)
	id, err := insert(ctx, ex, `INSERT INTO grade_system (name) VALUES (?) RETURNING id`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return grading.GradeSystem{}, repo.nameExistsErr()
		}
		return grading.GradeSystem{}, errors.Wrap(err, "inserting grade system")
	}
	if err = repo.CreateRanges(ctx, id, ranges, ex); err != nil {
		return grading.GradeSystem{}, err
	}
	return repo.GetScaleByID(ctx, id, ex)
}

func (repo scaleRepository) ListScales(ctx context.Context, exec ...core.DBExecutor) ([]grading.GradeSystem, error) {
	ex := repo.getExec(exec)
	var rows []scaleRow
	if err := ex.SelectContext(ctx, &rows, `SELECT id, name FROM grade_system ORDER BY name ASC, id ASC`); err != nil {
		return nil, errors.Wrap(err, "selecting grade systems")
	}
	return repo.withRanges(ctx, ex, rows)
}

func (repo scaleRepository) getScale(ctx context.Context, ex core.DBExecutor, where string, arg interface{}) (grading.GradeSystem, error) {
	var row scaleRow
	if err := ex.GetContext(ctx, &row, ex.Rebind(`SELECT id, name FROM grade_system WHERE `+where), arg); err != nil {
		return grading.GradeSystem{}, trapNoRowsErr(err, grading.ErrNotFound, "selecting grade system")
	}
	systems, err := repo.withRanges(ctx, ex, []scaleRow{row})
	if err != nil {
		return grading.GradeSystem{}, err
	}
	return systems[0], nil
}

func (repo scaleRepository) GetScaleByID(ctx context.Context, id int, exec ...core.DBExecutor) (grading.GradeSystem, error) {
	return repo.getScale(ctx, repo.getExec(exec), "id = ?", id)
}

func (repo scaleRepository) GetScaleByName(ctx context.Context, name string, exec ...core.DBExecutor) (grading.GradeSystem, error) {
	return repo.getScale(ctx, repo.getExec(exec), "name = ?", name)
}

func (repo scaleRepository) RenameScale(ctx context.Context, id int, name string, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), grading.ErrNotFound, `UPDATE grade_system SET name = ? WHERE id = ?`, name, id)
	switch {
	case err == nil, err == grading.ErrNotFound:
		return err
	case isUniqueViolation(err):
		return repo.nameExistsErr()
	default:
		return errors.Wrap(err, "updating grade system")
	}
}

func (repo scaleRepository) DeleteRanges(ctx context.Context, scaleID int, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	_, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM grade_range WHERE grade_system_id = ?`), scaleID)
	return errors.Wrap(err, "deleting grade ranges")
}

func (repo scaleRepository) CreateRanges(ctx context.Context, scaleID int, ranges []grading.GradeRange, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	q := `INSERT INTO grade_range (grade, min, max, grade_system_id) VALUES (?, ?, ?, ?) RETURNING id`
	for _, r := range ranges {
		if _, err := insert(ctx, ex, q, r.Grade.String(), r.Min, r.Max, scaleID); err != nil {
			return errors.Wrapf(err, "inserting grade range %q", r.Grade)
		}
	}
	return nil
}

func (repo scaleRepository) DeleteScale(ctx context.Context, id int, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), grading.ErrNotFound, `DELETE FROM grade_system WHERE id = ?`, id)
	if err != nil && err != grading.ErrNotFound {
		return errors.Wrap(err, "deleting grade system")
	}
	return err
}
