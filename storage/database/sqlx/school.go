package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/school"
)

type (
	schoolRow struct {
		ID          int    `db:"id"`
		Name        string `db:"name"`
		Address     string `db:"address"`
		Email       string `db:"email"`
		PhoneNumber string `db:"phone_number"`
		Principal   string `db:"principal"`
	}

	schoolRepository struct {
		repository
	}
)

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

const schoolColumns = `id, name, address, email, phone_number, principal`

func NewSchoolRepository(exec core.DBExecutor) *schoolRepository {
	return &schoolRepository{repository{exec: exec}}
}

func (row schoolRow) unmarshal() school.School {
	return school.School{
		ID:          row.ID,
		Name:        row.Name,
		Address:     row.Address,
		Email:       row.Email,
		PhoneNumber: row.PhoneNumber,
		Principal:   row.Principal,
	}
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	id, err := insert(
		ctx, repo.getExec(exec),
		`INSERT INTO school (name, address, email, phone_number, principal) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		sch.Name, sch.Address, sch.Email, sch.PhoneNumber, sch.Principal,
	)
	if err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	sch.ID = id
	return sch, nil
}

func (repo schoolRepository) QuerySchools(ctx context.Context, exec ...core.DBExecutor) ([]school.School, error) {
	var rows []schoolRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, `SELECT `+schoolColumns+` FROM school ORDER BY name ASC, id ASC`); err != nil {
		return nil, errors.Wrap(err, "selecting schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, r := range rows {
		schools = append(schools, r.unmarshal())
	}
	return schools, nil
}

func (repo schoolRepository) GetSchoolByID(ctx context.Context, id int, exec ...core.DBExecutor) (school.School, error) {
	ex := repo.getExec(exec)
	var row schoolRow
	if err := ex.GetContext(ctx, &row, ex.Rebind(`SELECT `+schoolColumns+` FROM school WHERE id = ?`), id); err != nil {
		return school.School{}, trapNoRowsErr(err, school.ErrNotFound, "selecting school")
	}
	return row.unmarshal(), nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	err := execAffecting(
		ctx, repo.getExec(exec), school.ErrNotFound,
		`UPDATE school SET name = ?, address = ?, email = ?, phone_number = ?, principal = ? WHERE id = ?`,
		sch.Name, sch.Address, sch.Email, sch.PhoneNumber, sch.Principal, sch.ID,
	)
	if err != nil {
		if err == school.ErrNotFound {
			return school.School{}, err
		}
		return school.School{}, errors.Wrap(err, "updating school")
	}
	return sch, nil
}

func (repo schoolRepository) DeleteSchool(ctx context.Context, id int, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), school.ErrNotFound, `DELETE FROM school WHERE id = ?`, id)
	switch {
	case err == nil, err == school.ErrNotFound:
		return err
	case isForeignKeyViolation(err):
		return school.ErrHasStudents
	default:
		return errors.Wrap(err, "deleting school")
	}
}
