package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/student"
)

type (
	studentRow struct {
		ID        int       `db:"id"`
		FirstName string    `db:"first_name"`
		LastName  string    `db:"last_name"`
		Email     string    `db:"email"`
		Phone     string    `db:"phone"`
		Gender    string    `db:"gender"`
		IndexNo   string    `db:"index_no"`
		Class     string    `db:"class"`
		SchoolID  int       `db:"school_id"`
		Paid      bool      `db:"paid"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	studentSchoolRow struct {
		studentRow
		School schoolRow `db:"school"`
	}

	resultLineRow struct {
		SubjectID int     `db:"subject_id"`
		Subject   string  `db:"subject"`
		PaperID   int     `db:"paper_id"`
		Paper     string  `db:"paper"`
		Mark      float64 `db:"mark"`
	}

	studentRepository struct {
		repository
	}
)

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

const studentColumns = `s.id, s.first_name, s.last_name, s.email, s.phone, s.gender, s.index_no, s.class, s.school_id, s.paid, s.created_at, s.updated_at`

var studentOrderings = map[string]string{
	"firstName": "s.first_name",
	"lastName":  "s.last_name",
	"indexNo":   "s.index_no",
	"class":     "s.class",
	"createdAt": "s.created_at",
	"updatedAt": "s.updated_at",
}

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{repository{exec: exec}}
}

func (row studentRow) unmarshal() student.Student {
	return student.Student{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		Phone:     row.Phone,
		Gender:    row.Gender,
		IndexNo:   row.IndexNo,
		Class:     row.Class,
		SchoolID:  row.SchoolID,
		Paid:      row.Paid,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) constraintErr(err error, std student.Student, msg string) error {
	switch {
	case isUniqueViolation(err):
		return core.NewValidationError(student.ErrIndexNoExists, core.FieldError{Field: "indexNo", Error: student.ErrIndexNoExists.Error()})
	case isForeignKeyViolation(err):
		return core.NewFieldValidationError("schoolId", "school %d does not exist", std.SchoolID)
	default:
		return errors.Wrap(err, msg)
	}
}

func (repo studentRepository) CheckIndexNoUniqueness(ctx context.Context, indexNo string, excludedIDs []int, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	q := `SELECT COUNT(*) FROM student WHERE index_no = ?`
	args := []interface{}{indexNo}
	if len(excludedIDs) > 0 {
		q += ` AND id NOT IN (?)`
		args = append(args, excludedIDs)
	}
	q, args, err := in(ex, q, args...)
	if err != nil {
		return errors.Wrap(err, "building index number query")
	}

	var count int
	if err = ex.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "counting students")
	}
	if count > 0 {
		return student.ErrIndexNoExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	id, err := insert(
		ctx, repo.getExec(exec),
		`INSERT INTO student (first_name, last_name, email, phone, gender, index_no, class, school_id, paid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		std.FirstName, std.LastName, std.Email, std.Phone, std.Gender, std.IndexNo, std.Class, std.SchoolID, std.Paid,
		std.CreatedAt.UTC(), std.UpdatedAt.UTC(),
	)
	if err != nil {
		return student.Student{}, repo.constraintErr(err, std, "inserting student")
	}
	std.ID = id
	return std, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.WithSchool, error) {
	ex := repo.getExec(exec)
	q := `SELECT ` + studentColumns + `,
			sc.id AS "school.id", sc.name AS "school.name", sc.address AS "school.address",
			sc.email AS "school.email", sc.phone_number AS "school.phone_number", sc.principal AS "school.principal"
		FROM student s
		JOIN school sc ON sc.id = s.school_id
		WHERE 1 = 1`
	var args []interface{}
	if filter != nil {
		if filter.Level != "" {
			q += ` AND LOWER(s.class) = LOWER(?)`
			args = append(args, filter.Level)
		}
		if filter.SchoolID != 0 {
			q += ` AND s.school_id = ?`
			args = append(args, filter.SchoolID)
		}
		if filter.Paid != nil {
			q += ` AND s.paid = ?`
			args = append(args, *filter.Paid)
		}
		if filter.Search != "" {
			q += ` AND (LOWER(s.first_name || ' ' || s.last_name) LIKE LOWER(?) OR LOWER(s.index_no) LIKE LOWER(?))`
			search := "%" + filter.Search + "%"
			args = append(args, search, search)
		}
	}
	q += core.OrderByClause(ordering, studentOrderings, "s.last_name ASC, s.first_name ASC, s.id ASC")

	var rows []studentSchoolRow
	if err := ex.SelectContext(ctx, &rows, ex.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.WithSchool, 0, len(rows))
	for _, r := range rows {
		students = append(students, student.WithSchool{Student: r.studentRow.unmarshal(), School: r.School.unmarshal()})
	}
	return students, nil
}

func (repo studentRepository) getStudent(ctx context.Context, ex core.DBExecutor, where string, arg interface{}) (student.Student, error) {
	var row studentRow
	if err := ex.GetContext(ctx, &row, ex.Rebind(`SELECT `+studentColumns+` FROM student s WHERE `+where), arg); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "selecting student")
	}
	return row.unmarshal(), nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id int, exec ...core.DBExecutor) (student.Student, error) {
	return repo.getStudent(ctx, repo.getExec(exec), "s.id = ?", id)
}

func (repo studentRepository) GetStudentByIndexNo(ctx context.Context, indexNo string, exec ...core.DBExecutor) (student.Student, error) {
	return repo.getStudent(ctx, repo.getExec(exec), "s.index_no = ?", indexNo)
}

func (repo studentRepository) GetResultLines(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]student.ResultLine, error) {
	ex := repo.getExec(exec)
	var rows []resultLineRow
	err := ex.SelectContext(ctx, &rows, ex.Rebind(`
		SELECT sub.id AS subject_id, sub.name AS subject, sp.id AS paper_id, sp.paper AS paper, re.mark AS mark
		FROM result_entry re
		JOIN subject_paper sp ON sp.id = re.subject_paper_id
		JOIN subject sub ON sub.id = sp.subject_id
		WHERE re.student_id = ?
		ORDER BY sub.name ASC, sp.paper ASC, re.id ASC`), studentID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting result lines")
	}
	lines := make([]student.ResultLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, student.ResultLine{
			SubjectID: r.SubjectID,
			Subject:   r.Subject,
			PaperID:   r.PaperID,
			Paper:     r.Paper,
			Mark:      r.Mark,
		})
	}
	return lines, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	err := execAffecting(
		ctx, repo.getExec(exec), student.ErrNotFound,
		`UPDATE student SET first_name = ?, last_name = ?, email = ?, phone = ?, gender = ?, index_no = ?, class = ?,
			school_id = ?, paid = ?, updated_at = ?
		WHERE id = ?`,
		std.FirstName, std.LastName, std.Email, std.Phone, std.Gender, std.IndexNo, std.Class,
		std.SchoolID, std.Paid, std.UpdatedAt.UTC(), std.ID,
	)
	if err != nil {
		if err == student.ErrNotFound {
			return student.Student{}, err
		}
		return student.Student{}, repo.constraintErr(err, std, "updating student")
	}
	return std, nil
}

func (repo studentRepository) SetPaid(ctx context.Context, id int, paid bool, updatedAt time.Time, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), student.ErrNotFound, `UPDATE student SET paid = ?, updated_at = ? WHERE id = ?`, paid, updatedAt.UTC(), id)
	if err != nil && err != student.ErrNotFound {
		return errors.Wrap(err, "updating student")
	}
	return err
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id int, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), student.ErrNotFound, `DELETE FROM student WHERE id = ?`, id)
	if err != nil && err != student.ErrNotFound {
		return errors.Wrap(err, "deleting student")
	}
	return err
}
