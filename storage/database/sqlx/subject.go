package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/subject"
)

type (
	subjectRow struct {
		ID          int         `db:"id"`
		Name        string      `db:"name"`
		Code        string      `db:"code"`
		Class       string      `db:"class"`
		Description null.String `db:"description"`
	}

	paperRow struct {
		ID        int    `db:"id"`
		SubjectID int    `db:"subject_id"`
		Paper     string `db:"paper"`
	}

	subjectRepository struct {
		repository
	}
)

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

const (
	subjectColumns = `id, name, code, class, description`
	paperColumns   = `id, subject_id, paper`
)

func NewSubjectRepository(exec core.DBExecutor) *subjectRepository {
	return &subjectRepository{repository{exec: exec}}
}

func (row subjectRow) unmarshal() subject.Subject {
	return subject.Subject{
		ID:          row.ID,
		Name:        row.Name,
		Code:        row.Code,
		Class:       row.Class,
		Description: row.Description.Ptr(),
	}
}

func (row paperRow) unmarshal() subject.Paper {
	return subject.Paper{ID: row.ID, SubjectID: row.SubjectID, Paper: row.Paper}
}

// withPapers loads the papers of subjects.
func (repo subjectRepository) withPapers(ctx context.Context, ex core.DBExecutor, rows []subjectRow) ([]subject.Subject, error) {
	subjects := make([]subject.Subject, 0, len(rows))
	if len(rows) == 0 {
		return subjects, nil
	}

	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	q, args, err := in(ex, `SELECT `+paperColumns+` FROM subject_paper WHERE subject_id IN (?) ORDER BY paper ASC, id ASC`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building subject papers query")
	}
	var paperRows []paperRow
	if err = ex.SelectContext(ctx, &paperRows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting subject papers")
	}

	papers := make(map[int][]subject.Paper, len(rows))
	for _, p := range paperRows {
		papers[p.SubjectID] = append(papers[p.SubjectID], p.unmarshal())
	}
	for _, r := range rows {
		sub := r.unmarshal()
		sub.Papers = papers[r.ID]
		if sub.Papers == nil {
			sub.Papers = []subject.Paper{}
		}
		subjects = append(subjects, sub)
	}
	return subjects, nil
}

func (repo subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	id, err := insert(
		ctx, repo.getExec(exec),
		`INSERT INTO subject (name, code, class, description) VALUES (?, ?, ?, ?) RETURNING id`,
		sub.Name, sub.Code, sub.Class, null.StringFromPtr(sub.Description),
	)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	sub.ID = id
	return sub, nil
}

func (repo subjectRepository) QuerySubjects(ctx context.Context, filter subject.QueryFilter, exec ...core.DBExecutor) ([]subject.Subject, error) {
	ex := repo.getExec(exec)
	q := `SELECT ` + subjectColumns + ` FROM subject`
	var args []interface{}
	if filter.Class != "" {
		q += ` WHERE LOWER(class) = LOWER(?)`
		args = append(args, filter.Class)
	}
	q += ` ORDER BY name ASC, id ASC`

	var rows []subjectRow
	if err := ex.SelectContext(ctx, &rows, ex.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	return repo.withPapers(ctx, ex, rows)
}

func (repo subjectRepository) GetSubjectByID(ctx context.Context, id int, exec ...core.DBExecutor) (subject.Subject, error) {
	ex := repo.getExec(exec)
	var row subjectRow
	if err := ex.GetContext(ctx, &row, ex.Rebind(`SELECT `+subjectColumns+` FROM subject WHERE id = ?`), id); err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound, "selecting subject")
	}
	subjects, err := repo.withPapers(ctx, ex, []subjectRow{row})
	if err != nil {
		return subject.Subject{}, err
	}
	return subjects[0], nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	ex := repo.getExec(exec)
	err := execAffecting(
		ctx, ex, subject.ErrNotFound,
		`UPDATE subject SET name = ?, code = ?, class = ?, description = ? WHERE id = ?`,
		sub.Name, sub.Code, sub.Class, null.StringFromPtr(sub.Description), sub.ID,
	)
	if err != nil {
		if err == subject.ErrNotFound {
			return subject.Subject{}, err
		}
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	return repo.GetSubjectByID(ctx, sub.ID, ex)
}

func (repo subjectRepository) DeleteSubject(ctx context.Context, id int, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), subject.ErrNotFound, `DELETE FROM subject WHERE id = ?`, id)
	if err != nil && err != subject.ErrNotFound {
		return errors.Wrap(err, "deleting subject")
	}
	return err
}

func (repo subjectRepository) CreatePaper(ctx context.Context, paper subject.Paper, exec ...core.DBExecutor) (subject.Paper, error) {
	id, err := insert(ctx, repo.getExec(exec), `INSERT INTO subject_paper (subject_id, paper) VALUES (?, ?) RETURNING id`, paper.SubjectID, paper.Paper)
	if err != nil {
		if isForeignKeyViolation(err) {
			return subject.Paper{}, core.NewFieldValidationError("subjectId", "subject %d does not exist", paper.SubjectID)
		}
		return subject.Paper{}, errors.Wrap(err, "inserting subject paper")
	}
	paper.ID = id
	return paper, nil
}

func (repo subjectRepository) QueryPapers(ctx context.Context, filter subject.PaperFilter, exec ...core.DBExecutor) ([]subject.Paper, error) {
	ex := repo.getExec(exec)
	q := `SELECT ` + paperColumns + ` FROM subject_paper WHERE 1 = 1`
	var args []interface{}
	if filter.SubjectID != 0 {
		q += ` AND subject_id = ?`
		args = append(args, filter.SubjectID)
	}
	if filter.Search != "" {
		q += ` AND LOWER(paper) LIKE LOWER(?)`
		args = append(args, "%"+filter.Search+"%")
	}
	q += ` ORDER BY subject_id ASC, paper ASC, id ASC`

	var rows []paperRow
	if err := ex.SelectContext(ctx, &rows, ex.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting subject papers")
	}
	papers := make([]subject.Paper, 0, len(rows))
	for _, r := range rows {
		papers = append(papers, r.unmarshal())
	}
	return papers, nil
}

func (repo subjectRepository) GetPaperByID(ctx context.Context, id int, exec ...core.DBExecutor) (subject.Paper, error) {
	ex := repo.getExec(exec)
	var row paperRow
	if err := ex.GetContext(ctx, &row, ex.Rebind(`SELECT `+paperColumns+` FROM subject_paper WHERE id = ?`), id); err != nil {
		return subject.Paper{}, trapNoRowsErr(err, subject.ErrPaperNotFound, "selecting subject paper")
	}
	return row.unmarshal(), nil
}

func (repo subjectRepository) GetPaperDetails(ctx context.Context, ids []int, exec ...core.DBExecutor) (map[int]subject.PaperDetail, error) {
	details := make(map[int]subject.PaperDetail, len(ids))
	if len(ids) == 0 {
		return details, nil
	}
	ex := repo.getExec(exec)

	q, args, err := in(ex, `SELECT `+paperColumns+` FROM subject_paper WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building subject papers query")
	}
	var paperRows []paperRow
	if err = ex.SelectContext(ctx, &paperRows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting subject papers")
	}
	if len(paperRows) == 0 {
		return details, nil
	}

	subjectIDs := make([]int, 0, len(paperRows))
	for _, p := range paperRows {
		subjectIDs = append(subjectIDs, p.SubjectID)
	}
	q, args, err = in(ex, `SELECT `+subjectColumns+` FROM subject WHERE id IN (?)`, subjectIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building subjects query")
	}
	var subjectRows []subjectRow
	if err = ex.SelectContext(ctx, &subjectRows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	subjects := make(map[int]subject.Subject, len(subjectRows))
	for _, s := range subjectRows {
		subjects[s.ID] = s.unmarshal()
	}

	for _, p := range paperRows {
		details[p.ID] = subject.PaperDetail{ID: p.ID, Paper: p.Paper, Subject: subjects[p.SubjectID]}
	}
	return details, nil
}

func (repo subjectRepository) DeletePaper(ctx context.Context, id int, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), subject.ErrPaperNotFound, `DELETE FROM subject_paper WHERE id = ?`, id)
	if err != nil && err != subject.ErrPaperNotFound {
		return errors.Wrap(err, "deleting subject paper")
	}
	return err
}
