package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/result"
)

type (
	entryRow struct {
		ID             int       `db:"id"`
		StudentID      int       `db:"student_id"`
		SubjectPaperID int       `db:"subject_paper_id"`
		Mark           float64   `db:"mark"`
		AddedBy        int       `db:"added_by"`
		CreatedAt      time.Time `db:"created_at"`
	}

	resultRepository struct {
		repository
	}
)

var _ result.Repository = (*resultRepository)(nil) // interface compliance check

func NewResultRepository(exec core.DBExecutor) *resultRepository {
	return &resultRepository{repository{exec: exec}}
}

func (row entryRow) unmarshal() result.Entry {
	return result.Entry{
		ID:             row.ID,
		StudentID:      row.StudentID,
		SubjectPaperID: row.SubjectPaperID,
		Mark:           row.Mark,
		AddedBy:        row.AddedBy,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}

func (repo resultRepository) UpsertEntries(ctx context.Context, entries []result.Entry, exec ...core.DBExecutor) ([]result.Entry, error) {
	ex := repo.getExec(exec)
	q := `INSERT INTO result_entry (student_id, subject_paper_id, mark, added_by, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id, subject_paper_id)
		DO UPDATE SET mark = excluded.mark, added_by = excluded.added_by, created_at = excluded.created_at
		RETURNING id`

	saved := make([]result.Entry, 0, len(entries))
	for i, e := range entries {
		id, err := insert(ctx, ex, q, e.StudentID, e.SubjectPaperID, e.Mark, e.AddedBy, e.CreatedAt.UTC())
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, core.NewFieldValidationError("scores", "student %d or subject paper %d does not exist (scores[%d])", e.StudentID, e.SubjectPaperID, i)
			}
			return nil, errors.Wrap(err, "upserting result entry")
		}
		e.ID = id
		saved = append(saved, e)
	}
	return saved, nil
}

func (repo resultRepository) QueryEntries(ctx context.Context, filter result.QueryFilter, exec ...core.DBExecutor) ([]result.Entry, error) {
	ex := repo.getExec(exec)
	q := `SELECT id, student_id, subject_paper_id, mark, added_by, created_at FROM result_entry WHERE 1 = 1`
	var args []interface{}
	if filter.StudentID != 0 {
		q += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	}
	q += ` ORDER BY id ASC`

	var rows []entryRow
	if err := ex.SelectContext(ctx, &rows, ex.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting result entries")
	}
	entries := make([]result.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.unmarshal())
	}
	return entries, nil
}
