package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/payment"
)

type (
	paymentRow struct {
		ID          int         `db:"id"`
		StudentID   int         `db:"student_id"`
		Reference   string      `db:"reference"`
		Provider    string      `db:"provider"`
		Amount      int64       `db:"amount"`
		Currency    string      `db:"currency"`
		Status      string      `db:"status"`
		RedirectURL null.String `db:"redirect_url"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at"`
	}

	paymentRepository struct {
		repository
	}
)

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

const paymentColumns = `id, student_id, reference, provider, amount, currency, status, redirect_url, created_at, updated_at`

func NewPaymentRepository(exec core.DBExecutor) *paymentRepository {
	return &paymentRepository{repository{exec: exec}}
}

func (row paymentRow) unmarshal() payment.Payment {
	return payment.Payment{
		ID:          row.ID,
		StudentID:   row.StudentID,
		Reference:   row.Reference,
		Provider:    row.Provider,
		Amount:      row.Amount,
		Currency:    row.Currency,
		Status:      payment.Status(row.Status),
		RedirectURL: row.RedirectURL.Ptr(),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (repo paymentRepository) CreatePayment(ctx context.Context, p payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	id, err := insert(
		ctx, repo.getExec(exec),
		`INSERT INTO payment (student_id, reference, provider, amount, currency, status, redirect_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		p.StudentID, p.Reference, p.Provider, p.Amount, p.Currency, string(p.Status), null.StringFromPtr(p.RedirectURL),
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}
	p.ID = id
	return p, nil
}

func (repo paymentRepository) GetPaymentByReference(ctx context.Context, reference string, exec ...core.DBExecutor) (payment.Payment, error) {
	ex := repo.getExec(exec)
	var row paymentRow
	if err := ex.GetContext(ctx, &row, ex.Rebind(`SELECT `+paymentColumns+` FROM payment WHERE reference = ?`), reference); err != nil {
		return payment.Payment{}, trapNoRowsErr(err, payment.ErrNotFound, "selecting payment")
	}
	return row.unmarshal(), nil
}

func (repo paymentRepository) UpdatePayment(ctx context.Context, p payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	err := execAffecting(
		ctx, repo.getExec(exec), payment.ErrNotFound,
		`UPDATE payment SET status = ?, redirect_url = ?, updated_at = ? WHERE id = ?`,
		string(p.Status), null.StringFromPtr(p.RedirectURL), p.UpdatedAt.UTC(), p.ID,
	)
	if err != nil {
		if err == payment.ErrNotFound {
			return payment.Payment{}, err
		}
		return payment.Payment{}, errors.Wrap(err, "updating payment")
	}
	return p, nil
}
