package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/dashboard"
	"github.com/trezcool/matokeo/core/payment"
)

type (
	schoolPaymentsRow struct {
		SchoolID int    `db:"school_id"`
		School   string `db:"school"`
		Students int    `db:"students"`
		Paid     int    `db:"paid"`
	}

	recentPaymentRow struct {
		Reference string    `db:"reference"`
		FirstName string    `db:"first_name"`
		LastName  string    `db:"last_name"`
		IndexNo   string    `db:"index_no"`
		Amount    int64     `db:"amount"`
		Currency  string    `db:"currency"`
		Status    string    `db:"status"`
		CreatedAt time.Time `db:"created_at"`
	}

	dashboardRepository struct {
		repository
	}
)

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(exec core.DBExecutor) *dashboardRepository {
	return &dashboardRepository{repository{exec: exec}}
}

func (repo dashboardRepository) Counts(ctx context.Context) (dashboard.Counts, error) {
	var counts dashboard.Counts
	err := repo.exec.QueryRowxContext(ctx, repo.exec.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM school),
			(SELECT COUNT(*) FROM student),
			(SELECT COUNT(*) FROM student WHERE paid = ?),
			(SELECT COUNT(*) FROM result_entry)`), true).
		Scan(&counts.Schools, &counts.Students, &counts.PaidStudents, &counts.Results)
	return counts, errors.Wrap(err, "selecting counts")
}

func (repo dashboardRepository) Revenue(ctx context.Context) ([]dashboard.Revenue, error) {
	revenue := make([]dashboard.Revenue, 0)
	err := repo.exec.SelectContext(ctx, &revenue, repo.exec.Rebind(`
		SELECT currency, CAST(COALESCE(SUM(amount), 0) AS BIGINT) AS amount
		FROM payment
		WHERE status = ?
		GROUP BY currency
		ORDER BY currency ASC`), payment.StatusSettled)
	return revenue, errors.Wrap(err, "selecting revenue")
}

func (repo dashboardRepository) PaymentsBySchool(ctx context.Context) ([]dashboard.SchoolPayments, error) {
	var rows []schoolPaymentsRow
	err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(`
		SELECT sc.id AS school_id, sc.name AS school, COUNT(s.id) AS students,
			COALESCE(SUM(CASE WHEN s.paid = ? THEN 1 ELSE 0 END), 0) AS paid
		FROM school sc
		LEFT JOIN student s ON s.school_id = sc.id
		GROUP BY sc.id, sc.name
		ORDER BY sc.name ASC, sc.id ASC`), true)
	if err != nil {
		return nil, errors.Wrap(err, "selecting payments by school")
	}

	payments := make([]dashboard.SchoolPayments, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, dashboard.SchoolPayments{
			SchoolID: row.SchoolID,
			School:   row.School,
			Paid:     row.Paid,
			Unpaid:   row.Students - row.Paid,
		})
	}
	return payments, nil
}

func (repo dashboardRepository) StudentsByClass(ctx context.Context) ([]dashboard.ClassCount, error) {
	counts := make([]dashboard.ClassCount, 0)
	err := repo.exec.SelectContext(ctx, &counts, `
		SELECT class, COUNT(*) AS students
		FROM student
		GROUP BY class
		ORDER BY class ASC`)
	return counts, errors.Wrap(err, "selecting students by class")
}

func (repo dashboardRepository) RecentPayments(ctx context.Context, limit int) ([]dashboard.RecentPayment, error) {
	var rows []recentPaymentRow
	err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(`
		SELECT p.reference, s.first_name, s.last_name, s.index_no, p.amount, p.currency, p.status, p.created_at
		FROM payment p
		JOIN student s ON s.id = p.student_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, errors.Wrap(err, "selecting recent payments")
	}

	payments := make([]dashboard.RecentPayment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, dashboard.RecentPayment{
			Reference:   row.Reference,
			StudentName: row.FirstName + " " + row.LastName,
			IndexNo:     row.IndexNo,
			Amount:      row.Amount,
			Currency:    row.Currency,
			Status:      payment.Status(row.Status),
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return payments, nil
}
