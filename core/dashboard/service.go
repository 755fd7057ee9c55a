// Package dashboard aggregates the figures shown on the admin dashboard.
package dashboard

import (
	"context"

	"github.com/pkg/errors"
)

const recentPaymentsLimit = 5

type (
	Repository interface {
		Counts(ctx context.Context) (Counts, error)
		// Revenue sums the settled payments by currency.
		Revenue(ctx context.Context) ([]Revenue, error)
		// PaymentsBySchool counts paid and unpaid students per school, schools without students included.
		PaymentsBySchool(ctx context.Context) ([]SchoolPayments, error)
		StudentsByClass(ctx context.Context) ([]ClassCount, error)
		// RecentPayments returns the `limit` latest payments, most recent first.
		RecentPayments(ctx context.Context, limit int) ([]RecentPayment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.Counts, err = svc.repo.Counts(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting records")
	}
	if stats.Revenue, err = svc.repo.Revenue(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "summing revenue")
	}
	if stats.PaymentsBySchool, err = svc.repo.PaymentsBySchool(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting payments by school")
	}
	if stats.StudentsByClass, err = svc.repo.StudentsByClass(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting students by class")
	}
	if stats.RecentPayments, err = svc.repo.RecentPayments(ctx, recentPaymentsLimit); err != nil {
		return Stats{}, errors.Wrap(err, "listing recent payments")
	}
	return stats, nil
}
