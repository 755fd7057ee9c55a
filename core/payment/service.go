package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/student"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("payment not found")
	ErrAlreadyPaid      = errors.New("results have already been paid for")
	ErrInvalidSignature = errors.New("invalid notification signature")
)

type (
	// Provider collects payments.
	Provider interface {
		Name() string
		Charge(ctx context.Context, charge Charge) (Checkout, error)
		// VerifyNotification makes sure that n was sent by the provider.
		VerifyNotification(n Notification) error
	}

	Repository interface {
		CreatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		GetPaymentByReference(ctx context.Context, reference string, exec ...core.DBExecutor) (Payment, error)
		UpdatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
	}

	Service struct {
		db         core.DB
		repo       Repository
		provider   Provider
		studentSvc *student.Service
		amount     int64
		currency   string
	}
)

func NewService(conf *core.Config, db core.DB, repo Repository, provider Provider, studentSvc *student.Service) *Service {
	return &Service{
		db:         db,
		repo:       repo,
		provider:   provider,
		studentSvc: studentSvc,
		amount:     conf.Payment.Amount,
		currency:   conf.Payment.Currency,
	}
}

// Start charges the result fee of the student with the given index number.
// Payments a Provider settles right away also mark the student as paid.
func (svc *Service) Start(ctx context.Context, sp StartPayment) (Payment, error) {
	std, err := svc.studentSvc.GetByIndexNo(ctx, sp.Index)
	if err != nil {
		return Payment{}, err
	}
	if std.Paid {
		return Payment{}, core.NewValidationError(ErrAlreadyPaid, core.FieldError{Field: "index", Error: ErrAlreadyPaid.Error()})
	}

	now := NowFunc().UTC()
	p, err := svc.repo.CreatePayment(ctx, Payment{
		StudentID: std.ID,
		Reference: uuid.NewString(),
		Provider:  svc.provider.Name(),
		Amount:    svc.amount,
		Currency:  svc.currency,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Payment{}, errors.Wrap(err, "creating payment")
	}

	checkout, err := svc.provider.Charge(ctx, Charge{
		Reference: p.Reference,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Student:   std.Student,
	})
	if err != nil {
		if _, fErr := svc.setStatus(ctx, p.Reference, StatusFailed); fErr != nil {
			return Payment{}, errors.Wrapf(err, "charging payment (marking it failed: %v)", fErr)
		}
		return Payment{}, errors.Wrap(err, "charging payment")
	}

	if checkout.RedirectURL != "" {
		p.RedirectURL = &checkout.RedirectURL
		if p, err = svc.repo.UpdatePayment(ctx, p); err != nil {
			return Payment{}, errors.Wrap(err, "saving checkout url")
		}
	}
	if checkout.Settled {
		return svc.Settle(ctx, p.Reference)
	}
	return p, nil
}

// Settle marks the payment `reference` as settled and its student as paid, atomically.
func (svc *Service) Settle(ctx context.Context, reference string) (Payment, error) {
	return svc.setStatus(ctx, reference, StatusSettled)
}

func (svc *Service) setStatus(ctx context.Context, reference string, status Status) (Payment, error) {
	var p Payment
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if p, err = svc.repo.GetPaymentByReference(ctx, reference, tx); err != nil {
			return err
		}
		// settled payments are final
		if p.Status == StatusSettled || p.Status == status {
			return nil
		}

		p.Status = status
		p.UpdatedAt = NowFunc().UTC()
		if p, err = svc.repo.UpdatePayment(ctx, p, tx); err != nil {
			return errors.Wrap(err, "updating payment")
		}
		if status == StatusSettled {
			return errors.Wrap(svc.studentSvc.MarkPaid(ctx, p.StudentID, tx), "marking student as paid")
		}
		return nil
	})
	return p, err
}

// HandleNotification applies a payment status update pushed by the Provider.
func (svc *Service) HandleNotification(ctx context.Context, n Notification) (Payment, error) {
	if err := svc.provider.VerifyNotification(n); err != nil {
		return Payment{}, core.NewValidationError(err)
	}
	switch status := n.Status(); status {
	case StatusPending:
		return svc.Get(ctx, n.OrderID)
	default:
		return svc.setStatus(ctx, n.OrderID, status)
	}
}

func (svc *Service) Get(ctx context.Context, reference string) (Payment, error) {
	return svc.repo.GetPaymentByReference(ctx, core.CleanString(reference))
}
