package paymentsvc

import (
	"context"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/payment"
)

type snapClient interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// MidtransProvider charges through Midtrans Snap: payers are redirected to the Snap checkout page
// and the outcome is pushed back as a notification.
type MidtransProvider struct {
	serverKey string
	client    snapClient
}

var _ payment.Provider = (*MidtransProvider)(nil)

func NewMidtransProvider(serverKey string, production bool) *MidtransProvider {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(serverKey, env)
	return &MidtransProvider{serverKey: serverKey, client: &client}
}

func (p *MidtransProvider) Name() string { return ProviderMidtrans }

func (p *MidtransProvider) Charge(_ context.Context, charge payment.Charge) (payment.Checkout, error) {
	if charge.Amount <= 0 {
		return payment.Checkout{}, errors.New("charge amount must be positive")
	}
	std := charge.Student
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  charge.Reference,
			GrossAmt: charge.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: std.FirstName,
			LName: std.LastName,
			Email: std.Email,
			Phone: std.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       "results-" + std.IndexNo,
				Name:     "Official results " + std.IndexNo,
				Price:    charge.Amount,
				Qty:      1,
				Category: "results",
			},
		},
	}

	res, mErr := p.client.CreateTransaction(req)
	if mErr != nil {
		return payment.Checkout{}, errors.Wrap(mErr, "creating snap transaction")
	}
	return payment.Checkout{RedirectURL: res.RedirectURL}, nil
}

func (p *MidtransProvider) VerifyNotification(n payment.Notification) error {
	return verifySignature(n, p.serverKey)
}
