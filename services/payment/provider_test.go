package paymentsvc

import (
	"context"
	"net/http"
	"testing"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/matokeo/core/payment"
	"github.com/trezcool/matokeo/core/student"
)

type fakeSnap struct {
	req *snap.Request
	res *snap.Response
	err *midtrans.Error
}

func (f *fakeSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	f.req = req
	return f.res, f.err
}

func TestVerifySignature(t *testing.T) {
	n := payment.Notification{OrderID: "ref-1", StatusCode: "200", GrossAmount: "500.00", TransactionStatus: "settlement"}
	signed := n
	signed.SignatureKey = Signature(n, "server-key")
	spaced := n
	spaced.SignatureKey = "  " + signed.SignatureKey + " "

	tests := []struct {
		name    string
		n       payment.Notification
		wantErr bool
	}{
		{name: "valid", n: signed},
		{name: "surrounding spaces", n: spaced},
		{name: "missing", n: n, wantErr: true},
		{name: "wrong key", n: payment.Notification{OrderID: "ref-1", StatusCode: "200", GrossAmount: "500.00", SignatureKey: Signature(n, "other")}, wantErr: true},
		{name: "tampered amount", n: func() payment.Notification { tn := signed; tn.GrossAmount = "1.00"; return tn }(), wantErr: true},
	}
	prov := NewMidtransProvider("server-key", false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := prov.VerifyNotification(tt.n)
			if tt.wantErr {
				assert.Equal(t, payment.ErrInvalidSignature, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMidtransProvider_Charge(t *testing.T) {
	std := student.Student{FirstName: "Amina", LastName: "Nakato", Email: "amina@example.com", IndexNo: "U0001/001"}

	t.Run("redirect", func(t *testing.T) {
		fake := &fakeSnap{res: &snap.Response{Token: "tok", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/tok"}}
		prov := &MidtransProvider{serverKey: "k", client: fake}

		checkout, err := prov.Charge(context.Background(), payment.Charge{Reference: "ref-1", Amount: 500, Currency: "UGX", Student: std})
		require.NoError(t, err)
		assert.False(t, checkout.Settled)
		assert.Equal(t, fake.res.RedirectURL, checkout.RedirectURL)
		assert.Equal(t, "ref-1", fake.req.TransactionDetails.OrderID)
		assert.Equal(t, int64(500), fake.req.TransactionDetails.GrossAmt)
		require.NotNil(t, fake.req.Items)
		assert.Equal(t, int64(500), (*fake.req.Items)[0].Price)
	})

	t.Run("provider error", func(t *testing.T) {
		fake := &fakeSnap{err: &midtrans.Error{Message: "unauthorized", StatusCode: http.StatusUnauthorized}}
		prov := &MidtransProvider{serverKey: "k", client: fake}

		_, err := prov.Charge(context.Background(), payment.Charge{Reference: "ref-1", Amount: 500, Student: std})
		assert.Error(t, err)
	})

	t.Run("invalid amount", func(t *testing.T) {
		prov := &MidtransProvider{serverKey: "k", client: &fakeSnap{}}
		_, err := prov.Charge(context.Background(), payment.Charge{Reference: "ref-1", Student: std})
		assert.Error(t, err)
	})
}

func TestSimulatedProvider(t *testing.T) {
	prov := NewSimulatedProvider("secret")
	checkout, err := prov.Charge(context.Background(), payment.Charge{Reference: "ref-1", Amount: 500})
	require.NoError(t, err)
	assert.True(t, checkout.Settled)

	n := payment.Notification{OrderID: "ref-1", StatusCode: "200", GrossAmount: "500"}
	n.SignatureKey = Signature(n, "secret")
	assert.NoError(t, prov.VerifyNotification(n))
}
