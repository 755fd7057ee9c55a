// Package paymentsvc provides the payment.Provider implementations: a simulated one for development
// and tests, and Midtrans Snap.
package paymentsvc

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/payment"
)

// Providers
const (
	ProviderSimulated = "simulated"
	ProviderMidtrans  = "midtrans"
)

// NewProvider returns the payment.Provider selected in conf.
func NewProvider(conf *core.Config) payment.Provider {
	if conf.Payment.Provider == ProviderMidtrans {
		return NewMidtransProvider(conf.Payment.MidtransServerKey, conf.Payment.MidtransProd)
	}
	return NewSimulatedProvider(conf.SecretKey)
}

// Signature computes the notification signature: SHA512(order_id + status_code + gross_amount + key), hex encoded.
func Signature(n payment.Notification, key string) string {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + key))
	return hex.EncodeToString(sum[:])
}

func verifySignature(n payment.Notification, key string) error {
	want := Signature(n, key)
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return payment.ErrInvalidSignature
	}
	return nil
}
