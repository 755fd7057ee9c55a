package payment

import (
	"time"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/student"
)

type Status string

// Statuses
const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
	StatusFailed  Status = "failed"
)

// Payment is the fee paid to unlock the official copy of a student's results.
type Payment struct {
	ID          int       `json:"id"`
	StudentID   int       `json:"studentId"`
	Reference   string    `json:"reference"`
	Provider    string    `json:"provider"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      Status    `json:"status"`
	RedirectURL *string   `json:"redirectUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Charge is what a Provider is asked to collect.
type Charge struct {
	Reference string
	Amount    int64
	Currency  string
	Student   student.Student
}

// Checkout is the outcome of starting a Charge.
// Settled charges need no further action from the payer.
type Checkout struct {
	RedirectURL string
	Settled     bool
}

// Notification is a payment status update pushed by a Provider.
type Notification struct {
	OrderID           string `json:"order_id" validate:"required"`
	TransactionStatus string `json:"transaction_status" validate:"required"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

// Status maps the provider's transaction status to a payment Status.
func (n Notification) Status() Status {
	switch n.TransactionStatus {
	case "settlement":
		return StatusSettled
	case "capture":
		if n.FraudStatus == "" || n.FraudStatus == "accept" {
			return StatusSettled
		}
		return StatusPending
	case "deny", "cancel", "expire", "failure":
		return StatusFailed
	default:
		return StatusPending
	}
}

// StartPayment contains the information needed to pay for a student's results.
type StartPayment struct {
	Index string `json:"index" validate:"required,notblank"`
}

type structValidator interface {
	Struct(s interface{}) error
}

func (sp *StartPayment) Validate(validate structValidator) error {
	sp.Index = core.CleanString(sp.Index)
	return validate.Struct(sp)
}
