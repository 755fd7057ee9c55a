package dashboard

import (
	"time"

	"github.com/trezcool/matokeo/core/payment"
)

// Counts are the headline figures of the dashboard.
type Counts struct {
	Schools      int `json:"schools"`
	Students     int `json:"students"`
	PaidStudents int `json:"paidStudents"`
	Results      int `json:"results"`
}

// Revenue is the sum of the settled payments in one currency.
type Revenue struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// SchoolPayments is the payment status of the students of a school.
type SchoolPayments struct {
	SchoolID int    `json:"schoolId"`
	School   string `json:"school"`
	Paid     int    `json:"paid"`
	Unpaid   int    `json:"unpaid"`
}

type ClassCount struct {
	Class    string `json:"class"`
	Students int    `json:"students"`
}

// RecentPayment is a Payment along with the student it was made for.
type RecentPayment struct {
	Reference   string         `json:"reference"`
	StudentName string         `json:"studentName"`
	IndexNo     string         `json:"indexNo"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Status      payment.Status `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type Stats struct {
	Counts
	Revenue          []Revenue        `json:"revenue"`
	PaymentsBySchool []SchoolPayments `json:"paymentsBySchool"`
	StudentsByClass  []ClassCount     `json:"studentsByClass"`
	RecentPayments   []RecentPayment  `json:"recentPayments"`
}
