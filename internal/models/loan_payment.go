package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/amortization"
)

// LoanPayment is an immutable repayment recorded against a loan
type LoanPayment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	LoanID      uint            `gorm:"not null;index" json:"loan_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"not null;index" json:"payment_date"`
	RecordedBy  *uint           `json:"recorded_by"`
}

// TableName specifies the table name for LoanPayment
func (LoanPayment) TableName() string {
	return "loan_payments"
}

// ToEngine returns the payment as the amortization engine sees it
func (p *LoanPayment) ToEngine() amortization.Payment {
	return amortization.Payment{ID: p.ID, Amount: p.Amount, Date: p.PaymentDate}
}

// EnginePayments converts a payment history for aggregation
func EnginePayments(payments []LoanPayment) []amortization.Payment {
	out := make([]amortization.Payment, 0, len(payments))
	for i := range payments {
		out = append(out, payments[i].ToEngine())
	}
	return out
}

// LoanPaymentResponse is the JSON response format for loan payments
type LoanPaymentResponse struct {
	ID          uint      `json:"id"`
	LoanID      uint      `json:"loan_id"`
	Amount      float64   `json:"amount"`
	PaymentDate time.Time `json:"payment_date"`
}

// ToResponse converts LoanPayment to LoanPaymentResponse
func (p *LoanPayment) ToResponse() LoanPaymentResponse {
	return LoanPaymentResponse{
		ID:          p.ID,
		LoanID:      p.LoanID,
		Amount:      Money(p.Amount),
		PaymentDate: p.PaymentDate,
	}
}

// PaymentReceipt is returned after recording a payment
type PaymentReceipt struct {
	LoanPaymentResponse
	LoanTotalsResponse
	LoanStatus  string `json:"loan_status"`
	JustPaidOff bool   `json:"just_paid_off"`
}
