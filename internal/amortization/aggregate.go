package amortization

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a single repayment recorded against a loan.
type Payment struct {
	ID     uint
	Amount decimal.Decimal
	Date   time.Time
}

// Totals is what a loan's payment history adds up to.
type Totals struct {
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	IsFullyPaid      bool            `json:"is_fully_paid"`
}

// Aggregate sums the payments made on a loan. Order does not matter and an
// empty history simply leaves the full principal outstanding.
func Aggregate(loan Loan, payments []Payment) Totals {
	totalPaid := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
	}

	remaining := loan.Principal.Sub(totalPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return Totals{
		TotalPaid:        totalPaid,
		RemainingBalance: remaining,
		IsFullyPaid:      totalPaid.GreaterThanOrEqual(loan.Principal),
	}
}
