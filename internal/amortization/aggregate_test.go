package amortization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_EmptyPaymentSet(t *testing.T) {
	loan := Loan{Principal: dec("500")}

	totals := Aggregate(loan, nil)

	assert.True(t, totals.TotalPaid.IsZero())
	assert.True(t, totals.RemainingBalance.Equal(dec("500")))
	assert.False(t, totals.IsFullyPaid)
}

func TestAggregate_ExactPayoffAndOverpayment(t *testing.T) {
	loan := Loan{Principal: dec("500")}
	payments := []Payment{
		{ID: 1, Amount: dec("200")},
		{ID: 2, Amount: dec("300")},
	}

	totals := Aggregate(loan, payments)
	assert.True(t, totals.TotalPaid.Equal(dec("500")))
	assert.True(t, totals.RemainingBalance.IsZero())
	assert.True(t, totals.IsFullyPaid)

	payments = append(payments, Payment{ID: 3, Amount: dec("50")})
	totals = Aggregate(loan, payments)
	assert.True(t, totals.TotalPaid.Equal(dec("550")))
	assert.True(t, totals.RemainingBalance.IsZero(), "balance is floored at zero")
	assert.True(t, totals.IsFullyPaid)
}

func TestAggregate_TotalPaidIsMonotonic(t *testing.T) {
	loan := Loan{Principal: dec("1000")}
	amounts := []string{"10", "0.01", "250.50", "99.99", "700"}

	var payments []Payment
	previous := Aggregate(loan, payments)
	for i, a := range amounts {
		payments = append(payments, Payment{ID: uint(i + 1), Amount: dec(a), Date: time.Now()})
		current := Aggregate(loan, payments)
		assert.True(t, current.TotalPaid.GreaterThanOrEqual(previous.TotalPaid))
		assert.True(t, current.RemainingBalance.LessThanOrEqual(previous.RemainingBalance))
		previous = current
	}
	assert.True(t, previous.IsFullyPaid)
}

func TestAggregate_IgnoresOrder(t *testing.T) {
	loan := Loan{Principal: dec("300")}
	forward := []Payment{{Amount: dec("100")}, {Amount: dec("50")}, {Amount: dec("25.25")}}
	backward := []Payment{forward[2], forward[1], forward[0]}

	assert.Equal(t, Aggregate(loan, forward).TotalPaid.String(), Aggregate(loan, backward).TotalPaid.String())
}
