package amortization

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestGenerateSchedule_FixedLoan(t *testing.T) {
	loan := Loan{ID: 1, Principal: dec("1000"), AnnualRatePercent: dec("12"), Method: MethodFixed, TermMonths: 10}

	schedule, err := GenerateSchedule(loan)
	require.NoError(t, err)
	require.Len(t, schedule.Entries, 10)

	for _, e := range schedule.Entries {
		assert.True(t, e.Payment.Equal(dec("110")), "period %d payment %s", e.Period, e.Payment)
		assert.True(t, e.Principal.Equal(dec("100")), "period %d principal %s", e.Period, e.Principal)
		assert.True(t, e.Interest.Equal(dec("10")), "period %d interest %s", e.Period, e.Interest)
	}

	assert.True(t, schedule.TotalInterest.Equal(dec("100")))
	assert.True(t, schedule.TotalPayment.Equal(dec("1100")))
	assert.True(t, schedule.MonthlyPayment.Equal(dec("110")))
	assert.True(t, schedule.Entries[0].RemainingBalance.Equal(dec("900")))
	assert.True(t, schedule.Entries[4].CumulativePaid.Equal(dec("550")))
	assert.True(t, schedule.Entries[9].RemainingBalance.IsZero())
}

func TestGenerateSchedule_ReducingLoan(t *testing.T) {
	loan := Loan{ID: 2, Principal: dec("1000"), AnnualRatePercent: dec("12"), Method: MethodReducing, TermMonths: 10}

	schedule, err := GenerateSchedule(loan)
	require.NoError(t, err)
	require.Len(t, schedule.Entries, 10)

	first := schedule.Entries[0]
	assert.Equal(t, "105.58", first.Payment.StringFixed(2))
	assert.Equal(t, "10.00", first.Interest.StringFixed(2))
	assert.Equal(t, "95.58", first.Principal.StringFixed(2))
	assert.Equal(t, "105.58", schedule.MonthlyPayment.StringFixed(2))

	last := schedule.Entries[len(schedule.Entries)-1]
	assert.True(t, last.RemainingBalance.IsZero(), "final balance %s", last.RemainingBalance)

	for _, e := range schedule.Entries {
		assert.True(t, e.Payment.Equal(first.Payment), "payment must be level")
		assert.True(t, e.Interest.Add(e.Principal).Sub(e.Payment).Abs().LessThan(dec("0.000001")))
	}
}

func TestGenerateSchedule_ReducingInvariants(t *testing.T) {
	cases := []Loan{
		{Principal: dec("1000"), AnnualRatePercent: dec("12"), TermMonths: 10},
		{Principal: dec("5000"), AnnualRatePercent: dec("18"), TermMonths: 24},
		{Principal: dec("250000"), AnnualRatePercent: dec("7.5"), TermMonths: 360},
		{Principal: dec("333.33"), AnnualRatePercent: dec("0.5"), TermMonths: 7},
		{Principal: dec("100000"), AnnualRatePercent: dec("120"), TermMonths: 360},
		{Principal: dec("100000"), AnnualRatePercent: dec("72"), TermMonths: 600},
		{Principal: dec("100"), AnnualRatePercent: dec("999"), TermMonths: 120},
	}

	for _, loan := range cases {
		loan.Method = MethodReducing
		t.Run(loan.Principal.String()+"/"+loan.AnnualRatePercent.String()+"/"+strconv.Itoa(loan.TermMonths), func(t *testing.T) {
			schedule, err := GenerateSchedule(loan)
			require.NoError(t, err)
			require.Len(t, schedule.Entries, loan.TermMonths)

			sumPrincipal := decimal.Zero
			for i, e := range schedule.Entries {
				sumPrincipal = sumPrincipal.Add(e.Principal)
				if i == 0 {
					continue
				}
				prev := schedule.Entries[i-1]
				assert.True(t, e.Interest.LessThan(prev.Interest), "interest must decrease at period %d", e.Period)
				assert.True(t, e.RemainingBalance.LessThanOrEqual(prev.RemainingBalance), "balance must not increase at period %d", e.Period)
			}

			assert.True(t, sumPrincipal.Sub(loan.Principal).Abs().LessThan(dec("0.01")), "principal sum %s", sumPrincipal)
			last := schedule.Entries[loan.TermMonths-1]
			assert.True(t, last.RemainingBalance.IsZero(), "final balance %s", last.RemainingBalance)
			assert.True(t, last.Principal.IsPositive(), "final principal %s", last.Principal)
			assert.True(t, last.Interest.IsPositive(), "final interest %s", last.Interest)
		})
	}
}

func TestGenerateSchedule_FixedLoanWithRepeatingDecimals(t *testing.T) {
	loan := Loan{Principal: dec("1000"), AnnualRatePercent: dec("10"), Method: MethodFixed, TermMonths: 3}

	schedule, err := GenerateSchedule(loan)
	require.NoError(t, err)

	sumPrincipal := decimal.Zero
	for _, e := range schedule.Entries {
		sumPrincipal = sumPrincipal.Add(e.Principal)
		assert.True(t, e.Payment.Equal(schedule.Entries[0].Payment))
	}
	assert.True(t, sumPrincipal.Sub(dec("1000")).Abs().LessThan(dec("0.01")))
	assert.True(t, schedule.Entries[2].RemainingBalance.IsZero())
}

func TestGenerateSchedule_ZeroRateReducing(t *testing.T) {
	loan := Loan{Principal: dec("1200"), AnnualRatePercent: decimal.Zero, Method: MethodReducing, TermMonths: 12}

	schedule, err := GenerateSchedule(loan)
	require.NoError(t, err)
	require.Len(t, schedule.Entries, 12)

	for _, e := range schedule.Entries {
		assert.True(t, e.Payment.Equal(dec("100")))
		assert.True(t, e.Interest.IsZero())
		assert.True(t, e.Principal.Equal(dec("100")))
	}
	assert.True(t, schedule.TotalInterest.IsZero())
	assert.True(t, schedule.TotalPayment.Equal(dec("1200")))
	assert.True(t, schedule.Entries[11].RemainingBalance.IsZero())
}

func TestGenerateSchedule_UnknownMethodYieldsEmptySchedule(t *testing.T) {
	loan := Loan{Principal: dec("1000"), AnnualRatePercent: dec("12"), Method: "balloon", TermMonths: 10}

	schedule, err := GenerateSchedule(loan)
	require.NoError(t, err)
	assert.True(t, schedule.IsEmpty())
	assert.Empty(t, schedule.Entries)
	assert.True(t, schedule.MonthlyPayment.IsZero())

	// callers guard before indexing the first entry
	assert.NotPanics(t, func() {
		if !schedule.IsEmpty() {
			_ = schedule.Entries[0]
		}
	})
}

func TestGenerateSchedule_InvalidTerms(t *testing.T) {
	tests := []struct {
		name string
		loan Loan
	}{
		{"zero term", Loan{Principal: dec("1000"), AnnualRatePercent: dec("12"), Method: MethodFixed, TermMonths: 0}},
		{"zero principal", Loan{Principal: decimal.Zero, AnnualRatePercent: dec("12"), Method: MethodFixed, TermMonths: 12}},
		{"negative principal", Loan{Principal: dec("-5"), AnnualRatePercent: dec("12"), Method: MethodReducing, TermMonths: 12}},
		{"negative rate", Loan{Principal: dec("1000"), AnnualRatePercent: dec("-1"), Method: MethodReducing, TermMonths: 12}},
		{"term too long", Loan{Principal: dec("1000"), AnnualRatePercent: dec("12"), Method: MethodReducing, TermMonths: MaxTermMonths + 1}},
		{"huge term", Loan{Principal: dec("1000"), AnnualRatePercent: dec("12"), Method: MethodFixed, TermMonths: 100000000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateSchedule(tt.loan)
			assert.True(t, errors.Is(err, ErrInvalidLoanTerms))
		})
	}
}

func TestGenerateSchedule_IsDeterministic(t *testing.T) {
	loan := Loan{Principal: dec("7500"), AnnualRatePercent: dec("14"), Method: MethodReducing, TermMonths: 18}

	first, err := GenerateSchedule(loan)
	require.NoError(t, err)
	second, err := GenerateSchedule(loan)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateSchedule_DueDates(t *testing.T) {
	start := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	loan := Loan{Principal: dec("600"), AnnualRatePercent: dec("6"), Method: MethodFixed, TermMonths: 3, StartDate: start}

	schedule, err := GenerateSchedule(loan)
	require.NoError(t, err)

	require.NotNil(t, schedule.Entries[0].DueDate)
	assert.Equal(t, start.AddDate(0, 1, 0), *schedule.Entries[0].DueDate)
	assert.Equal(t, MaturityDate(start, 3), *schedule.Entries[2].DueDate)

	noStart, err := GenerateSchedule(Loan{Principal: dec("600"), AnnualRatePercent: dec("6"), Method: MethodFixed, TermMonths: 3})
	require.NoError(t, err)
	assert.Nil(t, noStart.Entries[0].DueDate)
}

func TestValidateTerms(t *testing.T) {
	valid := Loan{Principal: dec("1000"), AnnualRatePercent: dec("12"), Method: MethodFixed, TermMonths: 12}
	assert.NoError(t, ValidateTerms(valid))

	balloon := valid
	balloon.Method = "balloon"
	assert.ErrorIs(t, ValidateTerms(balloon), ErrInvalidLoanTerms)

	noTerm := valid
	noTerm.TermMonths = 0
	assert.ErrorIs(t, ValidateTerms(noTerm), ErrInvalidLoanTerms)

	longest := valid
	longest.TermMonths = MaxTermMonths
	assert.NoError(t, ValidateTerms(longest))

	tooLong := valid
	tooLong.TermMonths = MaxTermMonths + 1
	assert.ErrorIs(t, ValidateTerms(tooLong), ErrInvalidLoanTerms)
}
