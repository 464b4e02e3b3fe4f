// Package amortization computes loan repayment schedules and derives payoff
// status from a loan's payment history. Everything here is pure: no I/O, no
// shared state, safe to call from concurrent requests.
package amortization

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Repayment methods
const (
	MethodFixed    = "fixed"
	MethodReducing = "reducing"
)

// internalPlaces bounds the scale of intermediate products so long terms do
// not grow decimal digits without limit.
const internalPlaces = 16

// MaxTermMonths is the longest term the engine schedules (50 years).
const MaxTermMonths = 600

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
	cent    = decimal.New(1, -2)
)

// Loan holds the terms the engine needs. StartDate is optional; when set,
// each entry carries its due date.
type Loan struct {
	ID                uint
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	Method            string
	TermMonths        int
	StartDate         time.Time
}

// Entry is one month of a repayment schedule.
type Entry struct {
	Period           int             `json:"period"`
	DueDate          *time.Time      `json:"due_date,omitempty"`
	Payment          decimal.Decimal `json:"payment"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	CumulativePaid   decimal.Decimal `json:"cumulative_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// Schedule is the full month-by-month plan for a loan.
type Schedule struct {
	Entries        []Entry         `json:"entries"`
	TotalPayment   decimal.Decimal `json:"total_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}

// IsEmpty reports whether the schedule has no entries (unsupported method).
func (s Schedule) IsEmpty() bool {
	return len(s.Entries) == 0
}

// GenerateSchedule builds the repayment schedule for a loan.
//
// fixed: interest is charged on the original principal every month and the
// principal is split evenly (flat rate).
// reducing: level annuity payment, interest on the outstanding balance.
// A zero rate falls back to principal/term with no interest.
//
// An unrecognised method yields an empty schedule and no error; callers
// must check IsEmpty before relying on MonthlyPayment.
func GenerateSchedule(loan Loan) (Schedule, error) {
	if err := validateAmounts(loan); err != nil {
		return Schedule{}, err
	}

	monthlyRate := loan.AnnualRatePercent.Div(hundred).Div(twelve)

	var entries []Entry
	switch loan.Method {
	case MethodFixed:
		entries = fixedEntries(loan, monthlyRate)
	case MethodReducing:
		entries = reducingEntries(loan, monthlyRate)
	default:
		return Schedule{Entries: []Entry{}}, nil
	}

	schedule := Schedule{Entries: entries}
	for _, e := range entries {
		schedule.TotalPayment = schedule.TotalPayment.Add(e.Payment)
		schedule.TotalInterest = schedule.TotalInterest.Add(e.Interest)
	}
	schedule.MonthlyPayment = entries[0].Payment
	return schedule, nil
}

// ValidateTerms is the origination check: amounts must be valid and the
// method must be one the engine can schedule.
func ValidateTerms(loan Loan) error {
	if err := validateAmounts(loan); err != nil {
		return err
	}
	if loan.Method != MethodFixed && loan.Method != MethodReducing {
		return fmt.Errorf("%w: method must be %q or %q, got %q", ErrInvalidLoanTerms, MethodFixed, MethodReducing, loan.Method)
	}
	return nil
}

// MaturityDate returns the date the last installment falls due.
func MaturityDate(start time.Time, termMonths int) time.Time {
	return start.AddDate(0, termMonths, 0)
}

func validateAmounts(loan Loan) error {
	if loan.TermMonths < 1 {
		return fmt.Errorf("%w: term must be at least one month, got %d", ErrInvalidLoanTerms, loan.TermMonths)
	}
	if loan.TermMonths > MaxTermMonths {
		return fmt.Errorf("%w: term cannot exceed %d months, got %d", ErrInvalidLoanTerms, MaxTermMonths, loan.TermMonths)
	}
	if !loan.Principal.IsPositive() {
		return fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidLoanTerms, loan.Principal)
	}
	if loan.AnnualRatePercent.IsNegative() {
		return fmt.Errorf("%w: interest rate cannot be negative, got %s", ErrInvalidLoanTerms, loan.AnnualRatePercent)
	}
	return nil
}

func fixedEntries(loan Loan, monthlyRate decimal.Decimal) []Entry {
	n := decimal.NewFromInt(int64(loan.TermMonths))
	monthlyPrincipal := loan.Principal.Div(n)
	monthlyInterest := loan.Principal.Mul(monthlyRate).Round(internalPlaces)
	payment := monthlyPrincipal.Add(monthlyInterest)

	entries := make([]Entry, 0, loan.TermMonths)
	balance := loan.Principal
	for period := 1; period <= loan.TermMonths; period++ {
		balance = balance.Sub(monthlyPrincipal)
		entries = append(entries, newEntry(loan, period, payment, monthlyPrincipal, monthlyInterest, balance))
	}
	return entries
}

func reducingEntries(loan Loan, monthlyRate decimal.Decimal) []Entry {
	n := decimal.NewFromInt(int64(loan.TermMonths))

	// Large growth factors push the principal share of each payment far
	// below the integer digits of the factor, so precision scales with it.
	places := int32(2 * internalPlaces)
	var payment decimal.Decimal
	if monthlyRate.IsZero() {
		payment = loan.Principal.Div(n)
	} else {
		// P * r * (1+r)^n / ((1+r)^n - 1)
		factor := compound(one.Add(monthlyRate), loan.TermMonths)
		places += integerDigits(factor)
		payment = loan.Principal.Mul(monthlyRate).Mul(factor).DivRound(factor.Sub(one), places)
	}

	entries := make([]Entry, 0, loan.TermMonths)
	// balance stays unfloored; interest for the next month is charged on it
	balance := loan.Principal
	for period := 1; period <= loan.TermMonths; period++ {
		var interest, principal decimal.Decimal
		if period == loan.TermMonths && !monthlyRate.IsZero() {
			// the last installment retires whatever is left
			principal = balance
			interest = payment.Sub(principal)
		} else {
			interest = balance.Mul(monthlyRate).Round(places)
			principal = payment.Sub(interest)
		}
		balance = balance.Sub(principal)
		entries = append(entries, newEntry(loan, period, payment, principal, interest, balance))
	}
	return entries
}

func integerDigits(d decimal.Decimal) int32 {
	return int32(len(d.Abs().Truncate(0).String()))
}

func newEntry(loan Loan, period int, payment, principal, interest, balance decimal.Decimal) Entry {
	entry := Entry{
		Period:           period,
		Payment:          payment,
		Principal:        principal,
		Interest:         interest,
		CumulativePaid:   payment.Mul(decimal.NewFromInt(int64(period))),
		RemainingBalance: presentedBalance(balance, period == loan.TermMonths),
	}
	if !loan.StartDate.IsZero() {
		due := loan.StartDate.AddDate(0, period, 0)
		entry.DueDate = &due
	}
	return entry
}

// presentedBalance floors the balance at zero and clears sub-cent residue
// left on the final period by repeating decimals.
func presentedBalance(balance decimal.Decimal, final bool) decimal.Decimal {
	if balance.IsNegative() {
		return decimal.Zero
	}
	if final && balance.LessThan(cent) {
		return decimal.Zero
	}
	return balance
}

func compound(base decimal.Decimal, periods int) decimal.Decimal {
	result := one
	for i := 0; i < periods; i++ {
		result = result.Mul(base).Round(2 * internalPlaces)
	}
	return result
}
