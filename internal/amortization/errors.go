package amortization

import "errors"

// ErrInvalidLoanTerms is returned when a loan cannot produce a schedule:
// non-positive principal, a term shorter than one month, a negative rate,
// or (at origination) an unsupported repayment method.
var ErrInvalidLoanTerms = errors.New("invalid loan terms")
