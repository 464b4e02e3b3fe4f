package amortization

import (
	"fmt"
	"strings"
)

// Member is the borrower as addressed in reminder text.
type Member struct {
	ID    uint
	Name  string
	Phone string
}

// ComposeReminder renders the payment reminder for a loan. A non-blank
// override is returned unchanged; broadcasts use it to replace the
// computed text.
func ComposeReminder(loan Loan, member Member, totals Totals, schedule Schedule, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s, this is a reminder for your loan payment.\n\n", member.Name)
	fmt.Fprintf(&b, "Loan ID: %d\n", loan.ID)
	fmt.Fprintf(&b, "Loan Amount: %s\n", loan.Principal.StringFixed(2))
	fmt.Fprintf(&b, "Total Paid: %s\n", totals.TotalPaid.StringFixed(2))
	fmt.Fprintf(&b, "Remaining Balance: %s\n", totals.RemainingBalance.StringFixed(2))
	fmt.Fprintf(&b, "Suggested Payment: %s\n\n", schedule.MonthlyPayment.StringFixed(2))
	b.WriteString("Please make your payment on time to maintain a good credit record.")
	return b.String()
}
