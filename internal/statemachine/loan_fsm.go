package statemachine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/sjperalta/sacco-api/internal/models"
)

// ErrInvalidTransition is returned when the loan's current status does not
// allow the requested event
var ErrInvalidTransition = errors.New("invalid loan status transition")

// Loan lifecycle events
const (
	EventPayOff      = "pay_off"
	EventDefault     = "default"
	EventRestructure = "restructure"
	EventReactivate  = "reactivate"
)

// LoanFSM wraps a loan with its state machine
type LoanFSM struct {
	loan *models.Loan
	fsm  *fsm.FSM
	now  func() time.Time
}

// NewLoanFSM creates a new loan state machine
func NewLoanFSM(loan *models.Loan) *LoanFSM {
	lf := &LoanFSM{
		loan: loan,
		now:  time.Now,
	}

	lf.fsm = fsm.NewFSM(
		loan.Status,
		fsm.Events{
			// active/defaulted → paid
			{Name: EventPayOff, Src: []string{models.LoanStatusActive, models.LoanStatusDefaulted}, Dst: models.LoanStatusPaid},

			// active → defaulted
			{Name: EventDefault, Src: []string{models.LoanStatusActive}, Dst: models.LoanStatusDefaulted},

			// active/defaulted → restructured
			{Name: EventRestructure, Src: []string{models.LoanStatusActive, models.LoanStatusDefaulted}, Dst: models.LoanStatusRestructured},

			// defaulted/paid → active
			{Name: EventReactivate, Src: []string{models.LoanStatusDefaulted, models.LoanStatusPaid}, Dst: models.LoanStatusActive},
		},
		fsm.Callbacks{
			"enter_" + models.LoanStatusPaid: func(_ context.Context, _ *fsm.Event) {
				paidAt := lf.now()
				lf.loan.PaidAt = &paidAt
			},
			"enter_" + models.LoanStatusActive: func(_ context.Context, _ *fsm.Event) {
				lf.loan.PaidAt = nil
			},
		},
	)

	return lf
}

// PayOff marks the loan as fully repaid
func (l *LoanFSM) PayOff(ctx context.Context) error {
	if !l.loan.MayPayOff() {
		return fmt.Errorf("%w: loan cannot be paid off in status %s", ErrInvalidTransition, l.loan.Status)
	}
	return l.fire(ctx, EventPayOff)
}

// Default marks an active loan as defaulted
func (l *LoanFSM) Default(ctx context.Context) error {
	if !l.loan.MayDefault() {
		return fmt.Errorf("%w: loan cannot be defaulted in status %s", ErrInvalidTransition, l.loan.Status)
	}
	return l.fire(ctx, EventDefault)
}

// Restructure marks the loan as restructured
func (l *LoanFSM) Restructure(ctx context.Context) error {
	if !l.loan.MayRestructure() {
		return fmt.Errorf("%w: loan cannot be restructured in status %s", ErrInvalidTransition, l.loan.Status)
	}
	return l.fire(ctx, EventRestructure)
}

// Reactivate returns a defaulted or paid loan to active
func (l *LoanFSM) Reactivate(ctx context.Context) error {
	if !l.loan.MayReactivate() {
		return fmt.Errorf("%w: loan cannot be reactivated in status %s", ErrInvalidTransition, l.loan.Status)
	}
	return l.fire(ctx, EventReactivate)
}

// TransitionTo fires whichever event leads to the target status
func (l *LoanFSM) TransitionTo(ctx context.Context, status string) error {
	switch status {
	case models.LoanStatusPaid:
		return l.PayOff(ctx)
	case models.LoanStatusDefaulted:
		return l.Default(ctx)
	case models.LoanStatusRestructured:
		return l.Restructure(ctx)
	case models.LoanStatusActive:
		return l.Reactivate(ctx)
	}
	return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
}

func (l *LoanFSM) fire(ctx context.Context, event string) error {
	if err := l.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("failed to %s loan: %w", event, err)
	}
	l.loan.Status = l.fsm.Current()
	return nil
}

// Current returns the current state
func (l *LoanFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if a transition is possible
func (l *LoanFSM) Can(event string) bool {
	return l.fsm.Can(event)
}
