package statemachine

import (
	"context"
	"testing"

	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanFSM_PayOffSetsPaidAt(t *testing.T) {
	loan := &models.Loan{Status: models.LoanStatusActive}
	lf := NewLoanFSM(loan)

	require.NoError(t, lf.PayOff(context.Background()))
	assert.Equal(t, models.LoanStatusPaid, loan.Status)
	assert.NotNil(t, loan.PaidAt)
}

func TestLoanFSM_PayOffTwiceFails(t *testing.T) {
	loan := &models.Loan{Status: models.LoanStatusActive}
	require.NoError(t, NewLoanFSM(loan).PayOff(context.Background()))

	err := NewLoanFSM(loan).PayOff(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.LoanStatusPaid, loan.Status)
}

func TestLoanFSM_ReactivateClearsPaidAt(t *testing.T) {
	loan := &models.Loan{Status: models.LoanStatusActive}
	require.NoError(t, NewLoanFSM(loan).PayOff(context.Background()))

	require.NoError(t, NewLoanFSM(loan).Reactivate(context.Background()))
	assert.Equal(t, models.LoanStatusActive, loan.Status)
	assert.Nil(t, loan.PaidAt)
}

func TestLoanFSM_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"active to defaulted", models.LoanStatusActive, models.LoanStatusDefaulted, false},
		{"defaulted to paid", models.LoanStatusDefaulted, models.LoanStatusPaid, false},
		{"defaulted to restructured", models.LoanStatusDefaulted, models.LoanStatusRestructured, false},
		{"defaulted to active", models.LoanStatusDefaulted, models.LoanStatusActive, false},
		{"paid to defaulted", models.LoanStatusPaid, models.LoanStatusDefaulted, true},
		{"restructured to active", models.LoanStatusRestructured, models.LoanStatusActive, true},
		{"active to active", models.LoanStatusActive, models.LoanStatusActive, true},
		{"unknown target", models.LoanStatusActive, "closed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := &models.Loan{Status: tt.from}
			err := NewLoanFSM(loan).TransitionTo(context.Background(), tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, loan.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, loan.Status)
		})
	}
}
