package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a member ledger entry: savings movements plus the
// disbursement and repayment side effects of loans
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	MemberID    uint            `gorm:"not null;index" json:"member_id"`
	LoanID      *uint           `gorm:"index" json:"loan_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Type        string          `gorm:"not null;index" json:"type"`
	Description *string         `json:"description"`
	Timestamp   time.Time       `gorm:"not null;index" json:"timestamp"`

	// Associations
	Member Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// Transaction type constants
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeLoan       = "loan"
	TransactionTypeRepayment  = "repayment"
)

// IsValidTransactionType reports whether t is a known transaction type
func IsValidTransactionType(t string) bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeLoan, TransactionTypeRepayment:
		return true
	}
	return false
}

// TransactionResponse is the JSON response format for transactions
type TransactionResponse struct {
	ID          uint      `json:"id"`
	MemberID    uint      `json:"member_id"`
	LoanID      *uint     `json:"loan_id,omitempty"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	MemberName  string    `json:"member_name,omitempty"`
	MemberPhone string    `json:"member_phone,omitempty"`
}

// ToResponse converts Transaction to TransactionResponse
func (t *Transaction) ToResponse() TransactionResponse {
	resp := TransactionResponse{
		ID:          t.ID,
		MemberID:    t.MemberID,
		LoanID:      t.LoanID,
		Amount:      Money(t.Amount),
		Type:        t.Type,
		Description: stringValue(t.Description),
		Timestamp:   t.Timestamp,
	}
	if t.Member.ID != 0 {
		resp.MemberName = t.Member.Name
		resp.MemberPhone = t.Member.Phone
	}
	return resp
}
