package models

import (
	"time"

	"github.com/sjperalta/sacco-api/internal/amortization"
)

// Member represents a SACCO member
type Member struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null;index" json:"name"`
	Phone      string    `gorm:"not null;uniqueIndex" json:"phone"`
	JoinedDate time.Time `gorm:"not null" json:"joined_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for Member
func (Member) TableName() string {
	return "members"
}

// Addressee returns the member as the reminder composer sees it
func (m *Member) Addressee() amortization.Member {
	return amortization.Member{ID: m.ID, Name: m.Name, Phone: m.Phone}
}

// MemberResponse is the JSON response format for members
type MemberResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	JoinedDate time.Time `json:"joined_date"`
}

// ToResponse converts Member to MemberResponse
func (m *Member) ToResponse() MemberResponse {
	return MemberResponse{
		ID:         m.ID,
		Name:       m.Name,
		Phone:      m.Phone,
		JoinedDate: m.JoinedDate,
	}
}

// MemberSummary aggregates a member's savings and borrowing position
type MemberSummary struct {
	Member             MemberResponse `json:"member"`
	TotalDeposits      float64        `json:"total_deposits"`
	TotalWithdrawals   float64        `json:"total_withdrawals"`
	SavingsBalance     float64        `json:"savings_balance"`
	TotalContributions float64        `json:"total_contributions"`
	ActiveLoans        int            `json:"active_loans"`
	OutstandingBalance float64        `json:"outstanding_balance"`
}
