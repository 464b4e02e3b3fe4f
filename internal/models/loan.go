package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/amortization"
	"gorm.io/gorm"
)

// Loan represents a loan issued to a member
type Loan struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Reference    uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"reference"`
	MemberID     uint            `gorm:"not null;index" json:"member_id"`
	Principal    decimal.Decimal `gorm:"column:amount;type:decimal(15,2);not null" json:"amount"`
	InterestRate decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"interest_rate"`
	LoanType     string          `gorm:"not null" json:"loan_type"`
	TermMonths   int             `gorm:"not null" json:"term_months"`
	Status       string          `gorm:"default:active;not null;index" json:"status"`
	StartDate    time.Time       `gorm:"not null;index" json:"start_date"`
	EndDate      *time.Time      `json:"end_date"`
	Description  *string         `json:"description"`
	PaidAt       *time.Time      `json:"paid_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Associations
	Member   Member        `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Payments []LoanPayment `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// BeforeCreate hook for setting defaults
func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.Reference == uuid.Nil {
		l.Reference = uuid.New()
	}
	if l.Status == "" {
		l.Status = LoanStatusActive
	}
	return nil
}

// Loan status constants
const (
	LoanStatusActive       = "active"
	LoanStatusPaid         = "paid"
	LoanStatusDefaulted    = "defaulted"
	LoanStatusRestructured = "restructured"
)

// IsValidLoanStatus reports whether s is a known loan status
func IsValidLoanStatus(s string) bool {
	switch s {
	case LoanStatusActive, LoanStatusPaid, LoanStatusDefaulted, LoanStatusRestructured:
		return true
	}
	return false
}

// MayPayOff returns true if the loan can be marked as paid
func (l *Loan) MayPayOff() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusDefaulted
}

// MayDefault returns true if the loan can be marked as defaulted
func (l *Loan) MayDefault() bool {
	return l.Status == LoanStatusActive
}

// MayRestructure returns true if the loan can be restructured
func (l *Loan) MayRestructure() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusDefaulted
}

// MayReactivate returns true if a defaulted or settled loan can go back to active
func (l *Loan) MayReactivate() bool {
	return l.Status == LoanStatusDefaulted || l.Status == LoanStatusPaid
}

// Terms returns the loan as the amortization engine sees it
func (l *Loan) Terms() amortization.Loan {
	return amortization.Loan{
		ID:                l.ID,
		Principal:         l.Principal,
		AnnualRatePercent: l.InterestRate,
		Method:            l.LoanType,
		TermMonths:        l.TermMonths,
		StartDate:         l.StartDate,
	}
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID           uint            `json:"id"`
	Reference    string          `json:"reference"`
	MemberID     uint            `json:"member_id"`
	Amount       float64         `json:"amount"`
	InterestRate float64         `json:"interest_rate"`
	LoanType     string          `json:"loan_type"`
	TermMonths   int             `json:"term_months"`
	Status       string          `json:"status"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      *time.Time      `json:"end_date"`
	Description  string          `json:"description"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	Member       *MemberResponse `json:"member,omitempty"`
}

// ToResponse converts Loan to LoanResponse
func (l *Loan) ToResponse() LoanResponse {
	resp := LoanResponse{
		ID:           l.ID,
		Reference:    l.Reference.String(),
		MemberID:     l.MemberID,
		Amount:       Money(l.Principal),
		InterestRate: l.InterestRate.InexactFloat64(),
		LoanType:     l.LoanType,
		TermMonths:   l.TermMonths,
		Status:       l.Status,
		StartDate:    l.StartDate,
		EndDate:      l.EndDate,
		Description:  stringValue(l.Description),
		PaidAt:       l.PaidAt,
	}
	if l.Member.ID != 0 {
		m := l.Member.ToResponse()
		resp.Member = &m
	}
	return resp
}

// ScheduleEntryResponse is one row of a repayment schedule, rounded to cents
type ScheduleEntryResponse struct {
	Period           int        `json:"month"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Payment          float64    `json:"payment"`
	Principal        float64    `json:"principal_paid"`
	Interest         float64    `json:"interest_paid"`
	CumulativePaid   float64    `json:"total_paid"`
	RemainingBalance float64    `json:"remaining_balance"`
}

// ScheduleResponse is the JSON format of a computed schedule
type ScheduleResponse struct {
	Schedule       []ScheduleEntryResponse `json:"schedule"`
	TotalPayment   float64                 `json:"total_payment"`
	TotalInterest  float64                 `json:"total_interest"`
	MonthlyPayment float64                 `json:"monthly_payment"`
}

// NewScheduleResponse rounds a schedule for presentation
func NewScheduleResponse(s amortization.Schedule) ScheduleResponse {
	resp := ScheduleResponse{
		Schedule:       make([]ScheduleEntryResponse, 0, len(s.Entries)),
		TotalPayment:   Money(s.TotalPayment),
		TotalInterest:  Money(s.TotalInterest),
		MonthlyPayment: Money(s.MonthlyPayment),
	}
	for _, e := range s.Entries {
		resp.Schedule = append(resp.Schedule, ScheduleEntryResponse{
			Period:           e.Period,
			DueDate:          e.DueDate,
			Payment:          Money(e.Payment),
			Principal:        Money(e.Principal),
			Interest:         Money(e.Interest),
			CumulativePaid:   Money(e.CumulativePaid),
			RemainingBalance: Money(e.RemainingBalance),
		})
	}
	return resp
}

// LoanTotalsResponse is the JSON format of a loan's payment totals
type LoanTotalsResponse struct {
	TotalPaid        float64 `json:"total_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
	IsFullyPaid      bool    `json:"is_fully_paid"`
}

// NewLoanTotalsResponse rounds aggregated totals for presentation
func NewLoanTotalsResponse(t amortization.Totals) LoanTotalsResponse {
	return LoanTotalsResponse{
		TotalPaid:        Money(t.TotalPaid),
		RemainingBalance: Money(t.RemainingBalance),
		IsFullyPaid:      t.IsFullyPaid,
	}
}
