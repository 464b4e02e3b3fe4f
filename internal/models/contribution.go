package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contribution is a member's share-capital or welfare contribution
type Contribution struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	MemberID  uint            `gorm:"not null;index" json:"member_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Reason    *string         `gorm:"type:text" json:"reason"`
	Timestamp time.Time       `gorm:"not null;index" json:"timestamp"`

	// Associations
	Member Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// TableName specifies the table name for Contribution
func (Contribution) TableName() string {
	return "contributions"
}

// ContributionResponse is the JSON response format for contributions
type ContributionResponse struct {
	ID        uint            `json:"id"`
	MemberID  uint            `json:"member_id"`
	Amount    float64         `json:"amount"`
	Reason    string          `json:"reason"`
	Timestamp time.Time       `json:"timestamp"`
	Member    *MemberResponse `json:"member,omitempty"`
}

// ToResponse converts Contribution to ContributionResponse
func (c *Contribution) ToResponse() ContributionResponse {
	resp := ContributionResponse{
		ID:        c.ID,
		MemberID:  c.MemberID,
		Amount:    Money(c.Amount),
		Reason:    stringValue(c.Reason),
		Timestamp: c.Timestamp,
	}
	if c.Member.ID != 0 {
		m := c.Member.ToResponse()
		resp.Member = &m
	}
	return resp
}
