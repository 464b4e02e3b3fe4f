package models

import (
	"time"
)

// Message is the outbound message log
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MemberID   *uint     `gorm:"index" json:"member_id"`
	Recipient  string    `gorm:"not null" json:"recipient"`
	Body       string    `gorm:"type:text;not null" json:"message"`
	Channel    string    `gorm:"default:whatsapp;not null" json:"channel"`
	ExternalID *string   `json:"external_id"`
	BatchID    *string   `gorm:"index" json:"batch_id"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`

	// Associations
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "messages"
}

// Channel constants
const (
	ChannelWhatsApp = "whatsapp"
	ChannelManual   = "manual"
)

// MessageResponse is the JSON response format for messages
type MessageResponse struct {
	ID         uint            `json:"id"`
	MemberID   *uint           `json:"member_id"`
	Recipient  string          `json:"recipient"`
	Message    string          `json:"message"`
	Channel    string          `json:"channel"`
	ExternalID *string         `json:"external_id,omitempty"`
	BatchID    *string         `json:"batch_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Member     *MemberResponse `json:"member,omitempty"`
}

// ToResponse converts Message to MessageResponse
func (m *Message) ToResponse() MessageResponse {
	resp := MessageResponse{
		ID:         m.ID,
		MemberID:   m.MemberID,
		Recipient:  m.Recipient,
		Message:    m.Body,
		Channel:    m.Channel,
		ExternalID: m.ExternalID,
		BatchID:    m.BatchID,
		Timestamp:  m.Timestamp,
	}
	if m.Member != nil && m.Member.ID != 0 {
		member := m.Member.ToResponse()
		resp.Member = &member
	}
	return resp
}
