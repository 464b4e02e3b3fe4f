package models

import (
	"time"
)

// AuditLog represents a back-office audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   uint      `gorm:"not null;index" json:"actor_id"`
	ActorRole string    `gorm:"size:20" json:"actor_role"`
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, UPDATE, PAYMENT, STATUS, BROADCAST
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Loan, Member, Transaction, Message
	EntityID  uint      `json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit action constants
const (
	AuditActionCreate    = "CREATE"
	AuditActionUpdate    = "UPDATE"
	AuditActionDelete    = "DELETE"
	AuditActionPayment   = "PAYMENT"
	AuditActionStatus    = "STATUS"
	AuditActionBroadcast = "BROADCAST"
)

// Actor identifies who performed an audited action
type Actor struct {
	ID        uint
	Role      string
	IP        string
	UserAgent string
}

// SystemActor is recorded for work started by the scheduler or the CLI
var SystemActor = Actor{Role: "system", UserAgent: "saccoctl"}
