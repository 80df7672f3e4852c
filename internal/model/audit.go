package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateUser          = "CREATE_USER"
	ActionConnectMoneybird    = "CONNECT_MONEYBIRD"
	ActionDisconnectMoneybird = "DISCONNECT_MONEYBIRD"
)

// AuditLog tracks who changed what on their account and when
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for system actions
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
