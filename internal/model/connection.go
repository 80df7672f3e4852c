package model

import (
	"time"

	"github.com/google/uuid"
)

// MoneybirdConnection stores the accounting API credential of one user.
// AdministrationID may be empty until an administration is picked.
type MoneybirdConnection struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User               User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AccessToken        string    `gorm:"type:text;not null" json:"-"`
	AdministrationID   string    `gorm:"type:varchar(50)" json:"administration_id"`
	AdministrationName string    `gorm:"type:varchar(255)" json:"administration_name"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
