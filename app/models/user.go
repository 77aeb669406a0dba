package models

import "time"

const (
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

// User is owned by the account system; the monetization engine only reads it
// for author checks and gateway customer linkage.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"type:varchar(50);not null;unique" json:"username"`
	Email             string    `gorm:"type:varchar(191);not null;unique" json:"email"`
	Status            string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	IsCreator         bool      `gorm:"default:false;index" json:"is_creator"`
	GatewayCustomerID string    `gorm:"type:varchar(191);index" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
