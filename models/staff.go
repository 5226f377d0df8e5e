package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Staff struct {
	ID        string          `gorm:"primary_key;size:64" json:"id"`
	SchoolId  string          `gorm:"index;size:36;not null" json:"school_id"`
	Name      string          `gorm:"size:255" json:"name"`
	Role      string          `gorm:"size:128" json:"role"`
	Phone     string          `gorm:"size:64" json:"phone"`
	Email     string          `gorm:"size:255" json:"email"`
	Salary    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"salary"`
	HiredAt   string          `gorm:"size:32" json:"hired_at"`
	Status    PersonStatus    `gorm:"size:32;default:'active'" json:"status"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
