package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeType is exchanged under the dataset key "feeStructures".
type FeeType struct {
	ID        string          `gorm:"primary_key;size:64" json:"id"`
	SchoolId  string          `gorm:"index;size:36;not null" json:"school_id"`
	Name      string          `gorm:"size:255" json:"name"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Frequency FeeFrequency    `gorm:"size:32;default:'one-time'" json:"frequency"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Expense struct {
	ID          string          `gorm:"primary_key;size:64" json:"id"`
	SchoolId    string          `gorm:"index;size:36;not null" json:"school_id"`
	Category    ExpenseCategory `gorm:"size:32;default:'other'" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Date        string          `gorm:"size:32" json:"date"`
	Status      ExpenseStatus   `gorm:"size:32;default:'paid'" json:"status"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Payment struct {
	ID          string          `gorm:"primary_key;size:64" json:"id"`
	SchoolId    string          `gorm:"index;size:36;not null" json:"school_id"`
	StudentId   string          `gorm:"index;size:64" json:"student_id"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Date        string          `gorm:"size:32" json:"date"`
	Method      PaymentMethod   `gorm:"size:32;default:'cash'" json:"method"`
	Reference   string          `gorm:"size:255" json:"reference"`
	Status      PaymentStatus   `gorm:"size:32;default:'completed'" json:"status"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentItem lines are identified by (payment_id, line_no). Every payment
// keeps at least one line after import; the importer synthesizes one when
// the source document has no structured items.
type PaymentItem struct {
	SchoolId    string          `gorm:"index;size:36;not null" json:"school_id"`
	PaymentId   string          `gorm:"primaryKey;size:64" json:"payment_id"`
	LineNo      int             `gorm:"primaryKey" json:"line_no"`
	FeeTypeId   string          `gorm:"size:64" json:"fee_type_id"`
	Description string          `gorm:"size:255" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
}
