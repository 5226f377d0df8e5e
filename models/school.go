package models

import (
	"context"
	"time"

	"github.com/edspark/schoolhub_backend/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// School is the tenant. Every domain row carries SchoolId and the tenant
// guard plugin scopes all statements to it.
type School struct {
	ID        uuid.UUID `gorm:"primary_key;type:char(36)" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *School) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type NewSchool struct {
	Name string `json:"name" binding:"required"`
}

// CreateSchool provisions a tenant together with its empty dataset record
// (version 1, empty collections) in one transaction.
func CreateSchool(ctx context.Context, input *NewSchool, datasetKey string) (*School, error) {
	db := config.GetDB()

	school := School{
		Name: input.Name,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&school).Error; err != nil {
			return err
		}
		dataset := SchoolDataset{
			SchoolId: school.ID.String(),
			Key:      datasetKey,
			Version:  1,
			Data:     []byte(EmptyDatasetJSON),
		}
		return tx.Create(&dataset).Error
	})
	if err != nil {
		return nil, err
	}
	return &school, nil
}

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Name      string    `gorm:"size:255" json:"name"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      UserRole  `gorm:"type:enum('A','S');default:'S'" json:"role"`
	SchoolId  string    `gorm:"index" json:"school_id"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
