package models

import (
	"time"
)

// Student ids are supplied by the client dataset, not generated here.
type Student struct {
	ID            string       `gorm:"primary_key;size:64" json:"id"`
	SchoolId      string       `gorm:"index;size:36;not null" json:"school_id"`
	Name          string       `gorm:"size:255" json:"name"`
	Gender        string       `gorm:"size:32" json:"gender"`
	ClassId       string       `gorm:"index;size:64" json:"class_id"`
	GuardianName  string       `gorm:"size:255" json:"guardian_name"`
	GuardianPhone string       `gorm:"size:64" json:"guardian_phone"`
	Address       string       `gorm:"type:text" json:"address"`
	EnrolledAt    string       `gorm:"size:32" json:"enrolled_at"`
	Status        PersonStatus `gorm:"size:32;default:'active'" json:"status"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}
