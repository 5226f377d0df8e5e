package models

import (
	"time"
)

type Room struct {
	ID        string    `gorm:"primary_key;size:64" json:"id"`
	SchoolId  string    `gorm:"index;size:36;not null" json:"school_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Type      RoomType  `gorm:"size:32;default:'classroom'" json:"type"`
	Capacity  int       `gorm:"default:0" json:"capacity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ClassGroup is exchanged under the dataset key "classes".
type ClassGroup struct {
	ID         string     `gorm:"primary_key;size:64" json:"id"`
	SchoolId   string     `gorm:"index;size:36;not null" json:"school_id"`
	Name       string     `gorm:"size:255" json:"name"`
	Level      string     `gorm:"size:64" json:"level"`
	Curriculum Curriculum `gorm:"size:32;default:'national'" json:"curriculum"`
	TeacherId  string     `gorm:"size:64" json:"teacher_id"`
	RoomId     string     `gorm:"size:64" json:"room_id"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type Subject struct {
	ID        string      `gorm:"primary_key;size:64" json:"id"`
	SchoolId  string      `gorm:"index;size:36;not null" json:"school_id"`
	Name      string      `gorm:"size:255" json:"name"`
	Code      string      `gorm:"size:64" json:"code"`
	Type      SubjectType `gorm:"size:32;default:'core'" json:"type"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type TimetableEntry struct {
	ID        string    `gorm:"primary_key;size:64" json:"id"`
	SchoolId  string    `gorm:"index;size:36;not null" json:"school_id"`
	ClassId   string    `gorm:"index;size:64" json:"class_id"`
	SubjectId string    `gorm:"size:64" json:"subject_id"`
	StaffId   string    `gorm:"size:64" json:"staff_id"`
	RoomId    string    `gorm:"size:64" json:"room_id"`
	Day       Weekday   `gorm:"size:16;default:'monday'" json:"day"`
	StartTime string    `gorm:"size:16" json:"start_time"`
	EndTime   string    `gorm:"size:16" json:"end_time"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
