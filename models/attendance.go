package models

import (
	"time"
)

// Attendance sessions are recreated fresh on every import; the session id
// is a surrogate and never part of the external contract. The visible
// identity of a cell is (date, class_id, student_id) or (date, staff_id).
type StudentAttendanceSession struct {
	ID        string    `gorm:"primary_key;size:36" json:"id"`
	SchoolId  string    `gorm:"index;size:36;not null" json:"school_id"`
	Date      string    `gorm:"index;size:32;not null" json:"date"`
	ClassId   string    `gorm:"index;size:64;not null" json:"class_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type StudentAttendanceRecord struct {
	ID        int              `gorm:"primary_key" json:"id"`
	SchoolId  string           `gorm:"index;size:36;not null" json:"school_id"`
	SessionId string           `gorm:"index;size:36;not null" json:"session_id"`
	StudentId string           `gorm:"size:64;not null" json:"student_id"`
	Status    AttendanceStatus `gorm:"size:32;default:'present'" json:"status"`
	Remark    string           `gorm:"size:255" json:"remark"`
}

type StaffAttendanceSession struct {
	ID        string    `gorm:"primary_key;size:36" json:"id"`
	SchoolId  string    `gorm:"index;size:36;not null" json:"school_id"`
	Date      string    `gorm:"index;size:32;not null" json:"date"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type StaffAttendanceRecord struct {
	ID        int              `gorm:"primary_key" json:"id"`
	SchoolId  string           `gorm:"index;size:36;not null" json:"school_id"`
	SessionId string           `gorm:"index;size:36;not null" json:"session_id"`
	StaffId   string           `gorm:"size:64;not null" json:"staff_id"`
	Status    AttendanceStatus `gorm:"size:32;default:'present'" json:"status"`
	CheckIn   string           `gorm:"size:16" json:"check_in"`
	CheckOut  string           `gorm:"size:16" json:"check_out"`
	Remark    string           `gorm:"size:255" json:"remark"`
}
