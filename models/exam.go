package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Exam struct {
	ID         string          `gorm:"primary_key;size:64" json:"id"`
	SchoolId   string          `gorm:"index;size:36;not null" json:"school_id"`
	Name       string          `gorm:"size:255" json:"name"`
	SubjectId  string          `gorm:"size:64" json:"subject_id"`
	Date       string          `gorm:"size:32" json:"date"`
	TotalMarks decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"total_marks"`
	Term       string          `gorm:"size:64" json:"term"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ExamClass is the exam x class junction; no id of its own.
type ExamClass struct {
	SchoolId string `gorm:"index;size:36;not null" json:"school_id"`
	ExamId   string `gorm:"primaryKey;size:64" json:"exam_id"`
	ClassId  string `gorm:"primaryKey;size:64" json:"class_id"`
}

// ExamResult is exchanged under the dataset key "marks".
type ExamResult struct {
	ID        string          `gorm:"primary_key;size:64" json:"id"`
	SchoolId  string          `gorm:"index;size:36;not null" json:"school_id"`
	ExamId    string          `gorm:"index;size:64" json:"exam_id"`
	StudentId string          `gorm:"index;size:64" json:"student_id"`
	Marks     decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"marks"`
	Grade     string          `gorm:"size:16" json:"grade"`
	Remark    string          `gorm:"size:255" json:"remark"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
