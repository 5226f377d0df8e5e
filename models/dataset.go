package models

import (
	"time"
)

// SchoolDataset is the version-store row behind the sync protocol: one row
// per (school, key) holding the optimistic-concurrency version and the last
// pushed document verbatim. The snapshot is bookkeeping for conflict
// responses; the live relational tables stay the source of truth for pull.
type SchoolDataset struct {
	ID        int       `gorm:"primary_key" json:"id"`
	SchoolId  string    `gorm:"uniqueIndex:idx_school_dataset_key;size:36;not null" json:"school_id"`
	Key       string    `gorm:"uniqueIndex:idx_school_dataset_key;size:64;not null" json:"key"`
	Version   int       `gorm:"not null;default:0" json:"version"`
	Data      []byte    `gorm:"type:longblob" json:"data"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// EmptyDatasetJSON seeds a freshly provisioned tenant. Shape mirrors
// datasync.Document with every collection empty.
const EmptyDatasetJSON = `{"students":[],"staff":[],"expenses":[],"exams":[],"marks":[],"timetable":[],"classes":[],"rooms":[],"subjects":[],"feeStructures":[],"payments":[],"attendance":{},"staffAttendance":{}}`
