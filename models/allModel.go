package models

import (
	"log"

	"github.com/edspark/schoolhub_backend/config"
)

// MigrateTable runs AutoMigrate for every model. Parent tables are listed
// before their children so fresh databases come up in dependency order.
func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&School{},
		&User{},
		&SchoolDataset{},
		&Staff{},
		&Room{},
		&ClassGroup{},
		&Subject{},
		&Student{},
		&TimetableEntry{},
		&Exam{},
		&ExamClass{},
		&ExamResult{},
		&FeeType{},
		&Expense{},
		&Payment{},
		&PaymentItem{},
		&StudentAttendanceSession{},
		&StudentAttendanceRecord{},
		&StaffAttendanceSession{},
		&StaffAttendanceRecord{},
	)
	if err != nil {
		log.Printf("auto migrate failed: %v", err)
	}
}
