package datasync

import (
	"context"

	"github.com/edspark/schoolhub_backend/config"
	"github.com/edspark/schoolhub_backend/models"
	"github.com/edspark/schoolhub_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const insertBatchSize = 500

// Import atomically replaces one school's relational state with the
// submitted document. Everything runs in a single transaction: on any
// database error nothing changes.
func Import(ctx context.Context, schoolId string, doc *Document) error {
	db := config.GetDB().WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		return ImportTx(tx, schoolId, doc)
	})
}

// ImportTx is the transactional body of Import, exposed so the push
// handler can run the replace and the version bump in one transaction.
func ImportTx(tx *gorm.DB, schoolId string, doc *Document) error {
	if doc == nil {
		doc = EmptyDocument()
	}
	if err := deleteAll(tx, schoolId); err != nil {
		return err
	}
	return insertAll(tx, schoolId, doc)
}

// deleteAll clears the school's rows, children before parents.
func deleteAll(tx *gorm.DB, schoolId string) error {
	ordered := []any{
		&models.PaymentItem{},
		&models.Payment{},
		&models.ExamResult{},
		&models.ExamClass{},
		&models.Exam{},
		&models.TimetableEntry{},
		&models.StudentAttendanceRecord{},
		&models.StudentAttendanceSession{},
		&models.StaffAttendanceRecord{},
		&models.StaffAttendanceSession{},
		&models.Student{},
		&models.ClassGroup{},
		&models.Room{},
		&models.Subject{},
		&models.Staff{},
		&models.FeeType{},
		&models.Expense{},
	}
	for _, model := range ordered {
		if err := tx.Where("school_id = ?", schoolId).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// insertAll recreates the school's rows, parents before children.
func insertAll(tx *gorm.DB, schoolId string, doc *Document) error {
	if err := insertStaff(tx, schoolId, doc.Staff); err != nil {
		return err
	}
	if err := insertRooms(tx, schoolId, doc.Rooms); err != nil {
		return err
	}
	if err := insertClasses(tx, schoolId, doc.Classes); err != nil {
		return err
	}
	if err := insertSubjects(tx, schoolId, doc.Subjects); err != nil {
		return err
	}
	if err := insertStudents(tx, schoolId, doc.Students); err != nil {
		return err
	}
	if err := insertTimetable(tx, schoolId, doc.Timetable); err != nil {
		return err
	}
	if err := insertExams(tx, schoolId, doc.Exams); err != nil {
		return err
	}
	if err := insertMarks(tx, schoolId, doc.Marks); err != nil {
		return err
	}
	if err := insertFeeTypes(tx, schoolId, doc.FeeStructures); err != nil {
		return err
	}
	if err := insertExpenses(tx, schoolId, doc.Expenses); err != nil {
		return err
	}
	if err := insertPayments(tx, schoolId, doc.Payments); err != nil {
		return err
	}
	if err := insertStudentAttendance(tx, schoolId, doc.Attendance); err != nil {
		return err
	}
	return insertStaffAttendance(tx, schoolId, doc.StaffAttendance)
}

func insertStaff(tx *gorm.DB, schoolId string, recs []StaffRecord) error {
	rows := make([]models.Staff, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.Staff{
			ID:       r.ID,
			SchoolId: schoolId,
			Name:     r.Name,
			Role:     r.Role,
			Phone:    r.Phone,
			Email:    r.Email,
			Salary:   decimal.NewFromFloat(r.Salary),
			HiredAt:  r.HiredAt,
			Status:   models.ParsePersonStatus(r.Status),
		})
	}
	return createInBatches(tx, rows)
}

func insertRooms(tx *gorm.DB, schoolId string, recs []RoomRecord) error {
	rows := make([]models.Room, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.Room{
			ID:       r.ID,
			SchoolId: schoolId,
			Name:     r.Name,
			Type:     models.ParseRoomType(r.Type),
			Capacity: r.Capacity,
		})
	}
	return createInBatches(tx, rows)
}

func insertClasses(tx *gorm.DB, schoolId string, recs []ClassRecord) error {
	rows := make([]models.ClassGroup, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.ClassGroup{
			ID:         r.ID,
			SchoolId:   schoolId,
			Name:       r.Name,
			Level:      r.Level,
			Curriculum: models.ParseCurriculum(r.Curriculum),
			TeacherId:  r.TeacherId,
			RoomId:     r.RoomId,
		})
	}
	return createInBatches(tx, rows)
}

func insertSubjects(tx *gorm.DB, schoolId string, recs []SubjectRecord) error {
	rows := make([]models.Subject, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.Subject{
			ID:       r.ID,
			SchoolId: schoolId,
			Name:     r.Name,
			Code:     r.Code,
			Type:     models.ParseSubjectType(r.Type),
		})
	}
	return createInBatches(tx, rows)
}

func insertStudents(tx *gorm.DB, schoolId string, recs []StudentRecord) error {
	rows := make([]models.Student, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.Student{
			ID:            r.ID,
			SchoolId:      schoolId,
			Name:          r.Name,
			Gender:        r.Gender,
			ClassId:       r.ClassId,
			GuardianName:  r.GuardianName,
			GuardianPhone: r.GuardianPhone,
			Address:       r.Address,
			EnrolledAt:    r.EnrolledAt,
			Status:        models.ParsePersonStatus(r.Status),
		})
	}
	return createInBatches(tx, rows)
}

func insertTimetable(tx *gorm.DB, schoolId string, recs []TimetableRecord) error {
	rows := make([]models.TimetableEntry, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.TimetableEntry{
			ID:        r.ID,
			SchoolId:  schoolId,
			ClassId:   r.ClassId,
			SubjectId: r.SubjectId,
			StaffId:   r.StaffId,
			RoomId:    r.RoomId,
			Day:       models.ParseWeekday(r.Day),
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
		})
	}
	return createInBatches(tx, rows)
}

func insertExams(tx *gorm.DB, schoolId string, recs []ExamRecord) error {
	exams := make([]models.Exam, 0, len(recs))
	var junction []models.ExamClass
	for _, r := range recs {
		exams = append(exams, models.Exam{
			ID:         r.ID,
			SchoolId:   schoolId,
			Name:       r.Name,
			SubjectId:  r.SubjectId,
			Date:       r.Date,
			TotalMarks: decimal.NewFromFloat(r.TotalMarks),
			Term:       r.Term,
		})
		for _, classId := range utils.UniqueSlice(r.Classes) {
			if classId == "" {
				continue
			}
			junction = append(junction, models.ExamClass{
				SchoolId: schoolId,
				ExamId:   r.ID,
				ClassId:  classId,
			})
		}
	}
	if err := createInBatches(tx, exams); err != nil {
		return err
	}
	return createInBatches(tx, junction)
}

func insertMarks(tx *gorm.DB, schoolId string, recs []MarkRecord) error {
	rows := make([]models.ExamResult, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.ExamResult{
			ID:        r.ID,
			SchoolId:  schoolId,
			ExamId:    r.ExamId,
			StudentId: r.StudentId,
			Marks:     decimal.NewFromFloat(r.Marks),
			Grade:     r.Grade,
			Remark:    r.Remark,
		})
	}
	return createInBatches(tx, rows)
}

func insertFeeTypes(tx *gorm.DB, schoolId string, recs []FeeRecord) error {
	rows := make([]models.FeeType, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.FeeType{
			ID:        r.ID,
			SchoolId:  schoolId,
			Name:      r.Name,
			Amount:    decimal.NewFromFloat(r.Amount),
			Frequency: models.ParseFeeFrequency(r.Frequency),
		})
	}
	return createInBatches(tx, rows)
}

func insertExpenses(tx *gorm.DB, schoolId string, recs []ExpenseRecord) error {
	rows := make([]models.Expense, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.Expense{
			ID:          r.ID,
			SchoolId:    schoolId,
			Category:    models.ParseExpenseCategory(r.Category),
			Description: r.Description,
			Amount:      decimal.NewFromFloat(r.Amount),
			Date:        r.Date,
			Status:      models.ParseExpenseStatus(r.Status),
		})
	}
	return createInBatches(tx, rows)
}

func insertPayments(tx *gorm.DB, schoolId string, recs []PaymentRecord) error {
	payments := make([]models.Payment, 0, len(recs))
	var items []models.PaymentItem
	for _, r := range recs {
		payments = append(payments, models.Payment{
			ID:          r.ID,
			SchoolId:    schoolId,
			StudentId:   r.StudentId,
			TotalAmount: decimal.NewFromFloat(r.TotalAmount),
			Date:        r.Date,
			Method:      models.ParsePaymentMethod(r.Method),
			Reference:   r.Reference,
			Status:      models.ParsePaymentStatus(r.Status),
		})
		items = append(items, derivePaymentItems(schoolId, r)...)
	}
	if err := createInBatches(tx, payments); err != nil {
		return err
	}
	return createInBatches(tx, items)
}

// derivePaymentItems picks the first present shape: explicit items, a bare
// fee id list, or neither, in which case a single synthetic line carries
// the payment total. Every payment ends up with at least one line.
func derivePaymentItems(schoolId string, r PaymentRecord) []models.PaymentItem {
	if len(r.Items) > 0 {
		out := make([]models.PaymentItem, 0, len(r.Items))
		used := map[int]bool{}
		next := 1
		for _, it := range r.Items {
			lineNo := it.LineNo
			if lineNo <= 0 || used[lineNo] {
				for used[next] {
					next++
				}
				lineNo = next
			}
			used[lineNo] = true
			description := it.Description
			if description == "" {
				description = "Payment"
			}
			out = append(out, models.PaymentItem{
				SchoolId:    schoolId,
				PaymentId:   r.ID,
				LineNo:      lineNo,
				FeeTypeId:   it.FeeTypeId,
				Description: description,
				Amount:      decimal.NewFromFloat(it.Amount),
			})
		}
		return out
	}
	if len(r.FeeIds) > 0 {
		out := make([]models.PaymentItem, 0, len(r.FeeIds))
		for i, feeId := range r.FeeIds {
			out = append(out, models.PaymentItem{
				SchoolId:    schoolId,
				PaymentId:   r.ID,
				LineNo:      i + 1,
				FeeTypeId:   feeId,
				Description: "Payment",
				Amount:      decimal.Zero,
			})
		}
		return out
	}
	return []models.PaymentItem{{
		SchoolId:    schoolId,
		PaymentId:   r.ID,
		LineNo:      1,
		Description: "Payment",
		Amount:      decimal.NewFromFloat(r.TotalAmount),
	}}
}

func insertStudentAttendance(tx *gorm.DB, schoolId string, att StudentAttendance) error {
	var sessions []models.StudentAttendanceSession
	var records []models.StudentAttendanceRecord
	for date, byClass := range att {
		for classId, byStudent := range byClass {
			// Sessions are recreated fresh each import; their ids are
			// surrogates, never part of the external contract.
			sessionId := uuid.NewString()
			sessions = append(sessions, models.StudentAttendanceSession{
				ID:       sessionId,
				SchoolId: schoolId,
				Date:     date,
				ClassId:  classId,
			})
			for studentId, cell := range byStudent {
				records = append(records, models.StudentAttendanceRecord{
					SchoolId:  schoolId,
					SessionId: sessionId,
					StudentId: studentId,
					Status:    models.ParseAttendanceStatus(cell.Status),
					Remark:    cell.Remark,
				})
			}
		}
	}
	if err := createInBatches(tx, sessions); err != nil {
		return err
	}
	return createInBatches(tx, records)
}

func insertStaffAttendance(tx *gorm.DB, schoolId string, att StaffAttendance) error {
	var sessions []models.StaffAttendanceSession
	var records []models.StaffAttendanceRecord
	for date, byStaff := range att {
		sessionId := uuid.NewString()
		sessions = append(sessions, models.StaffAttendanceSession{
			ID:       sessionId,
			SchoolId: schoolId,
			Date:     date,
		})
		for staffId, cell := range byStaff {
			records = append(records, models.StaffAttendanceRecord{
				SchoolId:  schoolId,
				SessionId: sessionId,
				StaffId:   staffId,
				Status:    models.ParseAttendanceStatus(cell.Status),
				CheckIn:   cell.CheckIn,
				CheckOut:  cell.CheckOut,
				Remark:    cell.Remark,
			})
		}
	}
	if err := createInBatches(tx, sessions); err != nil {
		return err
	}
	return createInBatches(tx, records)
}

func createInBatches[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, insertBatchSize).Error
}
