package datasync

import (
	"context"
	"time"

	"github.com/edspark/schoolhub_backend/config"
	"github.com/edspark/schoolhub_backend/models"
	"gorm.io/gorm"
)

// Export reads the whole relational state of one school and produces the
// denormalized dataset document. Pure read: it succeeds with a structurally
// complete (all-empty) document for a school with zero rows.
//
// Junction and child tables are each read once and grouped through maps, so
// the nested shapes cost O(rows), never O(parents x children).
func Export(ctx context.Context, schoolId string) (*Document, error) {
	db := config.GetDB().WithContext(ctx)
	doc := EmptyDocument()

	var students []models.Student
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&students).Error; err != nil {
		return nil, err
	}
	for _, s := range students {
		doc.Students = append(doc.Students, StudentRecord{
			ID:            s.ID,
			Name:          s.Name,
			Gender:        s.Gender,
			ClassId:       s.ClassId,
			GuardianName:  s.GuardianName,
			GuardianPhone: s.GuardianPhone,
			Address:       s.Address,
			EnrolledAt:    s.EnrolledAt,
			Status:        s.Status.Display(),
		})
	}

	var staff []models.Staff
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&staff).Error; err != nil {
		return nil, err
	}
	for _, s := range staff {
		doc.Staff = append(doc.Staff, StaffRecord{
			ID:      s.ID,
			Name:    s.Name,
			Role:    s.Role,
			Phone:   s.Phone,
			Email:   s.Email,
			Salary:  s.Salary.InexactFloat64(),
			HiredAt: s.HiredAt,
			Status:  s.Status.Display(),
		})
	}

	var expenses []models.Expense
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&expenses).Error; err != nil {
		return nil, err
	}
	for _, e := range expenses {
		doc.Expenses = append(doc.Expenses, ExpenseRecord{
			ID:          e.ID,
			Category:    e.Category.Display(),
			Description: e.Description,
			Amount:      e.Amount.InexactFloat64(),
			Date:        e.Date,
			Status:      e.Status.Display(),
		})
	}

	if err := exportExams(db, schoolId, doc); err != nil {
		return nil, err
	}

	var marks []models.ExamResult
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&marks).Error; err != nil {
		return nil, err
	}
	for _, m := range marks {
		doc.Marks = append(doc.Marks, MarkRecord{
			ID:        m.ID,
			ExamId:    m.ExamId,
			StudentId: m.StudentId,
			Marks:     m.Marks.InexactFloat64(),
			Grade:     m.Grade,
			Remark:    m.Remark,
		})
	}

	var timetable []models.TimetableEntry
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&timetable).Error; err != nil {
		return nil, err
	}
	for _, t := range timetable {
		doc.Timetable = append(doc.Timetable, TimetableRecord{
			ID:        t.ID,
			ClassId:   t.ClassId,
			SubjectId: t.SubjectId,
			StaffId:   t.StaffId,
			RoomId:    t.RoomId,
			Day:       t.Day.Display(),
			StartTime: t.StartTime,
			EndTime:   t.EndTime,
		})
	}

	var classes []models.ClassGroup
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&classes).Error; err != nil {
		return nil, err
	}
	for _, c := range classes {
		doc.Classes = append(doc.Classes, ClassRecord{
			ID:         c.ID,
			Name:       c.Name,
			Level:      c.Level,
			Curriculum: c.Curriculum.Display(),
			TeacherId:  c.TeacherId,
			RoomId:     c.RoomId,
		})
	}

	var rooms []models.Room
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&rooms).Error; err != nil {
		return nil, err
	}
	for _, r := range rooms {
		doc.Rooms = append(doc.Rooms, RoomRecord{
			ID:       r.ID,
			Name:     r.Name,
			Type:     r.Type.Display(),
			Capacity: r.Capacity,
		})
	}

	var subjects []models.Subject
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&subjects).Error; err != nil {
		return nil, err
	}
	for _, s := range subjects {
		doc.Subjects = append(doc.Subjects, SubjectRecord{
			ID:   s.ID,
			Name: s.Name,
			Code: s.Code,
			Type: s.Type.Display(),
		})
	}

	var feeTypes []models.FeeType
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&feeTypes).Error; err != nil {
		return nil, err
	}
	for _, f := range feeTypes {
		doc.FeeStructures = append(doc.FeeStructures, FeeRecord{
			ID:        f.ID,
			Name:      f.Name,
			Amount:    f.Amount.InexactFloat64(),
			Frequency: f.Frequency.Display(),
		})
	}

	if err := exportPayments(db, schoolId, doc); err != nil {
		return nil, err
	}
	if err := exportStudentAttendance(db, schoolId, doc); err != nil {
		return nil, err
	}
	if err := exportStaffAttendance(db, schoolId, doc); err != nil {
		return nil, err
	}

	// Generation stamp only. Not structurally meaningful for identity.
	doc.ExportDate = time.Now().UTC().Format(time.RFC3339)
	return doc, nil
}

func exportExams(db *gorm.DB, schoolId string, doc *Document) error {
	var exams []models.Exam
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&exams).Error; err != nil {
		return err
	}
	var junction []models.ExamClass
	if err := db.Where("school_id = ?", schoolId).Order("exam_id, class_id").Find(&junction).Error; err != nil {
		return err
	}
	classesByExam := make(map[string][]string, len(exams))
	for _, j := range junction {
		classesByExam[j.ExamId] = append(classesByExam[j.ExamId], j.ClassId)
	}
	for _, e := range exams {
		classes := classesByExam[e.ID]
		if classes == nil {
			classes = []string{}
		}
		doc.Exams = append(doc.Exams, ExamRecord{
			ID:         e.ID,
			Name:       e.Name,
			SubjectId:  e.SubjectId,
			Date:       e.Date,
			TotalMarks: e.TotalMarks.InexactFloat64(),
			Term:       e.Term,
			Classes:    classes,
		})
	}
	return nil
}

func exportPayments(db *gorm.DB, schoolId string, doc *Document) error {
	var payments []models.Payment
	if err := db.Where("school_id = ?", schoolId).Order("id").Find(&payments).Error; err != nil {
		return err
	}
	var items []models.PaymentItem
	if err := db.Where("school_id = ?", schoolId).Order("payment_id, line_no").Find(&items).Error; err != nil {
		return err
	}
	itemsByPayment := make(map[string][]PaymentItemRecord, len(payments))
	for _, it := range items {
		itemsByPayment[it.PaymentId] = append(itemsByPayment[it.PaymentId], PaymentItemRecord{
			LineNo:      it.LineNo,
			FeeTypeId:   it.FeeTypeId,
			Description: it.Description,
			Amount:      it.Amount.InexactFloat64(),
		})
	}
	for _, p := range payments {
		lines := itemsByPayment[p.ID]
		if lines == nil {
			lines = []PaymentItemRecord{}
		}
		doc.Payments = append(doc.Payments, PaymentRecord{
			ID:          p.ID,
			StudentId:   p.StudentId,
			TotalAmount: p.TotalAmount.InexactFloat64(),
			Date:        p.Date,
			Method:      p.Method.Display(),
			Reference:   p.Reference,
			Status:      p.Status.Display(),
			Items:       lines,
		})
	}
	return nil
}

func exportStudentAttendance(db *gorm.DB, schoolId string, doc *Document) error {
	var sessions []models.StudentAttendanceSession
	if err := db.Where("school_id = ?", schoolId).Find(&sessions).Error; err != nil {
		return err
	}
	var records []models.StudentAttendanceRecord
	if err := db.Where("school_id = ?", schoolId).Find(&records).Error; err != nil {
		return err
	}
	type sessionKey struct {
		date    string
		classId string
	}
	keyBySession := make(map[string]sessionKey, len(sessions))
	for _, s := range sessions {
		keyBySession[s.ID] = sessionKey{date: s.Date, classId: s.ClassId}
	}
	for _, r := range records {
		key, ok := keyBySession[r.SessionId]
		if !ok {
			continue
		}
		if doc.Attendance[key.date] == nil {
			doc.Attendance[key.date] = map[string]map[string]AttendanceCell{}
		}
		if doc.Attendance[key.date][key.classId] == nil {
			doc.Attendance[key.date][key.classId] = map[string]AttendanceCell{}
		}
		doc.Attendance[key.date][key.classId][r.StudentId] = AttendanceCell{
			Status: r.Status.Display(),
			Remark: r.Remark,
		}
	}
	return nil
}

func exportStaffAttendance(db *gorm.DB, schoolId string, doc *Document) error {
	var sessions []models.StaffAttendanceSession
	if err := db.Where("school_id = ?", schoolId).Find(&sessions).Error; err != nil {
		return err
	}
	var records []models.StaffAttendanceRecord
	if err := db.Where("school_id = ?", schoolId).Find(&records).Error; err != nil {
		return err
	}
	dateBySession := make(map[string]string, len(sessions))
	for _, s := range sessions {
		dateBySession[s.ID] = s.Date
	}
	for _, r := range records {
		date, ok := dateBySession[r.SessionId]
		if !ok {
			continue
		}
		if doc.StaffAttendance[date] == nil {
			doc.StaffAttendance[date] = map[string]StaffAttendanceCell{}
		}
		doc.StaffAttendance[date][r.StaffId] = StaffAttendanceCell{
			Status:   r.Status.Display(),
			CheckIn:  r.CheckIn,
			CheckOut: r.CheckOut,
			Remark:   r.Remark,
		}
	}
	return nil
}
