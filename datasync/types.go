package datasync

import (
	"encoding/json"
)

// Config is passed to NewHandlers explicitly instead of being read from
// ambient globals. DatasetKey namespaces multiple datasets per school.
type Config struct {
	DatasetKey string
}

const DefaultDatasetKey = "default"

func (c Config) Key() string {
	if c.DatasetKey == "" {
		return DefaultDatasetKey
	}
	return c.DatasetKey
}

// Document is the denormalized dataset exchanged with clients. Every
// collection is emitted even when empty so a pull for a brand-new school
// is structurally complete. Enum-valued fields carry display form on the
// wire; the importer normalizes them to storage tokens.
type Document struct {
	Students        []StudentRecord   `json:"students"`
	Staff           []StaffRecord     `json:"staff"`
	Expenses        []ExpenseRecord   `json:"expenses"`
	Exams           []ExamRecord      `json:"exams"`
	Marks           []MarkRecord      `json:"marks"`
	Timetable       []TimetableRecord `json:"timetable"`
	Classes         []ClassRecord     `json:"classes"`
	Rooms           []RoomRecord      `json:"rooms"`
	Subjects        []SubjectRecord   `json:"subjects"`
	FeeStructures   []FeeRecord       `json:"feeStructures"`
	Payments        []PaymentRecord   `json:"payments"`
	Attendance      StudentAttendance `json:"attendance"`
	StaffAttendance StaffAttendance   `json:"staffAttendance"`
	ExportDate      string            `json:"exportDate,omitempty"`
}

type StudentRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Gender        string `json:"gender"`
	ClassId       string `json:"classId"`
	GuardianName  string `json:"guardianName"`
	GuardianPhone string `json:"guardianPhone"`
	Address       string `json:"address"`
	EnrolledAt    string `json:"enrolledAt"`
	Status        string `json:"status"`
}

type StaffRecord struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Role    string  `json:"role"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`
	Salary  float64 `json:"salary"`
	HiredAt string  `json:"hiredAt"`
	Status  string  `json:"status"`
}

type ExpenseRecord struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
}

type ExamRecord struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	SubjectId  string   `json:"subjectId"`
	Date       string   `json:"date"`
	TotalMarks float64  `json:"totalMarks"`
	Term       string   `json:"term"`
	Classes    []string `json:"classes"`
}

type MarkRecord struct {
	ID        string  `json:"id"`
	ExamId    string  `json:"examId"`
	StudentId string  `json:"studentId"`
	Marks     float64 `json:"marks"`
	Grade     string  `json:"grade"`
	Remark    string  `json:"remark"`
}

type TimetableRecord struct {
	ID        string `json:"id"`
	ClassId   string `json:"classId"`
	SubjectId string `json:"subjectId"`
	StaffId   string `json:"staffId"`
	RoomId    string `json:"roomId"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type ClassRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Level      string `json:"level"`
	Curriculum string `json:"curriculum"`
	TeacherId  string `json:"teacherId"`
	RoomId     string `json:"roomId"`
}

type RoomRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
}

type SubjectRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Type string `json:"type"`
}

type FeeRecord struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Frequency string  `json:"frequency"`
}

type PaymentRecord struct {
	ID          string              `json:"id"`
	StudentId   string              `json:"studentId"`
	TotalAmount float64             `json:"totalAmount"`
	Date        string              `json:"date"`
	Method      string              `json:"method"`
	Reference   string              `json:"reference"`
	Status      string              `json:"status"`
	Items       []PaymentItemRecord `json:"items"`
	// FeeIds is a legacy input shape: a bare list of fee type ids that the
	// importer turns into zero-amount line items. Never emitted on export.
	FeeIds []string `json:"feeIds,omitempty"`
}

type PaymentItemRecord struct {
	LineNo      int     `json:"lineNo"`
	FeeTypeId   string  `json:"feeTypeId"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// StudentAttendance nests date -> classId -> studentId -> cell.
type StudentAttendance map[string]map[string]map[string]AttendanceCell

type AttendanceCell struct {
	Status string `json:"status"`
	Remark string `json:"remark,omitempty"`
}

// StaffAttendance nests date -> staffId -> cell.
type StaffAttendance map[string]map[string]StaffAttendanceCell

type StaffAttendanceCell struct {
	Status   string `json:"status"`
	CheckIn  string `json:"checkIn,omitempty"`
	CheckOut string `json:"checkOut,omitempty"`
	Remark   string `json:"remark,omitempty"`
}

// EmptyDocument returns a structurally complete document with every
// collection empty.
func EmptyDocument() *Document {
	return &Document{
		Students:        []StudentRecord{},
		Staff:           []StaffRecord{},
		Expenses:        []ExpenseRecord{},
		Exams:           []ExamRecord{},
		Marks:           []MarkRecord{},
		Timetable:       []TimetableRecord{},
		Classes:         []ClassRecord{},
		Rooms:           []RoomRecord{},
		Subjects:        []SubjectRecord{},
		FeeStructures:   []FeeRecord{},
		Payments:        []PaymentRecord{},
		Attendance:      StudentAttendance{},
		StaffAttendance: StaffAttendance{},
	}
}

// IsEmpty reports whether the document carries no entities at all. Used by
// the orchestrator to decide whether the server needs seeding.
func (d *Document) IsEmpty() bool {
	if d == nil {
		return true
	}
	return len(d.Students) == 0 && len(d.Staff) == 0 && len(d.Expenses) == 0 &&
		len(d.Exams) == 0 && len(d.Marks) == 0 && len(d.Timetable) == 0 &&
		len(d.Classes) == 0 && len(d.Rooms) == 0 && len(d.Subjects) == 0 &&
		len(d.FeeStructures) == 0 && len(d.Payments) == 0 &&
		len(d.Attendance) == 0 && len(d.StaffAttendance) == 0
}

// DecodeDocument turns any JSON value into a Document. Missing, null or
// malformed collections decode to empty ones; individual scalars coerce
// with zero fallbacks. It never fails: "never reject, always default" is
// the documented contract of the sync boundary.
func DecodeDocument(raw any) *Document {
	doc := EmptyDocument()
	root := asMap(raw)
	if root == nil {
		return doc
	}

	for _, v := range asSlice(root["students"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		doc.Students = append(doc.Students, StudentRecord{
			ID:            asString(m["id"]),
			Name:          asString(m["name"]),
			Gender:        asString(m["gender"]),
			ClassId:       asString(m["classId"]),
			GuardianName:  asString(m["guardianName"]),
			GuardianPhone: asString(m["guardianPhone"]),
			Address:       asString(m["address"]),
			EnrolledAt:    asString(m["enrolledAt"]),
			Status:        asString(m["status"]),
		})
	}

	for _, v := range asSlice(root["staff"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		doc.Staff = append(doc.Staff, StaffRecord{
			ID:      asString(m["id"]),
			Name:    asString(m["name"]),
			Role:    asString(m["role"]),
			Phone:   asString(m["phone"]),
			Email:   asString(m["email"]),
			Salary:  asFloat(m["salary"]),
			HiredAt: asString(m["hiredAt"]),
			Status:  asString(m["status"]),
		})
	}

	for _, v := range asSlice(root["expenses"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		doc.Expenses = append(doc.Expenses, ExpenseRecord{
			ID:          asString(m["id"]),
			Category:    asString(m["category"]),
			Description: asString(m["description"]),
			Amount:      asFloat(m["amount"]),
			Date:        asString(m["date"]),
			Status:      asString(m["status"]),
		})
	}

	for _, v := range asSlice(root["exams"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		rec := ExamRecord{
			ID:         asString(m["id"]),
			Name:       asString(m["name"]),
			SubjectId:  asString(m["subjectId"]),
			Date:       asString(m["date"]),
			TotalMarks: asFloat(m["totalMarks"]),
			Term:       asString(m["term"]),
			Classes:    []string{},
		}
		for _, cv := range asSlice(m["classes"]) {
			if id := asString(cv); id != "" {
				rec.Classes = append(rec.Classes, id)
			}
		}
		doc.Exams = append(doc.Exams, rec)
	}

	for _, v := range asSlice(root["marks"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		doc.Marks = append(doc.Marks, MarkRecord{
			ID:        asString(m["id"]),
			ExamId:    asString(m["examId"]),
			StudentId: asString(m["studentId"]),
			Marks:     asFloat(m["marks"]),
			Grade:     asString(m["grade"]),
			Remark:    asString(m["remark"]),
		})
	}

	for _, v := range asSlice(root["timetable"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		doc.Timetable = append(doc.Timetable, TimetableRecord{
			ID:        asString(m["id"]),
			ClassId:   asString(m["classId"]),
			SubjectId: asString(m["subjectId"]),
			StaffId:   asString(m["staffId"]),
			RoomId:    asString(m["roomId"]),
			Day:       asString(m["day"]),
			StartTime: asString(m["startTime"]),
			EndTime:   asString(m["endTime"]),
		})
	}

	for _, v := range asSlice(root["classes"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		doc.Classes = append(doc.Classes, ClassRecord{
			ID:         asString(m["id"]),
			Name:       asString(m["name"]),
			Level:      asString(m["level"]),
			Curriculum: asString(m["curriculum"]),
			TeacherId:  asString(m["teacherId"]),
			RoomId:     asString(m["roomId"]),
		})
	}

	for _, v := range asSlice(root["rooms"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		doc.Rooms = append(doc.Rooms, RoomRecord{
			ID:       asString(m["id"]),
			Name:     asString(m["name"]),
			Type:     asString(m["type"]),
			Capacity: asInt(m["capacity"]),
		})
	}

	for _, v := range asSlice(root["subjects"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		doc.Subjects = append(doc.Subjects, SubjectRecord{
			ID:   asString(m["id"]),
			Name: asString(m["name"]),
			Code: asString(m["code"]),
			Type: asString(m["type"]),
		})
	}

	for _, v := range asSlice(root["feeStructures"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		doc.FeeStructures = append(doc.FeeStructures, FeeRecord{
			ID:        asString(m["id"]),
			Name:      asString(m["name"]),
			Amount:    asFloat(m["amount"]),
			Frequency: asString(m["frequency"]),
		})
	}

	for _, v := range asSlice(root["payments"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		rec := PaymentRecord{
			ID:          asString(m["id"]),
			StudentId:   asString(m["studentId"]),
			TotalAmount: asFloat(m["totalAmount"]),
			Date:        asString(m["date"]),
			Method:      asString(m["method"]),
			Reference:   asString(m["reference"]),
			Status:      asString(m["status"]),
			Items:       []PaymentItemRecord{},
		}
		for i, iv := range asSlice(m["items"]) {
			im := asMap(iv)
			if im == nil {
				continue
			}
			lineNo := asInt(im["lineNo"])
			if lineNo <= 0 {
				lineNo = i + 1
			}
			rec.Items = append(rec.Items, PaymentItemRecord{
				LineNo:      lineNo,
				FeeTypeId:   asString(im["feeTypeId"]),
				Description: asString(im["description"]),
				Amount:      asFloat(im["amount"]),
			})
		}
		for _, fv := range asSlice(m["feeIds"]) {
			if id := asString(fv); id != "" {
				rec.FeeIds = append(rec.FeeIds, id)
			}
		}
		doc.Payments = append(doc.Payments, rec)
	}

	for date, dv := range asMap(root["attendance"]) {
		byClass := asMap(dv)
		if byClass == nil {
			continue
		}
		for classId, cv := range byClass {
			byStudent := asMap(cv)
			if byStudent == nil {
				continue
			}
			for studentId, sv := range byStudent {
				cell := asMap(sv)
				if cell == nil {
					continue
				}
				if doc.Attendance[date] == nil {
					doc.Attendance[date] = map[string]map[string]AttendanceCell{}
				}
				if doc.Attendance[date][classId] == nil {
					doc.Attendance[date][classId] = map[string]AttendanceCell{}
				}
				doc.Attendance[date][classId][studentId] = AttendanceCell{
					Status: asString(cell["status"]),
					Remark: asString(cell["remark"]),
				}
			}
		}
	}

	for date, dv := range asMap(root["staffAttendance"]) {
		byStaff := asMap(dv)
		if byStaff == nil {
			continue
		}
		for staffId, sv := range byStaff {
			cell := asMap(sv)
			if cell == nil {
				continue
			}
			if doc.StaffAttendance[date] == nil {
				doc.StaffAttendance[date] = map[string]StaffAttendanceCell{}
			}
			doc.StaffAttendance[date][staffId] = StaffAttendanceCell{
				Status:   asString(cell["status"]),
				CheckIn:  asString(cell["checkIn"]),
				CheckOut: asString(cell["checkOut"]),
				Remark:   asString(cell["remark"]),
			}
		}
	}

	doc.ExportDate = asString(root["exportDate"])
	return doc
}

// UnmarshalDocument decodes raw JSON bytes through DecodeDocument.
func UnmarshalDocument(raw []byte) *Document {
	if len(raw) == 0 {
		return EmptyDocument()
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return EmptyDocument()
	}
	return DecodeDocument(v)
}
