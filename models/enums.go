package models

import (
	"strings"
)

// Enumerated dataset fields are stored as canonical tokens (lower case,
// single "-" separator) and rendered back to their display form on export.
// Parsing never fails: unrecognized or missing values fall back to the
// field's documented default so a partial payload is stored, not rejected.

// CanonicalToken trims the input and collapses every run of whitespace,
// hyphens and underscores into a single "-", lower-cased.
func CanonicalToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '_':
			sep = true
		default:
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

type RoomType string

const (
	RoomTypeClassroom  RoomType = "classroom"
	RoomTypeLaboratory RoomType = "laboratory"
	RoomTypeLibrary    RoomType = "library"
	RoomTypeOffice     RoomType = "office"
	RoomTypeHall       RoomType = "hall"
	RoomTypeOther      RoomType = "other"
)

var roomTypeDisplay = map[RoomType]string{
	RoomTypeClassroom:  "Classroom",
	RoomTypeLaboratory: "Laboratory",
	RoomTypeLibrary:    "Library",
	RoomTypeOffice:     "Office",
	RoomTypeHall:       "Hall",
	RoomTypeOther:      "Other",
}

func ParseRoomType(s string) RoomType {
	t := RoomType(CanonicalToken(s))
	if _, ok := roomTypeDisplay[t]; ok {
		return t
	}
	return RoomTypeClassroom
}

func (t RoomType) Display() string {
	if d, ok := roomTypeDisplay[t]; ok {
		return d
	}
	return roomTypeDisplay[RoomTypeClassroom]
}

type Curriculum string

const (
	CurriculumNational   Curriculum = "national"
	CurriculumCambridge  Curriculum = "cambridge"
	CurriculumIB         Curriculum = "ib"
	CurriculumMontessori Curriculum = "montessori"
	CurriculumOther      Curriculum = "other"
)

var curriculumDisplay = map[Curriculum]string{
	CurriculumNational:   "National",
	CurriculumCambridge:  "Cambridge",
	CurriculumIB:         "IB",
	CurriculumMontessori: "Montessori",
	CurriculumOther:      "Other",
}

func ParseCurriculum(s string) Curriculum {
	t := Curriculum(CanonicalToken(s))
	if _, ok := curriculumDisplay[t]; ok {
		return t
	}
	return CurriculumNational
}

func (t Curriculum) Display() string {
	if d, ok := curriculumDisplay[t]; ok {
		return d
	}
	return curriculumDisplay[CurriculumNational]
}

type SubjectType string

const (
	SubjectTypeCore            SubjectType = "core"
	SubjectTypeElective        SubjectType = "elective"
	SubjectTypeExtracurricular SubjectType = "extracurricular"
)

var subjectTypeDisplay = map[SubjectType]string{
	SubjectTypeCore:            "Core",
	SubjectTypeElective:        "Elective",
	SubjectTypeExtracurricular: "Extracurricular",
}

func ParseSubjectType(s string) SubjectType {
	t := SubjectType(CanonicalToken(s))
	if _, ok := subjectTypeDisplay[t]; ok {
		return t
	}
	return SubjectTypeCore
}

func (t SubjectType) Display() string {
	if d, ok := subjectTypeDisplay[t]; ok {
		return d
	}
	return subjectTypeDisplay[SubjectTypeCore]
}

type Weekday string

const (
	WeekdayMonday    Weekday = "monday"
	WeekdayTuesday   Weekday = "tuesday"
	WeekdayWednesday Weekday = "wednesday"
	WeekdayThursday  Weekday = "thursday"
	WeekdayFriday    Weekday = "friday"
	WeekdaySaturday  Weekday = "saturday"
	WeekdaySunday    Weekday = "sunday"
)

var weekdayDisplay = map[Weekday]string{
	WeekdayMonday:    "Monday",
	WeekdayTuesday:   "Tuesday",
	WeekdayWednesday: "Wednesday",
	WeekdayThursday:  "Thursday",
	WeekdayFriday:    "Friday",
	WeekdaySaturday:  "Saturday",
	WeekdaySunday:    "Sunday",
}

func ParseWeekday(s string) Weekday {
	t := Weekday(CanonicalToken(s))
	if _, ok := weekdayDisplay[t]; ok {
		return t
	}
	return WeekdayMonday
}

func (t Weekday) Display() string {
	if d, ok := weekdayDisplay[t]; ok {
		return d
	}
	return weekdayDisplay[WeekdayMonday]
}

type FeeFrequency string

const (
	FeeFrequencyOneTime  FeeFrequency = "one-time"
	FeeFrequencyMonthly  FeeFrequency = "monthly"
	FeeFrequencyTermly   FeeFrequency = "termly"
	FeeFrequencyAnnually FeeFrequency = "annually"
)

var feeFrequencyDisplay = map[FeeFrequency]string{
	FeeFrequencyOneTime:  "One-time",
	FeeFrequencyMonthly:  "Monthly",
	FeeFrequencyTermly:   "Termly",
	FeeFrequencyAnnually: "Annually",
}

func ParseFeeFrequency(s string) FeeFrequency {
	t := FeeFrequency(CanonicalToken(s))
	if _, ok := feeFrequencyDisplay[t]; ok {
		return t
	}
	return FeeFrequencyOneTime
}

func (t FeeFrequency) Display() string {
	if d, ok := feeFrequencyDisplay[t]; ok {
		return d
	}
	return feeFrequencyDisplay[FeeFrequencyOneTime]
}

type ExpenseCategory string

const (
	ExpenseCategorySalaries    ExpenseCategory = "salaries"
	ExpenseCategoryUtilities   ExpenseCategory = "utilities"
	ExpenseCategorySupplies    ExpenseCategory = "supplies"
	ExpenseCategoryMaintenance ExpenseCategory = "maintenance"
	ExpenseCategoryTransport   ExpenseCategory = "transport"
	ExpenseCategoryOther       ExpenseCategory = "other"
)

var expenseCategoryDisplay = map[ExpenseCategory]string{
	ExpenseCategorySalaries:    "Salaries",
	ExpenseCategoryUtilities:   "Utilities",
	ExpenseCategorySupplies:    "Supplies",
	ExpenseCategoryMaintenance: "Maintenance",
	ExpenseCategoryTransport:   "Transport",
	ExpenseCategoryOther:       "Other",
}

func ParseExpenseCategory(s string) ExpenseCategory {
	t := ExpenseCategory(CanonicalToken(s))
	if _, ok := expenseCategoryDisplay[t]; ok {
		return t
	}
	return ExpenseCategoryOther
}

func (t ExpenseCategory) Display() string {
	if d, ok := expenseCategoryDisplay[t]; ok {
		return d
	}
	return expenseCategoryDisplay[ExpenseCategoryOther]
}

type ExpenseStatus string

const (
	ExpenseStatusPaid    ExpenseStatus = "paid"
	ExpenseStatusPending ExpenseStatus = "pending"
)

var expenseStatusDisplay = map[ExpenseStatus]string{
	ExpenseStatusPaid:    "Paid",
	ExpenseStatusPending: "Pending",
}

func ParseExpenseStatus(s string) ExpenseStatus {
	t := ExpenseStatus(CanonicalToken(s))
	if _, ok := expenseStatusDisplay[t]; ok {
		return t
	}
	return ExpenseStatusPaid
}

func (t ExpenseStatus) Display() string {
	if d, ok := expenseStatusDisplay[t]; ok {
		return d
	}
	return expenseStatusDisplay[ExpenseStatusPaid]
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank-transfer"
	PaymentMethodMobileMoney  PaymentMethod = "mobile-money"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodCard         PaymentMethod = "card"
)

var paymentMethodDisplay = map[PaymentMethod]string{
	PaymentMethodCash:         "Cash",
	PaymentMethodBankTransfer: "Bank transfer",
	PaymentMethodMobileMoney:  "Mobile money",
	PaymentMethodCheque:       "Cheque",
	PaymentMethodCard:         "Card",
}

func ParsePaymentMethod(s string) PaymentMethod {
	t := PaymentMethod(CanonicalToken(s))
	if _, ok := paymentMethodDisplay[t]; ok {
		return t
	}
	return PaymentMethodCash
}

func (t PaymentMethod) Display() string {
	if d, ok := paymentMethodDisplay[t]; ok {
		return d
	}
	return paymentMethodDisplay[PaymentMethodCash]
}

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var paymentStatusDisplay = map[PaymentStatus]string{
	PaymentStatusCompleted: "Completed",
	PaymentStatusPartial:   "Partial",
	PaymentStatusPending:   "Pending",
	PaymentStatusRefunded:  "Refunded",
}

func ParsePaymentStatus(s string) PaymentStatus {
	t := PaymentStatus(CanonicalToken(s))
	if _, ok := paymentStatusDisplay[t]; ok {
		return t
	}
	return PaymentStatusCompleted
}

func (t PaymentStatus) Display() string {
	if d, ok := paymentStatusDisplay[t]; ok {
		return d
	}
	return paymentStatusDisplay[PaymentStatusCompleted]
}

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

var attendanceStatusDisplay = map[AttendanceStatus]string{
	AttendanceStatusPresent: "Present",
	AttendanceStatusAbsent:  "Absent",
	AttendanceStatusLate:    "Late",
	AttendanceStatusExcused: "Excused",
}

func ParseAttendanceStatus(s string) AttendanceStatus {
	t := AttendanceStatus(CanonicalToken(s))
	if _, ok := attendanceStatusDisplay[t]; ok {
		return t
	}
	return AttendanceStatusPresent
}

func (t AttendanceStatus) Display() string {
	if d, ok := attendanceStatusDisplay[t]; ok {
		return d
	}
	return attendanceStatusDisplay[AttendanceStatusPresent]
}

type PersonStatus string

const (
	PersonStatusActive   PersonStatus = "active"
	PersonStatusInactive PersonStatus = "inactive"
)

var personStatusDisplay = map[PersonStatus]string{
	PersonStatusActive:   "Active",
	PersonStatusInactive: "Inactive",
}

func ParsePersonStatus(s string) PersonStatus {
	t := PersonStatus(CanonicalToken(s))
	if _, ok := personStatusDisplay[t]; ok {
		return t
	}
	return PersonStatusActive
}

func (t PersonStatus) Display() string {
	if d, ok := personStatusDisplay[t]; ok {
		return d
	}
	return personStatusDisplay[PersonStatusActive]
}

type UserRole string

const (
	UserRoleAdmin  UserRole = "A"
	UserRoleSchool UserRole = "S"
)
