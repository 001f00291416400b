package timetable

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

// Days of the week a session can be scheduled on.
const (
	Monday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayName returns the english name of a day of the week (1: Monday ... 6: Saturday).
func DayName(day int) string {
	if day < Monday || day > Saturday {
		return ""
	}
	return dayNames[day]
}

// Timetable is the weekly schedule of one school class for one academic year.
type Timetable struct {
	ID           int       `json:"id"`
	SchoolClass  int       `json:"school_class"`
	AcademicYear int       `json:"academic_year"`
	IsActive     bool      `json:"is_active"`
	Sessions     []Session `json:"sessions,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Session is one persisted class meeting.
type Session struct {
	ID           int       `json:"id"`
	Timetable    int       `json:"timetable"`
	DayOfWeek    int       `json:"day_of_week"`
	SessionOrder int       `json:"session_order"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Subject      int       `json:"subject"`
	Teacher      int       `json:"teacher"`
	Room         *int      `json:"room"`
	Notes        string    `json:"notes"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// RoomID returns the room id, 0 when no room is set.
func (s Session) RoomID() int {
	if s.Room == nil {
		return 0
	}
	return *s.Room
}

// TimetableInput contains the information needed to create or fully replace a Timetable.
type TimetableInput struct {
	SchoolClass  int   `json:"school_class" validate:"required"`
	AcademicYear int   `json:"academic_year" validate:"required"`
	IsActive     *bool `json:"is_active"`
}

func (in *TimetableInput) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateErrors(validate.Struct(in), translator)
}

// SessionInput contains the information needed to create or fully replace a Session.
type SessionInput struct {
	Timetable    int    `json:"timetable" validate:"required"`
	DayOfWeek    int    `json:"day_of_week" validate:"weekday"`
	SessionOrder int    `json:"session_order" validate:"required,min=1"`
	StartTime    string `json:"start_time" validate:"required,hhmm"`
	EndTime      string `json:"end_time" validate:"required,hhmm"`
	Subject      int    `json:"subject" validate:"required"`
	Teacher      int    `json:"teacher" validate:"required"`
	Room         *int   `json:"room"`
	Notes        string `json:"notes"`
	IsActive     *bool  `json:"is_active"`
}

func (in *SessionInput) Clean() {
	in.StartTime = CleanTime(in.StartTime)
	in.EndTime = CleanTime(in.EndTime)
	in.Notes = core.CleanString(in.Notes)
	if in.Room != nil && *in.Room == 0 {
		in.Room = nil
	}
}

func (in *SessionInput) Validate(validate *validator.Validate, translator ut.Translator) error {
	in.Clean()
	return core.TranslateErrors(validate.Struct(in), translator)
}

type QueryFilter struct {
	SchoolClass  int   `query:"school_class"`
	AcademicYear int   `query:"academic_year"`
	IsActive     *bool `query:"is_active"`
}

func (qf QueryFilter) Match(tt Timetable) bool {
	return (qf.SchoolClass == 0 || tt.SchoolClass == qf.SchoolClass) &&
		(qf.AcademicYear == 0 || tt.AcademicYear == qf.AcademicYear) &&
		(qf.IsActive == nil || tt.IsActive == *qf.IsActive)
}

type SessionFilter struct {
	Timetable int   `query:"timetable"`
	Teacher   int   `query:"teacher"`
	DayOfWeek int   `query:"day_of_week"`
	IsActive  *bool `query:"is_active"`
}

func (sf SessionFilter) Match(s Session) bool {
	return (sf.Timetable == 0 || s.Timetable == sf.Timetable) &&
		(sf.Teacher == 0 || s.Teacher == sf.Teacher) &&
		(sf.DayOfWeek == 0 || s.DayOfWeek == sf.DayOfWeek) &&
		(sf.IsActive == nil || s.IsActive == *sf.IsActive)
}
