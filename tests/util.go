package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/storage/database"
)

// DatabaseURLEnv names the variable enabling the postgres tests.
const DatabaseURLEnv = "TEST_DATABASE_URL"

// NopLogger discards every message.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// NewValidator returns a validator with every custom tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	timetable.InitValidators(validate, translator)
	return validate, translator
}

// SchoolData is a small reference data set: 2 classes, 3 subjects, 3 teachers, 1 room and 1 academic year.
func SchoolData() school.Data {
	return school.Data{
		Grades:  []school.Grade{{ID: 1, Name: "Form 1", Level: 1}},
		Classes: []school.Class{{ID: 1, Name: "1A", Grade: 1}, {ID: 2, Name: "1B", Grade: 1}},
		Subjects: []school.Subject{
			{ID: 5, Name: "Mathematics", Code: "MAT"},
			{ID: 6, Name: "English", Code: "ENG"},
			{ID: 7, Name: "Biology", Code: "BIO"},
		},
		Teachers: []school.Teacher{
			{ID: 12, Name: "Grace Wanjiru", Roles: []string{school.RoleTeacher}, Subjects: []int{5}},
			{ID: 13, Name: "Peter Otieno", Roles: []string{school.RoleClassTeacher}, Subjects: []int{5, 6}},
			{ID: 14, Name: "Mary Achieng", Roles: []string{school.RoleTeacher}, Subjects: []int{7}},
		},
		Rooms:         []school.Room{{ID: 3, Name: "Lab 1", Capacity: 40}},
		AcademicYears: []school.AcademicYear{{ID: 2024, Name: "2024", IsCurrent: true}},
	}
}

func SeedSchool(t *testing.T, repo school.Repository) school.Data {
	data := SchoolData()
	if err := repo.SaveData(context.Background(), data); err != nil {
		t.Fatalf("SeedSchool() failed: %v", err)
	}
	return data
}

func CreateTimetable(t *testing.T, repo timetable.Repository, schoolClass, academicYear int) timetable.Timetable {
	now := time.Now().UTC()
	tt, err := repo.CreateTimetable(context.Background(), timetable.Timetable{
		SchoolClass:  schoolClass,
		AcademicYear: academicYear,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateTimetable() failed: %v", err)
	}
	return tt
}

// CreateSession creates an active hourly session starting at 08:00 for period 1.
func CreateSession(t *testing.T, repo timetable.Repository, timetableID, day, period, subject, teacher int) timetable.Session {
	start := time.Date(0, 1, 1, 7+period, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	sess, _, err := repo.CreateSession(context.Background(), timetable.Session{
		Timetable:    timetableID,
		DayOfWeek:    day,
		SessionOrder: period,
		StartTime:    start.Format(timetable.TimeLayout),
		EndTime:      start.Add(time.Hour).Format(timetable.TimeLayout),
		Subject:      subject,
		Teacher:      teacher,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, "")
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}

// PrepareDB connects to the database named by TEST_DATABASE_URL, migrates it and empties it.
// The test is skipped when the variable is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	dsn := os.Getenv(DatabaseURLEnv)
	if dsn == "" {
		t.Skipf("%s is not set", DatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := database.OpenURL(ctx, dsn)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	_, err = db.Exec(`TRUNCATE timetable_session, timetable, academic_year, room, teacher, subject,
		school_class, track, grade RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}
