package school_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/tests"
)

// dataLoader serves data; failOn names the list that fails to load.
type dataLoader struct {
	data   school.Data
	failOn string
}

var errBoom = errors.New("boom")

func (l dataLoader) fail(what string) error {
	if l.failOn == what {
		return errBoom
	}
	return nil
}

func (l dataLoader) Grades(context.Context) ([]school.Grade, error) {
	return l.data.Grades, l.fail("grades")
}

func (l dataLoader) Tracks(context.Context) ([]school.Track, error) {
	return l.data.Tracks, l.fail("tracks")
}

func (l dataLoader) Classes(context.Context) ([]school.Class, error) {
	return l.data.Classes, l.fail("classes")
}

func (l dataLoader) Subjects(context.Context) ([]school.Subject, error) {
	return l.data.Subjects, l.fail("subjects")
}

func (l dataLoader) Teachers(_ context.Context, filter school.TeacherFilter) ([]school.Teacher, error) {
	return school.FilterTeachers(l.data.Teachers, filter), l.fail("teachers")
}

func (l dataLoader) Rooms(context.Context) ([]school.Room, error) {
	return l.data.Rooms, l.fail("rooms")
}

func (l dataLoader) AcademicYears(context.Context) ([]school.AcademicYear, error) {
	return l.data.AcademicYears, l.fail("years")
}

func TestLoadSnapshot(t *testing.T) {
	snap, err := school.LoadSnapshot(context.Background(), dataLoader{data: testutil.SchoolData()})
	require.NoError(t, err)
	assert.False(t, snap.IsEmpty())

	sub, ok := snap.Subject(5)
	require.True(t, ok)
	assert.Equal(t, "Mathematics", sub.Name)
	_, ok = snap.Teacher(99)
	assert.False(t, ok)

	year, ok := snap.CurrentAcademicYear()
	require.True(t, ok)
	assert.Equal(t, 2024, year.ID)

	assert.Len(t, snap.ClassesInGrade(1), 2)
	assert.Empty(t, snap.ClassesInGrade(2))

	var ids []int
	for _, teacher := range snap.TeachersFor(5) {
		ids = append(ids, teacher.ID)
	}
	assert.Equal(t, []int{12, 13}, ids)
	require.Len(t, snap.TeachersWithRole(school.RoleClassTeacher), 1)

	assert.Equal(t, "Biology", snap.SubjectName(7))
	assert.Equal(t, "#99", snap.TeacherName(99))
	assert.Equal(t, "", snap.RoomName(0))
	assert.Equal(t, "Lab 1", snap.RoomName(3))
}

func TestLoadSnapshot_failure(t *testing.T) {
	_, err := school.LoadSnapshot(context.Background(), dataLoader{data: testutil.SchoolData(), failOn: "rooms"})
	assert.True(t, errors.Is(err, errBoom), "err = %v", err)
	assert.Contains(t, err.Error(), "loading rooms")
}

func TestSnapshot_isReadOnly(t *testing.T) {
	snap := school.NewSnapshot(testutil.SchoolData())
	subjects := snap.Subjects()
	subjects[0].Name = "changed"
	assert.Equal(t, "Mathematics", snap.Subjects()[0].Name)

	var empty *school.Snapshot
	assert.True(t, empty.IsEmpty())
	assert.True(t, school.NewSnapshot(school.Data{}).IsEmpty())
}

func TestTeacherFilter_Match(t *testing.T) {
	teacher := school.Teacher{ID: 13, Roles: []string{school.RoleClassTeacher}, Subjects: []int{5, 6}}

	tests := []struct {
		name   string
		filter school.TeacherFilter
		want   bool
	}{
		{name: "empty", want: true},
		{name: "role prefix", filter: school.TeacherFilter{Role: school.RoleTeacher}, want: true},
		{name: "other role", filter: school.TeacherFilter{Role: school.RoleHeadOfDept}},
		{name: "subject", filter: school.TeacherFilter{Subject: 6}, want: true},
		{name: "role and other subject", filter: school.TeacherFilter{Role: school.RoleTeacher, Subject: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(teacher))
		})
	}
}
