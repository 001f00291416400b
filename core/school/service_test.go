package school_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/fs"
	"github.com/trezcool/ratiba/storage/database/inmem"
	"github.com/trezcool/ratiba/tests"
)

func newService(t *testing.T) *school.Service {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	validate, translator := testutil.NewValidator()
	return school.NewService(inmemdb.NewSchoolRepository(db), validate, translator)
}

func TestReadData(t *testing.T) {
	f, err := appfs.FS.Open(appfs.SeedFile)
	require.NoError(t, err)
	defer f.Close()

	data, err := school.ReadData(f)
	require.NoError(t, err)
	assert.NotEmpty(t, data.Classes)
	assert.NotEmpty(t, data.Teachers)
	assert.NotEmpty(t, data.AcademicYears)

	_, err = school.ReadData(strings.NewReader("subjects:\n  - {id: 5, name: Maths, colour: red}\n"))
	assert.Error(t, err)

	data, err = school.ReadData(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, data.Subjects)
}

func TestService_Seed(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	f, err := appfs.FS.Open(appfs.SeedFile)
	require.NoError(t, err)
	defer f.Close()
	data, err := school.ReadData(f)
	require.NoError(t, err)
	require.NoError(t, svc.Seed(ctx, data))

	teachers, err := svc.Teachers(ctx, school.TeacherFilter{Subject: 5})
	require.NoError(t, err)
	require.NotEmpty(t, teachers)
	for _, teacher := range teachers {
		assert.True(t, teacher.Teaches(5))
	}

	// seeding again updates by id
	data.Subjects[0].Name = "Maths"
	require.NoError(t, svc.Seed(ctx, data))
	subjects, err := svc.Subjects(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, len(data.Subjects))
	assert.Equal(t, "Maths", subjects[0].Name)
}

func TestService_Seed_invalid(t *testing.T) {
	tests := []struct {
		name string
		data school.Data
	}{
		{name: "subject without name", data: school.Data{Subjects: []school.Subject{{ID: 5}}}},
		{name: "bad subject code", data: school.Data{Subjects: []school.Subject{{ID: 5, Name: "Maths", Code: "M-1"}}}},
		{name: "bad teacher role", data: school.Data{Teachers: []school.Teacher{{ID: 12, Name: "Wanjiru", Roles: []string{"janitor"}}}}},
		{name: "bad teacher email", data: school.Data{Teachers: []school.Teacher{{ID: 12, Name: "Wanjiru", Email: "lol"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newService(t).Seed(context.Background(), tt.data)
			var vErr *core.ValidationError
			assert.True(t, errors.As(err, &vErr), "err = %v", err)
		})
	}
}
