package timetable_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
	testutil "github.com/trezcool/ratiba/tests"
)

func newService(t *testing.T) (*timetable.Service, timetable.Repository) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewTimetableRepository(db)
	validate, translator := testutil.NewValidator()
	return timetable.NewService(repo, validate, translator), repo
}

func boolPtr(b bool) *bool { return &b }

func TestService_CreateTimetable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 8, 7, 0, 0, 0, time.UTC)
	timetable.NowFunc = func() time.Time { return now }
	defer func() { timetable.NowFunc = time.Now }()

	tt, err := svc.CreateTimetable(ctx, timetable.TimetableInput{SchoolClass: 1, AcademicYear: 2024})
	require.NoError(t, err)
	assert.True(t, tt.IsActive)
	assert.Equal(t, now, tt.CreatedAt)

	tests := []struct {
		name     string
		in       timetable.TimetableInput
		wantFlds map[string]string
		conflict core.ConflictKind
	}{
		{
			name:     "missing fields",
			in:       timetable.TimetableInput{},
			wantFlds: map[string]string{"school_class": "this field is required", "academic_year": "this field is required"},
		},
		{
			name:     "duplicate",
			in:       timetable.TimetableInput{SchoolClass: 1, AcademicYear: 2024, IsActive: boolPtr(false)},
			conflict: core.TimetableConflict,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTimetable(ctx, tc.in)
			require.Error(t, err)
			if tc.wantFlds != nil {
				var vErr *core.ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Equal(t, tc.wantFlds, vErr.FieldMap())
			}
			if tc.conflict != "" {
				var cErr *core.ConflictError
				require.True(t, errors.As(err, &cErr))
				assert.Equal(t, tc.conflict, cErr.Kind)
				assert.True(t, core.IsUniquenessMessage(cErr.Message))
			}
		})
	}
}

func TestService_CreateSession(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	tt := testutil.CreateTimetable(t, repo, 1, 2024)
	other := testutil.CreateTimetable(t, repo, 2, 2024)

	valid := func(mod func(in *timetable.SessionInput)) timetable.SessionInput {
		in := timetable.SessionInput{
			Timetable: tt.ID, DayOfWeek: timetable.Monday, SessionOrder: 1,
			StartTime: "08:00:00", EndTime: "09:00", Subject: 5, Teacher: 12,
		}
		if mod != nil {
			mod(&in)
		}
		return in
	}

	s, err := svc.CreateSession(ctx, valid(nil), "")
	require.NoError(t, err)
	assert.Equal(t, "08:00", s.StartTime, "times are cleaned")
	assert.True(t, s.IsActive)
	assert.Nil(t, s.Room)

	tests := []struct {
		name     string
		in       timetable.SessionInput
		wantFlds []string
		conflict core.ConflictKind
	}{
		{
			name:     "invalid fields",
			in:       valid(func(in *timetable.SessionInput) { in.DayOfWeek = 7; in.EndTime = "9h"; in.SessionOrder = 0 }),
			wantFlds: []string{"day_of_week", "end_time", "session_order"},
		},
		{
			name:     "unknown timetable",
			in:       valid(func(in *timetable.SessionInput) { in.Timetable = 999; in.DayOfWeek = timetable.Friday }),
			wantFlds: []string{"timetable"},
		},
		{
			name:     "slot taken",
			in:       valid(func(in *timetable.SessionInput) { in.Teacher = 13 }),
			conflict: core.SessionConflict,
		},
		{
			name:     "teacher busy",
			in:       valid(func(in *timetable.SessionInput) { in.Timetable = other.ID }),
			conflict: core.TeacherConflict,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSession(ctx, tc.in, "")
			require.Error(t, err)
			if tc.wantFlds != nil {
				var vErr *core.ValidationError
				require.True(t, errors.As(err, &vErr), "error = %v", err)
				var flds []string
				for f := range vErr.FieldMap() {
					flds = append(flds, f)
				}
				assert.ElementsMatch(t, tc.wantFlds, flds)
			}
			if tc.conflict != "" {
				var cErr *core.ConflictError
				require.True(t, errors.As(err, &cErr), "error = %v", err)
				assert.Equal(t, tc.conflict, cErr.Kind)
			}
		})
	}
}

func TestService_CreateSessionOnce(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	tt := testutil.CreateTimetable(t, repo, 1, 2024)
	in := timetable.SessionInput{
		Timetable: tt.ID, DayOfWeek: timetable.Tuesday, SessionOrder: 2,
		StartTime: "09:00", EndTime: "10:00", Subject: 5, Teacher: 12, Room: new(int),
	}

	first, created, err := svc.CreateSessionOnce(ctx, in, "key-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, first.Room, "room 0 means no room")

	again, created, err := svc.CreateSessionOnce(ctx, in, "key-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, again)

	// without a key the replay hits the uniqueness rules
	_, _, err = svc.CreateSessionOnce(ctx, in, "")
	assert.True(t, core.IsConflict(err))
}

func TestService_GetTimetable(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	tt := testutil.CreateTimetable(t, repo, 1, 2024)
	testutil.CreateSession(t, repo, tt.ID, 2, 1, 5, 12)
	testutil.CreateSession(t, repo, tt.ID, 1, 3, 5, 12)
	testutil.CreateSession(t, repo, tt.ID, 1, 2, 6, 13)

	got, err := svc.GetTimetable(ctx, tt.ID)
	require.NoError(t, err)
	var slots [][2]int
	for _, s := range got.Sessions {
		slots = append(slots, [2]int{s.DayOfWeek, s.SessionOrder})
	}
	assert.Equal(t, [][2]int{{1, 2}, {1, 3}, {2, 1}}, slots)

	_, err = svc.GetTimetable(ctx, 999)
	assert.True(t, errors.Is(err, timetable.ErrTimetableNotFound))

	require.NoError(t, svc.DeleteTimetable(ctx, tt.ID))
	sessions, err := svc.QuerySessions(ctx, timetable.SessionFilter{Timetable: tt.ID}, nil)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestService_UpdateSession(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	tt := testutil.CreateTimetable(t, repo, 1, 2024)
	s1 := testutil.CreateSession(t, repo, tt.ID, 1, 1, 5, 12)
	testutil.CreateSession(t, repo, tt.ID, 1, 2, 6, 13)

	room := 3
	in := timetable.SessionInput{
		Timetable: tt.ID, DayOfWeek: 1, SessionOrder: 1, StartTime: "08:00", EndTime: "09:00",
		Subject: 5, Teacher: 12, Room: &room, Notes: "  lab  ",
	}
	updated, err := svc.UpdateSession(ctx, s1.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.RoomID())
	assert.Equal(t, "lab", updated.Notes)
	assert.Equal(t, s1.CreatedAt, updated.CreatedAt)

	in.SessionOrder = 2
	_, err = svc.UpdateSession(ctx, s1.ID, in)
	var cErr *core.ConflictError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, core.SessionConflict, cErr.Kind)

	_, err = svc.UpdateSession(ctx, 999, in)
	assert.True(t, errors.Is(err, timetable.ErrSessionNotFound))
}
