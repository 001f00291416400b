package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
)

// Repos builds empty repositories for one test.
type Repos func(t *testing.T) (timetable.Repository, school.Repository)

// RunRepositoryTests checks the behaviour every storage backend must share.
func RunRepositoryTests(t *testing.T, newRepos Repos) {
	ctx := context.Background()

	t.Run("school data", func(t *testing.T) {
		_, schoolRepo := newRepos(t)
		data := SeedSchool(t, schoolRepo)

		// saving again updates in place
		data.Teachers[0].Name = "Grace W."
		require.NoError(t, schoolRepo.SaveData(ctx, school.Data{Teachers: data.Teachers[:1]}))

		teachers, err := schoolRepo.QueryTeachers(ctx, school.TeacherFilter{})
		require.NoError(t, err)
		assert.Len(t, teachers, 3)

		teachers, err = schoolRepo.QueryTeachers(ctx, school.TeacherFilter{Subject: 5})
		require.NoError(t, err)
		var names []string
		for _, tc := range teachers {
			names = append(names, tc.Name)
		}
		assert.ElementsMatch(t, []string{"Grace W.", "Peter Otieno"}, names)

		teachers, err = schoolRepo.QueryTeachers(ctx, school.TeacherFilter{Role: "teacher:class"})
		require.NoError(t, err)
		require.Len(t, teachers, 1)
		assert.Equal(t, 13, teachers[0].ID)

		classes, err := schoolRepo.QueryClasses(ctx)
		require.NoError(t, err)
		assert.Len(t, classes, 2)
		years, err := schoolRepo.QueryAcademicYears(ctx)
		require.NoError(t, err)
		assert.Equal(t, []school.AcademicYear{{ID: 2024, Name: "2024", IsCurrent: true}}, years)
	})

	t.Run("timetable uniqueness", func(t *testing.T) {
		repo, schoolRepo := newRepos(t)
		SeedSchool(t, schoolRepo)
		tt := CreateTimetable(t, repo, 1, 2024)

		_, err := repo.CreateTimetable(ctx, timetable.Timetable{SchoolClass: 1, AcademicYear: 2024, CreatedAt: tt.CreatedAt, UpdatedAt: tt.UpdatedAt})
		assert.True(t, errors.Is(err, timetable.ErrTimetableExists), "error = %v", err)

		other := CreateTimetable(t, repo, 2, 2024)
		other.SchoolClass = 1
		other.UpdatedAt = time.Now().UTC()
		_, err = repo.UpdateTimetable(ctx, other)
		assert.True(t, errors.Is(err, timetable.ErrTimetableExists), "error = %v", err)

		active := true
		tts, err := repo.QueryTimetables(ctx, timetable.QueryFilter{AcademicYear: 2024, IsActive: &active},
			[]core.DBOrdering{{Field: "school_class", Ascending: false}})
		require.NoError(t, err)
		require.Len(t, tts, 2)
		assert.Equal(t, 2, tts[0].SchoolClass)

		_, err = repo.GetTimetable(ctx, 999)
		assert.True(t, errors.Is(err, timetable.ErrTimetableNotFound))
	})

	t.Run("session uniqueness", func(t *testing.T) {
		repo, schoolRepo := newRepos(t)
		SeedSchool(t, schoolRepo)
		tt1 := CreateTimetable(t, repo, 1, 2024)
		tt2 := CreateTimetable(t, repo, 2, 2024)
		s := CreateSession(t, repo, tt1.ID, 1, 1, 5, 12)
		assert.Equal(t, "08:00", s.StartTime)
		assert.Equal(t, "09:00", s.EndTime)

		tests := []struct {
			name    string
			sess    timetable.Session
			wantErr error
		}{
			{
				name:    "slot taken",
				sess:    timetable.Session{Timetable: tt1.ID, DayOfWeek: 1, SessionOrder: 1, StartTime: "08:00", EndTime: "09:00", Subject: 6, Teacher: 13, IsActive: true},
				wantErr: timetable.ErrSlotTaken,
			},
			{
				name:    "teacher busy in another class",
				sess:    timetable.Session{Timetable: tt2.ID, DayOfWeek: 1, SessionOrder: 1, StartTime: "08:00", EndTime: "09:00", Subject: 5, Teacher: 12, IsActive: true},
				wantErr: timetable.ErrTeacherBusy,
			},
			{
				name:    "unknown timetable",
				sess:    timetable.Session{Timetable: 999, DayOfWeek: 2, SessionOrder: 1, StartTime: "08:00", EndTime: "09:00", Subject: 5, Teacher: 12, IsActive: true},
				wantErr: timetable.ErrTimetableNotFound,
			},
			{
				name: "inactive sessions do not collide",
				sess: timetable.Session{Timetable: tt1.ID, DayOfWeek: 1, SessionOrder: 1, StartTime: "08:00", EndTime: "09:00", Subject: 5, Teacher: 12},
			},
			{
				name: "same teacher another day",
				sess: timetable.Session{Timetable: tt2.ID, DayOfWeek: 2, SessionOrder: 1, StartTime: "08:00", EndTime: "09:00", Subject: 5, Teacher: 12, IsActive: true},
			},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				now := time.Now().UTC()
				tc.sess.CreatedAt, tc.sess.UpdatedAt = now, now
				got, created, err := repo.CreateSession(ctx, tc.sess, "")
				if tc.wantErr != nil {
					assert.True(t, errors.Is(err, tc.wantErr), "error = %v, want %v", err, tc.wantErr)
					return
				}
				require.NoError(t, err)
				assert.True(t, created)
				assert.NotZero(t, got.ID)
			})
		}

		// moving s away frees its slot
		s.SessionOrder, s.StartTime, s.EndTime = 2, "09:00", "10:00"
		s.UpdatedAt = time.Now().UTC()
		moved, err := repo.UpdateSession(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, 2, moved.SessionOrder)
		CreateSession(t, repo, tt1.ID, 1, 1, 6, 13)
	})

	t.Run("idempotent create", func(t *testing.T) {
		repo, schoolRepo := newRepos(t)
		SeedSchool(t, schoolRepo)
		tt := CreateTimetable(t, repo, 1, 2024)
		now := time.Now().UTC()
		room := 3
		sess := timetable.Session{
			Timetable: tt.ID, DayOfWeek: 3, SessionOrder: 2, StartTime: "09:00", EndTime: "10:00",
			Subject: 7, Teacher: 14, Room: &room, IsActive: true, CreatedAt: now, UpdatedAt: now,
		}
		key := "0b7c4a34-3f0e-4b8e-9d7e-6f1c2d3e4f50"

		first, created, err := repo.CreateSession(ctx, sess, key)
		require.NoError(t, err)
		assert.True(t, created)
		again, created, err := repo.CreateSession(ctx, sess, key)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
		require.NotNil(t, again.Room)
		assert.Equal(t, 3, *again.Room)

		sessions, err := repo.QuerySessions(ctx, timetable.SessionFilter{Timetable: tt.ID}, nil)
		require.NoError(t, err)
		assert.Len(t, sessions, 1)
	})

	t.Run("delete cascades", func(t *testing.T) {
		repo, schoolRepo := newRepos(t)
		SeedSchool(t, schoolRepo)
		tt := CreateTimetable(t, repo, 1, 2024)
		s1 := CreateSession(t, repo, tt.ID, 1, 1, 5, 12)
		CreateSession(t, repo, tt.ID, 2, 1, 5, 12)

		require.NoError(t, repo.DeleteSession(ctx, s1.ID))
		assert.True(t, errors.Is(repo.DeleteSession(ctx, s1.ID), timetable.ErrSessionNotFound))
		_, err := repo.GetSession(ctx, s1.ID)
		assert.True(t, errors.Is(err, timetable.ErrSessionNotFound))

		require.NoError(t, repo.DeleteTimetable(ctx, tt.ID))
		sessions, err := repo.QuerySessions(ctx, timetable.SessionFilter{Timetable: tt.ID}, nil)
		require.NoError(t, err)
		assert.Empty(t, sessions)
		assert.True(t, errors.Is(repo.DeleteTimetable(ctx, tt.ID), timetable.ErrTimetableNotFound))
	})

	t.Run("session ordering", func(t *testing.T) {
		repo, schoolRepo := newRepos(t)
		SeedSchool(t, schoolRepo)
		tt := CreateTimetable(t, repo, 1, 2024)
		CreateSession(t, repo, tt.ID, 3, 1, 5, 12)
		CreateSession(t, repo, tt.ID, 1, 2, 5, 12)
		CreateSession(t, repo, tt.ID, 1, 1, 6, 13)

		sessions, err := repo.QuerySessions(ctx, timetable.SessionFilter{Timetable: tt.ID},
			[]core.DBOrdering{{Field: "day_of_week", Ascending: true}, {Field: "session_order", Ascending: true}})
		require.NoError(t, err)
		var slots [][2]int
		for _, s := range sessions {
			slots = append(slots, [2]int{s.DayOfWeek, s.SessionOrder})
		}
		assert.Equal(t, [][2]int{{1, 1}, {1, 2}, {3, 1}}, slots)

		sessions, err = repo.QuerySessions(ctx, timetable.SessionFilter{Teacher: 13}, nil)
		require.NoError(t, err)
		assert.Len(t, sessions, 1)
	})
}
