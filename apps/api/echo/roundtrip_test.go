package echoapi_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/editor"
	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/services/schoolapi"
	"github.com/trezcool/ratiba/tests"
)

// Test_editRoundTrip drives the editor against the API through the HTTP client.
func Test_editRoundTrip(t *testing.T) {
	a := setup(t)
	srv := httptest.NewServer(a)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	client, err := schoolapi.NewClient(
		core.APIConfig{BaseURL: srv.URL + "/api", Token: a.adminToken, Timeout: 5 * time.Second},
		testutil.NopLogger{},
	)
	require.NoError(t, err)
	committer, err := editor.NewCommitter(client, testutil.NopLogger{}, 4)
	require.NoError(t, err)

	refs, err := school.LoadSnapshot(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, "Mary Achieng", refs.TeacherName(14))

	// add flow
	d, err := editor.NewDraft(1, 2024, "continuous", refs)
	require.NoError(t, err)
	_, err = d.AddSession(timetable.Monday, 1, 5, 12, editor.NoRoom)
	require.NoError(t, err)
	_, err = d.AddSession(timetable.Monday, 2, 6, 13, 3)
	require.NoError(t, err)
	_, err = d.AddSession(timetable.Tuesday, 1, 7, 14, editor.NoRoom)
	require.NoError(t, err)

	// a second session in an occupied slot blocks the submit
	clash, err := d.AddSession(timetable.Monday, 1, 6, 13, editor.NoRoom)
	require.NoError(t, err)
	_, err = committer.CreateTimetable(ctx, d)
	assert.True(t, errors.Is(err, editor.ErrSessionConflict), "err = %v", err)
	tts, err := client.QueryTimetables(ctx, timetable.QueryFilter{SchoolClass: 1})
	require.NoError(t, err)
	assert.Empty(t, tts)

	require.NoError(t, d.HardRemove(clash.ID))
	report, err := committer.CreateTimetable(ctx, d)
	require.NoError(t, err)
	issued, ok := report.Count(editor.OpCreate)
	assert.Equal(t, 3, issued)
	assert.Equal(t, 3, ok)
	assert.False(t, d.IsDirty())

	// a second add of the same class and year is a timetable conflict
	again, err := editor.NewDraft(1, 2024, "continuous", refs)
	require.NoError(t, err)
	_, err = committer.CreateTimetable(ctx, again)
	var cErr *core.ConflictError
	require.True(t, errors.As(err, &cErr), "err = %v", err)
	assert.Equal(t, core.TimetableConflict, cErr.Kind)

	// edit flow
	tt, err := client.FindTimetable(ctx, 1, 2024)
	require.NoError(t, err)
	require.Len(t, tt.Sessions, 3)
	d = editor.Load(tt, refs)

	monday1, ok1 := d.Get(timetable.Monday, 1)
	monday2, ok2 := d.Get(timetable.Monday, 2)
	tuesday1, ok3 := d.Get(timetable.Tuesday, 1)
	require.True(t, ok1 && ok2 && ok3)

	require.NoError(t, d.SoftDelete(monday1.ID))
	monday2.Teacher = 12
	_, err = d.Upsert(monday2)
	require.NoError(t, err)
	_, err = d.AddSession(timetable.Wednesday, 2, 7, 14, editor.NoRoom)
	require.NoError(t, err)

	report, err = committer.Commit(ctx, d)
	require.NoError(t, err)
	for _, op := range []editor.Op{editor.OpDelete, editor.OpUpdate, editor.OpCreate} {
		issued, ok := report.Count(op)
		assert.Equal(t, 1, issued, op.String())
		assert.Equal(t, 1, ok, op.String())
	}
	assert.Len(t, report.Outcomes, 3)

	tt, err = client.GetTimetable(ctx, tt.ID)
	require.NoError(t, err)
	require.Len(t, tt.Sessions, 3)
	byID := make(map[int]timetable.Session)
	for _, s := range tt.Sessions {
		byID[s.ID] = s
	}
	id, _ := tuesday1.ID.Persisted()
	assert.Equal(t, 14, byID[id].Teacher)
	id, _ = monday2.ID.Persisted()
	assert.Equal(t, 12, byID[id].Teacher)

	// nothing left to send
	report, err = committer.Commit(ctx, d)
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
}
