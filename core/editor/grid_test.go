package editor

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func persisted(id, day, period, subject, teacher, room int) Session {
	start := [...]string{"", "08:00", "09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00"}[period]
	end, _ := AddHour(start)
	return Session{
		ID:        PersistedID(id),
		Day:       day,
		Period:    period,
		StartTime: start,
		EndTime:   end,
		Subject:   subject,
		Teacher:   teacher,
		Room:      room,
	}
}

func TestSessionID(t *testing.T) {
	local := NewLocalID()
	assert.True(t, local.IsLocal())
	assert.False(t, local.IsZero())
	_, ok := local.Persisted()
	assert.False(t, ok)
	assert.Contains(t, local.String(), "local:")
	assert.NotEqual(t, local, NewLocalID())

	id := PersistedID(42)
	assert.False(t, id.IsLocal())
	n, ok := id.Persisted()
	assert.True(t, ok)
	assert.Equal(t, 42, n)
	assert.Equal(t, "42", id.String())
	assert.Equal(t, PersistedID(42), id)

	assert.True(t, SessionID{}.IsZero())
	_, ok = SessionID{}.Persisted()
	assert.False(t, ok)
}

func TestGrid_Upsert(t *testing.T) {
	s1 := persisted(1, 1, 1, 5, 12, 0)

	tests := []struct {
		name    string
		edit    func(g *Grid) (Session, error)
		want    Change
		wantErr error
	}{
		{
			name: "new session gets a local id",
			edit: func(g *Grid) (Session, error) {
				return g.Upsert(Session{Day: 2, Period: 1, StartTime: "08:00", EndTime: "09:00", Subject: 5, Teacher: 12})
			},
			want: Added{},
		},
		{
			name: "modify persisted",
			edit: func(g *Grid) (Session, error) {
				s := s1
				s.Room = 3
				return g.Upsert(s)
			},
			want: Modified{},
		},
		{
			name: "edit back to baseline",
			edit: func(g *Grid) (Session, error) {
				s := s1
				s.Room = 3
				if _, err := g.Upsert(s); err != nil {
					return s, err
				}
				return g.Upsert(s1)
			},
			want: Unchanged{},
		},
		{
			name: "unknown persisted id",
			edit: func(g *Grid) (Session, error) {
				return g.Upsert(persisted(99, 1, 2, 5, 12, 0))
			},
			wantErr: ErrSessionNotFound,
		},
		{
			name: "deleted session",
			edit: func(g *Grid) (Session, error) {
				if err := g.SoftDelete(s1.ID); err != nil {
					return s1, err
				}
				return g.Upsert(s1)
			},
			wantErr: ErrSessionDeleted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(s1)
			s, err := tt.edit(g)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			c, ok := g.Lookup(s.ID)
			require.True(t, ok)
			assert.IsType(t, tt.want, c)
			assert.Equal(t, s, c.Current())
		})
	}
}

func TestGrid_SlotUniqueness(t *testing.T) {
	g := NewGrid(persisted(1, 1, 1, 5, 12, 0))

	s, ok := g.Get(1, 1)
	require.True(t, ok)
	assert.Equal(t, PersistedID(1), s.ID)
	_, ok = g.Get(1, 2)
	assert.False(t, ok)

	// a second session in the slot is kept, and shows up as a conflict
	second, err := g.Upsert(Session{Day: 1, Period: 1, StartTime: "08:00", EndTime: "09:00", Subject: 6, Teacher: 13})
	require.NoError(t, err)
	assert.Len(t, g.At(1, 1), 2)
	s, _ = g.Get(1, 1)
	assert.Equal(t, PersistedID(1), s.ID, "Get returns the first session")

	conflicts := DetectConflicts(g.Active())
	require.Len(t, conflicts, 1)
	assert.Equal(t, []SessionID{PersistedID(1), second.ID}, conflicts[0].IDs())

	require.NoError(t, g.HardRemove(second.ID))
	assert.Empty(t, DetectConflicts(g.Active()))
}

func TestGrid_SoftDeleteRestore(t *testing.T) {
	s1 := persisted(1, 1, 1, 5, 12, 0)
	modified := s1
	modified.Notes = "lab"

	tests := []struct {
		name  string
		setup func(g *Grid) SessionID
		want  Change
	}{
		{
			name:  "unchanged",
			setup: func(g *Grid) SessionID { return s1.ID },
			want:  Unchanged{Session: s1},
		},
		{
			name: "modified",
			setup: func(g *Grid) SessionID {
				_, _ = g.Upsert(modified)
				return s1.ID
			},
			want: Modified{Session: modified, Baseline: s1},
		},
		{
			name: "added",
			setup: func(g *Grid) SessionID {
				s, _ := g.Upsert(Session{Day: 3, Period: 2, StartTime: "09:00", EndTime: "10:00", Subject: 5, Teacher: 12})
				return s.ID
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(s1)
			id := tt.setup(g)
			before, _ := g.Lookup(id)
			activeBefore := len(g.Active())

			require.NoError(t, g.SoftDelete(id))
			c, _ := g.Lookup(id)
			assert.IsType(t, Deleted{}, c)
			assert.Len(t, g.Active(), activeBefore-1)
			require.NoError(t, g.SoftDelete(id), "deleting twice")

			require.NoError(t, g.Restore(id))
			after, _ := g.Lookup(id)
			assert.Equal(t, before, after)
			if tt.want != nil {
				assert.Equal(t, tt.want, after)
			}
			assert.Len(t, g.Active(), activeBefore)
			require.NoError(t, g.Restore(id), "restoring an active session")
		})
	}

	g := NewGrid()
	assert.True(t, errors.Is(g.SoftDelete(PersistedID(7)), ErrSessionNotFound))
	assert.True(t, errors.Is(g.Restore(PersistedID(7)), ErrSessionNotFound))
}

func TestGrid_HardRemove(t *testing.T) {
	s1 := persisted(1, 1, 1, 5, 12, 0)
	g := NewGrid(s1)
	added, err := g.Upsert(Session{Day: 2, Period: 1, StartTime: "08:00", EndTime: "09:00", Subject: 5, Teacher: 12})
	require.NoError(t, err)
	addedThenDeleted, err := g.Upsert(Session{Day: 3, Period: 1, StartTime: "08:00", EndTime: "09:00", Subject: 5, Teacher: 12})
	require.NoError(t, err)
	require.NoError(t, g.SoftDelete(addedThenDeleted.ID))

	assert.True(t, errors.Is(g.HardRemove(s1.ID), ErrPersistedSession))
	require.NoError(t, g.SoftDelete(s1.ID))
	assert.True(t, errors.Is(g.HardRemove(s1.ID), ErrPersistedSession))

	require.NoError(t, g.HardRemove(added.ID))
	require.NoError(t, g.HardRemove(addedThenDeleted.ID))
	assert.True(t, errors.Is(g.HardRemove(added.ID), ErrSessionNotFound))
	assert.Equal(t, 1, g.Len())
}

func TestGrid_RemovePeriod(t *testing.T) {
	g := NewGrid(persisted(1, 1, 1, 5, 12, 0), persisted(2, 2, 1, 5, 12, 0), persisted(3, 1, 2, 6, 13, 0))
	local, err := g.Upsert(Session{Day: 3, Period: 1, StartTime: "08:00", EndTime: "09:00", Subject: 5, Teacher: 12})
	require.NoError(t, err)

	g.RemovePeriod(1)

	for _, s := range g.Active() {
		assert.NotEqual(t, 1, s.Period)
	}
	assert.Len(t, g.Active(), 1)
	_, ok := g.Lookup(local.ID)
	assert.False(t, ok, "local sessions are dropped")

	plan := BuildPlan(g.Changes())
	assert.ElementsMatch(t, []SessionID{PersistedID(1), PersistedID(2)}, ids(plan.Delete))
	assert.Empty(t, plan.Create)
}

func TestGrid_Clear(t *testing.T) {
	g := NewGrid(persisted(1, 1, 1, 5, 12, 0), persisted(2, 2, 3, 5, 12, 0))
	_, err := g.Upsert(Session{Day: 3, Period: 1, StartTime: "08:00", EndTime: "09:00", Subject: 5, Teacher: 12})
	require.NoError(t, err)

	g.Clear()
	assert.Empty(t, g.Active())
	assert.Equal(t, 2, g.Len())
	assert.Len(t, g.Baseline(), 2)
	assert.True(t, g.IsDirty())
}

func TestGrid_SyncPeriodTime(t *testing.T) {
	g := NewGrid(persisted(1, 1, 1, 5, 12, 0), persisted(2, 2, 2, 5, 12, 0))

	g.SyncPeriodTime(1, PeriodEnd, "08:45")

	s, _ := g.Get(1, 1)
	assert.Equal(t, "08:45", s.EndTime)
	c, _ := g.Lookup(PersistedID(1))
	assert.IsType(t, Modified{}, c)
	c, _ = g.Lookup(PersistedID(2))
	assert.IsType(t, Unchanged{}, c)
}

func TestGrid_SyncPeriodTime_deleted(t *testing.T) {
	g := NewGrid(persisted(1, 1, 1, 5, 12, 0), persisted(2, 2, 1, 5, 12, 0))
	added, err := g.Upsert(Session{Day: 3, Period: 1, StartTime: "08:00", EndTime: "09:00", Subject: 6, Teacher: 13})
	require.NoError(t, err)
	require.NoError(t, g.SoftDelete(PersistedID(1)))
	require.NoError(t, g.SoftDelete(added.ID))

	g.SyncPeriodTime(1, PeriodStart, "07:45")

	tests := []struct {
		name     string
		id       SessionID
		wantType Change
	}{
		{name: "persisted", id: PersistedID(1), wantType: Modified{}},
		{name: "never saved", id: added.ID, wantType: Added{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := g.Lookup(tt.id)
			assert.IsType(t, Deleted{}, c, "still deleted")
			require.NoError(t, g.Restore(tt.id))

			c, _ = g.Lookup(tt.id)
			assert.IsType(t, tt.wantType, c)
			assert.Equal(t, "07:45", c.Current().StartTime)
		})
	}
	s, _ := g.Get(2, 1)
	assert.Equal(t, "07:45", s.StartTime)
}

func ids(sessions []Session) []SessionID {
	out := make([]SessionID, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.ID)
	}
	return out
}
