package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlan(t *testing.T) {
	unchanged := persisted(1, 1, 1, 5, 12, 0)
	modified := persisted(2, 1, 2, 5, 12, 0)
	deleted := persisted(3, 1, 3, 5, 12, 0)
	restored := persisted(4, 1, 4, 5, 12, 0)

	g := NewGrid(unchanged, modified, deleted, restored)
	m := modified
	m.Room = 3
	_, err := g.Upsert(m)
	require.NoError(t, err)
	require.NoError(t, g.SoftDelete(deleted.ID))
	require.NoError(t, g.SoftDelete(restored.ID))
	require.NoError(t, g.Restore(restored.ID))
	added, err := g.Upsert(Session{Day: 2, Period: 1, StartTime: "08:00", EndTime: "09:00", Subject: 6, Teacher: 13})
	require.NoError(t, err)
	dropped, err := g.Upsert(Session{Day: 2, Period: 2, StartTime: "09:00", EndTime: "10:00", Subject: 6, Teacher: 13})
	require.NoError(t, err)
	require.NoError(t, g.SoftDelete(dropped.ID))

	plan := BuildPlan(g.Changes())

	assert.Equal(t, []SessionID{added.ID}, ids(plan.Create))
	assert.Equal(t, []Session{m}, plan.Update)
	assert.Equal(t, []SessionID{deleted.ID}, ids(plan.Delete))
	assert.Equal(t, []SessionID{dropped.ID}, ids(plan.Dropped))
	assert.ElementsMatch(t, []SessionID{unchanged.ID, restored.ID}, ids(plan.Unchanged))
	assert.Equal(t, 3, plan.Calls())
	assert.False(t, plan.IsEmpty())

	// every session lands in exactly one bucket
	seen := make(map[SessionID]int)
	for _, bucket := range [][]Session{plan.Create, plan.Update, plan.Delete, plan.Dropped, plan.Unchanged} {
		for _, s := range bucket {
			seen[s.ID]++
		}
	}
	assert.Len(t, seen, g.Len())
	for id, n := range seen {
		assert.Equal(t, 1, n, "session %s", id)
	}
}

func TestBuildPlan_Empty(t *testing.T) {
	g := NewGrid(persisted(1, 1, 1, 5, 12, 0))
	assert.True(t, BuildPlan(g.Changes()).IsEmpty())
	assert.False(t, g.IsDirty())
	assert.True(t, BuildPlan(nil).IsEmpty())
}
