package editor

import (
	"github.com/pkg/errors"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionDeleted   = errors.New("session is marked for deletion")
	ErrPersistedSession = errors.New("persisted sessions can only be soft deleted")
)

// Change is the edit state of one session against its loaded baseline.
// It is one of Unchanged, Added, Modified or Deleted.
type Change interface {
	// Current is the session as it is now displayed / would be persisted.
	Current() Session
	isChange()
}

type (
	// Unchanged is a persisted session that matches its baseline.
	Unchanged struct {
		Session Session
	}

	// Added is a session created locally, never persisted.
	Added struct {
		Session Session
	}

	// Modified is a persisted session whose fields differ from Baseline.
	Modified struct {
		Session  Session
		Baseline Session
	}

	// Deleted is a session marked for deletion. Baseline is nil when the session was Added.
	Deleted struct {
		Session  Session
		Baseline *Session
	}
)

func (c Unchanged) Current() Session { return c.Session }
func (c Added) Current() Session     { return c.Session }
func (c Modified) Current() Session  { return c.Session }
func (c Deleted) Current() Session   { return c.Session }

func (Unchanged) isChange() {}
func (Added) isChange()     {}
func (Modified) isChange()  {}
func (Deleted) isChange()   {}

func (c Deleted) WasNew() bool { return c.Baseline == nil }

// restored is the state a deleted session goes back to.
func (c Deleted) restored() Change {
	switch {
	case c.Baseline == nil:
		return Added{Session: c.Session}
	case c.Session == *c.Baseline:
		return Unchanged{Session: c.Session}
	default:
		return Modified{Session: c.Session, Baseline: *c.Baseline}
	}
}

// Grid is the sparse (day, period) -> session mapping of a timetable being edited.
// It keeps soft-deleted sessions for undo. A Grid is not safe for concurrent use.
type Grid struct {
	order   []SessionID
	changes map[SessionID]Change
}

// NewGrid returns a grid whose baseline is the given persisted sessions.
// Sessions without a persisted id are added as new ones.
func NewGrid(sessions ...Session) *Grid {
	g := &Grid{changes: make(map[SessionID]Change, len(sessions))}
	for _, s := range sessions {
		if _, ok := s.ID.Persisted(); ok {
			g.put(Unchanged{Session: s})
			continue
		}
		if s.ID.IsZero() {
			s.ID = NewLocalID()
		}
		g.put(Added{Session: s})
	}
	return g
}

func (g *Grid) put(c Change) {
	id := c.Current().ID
	if _, ok := g.changes[id]; !ok {
		g.order = append(g.order, id)
	}
	g.changes[id] = c
}

func (g *Grid) drop(id SessionID) {
	if _, ok := g.changes[id]; !ok {
		return
	}
	delete(g.changes, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// replace swaps the entry of oldID for c, keeping its position.
func (g *Grid) replace(oldID SessionID, c Change) {
	newID := c.Current().ID
	delete(g.changes, oldID)
	g.changes[newID] = c
	for i, oid := range g.order {
		if oid == oldID {
			g.order[i] = newID
			return
		}
	}
	g.order = append(g.order, newID)
}

func isActive(c Change) bool {
	_, deleted := c.(Deleted)
	return !deleted
}

// Len counts every session, deleted ones included.
func (g *Grid) Len() int { return len(g.order) }

// Lookup returns the edit state of a session.
func (g *Grid) Lookup(id SessionID) (Change, bool) {
	c, ok := g.changes[id]
	return c, ok
}

// Get returns the first active session at (day, period).
func (g *Grid) Get(day, period int) (Session, bool) {
	for _, id := range g.order {
		c := g.changes[id]
		if s := c.Current(); isActive(c) && s.Day == day && s.Period == period {
			return s, true
		}
	}
	return Session{}, false
}

// At returns every active session at (day, period); more than one means a conflict.
func (g *Grid) At(day, period int) []Session {
	var sessions []Session
	for _, id := range g.order {
		c := g.changes[id]
		if s := c.Current(); isActive(c) && s.Day == day && s.Period == period {
			sessions = append(sessions, s)
		}
	}
	return sessions
}

// Active returns the non-deleted sessions in insertion order. It is recomputed on every call.
func (g *Grid) Active() []Session {
	sessions := make([]Session, 0, len(g.order))
	for _, id := range g.order {
		if c := g.changes[id]; isActive(c) {
			sessions = append(sessions, c.Current())
		}
	}
	return sessions
}

// Changes returns the edit state of every session, deleted ones included.
func (g *Grid) Changes() []Change {
	changes := make([]Change, 0, len(g.order))
	for _, id := range g.order {
		changes = append(changes, g.changes[id])
	}
	return changes
}

// Baseline returns the sessions as they were loaded, i.e. as they are persisted.
func (g *Grid) Baseline() []Session {
	sessions := make([]Session, 0, len(g.order))
	for _, id := range g.order {
		switch c := g.changes[id].(type) {
		case Unchanged:
			sessions = append(sessions, c.Session)
		case Modified:
			sessions = append(sessions, c.Baseline)
		case Deleted:
			if !c.WasNew() {
				sessions = append(sessions, *c.Baseline)
			}
		}
	}
	return sessions
}

// IsDirty reports whether persisting the grid would issue any call.
func (g *Grid) IsDirty() bool {
	return !BuildPlan(g.Changes()).IsEmpty()
}

// Upsert inserts s when its id is unknown (a local id is assigned to zero ids), otherwise replaces the
// session with the same id. Editing a persisted session marks it Modified, or Unchanged again
// when the edit restores its baseline.
func (g *Grid) Upsert(s Session) (Session, error) {
	if s.ID.IsZero() {
		s.ID = NewLocalID()
	}

	c, ok := g.changes[s.ID]
	if !ok {
		if !s.ID.IsLocal() {
			return Session{}, errors.Wrapf(ErrSessionNotFound, "session %s", s.ID)
		}
		g.put(Added{Session: s})
		return s, nil
	}

	switch c := c.(type) {
	case Added:
		g.put(Added{Session: s})
	case Unchanged:
		g.put(edited(s, c.Session))
	case Modified:
		g.put(edited(s, c.Baseline))
	case Deleted:
		return Session{}, errors.Wrapf(ErrSessionDeleted, "session %s", s.ID)
	}
	return s, nil
}

func edited(s, baseline Session) Change {
	if s == baseline {
		return Unchanged{Session: s}
	}
	return Modified{Session: s, Baseline: baseline}
}

// SoftDelete marks a session for deletion; it stays in the grid until Restore or commit.
// Deleting an already deleted session is a no-op.
func (g *Grid) SoftDelete(id SessionID) error {
	c, ok := g.changes[id]
	if !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	switch c := c.(type) {
	case Added:
		g.put(Deleted{Session: c.Session})
	case Unchanged:
		baseline := c.Session
		g.put(Deleted{Session: c.Session, Baseline: &baseline})
	case Modified:
		baseline := c.Baseline
		g.put(Deleted{Session: c.Session, Baseline: &baseline})
	}
	return nil
}

// Restore undoes SoftDelete. Restoring an active session is a no-op.
func (g *Grid) Restore(id SessionID) error {
	c, ok := g.changes[id]
	if !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	if d, ok := c.(Deleted); ok {
		g.put(d.restored())
	}
	return nil
}

// HardRemove removes a session that was never persisted.
func (g *Grid) HardRemove(id SessionID) error {
	c, ok := g.changes[id]
	if !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	switch c := c.(type) {
	case Added:
	case Deleted:
		if !c.WasNew() {
			return errors.Wrapf(ErrPersistedSession, "session %s", id)
		}
	default:
		return errors.Wrapf(ErrPersistedSession, "session %s", id)
	}
	g.drop(id)
	return nil
}

// discard removes local sessions and soft deletes persisted ones.
func (g *Grid) discard(id SessionID) {
	if id.IsLocal() {
		g.drop(id)
		return
	}
	_ = g.SoftDelete(id)
}

// Clear discards every session.
func (g *Grid) Clear() {
	for _, id := range append([]SessionID(nil), g.order...) {
		g.discard(id)
	}
}

// RemovePeriod discards every session bound to the period.
func (g *Grid) RemovePeriod(period int) {
	for _, id := range append([]SessionID(nil), g.order...) {
		if g.changes[id].Current().Period == period {
			g.discard(id)
		}
	}
}

// SyncPeriodTime copies a period time onto every session of that period, soft-deleted ones included
// so that a restored session matches its period.
func (g *Grid) SyncPeriodTime(period int, field PeriodField, value string) {
	for _, id := range append([]SessionID(nil), g.order...) {
		c := g.changes[id]
		s := c.Current()
		if s.Period != period {
			continue
		}
		if field == PeriodEnd {
			s.EndTime = value
		} else {
			s.StartTime = value
		}
		if d, ok := c.(Deleted); ok {
			d.Session = s
			g.put(d)
			continue
		}
		_, _ = g.Upsert(s)
	}
}
