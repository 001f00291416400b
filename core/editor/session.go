package editor

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core/timetable"
)

// NoRoom is the Session.Room sentinel for "no room".
const NoRoom = 0

// SessionID identifies a session in a Grid. Sessions created locally carry a uuid until the backend
// assigns them a persisted id; the two id spaces never overlap.
type SessionID struct {
	local     uuid.UUID
	persisted int
}

func NewLocalID() SessionID { return SessionID{local: uuid.New()} }

func PersistedID(id int) SessionID { return SessionID{persisted: id} }

func (id SessionID) IsZero() bool { return id.local == uuid.Nil && id.persisted == 0 }

func (id SessionID) IsLocal() bool { return id.local != uuid.Nil }

// Local returns the local uuid, ok is false for persisted ids.
func (id SessionID) Local() (uuid.UUID, bool) { return id.local, id.IsLocal() }

// Persisted returns the backend id, ok is false for local ids.
func (id SessionID) Persisted() (int, bool) { return id.persisted, !id.IsLocal() && id.persisted != 0 }

func (id SessionID) String() string {
	switch {
	case id.IsLocal():
		return "local:" + id.local.String()
	case id.persisted != 0:
		return strconv.Itoa(id.persisted)
	default:
		return ""
	}
}

// Slot is a (day of week, period) cell of the weekly grid.
type Slot struct {
	Day    int
	Period int
}

// Period is a time slot shared by all days of the week.
type Period struct {
	Number int    `json:"period"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// Session is one class meeting as edited locally.
type Session struct {
	ID        SessionID
	Day       int // 1: Monday ... 6: Saturday
	Period    int // Period.Number
	StartTime string
	EndTime   string
	Subject   int
	Teacher   int
	Room      int // NoRoom when unset
	Notes     string
}

func (s Session) Slot() Slot { return Slot{Day: s.Day, Period: s.Period} }

// FromRecord converts a persisted session.
func FromRecord(rec timetable.Session) Session {
	return Session{
		ID:        PersistedID(rec.ID),
		Day:       rec.DayOfWeek,
		Period:    rec.SessionOrder,
		StartTime: timetable.CleanTime(rec.StartTime),
		EndTime:   timetable.CleanTime(rec.EndTime),
		Subject:   rec.Subject,
		Teacher:   rec.Teacher,
		Room:      rec.RoomID(),
		Notes:     rec.Notes,
	}
}

// Input is the payload sent to the backend to persist s in the given timetable.
func (s Session) Input(timetableID int) timetable.SessionInput {
	active := true
	in := timetable.SessionInput{
		Timetable:    timetableID,
		DayOfWeek:    s.Day,
		SessionOrder: s.Period,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Subject:      s.Subject,
		Teacher:      s.Teacher,
		Notes:        s.Notes,
		IsActive:     &active,
	}
	if s.Room != NoRoom {
		room := s.Room
		in.Room = &room
	}
	return in
}
