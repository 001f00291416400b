package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
)

type timetableRepository struct {
	tts      *timetableTable
	sessions *sessionTable
}

var _ timetable.Repository = (*timetableRepository)(nil) // interface compliance check

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{tts: db.timetable, sessions: db.session}
}

// comparison results per ordering field, negative when a sorts first
type compareFunc[T any] func(a, b T) int

func cmpInt(a, b int) int { return a - b }

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

var (
	timetableOrderings = map[string]compareFunc[timetable.Timetable]{
		"id":            func(a, b timetable.Timetable) int { return cmpInt(a.ID, b.ID) },
		"school_class":  func(a, b timetable.Timetable) int { return cmpInt(a.SchoolClass, b.SchoolClass) },
		"academic_year": func(a, b timetable.Timetable) int { return cmpInt(a.AcademicYear, b.AcademicYear) },
		"is_active":     func(a, b timetable.Timetable) int { return cmpBool(a.IsActive, b.IsActive) },
		"created_at":    func(a, b timetable.Timetable) int { return a.CreatedAt.Compare(b.CreatedAt) },
	}
	sessionOrderings = map[string]compareFunc[timetable.Session]{
		"id":            func(a, b timetable.Session) int { return cmpInt(a.ID, b.ID) },
		"timetable":     func(a, b timetable.Session) int { return cmpInt(a.Timetable, b.Timetable) },
		"day_of_week":   func(a, b timetable.Session) int { return cmpInt(a.DayOfWeek, b.DayOfWeek) },
		"session_order": func(a, b timetable.Session) int { return cmpInt(a.SessionOrder, b.SessionOrder) },
		"start_time":    func(a, b timetable.Session) int { return strings.Compare(a.StartTime, b.StartTime) },
		"teacher":       func(a, b timetable.Session) int { return cmpInt(a.Teacher, b.Teacher) },
	}
)

// sortBy sorts items by ordering, then by id. Unknown fields are ignored.
func sortBy[T any](items []T, ordering []core.DBOrdering, fields map[string]compareFunc[T]) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := fields[ord.Field]
			if !ok {
				continue
			}
			if c := cmp(items[i], items[j]); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return fields["id"](items[i], items[j]) < 0
	})
}

func (repo *timetableRepository) CreateTimetable(_ context.Context, tt timetable.Timetable) (timetable.Timetable, error) {
	repo.tts.Lock()
	defer repo.tts.Unlock()

	for _, other := range repo.tts.table {
		if other.SchoolClass == tt.SchoolClass && other.AcademicYear == tt.AcademicYear {
			return timetable.Timetable{}, timetable.ErrTimetableExists
		}
	}
	repo.tts.pk++
	tt.ID = repo.tts.pk
	tt.Sessions = nil
	repo.tts.table[tt.ID] = &tt
	return tt, nil
}

func (repo *timetableRepository) QueryTimetables(
	_ context.Context,
	filter timetable.QueryFilter,
	ordering []core.DBOrdering,
) ([]timetable.Timetable, error) {
	repo.tts.RLock()
	defer repo.tts.RUnlock()

	tts := make([]timetable.Timetable, 0, len(repo.tts.table))
	for _, tt := range repo.tts.table {
		if filter.Match(*tt) {
			tts = append(tts, *tt)
		}
	}
	sortBy(tts, ordering, timetableOrderings)
	return tts, nil
}

func (repo *timetableRepository) GetTimetable(_ context.Context, id int) (timetable.Timetable, error) {
	repo.tts.RLock()
	defer repo.tts.RUnlock()

	if tt, ok := repo.tts.table[id]; ok {
		return *tt, nil
	}
	return timetable.Timetable{}, timetable.ErrTimetableNotFound
}

func (repo *timetableRepository) UpdateTimetable(_ context.Context, tt timetable.Timetable) (timetable.Timetable, error) {
	repo.tts.Lock()
	defer repo.tts.Unlock()

	orig, ok := repo.tts.table[tt.ID]
	if !ok {
		return timetable.Timetable{}, timetable.ErrTimetableNotFound
	}
	for _, other := range repo.tts.table {
		if other.ID != tt.ID && other.SchoolClass == tt.SchoolClass && other.AcademicYear == tt.AcademicYear {
			return timetable.Timetable{}, timetable.ErrTimetableExists
		}
	}
	orig.SchoolClass = tt.SchoolClass
	orig.AcademicYear = tt.AcademicYear
	orig.IsActive = tt.IsActive
	orig.UpdatedAt = tt.UpdatedAt
	return *orig, nil
}

func (repo *timetableRepository) DeleteTimetable(_ context.Context, id int) error {
	repo.tts.Lock()
	defer repo.tts.Unlock()
	repo.sessions.Lock()
	defer repo.sessions.Unlock()

	if _, ok := repo.tts.table[id]; !ok {
		return timetable.ErrTimetableNotFound
	}
	delete(repo.tts.table, id)
	for sid, s := range repo.sessions.table {
		if s.Timetable == id {
			repo.sessions.delete(sid)
		}
	}
	return nil
}

// checkSession enforces the uniqueness rules among active sessions, ignoring the session being saved.
func (t *sessionTable) checkSession(s timetable.Session) error {
	if !s.IsActive {
		return nil
	}
	for _, other := range t.table {
		if other.ID == s.ID || !other.IsActive {
			continue
		}
		if other.Timetable == s.Timetable && other.DayOfWeek == s.DayOfWeek && other.SessionOrder == s.SessionOrder {
			return timetable.ErrSlotTaken
		}
		if other.Teacher == s.Teacher && other.DayOfWeek == s.DayOfWeek &&
			other.StartTime == s.StartTime && other.EndTime == s.EndTime {
			return timetable.ErrTeacherBusy
		}
	}
	return nil
}

func (t *sessionTable) delete(id int) {
	delete(t.table, id)
	for key, sid := range t.keys {
		if sid == id {
			delete(t.keys, key)
		}
	}
}

func (repo *timetableRepository) CreateSession(
	_ context.Context,
	s timetable.Session,
	clientKey string,
) (timetable.Session, bool, error) {
	repo.tts.RLock()
	defer repo.tts.RUnlock()
	repo.sessions.Lock()
	defer repo.sessions.Unlock()

	if clientKey != "" {
		if id, ok := repo.sessions.keys[clientKey]; ok {
			return *repo.sessions.table[id], false, nil
		}
	}
	if _, ok := repo.tts.table[s.Timetable]; !ok {
		return timetable.Session{}, false, timetable.ErrTimetableNotFound
	}
	s.ID = 0
	if err := repo.sessions.checkSession(s); err != nil {
		return timetable.Session{}, false, err
	}

	repo.sessions.pk++
	s.ID = repo.sessions.pk
	repo.sessions.table[s.ID] = &s
	if clientKey != "" {
		repo.sessions.keys[clientKey] = s.ID
	}
	return s, true, nil
}

func (repo *timetableRepository) QuerySessions(
	_ context.Context,
	filter timetable.SessionFilter,
	ordering []core.DBOrdering,
) ([]timetable.Session, error) {
	repo.sessions.RLock()
	defer repo.sessions.RUnlock()

	sessions := make([]timetable.Session, 0)
	for _, s := range repo.sessions.table {
		if filter.Match(*s) {
			sessions = append(sessions, *s)
		}
	}
	sortBy(sessions, ordering, sessionOrderings)
	return sessions, nil
}

func (repo *timetableRepository) GetSession(_ context.Context, id int) (timetable.Session, error) {
	repo.sessions.RLock()
	defer repo.sessions.RUnlock()

	if s, ok := repo.sessions.table[id]; ok {
		return *s, nil
	}
	return timetable.Session{}, timetable.ErrSessionNotFound
}

func (repo *timetableRepository) UpdateSession(_ context.Context, s timetable.Session) (timetable.Session, error) {
	repo.tts.RLock()
	defer repo.tts.RUnlock()
	repo.sessions.Lock()
	defer repo.sessions.Unlock()

	orig, ok := repo.sessions.table[s.ID]
	if !ok {
		return timetable.Session{}, timetable.ErrSessionNotFound
	}
	if _, ok := repo.tts.table[s.Timetable]; !ok {
		return timetable.Session{}, timetable.ErrTimetableNotFound
	}
	if err := repo.sessions.checkSession(s); err != nil {
		return timetable.Session{}, err
	}
	s.CreatedAt = orig.CreatedAt
	repo.sessions.table[s.ID] = &s
	return s, nil
}

func (repo *timetableRepository) DeleteSession(_ context.Context, id int) error {
	repo.sessions.Lock()
	defer repo.sessions.Unlock()

	if _, ok := repo.sessions.table[id]; !ok {
		return timetable.ErrSessionNotFound
	}
	repo.sessions.delete(id)
	return nil
}
