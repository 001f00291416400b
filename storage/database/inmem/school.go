package inmemdb

import (
	"context"

	"github.com/trezcool/ratiba/core/school"
)

type schoolRepository struct {
	db *schoolTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db.school}
}

func (repo *schoolRepository) QueryGrades(context.Context) ([]school.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]school.Grade{}, repo.db.data.Grades...), nil
}

func (repo *schoolRepository) QueryTracks(context.Context) ([]school.Track, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]school.Track{}, repo.db.data.Tracks...), nil
}

func (repo *schoolRepository) QueryClasses(context.Context) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]school.Class{}, repo.db.data.Classes...), nil
}

func (repo *schoolRepository) QuerySubjects(context.Context) ([]school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]school.Subject{}, repo.db.data.Subjects...), nil
}

func (repo *schoolRepository) QueryTeachers(_ context.Context, filter school.TeacherFilter) ([]school.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return school.FilterTeachers(append([]school.Teacher{}, repo.db.data.Teachers...), filter), nil
}

func (repo *schoolRepository) QueryRooms(context.Context) ([]school.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]school.Room{}, repo.db.data.Rooms...), nil
}

func (repo *schoolRepository) QueryAcademicYears(context.Context) ([]school.AcademicYear, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]school.AcademicYear{}, repo.db.data.AcademicYears...), nil
}

// upsert replaces the items with a known id in place and appends the others.
func upsert[T any](items, with []T, id func(T) int) []T {
	index := make(map[int]int, len(items))
	for i, item := range items {
		index[id(item)] = i
	}
	for _, item := range with {
		if i, ok := index[id(item)]; ok {
			items[i] = item
			continue
		}
		index[id(item)] = len(items)
		items = append(items, item)
	}
	return items
}

func (repo *schoolRepository) SaveData(_ context.Context, data school.Data) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	d := &repo.db.data
	d.Grades = upsert(d.Grades, data.Grades, func(g school.Grade) int { return g.ID })
	d.Tracks = upsert(d.Tracks, data.Tracks, func(t school.Track) int { return t.ID })
	d.Classes = upsert(d.Classes, data.Classes, func(c school.Class) int { return c.ID })
	d.Subjects = upsert(d.Subjects, data.Subjects, func(s school.Subject) int { return s.ID })
	d.Teachers = upsert(d.Teachers, data.Teachers, func(t school.Teacher) int { return t.ID })
	d.Rooms = upsert(d.Rooms, data.Rooms, func(r school.Room) int { return r.ID })
	d.AcademicYears = upsert(d.AcademicYears, data.AcademicYears, func(y school.AcademicYear) int { return y.ID })
	return nil
}
