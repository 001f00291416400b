package school

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Loader fetches reference lists from the school backend.
type Loader interface {
	Grades(ctx context.Context) ([]Grade, error)
	Tracks(ctx context.Context) ([]Track, error)
	Classes(ctx context.Context) ([]Class, error)
	Subjects(ctx context.Context) ([]Subject, error)
	Teachers(ctx context.Context, filter TeacherFilter) ([]Teacher, error)
	Rooms(ctx context.Context) ([]Room, error)
	AcademicYears(ctx context.Context) ([]AcademicYear, error)
}

// Snapshot is a read-only view of the reference data, loaded once per editing session.
type Snapshot struct {
	data Data

	grades   map[int]Grade
	classes  map[int]Class
	subjects map[int]Subject
	teachers map[int]Teacher
	rooms    map[int]Room
	years    map[int]AcademicYear
}

// NewSnapshot indexes data. The slices are owned by the Snapshot afterwards.
func NewSnapshot(data Data) *Snapshot {
	s := &Snapshot{
		data:     data,
		grades:   make(map[int]Grade, len(data.Grades)),
		classes:  make(map[int]Class, len(data.Classes)),
		subjects: make(map[int]Subject, len(data.Subjects)),
		teachers: make(map[int]Teacher, len(data.Teachers)),
		rooms:    make(map[int]Room, len(data.Rooms)),
		years:    make(map[int]AcademicYear, len(data.AcademicYears)),
	}
	for _, g := range data.Grades {
		s.grades[g.ID] = g
	}
	for _, c := range data.Classes {
		s.classes[c.ID] = c
	}
	for _, sub := range data.Subjects {
		s.subjects[sub.ID] = sub
	}
	for _, t := range data.Teachers {
		s.teachers[t.ID] = t
	}
	for _, r := range data.Rooms {
		s.rooms[r.ID] = r
	}
	for _, y := range data.AcademicYears {
		s.years[y.ID] = y
	}
	return s
}

// LoadSnapshot fetches all reference lists concurrently; the first failure cancels the others.
func LoadSnapshot(ctx context.Context, loader Loader) (*Snapshot, error) {
	var data Data
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.Grades, err = loader.Grades(ctx)
		return errors.Wrap(err, "loading grades")
	})
	g.Go(func() (err error) {
		data.Tracks, err = loader.Tracks(ctx)
		return errors.Wrap(err, "loading tracks")
	})
	g.Go(func() (err error) {
		data.Classes, err = loader.Classes(ctx)
		return errors.Wrap(err, "loading classes")
	})
	g.Go(func() (err error) {
		data.Subjects, err = loader.Subjects(ctx)
		return errors.Wrap(err, "loading subjects")
	})
	g.Go(func() (err error) {
		data.Teachers, err = loader.Teachers(ctx, TeacherFilter{})
		return errors.Wrap(err, "loading teachers")
	})
	g.Go(func() (err error) {
		data.Rooms, err = loader.Rooms(ctx)
		return errors.Wrap(err, "loading rooms")
	})
	g.Go(func() (err error) {
		data.AcademicYears, err = loader.AcademicYears(ctx)
		return errors.Wrap(err, "loading academic years")
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewSnapshot(data), nil
}

// IsEmpty reports whether nothing was loaded, in which case id checks are skipped.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || (len(s.classes) == 0 && len(s.subjects) == 0 && len(s.teachers) == 0 && len(s.rooms) == 0)
}

func (s *Snapshot) Grades() []Grade               { return append([]Grade(nil), s.data.Grades...) }
func (s *Snapshot) Tracks() []Track               { return append([]Track(nil), s.data.Tracks...) }
func (s *Snapshot) Classes() []Class              { return append([]Class(nil), s.data.Classes...) }
func (s *Snapshot) Subjects() []Subject           { return append([]Subject(nil), s.data.Subjects...) }
func (s *Snapshot) Teachers() []Teacher           { return append([]Teacher(nil), s.data.Teachers...) }
func (s *Snapshot) Rooms() []Room                 { return append([]Room(nil), s.data.Rooms...) }
func (s *Snapshot) AcademicYears() []AcademicYear { return append([]AcademicYear(nil), s.data.AcademicYears...) }

func (s *Snapshot) Class(id int) (Class, bool) {
	c, ok := s.classes[id]
	return c, ok
}

func (s *Snapshot) Subject(id int) (Subject, bool) {
	sub, ok := s.subjects[id]
	return sub, ok
}

func (s *Snapshot) Teacher(id int) (Teacher, bool) {
	t, ok := s.teachers[id]
	return t, ok
}

func (s *Snapshot) Room(id int) (Room, bool) {
	r, ok := s.rooms[id]
	return r, ok
}

func (s *Snapshot) AcademicYear(id int) (AcademicYear, bool) {
	y, ok := s.years[id]
	return y, ok
}

// CurrentAcademicYear returns the first year flagged as current.
func (s *Snapshot) CurrentAcademicYear() (AcademicYear, bool) {
	for _, y := range s.data.AcademicYears {
		if y.IsCurrent {
			return y, true
		}
	}
	return AcademicYear{}, false
}

// ClassesInGrade keeps the loading order.
func (s *Snapshot) ClassesInGrade(grade int) []Class {
	classes := make([]Class, 0)
	for _, c := range s.data.Classes {
		if c.Grade == grade {
			classes = append(classes, c)
		}
	}
	return classes
}

// TeachersFor returns the teachers qualified for subject.
func (s *Snapshot) TeachersFor(subject int) []Teacher {
	return FilterTeachers(s.data.Teachers, TeacherFilter{Subject: subject})
}

func (s *Snapshot) TeachersWithRole(role string) []Teacher {
	return FilterTeachers(s.data.Teachers, TeacherFilter{Role: role})
}

// Display names fall back to "#<id>" for ids missing from the snapshot.

func (s *Snapshot) ClassName(id int) string {
	if c, ok := s.classes[id]; ok {
		return c.Name
	}
	return unknownName(id)
}

func (s *Snapshot) SubjectName(id int) string {
	if sub, ok := s.subjects[id]; ok {
		return sub.Name
	}
	return unknownName(id)
}

func (s *Snapshot) TeacherName(id int) string {
	if t, ok := s.teachers[id]; ok {
		return t.Name
	}
	return unknownName(id)
}

func (s *Snapshot) RoomName(id int) string {
	if id == 0 {
		return ""
	}
	if r, ok := s.rooms[id]; ok {
		return r.Name
	}
	return unknownName(id)
}

func (s *Snapshot) AcademicYearName(id int) string {
	if y, ok := s.years[id]; ok {
		return y.Name
	}
	return unknownName(id)
}

func unknownName(id int) string {
	return "#" + strconv.Itoa(id)
}
