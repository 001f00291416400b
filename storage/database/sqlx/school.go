package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core/school"
)

type (
	classRow struct {
		ID    int      `db:"id"`
		Name  string   `db:"name"`
		Grade int      `db:"grade_id"`
		Track null.Int `db:"track_id"`
	}

	teacherRow struct {
		ID       int            `db:"id"`
		Name     string         `db:"name"`
		Email    string         `db:"email"`
		Roles    pq.StringArray `db:"roles"`
		Subjects pq.Int64Array  `db:"subjects"`
	}
)

func (r teacherRow) model() school.Teacher {
	t := school.Teacher{ID: r.ID, Name: r.Name, Email: r.Email, Roles: []string(r.Roles)}
	for _, s := range r.Subjects {
		t.Subjects = append(t.Subjects, int(s))
	}
	return t
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) QueryGrades(ctx context.Context) ([]school.Grade, error) {
	grades := make([]school.Grade, 0)
	err := repo.db.SelectContext(ctx, &grades, "SELECT id, name, level FROM grade ORDER BY level, id")
	return grades, errors.Wrap(err, "querying grades")
}

func (repo *schoolRepository) QueryTracks(ctx context.Context) ([]school.Track, error) {
	tracks := make([]school.Track, 0)
	err := repo.db.SelectContext(ctx, &tracks, "SELECT id, name FROM track ORDER BY id")
	return tracks, errors.Wrap(err, "querying tracks")
}

func (repo *schoolRepository) QueryClasses(ctx context.Context) ([]school.Class, error) {
	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM school_class ORDER BY grade_id, name"); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]school.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, school.Class{ID: r.ID, Name: r.Name, Grade: r.Grade, Track: r.Track.Int})
	}
	return classes, nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	subjects := make([]school.Subject, 0)
	err := repo.db.SelectContext(ctx, &subjects, "SELECT id, name, code FROM subject ORDER BY name")
	return subjects, errors.Wrap(err, "querying subjects")
}

func (repo *schoolRepository) QueryTeachers(ctx context.Context, filter school.TeacherFilter) ([]school.Teacher, error) {
	q := "SELECT * FROM teacher WHERE true"
	var args []interface{}
	if filter.Role != "" {
		q += " AND EXISTS (SELECT 1 FROM unnest(roles) AS r WHERE r LIKE ? || '%')"
		args = append(args, filter.Role)
	}
	if filter.Subject != 0 {
		q += " AND ? = ANY(subjects)"
		args = append(args, filter.Subject)
	}
	q += " ORDER BY name"

	var rows []teacherRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]school.Teacher, 0, len(rows))
	for _, r := range rows {
		teachers = append(teachers, r.model())
	}
	return teachers, nil
}

func (repo *schoolRepository) QueryRooms(ctx context.Context) ([]school.Room, error) {
	rooms := make([]school.Room, 0)
	err := repo.db.SelectContext(ctx, &rooms, "SELECT id, name, capacity FROM room ORDER BY name")
	return rooms, errors.Wrap(err, "querying rooms")
}

func (repo *schoolRepository) QueryAcademicYears(ctx context.Context) ([]school.AcademicYear, error) {
	years := make([]school.AcademicYear, 0)
	err := repo.db.SelectContext(ctx, &years, "SELECT id, name, is_current FROM academic_year ORDER BY name DESC")
	return years, errors.Wrap(err, "querying academic years")
}

// SaveData upserts every record in one transaction, parents first.
func (repo *schoolRepository) SaveData(ctx context.Context, data school.Data) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	upsert := func(table, q string, arg interface{}) error {
		if _, err := tx.NamedExecContext(ctx, q, arg); err != nil {
			return errors.Wrapf(err, "saving %s", table)
		}
		return nil
	}

	for _, g := range data.Grades {
		if err = upsert("grade", `INSERT INTO grade (id, name, level) VALUES (:id, :name, :level)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, level = excluded.level`, g); err != nil {
			return err
		}
	}
	for _, t := range data.Tracks {
		if err = upsert("track", `INSERT INTO track (id, name) VALUES (:id, :name)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name`, t); err != nil {
			return err
		}
	}
	for _, c := range data.Classes {
		row := classRow{ID: c.ID, Name: c.Name, Grade: c.Grade, Track: null.NewInt(c.Track, c.Track != 0)}
		if err = upsert("class", `INSERT INTO school_class (id, name, grade_id, track_id)
			VALUES (:id, :name, :grade_id, :track_id)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, grade_id = excluded.grade_id,
			track_id = excluded.track_id`, row); err != nil {
			return err
		}
	}
	for _, s := range data.Subjects {
		if err = upsert("subject", `INSERT INTO subject (id, name, code) VALUES (:id, :name, :code)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, code = excluded.code`, s); err != nil {
			return err
		}
	}
	for _, t := range data.Teachers {
		row := teacherRow{ID: t.ID, Name: t.Name, Email: t.Email, Roles: pq.StringArray(t.Roles)}
		if row.Roles == nil {
			row.Roles = pq.StringArray{}
		}
		row.Subjects = pq.Int64Array{}
		for _, s := range t.Subjects {
			row.Subjects = append(row.Subjects, int64(s))
		}
		if err = upsert("teacher", `INSERT INTO teacher (id, name, email, roles, subjects)
			VALUES (:id, :name, :email, :roles, :subjects)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email,
			roles = excluded.roles, subjects = excluded.subjects`, row); err != nil {
			return err
		}
	}
	for _, r := range data.Rooms {
		if err = upsert("room", `INSERT INTO room (id, name, capacity) VALUES (:id, :name, :capacity)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, capacity = excluded.capacity`, r); err != nil {
			return err
		}
	}
	for _, y := range data.AcademicYears {
		if err = upsert("academic year", `INSERT INTO academic_year (id, name, is_current)
			VALUES (:id, :name, :is_current)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, is_current = excluded.is_current`, y); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "committing reference data")
}
