package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var (
	timetableColumns = map[string]string{
		"id":            "id",
		"school_class":  "school_class_id",
		"academic_year": "academic_year_id",
		"is_active":     "is_active",
		"created_at":    "created_at",
	}
	sessionColumns = map[string]string{
		"id":            "id",
		"timetable":     "timetable_id",
		"day_of_week":   "day_of_week",
		"session_order": "session_order",
		"start_time":    "start_time",
		"teacher":       "teacher_id",
	}
)

type (
	timetableRow struct {
		ID           int       `db:"id"`
		SchoolClass  int       `db:"school_class_id"`
		AcademicYear int       `db:"academic_year_id"`
		IsActive     bool      `db:"is_active"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}

	sessionRow struct {
		ID           int         `db:"id"`
		Timetable    int         `db:"timetable_id"`
		DayOfWeek    int         `db:"day_of_week"`
		SessionOrder int         `db:"session_order"`
		StartTime    string      `db:"start_time"`
		EndTime      string      `db:"end_time"`
		Subject      int         `db:"subject_id"`
		Teacher      int         `db:"teacher_id"`
		Room         null.Int    `db:"room_id"`
		Notes        string      `db:"notes"`
		IsActive     bool        `db:"is_active"`
		ClientKey    null.String `db:"client_key"`
		CreatedAt    time.Time   `db:"created_at"`
		UpdatedAt    time.Time   `db:"updated_at"`
	}
)

func (r timetableRow) model() timetable.Timetable {
	return timetable.Timetable{
		ID:           r.ID,
		SchoolClass:  r.SchoolClass,
		AcademicYear: r.AcademicYear,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func newSessionRow(s timetable.Session, clientKey string) sessionRow {
	return sessionRow{
		ID:           s.ID,
		Timetable:    s.Timetable,
		DayOfWeek:    s.DayOfWeek,
		SessionOrder: s.SessionOrder,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Subject:      s.Subject,
		Teacher:      s.Teacher,
		Room:         null.IntFromPtr(s.Room),
		Notes:        s.Notes,
		IsActive:     s.IsActive,
		ClientKey:    null.NewString(clientKey, clientKey != ""),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (r sessionRow) model() timetable.Session {
	return timetable.Session{
		ID:           r.ID,
		Timetable:    r.Timetable,
		DayOfWeek:    r.DayOfWeek,
		SessionOrder: r.SessionOrder,
		StartTime:    timetable.CleanTime(r.StartTime),
		EndTime:      timetable.CleanTime(r.EndTime),
		Subject:      r.Subject,
		Teacher:      r.Teacher,
		Room:         r.Room.Ptr(),
		Notes:        r.Notes,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

// mapError turns constraint violations into timetable sentinels.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch {
	case pqErr.Code == uniqueViolation && pqErr.Constraint == "timetable_class_year_key":
		return timetable.ErrTimetableExists
	case pqErr.Code == uniqueViolation && pqErr.Constraint == "timetable_session_slot_key":
		return timetable.ErrSlotTaken
	case pqErr.Code == uniqueViolation && pqErr.Constraint == "timetable_session_teacher_key":
		return timetable.ErrTeacherBusy
	case pqErr.Code == foreignKeyViolation && pqErr.Constraint == "timetable_session_timetable_id_fkey":
		return timetable.ErrTimetableNotFound
	}
	return err
}

func orderBy(ordering []core.DBOrdering, columns map[string]string) string {
	ordering = core.CleanOrderings(ordering, columns)
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	clauses = append(clauses, "id ASC")
	return " ORDER BY " + strings.Join(clauses, ", ")
}

type timetableRepository struct {
	db *sqlx.DB
}

var _ timetable.Repository = (*timetableRepository)(nil) // interface compliance check

func NewTimetableRepository(db *sqlx.DB) timetable.Repository {
	return &timetableRepository{db: db}
}

func (repo *timetableRepository) CreateTimetable(ctx context.Context, tt timetable.Timetable) (timetable.Timetable, error) {
	var row timetableRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO timetable (school_class_id, academic_year_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING *`,
		tt.SchoolClass, tt.AcademicYear, tt.IsActive, tt.CreatedAt, tt.UpdatedAt,
	)
	if err != nil {
		return timetable.Timetable{}, errors.Wrap(mapError(err), "inserting timetable")
	}
	return row.model(), nil
}

func (repo *timetableRepository) QueryTimetables(
	ctx context.Context,
	filter timetable.QueryFilter,
	ordering []core.DBOrdering,
) ([]timetable.Timetable, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.SchoolClass != 0 {
		conds = append(conds, "school_class_id = ?")
		args = append(args, filter.SchoolClass)
	}
	if filter.AcademicYear != 0 {
		conds = append(conds, "academic_year_id = ?")
		args = append(args, filter.AcademicYear)
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *filter.IsActive)
	}

	q := "SELECT * FROM timetable"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, timetableColumns)

	var rows []timetableRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying timetables")
	}
	tts := make([]timetable.Timetable, 0, len(rows))
	for _, row := range rows {
		tts = append(tts, row.model())
	}
	return tts, nil
}

func (repo *timetableRepository) GetTimetable(ctx context.Context, id int) (timetable.Timetable, error) {
	var row timetableRow
	err := repo.db.GetContext(ctx, &row, "SELECT * FROM timetable WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return timetable.Timetable{}, timetable.ErrTimetableNotFound
	}
	if err != nil {
		return timetable.Timetable{}, errors.Wrap(err, "getting timetable")
	}
	return row.model(), nil
}

func (repo *timetableRepository) UpdateTimetable(ctx context.Context, tt timetable.Timetable) (timetable.Timetable, error) {
	var row timetableRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE timetable SET school_class_id = $2, academic_year_id = $3, is_active = $4, updated_at = $5
		WHERE id = $1 RETURNING *`,
		tt.ID, tt.SchoolClass, tt.AcademicYear, tt.IsActive, tt.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return timetable.Timetable{}, timetable.ErrTimetableNotFound
	}
	if err != nil {
		return timetable.Timetable{}, errors.Wrap(mapError(err), "updating timetable")
	}
	return row.model(), nil
}

// DeleteTimetable relies on ON DELETE CASCADE for the sessions.
func (repo *timetableRepository) DeleteTimetable(ctx context.Context, id int) error {
	return deleteByID(ctx, repo.db, "timetable", id, timetable.ErrTimetableNotFound)
}

func deleteByID(ctx context.Context, db *sqlx.DB, table string, id int, notFound error) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return errors.Wrapf(err, "deleting %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "deleting %s", table)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (repo *timetableRepository) CreateSession(
	ctx context.Context,
	s timetable.Session,
	clientKey string,
) (timetable.Session, bool, error) {
	var row sessionRow
	if clientKey != "" {
		err := repo.db.GetContext(ctx, &row, "SELECT * FROM timetable_session WHERE client_key = $1", clientKey)
		if err == nil {
			return row.model(), false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return timetable.Session{}, false, errors.Wrap(err, "looking up client key")
		}
	}

	q := `INSERT INTO timetable_session (
			timetable_id, day_of_week, session_order, start_time, end_time, subject_id, teacher_id, room_id,
			notes, is_active, client_key, created_at, updated_at
		) VALUES (
			:timetable_id, :day_of_week, :session_order, :start_time, :end_time, :subject_id, :teacher_id, :room_id,
			:notes, :is_active, :client_key, :created_at, :updated_at
		) ON CONFLICT (client_key) DO NOTHING RETURNING *`
	rows, err := repo.db.NamedQueryContext(ctx, q, newSessionRow(s, clientKey))
	if err != nil {
		return timetable.Session{}, false, errors.Wrap(mapError(err), "inserting session")
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		if err = rows.StructScan(&row); err != nil {
			return timetable.Session{}, false, errors.Wrap(err, "scanning session")
		}
		return row.model(), true, nil
	}
	if err = rows.Err(); err != nil {
		return timetable.Session{}, false, errors.Wrap(mapError(err), "inserting session")
	}

	// a concurrent call with the same key won the race
	if err = repo.db.GetContext(ctx, &row, "SELECT * FROM timetable_session WHERE client_key = $1", clientKey); err != nil {
		return timetable.Session{}, false, errors.Wrap(err, "looking up client key")
	}
	return row.model(), false, nil
}

func (repo *timetableRepository) QuerySessions(
	ctx context.Context,
	filter timetable.SessionFilter,
	ordering []core.DBOrdering,
) ([]timetable.Session, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Timetable != 0 {
		conds = append(conds, "timetable_id = ?")
		args = append(args, filter.Timetable)
	}
	if filter.Teacher != 0 {
		conds = append(conds, "teacher_id = ?")
		args = append(args, filter.Teacher)
	}
	if filter.DayOfWeek != 0 {
		conds = append(conds, "day_of_week = ?")
		args = append(args, filter.DayOfWeek)
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *filter.IsActive)
	}

	q := "SELECT * FROM timetable_session"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, sessionColumns)

	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]timetable.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.model())
	}
	return sessions, nil
}

func (repo *timetableRepository) GetSession(ctx context.Context, id int) (timetable.Session, error) {
	var row sessionRow
	err := repo.db.GetContext(ctx, &row, "SELECT * FROM timetable_session WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return timetable.Session{}, timetable.ErrSessionNotFound
	}
	if err != nil {
		return timetable.Session{}, errors.Wrap(err, "getting session")
	}
	return row.model(), nil
}

func (repo *timetableRepository) UpdateSession(ctx context.Context, s timetable.Session) (timetable.Session, error) {
	q := `UPDATE timetable_session SET
			timetable_id = :timetable_id, day_of_week = :day_of_week, session_order = :session_order,
			start_time = :start_time, end_time = :end_time, subject_id = :subject_id, teacher_id = :teacher_id,
			room_id = :room_id, notes = :notes, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id RETURNING *`
	rows, err := repo.db.NamedQueryContext(ctx, q, newSessionRow(s, ""))
	if err != nil {
		return timetable.Session{}, errors.Wrap(mapError(err), "updating session")
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return timetable.Session{}, errors.Wrap(mapError(err), "updating session")
		}
		return timetable.Session{}, timetable.ErrSessionNotFound
	}
	var row sessionRow
	if err = rows.StructScan(&row); err != nil {
		return timetable.Session{}, errors.Wrap(err, "scanning session")
	}
	return row.model(), nil
}

func (repo *timetableRepository) DeleteSession(ctx context.Context, id int) error {
	return deleteByID(ctx, repo.db, "timetable_session", id, timetable.ErrSessionNotFound)
}
