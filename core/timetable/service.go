package timetable

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var (
	// errors
	ErrTimetableNotFound = errors.New("timetable not found")
	ErrSessionNotFound   = errors.New("timetable session not found")
	ErrTimetableExists   = errors.New("a timetable already exists for this class and academic year")
	ErrSlotTaken         = errors.New("another session already occupies this day and period")
	ErrTeacherBusy       = errors.New("teacher is already booked on this day and time")

	// backend-style uniqueness messages, matched by clients on "unique"/"duplicate"
	timetableUniqueMsg = "The fields school_class, academic_year must make a unique set."
	slotUniqueMsg      = "The fields timetable, day_of_week, session_order must make a unique set."
	teacherUniqueMsg   = "duplicate teacher booking: teacher is already assigned on this day and time"

	nonFieldErrors = "non_field_errors"
	invalidPKText  = "invalid pk - object does not exist"

	// NowFunc is mockable in tests.
	NowFunc = time.Now
)

type (
	Repository interface {
		// CreateTimetable fails with ErrTimetableExists on a duplicate (school_class, academic_year).
		CreateTimetable(ctx context.Context, tt Timetable) (Timetable, error)
		QueryTimetables(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Timetable, error)
		GetTimetable(ctx context.Context, id int) (Timetable, error)
		UpdateTimetable(ctx context.Context, tt Timetable) (Timetable, error)
		// DeleteTimetable deletes the timetable and its sessions.
		DeleteTimetable(ctx context.Context, id int) error

		// CreateSession stores s unless clientKey was already used, in which case the session created
		// with that key is returned and created is false.
		// It fails with ErrSlotTaken or ErrTeacherBusy when s collides with an active session.
		CreateSession(ctx context.Context, s Session, clientKey string) (sess Session, created bool, err error)
		QuerySessions(ctx context.Context, filter SessionFilter, ordering []core.DBOrdering) ([]Session, error)
		GetSession(ctx context.Context, id int) (Session, error)
		UpdateSession(ctx context.Context, s Session) (Session, error)
		DeleteSession(ctx context.Context, id int) error
	}

	// Service manages timetables and their sessions on the backend.
	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{repo: repo, validate: validate, translator: translator}
}

// mapRepoError turns repository sentinels into API-facing errors.
func mapRepoError(err error) error {
	switch errors.Cause(err) {
	case ErrTimetableExists:
		return core.NewConflictError(core.TimetableConflict, timetableUniqueMsg,
			core.FieldError{Field: nonFieldErrors, Error: timetableUniqueMsg})
	case ErrSlotTaken:
		return core.NewConflictError(core.SessionConflict, slotUniqueMsg,
			core.FieldError{Field: nonFieldErrors, Error: slotUniqueMsg})
	case ErrTeacherBusy:
		return core.NewConflictError(core.TeacherConflict, teacherUniqueMsg,
			core.FieldError{Field: "teacher", Error: teacherUniqueMsg})
	}
	return err
}

func isActive(flag *bool) bool {
	return flag == nil || *flag
}

func (svc *Service) CreateTimetable(ctx context.Context, in TimetableInput) (Timetable, error) {
	if err := in.Validate(svc.validate, svc.translator); err != nil {
		return Timetable{}, err
	}
	now := NowFunc().UTC()
	tt, err := svc.repo.CreateTimetable(ctx, Timetable{
		SchoolClass:  in.SchoolClass,
		AcademicYear: in.AcademicYear,
		IsActive:     isActive(in.IsActive),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return tt, mapRepoError(err)
}

func (svc *Service) QueryTimetables(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Timetable, error) {
	return svc.repo.QueryTimetables(ctx, filter, ordering)
}

// GetTimetable returns the timetable with all its sessions, ordered by day then period.
func (svc *Service) GetTimetable(ctx context.Context, id int) (Timetable, error) {
	tt, err := svc.repo.GetTimetable(ctx, id)
	if err != nil {
		return Timetable{}, err
	}
	tt.Sessions, err = svc.repo.QuerySessions(
		ctx,
		SessionFilter{Timetable: id},
		[]core.DBOrdering{{Field: "day_of_week", Ascending: true}, {Field: "session_order", Ascending: true}},
	)
	if err != nil {
		return Timetable{}, errors.Wrap(err, "querying sessions")
	}
	return tt, nil
}

func (svc *Service) UpdateTimetable(ctx context.Context, id int, in TimetableInput) (Timetable, error) {
	if err := in.Validate(svc.validate, svc.translator); err != nil {
		return Timetable{}, err
	}
	tt, err := svc.repo.UpdateTimetable(ctx, Timetable{
		ID:           id,
		SchoolClass:  in.SchoolClass,
		AcademicYear: in.AcademicYear,
		IsActive:     isActive(in.IsActive),
		UpdatedAt:    NowFunc().UTC(),
	})
	return tt, mapRepoError(err)
}

func (svc *Service) DeleteTimetable(ctx context.Context, id int) error {
	return svc.repo.DeleteTimetable(ctx, id)
}

func (svc *Service) sessionFromInput(in SessionInput) Session {
	now := NowFunc().UTC()
	return Session{
		Timetable:    in.Timetable,
		DayOfWeek:    in.DayOfWeek,
		SessionOrder: in.SessionOrder,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		Subject:      in.Subject,
		Teacher:      in.Teacher,
		Room:         in.Room,
		Notes:        in.Notes,
		IsActive:     isActive(in.IsActive),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CreateSessionOnce creates a session. A non-empty clientKey makes the call idempotent:
// replaying it returns the session first created with that key and created=false.
func (svc *Service) CreateSessionOnce(ctx context.Context, in SessionInput, clientKey string) (Session, bool, error) {
	if err := in.Validate(svc.validate, svc.translator); err != nil {
		return Session{}, false, err
	}
	sess, created, err := svc.repo.CreateSession(ctx, svc.sessionFromInput(in), clientKey)
	if errors.Cause(err) == ErrTimetableNotFound {
		return Session{}, false, core.NewValidationError(err, core.FieldError{Field: "timetable", Error: invalidPKText})
	}
	return sess, created, mapRepoError(err)
}

func (svc *Service) CreateSession(ctx context.Context, in SessionInput, clientKey string) (Session, error) {
	sess, _, err := svc.CreateSessionOnce(ctx, in, clientKey)
	return sess, err
}

func (svc *Service) QuerySessions(ctx context.Context, filter SessionFilter, ordering []core.DBOrdering) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, filter, ordering)
}

func (svc *Service) GetSession(ctx context.Context, id int) (Session, error) {
	return svc.repo.GetSession(ctx, id)
}

func (svc *Service) UpdateSession(ctx context.Context, id int, in SessionInput) (Session, error) {
	if err := in.Validate(svc.validate, svc.translator); err != nil {
		return Session{}, err
	}
	sess := svc.sessionFromInput(in)
	sess.ID = id
	sess, err := svc.repo.UpdateSession(ctx, sess)
	if errors.Cause(err) == ErrTimetableNotFound {
		return Session{}, core.NewValidationError(err, core.FieldError{Field: "timetable", Error: invalidPKText})
	}
	return sess, mapRepoError(err)
}

func (svc *Service) DeleteSession(ctx context.Context, id int) error {
	return svc.repo.DeleteSession(ctx, id)
}
