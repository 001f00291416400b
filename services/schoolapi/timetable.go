package schoolapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/ratiba/core/editor"
	"github.com/trezcool/ratiba/core/timetable"
)

const (
	timetablesPath = "/attendance/timetables"
	sessionsPath   = "/attendance/timetable-sessions"
)

var _ editor.Gateway = (*Client)(nil)

func idPath(base string, id int) string {
	return base + "/" + strconv.Itoa(id)
}

func boolParam(b *bool, params map[string]string, key string) {
	if b != nil {
		params[key] = strconv.FormatBool(*b)
	}
}

func intParam(i int, params map[string]string, key string) {
	if i != 0 {
		params[key] = strconv.Itoa(i)
	}
}

func (cl *Client) QueryTimetables(ctx context.Context, filter timetable.QueryFilter) ([]timetable.Timetable, error) {
	params := make(map[string]string)
	intParam(filter.SchoolClass, params, "school_class")
	intParam(filter.AcademicYear, params, "academic_year")
	boolParam(filter.IsActive, params, "is_active")

	op := "query timetables"
	resp, err := cl.do(ctx, call{op: op, method: rest.Get, path: timetablesPath, query: params})
	if err != nil {
		return nil, err
	}
	page, err := decodeList[timetable.Timetable]([]byte(resp.Body))
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	return page.Results, nil
}

// GetTimetable returns the timetable with its sessions.
func (cl *Client) GetTimetable(ctx context.Context, id int) (timetable.Timetable, error) {
	op := "get timetable"
	resp, err := cl.do(ctx, call{op: op, method: rest.Get, path: idPath(timetablesPath, id)})
	if errors.Cause(err) == ErrNotFound {
		return timetable.Timetable{}, errors.Wrapf(timetable.ErrTimetableNotFound, "timetable %d", id)
	}
	if err != nil {
		return timetable.Timetable{}, err
	}
	var tt timetable.Timetable
	return tt, decode(op, resp, &tt)
}

// FindTimetable returns the timetable of a class for an academic year, with its sessions.
func (cl *Client) FindTimetable(ctx context.Context, schoolClass, academicYear int) (timetable.Timetable, error) {
	tts, err := cl.QueryTimetables(ctx, timetable.QueryFilter{SchoolClass: schoolClass, AcademicYear: academicYear})
	if err != nil {
		return timetable.Timetable{}, err
	}
	if len(tts) == 0 {
		return timetable.Timetable{}, timetable.ErrTimetableNotFound
	}
	return cl.GetTimetable(ctx, tts[0].ID)
}

func (cl *Client) CreateTimetable(ctx context.Context, in timetable.TimetableInput) (timetable.Timetable, error) {
	op := "create timetable"
	resp, err := cl.do(ctx, call{op: op, method: rest.Post, path: timetablesPath, body: in})
	if err != nil {
		return timetable.Timetable{}, err
	}
	var tt timetable.Timetable
	return tt, decode(op, resp, &tt)
}

func (cl *Client) QuerySessions(ctx context.Context, filter timetable.SessionFilter) ([]timetable.Session, error) {
	params := make(map[string]string)
	intParam(filter.Timetable, params, "timetable")
	intParam(filter.Teacher, params, "teacher")
	intParam(filter.DayOfWeek, params, "day_of_week")
	boolParam(filter.IsActive, params, "is_active")

	op := "query sessions"
	resp, err := cl.do(ctx, call{op: op, method: rest.Get, path: sessionsPath, query: params})
	if err != nil {
		return nil, err
	}
	page, err := decodeList[timetable.Session]([]byte(resp.Body))
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	return page.Results, nil
}

// CreateSession sends idempotencyKey so that a retried call returns the session created first.
func (cl *Client) CreateSession(ctx context.Context, in timetable.SessionInput, idempotencyKey string) (timetable.Session, error) {
	c := call{op: "create session", method: rest.Post, path: sessionsPath, body: in}
	if idempotencyKey != "" {
		c.headers = map[string]string{IdempotencyKeyHeader: idempotencyKey}
	}
	resp, err := cl.do(ctx, c)
	if err != nil {
		return timetable.Session{}, err
	}
	var s timetable.Session
	if err = decode(c.op, resp, &s); err != nil {
		return timetable.Session{}, err
	}
	if resp.StatusCode == http.StatusOK {
		cl.logger.Debug("session " + strconv.Itoa(s.ID) + " was already created with key " + idempotencyKey)
	}
	return s, nil
}

func (cl *Client) UpdateSession(ctx context.Context, id int, in timetable.SessionInput) (timetable.Session, error) {
	op := "update session"
	resp, err := cl.do(ctx, call{op: op, method: rest.Put, path: idPath(sessionsPath, id), body: in})
	if errors.Cause(err) == ErrNotFound {
		return timetable.Session{}, errors.Wrapf(timetable.ErrSessionNotFound, "session %d", id)
	}
	if err != nil {
		return timetable.Session{}, err
	}
	var s timetable.Session
	return s, decode(op, resp, &s)
}

func (cl *Client) DeleteSession(ctx context.Context, id int) error {
	_, err := cl.do(ctx, call{op: "delete session", method: rest.Delete, path: idPath(sessionsPath, id)})
	if errors.Cause(err) == ErrNotFound {
		return errors.Wrapf(timetable.ErrSessionNotFound, "session %d", id)
	}
	return err
}
