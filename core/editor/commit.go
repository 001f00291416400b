package editor

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
)

var ErrDraftNotPersisted = errors.New("the timetable must be created first")

// Gateway persists timetables and their sessions. Sessions are independent rows, so calls for
// different sessions may run concurrently.
type Gateway interface {
	CreateTimetable(ctx context.Context, in timetable.TimetableInput) (timetable.Timetable, error)
	// CreateSession must not create a second row when called again with the same idempotencyKey.
	CreateSession(ctx context.Context, in timetable.SessionInput, idempotencyKey string) (timetable.Session, error)
	UpdateSession(ctx context.Context, id int, in timetable.SessionInput) (timetable.Session, error)
	DeleteSession(ctx context.Context, id int) error
}

type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	default:
		return "delete"
	}
}

// Outcome is the settled result of one call.
type Outcome struct {
	Op      Op
	Session Session            // as sent
	Result  *timetable.Session // as persisted, nil for deletes and failures
	Err     error
}

// CommitReport holds one Outcome per call issued by a commit.
type CommitReport struct {
	TimetableID int
	Outcomes    []Outcome
	Dropped     int // sessions added then deleted locally, never sent
}

func (r *CommitReport) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Count returns how many calls of the given op were issued and how many of them succeeded.
func (r *CommitReport) Count(op Op) (issued, succeeded int) {
	for _, o := range r.Outcomes {
		if o.Op == op {
			issued++
			if o.Err == nil {
				succeeded++
			}
		}
	}
	return issued, succeeded
}

// CommitError is returned when some calls of a commit failed. The succeeded ones are already folded
// into the draft, so committing again only retries the failures.
type CommitError struct {
	Report *CommitReport
	Failed []Outcome
}

func (err *CommitError) Error() string {
	first := err.Failed[0]
	return fmt.Sprintf(
		"%d of %d changes failed (first: %s session %s: %v)",
		len(err.Failed), len(err.Report.Outcomes), first.Op, first.Session.ID, first.Err,
	)
}

// Unwrap exposes the failures to errors.Is / errors.As.
func (err *CommitError) Unwrap() []error {
	errs := make([]error, 0, len(err.Failed))
	for _, o := range err.Failed {
		errs = append(errs, o.Err)
	}
	return errs
}

// Committer persists drafts through a Gateway.
type Committer struct {
	gw          Gateway
	logger      core.Logger
	maxInFlight int
}

// NewCommitter returns a Committer issuing at most maxInFlight concurrent calls (0: no limit).
func NewCommitter(gw Gateway, logger core.Logger, maxInFlight int) (*Committer, error) {
	err := vala.BeginValidation().Validate(
		func() (bool, string) { return gw != nil, "Parameter was nil: gw" },
		func() (bool, string) { return logger != nil, "Parameter was nil: logger" },
		func() (bool, string) { return maxInFlight >= 0, "maxInFlight must not be negative" },
	).Check()
	if err != nil {
		return nil, err
	}
	return &Committer{gw: gw, logger: logger, maxInFlight: maxInFlight}, nil
}

// CreateTimetable persists a new draft: the timetable first, then all its sessions. Sessions are
// validated before anything is sent, and none is sent when the timetable cannot be created.
func (c *Committer) CreateTimetable(ctx context.Context, d *Draft) (*CommitReport, error) {
	if d.TimetableID == 0 {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		isActive := d.IsActive
		tt, err := c.gw.CreateTimetable(ctx, timetable.TimetableInput{
			SchoolClass:  d.SchoolClass,
			AcademicYear: d.AcademicYear,
			IsActive:     &isActive,
		})
		if err != nil {
			return nil, errors.Wrap(err, "creating timetable")
		}
		d.TimetableID = tt.ID
	}
	return c.Commit(ctx, d)
}

// Commit validates the draft then issues its pending calls. Deletes settle first so the slots they
// free can be taken again. Updates moving out of a slot or teacher booking that another change takes
// are parked inactive, then every update and create is issued concurrently. Every call settles
// independently: successes are folded into the draft and failures are left pending and reported
// through a *CommitError.
func (c *Committer) Commit(ctx context.Context, d *Draft) (*CommitReport, error) {
	if d.TimetableID == 0 {
		return nil, ErrDraftNotPersisted
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	plan := d.Plan()
	report := &CommitReport{
		TimetableID: d.TimetableID,
		Outcomes:    make([]Outcome, 0, plan.Calls()),
		Dropped:     len(plan.Dropped),
	}
	for _, s := range plan.Delete {
		report.Outcomes = append(report.Outcomes, Outcome{Op: OpDelete, Session: s})
	}
	for _, s := range plan.Update {
		report.Outcomes = append(report.Outcomes, Outcome{Op: OpUpdate, Session: s})
	}
	for _, s := range plan.Create {
		report.Outcomes = append(report.Outcomes, Outcome{Op: OpCreate, Session: s})
	}

	var deletes, writes []int
	for i, o := range report.Outcomes {
		if o.Op == OpDelete {
			deletes = append(deletes, i)
		} else {
			writes = append(writes, i)
		}
	}

	// each goroutine owns its Outcomes item
	c.settle(report.Outcomes, deletes, func(o *Outcome) {
		o.Result, o.Err = c.call(ctx, d.TimetableID, *o, true)
	})
	c.settle(report.Outcomes, vacating(d, report.Outcomes, writes), func(o *Outcome) {
		_, o.Err = c.call(ctx, d.TimetableID, *o, false)
	})
	c.settle(report.Outcomes, writes, func(o *Outcome) {
		if o.Err != nil {
			return // parking failed
		}
		o.Result, o.Err = c.call(ctx, d.TimetableID, *o, true)
	})

	for _, s := range plan.Dropped {
		d.grid.drop(s.ID)
	}
	for _, o := range report.Outcomes {
		if o.Err != nil {
			c.logger.Warn(fmt.Sprintf("%s session %s failed", o.Op, o.Session.ID), o.Err)
			continue
		}
		switch o.Op {
		case OpCreate, OpUpdate:
			d.grid.replace(o.Session.ID, Unchanged{Session: FromRecord(*o.Result)})
		case OpDelete:
			d.grid.drop(o.Session.ID)
		}
	}
	d.baseSchedule = d.schedule.Periods()

	if failed := report.Failed(); len(failed) > 0 {
		return report, &CommitError{Report: report, Failed: failed}
	}
	return report, nil
}

// settle runs fn on the given outcomes concurrently and waits for all of them.
func (c *Committer) settle(outcomes []Outcome, indexes []int, fn func(o *Outcome)) {
	var g errgroup.Group
	if c.maxInFlight > 0 {
		g.SetLimit(c.maxInFlight)
	}
	for _, i := range indexes {
		o := &outcomes[i]
		g.Go(func() error {
			fn(o)
			return nil // settle every call
		})
	}
	_ = g.Wait()
}

// vacating returns the updates whose saved slot or teacher booking is taken by another write.
func vacating(d *Draft, outcomes []Outcome, writes []int) []int {
	var parked []int
	for _, i := range writes {
		if outcomes[i].Op != OpUpdate {
			continue
		}
		ch, _ := d.grid.Lookup(outcomes[i].Session.ID)
		mod, ok := ch.(Modified)
		if !ok {
			continue
		}
		for _, j := range writes {
			if j != i && holds(mod.Baseline, outcomes[j].Session) {
				parked = append(parked, i)
				break
			}
		}
	}
	return parked
}

// holds reports whether saved occupies the slot or the teacher booking of s.
func holds(saved, s Session) bool {
	if saved.Slot() == s.Slot() {
		return true
	}
	return saved.Teacher != 0 && saved.Teacher == s.Teacher && saved.Day == s.Day &&
		saved.StartTime == s.StartTime && saved.EndTime == s.EndTime
}

// call issues the outcome's request; an update with active=false parks the session out of the grid.
func (c *Committer) call(ctx context.Context, timetableID int, o Outcome, active bool) (*timetable.Session, error) {
	switch o.Op {
	case OpCreate:
		key, _ := o.Session.ID.Local()
		rec, err := c.gw.CreateSession(ctx, o.Session.Input(timetableID), key.String())
		if err != nil {
			return nil, err
		}
		return &rec, nil
	case OpUpdate:
		id, _ := o.Session.ID.Persisted()
		in := o.Session.Input(timetableID)
		in.IsActive = &active
		rec, err := c.gw.UpdateSession(ctx, id, in)
		if err != nil {
			return nil, err
		}
		return &rec, nil
	default:
		id, _ := o.Session.ID.Persisted()
		return nil, c.gw.DeleteSession(ctx, id)
	}
}
