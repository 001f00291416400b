package editor

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
)

var ErrInvalidDay = errors.New("day must be between 1 (Monday) and 6 (Saturday)")

// Draft is a timetable being created or edited: its periods, its session grid and the reference data
// used to check and display it. Nothing is persisted until it is committed.
type Draft struct {
	TimetableID  int // 0 until the timetable exists on the backend
	SchoolClass  int
	AcademicYear int
	IsActive     bool

	schedule *Schedule
	grid     *Grid
	refs     *school.Snapshot

	baseSchedule []Period
}

func snapshotOrEmpty(refs *school.Snapshot) *school.Snapshot {
	if refs == nil {
		return school.NewSnapshot(school.Data{})
	}
	return refs
}

// NewDraft starts a new timetable from a period template.
func NewDraft(schoolClass, academicYear int, template string, refs *school.Snapshot) (*Draft, error) {
	tmpl, err := LookupTemplate(template)
	if err != nil {
		return nil, err
	}
	return &Draft{
		SchoolClass:  schoolClass,
		AcademicYear: academicYear,
		IsActive:     true,
		schedule:     NewSchedule(tmpl.Periods...),
		grid:         NewGrid(),
		refs:         snapshotOrEmpty(refs),
	}, nil
}

// Load starts editing a persisted timetable. The periods are derived from its sessions (the first
// session seen for a period gives its times), or from the default template when it has none.
func Load(tt timetable.Timetable, refs *school.Snapshot) *Draft {
	sessions := make([]Session, 0, len(tt.Sessions))
	for _, rec := range tt.Sessions {
		if rec.IsActive {
			sessions = append(sessions, FromRecord(rec))
		}
	}

	d := &Draft{
		TimetableID:  tt.ID,
		SchoolClass:  tt.SchoolClass,
		AcademicYear: tt.AcademicYear,
		IsActive:     tt.IsActive,
		schedule:     NewSchedule(derivePeriods(sessions)...),
		grid:         NewGrid(sessions...),
		refs:         snapshotOrEmpty(refs),
	}
	d.baseSchedule = d.schedule.Periods()
	return d
}

func derivePeriods(sessions []Session) []Period {
	seen := make(map[int]Period)
	for _, s := range sessions {
		if _, ok := seen[s.Period]; !ok {
			seen[s.Period] = Period{Number: s.Period, Start: s.StartTime, End: s.EndTime}
		}
	}
	if len(seen) == 0 {
		tmpl, _ := LookupTemplate(DefaultTemplate)
		return tmpl.Periods
	}
	periods := make([]Period, 0, len(seen))
	for _, p := range seen {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Number < periods[j].Number })
	return periods
}

func (d *Draft) Refs() *school.Snapshot { return d.refs }

// Period Schedule

func (d *Draft) Periods() []Period { return d.schedule.Periods() }

func (d *Draft) Period(number int) (Period, bool) { return d.schedule.Period(number) }

// ApplyTemplate replaces the periods with the template's and always clears the sessions.
func (d *Draft) ApplyTemplate(name string) error {
	tmpl, err := LookupTemplate(name)
	if err != nil {
		return err
	}
	d.schedule.reset(tmpl.Periods)
	d.grid.Clear()
	return nil
}

// AddPeriod appends a one hour period right after the last one.
func (d *Draft) AddPeriod() Period {
	return d.schedule.add()
}

// RemovePeriod removes a period and its sessions. It returns false, changing nothing, for an
// unknown period or when it is the last one.
func (d *Draft) RemovePeriod(number int) bool {
	if !d.schedule.remove(number) {
		return false
	}
	d.grid.RemovePeriod(number)
	return true
}

// UpdatePeriod sets a period time and copies it onto the period's sessions.
func (d *Draft) UpdatePeriod(number int, field PeriodField, value string) error {
	if err := d.schedule.set(number, field, value); err != nil {
		return err
	}
	p, _ := d.schedule.Period(number)
	if field == PeriodEnd {
		d.grid.SyncPeriodTime(number, field, p.End)
	} else {
		d.grid.SyncPeriodTime(number, field, p.Start)
	}
	return nil
}

// Session Grid

func (d *Draft) Get(day, period int) (Session, bool) { return d.grid.Get(day, period) }

func (d *Draft) At(day, period int) []Session { return d.grid.At(day, period) }

func (d *Draft) Lookup(id SessionID) (Change, bool) { return d.grid.Lookup(id) }

func (d *Draft) Active() []Session { return d.grid.Active() }

func (d *Draft) Changes() []Change { return d.grid.Changes() }

// Upsert adds or edits a session. Its period must exist; empty times are copied from the period.
func (d *Draft) Upsert(s Session) (Session, error) {
	if s.Day < timetable.Monday || s.Day > timetable.Saturday {
		return Session{}, errors.Wrapf(ErrInvalidDay, "day %d", s.Day)
	}
	p, ok := d.schedule.Period(s.Period)
	if !ok {
		return Session{}, errors.Wrapf(ErrUnknownPeriod, "period %d", s.Period)
	}
	if s.StartTime == "" {
		s.StartTime = p.Start
	}
	if s.EndTime == "" {
		s.EndTime = p.End
	}
	s.StartTime = timetable.CleanTime(s.StartTime)
	s.EndTime = timetable.CleanTime(s.EndTime)
	return d.grid.Upsert(s)
}

// AddSession adds a new session at (day, period) with the period's times.
func (d *Draft) AddSession(day, period, subject, teacher, room int) (Session, error) {
	return d.Upsert(Session{Day: day, Period: period, Subject: subject, Teacher: teacher, Room: room})
}

func (d *Draft) SoftDelete(id SessionID) error { return d.grid.SoftDelete(id) }

// Restore undoes SoftDelete; it fails when the session's period was removed meanwhile.
func (d *Draft) Restore(id SessionID) error {
	c, ok := d.grid.Lookup(id)
	if !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	if _, ok := d.schedule.Period(c.Current().Period); !ok {
		return errors.Wrapf(ErrUnknownPeriod, "period %d", c.Current().Period)
	}
	return d.grid.Restore(id)
}

func (d *Draft) HardRemove(id SessionID) error { return d.grid.HardRemove(id) }

// Conflict Detector

func (d *Draft) Conflicts() []Conflict { return DetectConflicts(d.grid.Active()) }

// Validate checks the active sessions, see Validate.
func (d *Draft) Validate() error { return Validate(d.grid.Active(), d.refs) }

// Plan returns the calls a commit would issue.
func (d *Draft) Plan() Plan { return BuildPlan(d.grid.Changes()) }

func (d *Draft) IsDirty() bool { return d.grid.IsDirty() }

// Generate fills the empty slots round-robin (see Generate) and returns the added sessions.
// The draft's own sessions are booked before generating; their slots are added to opts.Taken.
func (d *Draft) Generate(opts GenerateOptions) ([]Session, error) {
	if opts.Refs == nil {
		opts.Refs = d.refs
	}
	if opts.Busy == nil {
		opts.Busy = make(Bookings)
	}
	active := d.grid.Active()
	opts.Busy.Book(active...)
	taken := make(map[Slot]bool, len(active)+len(opts.Taken))
	for slot, ok := range opts.Taken {
		taken[slot] = ok
	}
	for _, s := range active {
		taken[s.Slot()] = true
	}
	opts.Taken = taken

	var added []Session
	for _, s := range Generate(d.schedule.Periods(), opts) {
		s, err := d.Upsert(s)
		if err != nil {
			return added, err
		}
		added = append(added, s)
	}
	return added, nil
}
