package editor

import (
	"sort"

	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
)

// TeacherSlot is a teacher booked on a day at a given time.
type TeacherSlot struct {
	Teacher int
	Day     int
	Start   string
	End     string
}

// Bookings is the set of taken teacher slots.
type Bookings map[TeacherSlot]bool

// Book records the given sessions.
func (b Bookings) Book(sessions ...Session) {
	for _, s := range sessions {
		if s.Teacher != 0 {
			b[TeacherSlot{Teacher: s.Teacher, Day: s.Day, Start: s.StartTime, End: s.EndTime}] = true
		}
	}
}

type GenerateOptions struct {
	// Days to fill, Monday to Friday by default.
	Days []int
	// Subjects are assigned to slots round-robin, in this order.
	Subjects []int
	// Teachers is the rotation used for a subject without qualified teacher in Refs.
	Teachers []int
	Refs     *school.Snapshot
	// Busy holds the teachers' commitments elsewhere, it is updated with the generated sessions.
	Busy Bookings
	// Taken slots are already filled and left alone.
	Taken map[Slot]bool
	Room  int
}

// Generate fills a week of periods round-robin. A teacher is never booked twice on the same
// (day, start, end): a taken teacher is skipped for the next one in the subject's rotation, and the slot
// is left empty when no teacher is free. Generated sessions have no id.
func Generate(periods []Period, opts GenerateOptions) []Session {
	if len(opts.Subjects) == 0 || len(periods) == 0 {
		return nil
	}
	days := opts.Days
	if len(days) == 0 {
		days = []int{timetable.Monday, timetable.Tuesday, timetable.Wednesday, timetable.Thursday, timetable.Friday}
	}
	if opts.Busy == nil {
		opts.Busy = make(Bookings)
	}
	periods = append([]Period(nil), periods...)
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].Number < periods[j].Number })

	rotations := make(map[int][]int, len(opts.Subjects))
	cursors := make(map[int]int, len(opts.Subjects))
	rotation := func(subject int) []int {
		if r, ok := rotations[subject]; ok {
			return r
		}
		var r []int
		if !opts.Refs.IsEmpty() {
			for _, t := range opts.Refs.TeachersFor(subject) {
				r = append(r, t.ID)
			}
		}
		if len(r) == 0 {
			r = opts.Teachers
		}
		rotations[subject] = r
		return r
	}

	var (
		sessions []Session
		next     int
	)
	for _, day := range days {
		for _, p := range periods {
			subject := opts.Subjects[next%len(opts.Subjects)]
			next++
			if opts.Taken[Slot{Day: day, Period: p.Number}] {
				continue
			}

			teachers := rotation(subject)
			for k := 0; k < len(teachers); k++ {
				i := (cursors[subject] + k) % len(teachers)
				key := TeacherSlot{Teacher: teachers[i], Day: day, Start: p.Start, End: p.End}
				if opts.Busy[key] {
					continue
				}
				opts.Busy[key] = true
				cursors[subject] = (i + 1) % len(teachers)
				sessions = append(sessions, Session{
					Day:       day,
					Period:    p.Number,
					StartTime: p.Start,
					EndTime:   p.End,
					Subject:   subject,
					Teacher:   teachers[i],
					Room:      opts.Room,
				})
				break
			}
		}
	}
	return sessions
}
