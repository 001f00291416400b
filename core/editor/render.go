package editor

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
)

// Render writes the active sessions as a period x day table, resolving names with the snapshot.
// Conflicting slots are prefixed with "!" and list all their sessions.
func (d *Draft) Render(w io.Writer) error {
	return renderGrid(w, d.schedule.Periods(), d.grid.Active(), d.refs)
}

// Diff returns a unified diff between the persisted timetable and the draft, empty when they match.
func (d *Draft) Diff() (string, error) {
	var saved, draft bytes.Buffer
	if err := renderGrid(&saved, d.baseSchedule, d.grid.Baseline(), d.refs); err != nil {
		return "", errors.Wrap(err, "rendering saved grid")
	}
	if err := d.Render(&draft); err != nil {
		return "", errors.Wrap(err, "rendering draft grid")
	}
	if saved.String() == draft.String() {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(saved.String()),
		B:        difflib.SplitLines(draft.String()),
		FromFile: "saved",
		ToFile:   "draft",
		Context:  1,
	})
}

func renderGrid(w io.Writer, periods []Period, sessions []Session, refs *school.Snapshot) error {
	days := []int{timetable.Monday, timetable.Tuesday, timetable.Wednesday, timetable.Thursday, timetable.Friday}
	bySlot := make(map[Slot][]Session, len(sessions))
	for _, s := range sessions {
		bySlot[s.Slot()] = append(bySlot[s.Slot()], s)
		if s.Day == timetable.Saturday && len(days) == 5 {
			days = append(days, timetable.Saturday)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"PERIOD", "TIME"}
	for _, day := range days {
		header = append(header, strings.ToUpper(timetable.DayName(day)))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, p := range periods {
		row := []string{fmt.Sprint(p.Number), p.Start + "-" + p.End}
		for _, day := range days {
			row = append(row, renderCell(bySlot[Slot{Day: day, Period: p.Number}], refs))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func renderCell(sessions []Session, refs *school.Snapshot) string {
	if len(sessions) == 0 {
		return "-"
	}
	cells := make([]string, 0, len(sessions))
	for _, s := range sessions {
		cell := refs.SubjectName(s.Subject) + " (" + refs.TeacherName(s.Teacher) + ")"
		if s.Room != NoRoom {
			cell += " @" + refs.RoomName(s.Room)
		}
		cells = append(cells, cell)
	}
	if len(cells) > 1 {
		return "!" + strings.Join(cells, " | ")
	}
	return cells[0]
}
