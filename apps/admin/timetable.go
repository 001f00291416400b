package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/editor"
	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
)

// load fetches the reference data, then the timetable by id or by (class, year).
func (cli *commandLine) load(ctx context.Context, gw apiClient, id, class, year int) (*editor.Draft, error) {
	refs, err := school.LoadSnapshot(ctx, gw)
	if err != nil {
		return nil, err
	}

	var tt timetable.Timetable
	if id != 0 {
		tt, err = gw.GetTimetable(ctx, id)
	} else {
		if year, err = academicYear(refs, year); err != nil {
			return nil, err
		}
		tt, err = gw.FindTimetable(ctx, class, year)
	}
	if err != nil {
		return nil, err
	}
	return editor.Load(tt, refs), nil
}

func academicYear(refs *school.Snapshot, year int) (int, error) {
	if year != 0 {
		return year, nil
	}
	current, ok := refs.CurrentAcademicYear()
	if !ok {
		return 0, errors.New("no current academic year, use -year")
	}
	return current.ID, nil
}

func (cli *commandLine) printHeader(d *editor.Draft) {
	refs := d.Refs()
	id := "new"
	if d.TimetableID != 0 {
		id = fmt.Sprintf("#%d", d.TimetableID)
	}
	fmt.Fprintf(cli.out, "Timetable %s: %s, %s\n\n", id, refs.ClassName(d.SchoolClass), refs.AcademicYearName(d.AcademicYear))
}

func (cli *commandLine) printPlan(plan editor.Plan) {
	fmt.Fprintf(
		cli.out,
		"%d to create, %d to update, %d to delete, %d unchanged\n",
		len(plan.Create), len(plan.Update), len(plan.Delete), len(plan.Unchanged),
	)
}

func (cli *commandLine) show(ctx context.Context, id, class, year int) error {
	gw, err := cli.client()
	if err != nil {
		return err
	}
	d, err := cli.load(ctx, gw, id, class, year)
	if err != nil {
		return err
	}
	cli.printHeader(d)
	return d.Render(cli.out)
}

// busyElsewhere books the active sessions of every timetable but skip.
func busyElsewhere(ctx context.Context, gw apiClient, skip int) (editor.Bookings, error) {
	isActive := true
	records, err := gw.QuerySessions(ctx, timetable.SessionFilter{IsActive: &isActive})
	if err != nil {
		return nil, errors.Wrap(err, "loading teacher bookings")
	}
	busy := make(editor.Bookings)
	for _, rec := range records {
		if rec.Timetable != skip {
			busy.Book(editor.FromRecord(rec))
		}
	}
	return busy, nil
}

func subjectIDs(refs *school.Snapshot) []int {
	subjects := refs.Subjects()
	ids := make([]int, 0, len(subjects))
	for _, sub := range subjects {
		ids = append(ids, sub.ID)
	}
	return ids
}

func (cli *commandLine) generate(ctx context.Context, class, year int, template string, days []int, dryRun bool) error {
	gw, err := cli.client()
	if err != nil {
		return err
	}
	refs, err := school.LoadSnapshot(ctx, gw)
	if err != nil {
		return err
	}
	if _, ok := refs.Class(class); !ok {
		return errors.Errorf("unknown school class %d", class)
	}
	if year, err = academicYear(refs, year); err != nil {
		return err
	}

	d, err := editor.NewDraft(class, year, template, refs)
	if err != nil {
		return err
	}
	busy, err := busyElsewhere(ctx, gw, 0)
	if err != nil {
		return err
	}
	if _, err = d.Generate(editor.GenerateOptions{Days: days, Subjects: subjectIDs(refs), Busy: busy, Room: editor.NoRoom}); err != nil {
		return err
	}

	cli.printHeader(d)
	if err = d.Render(cli.out); err != nil {
		return err
	}
	fmt.Fprintln(cli.out)
	cli.printPlan(d.Plan())
	if dryRun {
		return nil
	}

	committer, err := editor.NewCommitter(gw, cli.logger, cli.conf.API.MaxInFlight)
	if err != nil {
		return err
	}
	report, err := committer.CreateTimetable(ctx, d)
	if report != nil {
		issued, succeeded := report.Count(editor.OpCreate)
		fmt.Fprintf(cli.out, "timetable #%d saved: %d/%d sessions created\n", report.TimetableID, succeeded, issued)
	}
	return err
}

func (cli *commandLine) diff(ctx context.Context, id int, template string) error {
	gw, err := cli.client()
	if err != nil {
		return err
	}
	d, err := cli.load(ctx, gw, id, 0, 0)
	if err != nil {
		return err
	}
	if err = d.ApplyTemplate(template); err != nil {
		return err
	}
	busy, err := busyElsewhere(ctx, gw, d.TimetableID)
	if err != nil {
		return err
	}
	if _, err = d.Generate(editor.GenerateOptions{Subjects: subjectIDs(d.Refs()), Busy: busy, Room: editor.NoRoom}); err != nil {
		return err
	}

	diff, err := d.Diff()
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Fprintln(cli.out, "no change")
		return nil
	}
	fmt.Fprint(cli.out, diff)
	fmt.Fprintln(cli.out)
	cli.printPlan(d.Plan())
	return nil
}
