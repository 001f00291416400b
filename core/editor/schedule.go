package editor

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/timetable"
)

var (
	ErrUnknownTemplate = errors.New("unknown period template")
	ErrUnknownPeriod   = errors.New("unknown period")
)

// DefaultTemplate is used when nothing else defines the periods.
const DefaultTemplate = "continuous"

// PeriodField is the editable time field of a Period.
type PeriodField int

const (
	PeriodStart PeriodField = iota
	PeriodEnd
)

func (f PeriodField) String() string {
	if f == PeriodEnd {
		return "end"
	}
	return "start"
}

// Template is a named, predefined list of periods.
type Template struct {
	Name    string
	Label   string
	Periods []Period
}

var templates = []Template{
	{
		Name:    "continuous",
		Label:   "Continuous (8 x 1h, 08:00-16:00)",
		Periods: hourly("08:00", 8),
	},
	{
		Name:  "standard",
		Label: "Standard (8 x 45min, morning break & lunch)",
		Periods: []Period{
			{Number: 1, Start: "08:00", End: "08:45"},
			{Number: 2, Start: "08:45", End: "09:30"},
			{Number: 3, Start: "09:30", End: "10:15"},
			{Number: 4, Start: "10:30", End: "11:15"},
			{Number: 5, Start: "11:15", End: "12:00"},
			{Number: 6, Start: "13:00", End: "13:45"},
			{Number: 7, Start: "13:45", End: "14:30"},
			{Number: 8, Start: "14:30", End: "15:15"},
		},
	},
	{
		Name:    "half_day",
		Label:   "Half day (4 x 1h, 08:00-12:00)",
		Periods: hourly("08:00", 4),
	},
}

func hourly(start string, n int) []Period {
	periods := make([]Period, 0, n)
	for i := 1; i <= n; i++ {
		end, err := AddHour(start)
		if err != nil {
			panic(err)
		}
		periods = append(periods, Period{Number: i, Start: start, End: end})
		start = end
	}
	return periods
}

// Templates lists the available templates.
func Templates() []Template {
	tmpls := make([]Template, len(templates))
	copy(tmpls, templates)
	return tmpls
}

func LookupTemplate(name string) (Template, error) {
	for _, tmpl := range templates {
		if tmpl.Name == name {
			tmpl.Periods = append([]Period(nil), tmpl.Periods...)
			return tmpl, nil
		}
	}
	return Template{}, errors.Wrapf(ErrUnknownTemplate, "%q", name)
}

// AddHour adds one hour to an "HH:MM" time of day, wrapping past midnight.
func AddHour(hhmm string) (string, error) {
	t, err := timetable.ParseTime(hhmm)
	if err != nil {
		return "", err
	}
	return t.Add(time.Hour).Format(timetable.TimeLayout), nil
}

// Schedule is the ordered list of periods of a timetable. Period numbers are unique.
type Schedule struct {
	periods []Period
}

func NewSchedule(periods ...Period) *Schedule {
	s := &Schedule{}
	s.reset(periods)
	return s
}

func (s *Schedule) reset(periods []Period) {
	s.periods = append(make([]Period, 0, len(periods)), periods...)
	sort.SliceStable(s.periods, func(i, j int) bool { return s.periods[i].Number < s.periods[j].Number })
}

// Periods returns a copy of the periods, by ascending number.
func (s *Schedule) Periods() []Period {
	return append([]Period(nil), s.periods...)
}

func (s *Schedule) Len() int { return len(s.periods) }

func (s *Schedule) Period(number int) (Period, bool) {
	if i := s.index(number); i >= 0 {
		return s.periods[i], true
	}
	return Period{}, false
}

func (s *Schedule) index(number int) int {
	i := sort.Search(len(s.periods), func(i int) bool { return s.periods[i].Number >= number })
	if i < len(s.periods) && s.periods[i].Number == number {
		return i
	}
	return -1
}

// add appends a one hour period starting when the last one ends.
func (s *Schedule) add() Period {
	p := Period{Number: 1, Start: "08:00"}
	if n := len(s.periods); n > 0 {
		last := s.periods[n-1]
		p.Number = last.Number + 1
		p.Start = last.End
	}
	end, err := AddHour(p.Start)
	if err != nil {
		end = p.Start
	}
	p.End = end
	s.periods = append(s.periods, p)
	return p
}

// remove deletes a period; the last remaining period cannot be removed.
func (s *Schedule) remove(number int) bool {
	if len(s.periods) <= 1 {
		return false
	}
	i := s.index(number)
	if i < 0 {
		return false
	}
	s.periods = append(s.periods[:i], s.periods[i+1:]...)
	return true
}

func (s *Schedule) set(number int, field PeriodField, value string) error {
	i := s.index(number)
	if i < 0 {
		return errors.Wrapf(ErrUnknownPeriod, "period %d", number)
	}
	if !timetable.ValidTime(value) {
		return errors.Wrapf(timetable.ErrInvalidTime, "period %d %s", number, field)
	}
	value = timetable.CleanTime(value)
	if field == PeriodEnd {
		s.periods[i].End = value
	} else {
		s.periods[i].Start = value
	}
	return nil
}
