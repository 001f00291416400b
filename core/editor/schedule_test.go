package editor

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core/timetable"
)

func TestAddHour(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "08:00", want: "09:00"},
		{in: "23:30", want: "00:30"},
		{in: "23:59", want: "00:59"},
		{in: "12:45", want: "13:45"},
		{in: "08:00:00", want: "09:00"},
		{in: "8:05", want: "09:05"},
		{in: "lol", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := AddHour(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, timetable.ErrInvalidTime), "AddHour(%q) error = %v", tt.in, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupTemplate(t *testing.T) {
	tmpl, err := LookupTemplate("continuous")
	require.NoError(t, err)
	require.Len(t, tmpl.Periods, 8)
	assert.Equal(t, Period{Number: 1, Start: "08:00", End: "09:00"}, tmpl.Periods[0])
	assert.Equal(t, Period{Number: 8, Start: "15:00", End: "16:00"}, tmpl.Periods[7])

	// callers cannot alter the template
	tmpl.Periods[0].Start = "06:00"
	again, err := LookupTemplate("continuous")
	require.NoError(t, err)
	assert.Equal(t, "08:00", again.Periods[0].Start)

	for _, tmpl := range Templates() {
		seen := make(map[int]bool)
		for _, p := range tmpl.Periods {
			assert.False(t, seen[p.Number], "%s: duplicate period %d", tmpl.Name, p.Number)
			seen[p.Number] = true
			assert.True(t, timetable.ValidTime(p.Start) && timetable.ValidTime(p.End), "%s: period %d", tmpl.Name, p.Number)
		}
	}

	_, err = LookupTemplate("lol")
	assert.True(t, errors.Is(err, ErrUnknownTemplate))
}

func TestSchedule_add(t *testing.T) {
	tests := []struct {
		name    string
		periods []Period
		want    Period
	}{
		{name: "empty", want: Period{Number: 1, Start: "08:00", End: "09:00"}},
		{
			name:    "after last",
			periods: []Period{{Number: 1, Start: "08:00", End: "09:00"}, {Number: 2, Start: "09:00", End: "09:45"}},
			want:    Period{Number: 3, Start: "09:45", End: "10:45"},
		},
		{
			name:    "sparse numbers",
			periods: []Period{{Number: 5, Start: "10:00", End: "11:00"}, {Number: 2, Start: "08:00", End: "09:00"}},
			want:    Period{Number: 6, Start: "11:00", End: "12:00"},
		},
		{
			name:    "wraps past midnight",
			periods: []Period{{Number: 1, Start: "22:30", End: "23:30"}},
			want:    Period{Number: 2, Start: "23:30", End: "00:30"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSchedule(tt.periods...)
			got := s.add()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.periods)+1, s.Len())
			p, ok := s.Period(tt.want.Number)
			assert.True(t, ok)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestSchedule_remove(t *testing.T) {
	s := NewSchedule(Period{Number: 1, Start: "08:00", End: "09:00"}, Period{Number: 2, Start: "09:00", End: "10:00"})

	assert.False(t, s.remove(3), "unknown period")
	assert.True(t, s.remove(1))
	assert.Equal(t, []Period{{Number: 2, Start: "09:00", End: "10:00"}}, s.Periods())
	assert.False(t, s.remove(2), "last period must stay")
	assert.Equal(t, 1, s.Len())
}

func TestSchedule_set(t *testing.T) {
	s := NewSchedule(Period{Number: 1, Start: "08:00", End: "09:00"})

	require.NoError(t, s.set(1, PeriodStart, "07:30:00"))
	require.NoError(t, s.set(1, PeriodEnd, "08:15"))
	assert.Equal(t, []Period{{Number: 1, Start: "07:30", End: "08:15"}}, s.Periods())

	assert.True(t, errors.Is(s.set(2, PeriodStart, "08:00"), ErrUnknownPeriod))
	assert.True(t, errors.Is(s.set(1, PeriodEnd, "lol"), timetable.ErrInvalidTime))
}
