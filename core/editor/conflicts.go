package editor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
)

var (
	ErrSessionConflict   = errors.New("several sessions occupy the same slot")
	ErrIncompleteSession = errors.New("sessions are missing required fields")
	ErrUnknownReference  = errors.New("sessions reference unknown records")

	requiredText = "this field is required"
	unknownText  = "unknown %s"
)

// Conflict is a slot occupied by more than one active session.
type Conflict struct {
	Slot     Slot
	Sessions []Session
}

func (c Conflict) IDs() []SessionID {
	ids := make([]SessionID, 0, len(c.Sessions))
	for _, s := range c.Sessions {
		ids = append(ids, s.ID)
	}
	return ids
}

// DetectConflicts reports every slot holding two or more of the given sessions, ordered by day then period.
// Sessions keep their input order within a conflict.
func DetectConflicts(active []Session) []Conflict {
	bySlot := make(map[Slot][]Session, len(active))
	for _, s := range active {
		bySlot[s.Slot()] = append(bySlot[s.Slot()], s)
	}

	var conflicts []Conflict
	for slot, sessions := range bySlot {
		if len(sessions) > 1 {
			conflicts = append(conflicts, Conflict{Slot: slot, Sessions: sessions})
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		a, b := conflicts[i].Slot, conflicts[j].Slot
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Period < b.Period
	})
	return conflicts
}

// Conflicting returns the set of session ids involved in a conflict.
func Conflicting(conflicts []Conflict) map[SessionID]bool {
	ids := make(map[SessionID]bool)
	for _, c := range conflicts {
		for _, s := range c.Sessions {
			ids[s.ID] = true
		}
	}
	return ids
}

func fieldKey(id SessionID, field string) string {
	return id.String() + "." + field
}

// Validate checks every active session before it is persisted and reports all the problems at once,
// keyed "<session id>.<field>". The returned *core.ValidationError wraps ErrSessionConflict when any
// slot is double booked, else ErrIncompleteSession, else ErrUnknownReference.
// Reference ids are only checked against a non-empty snapshot.
func Validate(active []Session, refs *school.Snapshot) error {
	var (
		flds                            []core.FieldError
		conflicting, incomplete, unknwn bool
	)
	addErr := func(id SessionID, field, msg string) {
		flds = append(flds, core.FieldError{Field: fieldKey(id, field), Error: msg})
	}

	for _, conflict := range DetectConflicts(active) {
		conflicting = true
		for _, s := range conflict.Sessions {
			others := make([]string, 0, len(conflict.Sessions)-1)
			for _, o := range conflict.Sessions {
				if o.ID != s.ID {
					others = append(others, o.ID.String())
				}
			}
			addErr(s.ID, "slot", fmt.Sprintf(
				"%s period %d is also taken by session %s",
				timetable.DayName(s.Day), s.Period, strings.Join(others, ", "),
			))
		}
	}

	checkRefs := !refs.IsEmpty()
	for _, s := range active {
		if s.Day < timetable.Monday || s.Day > timetable.Saturday {
			incomplete = true
			addErr(s.ID, "day_of_week", "day must be between 1 (Monday) and 6 (Saturday)")
		}
		if !timetable.ValidTime(s.StartTime) {
			incomplete = true
			addErr(s.ID, "start_time", "start_time must be a time in the HH:MM format")
		}
		if !timetable.ValidTime(s.EndTime) {
			incomplete = true
			addErr(s.ID, "end_time", "end_time must be a time in the HH:MM format")
		}

		if s.Subject == 0 {
			incomplete = true
			addErr(s.ID, "subject", requiredText)
		} else if checkRefs {
			if _, ok := refs.Subject(s.Subject); !ok {
				unknwn = true
				addErr(s.ID, "subject", fmt.Sprintf(unknownText, "subject"))
			}
		}

		if s.Teacher == 0 {
			incomplete = true
			addErr(s.ID, "teacher", requiredText)
		} else if checkRefs {
			if _, ok := refs.Teacher(s.Teacher); !ok {
				unknwn = true
				addErr(s.ID, "teacher", fmt.Sprintf(unknownText, "teacher"))
			}
		}

		if s.Room != NoRoom && checkRefs {
			if _, ok := refs.Room(s.Room); !ok {
				unknwn = true
				addErr(s.ID, "room", fmt.Sprintf(unknownText, "room"))
			}
		}
	}

	switch {
	case conflicting:
		return core.NewValidationError(ErrSessionConflict, flds...)
	case incomplete:
		return core.NewValidationError(ErrIncompleteSession, flds...)
	case unknwn:
		return core.NewValidationError(ErrUnknownReference, flds...)
	}
	return nil
}
