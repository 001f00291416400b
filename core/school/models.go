package school

import (
	"strings"
)

// Teacher roles
const (
	RoleTeacher      = "teacher:"
	RoleClassTeacher = "teacher:class"
	RoleHeadOfDept   = "teacher:hod"
)

var TeacherRoles = []string{RoleTeacher, RoleClassTeacher, RoleHeadOfDept}

type (
	Grade struct {
		ID    int    `json:"id" yaml:"id" db:"id" validate:"required"`
		Name  string `json:"name" yaml:"name" db:"name" validate:"required"`
		Level int    `json:"level" yaml:"level" db:"level"`
	}

	Track struct {
		ID   int    `json:"id" yaml:"id" db:"id" validate:"required"`
		Name string `json:"name" yaml:"name" db:"name" validate:"required"`
	}

	Class struct {
		ID    int    `json:"id" yaml:"id" validate:"required"`
		Name  string `json:"name" yaml:"name" validate:"required"`
		Grade int    `json:"grade" yaml:"grade" validate:"required"`
		Track int    `json:"track,omitempty" yaml:"track"` // 0: no track
	}

	Subject struct {
		ID   int    `json:"id" yaml:"id" db:"id" validate:"required"`
		Name string `json:"name" yaml:"name" db:"name" validate:"required"`
		Code string `json:"code" yaml:"code" db:"code" validate:"omitempty,alphanum_"`
	}

	Teacher struct {
		ID       int      `json:"id" yaml:"id" validate:"required"`
		Name     string   `json:"name" yaml:"name" validate:"required"`
		Email    string   `json:"email" yaml:"email" validate:"omitempty,email"`
		Roles    []string `json:"roles" yaml:"roles" validate:"omitempty,dive,teacherrole"`
		Subjects []int    `json:"subjects" yaml:"subjects"` // subjects the teacher is qualified for
	}

	Room struct {
		ID       int    `json:"id" yaml:"id" db:"id" validate:"required"`
		Name     string `json:"name" yaml:"name" db:"name" validate:"required"`
		Capacity int    `json:"capacity" yaml:"capacity" db:"capacity" validate:"min=0"`
	}

	AcademicYear struct {
		ID        int    `json:"id" yaml:"id" db:"id" validate:"required"`
		Name      string `json:"name" yaml:"name" db:"name" validate:"required"`
		IsCurrent bool   `json:"is_current" yaml:"is_current" db:"is_current"`
	}

	// Data holds every reference list; it is the seed file format.
	Data struct {
		Grades        []Grade        `json:"grades" yaml:"grades" validate:"dive"`
		Tracks        []Track        `json:"tracks" yaml:"tracks" validate:"dive"`
		Classes       []Class        `json:"classes" yaml:"classes" validate:"dive"`
		Subjects      []Subject      `json:"subjects" yaml:"subjects" validate:"dive"`
		Teachers      []Teacher      `json:"teachers" yaml:"teachers" validate:"dive"`
		Rooms         []Room         `json:"rooms" yaml:"rooms" validate:"dive"`
		AcademicYears []AcademicYear `json:"academic_years" yaml:"academic_years" validate:"dive"`
	}
)

func (t Teacher) RoleStartsWith(prefix string) bool {
	for _, role := range t.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

// Teaches reports whether the teacher is qualified for the subject.
func (t Teacher) Teaches(subject int) bool {
	for _, s := range t.Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

type TeacherFilter struct {
	Role    string `query:"role"`
	Subject int    `query:"subject"`
}

func (tf TeacherFilter) IsEmpty() bool {
	return tf.Role == "" && tf.Subject == 0
}

// Match applies AND on the set filter fields; Role matches by prefix.
func (tf TeacherFilter) Match(t Teacher) bool {
	if tf.Role != "" && !t.RoleStartsWith(tf.Role) {
		return false
	}
	if tf.Subject != 0 && !t.Teaches(tf.Subject) {
		return false
	}
	return true
}

// FilterTeachers returns the teachers matching the filter, keeping their order.
func FilterTeachers(teachers []Teacher, filter TeacherFilter) []Teacher {
	if filter.IsEmpty() {
		return teachers
	}
	filtered := make([]Teacher, 0, len(teachers))
	for _, t := range teachers {
		if filter.Match(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
