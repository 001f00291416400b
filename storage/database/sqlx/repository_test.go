package sqlxrepos

import (
	"testing"

	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
	testutil "github.com/trezcool/ratiba/tests"
)

func TestRepositories(t *testing.T) {
	testutil.RunRepositoryTests(t, func(t *testing.T) (timetable.Repository, school.Repository) {
		db := testutil.PrepareDB(t)
		return NewTimetableRepository(db), NewSchoolRepository(db)
	})
}
