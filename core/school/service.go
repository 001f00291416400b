package school

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var (
	teacherRoleTag  = "teacherrole"
	teacherRoleText = "invalid teacher role"
)

type (
	Repository interface {
		QueryGrades(ctx context.Context) ([]Grade, error)
		QueryTracks(ctx context.Context) ([]Track, error)
		QueryClasses(ctx context.Context) ([]Class, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		// QueryTeachers applies AND on the set TeacherFilter fields; TeacherFilter.Role matches by prefix.
		QueryTeachers(ctx context.Context, filter TeacherFilter) ([]Teacher, error)
		QueryRooms(ctx context.Context) ([]Room, error)
		QueryAcademicYears(ctx context.Context) ([]AcademicYear, error)
		// SaveData upserts every record by ID.
		SaveData(ctx context.Context, data Data) error
	}

	// Service serves the reference data owned by the backend.
	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
	}
)

var _ Loader = (*Service)(nil)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{repo: repo, validate: validate, translator: translator}
}

// InitValidators registers the school validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(teacherRoleTag, teacherRoleValidation)
	core.RegisterCustomTranslation(validate, translator, teacherRoleTag, teacherRoleText)
}

func (svc *Service) Grades(ctx context.Context) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx)
}

func (svc *Service) Tracks(ctx context.Context) ([]Track, error) {
	return svc.repo.QueryTracks(ctx)
}

func (svc *Service) Classes(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryClasses(ctx)
}

func (svc *Service) Subjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *Service) Teachers(ctx context.Context, filter TeacherFilter) ([]Teacher, error) {
	filter.Role = core.CleanString(filter.Role, true /* lower */)
	return svc.repo.QueryTeachers(ctx, filter)
}

func (svc *Service) Rooms(ctx context.Context) ([]Room, error) {
	return svc.repo.QueryRooms(ctx)
}

func (svc *Service) AcademicYears(ctx context.Context) ([]AcademicYear, error) {
	return svc.repo.QueryAcademicYears(ctx)
}

// Seed validates then saves data.
func (svc *Service) Seed(ctx context.Context, data Data) error {
	for i := range data.Teachers {
		data.Teachers[i].Email = core.CleanString(data.Teachers[i].Email, true /* lower */)
	}
	if err := svc.validate.Struct(data); err != nil {
		return core.TranslateErrors(err, svc.translator)
	}
	return errors.Wrap(svc.repo.SaveData(ctx, data), "saving reference data")
}

func teacherRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range TeacherRoles {
		if role == r {
			return true
		}
	}
	return false
}
