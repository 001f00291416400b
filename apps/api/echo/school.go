package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/school"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, svc *school.Service) {
	api := schoolApi{svc: svc}

	sg := g.Group("/schools")
	sg.GET("/grades", api.queryGrades)
	sg.GET("/tracks", api.queryTracks)
	sg.GET("/classes", api.queryClasses)
	sg.GET("/subjects", api.querySubjects)
	sg.GET("/rooms", api.queryRooms)
	sg.GET("/academic-years", api.queryAcademicYears)

	g.GET("/users/teachers", api.queryTeachers)
}

// list answers a bare JSON array, never null.
func list[T any](ctx echo.Context, items []T, err error, what string) error {
	if err != nil {
		return errors.Wrap(err, "querying "+what)
	}
	if items == nil {
		items = []T{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *schoolApi) queryGrades(ctx echo.Context) error {
	grades, err := api.svc.Grades(ctx.Request().Context())
	return list(ctx, grades, err, "grades")
}

func (api *schoolApi) queryTracks(ctx echo.Context) error {
	tracks, err := api.svc.Tracks(ctx.Request().Context())
	return list(ctx, tracks, err, "tracks")
}

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	classes, err := api.svc.Classes(ctx.Request().Context())
	return list(ctx, classes, err, "classes")
}

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.Subjects(ctx.Request().Context())
	return list(ctx, subjects, err, "subjects")
}

func (api *schoolApi) queryRooms(ctx echo.Context) error {
	rooms, err := api.svc.Rooms(ctx.Request().Context())
	return list(ctx, rooms, err, "rooms")
}

func (api *schoolApi) queryAcademicYears(ctx echo.Context) error {
	years, err := api.svc.AcademicYears(ctx.Request().Context())
	return list(ctx, years, err, "academic years")
}

// queryTeachers wraps its results as {"data": {"results": [...]}} like the users service does.
func (api *schoolApi) queryTeachers(ctx echo.Context) error {
	filter := new(school.TeacherFilter)
	if err := ctx.Bind(filter); err != nil {
		filter = new(school.TeacherFilter)
	}

	teachers, err := api.svc.Teachers(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []school.Teacher{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"data": echo.Map{"results": teachers}})
}
