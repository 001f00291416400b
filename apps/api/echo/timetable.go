package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/timetable"
)

// IdempotencyKeyHeader makes a session creation replayable.
const IdempotencyKeyHeader = "Idempotency-Key"

type timetableApi struct {
	svc *timetable.Service
}

func registerTimetableAPI(g *echo.Group, svc *timetable.Service) {
	api := timetableApi{svc: svc}

	ag := g.Group("/attendance")

	tg := ag.Group("/timetables")
	tg.GET("", api.queryTimetables)
	tg.POST("", api.createTimetable, adminMiddleware())
	tg.GET("/:id", api.retrieveTimetable)
	tg.PUT("/:id", api.updateTimetable, adminMiddleware())
	tg.DELETE("/:id", api.destroyTimetable, adminMiddleware())

	sg := ag.Group("/timetable-sessions")
	sg.GET("", api.querySessions)
	sg.POST("", api.createSession, adminMiddleware())
	sg.GET("/:id", api.retrieveSession)
	sg.PUT("/:id", api.updateSession, adminMiddleware())
	sg.DELETE("/:id", api.destroySession, adminMiddleware())
}

// Timetables

func (api *timetableApi) queryTimetables(ctx echo.Context) error {
	filter := new(timetable.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, ListResponse{Results: []timetable.Timetable{}})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	tts, err := api.svc.QueryTimetables(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying timetables")
	}
	if tts == nil {
		tts = []timetable.Timetable{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Count: len(tts), Results: tts})
}

func (api *timetableApi) createTimetable(ctx echo.Context) error {
	var data timetable.TimetableInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TimetableInput")
	}

	tt, err := api.svc.CreateTimetable(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating timetable")
	}
	return ctx.JSON(http.StatusCreated, tt)
}

func (api *timetableApi) retrieveTimetable(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	tt, err := api.svc.GetTimetable(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting timetable")
	}
	if tt.Sessions == nil {
		tt.Sessions = []timetable.Session{}
	}
	return ctx.JSON(http.StatusOK, tt)
}

func (api *timetableApi) updateTimetable(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data timetable.TimetableInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TimetableInput")
	}

	tt, err := api.svc.UpdateTimetable(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating timetable")
	}
	return ctx.JSON(http.StatusOK, tt)
}

func (api *timetableApi) destroyTimetable(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTimetable(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting timetable")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Sessions

func (api *timetableApi) querySessions(ctx echo.Context) error {
	filter := new(timetable.SessionFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, ListResponse{Results: []timetable.Session{}})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	sessions, err := api.svc.QuerySessions(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []timetable.Session{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Count: len(sessions), Results: sessions})
}

// createSession answers 201 on creation, and 200 with the first session when the Idempotency-Key was already used.
func (api *timetableApi) createSession(ctx echo.Context) error {
	var data timetable.SessionInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionInput")
	}

	key := ctx.Request().Header.Get(IdempotencyKeyHeader)
	sess, created, err := api.svc.CreateSessionOnce(ctx.Request().Context(), data, key)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	if !created {
		return ctx.JSON(http.StatusOK, sess)
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *timetableApi) retrieveSession(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	sess, err := api.svc.GetSession(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *timetableApi) updateSession(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data timetable.SessionInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionInput")
	}

	sess, err := api.svc.UpdateSession(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *timetableApi) destroySession(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSession(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return ctx.NoContent(http.StatusNoContent)
}
