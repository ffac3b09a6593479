package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gsdev/timetable/core/schedule"
)

type scheduleApi struct {
	svc      *schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, svc *schedule.Service, validate *validator.Validate) {
	api := scheduleApi{svc: svc, validate: validate}

	g.GET("/stats", api.stats)
	g.GET("/classes", api.listClasses)
	g.GET("/classes/:classNo/students", api.listStudentNumbers)

	sg := g.Group("/students")
	sg.GET("/lookup", api.lookup)
	sg.GET("/:id", api.retrieve)
	sg.GET("/:id/schedule", api.resolve)
}

// Handlers

func (api *scheduleApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *scheduleApi) listClasses(ctx echo.Context) error {
	classes, err := api.svc.ListClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"classes": classes})
}

func (api *scheduleApi) listStudentNumbers(ctx echo.Context) error {
	classNo, err := strconv.Atoi(ctx.Param("classNo"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "class number must be an integer")
	}
	numbers, err := api.svc.ListStudentNumbers(ctx.Request().Context(), classNo)
	if err != nil {
		return errors.Wrap(err, "listing student numbers")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"class_no": classNo, "student_numbers": numbers})
}

func (api *scheduleApi) lookup(ctx echo.Context) error {
	var query lookupQuery
	if err := query.Bind(ctx, api.validate); err != nil {
		return err
	}
	st, err := api.svc.GetStudentByClassNumber(ctx.Request().Context(), query.ClassNo, query.StudentNo)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.GetStudentByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

type scheduleResponse struct {
	Student        schedule.Student       `json:"student"`
	Weekday        string                 `json:"weekday"`
	PatternClassNo int                    `json:"pattern_class_no"`
	Periods        []schedule.PeriodEntry `json:"periods"`
}

func (api *scheduleApi) resolve(ctx echo.Context) error {
	var query scheduleQuery
	if err := query.Bind(ctx, api.validate); err != nil {
		return err
	}
	weekday := query.Weekday
	if weekday == "" {
		weekday = schedule.TodayWeekday(time.Now())
	}

	st, err := api.svc.GetStudentByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	entries, err := api.svc.Resolve(ctx.Request().Context(), st, weekday)
	if err != nil {
		return err
	}
	patternClassNo, _ := schedule.PatternClassNo(st)
	return ctx.JSON(http.StatusOK, scheduleResponse{
		Student:        st,
		Weekday:        weekday,
		PatternClassNo: patternClassNo,
		Periods:        entries,
	})
}
