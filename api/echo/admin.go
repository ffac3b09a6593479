package echoapi

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gsdev/timetable/core"
	"github.com/gsdev/timetable/core/ingest"
	"github.com/gsdev/timetable/core/schedule"
)

const uploadTimeLayout = "2006-01-02 15:04:05"

type adminApi struct {
	conf   *core.Config
	logger core.Logger
	store  Store
	mirror Mirror
}

func registerAdminAPI(g *echo.Group, deps ServerDeps, admin echo.MiddlewareFunc) {
	api := adminApi{
		conf:   deps.Conf,
		logger: deps.Logger,
		store:  deps.Store,
		mirror: deps.Mirror,
	}

	ag := g.Group("/admin", admin)
	ag.POST("/upload", api.upload)
	ag.POST("/reset", api.reset)
	ag.POST("/sync", api.sync)
}

type uploadResponse struct {
	UploadID       string   `json:"upload_id"`
	StudentCount   int      `json:"student_count"`
	TimetableCount int      `json:"timetable_count"`
	Warnings       []string `json:"warnings"`
	Mirrored       bool     `json:"mirrored"`
}

// upload ingests one or both dataset files and atomically replaces the
// corresponding local tables. The remote mirror is updated best-effort; a
// mirror failure never fails the upload.
func (api *adminApi) upload(ctx echo.Context) error {
	var (
		students []schedule.Student
		patterns []schedule.PatternRow
		warnings = make([]string, 0)
	)

	studentFile, err := formFileBytes(ctx, "students")
	if err != nil {
		return err
	}
	timetableFile, err := formFileBytes(ctx, "timetable")
	if err != nil {
		return err
	}
	if studentFile == nil && timetableFile == nil {
		return core.NewValidationError(errors.New(`at least one of the "students" and "timetable" files is required`))
	}

	if studentFile != nil {
		res, err := ingest.ParseStudentFile(studentFile.data, studentFile.name, api.conf.DefaultGrade)
		if err != nil {
			return core.NewValidationError(errors.Wrap(err, "students file"))
		}
		students = res.Rows
		warnings = append(warnings, res.Warnings...)
	}
	if timetableFile != nil {
		res, err := ingest.ParseTimetableFile(timetableFile.data, timetableFile.name, api.conf.TargetGrade)
		if err != nil {
			return core.NewValidationError(errors.Wrap(err, "timetable file"))
		}
		patterns = res.Rows
		warnings = append(warnings, res.Warnings...)
	}

	uploadID := uuid.NewString()
	meta := map[string]string{
		schedule.MetaLastUpdatedAt: time.Now().Format(uploadTimeLayout),
		schedule.MetaLastUploadID:  uploadID,
	}
	reqCtx := ctx.Request().Context()
	if err = api.store.ReplaceAll(reqCtx, students, patterns, meta); err != nil {
		return errors.Wrap(err, "replacing dataset")
	}

	var mirrored bool
	if api.mirror.Configured() {
		allStudents, err := api.store.ListAllStudents(reqCtx)
		if err != nil {
			return errors.Wrap(err, "listing students for mirror push")
		}
		allPatterns, err := api.store.ListAllPatterns(reqCtx)
		if err != nil {
			return errors.Wrap(err, "listing timetable rows for mirror push")
		}
		if err = api.mirror.Push(reqCtx, allStudents, allPatterns, meta); err != nil {
			api.logger.Error(fmt.Sprintf("mirror push failed: %v", err), err)
			warnings = append(warnings, "remote mirror update failed; local data is up to date")
		} else {
			mirrored = true
		}
	}

	return ctx.JSON(http.StatusOK, uploadResponse{
		UploadID:       uploadID,
		StudentCount:   len(students),
		TimetableCount: len(patterns),
		Warnings:       warnings,
		Mirrored:       mirrored,
	})
}

func (api *adminApi) reset(ctx echo.Context) error {
	if err := api.store.Clear(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "clearing dataset")
	}
	if api.mirror.Configured() {
		if err := api.mirror.Clear(ctx.Request().Context()); err != nil {
			// local reset already happened; the remote catches up on the next push
			api.logger.Error("clearing mirror", err)
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) sync(ctx echo.Context) error {
	if !api.mirror.Configured() {
		return core.NewValidationError(errors.New("no remote mirror configured"))
	}
	stats, err := api.mirror.Sync(ctx.Request().Context(), api.store)
	if err != nil {
		return errors.Wrap(err, "syncing from mirror")
	}
	return ctx.JSON(http.StatusOK, stats)
}

type uploadedFile struct {
	name string
	data []byte
}

// formFileBytes reads an optional multipart file field; a missing field is not
// an error.
func formFileBytes(ctx echo.Context, field string) (*uploadedFile, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		// absent field (or not a multipart request at all): no file
		return nil, nil //nolint:nilerr
	}
	src, err := fh.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "opening uploaded %s file", field)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrapf(err, "reading uploaded %s file", field)
	}
	if len(data) == 0 {
		return nil, core.NewValidationError(errors.Errorf("%s file is empty", field))
	}
	return &uploadedFile{name: fh.Filename, data: data}, nil
}
