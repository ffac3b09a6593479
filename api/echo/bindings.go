package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type lookupQuery struct {
	ClassNo   int `query:"class_no" json:"class_no" validate:"required,min=1"`
	StudentNo int `query:"student_no" json:"student_no" validate:"required,min=1"`
}

func (q *lookupQuery) Bind(ctx echo.Context, validate *validator.Validate) error {
	if err := ctx.Bind(q); err != nil {
		return errors.Wrap(err, "binding lookup query")
	}
	return validate.Struct(q)
}

type scheduleQuery struct {
	Weekday string `query:"weekday" json:"weekday" validate:"omitempty,oneof=월 화 수 목 금"`
}

func (q *scheduleQuery) Bind(ctx echo.Context, validate *validator.Validate) error {
	if err := ctx.Bind(q); err != nil {
		return errors.Wrap(err, "binding schedule query")
	}
	return validate.Struct(q)
}
