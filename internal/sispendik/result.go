package sispendik

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"sekolah-backend/internal/validate"
)

// Result is the uniform body of every sispendik response.
type Result struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    interface{}           `json:"data,omitempty"`
	Fields  []validate.FieldError `json:"fields,omitempty"`
}

const msgServerError = "Terjadi kesalahan pada server"

func ok(c *fiber.Ctx, status int, msg string, data interface{}) error {
	return c.Status(status).JSON(Result{Success: true, Message: msg, Data: data})
}

// Fail classifies err and renders it. Unknown errors are logged and hidden.
func Fail(c *fiber.Ctx, err error) error {
	var verr *validate.ValidationError
	var ferr *fiber.Error
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(Result{
			Message: "Data tidak valid",
			Fields:  verr.Fields,
		})
	case errors.Cause(err) == ErrNotFound:
		return c.Status(fiber.StatusNotFound).JSON(Result{Message: ErrNotFound.Error()})
	case errors.As(err, &ferr):
		return c.Status(ferr.Code).JSON(Result{Message: ferr.Message})
	}
	log.Printf("[ERROR] %s %s: %+v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(Result{Message: msgServerError})
}
