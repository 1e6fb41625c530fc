package serverutils

import (
	"errors"

	"ai-casebrief-be/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps apperr kinds to HTTP responses.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}

		status := StatusFor(err)
		return ctx.Status(status).JSON(ErrorResponse(status, err.Error()))
	}
}

func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindConflict:
		return fiber.StatusOK
	case apperr.KindTurnBudgetExceeded:
		return fiber.StatusAccepted
	case apperr.KindTransient:
		return fiber.StatusServiceUnavailable
	}
	if errors.Is(err, apperr.ErrStorageUnavailable) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// RespondOutcome writes a response that has a body even when err is set.
// Conflicts and escalations are outcomes, not failures.
func RespondOutcome[T any](ctx *fiber.Ctx, message string, data *T, err error) error {
	if err == nil {
		return ctx.JSON(SuccessResponse(message, data))
	}
	if data == nil {
		return err
	}
	switch apperr.KindOf(err) {
	case apperr.KindConflict, apperr.KindTurnBudgetExceeded:
		status := StatusFor(err)
		return ctx.Status(status).JSON(OutcomeResponse(status, err.Error(), data))
	}
	return err
}
