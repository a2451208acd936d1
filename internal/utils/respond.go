package utils

import (
	"github.com/gofiber/fiber/v3"
)

// Reason codes surfaced to clients so the UI can render a specific message.
const (
	CodeInvalidInput      = "invalid_input"
	CodeSelfExchange      = "self_exchange"
	CodeWrongOwner        = "wrong_owner"
	CodeDuplicateActive   = "duplicate_active"
	CodeInvalidTransition = "invalid_transition"
	CodeNotParticipant    = "not_participant"
	CodeNotCompleted      = "not_completed"
	CodeAlreadyRated      = "already_rated"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeLinkDecided       = "link_already_decided"
	CodeInternal          = "internal_error"
)

// ValidationError rejects a request before any state mutation.
func ValidationError(c fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusBadRequest, code, message)
}

// AuthorizationError signals that the actor is not allowed to act on the
// resource; distinct from a validation failure.
func AuthorizationError(c fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusForbidden, code, message)
}

// NotFoundError signals a missing entity without creating placeholders.
func NotFoundError(c fiber.Ctx, message string) error {
	return respond(c, fiber.StatusNotFound, CodeNotFound, message)
}

// ConflictError signals a concurrency or uniqueness conflict the caller can
// resolve by re-fetching state.
func ConflictError(c fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusConflict, code, message)
}

// InternalError hides details of unexpected failures from the client.
func InternalError(c fiber.Ctx, message string) error {
	return respond(c, fiber.StatusInternalServerError, CodeInternal, message)
}

func respond(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message, "code": code})
}
