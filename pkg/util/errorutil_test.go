package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	forbidden := NewForbidden("nope")
	got := ToDomainError(fmt.Errorf("wrapped: %w", forbidden))
	assert.Equal(t, http.StatusForbidden, got.HTTPStatus)
	assert.Equal(t, "FORBIDDEN", got.Code)

	got = ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, http.StatusNotFound, got.HTTPStatus)

	got = ToDomainError(fmt.Errorf("find: %w", mongo.ErrNoDocuments))
	assert.Equal(t, "NOT_FOUND", got.Code)

	got = ToDomainError(fiber.NewError(http.StatusBadRequest, "invalid payload"))
	assert.Equal(t, "VALIDATION_FAILED", got.Code)
	assert.Equal(t, "invalid payload", got.Message)

	boom := errors.New("boom")
	got = ToDomainError(boom)
	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	assert.ErrorIs(t, got, boom)
}

func TestDomainErrorMessage(t *testing.T) {
	err := NewNotFound("attendance record", map[string]any{"id": "1"})
	assert.Equal(t, "attendance record not found", err.Error())

	internal := NewInternalError(errors.New("db down"))
	assert.Equal(t, "internal server error: db down", internal.Error())

	assert.Equal(t, "CONFLICT", ToDomainError(NewConflict("email exists", nil)).Code)
	assert.Equal(t, "REQUEST_FAILED", codeForStatus(http.StatusTeapot))
}
