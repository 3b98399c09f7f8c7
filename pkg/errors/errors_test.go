package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("Заявка", 1), http.StatusNotFound},
		{"conflict", NewConflictError("дубликат"), http.StatusConflict},
		{"bad request", NewBadRequestError("пусто"), http.StatusBadRequest},
		{"forbidden", NewForbiddenError(""), http.StatusForbidden},
		{"invalid state", NewInvalidStateError("Участок", 3, "ASSIGNED", "finish"), http.StatusUnprocessableEntity},
		{"precondition", NewPreconditionFailedError("нет грузовика"), http.StatusPreconditionFailed},
		{"wrapped sentinel", fmt.Errorf("обертка: %w", ErrInvalidState), http.StatusUnprocessableEntity},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestServiceErrorKeepsSentinel(t *testing.T) {
	err := NewInvalidStateError("Заявка", 7, "SCHEDULED", "assign_route")

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.True(t, IsDomainError(err))
	assert.Contains(t, err.Error(), "SCHEDULED")
}

func TestIsDomainErrorRejectsInternal(t *testing.T) {
	assert.False(t, IsDomainError(errors.New("disk full")))
	assert.False(t, IsDomainError(NewInternalServerError(errors.New("disk full"))))
}

func TestToHTTPResponseHidesInternalDetails(t *testing.T) {
	code, body := ToHTTPResponse(errors.New("pq: relation does not exist"))

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Внутренняя ошибка сервера", body.(HTTPErrorResponse).Error)
}

func TestErrorGroup(t *testing.T) {
	g := NewErrorGroup()
	g.Add(nil)
	assert.False(t, g.HasErrors())

	g.AddPrefix(errors.New("a"), "http")
	g.Add(errors.New("b"))
	assert.True(t, g.HasErrors())
	assert.Equal(t, "http: a; b", g.Error())
}

func TestErrorWithDetailsIsStable(t *testing.T) {
	err := NewErrorWithDetails(ErrNotFound, map[string]interface{}{"b": 2, "a": 1})

	assert.Equal(t, "ресурс не найден (a=1, b=2)", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestHandleServiceError(t *testing.T) {
	notFound := NewNotFoundError("Грузовик", 5)
	assert.Same(t, notFound, HandleServiceError(notFound, "fleet"))

	wrapped := fmt.Errorf("fleet: %w", ErrPreconditionFailed)
	se := HandleServiceError(wrapped, "fleet")
	assert.Equal(t, http.StatusPreconditionFailed, se.Code)
	assert.ErrorIs(t, se, ErrPreconditionFailed)

	cause := errors.New("connection refused")
	se = HandleServiceError(cause, "fleet")
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.ErrorIs(t, se, cause)
}

func TestNewAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("Клиент", "email", "a@example.com")

	assert.Equal(t, http.StatusConflict, StatusCode(err))
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Contains(t, err.Message, "email=a@example.com")
}
