package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/blindgrade/blindgrade/internal/app/auth"
	"github.com/blindgrade/blindgrade/internal/pkg/apperrors"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	HandleAPIError(c, err)
	return recorder.Code
}

func TestHandleAPIErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"script not found", apperrors.ErrScriptNotFound, 404},
		{"subject not found", apperrors.ErrSubjectNotFound, 404},
		{"question paper not found", apperrors.ErrQuestionPaperNotFound, 404},
		{"not custodian", auth.ErrNotCustodian, 403},
		{"not assigned", auth.ErrNotAssigned, 403},
		{"sequence violation", apperrors.NewSequenceError("first evaluation must be completed before second evaluation"), 409},
		{"conflict", apperrors.NewCustomError(apperrors.ErrConflict, "custodian account already exists"), 409},
		{"email exists", apperrors.ErrEmailAlreadyExists, 409},
		{"validation", apperrors.NewValidationError("marks cannot be negative"), 400},
		{"bad credentials", apperrors.ErrInvalidCredentials, 401},
		{"expired token", apperrors.ErrTokenExpired, 401},
		{"revoked token", apperrors.ErrTokenRevoked, 401},
		{"unknown", errors.New("boom"), 500},
	}

	for _, c := range cases {
		if got := statusFor(t, c.err); got != c.want {
			t.Fatalf("%s: status=%d, want %d", c.name, got, c.want)
		}
	}
}
