package server

import (
	"net/http"
	"testing"

	applicationdomain "github.com/municipia/apoios/internal/application/domain"
	authdomain "github.com/municipia/apoios/internal/auth/domain"
	"github.com/municipia/apoios/internal/authorization"
	documentdomain "github.com/municipia/apoios/internal/document/domain"
	entitydomain "github.com/municipia/apoios/internal/entity/domain"
	"github.com/municipia/apoios/internal/providers/storage"
)

func TestMapErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation error", newValidationError("object", "invalid_object", "invalid value"), http.StatusBadRequest, "validation_error"},
		{"domain validation sentinel", applicationdomain.ErrCommentRequired, http.StatusBadRequest, "validation_error"},
		{"missing meeting date", applicationdomain.ErrMeetingDateRequired, http.StatusBadRequest, "validation_error"},
		{"weak password", authdomain.ErrWeakPassword, http.StatusBadRequest, "validation_error"},
		{"bad credentials", authdomain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"expired session", authdomain.ErrSessionExpired, http.StatusUnauthorized, "unauthorized"},
		{"inactive user", authdomain.ErrUserInactive, http.StatusUnauthorized, "unauthorized"},
		{"role denied", authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"foreign application", applicationdomain.ErrNotOwner, http.StatusForbidden, "forbidden"},
		{"tampered download link", storage.ErrBadSignature, http.StatusForbidden, "forbidden"},
		{"missing application", applicationdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"missing document", documentdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"missing entity", entitydomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"missing deliberation", applicationdomain.ErrDeliberationMissing, http.StatusNotFound, "not_found"},
		{"lost status race", applicationdomain.ErrConcurrentUpdate, http.StatusConflict, "conflict"},
		{"window closed", documentdomain.ErrWindowClosed, http.StatusConflict, "conflict"},
		{"duplicate user", authdomain.ErrUserExists, http.StatusConflict, "conflict"},
		{"duplicate tax id", entitydomain.ErrTaxIDExists, http.StatusConflict, "conflict"},
		{"expired download link", storage.ErrLinkExpired, http.StatusGone, "link_expired"},
		{"login throttled", ErrTooManyRequests, http.StatusTooManyRequests, "too_many_requests"},
		{"unknown error", assertionError{}, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			if status != tc.wantStatus {
				t.Errorf("status = %d, want %d", status, tc.wantStatus)
			}
			if payload.Type != tc.wantType {
				t.Errorf("type = %q, want %q", payload.Type, tc.wantType)
			}
		})
	}
}

type assertionError struct{}

func (assertionError) Error() string { return "boom" }

func TestMapErrorInvalidState(t *testing.T) {
	err := applicationdomain.NewInvalidState(
		applicationdomain.OpValidate,
		applicationdomain.StatusDraft,
		applicationdomain.StatusInReview,
	)

	status, payload := mapError(err)
	if status != http.StatusConflict {
		t.Errorf("status = %d, want %d", status, http.StatusConflict)
	}
	if payload.Type != "invalid_state" {
		t.Errorf("type = %q", payload.Type)
	}
	want := "operation validate not allowed from S1_DRAFT (requires S3_IN_REVIEW)"
	if payload.Message != want {
		t.Errorf("message = %q, want %q", payload.Message, want)
	}
}

func TestMapErrorConflictMessages(t *testing.T) {
	_, payload := mapError(applicationdomain.ErrConcurrentUpdate)
	if payload.Message != "the application changed underneath this request, retry" {
		t.Errorf("message = %q", payload.Message)
	}

	_, payload = mapError(documentdomain.ErrWindowClosed)
	if payload.Message != "the entity-side edit window is closed" {
		t.Errorf("message = %q", payload.Message)
	}
}

func TestValidationPayloadCarriesFieldAndCode(t *testing.T) {
	_, payload := mapError(applicationdomain.ErrInvalidObject)
	if len(payload.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(payload.Errors))
	}
	if payload.Errors[0].Code != "invalid_object" {
		t.Errorf("code = %q", payload.Errors[0].Code)
	}
	if payload.Errors[0].Field != "object" {
		t.Errorf("field = %q", payload.Errors[0].Field)
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	errType, code := classifyErrorForLog(applicationdomain.ErrInvalidObject)
	if errType != "validation_error" || code != "invalid_object" {
		t.Errorf("classified as (%s, %s)", errType, code)
	}

	errType, code = classifyErrorForLog(authorization.ErrForbidden)
	if errType != "forbidden" || code != "forbidden" {
		t.Errorf("classified as (%s, %s)", errType, code)
	}
}
