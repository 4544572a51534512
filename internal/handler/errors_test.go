package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sarthak-sharma31/AniMark/internal/model"
)

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()
	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewValidationError("x"), http.StatusBadRequest},
		{model.NewInvalidListTypeError("favorites"), http.StatusBadRequest},
		{model.NewUnauthorizedError(), http.StatusUnauthorized},
		{model.NewInvalidCredentialsError(), http.StatusUnauthorized},
		{model.NewForbiddenError(), http.StatusForbidden},
		{model.NewUserNotFoundError(), http.StatusNotFound},
		{model.NewLinkNotFoundError("l"), http.StatusNotFound},
		{model.NewAnimeNotFoundError("1"), http.StatusNotFound},
		{model.NewCommentNotFoundError("c"), http.StatusNotFound},
		{model.NewNoExpirationError(), http.StatusConflict},
		{model.NewDuplicateUserError(), http.StatusConflict},
		{model.NewLinkExpiredError(), http.StatusGone},
		{model.NewRateLimitExceededError(), http.StatusTooManyRequests},
		{model.NewUpstreamUnavailableError(), http.StatusBadGateway},
		{model.NewInternalError(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHandleServiceError_WrappedAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, fmt.Errorf("resolve: %w", model.NewLinkExpiredError()))

	if w.Code != http.StatusGone {
		t.Errorf("status = %d, want %d", w.Code, http.StatusGone)
	}
	if body := decodeAPIError(t, w); body.Code != model.ErrCodeLinkExpired {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeLinkExpired)
	}
}

func TestHandleServiceError_PlainErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, errors.New("pq: connection reset"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	body := decodeAPIError(t, w)
	if body.Code != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInternal)
	}
	if strings.Contains(body.Message, "pq:") {
		t.Error("internal error details must not leak to the response")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{name: "valid", body: `{"animeId":"20"}`, ok: true},
		{name: "empty body", body: ``, ok: true},
		{name: "malformed", body: `{"animeId":`, ok: false},
		{name: "wrong type", body: `{"animeId":20}`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var v addToListRequest
			if got := decodeJSON(w, req, &v); got != tt.ok {
				t.Fatalf("decodeJSON = %v, want %v", got, tt.ok)
			}
			if !tt.ok {
				if w.Code != http.StatusBadRequest {
					t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
				}
				if body := decodeAPIError(t, w); body.Code != model.ErrCodeValidation {
					t.Errorf("code = %q, want %q", body.Code, model.ErrCodeValidation)
				}
			}
		})
	}
}

func TestRequireUserID_Missing(t *testing.T) {
	w := httptest.NewRecorder()
	if _, ok := requireUserID(w, httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("expected requireUserID to fail")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
