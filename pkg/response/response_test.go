package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, map[string]string{"name": "test"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	if resp.Message != "ok" {
		t.Errorf("expected message 'ok', got %q", resp.Message)
	}
	if resp.ErrorCode != "" {
		t.Errorf("expected no error_code, got %q", resp.ErrorCode)
	}
}

func TestCreated_WithWarning(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, map[string]int{"id": 1}, "notification failed")
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Warning != "notification failed" {
		t.Errorf("expected warning, got %q", resp.Warning)
	}
}

func TestBadRequest(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		BadRequest(c, "invalid input")
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 400 {
		t.Errorf("expected code 400, got %d", resp.Code)
	}
	if resp.ErrorCode != "VALIDATION_FAILED" {
		t.Errorf("expected error_code VALIDATION_FAILED, got %q", resp.ErrorCode)
	}
	if resp.Message != "invalid input" {
		t.Errorf("expected message 'invalid input', got %q", resp.Message)
	}
}

func TestError_AppError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		errorCode string
	}{
		{"forbidden", NewForbidden("FORBIDDEN_ROLE", "role not allowed"), http.StatusForbidden, "FORBIDDEN_ROLE"},
		{"not found", NewNotFound("SESSION_NOT_FOUND", "session not found"), http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"conflict", NewConflict("ALREADY_MEMBER", "already a member"), http.StatusConflict, "ALREADY_MEMBER"},
		{"unauthorized", NewUnauthorized("TOKEN_EXPIRED", "token expired"), http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"wrapped", fmt.Errorf("ctx: %w", NewBadRequest("INVALID_TRANSITION", "bad")), http.StatusBadRequest, "INVALID_TRANSITION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				Error(c, tt.err)
			})
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			resp := parseResponse(t, w)
			if resp.ErrorCode != tt.errorCode {
				t.Errorf("expected error_code %q, got %q", tt.errorCode, resp.ErrorCode)
			}
		})
	}
}

func TestError_GenericError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("db exploded"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Message == "db exploded" {
		t.Error("internal error detail should not leak to the client")
	}
}
