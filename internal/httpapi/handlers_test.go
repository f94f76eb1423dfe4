package httpapi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func authedRequest(method, target string, body *bytes.Buffer) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	user := &AuthUser{ID: "u-1", Email: "sam@example.com"}
	return req.WithContext(context.WithValue(req.Context(), userContextKey, user))
}

func TestHandleUploadInterview_Unauthorized(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/interviews", nil)
	rec := httptest.NewRecorder()
	r.handleUploadInterview(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleUploadInterview_NotMultipart(t *testing.T) {
	r := testRouter()
	r.cfg.MaxUploadBytes = 1 << 20

	req := authedRequest(http.MethodPost, "/api/interviews", bytes.NewBufferString("raw bytes"))
	rec := httptest.NewRecorder()
	r.handleUploadInterview(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func multipartBody(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("fake audio bytes")); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleUploadInterview_MissingAudioField(t *testing.T) {
	r := testRouter()
	r.cfg.MaxUploadBytes = 1 << 20

	body, contentType := multipartBody(t, "file", "call.wav")
	req := authedRequest(http.MethodPost, "/api/interviews", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.handleUploadInterview(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "audio") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleUploadInterview_UnsupportedExtension(t *testing.T) {
	r := testRouter()
	r.cfg.MaxUploadBytes = 1 << 20
	r.cfg.UploadDir = t.TempDir()

	body, contentType := multipartBody(t, "audio", "notes.pdf")
	req := authedRequest(http.MethodPost, "/api/interviews", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.handleUploadInterview(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "unsupported audio format") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestOwnedInterview_MissingID(t *testing.T) {
	r := testRouter()

	req := authedRequest(http.MethodGet, "/api/interviews/", nil)
	rec := httptest.NewRecorder()
	if iv := r.ownedInterview(rec, req); iv != nil {
		t.Errorf("expected nil interview, got %+v", iv)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleListInterviews_Unauthorized(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/interviews", nil)
	rec := httptest.NewRecorder()
	r.handleListInterviews(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandlePushRegister_Validation(t *testing.T) {
	r := testRouter()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", "not json", "invalid request body"},
		{"missing token", `{"platform": "ios"}`, "token is required"},
		{"bad platform", `{"token": "abc", "platform": "blackberry"}`, "platform must be ios or android"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/api/push/register", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			r.handlePushRegister(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Errorf("body = %s, want substring %q", rec.Body.String(), tc.want)
			}
		})
	}
}

func TestHandlePushRegister_Unauthorized(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/push/register", strings.NewReader(`{"token":"t","platform":"ios"}`))
	rec := httptest.NewRecorder()
	r.handlePushRegister(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandlePushUnregister_MissingToken(t *testing.T) {
	r := testRouter()

	req := authedRequest(http.MethodPost, "/api/push/unregister", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	r.handlePushUnregister(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleUpdateMe_Validation(t *testing.T) {
	r := testRouter()

	for _, body := range []string{"not json", `{}`, `{"name": "   "}`} {
		req := authedRequest(http.MethodPatch, "/api/me", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		r.handleUpdateMe(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want %d", body, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestWithCORS_Preflight(t *testing.T) {
	handler := withCORS(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		t.Error("preflight should not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/interviews", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}

func TestHandleHealthz(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.handleHealthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok")
	}
}
