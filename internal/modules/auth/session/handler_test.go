package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/n-device/core/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.MemorySessionStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := store.NewMemoryUserStore()
	sessions := store.NewMemorySessionStore()
	svc := NewService(users, sessions, 3, nil)

	r := gin.New()
	auth := r.Group("/api/v1/auth")
	NewHandler(svc).RegisterRoutes(auth)
	return r, sessions
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login/u1", LoginDTO{
		DeviceID: "d1", DeviceName: "Pixel 9", FullName: "Ada", Email: "a@b.c", Phone: "1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != StatusLoggedIn {
		t.Fatalf("expected status %s, got %v", StatusLoggedIn, body["status"])
	}
	user, ok := body["user"].(map[string]interface{})
	if !ok || user["user_id"] != "u1" {
		t.Fatalf("expected user payload, got %v", body["user"])
	}
}

func TestLoginEndpointRequiresDeviceID(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login/u1", map[string]string{"device_name": "x"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestLoginEndpointLimitReachedPayload(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, deviceID := range []string{"d1", "d2", "d3"} {
		w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login/u1", LoginDTO{DeviceID: deviceID})
		if w.Code != http.StatusOK {
			t.Fatalf("seed login %s: %d", deviceID, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login/u1", LoginDTO{DeviceID: "d4"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != StatusLimitReached {
		t.Fatalf("expected %s, got %v", StatusLimitReached, body["status"])
	}
	list, ok := body["active_sessions"].([]interface{})
	if !ok || len(list) != 3 {
		t.Fatalf("expected 3 active sessions in payload, got %v", body["active_sessions"])
	}
	if body["message"] == nil {
		t.Fatal("expected a message naming the limit")
	}
}

func TestLoginEndpointDecodesUserID(t *testing.T) {
	r, sessions := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login/user%40example.com", LoginDTO{DeviceID: "d1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	sess, err := sessions.FindByUserDevice(context.Background(), "user@example.com", "d1")
	if err != nil || sess == nil {
		t.Fatalf("expected session stored under decoded user id, got %+v, err %v", sess, err)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/auth/login/u1", LoginDTO{DeviceID: "d1"})

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout/d1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != StatusLoggedOut || body["device_id"] != "d1" {
		t.Fatalf("unexpected logout payload %v", body)
	}
}

func TestLogoutEndpointUnknownDevice(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDevicesEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/auth/login/u1", LoginDTO{DeviceID: "d1", DeviceName: "Pixel 9"})

	w := doJSON(t, r, http.MethodGet, "/api/v1/auth/devices/u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["total_count"] != float64(1) {
		t.Fatalf("expected total_count 1, got %v", body["total_count"])
	}
}

func TestDevicesEndpointUnknownUser(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/auth/devices/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDevicesEndpointEmptyList(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/auth/login/u1", LoginDTO{DeviceID: "d1"})
	doJSON(t, r, http.MethodPost, "/api/v1/auth/logout/d1", nil)

	w := doJSON(t, r, http.MethodGet, "/api/v1/auth/devices/u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for user with no devices, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["total_count"] != float64(0) {
		t.Fatalf("expected total_count 0, got %v", body["total_count"])
	}
}

func TestSessionsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/auth/login/u1", LoginDTO{DeviceID: "d1"})
	doJSON(t, r, http.MethodPost, "/api/v1/auth/login/u1", LoginDTO{DeviceID: "d2"})

	w := doJSON(t, r, http.MethodGet, "/api/v1/auth/sessions/u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["count"] != float64(2) {
		t.Fatalf("expected count 2, got %v", body["count"])
	}
}
