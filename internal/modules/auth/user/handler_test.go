package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/n-device/core/internal/store"
)

func newTestRouter(t *testing.T, users *store.MemoryUserStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	auth := r.Group("/api/v1/auth")
	NewHandler(NewService(users)).RegisterRoutes(auth)
	return r
}

func TestGetProfileEndpoint(t *testing.T) {
	users := store.NewMemoryUserStore()
	seedUser(t, users)
	r := newTestRouter(t, users)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me/u1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["user_id"] != "u1" || body["device_limit"] != float64(3) {
		t.Fatalf("unexpected profile %v", body)
	}
}

func TestGetProfileEndpointUnknownUser(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryUserStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me/ghost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUpdateProfileEndpoint(t *testing.T) {
	users := store.NewMemoryUserStore()
	seedUser(t, users)
	r := newTestRouter(t, users)

	body, _ := json.Marshal(map[string]string{"phone": "+44-20-0000"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/auth/me/u1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["phone"] != "+44-20-0000" || resp["full_name"] != "Ada Lovelace" {
		t.Fatalf("unexpected update result %v", resp)
	}
}

func TestUpdateProfileEndpointRejectsEmptyPatch(t *testing.T) {
	users := store.NewMemoryUserStore()
	seedUser(t, users)
	r := newTestRouter(t, users)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/auth/me/u1", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty patch, got %d", w.Code)
	}
}
