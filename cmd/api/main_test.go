package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finanzas/internal/config"
	"finanzas/internal/handlers"
	"finanzas/internal/logger"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func testRouter(internalKey string) *gin.Engine {
	return newRouter(&config.Config{Env: "test", InternalAPIKey: internalKey}, routerHandlers{
		auth:          handlers.NewAuthHandler(nil, nil),
		budgets:       handlers.NewBudgetHandler(nil, nil),
		notifications: handlers.NewNotificationHandler(nil, nil),
		categories:    handlers.NewCategoryHandler(nil, nil),
		movements:     handlers.NewMovementHandler(nil, nil),
		workspaces:    handlers.NewWorkspaceHandler(nil, nil),
		summary:       handlers.NewSummaryHandler(nil),
		scan:          handlers.NewScanHandler(nil),
	})
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	w := serve(testRouter(""), http.MethodGet, "/api/health")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r := testRouter("")
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodGet, "/api/v1/budgets"},
		{http.MethodGet, "/api/v1/budgets/current-month"},
		{http.MethodGet, "/api/v1/notifications/unread/count"},
		{http.MethodPatch, "/api/v1/notifications/read-all"},
		{http.MethodPatch, "/api/v1/notifications/0190a1b2-0000-7000-8000-000000000001/read"},
		{http.MethodGet, "/api/v1/movements"},
		{http.MethodGet, "/api/v1/summary/period"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := serve(r, rt.method, rt.path)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestRouter_InternalScanDisabledWithoutKey(t *testing.T) {
	w := serve(testRouter(""), http.MethodPost, "/api/v1/internal/scan")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestRouter_InternalAppendRequiresKey(t *testing.T) {
	w := serve(testRouter("secret"), http.MethodPost, "/api/v1/internal/notifications")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	w := serve(testRouter(""), http.MethodGet, "/api/v1/nowhere")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"NOT_FOUND"`) {
		t.Errorf("expected NOT_FOUND envelope, got %s", w.Body.String())
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	w := serve(testRouter(""), http.MethodOptions, "/api/v1/budgets")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("expected Access-Control-Allow-Methods header")
	}
}
