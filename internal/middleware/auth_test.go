package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeyAPIKey))
	})
	return router
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		header string
		query  string
		want   int
	}{
		{"valid header", []string{"k1", "k2"}, "k2", "", http.StatusOK},
		{"valid query param", []string{"k1"}, "", "k1", http.StatusOK},
		{"missing", []string{"k1"}, "", "", http.StatusUnauthorized},
		{"invalid", []string{"k1"}, "nope", "", http.StatusUnauthorized},
		{"no keys configured", nil, "", "", http.StatusOK},
		{"only blank keys configured", []string{""}, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/test"
			if tt.query != "" {
				target += "?api_key=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			w := httptest.NewRecorder()
			okRouter(APIKeyAuth(tt.keys)).ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAPIKeyAuth_StoresKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-API-Key", "k1")
	w := httptest.NewRecorder()
	okRouter(APIKeyAuth([]string{"k1"})).ServeHTTP(w, req)

	if w.Body.String() != "k1" {
		t.Errorf("expected key in context, got %q", w.Body.String())
	}
}

func TestAdminKeyAuth(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		header string
		want   int
	}{
		{"valid", []string{"admin"}, "admin", http.StatusOK},
		{"missing", []string{"admin"}, "", http.StatusUnauthorized},
		{"invalid", []string{"admin"}, "user", http.StatusForbidden},
		{"none configured", nil, "anything", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			w := httptest.NewRecorder()
			okRouter(AdminKeyAuth(tt.keys)).ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}
