package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestID_Generated(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())

	var inContext string
	router.GET("/test", func(c *gin.Context) {
		inContext = c.GetString(RequestIDKey)
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	header := w.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatal("expected X-Request-ID response header")
	}
	if inContext != header {
		t.Errorf("context ID %q does not match header %q", inContext, header)
	}
}

func TestRequestID_HonorsCallerHeader(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "upstream-id-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "upstream-id-42" {
		t.Errorf("expected caller ID echoed, got %q", got)
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		id := w.Header().Get("X-Request-ID")
		if seen[id] {
			t.Fatalf("duplicate request ID %q", id)
		}
		seen[id] = true
	}
}
