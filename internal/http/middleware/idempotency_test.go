package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemRouter(lookup IdempotencyLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/orders/:id/capture", func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	}, IdempotencyValidator(IdempotencyOptions{}, lookup), func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{"key": key, "replay": IsReplay(c), "bypass": IsRateBypass(c)})
	})
	return r
}

func TestIdempotency_NoHeaderIsNoop(t *testing.T) {
	r := idemRouter(nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders/o1/capture", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestIdempotency_InvalidKeyRejected(t *testing.T) {
	r := idemRouter(nil)

	for _, bad := range []string{"has space", strings.Repeat("k", 300), "emoji-☕"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/orders/o1/capture", nil)
		req.Header.Set(HeaderIdempotencyKey, bad)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: status = %d, want 400", bad, w.Code)
		}
		if !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q: body = %s", bad, w.Body.String())
		}
	}
}

func TestIdempotency_ReplayDetected(t *testing.T) {
	var gotUser, gotOrder, gotKey string
	lookup := func(ctx context.Context, userID, orderID, key string, now time.Time) (bool, error) {
		gotUser, gotOrder, gotKey = userID, orderID, key
		return true, nil
	}

	r := idemRouter(lookup)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/ORDER-9/capture", nil)
	req.Header.Set(HeaderIdempotencyKey, "retry-1")
	r.ServeHTTP(w, req)

	if gotUser != "u1" || gotOrder != "ORDER-9" || gotKey != "retry-1" {
		t.Fatalf("lookup args = (%q, %q, %q)", gotUser, gotOrder, gotKey)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"replay":true`) || !strings.Contains(body, `"bypass":true`) {
		t.Fatalf("replay flags not set: %s", body)
	}
}

func TestIdempotency_LookupErrorDoesNotBlock(t *testing.T) {
	lookup := func(ctx context.Context, userID, orderID, key string, now time.Time) (bool, error) {
		return false, context.DeadlineExceeded
	}
	r := idemRouter(lookup)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/o1/capture", nil)
	req.Header.Set(HeaderIdempotencyKey, "k1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("lookup failure must not block, status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
