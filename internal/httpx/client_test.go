package httpx

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ukgov/org-registry/internal/errs"
)

// TestMain relaxes the SSRF-blocking dialer for the duration of this
// package's tests: every test here talks to an httptest server on
// loopback, which safeDialContext otherwise rejects by design.
func TestMain(m *testing.M) {
	SetDialContextForTest((&net.Dialer{Timeout: 30 * time.Second}).DialContext)
	os.Exit(m.Run())
}

func TestGetRetriesOn5xxThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(nil)
	res, err := c.Get(context.Background(), srv.URL, Options{MaxRetries: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Body) != "ok" {
		t.Errorf("body = %q, want ok", res.Body)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestGetFailsFastOn404(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(nil)
	_, err := c.Get(context.Background(), srv.URL, Options{MaxRetries: 3})
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var status *errs.HTTPStatus
	if !asHTTPStatus(err, &status) {
		t.Fatalf("expected *errs.HTTPStatus, got %T: %v", err, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (4xx other than 429 must not retry)", calls)
	}
}

func TestGetRespectsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(nil)
	_, err := c.Get(ctx, srv.URL, Options{MaxRetries: 0})
	if err == nil {
		t.Fatal("expected cancellation/timeout error")
	}
}

func asHTTPStatus(err error, target **errs.HTTPStatus) bool {
	if s, ok := err.(*errs.HTTPStatus); ok {
		*target = s
		return true
	}
	return false
}
