package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justapithecus/stax/types"
)

func testReport() types.RunReport {
	return types.RunReport{
		RunID:    "0b7f9a2e-0000-0000-0000-000000000000",
		Script:   "analysis.do",
		Success:  true,
		ExitCode: 0,
	}
}

func TestPublishPostsJSON(t *testing.T) {
	var got types.RunReport
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := New(Config{URL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	if err := n.Publish(context.Background(), testReport()); err != nil {
		t.Fatal(err)
	}
	if got.Script != "analysis.do" || !got.Success {
		t.Errorf("payload = %+v", got)
	}
}

func TestPublishRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := New(Config{URL: server.URL, Retries: 3})
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	if err := n.Publish(context.Background(), testReport()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestPublishDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	n, err := New(Config{URL: server.URL, Retries: 3})
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	if err := n.Publish(context.Background(), testReport()); err == nil {
		t.Fatal("expected error for 404")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestPublishCustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := New(Config{URL: server.URL, Headers: map[string]string{"Authorization": "Bearer token"}})
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	if err := n.Publish(context.Background(), testReport()); err != nil {
		t.Fatal(err)
	}
}

func TestPublishRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n, err := New(Config{URL: server.URL, Retries: 5})
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := n.Publish(ctx, testReport()); err == nil {
		t.Fatal("expected context cancellation")
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
