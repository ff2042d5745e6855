package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stevemurr/storefront-server/handler"
)

func TestRequestLoggerAssignsID(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	h := handler.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), log)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fox", nil))

	id := rec.Header().Get(handler.RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid request id, got %q", id)
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON log line: %v (%s)", err, buf.String())
	}
	if line["request_id"] != id || line["status"] != float64(http.StatusTeapot) || line["path"] != "/fox" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	h := handler.RequestLogger(http.NotFoundHandler(), quietLogger())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(handler.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(handler.RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected incoming id to be kept, got %q", got)
	}
}

func TestRecover(t *testing.T) {
	h := handler.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), quietLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal Server Error") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestRecoverAfterHeadersWritten(t *testing.T) {
	h := handler.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
		panic("boom")
	}), quietLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected the written status to stand, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"id":1}` {
		t.Fatalf("expected no error body appended, got %q", got)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.CORS(next, []string{"*"}).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/products", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatal("expected wildcard origin")
		}
	})

	t.Run("allow list", func(t *testing.T) {
		h := handler.CORS(next, []string{"https://shop.example"})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://shop.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Header().Get("Access-Control-Allow-Origin") != "https://shop.example" {
			t.Fatal("expected allowed origin to be echoed")
		}

		req.Header.Set("Origin", "https://evil.example")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Fatal("unexpected origin allowed")
		}
	})
}
