package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })
	return &buf
}

func TestLoggerRecordsRequestFields(t *testing.T) {
	buf := captureLogs(t)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", nil))

	if rr.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want pass-through 418", rr.Code)
	}
	logged := buf.String()
	for _, want := range []string{
		`"status":418`,
		`"path":"/api/v1/recommendations"`,
		`"bytes":5`,
		`"level":"warn"`, // 4xx escalates from info
	} {
		if !strings.Contains(logged, want) {
			t.Errorf("log line missing %s: %s", want, logged)
		}
	}
}

func TestLoggerDefaultsImplicitOK(t *testing.T) {
	buf := captureLogs(t)

	// Handler writes a body without an explicit WriteHeader.
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	logged := buf.String()
	if !strings.Contains(logged, `"status":200`) {
		t.Errorf("log line missing implicit 200: %s", logged)
	}
	if !strings.Contains(logged, `"level":"info"`) {
		t.Errorf("2xx should log at info: %s", logged)
	}
}
