package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondJSONLogsEncodeFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := httptest.NewRecorder()

	// channels cannot be encoded as JSON
	respondJSON(w, zap.New(core), http.StatusOK, map[string]interface{}{"rows": make(chan int)})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	entries := logs.FilterMessage("error encoding response").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 encode failure log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("expected error level, got %s", entries[0].Level)
	}
}

func TestRespondErrorWritesEnvelope(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := httptest.NewRecorder()

	respondError(w, zap.New(core), http.StatusBadGateway, "sync failed")

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected json content type, got %q", got)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no log entries, got %d", logs.Len())
	}
}
