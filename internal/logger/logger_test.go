package logger

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithOutput_JSONOutsideLocal(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer
	log := NewWithOutput(&buf).WithComponent("pipeline")

	log.Info("hello")

	assert.Contains(t, buf.String(), `"component":"pipeline"`)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNewWithOutput_LevelFiltering(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "warn")
	var buf bytes.Buffer
	log := NewWithOutput(&buf)

	log.Info("dropped")
	log.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestWithRequest_UsesInboundRequestID(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	var buf bytes.Buffer
	log := NewWithOutput(&buf)
	r := httptest.NewRequest("GET", "/api/health", nil)
	r.Header.Set(RequestIDHeader, "abc-123")

	log.WithRequest(r).Info("health check")

	assert.Contains(t, buf.String(), `"req_id":"abc-123"`)
	assert.Contains(t, buf.String(), `"path":"/api/health"`)
}

func TestRequestID_MintsWhenMissing(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Len(t, RequestID(r), 36)
}

func TestWithError(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	var buf bytes.Buffer
	log := NewWithOutput(&buf)

	log.WithError(errors.New("boom")).Error("failed")
	log.WithError(nil).Error("no error")

	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), "no error")
}
