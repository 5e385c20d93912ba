package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessfulRequestsAreBatched(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: "info", Output: &buf, BatchSize: 3})

	log.LogRequest(http.MethodGet, "/api/v1/rooms", http.StatusOK, time.Millisecond, nil)
	log.LogRequest(http.MethodPost, "/api/v1/rooms", http.StatusCreated, 2*time.Millisecond, nil)
	assert.Equal(t, 2, log.Pending())
	assert.Empty(t, buf.String())

	log.LogRequest(http.MethodGet, "/api/v1/rooms", http.StatusOK, 3*time.Millisecond, nil)
	assert.Equal(t, 0, log.Pending())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, true, entry["batch_summary"])
	assert.Equal(t, float64(3), entry["total_requests"])
}

func TestErrorsAreLoggedImmediately(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: "info", Output: &buf})

	log.LogRequest(http.MethodPut, "/api/v1/rooms/:id", http.StatusConflict, time.Millisecond, logrus.Fields{"client_ip": "10.0.0.2"})
	out := buf.String()
	assert.Contains(t, out, `"level":"warning"`)
	assert.Contains(t, out, "Status: 409")
	assert.Contains(t, out, "10.0.0.2")
}

func TestFlushPending(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: "info", Output: &buf})

	log.LogRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond, nil)
	log.FlushPending()
	assert.True(t, strings.Contains(buf.String(), "Request batch summary"))
	assert.Equal(t, 0, log.Pending())
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	log := NewWithOptions(Options{Level: "nope"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
