package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &out), line)
	return out
}

func TestLogger_RedactsEmailFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DEBUG, true)

	l.Info("admitted", "email", "john.doe@example.com", "list_id", "L1")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "admitted", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "jo***@example.com", entry["email"])
	assert.Equal(t, "L1", entry["list_id"])
}

func TestLogger_RedactsTokens(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DEBUG, true)

	l.Info("unsubscribe", "token", "abcdefghijklmnop")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "abcd****", entry["token"])
}

func TestLogger_RedactsEmbeddedEmails(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DEBUG, true)

	l.Warn("lookup failed", "err", errors.New("no such host for someone@corp.io"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "no such host for so***@corp.io", entry["err"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WARN, true)

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}
