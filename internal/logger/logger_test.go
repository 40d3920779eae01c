package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel(" warning "))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("nonsense"))
}

func TestNewWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "", "info")
	l.WithField("session_id", "s1").Info("started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "s1", line["session_id"])
	assert.Equal(t, "started", line["msg"])
}

func TestNewWithOutputTextSuppressesBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "text", "error")
	l.Warn("quiet")
	assert.Empty(t, buf.String())
}
