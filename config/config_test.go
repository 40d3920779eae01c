package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOptions(t *testing.T) {
	opt, err := RedisOptions("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opt.Addr)

	opt, err = RedisOptions("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)

	_, err = RedisOptions("")
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GCP_LOCATION", "")
	t.Setenv("STT_WORKERS", "zero")
	t.Setenv("INTERVIEW_SERVER_URL", "http://interviews:5000")

	app := Load()

	assert.Equal(t, "5000", app.Port)
	assert.Equal(t, "us-central1", app.GCPLocation)
	assert.Equal(t, 2, app.STTWorkers)
	assert.Equal(t, "http://interviews:5000", app.InterviewServerURL)
}
