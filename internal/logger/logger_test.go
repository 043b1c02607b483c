package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	l := InitWithWriter(&buf, "warn", false)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	l.Info().Msg("hidden")
	l.Warn().Str("task_id", "abc").Msg("shown")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "abc", entry["task_id"])
	assert.Equal(t, "warn", entry["level"])
}

func TestInitWithWriterUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "loud", false)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestAdapter(t *testing.T) {
	var buf bytes.Buffer
	a := Adapter{Logger: zerolog.New(&buf)}

	a.Printf("\r\n%s %d\n", "GET /tasks", 200)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "GET /tasks 200", entry["message"])
}
