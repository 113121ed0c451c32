package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zerolog.TraceLevel, ParseLevel("trace"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestNew_WritesToConsoleAndFile(t *testing.T) {
	var console, file bytes.Buffer
	log := New(&console, &file, "info")

	log.Debug().Msg("hidden")
	log.Info().Int("frame", 3).Msg("Frame synthesized")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "Frame synthesized")
	assert.Contains(t, file.String(), "Frame synthesized")
	assert.Contains(t, file.String(), "frame=3")
	assert.NotContains(t, file.String(), "\x1b[")
}
