package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestFromZerolog_WritesComponentAndLevel(t *testing.T) {
	SetLevel("debug")
	defer SetLevel("info")

	var buf bytes.Buffer
	l := FromZerolog(zerolog.New(&buf).With().Str("component", "breaker").Logger())
	l.Warnf("circuit %s opened", "postgres")
	l.Debugw("state", map[string]any{"failures": 3})

	out := buf.String()
	assert.Contains(t, out, `"component":"breaker"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "circuit postgres opened")
	assert.Contains(t, out, `"failures":3`)
}

func TestSetLevel_FiltersDebug(t *testing.T) {
	SetLevel("warn")
	defer SetLevel("info")

	var buf bytes.Buffer
	l := FromZerolog(zerolog.New(&buf))
	l.Debugf("hidden")
	l.Infof("hidden too")
	assert.Empty(t, buf.String())
}

func TestSetLevel_UnknownFallsBackToInfo(t *testing.T) {
	SetLevel("chatty")
	defer SetLevel("info")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNewAndNop(t *testing.T) {
	t.Setenv("KWENDA_ENV", "dev")
	l := New("test")
	assert.NotNil(t, l)
	l.Infof("info %s", "test")

	var n Logger = Nop{}
	n.Errorf("ignored")
}
