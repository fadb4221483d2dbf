package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	cases := map[string]zap.AtomicLevel{
		"debug": zap.NewAtomicLevelAt(zap.DebugLevel),
		"info":  zap.NewAtomicLevelAt(zap.InfoLevel),
		"warn":  zap.NewAtomicLevelAt(zap.WarnLevel),
		"bogus": zap.NewAtomicLevelAt(zap.ErrorLevel),
	}
	for level, want := range cases {
		log, err := New(level, "console")
		require.NoError(t, err, level)
		assert.True(t, log.Core().Enabled(want.Level()), level)
		if want.Level() > zap.DebugLevel {
			assert.False(t, log.Core().Enabled(want.Level()-1), level)
		}
	}
}

func TestNew_Encodings(t *testing.T) {
	for _, enc := range []string{"json", "console", ""} {
		log, err := New("error", enc)
		require.NoError(t, err, enc)
		assert.False(t, log.Core().Enabled(zap.WarnLevel), enc)
	}
}
