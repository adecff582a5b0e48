package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLeveled(t *testing.T) {
	base := New()

	assert.Equal(t, zerolog.DebugLevel, base.GetLevel())
	assert.Equal(t, zerolog.WarnLevel, Leveled(base, "warn").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, Leveled(base, "nonsense").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, Leveled(base, "").GetLevel())
}
