package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antlu/giveaway-assistant/internal/logger"
)

func TestZapLoggerFromOutsideThePackage(t *testing.T) {
	var nop *logger.ZapLogger = logger.NewNop()
	var l logger.Logger = nop
	l.Warnf("discarded %d", 1)
	assert.NoError(t, nop.Sync())

	dev, err := logger.New("info", "development")
	require.NoError(t, err)
	assert.NotNil(t, dev.SugaredLogger)
}
