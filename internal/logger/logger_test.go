package logger

import (
	"os"
	"path/filepath"
	"testing"

	"marketplace_refunds/internal/conf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	t.Run("invalid level", func(t *testing.T) {
		_, _, err := NewLogger(&conf.LogConfig{Level: "loud"}, "dev")
		require.Error(t, err)
	})

	t.Run("writes to rotated file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "refunds.log")
		logger, cleanup, err := NewLogger(&conf.LogConfig{Level: "info", Filename: file, MaxSize: 1}, "prod")
		require.NoError(t, err)

		logger.Info("refund recorded", zap.String("paymentID", "pay_1"))
		cleanup()

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), "refund recorded")
		assert.Contains(t, string(data), "pay_1")
	})
}
