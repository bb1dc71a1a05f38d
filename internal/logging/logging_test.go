package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { Configure("info", false) })

	Configure("debug", true)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	Configure("nonsense", false)
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)
}
