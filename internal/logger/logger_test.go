package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	_, err := Setup(Options{Level: "loud"})
	assert.Error(t, err)

	dir := t.TempDir()
	c, err := Setup(Options{Level: "debug", Format: "json", Dir: dir, Name: "care"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.WithField("k", "v").Info("hello")
	require.NoError(t, c.Close())

	b, err := os.ReadFile(filepath.Join(dir, "care.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
	assert.Contains(t, string(b), `"k":"v"`)
}

func TestEchoLogger(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	el := NewEchoLogger(l)
	assert.Same(t, &buf, el.Output())

	el.SetLevel(log.WARN)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.Equal(t, log.WARN, el.Level())

	el.Info("hidden")
	el.Warnf("shown %d", 1)
	el.Errorj(log.JSON{"route": "/api/health"})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 1")
	assert.Contains(t, out, "route=/api/health")

	l.SetLevel(logrus.PanicLevel)
	assert.Equal(t, log.OFF, el.Level())
}
