package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpchat/config"
)

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"connect", "tools", "ask"}, names)

	for _, name := range []string{"url", "script", "timeout"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}
	for _, name := range []string{"plain", "no-connect"} {
		assert.NotNil(t, root.Flags().Lookup(name), name)
	}
}

func TestAskRequiresPrompt(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"ask"})
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcpchat.log")
	logger, closeLog, err := newLogger(&config.Config{LogFile: path, LogLevel: logrus.DebugLevel})
	require.NoError(t, err)

	logger.WithField("path", "/query").Debug("backend request")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend request")
	assert.Contains(t, string(data), "path=/query")
}

func TestNewLoggerWithoutFile(t *testing.T) {
	logger, closeLog, err := newLogger(&config.Config{LogLevel: logrus.InfoLevel})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.NoError(t, closeLog())
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestNewLoggerCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcpchat.log")
	_, closeLog, err := newLogger(&config.Config{LogFile: path, LogLevel: logrus.InfoLevel})
	require.NoError(t, err)

	require.NoError(t, closeLog())
	assert.Error(t, closeLog())
}
