package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newFileLogger builds a JSON logger writing to a file in a temp directory
// and returns it with a function that reads everything logged so far.
func newFileLogger(t *testing.T, config Config) (*zap.Logger, func() string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.log")
	config.Format = "json"
	config.OutputFile = path

	log, err := New(config)
	require.NoError(t, err)

	return log, func() string {
		require.NoError(t, log.Sync())
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(content)
	}
}

func TestNew_ServiceTagOnEveryLine(t *testing.T) {
	log, read := newFileLogger(t, Config{Service: "testsvc", Level: "info"})

	log.Info("hello from the pool")

	content := read()
	require.Contains(t, content, `"service":"testsvc"`)
	require.Contains(t, content, "hello from the pool")
}

func TestNew_LevelFallbackAndDefaultService(t *testing.T) {
	log, read := newFileLogger(t, Config{Level: "nonsense"})

	// An unknown level falls back to info: debug lines are suppressed.
	log.Debug("invisible")
	log.Info("visible")

	content := read()
	require.NotContains(t, content, "invisible")
	require.Contains(t, content, "visible")
	require.Contains(t, content, `"service":"`+DefaultService+`"`)
}

func TestComponent_TagsChildLogger(t *testing.T) {
	log, read := newFileLogger(t, Config{Level: "debug"})

	Component(log, "buffer_pool").Info("evicted frame")

	require.Contains(t, read(), `"component":"buffer_pool"`)
}
