package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/config"
	"jobscout/internal/logging/adapters"
	"jobscout/internal/logging/types"
)

type captureAdapter struct {
	mu      sync.Mutex
	name    string
	entries []*types.LogEntry
	closed  bool
}

func (c *captureAdapter) Write(entry *types.LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

func (c *captureAdapter) Close() error {
	c.closed = true
	return nil
}

func (c *captureAdapter) Name() string { return c.name }

func TestMultiLogger_LevelFiltering(t *testing.T) {
	logger := NewMultiLogger()
	capture := &captureAdapter{name: "capture"}
	require.NoError(t, logger.AddAdapter(capture))

	logger.SetLevel(WarnLevel)
	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	require.Len(t, capture.entries, 2)
	assert.Equal(t, WarnLevel, capture.entries[0].Level)
	assert.Equal(t, ErrorLevel, capture.entries[1].Level)
}

func TestMultiLogger_ChildrenShareAdaptersAndLevel(t *testing.T) {
	logger := NewMultiLogger()
	capture := &captureAdapter{name: "capture"}
	require.NoError(t, logger.AddAdapter(capture))

	child := logger.WithField("request_id", "abc").WithFields(map[string]interface{}{"keyword": "go"})
	logger.SetLevel(ErrorLevel)

	child.Info("suppressed by parent level")
	child.Error("search failed", map[string]interface{}{"status": 502})

	require.Len(t, capture.entries, 1)
	fields := capture.entries[0].Fields
	assert.Equal(t, "abc", fields["request_id"])
	assert.Equal(t, "go", fields["keyword"])
	assert.Equal(t, 502, fields["status"])

	logger.Info("parent has no child fields")
	assert.Len(t, capture.entries, 1)
}

func TestMultiLogger_DuplicateAdapter(t *testing.T) {
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(&captureAdapter{name: "x"}))
	assert.Error(t, logger.AddAdapter(&captureAdapter{name: "x"}))
}

func TestMultiLogger_Fatal(t *testing.T) {
	var code int
	exitFunc = func(c int) { code = c }
	defer func() { exitFunc = os.Exit }()

	logger := NewMultiLogger()
	capture := &captureAdapter{name: "capture"}
	require.NoError(t, logger.AddAdapter(capture))

	logger.Fatal("boom")

	assert.Equal(t, 1, code)
	assert.True(t, capture.closed)
	require.Len(t, capture.entries, 1)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, InfoLevel, ParseLogLevel("nonsense"))
}

func TestWriterAdapter_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(adapters.NewWriterAdapter("json", adapters.StdoutConfig{Format: "json"}, &buf)))

	logger.Info("cache hit", map[string]interface{}{"key": "jobs:v1:keyword=go"})

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "info", decoded["level"])
	assert.Equal(t, "cache hit", decoded["message"])
	assert.Equal(t, "jobs:v1:keyword=go", decoded["key"])

	buf.Reset()
	text := NewMultiLogger()
	require.NoError(t, text.AddAdapter(adapters.NewWriterAdapter("text", adapters.StdoutConfig{Format: "text"}, &buf)))
	text.Warn("slow detail fetch", map[string]interface{}{"url": "u", "attempt": 2})

	line := buf.String()
	assert.Contains(t, line, "[WARN] slow detail fetch")
	assert.True(t, strings.Index(line, "attempt=2") < strings.Index(line, "url=u"))
}

func TestManager_FileAdapterFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jobscout.log")

	cfg := config.Default()
	cfg.Logging.Level = "debug"
	cfg.Logging.Adapters = append(cfg.Logging.Adapters, struct {
		Name    string                 `yaml:"name"`
		Type    string                 `yaml:"type"`
		Enabled bool                   `yaml:"enabled"`
		Options map[string]interface{} `yaml:"options"`
	}{
		Name:    "file",
		Type:    "file",
		Enabled: true,
		Options: map[string]interface{}{"file_path": path},
	})

	manager := NewManager()
	require.NoError(t, manager.Initialize(cfg))
	manager.GetLogger().Debug("written to disk")
	require.NoError(t, manager.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to disk")
}

func TestManager_UnknownAdapterType(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Adapters = append(cfg.Logging.Adapters, struct {
		Name    string                 `yaml:"name"`
		Type    string                 `yaml:"type"`
		Enabled bool                   `yaml:"enabled"`
		Options map[string]interface{} `yaml:"options"`
	}{Name: "x", Type: "syslog", Enabled: true})

	assert.Error(t, NewManager().Initialize(cfg))
}
