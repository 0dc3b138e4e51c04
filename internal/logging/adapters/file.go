package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jobscout/internal/logging/types"
)

// FileAdapter appends entries to a file, rotating it once it grows past MaxSize
type FileAdapter struct {
	name        string
	config      FileConfig
	file        *os.File
	currentSize int64
	mu          sync.Mutex
}

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath    string `yaml:"file_path"`
	Format      string `yaml:"format"`
	MaxSize     int64  `yaml:"max_size"` // bytes, 0 disables rotation
	CreateDirs  bool   `yaml:"create_dirs"`
	SyncOnWrite bool   `yaml:"sync_on_write"`
}

// NewFileAdapter creates a new file adapter
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file adapter")
	}
	if config.Format == "" {
		config.Format = "json"
	}

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directories: %w", err)
		}
	}

	adapter := &FileAdapter{name: name, config: config}
	if err := adapter.open(); err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return adapter, nil
}

// Write writes a log entry to the file
func (a *FileAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.MaxSize > 0 && a.currentSize >= a.config.MaxSize {
		if err := a.rotate(); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	line, err := formatEntry(entry, a.config.Format, false)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}

	n, err := a.file.WriteString(line + "\n")
	if err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}
	a.currentSize += int64(n)

	if a.config.SyncOnWrite {
		return a.file.Sync()
	}
	return nil
}

// Close closes the underlying file
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Name returns the name of the adapter
func (a *FileAdapter) Name() string {
	return a.name
}

func (a *FileAdapter) open() error {
	file, err := os.OpenFile(a.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	a.file = file
	a.currentSize = info.Size()
	return nil
}

func (a *FileAdapter) rotate() error {
	if err := a.file.Close(); err != nil {
		return err
	}

	backup := fmt.Sprintf("%s.%s", a.config.FilePath, time.Now().Format("20060102-150405.000"))
	if err := os.Rename(a.config.FilePath, backup); err != nil {
		return err
	}

	return a.open()
}
