package headed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/pkg/utils"
)

// unlaunchableBinaries returns browser paths that fail before a process starts
func unlaunchableBinaries(t *testing.T) map[string]string {
	t.Helper()
	dir := t.TempDir()

	notExecutable := filepath.Join(dir, "chrome-not-executable")
	require.NoError(t, os.WriteFile(notExecutable, []byte("not a browser"), 0o600))

	return map[string]string{
		"missing":        filepath.Join(dir, "chrome-missing"),
		"not executable": notExecutable,
	}
}

func closeWithin(t *testing.T, closeFn func() error, limit time.Duration) error {
	t.Helper()
	closed := make(chan error, 1)
	go func() { closed <- closeFn() }()

	select {
	case err := <-closed:
		return err
	case <-time.After(limit):
		t.Fatalf("Close still blocked after %s", limit)
		return nil
	}
}

func TestRodDriver_CloseAfterFailedLaunch(t *testing.T) {
	for name, bin := range unlaunchableBinaries(t) {
		t.Run(name, func(t *testing.T) {
			d := newRodDriver()
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()

			require.Error(t, d.Launch(ctx, launchOptions{Headless: true, ChromePath: bin}))
			assert.NoError(t, closeWithin(t, d.Close, 5*time.Second))
		})
	}
}

func TestRodDriver_CloseWithoutLaunch(t *testing.T) {
	assert.NoError(t, closeWithin(t, newRodDriver().Close, time.Second))
}

func TestSession_RodCloseAfterFailedLaunch(t *testing.T) {
	for name, bin := range unlaunchableBinaries(t) {
		t.Run(name, func(t *testing.T) {
			s := NewSession(Options{Headless: true, ChromePath: bin, LaunchTimeout: 20 * time.Second})

			err := s.Launch(context.Background())
			require.Error(t, err)
			assert.True(t, utils.HasReason(err, utils.ReasonLaunchFailed))
			assert.Equal(t, StateFailed, s.State())

			assert.NoError(t, closeWithin(t, s.Close, 5*time.Second))
			assert.Equal(t, StateClosed, s.State())
		})
	}
}
