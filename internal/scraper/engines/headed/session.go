package headed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/utils"
)

// State is a Session lifecycle state
type State int

const (
	StateIdle State = iota
	StateLaunching
	StateReady
	StateNavigating
	StateClosed
	StateFailed
)

func (s State) String() string {
	return [...]string{"idle", "launching", "ready", "navigating", "closed", "failed"}[s]
}

// driver is the browser automation backend behind a Session
type driver interface {
	Launch(ctx context.Context, opts launchOptions) error
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	FetchPage(ctx context.Context, url string) (string, error)
	Close() error
}

type launchOptions struct {
	Headless     bool
	UserAgent    string
	ChromePath   string
	ProxyServer  string
	ExtensionDir string
}

// Options configures a Session
type Options struct {
	Headless          bool
	UserAgent         string
	ChromePath        string
	LaunchTimeout     time.Duration
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	Proxy             ProxyConfig
}

// OptionsFromConfig derives session options from the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Headless:          cfg.Scraper.HeadlessMode,
		UserAgent:         cfg.Scraper.UserAgent,
		LaunchTimeout:     cfg.Scraper.LaunchTimeout,
		NavigationTimeout: cfg.Scraper.NavigationTimeout,
		SettleDelay:       cfg.Scraper.SettleDelay,
		Proxy:             ProxyFromConfig(cfg),
	}
}

// Session owns one browser process for the length of a scrape. It is not
// shared between scrapes; Close must run on every exit path.
type Session struct {
	mu        sync.Mutex
	state     State
	opts      Options
	drv       driver
	bundleDir string
	logger    types.Logger
}

// NewSession creates an idle session backed by Rod
func NewSession(opts Options) *Session {
	return newSession(opts, newRodDriver())
}

func newSession(opts Options, drv driver) *Session {
	return &Session{
		state:  StateIdle,
		opts:   opts,
		drv:    drv,
		logger: logging.GetGlobalLogger().WithField("component", "browser_session"),
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition moves from one of the allowed states to next
func (s *Session) transition(next State, from ...State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, allowed := range from {
		if s.state == allowed {
			s.state = next
			return nil
		}
	}
	return fmt.Errorf("browser session cannot move from %s to %s", s.state, next)
}

func (s *Session) fail() {
	s.mu.Lock()
	if s.state != StateClosed {
		s.state = StateFailed
	}
	s.mu.Unlock()
}

// Launch starts the browser, configuring the proxy the options describe
func (s *Session) Launch(ctx context.Context) error {
	if err := s.transition(StateLaunching, StateIdle); err != nil {
		return utils.NewLaunchFailedError(err)
	}

	lo := launchOptions{
		Headless:   s.opts.Headless,
		UserAgent:  s.opts.UserAgent,
		ChromePath: s.opts.ChromePath,
	}

	mode := s.opts.Proxy.Mode()
	switch mode {
	case ProxyAuthenticated:
		bundle, err := BuildProxyExtension(s.opts.Proxy)
		if err != nil {
			s.fail()
			return utils.NewLaunchFailedError(err)
		}
		dir, err := bundle.Materialize()
		if err != nil {
			s.fail()
			return utils.NewLaunchFailedError(err)
		}
		s.mu.Lock()
		s.bundleDir = dir
		s.mu.Unlock()
		lo.ExtensionDir = dir
	case ProxyUnauthenticated:
		lo.ProxyServer = s.opts.Proxy.Server()
	}

	launchCtx := ctx
	if s.opts.LaunchTimeout > 0 {
		var cancel context.CancelFunc
		launchCtx, cancel = context.WithTimeout(ctx, s.opts.LaunchTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.drv.Launch(launchCtx, lo); err != nil {
		s.fail()
		s.removeBundle()
		s.logger.Error("Browser launch failed", map[string]interface{}{
			"proxy_mode": mode.String(),
			"error":      err.Error(),
		})
		return utils.NewLaunchFailedError(err)
	}

	if err := s.transition(StateReady, StateLaunching); err != nil {
		return utils.NewLaunchFailedError(err)
	}

	s.logger.Debug("Browser launched", map[string]interface{}{
		"proxy_mode":  mode.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// Navigate loads url and blocks until the settle delay has elapsed. A
// timed-out attempt is retried once on the same session.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.transition(StateNavigating, StateReady, StateNavigating); err != nil {
		return utils.NewNavigationFailedError(url, false, err)
	}

	for attempt := 1; ; attempt++ {
		timedOut, err := s.navigateOnce(ctx, url)
		if err == nil {
			break
		}
		if !timedOut || ctx.Err() != nil || attempt == 2 {
			s.fail()
			return utils.NewNavigationFailedError(url, timedOut, err)
		}

		s.logger.Warn("Navigation timed out, retrying", map[string]interface{}{
			"url":     url,
			"attempt": attempt,
		})
	}

	if err := sleepCtx(ctx, s.opts.SettleDelay); err != nil {
		s.fail()
		return utils.NewNavigationFailedError(url, true, err)
	}
	return nil
}

func (s *Session) navigateOnce(ctx context.Context, url string) (bool, error) {
	navCtx := ctx
	cancel := func() {}
	if s.opts.NavigationTimeout > 0 {
		navCtx, cancel = context.WithTimeout(ctx, s.opts.NavigationTimeout)
	}
	defer cancel()

	err := s.drv.Navigate(navCtx, url)
	if err == nil {
		return false, nil
	}
	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(navCtx.Err(), context.DeadlineExceeded)
	return timedOut, err
}

// HTML returns the rendered document of the navigated page
func (s *Session) HTML(ctx context.Context) (string, error) {
	if st := s.State(); st != StateNavigating {
		return "", fmt.Errorf("no page loaded, session is %s", st)
	}
	html, err := s.drv.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

// FetchPage loads url in a separate tab and returns its rendered HTML.
// Safe for concurrent use once the session is ready.
func (s *Session) FetchPage(ctx context.Context, url string) (string, error) {
	if st := s.State(); st != StateReady && st != StateNavigating {
		return "", fmt.Errorf("cannot fetch page, session is %s", st)
	}
	return s.drv.FetchPage(ctx, url)
}

// Close releases the browser and deletes any generated proxy bundle. It is
// safe to call more than once and from any state, including Failed.
func (s *Session) Close() error {
	s.mu.Lock()
	prev := s.state
	s.state = StateClosed
	s.mu.Unlock()

	if prev == StateClosed {
		return nil
	}

	var err error
	if prev != StateIdle {
		err = s.drv.Close()
	}
	s.removeBundle()

	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

func (s *Session) removeBundle() {
	s.mu.Lock()
	dir := s.bundleDir
	s.bundleDir = ""
	s.mu.Unlock()

	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("Failed to remove proxy extension", map[string]interface{}{"error": err.Error()})
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
