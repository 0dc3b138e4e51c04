package headed

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// rodDriver drives a local Chromium through Rod
type rodDriver struct {
	mu        sync.Mutex
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	userAgent string
}

func newRodDriver() *rodDriver {
	return &rodDriver{}
}

func (d *rodDriver) Launch(ctx context.Context, opts launchOptions) error {
	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	bin := opts.ChromePath
	if bin == "" {
		bin = getSystemChromePath()
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	if opts.UserAgent != "" {
		l = l.Set("user-agent", opts.UserAgent)
	}

	if opts.ProxyServer != "" {
		l = l.Proxy(opts.ProxyServer)
	}

	if opts.ExtensionDir != "" {
		// unpacked extensions only load in the new headless mode
		l = l.Delete("disable-extensions").
			Set("load-extension", opts.ExtensionDir).
			Set("disable-extensions-except", opts.ExtensionDir)
		if opts.Headless {
			l = l.Set("headless", "new")
		}
	}

	d.mu.Lock()
	d.userAgent = opts.UserAgent
	d.mu.Unlock()

	type launched struct {
		url string
		err error
	}
	done := make(chan launched, 1)
	go func() {
		u, err := l.Launch()
		done <- launched{u, err}
	}()

	var controlURL string
	select {
	case res := <-done:
		if res.err != nil {
			reap(l)
			return fmt.Errorf("failed to launch browser: %w", res.err)
		}
		controlURL = res.url
	case <-ctx.Done():
		// a browser that comes up after the deadline is killed once it does
		go func() {
			<-done
			reap(l)
		}()
		return fmt.Errorf("browser launch: %w", ctx.Err())
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		reap(l)
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := d.newPage(browser)
	if err != nil {
		_ = browser.Close()
		reap(l)
		return err
	}

	d.mu.Lock()
	d.launcher = l
	d.browser = browser
	d.page = page
	d.mu.Unlock()
	return nil
}

func (d *rodDriver) newPage(browser *rod.Browser) (*rod.Page, error) {
	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if d.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: d.userAgent}); err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	return page, nil
}

func (d *rodDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	page := d.page
	d.mu.Unlock()
	if page == nil {
		return fmt.Errorf("browser not launched")
	}

	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (d *rodDriver) HTML(ctx context.Context) (string, error) {
	d.mu.Lock()
	page := d.page
	d.mu.Unlock()
	if page == nil {
		return "", fmt.Errorf("browser not launched")
	}
	return page.Context(ctx).HTML()
}

// FetchPage uses a throwaway tab so detail fetches can run side by side
func (d *rodDriver) FetchPage(ctx context.Context, url string) (string, error) {
	d.mu.Lock()
	browser := d.browser
	d.mu.Unlock()
	if browser == nil {
		return "", fmt.Errorf("browser not launched")
	}

	page, err := d.newPage(browser)
	if err != nil {
		return "", err
	}
	defer page.Close()

	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to load %s: %w", url, err)
	}

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return html, nil
}

func (d *rodDriver) Close() error {
	d.mu.Lock()
	browser, l := d.browser, d.launcher
	d.browser, d.page, d.launcher = nil, nil, nil
	d.mu.Unlock()

	var err error
	if browser != nil {
		err = browser.Close()
	}
	if l != nil {
		reap(l)
	}
	return err
}

// reap kills the browser process and removes its user data dir. Cleanup
// waits for the process to exit, so it only runs once a process was started.
func reap(l *launcher.Launcher) {
	if l.PID() == 0 {
		return
	}
	l.Kill()
	l.Cleanup()
}

// getSystemChromePath finds a system-installed Chrome/Chromium; empty lets Rod download one
func getSystemChromePath() string {
	for _, env := range []string{"CHROME_BIN", "CHROME_PATH"} {
		if p := os.Getenv(env); p != "" {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	if p, found := launcher.LookPath(); found {
		return p
	}
	return ""
}
