package harti

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"bulletin-etl/utils"
)

// BrowserDiscoverer renders the source page in headless Chrome before
// collecting links, for listings that are filled in by scripts.
type BrowserDiscoverer struct {
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
}

// NewBrowserDiscoverer uses chromeBin, or the first Chrome found on the
// machine when chromeBin is empty.
func NewBrowserDiscoverer(chromeBin string, timeout time.Duration, logger *utils.Logger) *BrowserDiscoverer {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &BrowserDiscoverer{chromeBin: chromeBin, timeout: timeout, logger: logger}
}

func (b *BrowserDiscoverer) Discover(ctx context.Context, pageURL string) ([]string, error) {
	b.logger.Info("[discover] Rendering %s with browser binary: %s", pageURL, b.chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if b.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(b.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("discover: render %s: %w", pageURL, err)
	}

	links, err := ExtractPDFLinks(pageURL, strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	b.logger.Info("[discover] Found %d PDF links on %s", len(links), pageURL)
	return links, nil
}

func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
