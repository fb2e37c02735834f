package streeteasy

import (
	"context"
	"fmt"
	neturl "net/url"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"apartment-tracker/config"
	"apartment-tracker/utils"
)

const pageTimeout = 60 * time.Second

// Fetcher retrieves StreetEasy pages through headless Chrome. StreetEasy
// blocks plain HTTP clients, so every fetch runs a real browser navigation
// and returns the rendered document HTML.
type Fetcher struct {
	logger      *utils.Logger
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
}

// NewFetcher creates a Fetcher with its own browser allocator. Call Close
// when the run is finished.
func NewFetcher(cfg *config.Config, logger *utils.Logger) *Fetcher {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[streeteasy] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	return &Fetcher{
		logger:      logger,
		allocCtx:    silentCtx,
		cancelAlloc: cancelAlloc,
		cancelCtx:   cancelSilent,
	}
}

// FetchPage navigates to url and returns the page HTML. Failures are
// classified via utils.FetchError: HTTP 429/5xx and navigation timeouts are
// transient, malformed URLs and other 4xx are permanent.
func (f *Fetcher) FetchPage(url string) (string, error) {
	if fe := validateURL(url); fe != nil {
		return "", fe
	}

	ctx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, pageTimeout)
	defer cancelTimeout()

	resp, err := chromedp.RunResponse(ctx, chromedp.Navigate(url))
	if err != nil {
		return "", &utils.FetchError{Kind: utils.Transient,
			Err: fmt.Errorf("navigate %s: %w", url, err)}
	}
	if resp != nil {
		if fe := utils.ClassifyStatus(int(resp.Status), url); fe != nil {
			return "", fe
		}
	}

	var html string
	err = chromedp.Run(ctx,
		chromedp.Sleep(3*time.Second), // let the card grid render
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &utils.FetchError{Kind: utils.Transient,
			Err: fmt.Errorf("extract html %s: %w", url, err)}
	}

	return html, nil
}

// validateURL rejects targets the browser could never load. Retrying a
// malformed URL cannot help, so these are permanent failures.
func validateURL(rawURL string) *utils.FetchError {
	u, err := neturl.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &utils.FetchError{Kind: utils.Permanent,
			Err: fmt.Errorf("invalid url %q", rawURL)}
	}
	return nil
}

// Close releases the browser allocator.
func (f *Fetcher) Close() {
	f.cancelCtx()
	f.cancelAlloc()
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
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
