package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"kickstarter-scraper/config"
	"kickstarter-scraper/models"
	"kickstarter-scraper/utils"
)

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var errCaptcha = errors.New("captcha challenge served")

// Browser renders pages through headless Chrome. Campaign and profile pages
// build most of their content client-side, so a plain HTTP GET is not enough
// for them.
type Browser struct {
	cfg    *config.Config
	logger *utils.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBrowser creates a browser fetcher. Chrome itself starts lazily on the
// first Fetch call.
func NewBrowser(cfg *config.Config, logger *utils.Logger) *Browser {
	return &Browser{cfg: cfg, logger: logger}
}

// newContext creates a fresh chromedp context (one browser, one tab at a time)
func newContext() (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"), // suppress Chrome logs
		chromedp.UserAgent(browserUserAgent),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

// Close shuts down the Chrome instance if one was started.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.ctx = nil
		b.cancel = nil
	}
}

// Fetch navigates to the page, lets it settle according to its kind, and
// returns the rendered DOM. A served CAPTCHA is waited out and retried.
func (b *Browser) Fetch(ctx context.Context, pageURL string, kind PageKind) (*Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx == nil {
		b.ctx, b.cancel = newContext()
	}
	tab := b.ctx

	var html string
	err := utils.RetryWithBackoff(ctx, b.cfg.MaxRetries, func() error {
		run, cancelRun := context.WithTimeout(tab, time.Duration(b.cfg.PageTimeoutSec)*time.Second)
		defer cancelRun()

		err := chromedp.Run(run,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(4*time.Second), // give JS time to render
		)
		if err != nil {
			return fmt.Errorf("navigate failed: %w", err)
		}

		b.settle(run, kind)

		if err := chromedp.Run(run, chromedp.OuterHTML("html", &html)); err != nil {
			return fmt.Errorf("html capture failed: %w", err)
		}

		if strings.Contains(html, "px-captcha") {
			b.logger.Warn("CAPTCHA served for %s, waiting %ds before retry", pageURL, b.cfg.CaptchaWaitSec)
			time.Sleep(time.Duration(b.cfg.CaptchaWaitSec) * time.Second)
			return errCaptcha
		}
		return nil
	}, b.logger)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}
	if pageAbsent(doc, kind) {
		return nil, models.ErrDeletedOrHidden
	}
	return &Document{Document: doc, AccessedAt: time.Now()}, nil
}

// settle runs the per-kind stabilization step. Failures here are tolerated;
// extraction strategies cope with partially settled pages.
func (b *Browser) settle(ctx context.Context, kind PageKind) {
	switch kind {
	case PageCampaign:
		// The creator byline only loads its created/backed counts after a
		// click opens the about-the-creator panel.
		_ = chromedp.Run(ctx, chromedp.Evaluate(`
			(function() {
				var el = document.querySelector('div.do-not-visually-track') ||
				         document.querySelector('a.hide-on-broken-img');
				if (el) el.click();
				return true;
			})()
		`, nil))
		_ = chromedp.Run(ctx, chromedp.Sleep(2*time.Second))

	case PageRewards:
		if err := chromedp.Run(ctx, chromedp.WaitVisible(`article[data-test-id]`, chromedp.ByQuery)); err != nil {
			// fallback: just wait a bit more
			_ = chromedp.Run(ctx, chromedp.Sleep(3*time.Second))
		}

	case PageBacked:
		// The backed listing lazy-loads while scrolling. Scroll until the
		// last-page marker appears or we give up.
		for i := 0; i < 30; i++ {
			var done bool
			err := chromedp.Run(ctx,
				chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
				chromedp.Sleep(time.Second),
				chromedp.Evaluate(`document.querySelector("li[data-last_page='true']") !== null`, &done),
			)
			if err != nil || done {
				break
			}
		}
	}
}
